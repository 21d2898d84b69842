package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when a local record does not exist.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrUnauthorized is returned when the remote store rejects the
	// credentials of the session (invalid password, insufficient
	// privilege, missing owner). Every following call would fail the same
	// way.
	ErrUnauthorized = errors.New("remote store rejected the session")

	// ErrTransient is returned for failures that may succeed on a later
	// attempt: connection loss, timeouts, serialization failures.
	ErrTransient = errors.New("transient remote store failure")

	// ErrForeignRow is returned when an upsert hits a row with the same id
	// owned by another account. The row is left untouched.
	ErrForeignRow = errors.New("row is owned by another account")

	// ErrInvalidRecord is returned when a record has no id or does not fit
	// its collection schema.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidRow is returned when a remote row lacks its id or timestamp.
	ErrInvalidRow = errors.New("invalid remote row")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when multi-row iteration fails mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrEncodingPayload is returned when a record body cannot be encoded
	// to or decoded from JSON.
	ErrEncodingPayload = errors.New("failed to encode record payload")
)
