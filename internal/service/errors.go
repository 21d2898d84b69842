package service

import "errors"

var (
	// ErrSyncInProgress is returned by FullSync while another pass runs.
	// Callers treat it as a no-op; the trigger is dropped, not queued.
	ErrSyncInProgress = errors.New("full sync already in progress")

	// ErrMigrationInProgress is returned by BulkMigrator.Run while another
	// migration runs.
	ErrMigrationInProgress = errors.New("bulk migration already in progress")

	// ErrUnknownOperation is returned for change events with an unexpected op.
	ErrUnknownOperation = errors.New("unknown change operation")

	// ErrVersionIsNotSpecified is returned when neither the configuration
	// nor the build carries a version.
	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)
