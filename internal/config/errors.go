package config

import "errors"

// Validation errors returned by [StructuredConfig.validate].
var (
	// ErrInvalidStorageConfigs indicates an empty or in-memory local DSN.
	// The tombstone ledger must survive restarts, so an in-memory store is
	// rejected.
	ErrInvalidStorageConfigs = errors.New("invalid local storage configuration")
	// ErrInvalidRemoteConfigs indicates a missing remote store DSN.
	ErrInvalidRemoteConfigs = errors.New("invalid remote storage configuration")
	// ErrInvalidObjectStorageConfigs indicates a missing endpoint or
	// buckets, or media and restricted buckets that are the same bucket.
	ErrInvalidObjectStorageConfigs = errors.New("invalid object storage configuration")
	// ErrInvalidSyncConfigs indicates non-positive concurrency or shard
	// count, or negative durations.
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
