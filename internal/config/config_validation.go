// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"strings"
)

// withDefaults fills every zero-valued setting that has a sensible default.
// The remote DSN, the object storage endpoint and the session token have no
// defaults.
func (cfg *StructuredConfig) withDefaults() {
	if cfg.Storage.Local.DSN == "" {
		cfg.Storage.Local.DSN = DefaultLocalDSN
	}

	objects := &cfg.Storage.Objects
	if objects.Region == "" {
		objects.Region = DefaultObjectRegion
	}
	if objects.MediaBucket == "" {
		objects.MediaBucket = DefaultMediaBucket
	}
	if objects.RestrictedBucket == "" {
		objects.RestrictedBucket = DefaultRestrictedBkt
	}
	if len(objects.RestrictedAssetTypes) == 0 {
		objects.RestrictedAssetTypes = strings.Split(defaultRestrictedTypes, ",")
	}
	if objects.PublicBaseURL == "" {
		objects.PublicBaseURL = objects.Endpoint
	}

	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = DefaultConcurrency
	}
	if cfg.Sync.Shards == 0 {
		cfg.Sync.Shards = DefaultShards
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = DefaultRequestTimeout
	}

	if cfg.Server.HTTPAddress == "" {
		cfg.Server.HTTPAddress = DefaultHTTPAddress
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the sentinel errors
// from errors.go otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.Local.DSN == "" || strings.Contains(cfg.Storage.Local.DSN, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Storage.Remote.DSN == "" {
		return ErrInvalidRemoteConfigs
	}

	objects := cfg.Storage.Objects
	if objects.Endpoint == "" || objects.MediaBucket == "" || objects.RestrictedBucket == "" {
		return ErrInvalidObjectStorageConfigs
	}
	if objects.MediaBucket == objects.RestrictedBucket {
		return ErrInvalidObjectStorageConfigs
	}

	if cfg.Sync.Concurrency < 1 || cfg.Sync.Shards < 1 || cfg.Sync.Interval < 0 || cfg.Sync.RequestTimeout < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
