package config

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func validConfig() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{
			Local:   LocalDB{DSN: "studio.db"},
			Remote:  RemoteDB{DSN: "postgres://localhost/studio"},
			Objects: Objects{Endpoint: "http://localhost:9000"},
		},
	}
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder: без источников конфигурации нет remote DSN,
// поэтому валидация не проходит.
func TestBuild_EmptyBuilder(t *testing.T) {
	_, err := newConfigBuilder().build()
	assert.ErrorIs(t, err, ErrInvalidRemoteConfigs)
}

// TestBuild_PropagatesBuilderError verifies that an accumulated source error
// is returned before any merge happens.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	sentinel := errors.New("boom")
	b := newConfigBuilder()
	b.err = sentinel

	cfg, err := b.build()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, sentinel)
}

// TestBuild_LaterSourceOverrides verifies that non-zero fields of a later
// source win and zero fields keep earlier values.
func TestBuild_LaterSourceOverrides(t *testing.T) {
	first := validConfig()
	first.Sync.Concurrency = 2
	first.App.SessionToken = "from-env"

	second := &StructuredConfig{
		Storage: Storage{Remote: RemoteDB{DSN: "postgres://other/studio"}},
		Sync:    Sync{Concurrency: 9},
	}

	b := newConfigBuilder()
	b.configs = append(b.configs, first, second)

	cfg, err := b.build()

	require.NoError(t, err)
	assert.Equal(t, "postgres://other/studio", cfg.Storage.Remote.DSN)
	assert.Equal(t, 9, cfg.Sync.Concurrency)
	assert.Equal(t, "from-env", cfg.App.SessionToken)
	assert.Equal(t, "studio.db", cfg.Storage.Local.DSN)
}

// TestBuild_AppliesDefaults verifies that unset settings receive defaults.
func TestBuild_AppliesDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, validConfig())

	cfg, err := b.build()

	require.NoError(t, err)
	assert.Equal(t, DefaultSyncInterval, cfg.Sync.Interval)
	assert.Equal(t, DefaultConcurrency, cfg.Sync.Concurrency)
	assert.Equal(t, DefaultShards, cfg.Sync.Shards)
	assert.Equal(t, DefaultRequestTimeout, cfg.Sync.RequestTimeout)
	assert.Equal(t, DefaultMediaBucket, cfg.Storage.Objects.MediaBucket)
	assert.Equal(t, DefaultRestrictedBkt, cfg.Storage.Objects.RestrictedBucket)
	assert.Equal(t, DefaultObjectRegion, cfg.Storage.Objects.Region)
	assert.Equal(t, []string{"avatar", "face", "character"}, cfg.Storage.Objects.RestrictedAssetTypes)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Objects.PublicBaseURL)
	assert.Equal(t, DefaultHTTPAddress, cfg.Server.HTTPAddress)
}

// ── withFlags / withJSON ──────────────────────────────────────────────────────

func TestWithFlags_BadFlagRecordsError(t *testing.T) {
	b := newConfigBuilder().withFlags([]string{"-nope"})
	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

func TestWithJSON_NoPathIsNoop(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, validConfig())

	b.withJSON()

	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_LoadsFileFromFlags(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{
			"remote":  map[string]any{"dsn": "postgres://json/studio"},
			"objects": map[string]any{"endpoint": "http://json:9000"},
		},
		"sync": map[string]any{"interval": "1h"},
	})

	cfg, err := newConfigBuilder().
		withFlags([]string{"-config", path}).
		withJSON().
		build()

	require.NoError(t, err)
	assert.Equal(t, "postgres://json/studio", cfg.Storage.Remote.DSN)
	assert.Equal(t, "http://json:9000", cfg.Storage.Objects.Endpoint)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
}

func TestWithJSON_MissingFileRecordsError(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/definitely/not/here.json"})

	b.withJSON()

	assert.Error(t, b.err)
}

// ── validate ──────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*StructuredConfig) {}},
		{name: "in-memory local", mutate: func(c *StructuredConfig) { c.Storage.Local.DSN = "file::memory:?cache=shared" }, wantErr: ErrInvalidStorageConfigs},
		{name: "empty remote", mutate: func(c *StructuredConfig) { c.Storage.Remote.DSN = "" }, wantErr: ErrInvalidRemoteConfigs},
		{name: "empty endpoint", mutate: func(c *StructuredConfig) { c.Storage.Objects.Endpoint = "" }, wantErr: ErrInvalidObjectStorageConfigs},
		{name: "same buckets", mutate: func(c *StructuredConfig) { c.Storage.Objects.RestrictedBucket = c.Storage.Objects.MediaBucket }, wantErr: ErrInvalidObjectStorageConfigs},
		{name: "negative concurrency", mutate: func(c *StructuredConfig) { c.Sync.Concurrency = -1 }, wantErr: ErrInvalidSyncConfigs},
		{name: "negative timeout", mutate: func(c *StructuredConfig) { c.Sync.RequestTimeout = -time.Second }, wantErr: ErrInvalidSyncConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.withDefaults()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
