// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Record is the local representation of one collection member.
//
// Fields holds the payload keyed by local field name and is closed over the
// collection's [Schema]. Extra is the escape hatch for fields the schema does
// not know yet; they survive mapping untouched so that a newer client can
// round-trip data through an older one.
type Record struct {
	// ID is the UUID assigned at creation. It is the only join key between
	// the local and the remote representation and never changes.
	ID string `json:"id"`

	// Collection the record belongs to.
	Collection Collection `json:"collection"`

	// Timestamp is the creation / last meaningful mutation instant in epoch
	// milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Fields holds the schema-known payload fields keyed by local name.
	Fields map[string]any `json:"fields"`

	// Extra holds fields unknown to the schema, keyed by their original name.
	Extra map[string]any `json:"extra,omitempty"`
}

// NewRecord returns an empty record of the given collection stamped with the
// current time.
func NewRecord(collection Collection, id string) Record {
	return Record{
		ID:         id,
		Collection: collection,
		Timestamp:  time.Now().UnixMilli(),
		Fields:     make(map[string]any),
	}
}

// Clone returns a copy of r whose maps and list values can be mutated
// without affecting r.
func (r Record) Clone() Record {
	out := r
	out.Fields = cloneValues(r.Fields)
	if r.Extra != nil {
		out.Extra = cloneValues(r.Extra)
	}
	return out
}

// Key identifies a record across collections.
func (r Record) Key() string {
	return RecordKey(r.Collection, r.ID)
}

// RecordKey builds the key used to serialize operations on a single record.
func RecordKey(collection Collection, id string) string {
	return string(collection) + "/" + id
}

// RemoteRow is one row of a remote table keyed by remote column name.
type RemoteRow map[string]any

// ID returns the row's id column, or an empty string if it is missing.
func (r RemoteRow) ID() string {
	id, _ := r[ColumnID].(string)
	return id
}

// Remote column names shared by every table.
const (
	ColumnID        = "id"
	ColumnTimestamp = "created_at"
	ColumnOwner     = "owner"
)

// RemoteOnlyFields enumerates remote columns that have no local
// representation. They are dropped when a row is mapped back to a Record.
var RemoteOnlyFields = []string{ColumnOwner}

// Tombstone records a locally originated deletion.
type Tombstone struct {
	ID         string     `json:"id"`
	Collection Collection `json:"collection"`
	DeletedAt  time.Time  `json:"deleted_at"`
}

// RecordState is the local lifecycle state of a record as seen by the sync
// engine.
type RecordState string

const (
	StateLocalOnly      RecordState = "local_only"
	StateSynced         RecordState = "synced"
	StateLocalOnlyDirty RecordState = "local_only_dirty"
	StateTombstoned     RecordState = "tombstoned"
)

func cloneValues(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		switch val := v.(type) {
		case []string:
			dst[k] = slices.Clone(val)
		case []any:
			dst[k] = slices.Clone(val)
		case map[string]any:
			dst[k] = maps.Clone(val)
		default:
			dst[k] = v
		}
	}
	return dst
}

// TimestampLayout is the ISO-8601 form of remote timestamps. It keeps
// exactly millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp converts epoch milliseconds to the remote ISO-8601 form in
// UTC.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimestampLayout)
}

// ParseTimestamp converts a remote ISO-8601 timestamp back to epoch
// milliseconds. Inputs with a different offset or precision are accepted;
// sub-millisecond digits are truncated.
func ParseTimestamp(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, s, err)
	}
	return t.UnixMilli(), nil
}
