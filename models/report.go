// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ErrorKind classifies record-level sync failures.
type ErrorKind string

const (
	// ErrorTransient covers timeouts and connectivity loss. The record is
	// retried by the next pass.
	ErrorTransient ErrorKind = "transient"
	// ErrorPartialBlob means some binary fields of a record could not be
	// migrated; the record itself was still written.
	ErrorPartialBlob ErrorKind = "partial_blob"
	// ErrorMapping means a field could not be mapped; the record was skipped.
	ErrorMapping ErrorKind = "mapping"
	// ErrorUnauthorized means the session is missing or expired. It aborts
	// the whole pass.
	ErrorUnauthorized ErrorKind = "unauthorized"
	// ErrorOther is everything else.
	ErrorOther ErrorKind = "other"
)

// Direction of a record transfer.
type Direction string

const (
	DirectionPush   Direction = "push"
	DirectionPull   Direction = "pull"
	DirectionDelete Direction = "delete"
)

// RecordFailure describes one record that did not sync cleanly.
type RecordFailure struct {
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	Direction  Direction  `json:"direction"`
	Kind       ErrorKind  `json:"kind"`
	Message    string     `json:"message"`
}

// CollectionReport summarizes one collection of a full reconciliation pass.
type CollectionReport struct {
	Collection Collection `json:"collection"`
	LocalOnly  int        `json:"local_only"`
	RemoteOnly int        `json:"remote_only"`
	Pushed     int        `json:"pushed"`
	Pulled     int        `json:"pulled"`
	Tombstoned int        `json:"tombstoned"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
}

// SyncReport is the result of one full reconciliation pass. A pass with
// failures is still a successful pass; Failures lists what was skipped.
type SyncReport struct {
	PassID      string             `json:"pass_id"`
	Trigger     string             `json:"trigger,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Collections []CollectionReport `json:"collections"`
	Failures    []RecordFailure    `json:"failures,omitempty"`
	Cancelled   bool               `json:"cancelled,omitempty"`
}

// FailedIDs returns the ids of all failed records.
func (r *SyncReport) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.ID)
	}
	return ids
}

// Progress is a coarse liveness notification for long-running passes.
type Progress struct {
	Collection Collection `json:"collection"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
}

// MigrationSummary is the result of a bulk migration run.
type MigrationSummary struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `json:"total"`
	Uploaded   int             `json:"uploaded"`
	Skipped    int             `json:"skipped"`
	Failures   []RecordFailure `json:"failures,omitempty"`
	Cancelled  bool            `json:"cancelled,omitempty"`
}
