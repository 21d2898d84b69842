package models

import "time"

// Status is a point-in-time view of the sync daemon served by the control
// API and printed by syncctl.
type Status struct {
	// Syncing is true while a full reconciliation pass is running.
	Syncing bool `json:"syncing"`
	// Migrating is true while a bulk migration is running.
	Migrating bool `json:"migrating"`
	// Progress is the latest progress of the running pass or migration.
	Progress *Progress `json:"progress,omitempty"`

	LastReport    *SyncReport       `json:"last_report,omitempty"`
	LastMigration *MigrationSummary `json:"last_migration,omitempty"`

	// Tombstones is the number of ids in the tombstone ledger.
	Tombstones int `json:"tombstones"`

	Session SessionStatus `json:"session"`
}

// SessionStatus describes the account session without exposing the token.
type SessionStatus struct {
	Valid     bool      `json:"valid"`
	Owner     string    `json:"owner,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// SessionRequest is the body of PUT /api/session.
type SessionRequest struct {
	Token string `json:"token"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// RecordStateResponse is the body of GET /api/records/{collection}/{id}/state.
type RecordStateResponse struct {
	Collection Collection  `json:"collection"`
	ID         string      `json:"id"`
	State      RecordState `json:"state"`
}
