package service

import (
	"sync"

	"github.com/MKhiriev/go-studio-sync/models"
)

// StatusTracker remembers the state of the running and the last finished
// pass and migration. It implements [Reporter] and is what GET /api/status
// reads.
type StatusTracker struct {
	mu            sync.RWMutex
	syncing       bool
	migrating     bool
	progress      *models.Progress
	lastReport    *models.SyncReport
	lastMigration *models.MigrationSummary
}

// NewStatusTracker returns an idle tracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

func (t *StatusTracker) PassStarted(_, _ string) {
	t.mu.Lock()
	t.syncing = true
	t.progress = nil
	t.mu.Unlock()
}

func (t *StatusTracker) Progress(p models.Progress) {
	t.mu.Lock()
	t.progress = &p
	t.mu.Unlock()
}

func (t *StatusTracker) RecordFailed(models.RecordFailure) {}

func (t *StatusTracker) CollectionCompleted(models.CollectionReport) {}

func (t *StatusTracker) PassCompleted(r *models.SyncReport) {
	t.mu.Lock()
	t.syncing = false
	t.progress = nil
	t.lastReport = r
	t.mu.Unlock()
}

// MigrationStarted marks a bulk migration as running. It reports false
// when one is already running.
func (t *StatusTracker) MigrationStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.migrating {
		return false
	}
	t.migrating = true
	t.progress = nil
	return true
}

// MigrationProgress records the progress of the running migration.
func (t *StatusTracker) MigrationProgress(p models.Progress) {
	t.Progress(p)
}

// MigrationCompleted stores the summary of a finished migration. summary may
// be nil when the job could not start.
func (t *StatusTracker) MigrationCompleted(summary *models.MigrationSummary) {
	t.mu.Lock()
	t.migrating = false
	t.progress = nil
	if summary != nil {
		t.lastMigration = summary
	}
	t.mu.Unlock()
}

// Snapshot returns the current state. Tombstones and Session are left zero;
// they belong to other components.
func (t *StatusTracker) Snapshot() models.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := models.Status{
		Syncing:       t.syncing,
		Migrating:     t.migrating,
		LastReport:    t.lastReport,
		LastMigration: t.lastMigration,
	}
	if t.progress != nil {
		p := *t.progress
		status.Progress = &p
	}
	return status
}
