package service

import (
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/models"
)

type logReporter struct {
	logger *logger.Logger
}

// NewLogReporter returns a [Reporter] writing every event to logger.
// Progress is logged at debug level only.
func NewLogReporter(logger *logger.Logger) Reporter {
	return &logReporter{logger: logger}
}

func (r *logReporter) PassStarted(passID, trigger string) {
	r.logger.Info().
		Str("pass_id", passID).
		Str("trigger", trigger).
		Msg("full sync started")
}

func (r *logReporter) Progress(p models.Progress) {
	r.logger.Debug().
		Str("collection", string(p.Collection)).
		Int("processed", p.Processed).
		Int("total", p.Total).
		Msg("sync progress")
}

func (r *logReporter) RecordFailed(f models.RecordFailure) {
	r.logger.Warn().
		Str("collection", string(f.Collection)).
		Str("record_id", f.ID).
		Str("direction", string(f.Direction)).
		Str("kind", string(f.Kind)).
		Str("error", f.Message).
		Msg("record could not sync")
}

func (r *logReporter) CollectionCompleted(c models.CollectionReport) {
	r.logger.Info().
		Str("collection", string(c.Collection)).
		Int("local_only", c.LocalOnly).
		Int("remote_only", c.RemoteOnly).
		Int("pushed", c.Pushed).
		Int("pulled", c.Pulled).
		Int("tombstoned", c.Tombstoned).
		Int("skipped", c.Skipped).
		Int("failed", c.Failed).
		Msg("collection synced")
}

func (r *logReporter) PassCompleted(rep *models.SyncReport) {
	r.logger.Info().
		Str("pass_id", rep.PassID).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Int("failures", len(rep.Failures)).
		Strs("failed_ids", rep.FailedIDs()).
		Bool("cancelled", rep.Cancelled).
		Msg("full sync completed")
}

// multiReporter fans every event out to all reporters in order.
type multiReporter []Reporter

// NewMultiReporter combines reporters into one. Nil entries are skipped.
func NewMultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiReporter) PassStarted(passID, trigger string) {
	for _, r := range m {
		r.PassStarted(passID, trigger)
	}
}

func (m multiReporter) Progress(p models.Progress) {
	for _, r := range m {
		r.Progress(p)
	}
}

func (m multiReporter) RecordFailed(f models.RecordFailure) {
	for _, r := range m {
		r.RecordFailed(f)
	}
}

func (m multiReporter) CollectionCompleted(c models.CollectionReport) {
	for _, r := range m {
		r.CollectionCompleted(c)
	}
}

func (m multiReporter) PassCompleted(rep *models.SyncReport) {
	for _, r := range m {
		r.PassCompleted(rep)
	}
}
