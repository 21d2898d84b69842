package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/service"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
)

// fullSync runs one pass and answers with its report. A pass that ended on
// an authorization failure still returns its partial report.
func (h *Handler) fullSync(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	ctx := utils.WithTrigger(r.Context(), service.TriggerManual)

	report, err := h.services.Engine.FullSync(ctx)
	switch {
	case err == nil:
		utils.WriteJSON(w, report, http.StatusOK)
	case errors.Is(err, service.ErrSyncInProgress):
		log.Info().Str("func", "*Handler.fullSync").Msg("pass already running")
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case report != nil:
		log.Err(err).Str("func", "*Handler.fullSync").Msg("pass aborted")
		utils.WriteJSON(w, report, statusFromError(err))
	default:
		log.Err(err).Str("func", "*Handler.fullSync").Msg("pass failed")
		utils.WriteError(w, err.Error(), statusFromError(err))
	}
}

// startMigration starts the bulk migration in the background; progress is
// read from GET /api/status.
func (h *Handler) startMigration(w http.ResponseWriter, r *http.Request) {
	if err := h.services.StartMigration(); err != nil {
		logger.FromRequest(r).Info().Err(err).Str("func", "*Handler.startMigration").Msg("migration not started")
		utils.WriteError(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
