package http

import (
	"net/http"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) getRecordState(w http.ResponseWriter, r *http.Request) {
	collection, err := models.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")

	state, err := h.services.Engine.State(r.Context(), collection, id)
	if err != nil {
		logger.FromRequest(r).Info().Err(err).
			Str("func", "*Handler.getRecordState").
			Str("collection", collection.String()).
			Str("id", id).
			Msg("record state unavailable")
		utils.WriteError(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.RecordStateResponse{Collection: collection, ID: id, State: state}, http.StatusOK)
}

// getTombstones lists the ids deleted locally, oldest first.
func (h *Handler) getTombstones(w http.ResponseWriter, r *http.Request) {
	tombstones, err := h.services.Tombstones.List(r.Context())
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getTombstones").Msg("failed to list tombstones")
		utils.WriteError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tombstones == nil {
		tombstones = []models.Tombstone{}
	}

	utils.WriteJSON(w, tombstones, http.StatusOK)
}
