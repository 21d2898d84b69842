package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
)

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	status := h.services.Status.Snapshot()
	status.Session = h.services.Session.Status()

	count, err := h.services.Tombstones.Count(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.getStatus").Msg("error counting tombstones")
		utils.WriteError(w, "error counting tombstones", http.StatusInternalServerError)
		return
	}
	status.Tombstones = count

	utils.WriteJSON(w, status, http.StatusOK)
}

// putSession replaces the session token, taken from an
// "Authorization: Bearer" header or from the JSON body. An empty body token
// logs the account out.
func (h *Handler) putSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.SessionRequest
	if header := r.Header.Get("Authorization"); header != "" {
		token, err := utils.ParseBearerToken(header)
		if err != nil {
			log.Err(err).Str("func", "*Handler.putSession").Msg("bad authorization header")
			utils.WriteError(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Token = token
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.putSession").Msg(ErrInvalidJSON.Error())
		utils.WriteError(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		h.services.Session.Clear()
		log.Info().Str("func", "*Handler.putSession").Msg("session cleared")
		utils.WriteJSON(w, h.services.Session.Status(), http.StatusOK)
		return
	}

	if err := h.services.Session.SetToken(req.Token); err != nil {
		log.Err(err).Str("func", "*Handler.putSession").Msg("token rejected")
		utils.WriteError(w, err.Error(), statusFromError(err))
		return
	}

	session := h.services.Session.Status()
	log.Info().Str("func", "*Handler.putSession").Str("owner", session.Owner).Msg("session updated")
	utils.WriteJSON(w, session, http.StatusOK)
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.AppInfo.GetAppVersion(r.Context()), http.StatusOK)
}
