package http

import (
	"net/http"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
)

// requireSession rejects the request with 401 while the daemon holds no
// valid session token. The engine would fail the same way on its first
// remote call; answering early keeps the pass out of the status history.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := h.services.Session.Status()
		if !status.Valid {
			logger.FromRequest(r).Warn().
				Str("func", "*Handler.requireSession").
				Str("uri", r.RequestURI).
				Msg("request rejected, no valid session")
			utils.WriteError(w, ErrNoSession.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
