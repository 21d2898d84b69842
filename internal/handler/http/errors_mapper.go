package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-studio-sync/internal/adapter"
	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/service"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/models"
)

var errorStatusMap = map[error]int{
	service.ErrSyncInProgress:      http.StatusConflict,
	service.ErrMigrationInProgress: http.StatusConflict,

	auth.ErrUnauthorized:    http.StatusUnauthorized,
	auth.ErrInvalidToken:    http.StatusBadRequest,
	store.ErrUnauthorized:   http.StatusUnauthorized,
	adapter.ErrUnauthorized: http.StatusUnauthorized,
	ErrNoSession:            http.StatusUnauthorized,
	ErrInvalidJSON:          http.StatusBadRequest,

	models.ErrUnknownCollection: http.StatusBadRequest,
	store.ErrRecordNotFound:     http.StatusNotFound,

	store.ErrTransient:   http.StatusBadGateway,
	adapter.ErrTransient: http.StatusBadGateway,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
