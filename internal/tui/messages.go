package tui

import (
	"github.com/MKhiriev/go-studio-sync/models"
)

type statusMsg struct {
	status *models.Status
	err    error
}
