// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-studio-sync/internal/adapter"
	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/mapper"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/models"
)

// classifyError maps an error of any collaborator onto the kind reported to
// the caller. Authorization wins over everything else: a partial blob failure
// caused by rejected storage credentials still aborts the pass.
func classifyError(err error) models.ErrorKind {
	if err == nil {
		return ""
	}

	var partial *blob.PartialError

	switch {
	case isUnauthorized(err):
		return models.ErrorUnauthorized
	case errors.As(err, &partial):
		return models.ErrorPartialBlob
	case errors.Is(err, mapper.ErrMapping),
		errors.Is(err, store.ErrInvalidRecord),
		errors.Is(err, store.ErrInvalidRow),
		errors.Is(err, models.ErrInvalidTimestamp),
		errors.Is(err, models.ErrInvalidFieldValue),
		errors.Is(err, models.ErrUnknownCollection):
		return models.ErrorMapping
	case errors.Is(err, store.ErrTransient),
		errors.Is(err, adapter.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return models.ErrorTransient
	}

	return models.ErrorOther
}

// isUnauthorized reports whether err means every following remote call would
// fail the same way.
func isUnauthorized(err error) bool {
	return errors.Is(err, auth.ErrUnauthorized) ||
		errors.Is(err, store.ErrUnauthorized) ||
		errors.Is(err, adapter.ErrUnauthorized)
}

func newFailure(collection models.Collection, id string, direction models.Direction, err error) models.RecordFailure {
	return models.RecordFailure{
		Collection: collection,
		ID:         id,
		Direction:  direction,
		Kind:       classifyError(err),
		Message:    err.Error(),
	}
}
