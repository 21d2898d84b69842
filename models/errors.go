// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "errors"

var (
	// ErrUnknownCollection is returned when a collection name is not one of
	// the synchronized collections.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidFieldValue is returned when a field value does not match the
	// kind declared in the collection schema.
	ErrInvalidFieldValue = errors.New("invalid field value")

	// ErrInvalidTimestamp is returned when a remote timestamp cannot be
	// parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
