// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

var (
	// ErrNoSession is returned by routes that talk to the remote store while
	// no valid session token is set.
	ErrNoSession = errors.New("no valid session, set a token with PUT /api/session")

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")
)
