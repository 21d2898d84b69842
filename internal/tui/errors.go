// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"errors"
	"strings"
)

// ErrDetached is returned when the user leaves the progress view before the
// migration finished. The migration keeps running in the daemon.
var ErrDetached = errors.New("detached from migration")

// HumanizeError turns transport failures into a message that points at the
// daemon rather than at the socket.
func HumanizeError(err error) string {
	if err == nil {
		return ""
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "network is unreachable") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "sync daemon is not reachable"
	}

	return err.Error()
}
