// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app is the composition root of the sync daemon.
//
// It opens the local and remote stores, connects the object storage, wires
// the sync services, starts the background workers and serves the control
// API until a termination signal arrives.
package app
