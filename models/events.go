// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Op is the kind of a local mutation.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Origin tells who caused a local mutation.
type Origin int

const (
	// OriginLocal marks mutations made by the application.
	OriginLocal Origin = iota
	// OriginRemote marks writes performed by the sync engine while pulling.
	// The engine ignores these events so a pulled record is not echoed back.
	OriginRemote
)

// ChangeEvent is emitted by the record store after every committed mutation.
// For OpDelete only Collection and ID are meaningful.
type ChangeEvent struct {
	Collection Collection
	Op         Op
	ID         string
	Record     Record
	Origin     Origin
}
