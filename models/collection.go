// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

// Collection names one independently synchronized group of records. The same
// name is used for the local collection key and the remote table.
type Collection string

const (
	// Folders holds the folder tree. Other collections reference folders by id.
	Folders Collection = "folders"

	// Assets holds media assets (images, videos, reference pictures).
	Assets Collection = "assets"

	// Posts holds composed posts, each with zero or more images.
	Posts Collection = "posts"

	// History holds generation-history entries produced by AI providers.
	History Collection = "generation_history"

	// Presets holds reusable generation presets.
	Presets Collection = "presets"

	// Configuration holds configuration blobs keyed by name.
	Configuration Collection = "configuration"
)

// SyncOrder lists all collections in dependency order: a collection that
// references another one by id comes after it, so a referencer is never
// pushed before its referent within one pass.
var SyncOrder = []Collection{
	Folders,
	Assets,
	Posts,
	History,
	Presets,
	Configuration,
}

// Table returns the remote table name for the collection.
func (c Collection) Table() string {
	return string(c)
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	return string(c)
}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range SyncOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCollection converts s into a known Collection.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
	}
	return c, nil
}
