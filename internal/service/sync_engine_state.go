package service

import (
	"context"
	"fmt"
	"reflect"

	"github.com/MKhiriev/go-studio-sync/models"
)

// State implements [SyncEngine]. Binary fields and the object paths they
// fill are not compared: the local copy keeps them inline while the remote
// row holds URLs.
func (e *syncEngine) State(ctx context.Context, collection models.Collection, id string) (models.RecordState, error) {
	tombstoned, err := e.tombstones.IsTombstoned(ctx, id)
	if err != nil {
		return "", fmt.Errorf("check tombstone of %s/%s: %w", collection, id, err)
	}
	if tombstoned {
		return models.StateTombstoned, nil
	}

	local, err := e.records.Get(ctx, collection, id)
	if err != nil {
		return "", fmt.Errorf("load %s/%s: %w", collection, id, err)
	}

	owner, err := e.session.Owner()
	if err != nil {
		return "", err
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	rows, err := e.remote.SelectAll(callCtx, collection.Table(), owner)
	if err != nil {
		return "", fmt.Errorf("select %s: %w", collection, err)
	}

	for _, row := range rows {
		if row.ID() != id {
			continue
		}
		remote, err := e.mapper.FromRemote(collection, row)
		if err != nil {
			return "", err
		}
		if sameContent(local, remote) {
			return models.StateSynced, nil
		}
		return models.StateLocalOnlyDirty, nil
	}

	return models.StateLocalOnly, nil
}

func sameContent(local, remote models.Record) bool {
	if local.Timestamp != remote.Timestamp {
		return false
	}
	schema, err := models.SchemaFor(local.Collection)
	if err != nil {
		return false
	}

	skip := make(map[string]bool)
	for _, f := range schema.BlobFields() {
		skip[f.Local] = true
		if f.PathField != "" {
			skip[f.PathField] = true
		}
	}

	for _, f := range schema.Fields {
		if skip[f.Local] {
			continue
		}
		l, lErr := models.NormalizeValue(f.Kind, local.Fields[f.Local])
		r, rErr := models.NormalizeValue(f.Kind, remote.Fields[f.Local])
		if lErr != nil || rErr != nil || !reflect.DeepEqual(l, r) {
			return false
		}
	}
	return true
}
