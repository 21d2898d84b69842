// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package blob moves inline binary payloads of records to object storage and
// back.
//
// Outbound, every data URI in a blob field is decoded, uploaded under a
// content-addressed path and replaced by its public URL. Inbound, every
// absolute URL is downloaded and re-encoded as a data URI so that local
// records stay renderable offline.
package blob

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/adapter"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
)

// Migrator converts the blob fields of records between inline and hosted
// form. It is safe for concurrent use.
type Migrator struct {
	storage adapter.ObjectStorage
	router  Router
	timeout time.Duration

	logger *logger.Logger
}

// NewMigrator returns a Migrator uploading through storage into the buckets
// chosen by router. Every upload and download is bounded by timeout (no bound
// when zero).
func NewMigrator(storage adapter.ObjectStorage, router Router, timeout time.Duration, logger *logger.Logger) *Migrator {
	return &Migrator{
		storage: storage,
		router:  router,
		timeout: timeout,
		logger:  logger,
	}
}

// MigrateOutbound returns a copy of record in which every inline payload is
// replaced by the public URL of its uploaded object. Values that are already
// URLs are left alone, so the call is idempotent.
//
// A single field whose upload fails is set to nil, a failed list item is
// dropped. The returned record is always usable; the error, when not nil, is
// a [*PartialError] or a schema lookup failure.
func (m *Migrator) MigrateOutbound(ctx context.Context, record models.Record) (models.Record, error) {
	schema, err := models.SchemaFor(record.Collection)
	if err != nil {
		return record, err
	}

	out := record.Clone()
	partial := &PartialError{Collection: record.Collection, ID: record.ID}
	bucket := m.router.Bucket(record)

	for _, field := range schema.BlobFields() {
		value, ok := out.Fields[field.Local]
		if !ok || value == nil {
			continue
		}

		switch field.Kind {
		case models.KindBlob:
			s, isString := value.(string)
			if !isString || !IsDataURI(s) {
				continue
			}

			url, path, err := m.upload(ctx, record, bucket, s)
			if err != nil {
				m.logFailure("Migrator.MigrateOutbound", record, field.Local, err)
				partial.Failures = append(partial.Failures, FieldFailure{Field: field.Local, Index: -1, Err: err})
				out.Fields[field.Local] = nil
				continue
			}

			out.Fields[field.Local] = url
			if field.PathField != "" {
				out.Fields[field.PathField] = path
			}

		case models.KindBlobList:
			items, err := models.NormalizeValue(field.Kind, value)
			if err != nil {
				continue
			}

			list := items.([]string)
			migrated := make([]string, 0, len(list))
			for i, item := range list {
				if !IsDataURI(item) {
					migrated = append(migrated, item)
					continue
				}

				url, _, err := m.upload(ctx, record, bucket, item)
				if err != nil {
					m.logFailure("Migrator.MigrateOutbound", record, field.Local, err)
					partial.Failures = append(partial.Failures, FieldFailure{Field: field.Local, Index: i, Err: err})
					continue
				}
				migrated = append(migrated, url)
			}
			out.Fields[field.Local] = migrated
		}
	}

	if len(partial.Failures) > 0 {
		return out, partial
	}
	return out, nil
}

// MigrateInbound returns a copy of record in which every absolute URL in a
// blob field is replaced by a data URI of the downloaded object. A URL that
// cannot be downloaded is kept as is; it is still renderable online.
func (m *Migrator) MigrateInbound(ctx context.Context, record models.Record) (models.Record, error) {
	schema, err := models.SchemaFor(record.Collection)
	if err != nil {
		return record, err
	}

	out := record.Clone()
	partial := &PartialError{Collection: record.Collection, ID: record.ID}

	for _, field := range schema.BlobFields() {
		value, ok := out.Fields[field.Local]
		if !ok || value == nil {
			continue
		}

		switch field.Kind {
		case models.KindBlob:
			s, isString := value.(string)
			if !isString || !IsAbsoluteURL(s) {
				continue
			}

			inline, err := m.download(ctx, s)
			if err != nil {
				m.logFailure("Migrator.MigrateInbound", record, field.Local, err)
				partial.Failures = append(partial.Failures, FieldFailure{Field: field.Local, Index: -1, Err: err})
				continue
			}
			out.Fields[field.Local] = inline

		case models.KindBlobList:
			items, err := models.NormalizeValue(field.Kind, value)
			if err != nil {
				continue
			}

			list := items.([]string)
			for i, item := range list {
				if !IsAbsoluteURL(item) {
					continue
				}

				inline, err := m.download(ctx, item)
				if err != nil {
					m.logFailure("Migrator.MigrateInbound", record, field.Local, err)
					partial.Failures = append(partial.Failures, FieldFailure{Field: field.Local, Index: i, Err: err})
					continue
				}
				list[i] = inline
			}
			out.Fields[field.Local] = list
		}
	}

	if len(partial.Failures) > 0 {
		return out, partial
	}
	return out, nil
}

// upload stores one inline payload and returns its public URL and object
// path. The path is derived from the content, so the same payload of the same
// record always lands on the same object.
func (m *Migrator) upload(ctx context.Context, record models.Record, bucket, value string) (string, string, error) {
	payload, err := ParseDataURI(value)
	if err != nil {
		return "", "", err
	}

	path := ObjectPath(record.Collection, record.ID, payload)

	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	url, err := m.storage.Upload(callCtx, adapter.Object{
		Bucket:      bucket,
		Path:        path,
		ContentType: payload.MediaType,
		Data:        payload.Data,
	})
	if err != nil {
		return "", "", fmt.Errorf("upload to %s/%s: %w", bucket, path, err)
	}
	return url, path, nil
}

func (m *Migrator) download(ctx context.Context, url string) (string, error) {
	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	data, contentType, err := m.storage.Download(callCtx, url)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}

	return DataURI{MediaType: mediaTypeOf(contentType, data), Data: data}.String(), nil
}

// callContext detaches a single network call from the caller's cancellation
// so that a started transfer is never cut in half; the timeout still bounds
// it.
func (m *Migrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if m.timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, m.timeout)
}

func (m *Migrator) logFailure(fn string, record models.Record, field string, err error) {
	m.logger.WithRecord(string(record.Collection), record.ID).Warn().Err(err).
		Str("func", fn).
		Str("field", field).
		Msg("blob migration failed")
}

// ObjectPath returns "<collection>/<id>/<blake2b-256 hex><ext>" for payload.
func ObjectPath(collection models.Collection, id string, payload DataURI) string {
	return string(collection) + "/" + id + "/" + utils.ContentHash(payload.Data) + extensionFor(payload.MediaType)
}

// mediaTypeOf strips parameters from the server's content type and sniffs
// the payload when the server sent nothing specific.
func mediaTypeOf(contentType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil &&
		mt != "application/octet-stream" && mt != "binary/octet-stream" {
		return mt
	}

	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}
