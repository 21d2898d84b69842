// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides access to the object storage that receives blobs
// lifted out of local records.
//
// The primary abstraction is [ObjectStorage]. The package ships an
// S3-compatible implementation ([NewS3ObjectStorage]) that uploads through
// the AWS SDK and downloads public URLs over plain HTTP.
//
// Error values defined in errors.go are mapped from S3 error codes and HTTP
// status codes so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401/403 or AccessDenied).
package adapter

import (
	"context"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/object_storage_mock.go -package=mock

// Object is a single blob addressed inside a bucket.
type Object struct {
	// Bucket is the destination bucket.
	Bucket string
	// Path is the key inside the bucket, e.g. "assets/a1/<hash>.png".
	Path string
	// ContentType is stored with the object and served back on download.
	ContentType string
	// Data is the raw payload.
	Data []byte
}

// ObjectStorage stores blobs and serves them back by URL.
type ObjectStorage interface {
	// Upload writes obj and returns the public URL it is reachable at.
	// Uploading the same bucket and path twice overwrites the object with
	// identical bytes and returns the same URL.
	Upload(ctx context.Context, obj Object) (string, error)

	// Download fetches the object behind url. The returned content type is
	// the one reported by the server; it is empty when the server sent none.
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}
