// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// FieldKind describes the shape of a payload field value.
type FieldKind int

const (
	KindString FieldKind = iota + 1
	KindNumber
	KindBool
	// KindStringList is an array of plain strings.
	KindStringList
	// KindBlob is a single binary-capable value: a data URI or an absolute URL.
	KindBlob
	// KindBlobList is an array of binary-capable values.
	KindBlobList
	// KindRef is a nullable id of a record in another collection.
	KindRef
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStringList:
		return "string_list"
	case KindBlob:
		return "blob"
	case KindBlobList:
		return "blob_list"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsBlob reports whether values of this kind may carry inline binary payloads.
func (k FieldKind) IsBlob() bool {
	return k == KindBlob || k == KindBlobList
}

// FieldSpec is one entry of a collection mapping table.
type FieldSpec struct {
	// Local is the field name used by the local store.
	Local string
	// Remote is the column name used by the remote store.
	Remote string
	// Kind is the value shape.
	Kind FieldKind
	// PathField optionally names a local field that receives the object
	// storage path when a KindBlob value is uploaded.
	PathField string
}

// Schema is the closed field set of one collection.
type Schema struct {
	Collection Collection
	Fields     []FieldSpec
}

// Schemas holds the statically enumerated mapping tables. Adding a field to
// a collection means adding one FieldSpec here.
var Schemas = map[Collection]Schema{
	Folders: {
		Collection: Folders,
		Fields: []FieldSpec{
			{Local: "name", Remote: "name", Kind: KindString},
			{Local: "parentId", Remote: "parent_id", Kind: KindRef},
			{Local: "color", Remote: "color", Kind: KindString},
		},
	},
	Assets: {
		Collection: Assets,
		Fields: []FieldSpec{
			{Local: "name", Remote: "name", Kind: KindString},
			{Local: "type", Remote: "asset_type", Kind: KindString},
			{Local: "base64", Remote: "public_url", Kind: KindBlob, PathField: "storagePath"},
			{Local: "storagePath", Remote: "storage_path", Kind: KindString},
			{Local: "mimeType", Remote: "mime_type", Kind: KindString},
			{Local: "folderId", Remote: "folder_id", Kind: KindRef},
			{Local: "tags", Remote: "tags", Kind: KindStringList},
			{Local: "prompt", Remote: "prompt", Kind: KindString},
		},
	},
	Posts: {
		Collection: Posts,
		Fields: []FieldSpec{
			{Local: "caption", Remote: "caption", Kind: KindString},
			{Local: "images", Remote: "image_urls", Kind: KindBlobList},
			{Local: "folderId", Remote: "folder_id", Kind: KindRef},
			{Local: "platform", Remote: "platform", Kind: KindString},
			{Local: "status", Remote: "status", Kind: KindString},
		},
	},
	History: {
		Collection: History,
		Fields: []FieldSpec{
			{Local: "prompt", Remote: "prompt", Kind: KindString},
			{Local: "provider", Remote: "provider", Kind: KindString},
			{Local: "model", Remote: "model", Kind: KindString},
			{Local: "kind", Remote: "kind", Kind: KindString},
			{Local: "outputs", Remote: "output_urls", Kind: KindBlobList},
			{Local: "folderId", Remote: "folder_id", Kind: KindRef},
			{Local: "durationMs", Remote: "duration_ms", Kind: KindNumber},
		},
	},
	Presets: {
		Collection: Presets,
		Fields: []FieldSpec{
			{Local: "name", Remote: "name", Kind: KindString},
			{Local: "prompt", Remote: "prompt", Kind: KindString},
			{Local: "negativePrompt", Remote: "negative_prompt", Kind: KindString},
			{Local: "model", Remote: "model", Kind: KindString},
			{Local: "thumbnail", Remote: "thumbnail_url", Kind: KindBlob},
			{Local: "tags", Remote: "tags", Kind: KindStringList},
		},
	},
	Configuration: {
		Collection: Configuration,
		Fields: []FieldSpec{
			{Local: "key", Remote: "config_key", Kind: KindString},
			{Local: "value", Remote: "config_value", Kind: KindString},
			{Local: "encrypted", Remote: "is_encrypted", Kind: KindBool},
		},
	},
}

// SchemaFor returns the schema of collection c.
func SchemaFor(c Collection) (Schema, error) {
	s, ok := Schemas[c]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	return s, nil
}

// Field looks a field up by its local name.
func (s Schema) Field(local string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Local == local {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldByRemote looks a field up by its remote column name.
func (s Schema) FieldByRemote(remote string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Remote == remote {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// BlobFields returns the binary-capable fields in declaration order.
func (s Schema) BlobFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if f.Kind.IsBlob() {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks that the local→remote naming is a bijection and that no
// field collides with the shared id/timestamp/owner columns.
func (s Schema) Validate() error {
	reserved := map[string]bool{ColumnID: true, ColumnTimestamp: true, ColumnOwner: true}
	locals := make(map[string]bool, len(s.Fields))
	remotes := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Local == "" || f.Remote == "" {
			return fmt.Errorf("%s: field with empty name", s.Collection)
		}
		if locals[f.Local] {
			return fmt.Errorf("%s: duplicate local field %q", s.Collection, f.Local)
		}
		if remotes[f.Remote] || reserved[f.Remote] {
			return fmt.Errorf("%s: duplicate remote column %q", s.Collection, f.Remote)
		}
		if f.PathField != "" {
			if _, ok := s.Field(f.PathField); !ok {
				return fmt.Errorf("%s: path field %q of %q is not declared", s.Collection, f.PathField, f.Local)
			}
		}
		locals[f.Local] = true
		remotes[f.Remote] = true
	}
	return nil
}

// NormalizeValue converts v into the canonical Go type of kind:
// string for string-like kinds, float64 for numbers, bool, and []string for
// list kinds. nil is accepted for every kind.
func NormalizeValue(kind FieldKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case KindString, KindBlob, KindRef:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want %s, got %T", ErrInvalidFieldValue, kind, v)
		}
		return s, nil
	case KindNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFieldValue, err)
			}
			return f, nil
		}
		return nil, fmt.Errorf("%w: want number, got %T", ErrInvalidFieldValue, v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: want bool, got %T", ErrInvalidFieldValue, v)
		}
		return b, nil
	case KindStringList, KindBlobList:
		switch list := v.(type) {
		case []string:
			return append([]string{}, list...), nil
		case []any:
			out := make([]string, 0, len(list))
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s item %d is %T", ErrInvalidFieldValue, kind, i, item)
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, fmt.Errorf("%w: want %s, got %T", ErrInvalidFieldValue, kind, v)
	}

	return nil, fmt.Errorf("%w: unsupported kind %s", ErrInvalidFieldValue, kind)
}

// Normalize returns a copy of r with every schema-known field converted to
// its canonical type. Fields that the schema does not declare are moved to
// Extra.
func (s Schema) Normalize(r Record) (Record, error) {
	out := r.Clone()
	out.Fields = make(map[string]any, len(r.Fields))
	for name, v := range r.Fields {
		spec, ok := s.Field(name)
		if !ok {
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[name] = v
			continue
		}
		nv, err := NormalizeValue(spec.Kind, v)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", name, err)
		}
		out.Fields[name] = nv
	}
	return out, nil
}
