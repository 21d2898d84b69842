// Package mapper translates records between the local shape (camelCase
// field names, epoch-millisecond timestamps) and the remote shape
// (snake_case columns, ISO-8601 timestamps, owner column).
//
// The translation is driven entirely by [models.Schemas]: adding a field to a
// collection means adding one [models.FieldSpec], never touching this
// package.
package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-studio-sync/models"
)

var (
	// ErrMapping is returned when a record cannot be translated. The record
	// is skipped; other records are unaffected.
	ErrMapping = errors.New("record mapping failed")

	// ErrInlinePayload is returned by [Mapper.ToRemote] when a blob field or
	// an unknown field still holds a data URI. Inline bytes must never reach the remote
	// store.
	ErrInlinePayload = errors.New("inline payload in remote row")
)

// Mapper is stateless after construction and safe for concurrent use.
type Mapper struct {
	schemas map[models.Collection]models.Schema
}

// New builds a mapper over the built-in schemas.
func New() (*Mapper, error) {
	schemas := make([]models.Schema, 0, len(models.Schemas))
	for _, c := range models.SyncOrder {
		schemas = append(schemas, models.Schemas[c])
	}
	return NewWithSchemas(schemas...)
}

// NewWithSchemas builds a mapper over the given schemas. Every schema must
// pass [models.Schema.Validate].
func NewWithSchemas(schemas ...models.Schema) (*Mapper, error) {
	m := &Mapper{schemas: make(map[models.Collection]models.Schema, len(schemas))}
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
		m.schemas[s.Collection] = s
	}
	return m, nil
}

// MustNew is like [New] but panics on an invalid built-in schema.
func MustNew() *Mapper {
	m, err := New()
	if err != nil {
		panic(err)
	}
	return m
}

// ToRemote converts a local record to a remote row. The owner column is not
// set; it belongs to the remote store call.
func (m *Mapper) ToRemote(record models.Record) (models.RemoteRow, error) {
	schema, ok := m.schemas[record.Collection]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrMapping, models.ErrUnknownCollection, record.Collection)
	}
	if record.ID == "" {
		return nil, fmt.Errorf("%w: %s: empty id", ErrMapping, record.Collection)
	}

	row := make(models.RemoteRow, len(record.Fields)+len(record.Extra)+2)
	row[models.ColumnID] = record.ID
	row[models.ColumnTimestamp] = models.FormatTimestamp(record.Timestamp)

	for name, value := range record.Fields {
		spec, known := schema.Field(name)
		if !known {
			if err := putExtra(schema, row, name, value); err != nil {
				return nil, err
			}
			continue
		}

		v, err := models.NormalizeValue(spec.Kind, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s field %q: %w", ErrMapping, record.Collection, record.ID, name, err)
		}
		if spec.Kind.IsBlob() && containsInline(v) {
			return nil, fmt.Errorf("%w: %w: %s/%s field %q", ErrMapping, ErrInlinePayload, record.Collection, record.ID, name)
		}
		row[spec.Remote] = v
	}

	for name, value := range record.Extra {
		if err := putExtra(schema, row, name, value); err != nil {
			return nil, err
		}
	}

	return row, nil
}

// FromRemote converts a remote row back to a local record. Remote-only
// columns are dropped; unknown columns land in Extra.
func (m *Mapper) FromRemote(collection models.Collection, row models.RemoteRow) (models.Record, error) {
	schema, ok := m.schemas[collection]
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %w: %q", ErrMapping, models.ErrUnknownCollection, collection)
	}

	id := row.ID()
	if id == "" {
		return models.Record{}, fmt.Errorf("%w: %s: row without id", ErrMapping, collection)
	}

	raw, _ := row[models.ColumnTimestamp].(string)
	timestamp, err := models.ParseTimestamp(raw)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %s/%s: %w", ErrMapping, collection, id, err)
	}

	record := models.Record{
		ID:         id,
		Collection: collection,
		Timestamp:  timestamp,
		Fields:     make(map[string]any, len(schema.Fields)),
	}

	for column, value := range row {
		if column == models.ColumnID || column == models.ColumnTimestamp || isRemoteOnly(column) {
			continue
		}

		spec, known := schema.FieldByRemote(column)
		if !known {
			if record.Extra == nil {
				record.Extra = make(map[string]any)
			}
			record.Extra[column] = value
			continue
		}

		v, err := models.NormalizeValue(spec.Kind, value)
		if err != nil {
			return models.Record{}, fmt.Errorf("%w: %s/%s column %q: %w", ErrMapping, collection, id, column, err)
		}
		record.Fields[spec.Local] = v
	}

	return record, nil
}

// putExtra passes an unknown field through under its own name. A name that
// would shadow a schema column or a shared column breaks the bijection and
// is rejected, and so is a value carrying a data URI anywhere inside it:
// unknown fields are never migrated to object storage.
func putExtra(schema models.Schema, row models.RemoteRow, name string, value any) error {
	_, shadowsColumn := schema.FieldByRemote(name)
	if shadowsColumn || name == models.ColumnID || name == models.ColumnTimestamp || isRemoteOnly(name) {
		return fmt.Errorf("%w: %s: extra field %q collides with a column", ErrMapping, schema.Collection, name)
	}
	if _, taken := row[name]; taken {
		return fmt.Errorf("%w: %s: duplicate field %q", ErrMapping, schema.Collection, name)
	}
	if containsInline(value) {
		return fmt.Errorf("%w: %w: %s extra field %q", ErrMapping, ErrInlinePayload, schema.Collection, name)
	}
	row[name] = value
	return nil
}

func isRemoteOnly(column string) bool {
	for _, f := range models.RemoteOnlyFields {
		if f == column {
			return true
		}
	}
	return false
}

func containsInline(v any) bool {
	switch val := v.(type) {
	case string:
		return isInline(val)
	case []string:
		for _, s := range val {
			if isInline(s) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if containsInline(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range val {
			if containsInline(item) {
				return true
			}
		}
	}
	return false
}

func isInline(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}
