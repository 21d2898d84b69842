package blob

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-studio-sync/models"
)

// ErrInvalidDataURI is returned when an inline payload cannot be decoded.
var ErrInvalidDataURI = errors.New("invalid data uri")

// FieldFailure is one binary value that could not be migrated.
type FieldFailure struct {
	// Field is the local field name.
	Field string
	// Index is the position inside a list field, -1 for single fields.
	Index int
	Err   error
}

func (f FieldFailure) String() string {
	if f.Index < 0 {
		return fmt.Sprintf("%s: %v", f.Field, f.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", f.Field, f.Index, f.Err)
}

// PartialError is returned together with a usable record when some binary
// values of the record could not be migrated. Every other value was.
//
// It unwraps to the individual causes, so errors.Is(err, adapter.ErrUnauthorized)
// tells the caller whether the object storage rejected the session.
type PartialError struct {
	Collection models.Collection
	ID         string
	Failures   []FieldFailure
}

func (e *PartialError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("blob migration of %s/%s partially failed: %s", e.Collection, e.ID, strings.Join(parts, "; "))
}

func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Fields returns the names of the failed fields, without duplicates.
func (e *PartialError) Fields() []string {
	seen := make(map[string]struct{}, len(e.Failures))
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if _, ok := seen[f.Field]; ok {
			continue
		}
		seen[f.Field] = struct{}{}
		out = append(out, f.Field)
	}
	return out
}
