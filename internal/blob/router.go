package blob

import (
	"strings"

	"github.com/MKhiriev/go-studio-sync/models"
)

// Router picks the bucket an inline payload of record is uploaded to.
type Router interface {
	Bucket(record models.Record) string
}

// RouterFunc adapts a plain function to [Router].
type RouterFunc func(record models.Record) string

func (f RouterFunc) Bucket(record models.Record) string {
	return f(record)
}

// assetTypeField is the user-settable asset field the routing rule reads.
const assetTypeField = "type"

// TypeRouter sends assets whose type is in a restricted set to a dedicated
// bucket and everything else to the media bucket. The type is matched
// case-insensitively; unknown or missing types fall back to the media bucket.
type TypeRouter struct {
	media      string
	restricted string
	types      map[string]struct{}
}

// NewTypeRouter returns a [TypeRouter]. restrictedTypes are normalized to
// trimmed lower case; empty entries are ignored.
func NewTypeRouter(media, restricted string, restrictedTypes []string) *TypeRouter {
	types := make(map[string]struct{}, len(restrictedTypes))
	for _, t := range restrictedTypes {
		if t = normalizeType(t); t != "" {
			types[t] = struct{}{}
		}
	}
	return &TypeRouter{media: media, restricted: restricted, types: types}
}

// Bucket implements [Router].
func (r *TypeRouter) Bucket(record models.Record) string {
	if record.Collection != models.Assets {
		return r.media
	}

	assetType, _ := record.Fields[assetTypeField].(string)
	if _, ok := r.types[normalizeType(assetType)]; ok && r.restricted != "" {
		return r.restricted
	}
	return r.media
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
