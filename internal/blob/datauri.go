package blob

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

const dataURIPrefix = "data:"

// defaultMediaType is what RFC 2397 assumes when a data URI declares none.
const defaultMediaType = "text/plain"

// DataURI is a decoded inline payload.
type DataURI struct {
	MediaType string
	Data      []byte
}

// IsDataURI reports whether s is an inline payload rather than a reference.
func IsDataURI(s string) bool {
	return len(s) >= len(dataURIPrefix) && strings.EqualFold(s[:len(dataURIPrefix)], dataURIPrefix)
}

// IsAbsoluteURL reports whether s is an http(s) URL that can be downloaded.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ParseDataURI decodes "data:[<mediatype>][;base64],<data>".
//
// Media type parameters other than base64 are dropped. Base64 with and
// without padding is accepted; non-base64 payloads are percent-decoded.
func ParseDataURI(s string) (DataURI, error) {
	if !IsDataURI(s) {
		return DataURI{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	header, payload, ok := strings.Cut(s[len(dataURIPrefix):], ",")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
	}

	isBase64 := false
	if trimmed, found := strings.CutSuffix(header, ";base64"); found {
		header = trimmed
		isBase64 = true
	}

	mediaType := defaultMediaType
	if header != "" && !strings.HasPrefix(header, ";") {
		mt, _, err := mime.ParseMediaType(header)
		if err != nil {
			return DataURI{}, fmt.Errorf("%w: media type: %w", ErrInvalidDataURI, err)
		}
		mediaType = mt
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = decodeBase64(payload)
	} else {
		var unescaped string
		unescaped, err = url.PathUnescape(payload)
		data = []byte(unescaped)
	}
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: payload: %w", ErrInvalidDataURI, err)
	}

	return DataURI{MediaType: mediaType, Data: data}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// String encodes d as a base64 data URI.
func (d DataURI) String() string {
	mediaType := d.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return dataURIPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

var extensions = map[string]string{
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"image/svg+xml":    ".svg",
	"image/avif":       ".avif",
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"audio/mpeg":       ".mp3",
	"audio/wav":        ".wav",
	"audio/ogg":        ".ogg",
	"application/pdf":  ".pdf",
	"text/plain":       ".txt",
	"application/json": ".json",
}

// extensionFor returns the object path extension of a media type.
func extensionFor(mediaType string) string {
	if ext, ok := extensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return ".bin"
}
