package utils

import (
	"encoding/hex"
	"hash"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// hasherPool is a package-level pool of reusable BLAKE2b-256 hash instances.
var hasherPool = sync.Pool{
	New: func() any {
		// New256 only fails for keys longer than 64 bytes
		h, _ := blake2b.New256(nil)
		return h
	},
}

// ContentHash returns the hex-encoded BLAKE2b-256 digest of data.
//
// Identical payloads always produce identical digests, which makes the
// digest usable as a content address for uploaded objects: uploading the
// same bytes twice lands on the same object path.
//
// Example usage:
//
//	name := utils.ContentHash(decoded) + ".png"
func ContentHash(data []byte) string {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return hex.EncodeToString(sum)
}
