package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash([]byte("payload"))
	b := ContentHash([]byte("payload"))

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestContentHash_DifferentPayloads(t *testing.T) {
	assert.NotEqual(t, ContentHash([]byte("one")), ContentHash([]byte("two")))
}

func TestContentHash_KnownVector(t *testing.T) {
	// BLAKE2b-256 пустой строки
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		ContentHash(nil))
}

func TestContentHash_Concurrent(t *testing.T) {
	want := ContentHash([]byte("shared"))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, ContentHash([]byte("shared")))
		}()
	}
	wg.Wait()
}
