package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToken(t *testing.T, owner string, ttl time.Duration, key string) string {
	t.Helper()
	token, err := utils.GenerateSessionToken(owner, ttl, key)
	require.NoError(t, err)
	return token
}

func TestSession_Empty(t *testing.T) {
	s := NewSession("")

	owner, err := s.Owner()
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, owner)
	assert.False(t, s.Valid())
	assert.Equal(t, "", s.Token())
	assert.False(t, s.Status().Valid)
}

func TestSession_SetToken(t *testing.T) {
	s := NewSession("key")
	token := newToken(t, "user-42", time.Hour, "key")

	require.NoError(t, s.SetToken("  "+token+"\n"))

	owner, err := s.Owner()
	require.NoError(t, err)
	assert.Equal(t, "user-42", owner)
	assert.True(t, s.Valid())
	assert.Equal(t, token, s.Token())

	status := s.Status()
	assert.True(t, status.Valid)
	assert.Equal(t, "user-42", status.Owner)
	assert.False(t, status.ExpiresAt.IsZero())
}

func TestSession_InvalidTokenKeepsPrevious(t *testing.T) {
	s := NewSession("key")
	require.NoError(t, s.SetToken(newToken(t, "user-1", time.Hour, "key")))

	err := s.SetToken(newToken(t, "intruder", time.Hour, "other-key"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	err = s.SetToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	owner, err := s.Owner()
	require.NoError(t, err)
	assert.Equal(t, "user-1", owner)
}

func TestSession_Expired(t *testing.T) {
	s := NewSession("")
	require.NoError(t, s.SetToken(newToken(t, "user-1", time.Hour, "any")))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.Owner()
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, s.Valid())

	status := s.Status()
	assert.False(t, status.Valid)
	assert.Equal(t, "user-1", status.Owner)
}

func TestSession_ClearAndOnChange(t *testing.T) {
	s := NewSession("")

	var mu sync.Mutex
	var changes []bool
	s.OnChange(func(valid bool) {
		mu.Lock()
		changes = append(changes, valid)
		mu.Unlock()
	})

	require.NoError(t, s.SetToken(newToken(t, "user-1", time.Hour, "any")))
	s.Clear()

	_, err := s.Owner()
	assert.ErrorIs(t, err, ErrUnauthorized)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, changes)
}
