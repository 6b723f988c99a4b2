package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("hunter2", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, h := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		_, err := VerifyPassword("pw", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
	_, err := VerifyPassword("pw", "$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestSignerRoundTrip(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)
	s, err := NewSigner(seed, time.Hour)
	require.NoError(t, err)

	token, err := s.Issue("operator")
	require.NoError(t, err)
	sub, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", sub)

	same, err := NewSigner(seed, time.Hour)
	require.NoError(t, err)
	sub, err = same.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", sub)

	stranger, err := NewSigner("", time.Hour)
	require.NoError(t, err)
	_, err = stranger.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerExpiry(t *testing.T) {
	s, err := NewSigner("", time.Minute)
	require.NoError(t, err)
	token, err := s.Issue("operator")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forever, err := NewSigner("", 0)
	require.NoError(t, err)
	token, err = forever.Issue("operator")
	require.NoError(t, err)
	forever.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, err = forever.Verify(token)
	assert.NoError(t, err)
}

func TestNewSignerRejectsBadSeed(t *testing.T) {
	_, err := NewSigner("not base64!", time.Hour)
	assert.Error(t, err)
	_, err = NewSigner("c2hvcnQ=", time.Hour)
	assert.ErrorContains(t, err, "32 bytes")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	s, err := NewSigner("", time.Hour)
	require.NoError(t, err)
	_, err = s.Verify("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
