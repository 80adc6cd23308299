package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct{ t time.Time }

func (c *stubClock) Now() time.Time { return c.t }

func TestAccessTokenRoundTrip(t *testing.T) {
	clock := &stubClock{t: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)}
	m := JWTManager{Secret: []byte("s3cret"), Issuer: "learnhub", AccessTokenTTL: 10 * time.Minute, Clock: clock}

	token, ttl, err := m.IssueAccessToken("user-1", "mentor", "session-1")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, ttl)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "mentor", claims.Role)
	assert.Equal(t, "session-1", claims.SessionID)

	clock.t = clock.t.Add(11 * time.Minute)
	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAccessTokenRejectsForeignTokens(t *testing.T) {
	m := JWTManager{Secret: []byte("s3cret"), Issuer: "learnhub"}

	other := JWTManager{Secret: []byte("other"), Issuer: "learnhub"}
	token, _, err := other.IssueAccessToken("user-1", "admin", "s")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := JWTManager{Secret: []byte("s3cret"), Issuer: "elsewhere"}
	token, _, err = wrongIssuer.IssueAccessToken("user-1", "admin", "s")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseAccessToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenHelpers(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	_, err = GenerateRandomToken(0)
	assert.Error(t, err)

	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
