package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"learnhub/internal/entity"
	"learnhub/internal/utils"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMFATokenIssuer(t *testing.T) {
	clock := &fixedClock{t: testNow}
	issuer := MFATokenIssuerJWT{Secret: []byte("mfa-secret"), Issuer: "learnhub", TTL: 5 * time.Minute, Clock: clock}
	userID := uuid.New()

	token, ttl, err := issuer.IssueMFAToken(userID)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)

	got, err := issuer.ParseMFAToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// Access tokens signed with the same secret are not MFA tokens.
	access := utils.JWTManager{Secret: []byte("mfa-secret"), Issuer: "learnhub", Clock: clock}
	accessToken, _, err := access.IssueAccessToken(userID.String(), "admin", uuid.NewString())
	require.NoError(t, err)
	_, err = issuer.ParseMFAToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidMFAToken)

	clock.t = testNow.Add(6 * time.Minute)
	_, err = issuer.ParseMFAToken(token)
	assert.ErrorIs(t, err, ErrInvalidMFAToken)
}

func TestJWTAccessIssuer(t *testing.T) {
	_, _, err := JWTAccessIssuer{}.IssueAccessToken(entity.User{ID: uuid.New()}, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidToken)

	manager := &utils.JWTManager{Secret: []byte("s"), Issuer: "learnhub"}
	user := entity.User{ID: uuid.New(), Role: entity.UserRoleClient}
	sessionID := uuid.New()
	token, _, err := JWTAccessIssuer{Manager: manager}.IssueAccessToken(user, sessionID)
	require.NoError(t, err)

	claims, err := manager.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "client", claims.Role)
	assert.Equal(t, sessionID.String(), claims.SessionID)
}

func TestTOTPProvider(t *testing.T) {
	clock := &fixedClock{t: testNow}
	p := NewTOTPProvider("")
	p.Clock = clock

	secret, err := p.GenerateSecret("ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	code, err := totp.GenerateCodeCustom(secret, testNow, p.options())
	require.NoError(t, err)
	assert.True(t, p.ValidateCode(secret, code))
	assert.True(t, p.ValidateCode(secret, " "+code+" "))

	clock.t = testNow.Add(10 * time.Minute)
	assert.False(t, p.ValidateCode(secret, code))

	// Malformed secrets and codes are rejected, not panicked on.
	assert.False(t, p.ValidateCode("not base32 !!", code))
	assert.False(t, p.ValidateCode(secret, "12ab"))
	assert.False(t, p.ValidateCode(secret, ""))

	raw, err := p.QRCodeURL("ada@example.com", "", secret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "otpauth://totp/"))
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "LearnHub", parsed.Query().Get("issuer"))
	assert.Equal(t, "6", parsed.Query().Get("digits"))
	assert.Equal(t, "30", parsed.Query().Get("period"))
	assert.Equal(t, "SHA1", parsed.Query().Get("algorithm"))
}
