package service

import (
	"errors"
	"time"

	"learnhub/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidMFAToken = errors.New("invalid mfa token")

const (
	mfaTokenType       = "mfa"
	defaultMFATokenTTL = 5 * time.Minute
)

// MFATokenIssuerJWT issues the short-lived token a client exchanges, along
// with a TOTP code, for a session after password login.
type MFATokenIssuerJWT struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Clock  utils.Clock
}

type mfaClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (m MFATokenIssuerJWT) IssueMFAToken(userID uuid.UUID) (string, time.Duration, error) {
	ttl := m.TTL
	if ttl <= 0 {
		ttl = defaultMFATokenTTL
	}
	now := m.now()
	claims := mfaClaims{
		Type: mfaTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (m MFATokenIssuerJWT) ParseMFAToken(token string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &mfaClaims{}, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, ErrInvalidMFAToken
	}
	claims, ok := parsed.Claims.(*mfaClaims)
	if !ok || !parsed.Valid || claims.Type != mfaTokenType {
		return uuid.Nil, ErrInvalidMFAToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidMFAToken
	}
	return id, nil
}

func (m MFATokenIssuerJWT) now() time.Time {
	if m.Clock != nil {
		return m.Clock.Now()
	}
	return time.Now()
}
