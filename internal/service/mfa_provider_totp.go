package service

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"learnhub/internal/utils"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const defaultMFAIssuer = "LearnHub"

// TOTPProvider implements MFAProvider with RFC 6238 codes. Zero fields fall
// back to the authenticator-app defaults: 30s period, 6 digits, SHA1.
type TOTPProvider struct {
	Issuer    string
	Period    uint
	Skew      uint
	Digits    otp.Digits
	Algorithm otp.Algorithm
	Clock     utils.Clock
}

func NewTOTPProvider(issuer string) *TOTPProvider {
	return &TOTPProvider{Issuer: issuer, Period: 30, Skew: 1, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1}
}

func (p *TOTPProvider) GenerateSecret(email string) (string, error) {
	account := strings.TrimSpace(email)
	if account == "" {
		account = "pending"
	}
	opts := p.options()
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      fallbackIssuer(p.Issuer),
		AccountName: account,
		Period:      opts.Period,
		Digits:      opts.Digits,
		Algorithm:   opts.Algorithm,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// QRCodeURL renders the otpauth:// URI authenticator apps scan.
func (p *TOTPProvider) QRCodeURL(email string, issuer string, secret string) (string, error) {
	if strings.TrimSpace(issuer) == "" {
		issuer = fallbackIssuer(p.Issuer)
	}
	opts := p.options()
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", opts.Algorithm.String())
	query.Set("digits", opts.Digits.String())
	query.Set("period", strconv.FormatUint(uint64(opts.Period), 10))
	return "otpauth://totp/" + url.PathEscape(issuer+":"+email) + "?" + query.Encode(), nil
}

func (p *TOTPProvider) ValidateCode(secret string, code string) bool {
	now := time.Now()
	if p.Clock != nil {
		now = p.Clock.Now()
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, now, p.options())
	return err == nil && ok
}

func (p *TOTPProvider) options() totp.ValidateOpts {
	opts := totp.ValidateOpts{Period: p.Period, Skew: p.Skew, Digits: p.Digits, Algorithm: p.Algorithm}
	if opts.Period == 0 {
		opts.Period = 30
	}
	if opts.Skew == 0 {
		opts.Skew = 1
	}
	if opts.Digits == 0 {
		opts.Digits = otp.DigitsSix
	}
	return opts
}

func fallbackIssuer(issuer string) string {
	if strings.TrimSpace(issuer) == "" {
		return defaultMFAIssuer
	}
	return issuer
}
