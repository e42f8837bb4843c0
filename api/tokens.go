package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// DefaultAccessTTL bounds how long a stolen access token stays useful.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL bounds how long a session survives without re-login.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenIssuer signs short-lived access tokens and longer-lived refresh tokens
// with separate HS256 secrets. It is stateless; there is no revocation list.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	refreshParser *jwt.Parser
}

// NewTokenIssuer creates an issuer. Zero TTLs fall back to the defaults.
func NewTokenIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		panic("api.NewTokenIssuer: empty secret")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		refreshParser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// SignAccess issues an access token for the subject.
func (ti *TokenIssuer) SignAccess(subject string) (string, error) {
	return ti.sign(subject, ti.accessSecret, ti.accessTTL)
}

// SignRefresh issues a refresh token for the subject.
func (ti *TokenIssuer) SignRefresh(subject string) (string, error) {
	return ti.sign(subject, ti.refreshSecret, ti.refreshTTL)
}

func (ti *TokenIssuer) sign(subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyRefresh validates a refresh token and returns its subject id.
func (ti *TokenIssuer) VerifyRefresh(token string) (string, error) {
	parsed, err := ti.refreshParser.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return ti.refreshSecret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("missing sub")
	}
	return claims.Subject, nil
}
