// Package token issues and verifies the short-lived staff session tokens.
//
// Tokens are compact HS256 JWTs: base64url(header).base64url(claims).
// base64url(HMAC-SHA256(header.claims, secret)). Nothing is persisted, so a
// token stays valid until it expires.
package token

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session subjects
const (
	SubjectStaff = "staff"
	SubjectAdmin = "admin"
)

const DefaultTTL = 15 * time.Minute

var ErrEmptySecret = errors.New("token secret is empty")

type Claims struct {
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for subject with {sub, iat, exp}.
func (s *Signer) Sign(subject string) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// token. Every failure collapses into (nil, false).
func (s *Signer) Verify(tokenString string) (*Claims, bool) {
	if tokenString == "" {
		return nil, false
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}

// Refresh rotates a still-valid token into a fresh one for the same subject.
func (s *Signer) Refresh(tokenString string) (string, *Claims, bool) {
	claims, ok := s.Verify(tokenString)
	if !ok {
		return "", nil, false
	}
	fresh, err := s.Sign(claims.Subject)
	if err != nil {
		return "", nil, false
	}
	next, _ := s.Verify(fresh)
	return fresh, next, true
}

// PasswordMatches compares a legacy raw password in constant time. An
// unset expected password never matches.
func PasswordMatches(given, expected string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
