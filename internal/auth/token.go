package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"task-tracker/internal/domain"
)

var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenBadSignature = errors.New("token signature invalid")
)

// Claims is the JWT payload: sub carries the account email.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// Principal is what a verified token asserts about its bearer.
type Principal struct {
	Subject string
	Role    domain.Role
}

// TokenCodec issues and parses HS256 identity tokens with a fixed lifetime.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *TokenCodec) TTL() time.Duration { return c.ttl }

func (c *TokenCodec) Issue(subject string, role domain.Role, now time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature first and only then checks expiry against now.
// A token is still valid at the exact expiry instant.
func (c *TokenCodec) Parse(raw string, now time.Time) (Principal, error) {
	parser := c.parser()

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(raw, claims, c.keyFunc); err != nil {
		return Principal{}, c.classify(parser, raw, err)
	}

	if claims.ExpiresAt == nil {
		return Principal{}, fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}
	if now.After(claims.ExpiresAt.Time) {
		return Principal{}, fmt.Errorf("%w: expired at %s", ErrTokenExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	role, err := domain.ParseRole(string(claims.Role))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return Principal{Subject: claims.Subject, Role: role}, nil
}

// jwt/v5 rejects now == exp, so time claims are checked in Parse instead.
func (c *TokenCodec) parser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)
}

func (c *TokenCodec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}

func (c *TokenCodec) classify(parser *jwt.Parser, raw string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		// header and claims decode but the signature segment does not: the signature was altered
		if _, _, uerr := parser.ParseUnverified(raw, &Claims{}); uerr == nil {
			return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
}
