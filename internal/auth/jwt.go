// Package auth provides JWT session tokens and password hashing for the
// monitoring API.
//
// AUTHENTICATION FLOW:
//  1. The desktop agent POSTs /api/login with email, password, its MAC
//     address and an OS descriptor.
//  2. The server verifies the credentials, resolves the machine, and issues
//     a JWT whose claims bind the session to that specific machine.
//  3. Every subsequent call carries "Authorization: Bearer <token>"; the
//     middleware validates it and puts the claims in the request context.
//
// The token is stateless — signature verification needs only the HMAC
// secret, no database lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
)

const issuer = "rocks-monitoramento"

// TokenService signs and verifies session tokens.
//
// It holds the HMAC secret used for both operations. The secret should be
// at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Claims is the token payload. Subject carries the user's email; the
// remaining fields bind the session to the machine that logged in, so the
// agent never has to re-send its identity on every request.
type Claims struct {
	UserID      string `json:"uid"`
	MachineMAC  string `json:"mac"`
	MachineType string `json:"machine_type"`
	jwt.RegisteredClaims
}

// Generate signs a token for the given user/machine pair.
// Subject is the user's email, matching what the agent expects to find when
// it decodes the token locally for display.
func (s *TokenService) Generate(email, userID, machineMAC, machineType string) (string, error) {
	now := time.Now()

	c := Claims{
		UserID:      userID,
		MachineMAC:  machineMAC,
		MachineType: machineType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// GenerateWithDuration signs a token with a custom lifetime. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(email, userID, machineMAC, machineType string, d time.Duration) (string, error) {
	clone := &TokenService{secret: s.secret, ttl: d}
	return clone.Generate(email, userID, machineMAC, machineType)
}

// Validate parses and verifies a token string and returns its claims.
//
// The jwt library checks the signature, expiry and issuer; restricting the
// accepted algorithms to HS256 closes the algorithm-confusion hole where an
// attacker submits a token signed with "none".
//
// All failure modes collapse into apperror.ErrUnauthorized — callers (and
// clients) cannot distinguish a tampered token from an expired one.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("invalid token")
	}
	if c.Subject == "" || c.UserID == "" {
		return nil, apperror.Unauthorized("invalid token payload")
	}

	return c, nil
}
