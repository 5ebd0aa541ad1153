// Package auth provides the GitHub OAuth flow and bearer-token handling.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Browser hits /auth/github → redirected to GitHub with a state cookie
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges the code for an access token + profile, upserts the
//    user, and creates a server-side session holding the access token
// 4. Server signs a JWT whose subject is the session ID and redirects the
//    SPA to FRONTEND_URL?session=<jwt>&login=success
// 5. The SPA sends "Authorization: Bearer <jwt>" on every API call; the
//    middleware validates the signature, resolves the session, and puts
//    the identity in the request context
//
// WHY A JWT AROUND AN OPAQUE SESSION ID?
// The session store is the source of truth (it holds the GitHub access
// token and can be revoked). The JWT only proves the bearer got the ID
// from us — a guessed or leaked session ID is useless without a valid
// signature over it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "grassuma"

// TokenService signs and verifies the bearer tokens handed to the SPA.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production:
// JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token whose subject is the given session ID. The token
// lifetime matches the session TTL — after either expires the user logs
// in again.
func (s *TokenService) Generate(sessionID string, lifetime time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
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

// Validate parses and verifies a token string and returns the session ID
// from its subject claim.
//
// jwt.WithValidMethods pins HS256 so a token claiming alg "none" (or an
// asymmetric algorithm with our secret as a public key) is rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
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
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
