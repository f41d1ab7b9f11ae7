// Package session gives every browser its own service.Client.
//
// SESSION FLOW OVERVIEW:
// 1. A browser without a valid cookie gets a new session id (xid) and a fresh
//    service.Client, which immediately performs the initial load
// 2. The id is wrapped in a signed JWT and stored in the car_session cookie
// 3. On later requests the middleware validates the JWT, looks the client up in
//    the store and puts it in the request context
// 4. Idle sessions expire from the store; the cookie expires with them
//
// WHY SIGN THE COOKIE?
// The id alone would work, but an unsigned id can be guessed or forged. With
// HMAC-SHA256 over the id, only this server can mint a cookie that resolves to
// a client, and an expired or tampered token is simply treated as "no session".
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "car-listing"

// TokenService signs and verifies session tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret must be at least 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for sessionID that expires after ttl.
func (s *TokenService) Issue(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the session id it carries.
//
// The algorithm is pinned to HS256 so a token claiming "none" (or an
// asymmetric algorithm keyed with our secret) is rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("session: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("session: token expired")
		}
		return "", fmt.Errorf("session: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("session: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("session: token has no subject")
	}
	return c.Subject, nil
}
