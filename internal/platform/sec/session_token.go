// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Failure Taxonomy

var (
	// ErrTokenExpired marks a session token whose embedded expiry has passed.
	ErrTokenExpired = errors.New("sec: session token expired")

	// ErrTokenMalformed marks a session token that cannot be parsed or whose
	// signature does not verify.
	ErrTokenMalformed = errors.New("sec: session token malformed")
)

// SessionClaims is the payload of a session token: a client identity bound
// to a validity window. The server keeps no token-to-session index; the
// token is the only artifact carrying session identity to the client.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Identity is the client identity (network address) the session is
	// keyed by.
	Identity string `json:"ip"`
}

// SessionTokenService issues and validates stateless session tokens.
//
// # Trust boundary
//
// Token validity is necessary but NOT sufficient for session validity: a
// token can outlive a session that was explicitly deleted, and the registry
// is the single source of truth for liveness. Callers must re-resolve the
// returned identity through the registry.
type SessionTokenService struct {
	secret []byte
	issuer string
}

// NewSessionTokenService creates a SessionTokenService signing with the
// given secret. The secret must differ from the access token secret so one
// credential family can never masquerade as the other.
func NewSessionTokenService(secret, issuer string) (*SessionTokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: session token secret must not be empty")
	}
	return &SessionTokenService{secret: []byte(secret), issuer: issuer}, nil
}

/*
Issue deterministically encodes (identity, createdAt, expiresAt) and signs it.

Parameters:
  - identity: string (client network address)
  - createdAt: time.Time (session creation instant, becomes 'iat')
  - expiresAt: time.Time (session expiry instant, becomes 'exp')

Returns:
  - string: Signed compact JWS
  - error: Signing failures
*/
func (service *SessionTokenService) Issue(identity string, createdAt, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(createdAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Identity: identity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session token: %w", err)
	}

	return signedToken, nil
}

/*
Validate parses and verifies a session token string.

Description: Fails with [ErrTokenExpired] if the embedded expiry is in the
past, and [ErrTokenMalformed] for every other parse/verification failure.

Parameters:
  - tokenString: string

Returns:
  - string: The embedded client identity
  - error: ErrTokenExpired or ErrTokenMalformed
*/
func (service *SessionTokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		// jwt/v5 folds expiry into the parse error chain; split it back out
		// so callers can distinguish the two failure classes.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Identity == "" {
		return "", ErrTokenMalformed
	}

	return claims.Identity, nil
}
