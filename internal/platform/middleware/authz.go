// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/platform/respond"
	"github.com/veriface/veriface/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec`
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AccessClaims, error)
}

// SessionValidator defines the interface needed to validate session tokens.
//
// Validate returns the client identity embedded in the token, or one of
// [sec.ErrTokenExpired] / [sec.ErrTokenMalformed].
type SessionValidator interface {
	Validate(tokenStr string) (string, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AccessClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks authenticated requests whose token lacks the admin
// flag. Must be registered AFTER [RequireAuth].
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if !claims.IsAdmin {
			respond.Error(writer, request, apperr.Forbidden("Administrator access required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireSession validates the Session-Token header and injects the embedded
// client identity into the request context.
//
// # Flow
//  1. Read the 'Session-Token' header (a leading "Bearer " prefix is tolerated).
//  2. If absent, abort with 401 (the session layer is mandatory, unlike user auth).
//  3. Validate via [SessionValidator]; map expiry and parse failures to
//     distinct error codes.
//  4. Inject the identity into context. Handlers must still resolve the
//     identity through the registry: a valid token does not guarantee a live
//     session.
func RequireSession(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			token := request.Header.Get(constants.HeaderSessionToken)
			if token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Missing session token"))
				return
			}
			token = strings.TrimPrefix(token, "Bearer ")

			identity, err := validator.Validate(token)
			if err != nil {
				switch {
				case errors.Is(err, sec.ErrTokenExpired):
					respond.Error(writer, request, apperr.TokenExpired("Session token expired"))
				default:
					respond.Error(writer, request, apperr.TokenMalformed("Could not validate session token"))
				}
				return
			}

			ctx := ctxutil.WithSessionIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
