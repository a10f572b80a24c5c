// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package session

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/middleware"
	requestutil "github.com/veriface/veriface/internal/platform/request"
	"github.com/veriface/veriface/internal/platform/respond"
)

// # Definitions & Constructors

// TokenIssuer mints session tokens bound to a client identity.
type TokenIssuer interface {
	Issue(identity string, createdAt, expiresAt time.Time) (string, error)
}

// Handler implements the session lifecycle HTTP endpoints.
type Handler struct {
	registry  *Registry
	issuer    TokenIssuer
	validator middleware.SessionValidator
}

// NewHandler constructs a new session [Handler].
func NewHandler(registry *Registry, issuer TokenIssuer, validator middleware.SessionValidator) *Handler {
	return &Handler{registry: registry, issuer: issuer, validator: validator}
}

// Routes returns a [chi.Router] configured with the session endpoints.
//
// # Endpoints
//   - POST /          : Opens a session for the caller's IP (no token needed).
//   - GET /current    : Inspects the caller's session.
//   - DELETE /current : Ends the caller's session immediately.
//   - GET /summary    : Admin overview of all live sessions.
//   - POST /cleanup   : Admin-triggered sweep of expired sessions.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Session bootstrap: the only endpoint that works without a token.
	router.Post("/", handler.create)

	// Token-bound endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(handler.validator))
		r.Get("/current", handler.current)
		r.Delete("/current", handler.deleteCurrent)

		// Admin maintenance
		r.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAuth, middleware.RequireAdmin)
			admin.Get("/summary", handler.summary)
			admin.Post("/cleanup", handler.cleanup)
		})
	})

	return router
}

// createResponse is the session bootstrap payload.
type createResponse struct {
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	IPAddress string  `json:"ip_address"`
	ExpiresIn float64 `json:"expires_in"`
}

// # Session Endpoints

/*
POST /api/v1/session.

Description: Opens a demo session for the caller's IP address and returns
the session token. Each IP can hold one live session at a time.

Response:
  - 201: createResponse: Session token and lifetime
  - 409: ErrConflict: This IP already has a live session
  - 503: CAPACITY_EXCEEDED: Too many live sessions, retry later
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	identity := middleware.RealIP(request)

	sess, err := handler.registry.Create(identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.issuer.Issue(sess.Identity, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		// The session is unusable without its token; roll it back.
		handler.registry.Delete(sess.Identity)
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.Created(writer, createResponse{
		Token:     token,
		TokenType: constants.TokenTypeBearer,
		IPAddress: sess.Identity,
		ExpiresIn: sess.ExpiresAt.Sub(sess.CreatedAt).Seconds(),
	})
}

/*
GET /api/v1/session/current.

Description: Returns the caller's session metadata and remaining lifetime.

Response:
  - 200: Info: Session details
  - 401: ErrUnauthorized: No live session (missing, expired, or deleted)
*/
func (handler *Handler) current(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.SessionIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sess, err := handler.registry.Get(identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := sess.Store().Count(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	now := time.Now()
	respond.OK(writer, Info{
		IPAddress:        sess.Identity,
		CreatedAt:        sess.CreatedAt,
		ExpiresAt:        sess.ExpiresAt,
		RemainingSeconds: sess.RemainingAt(now).Seconds(),
		UserCount:        count,
	})
}

/*
DELETE /api/v1/session/current.

Description: Ends the caller's session and discards its store. The IP may
open a fresh session immediately afterwards.

Response:
  - 204: No Content: Session removed
  - 401: ErrUnauthorized: No live session to remove
*/
func (handler *Handler) deleteCurrent(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.SessionIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !handler.registry.Delete(identity) {
		respond.Error(writer, request, apperr.Unauthorized("No active session for this client"))
		return
	}

	respond.NoContent(writer)
}

// # Admin Endpoints

/*
GET /api/v1/session/summary.

Description: Returns a point-in-time overview of every live session.
Admin only.

Response:
  - 200: Summary: Registry overview
  - 403: ErrForbidden: Caller is not an administrator
*/
func (handler *Handler) summary(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.registry.Snapshot())
}

/*
POST /api/v1/session/cleanup.

Description: Sweeps expired sessions immediately instead of waiting for the
periodic sweeper. Admin only.

Response:
  - 200: {removed}: Number of sessions purged
  - 403: ErrForbidden: Caller is not an administrator
*/
func (handler *Handler) cleanup(writer http.ResponseWriter, request *http.Request) {
	removed := handler.registry.SweepExpired()
	respond.OK(writer, map[string]int{"removed": removed})
}
