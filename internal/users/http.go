// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veriface/veriface/internal/platform/middleware"
	requestutil "github.com/veriface/veriface/internal/platform/request"
	"github.com/veriface/veriface/internal/platform/respond"
	"github.com/veriface/veriface/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the account HTTP endpoints.
//
// All routes here operate inside the caller's session: the server mounts
// this handler behind the RequireSession middleware, so the session identity
// is always present in the request context.
type Handler struct {
	userService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{userService: service}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - POST /signup : Creates an account in the caller's session.
//   - POST /login  : Password login, returns an access token.
//   - /me          : Self-service profile management (requires access token).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Session-only endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)

	// Access-token protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
		r.Put("/me", handler.updateMe)
		r.Delete("/me", handler.deleteMe)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// # Account Endpoints

/*
POST /api/v1/user/signup.

Description: Creates a new user inside the caller's session store.

Request:
  - Body: signupRequest (Username, Email, Password, FullName)

Response:
  - 201: Record: The created user
  - 400: Validation: Invalid input data
  - 401: ErrUnauthorized: Missing or invalid session token
  - 409: ErrConflict: Username or email already exists in this session
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 50).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 6).
		MaxLen(FieldFullName, input.FullName, 100)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Register(request.Context(), RegisterParams{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
POST /api/v1/user/login.

Description: Verifies credentials against the caller's session store and
issues a short-lived access token.

Request:
  - Body: loginRequest (Login = username or email, Password)

Response:
  - 200: LoginResult: Token and user profile
  - 400: Validation: Missing fields
  - 401: ErrUnauthorized: Invalid credentials or missing session
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldLogin, input.Login).
		Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.userService.Login(request.Context(), input.Login, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
GET /api/v1/user/me.

Description: Retrieves the authenticated user's profile.

Response:
  - 200: Record: The caller's profile
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Account no longer exists in this session
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/user/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - Body: updateMeRequest (Email, FullName, Password — all optional)

Response:
  - 200: Record: The updated profile
  - 400: Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
  - 409: ErrConflict: New email already taken in this session
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.Email != nil {
		v.Email(FieldEmail, *input.Email)
	}
	if input.FullName != nil {
		v.MaxLen(FieldFullName, *input.FullName, 100)
	}
	if input.Password != nil {
		v.MinLen(FieldPassword, *input.Password, 6)
	}
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.UpdateProfile(request.Context(), userID, UpdateProfileParams{
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/user/me.

Description: Deactivates the authenticated user's account. The record stays
in the session store for admin inspection.

Response:
  - 204: No Content: Account deactivated
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.Deactivate(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
