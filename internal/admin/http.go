// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/veriface/veriface/internal/platform/middleware"
	requestutil "github.com/veriface/veriface/internal/platform/request"
	"github.com/veriface/veriface/internal/platform/respond"
	"github.com/veriface/veriface/internal/platform/validate"
	"github.com/veriface/veriface/internal/users"
	"github.com/veriface/veriface/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the administration HTTP endpoints.
type Handler struct {
	adminService *Service
}

// NewHandler constructs a new admin [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{adminService: service}
}

// Routes returns a [chi.Router] configured with the admin endpoints.
// Every route requires an admin access token on top of the session token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth, middleware.RequireAdmin)

	// User management
	router.Get("/users", handler.listUsers)
	router.Post("/users", handler.createUser)
	router.Get("/users/{id}", handler.getUser)
	router.Put("/users/{id}", handler.updateUser)
	router.Delete("/users/{id}", handler.deactivateUser)
	router.Delete("/users/{id}/face", handler.resetFace)

	// Bulk operations
	router.Post("/batch/{operation}", handler.batch)

	return router
}

// parseBoolFilter interprets an optional "true"/"false" query parameter.
func parseBoolFilter(request *http.Request, key string) *bool {
	raw := request.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// # User Management Endpoints

/*
GET /api/v1/admin/users.

Description: Lists the session's users with optional filters and pagination.

Request:
  - Query: username, email, full_name (substring), is_active, is_admin,
    has_face (booleans), page, limit

Response:
  - 200: []Record + Meta: The matching page
  - 403: ErrForbidden: Caller is not an administrator
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	filters := Filters{
		Username: request.URL.Query().Get("username"),
		Email:    request.URL.Query().Get("email"),
		FullName: request.URL.Query().Get("full_name"),
		IsActive: parseBoolFilter(request, "is_active"),
		IsAdmin:  parseBoolFilter(request, "is_admin"),
		HasFace:  parseBoolFilter(request, "has_face"),
	}
	page := pagination.FromRequest(request)

	records, total, err := handler.adminService.List(request.Context(), filters, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(page.Page, page.Limit, total))
}

// createUserRequest is the admin user-creation payload.
type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	IsActive *bool  `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

/*
POST /api/v1/admin/users.

Description: Creates a user with explicit role flags. Unlike signup, this
may create further administrators.

Request:
  - Body: createUserRequest

Response:
  - 201: Record: The created user
  - 400: Validation: Invalid input data
  - 409: ErrConflict: Username or email already exists
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(users.FieldUsername, input.Username).
		MinLen(users.FieldUsername, input.Username, 3).
		MaxLen(users.FieldUsername, input.Username, 50).
		Required(users.FieldEmail, input.Email).
		Email(users.FieldEmail, input.Email).
		Required(users.FieldPassword, input.Password).
		MinLen(users.FieldPassword, input.Password, 6).
		MaxLen(users.FieldFullName, input.FullName, 100)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	user, err := handler.adminService.Create(request.Context(), CreateParams{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
		IsActive: active,
		IsAdmin:  input.IsAdmin,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/admin/users/{id}.

Description: Retrieves one user record, face enrollment state included.

Response:
  - 200: Record: The user
  - 404: ErrNotFound: No such user in this session
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateUserRequest is the admin user-update payload.
type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

/*
PUT /api/v1/admin/users/{id}.

Description: Applies partial updates to any user in the session, including
role flags. Administrators cannot change their own status flags.

Request:
  - Body: updateUserRequest

Response:
  - 200: Record: The updated user
  - 400: Validation: Invalid input data
  - 403: ErrForbidden: Self status change attempted
  - 404: ErrNotFound: No such user
  - 409: ErrConflict: Username or email already taken
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.Username != nil {
		v.MinLen(users.FieldUsername, *input.Username, 3).
			MaxLen(users.FieldUsername, *input.Username, 50)
	}
	if input.Email != nil {
		v.Email(users.FieldEmail, *input.Email)
	}
	if input.Password != nil {
		v.MinLen(users.FieldPassword, *input.Password, 6)
	}
	if input.FullName != nil {
		v.MaxLen(users.FieldFullName, *input.FullName, 100)
	}
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.Update(request.Context(), actorID, id, UpdateParams{
		Username: input.Username,
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
		IsActive: input.IsActive,
		IsAdmin:  input.IsAdmin,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/admin/users/{id}.

Description: Deactivates a user. The record remains in the session store.

Response:
  - 204: No Content: User deactivated
  - 403: ErrForbidden: Self-deactivation attempted
  - 404: ErrNotFound: No such user
*/
func (handler *Handler) deactivateUser(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.Deactivate(request.Context(), actorID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/admin/users/{id}/face.

Description: Removes a user's face enrollment so the face can no longer
log in. Clearing an un-enrolled user succeeds as a no-op.

Response:
  - 204: No Content: Face data removed
  - 404: ErrNotFound: No such user
*/
func (handler *Handler) resetFace(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.ResetFace(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// batchRequest is the bulk operation payload.
type batchRequest struct {
	UserIDs     []int64 `json:"user_ids"`
	NewPassword string  `json:"new_password"`
}

/*
POST /api/v1/admin/batch/{operation}.

Description: Applies one operation (activate, deactivate, reset-password,
reset-face) to several users. Individual failures do not abort the batch.

Request:
  - operation: path parameter naming the operation
  - Body: batchRequest (UserIDs, NewPassword for reset-password)

Response:
  - 200: BatchResult: Per-record success summary
  - 400: Validation: Unknown operation or empty target list
*/
func (handler *Handler) batch(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	operation := chi.URLParam(request, "operation")

	var input batchRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.OneOf("operation", operation, OpActivate, OpDeactivate, OpResetPassword, OpResetFace)
	v.Custom(users.FieldUserIDs, len(input.UserIDs) == 0, "at least one user ID is required")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.adminService.Batch(request.Context(), actorID, BatchParams{
		Operation:   operation,
		UserIDs:     input.UserIDs,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
