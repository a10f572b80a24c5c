// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package face

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/middleware"
	requestutil "github.com/veriface/veriface/internal/platform/request"
	"github.com/veriface/veriface/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the face HTTP endpoints.
type Handler struct {
	faceService *Service
}

// NewHandler constructs a new face [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{faceService: service}
}

// Routes returns a [chi.Router] configured with the face endpoints.
//
// # Endpoints
//   - POST /verify : Face login against the caller's session store.
//   - PUT /me      : Enrolls or replaces the authenticated user's face.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/verify", handler.verify)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/me", handler.enrollMe)
	})

	return router
}

// readImage pulls the uploaded image out of a multipart form, enforcing the
// upload size cap.
func readImage(request *http.Request) ([]byte, error) {
	request.Body = http.MaxBytesReader(nil, request.Body, constants.MaxImageUploadBytes)
	if err := request.ParseMultipartForm(constants.MaxImageUploadBytes); err != nil {
		return nil, apperr.ValidationError("Image upload is missing or too large")
	}

	file, _, err := request.FormFile("image")
	if err != nil {
		return nil, apperr.ValidationError("Form field 'image' is required")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.ValidationError("Could not read uploaded image")
	}
	if len(image) == 0 {
		return nil, apperr.ValidationError("Uploaded image is empty")
	}
	return image, nil
}

// # Face Endpoints

/*
POST /api/v1/face/verify.

Description: Matches the uploaded face against the caller's session store.
A non-match is a 200 response with recognized=false; only extraction and
session failures produce errors.

Request:
  - multipart/form-data with an 'image' file field

Response:
  - 200: VerifyResult: Match outcome, with an access token when recognized
  - 400: Validation: Missing or unusable image
  - 401: ErrUnauthorized: Missing or invalid session
  - 503: SERVICE_UNAVAILABLE: Extractor unreachable
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	image, err := readImage(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.faceService.Verify(request.Context(), image)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
PUT /api/v1/face/me.

Description: Enrolls the uploaded face for the authenticated user,
replacing any previous enrollment.

Request:
  - multipart/form-data with an 'image' file field

Response:
  - 200: Record: The updated profile with face data attached
  - 400: Validation: Missing or unusable image
  - 401: ErrUnauthorized: Authentication required
  - 409: ErrConflict: Face already registered to another user
*/
func (handler *Handler) enrollMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := readImage(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.faceService.Enroll(request.Context(), userID, image)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
