// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package face implements face verification and enrollment.

Embeddings come from an external extractor service; everything else — the
similarity search, the match decision, and the issued tokens — happens
against the caller's session store.
*/
package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/veriface/veriface/internal/platform/apperr"
)

// # Embedding Extraction

// Extractor turns a face image into an embedding vector.
type Extractor interface {
	/* Parameters:
	   - ctx: request-scoped context; cancels the upstream call.
	   - image: raw image bytes as uploaded by the client.
	   Returns:
	   - The embedding, or ValidationError when no usable face was found,
	     or ServiceUnavailable when the extractor cannot be reached. */
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// HTTPExtractor calls a remote embedding service over HTTP.
type HTTPExtractor struct {
	url       string
	dimension int
	client    *http.Client
}

// NewHTTPExtractor constructs an extractor client.
//
// dimension is the expected embedding length; responses of any other length
// are rejected so a misconfigured extractor cannot poison the stores.
func NewHTTPExtractor(url string, dimension int, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		url:       url,
		dimension: dimension,
		client:    &http.Client{Timeout: timeout},
	}
}

// embedResponse is the extractor service's reply payload.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Detail    string    `json:"detail"`
}

func (e *HTTPExtractor) Embed(ctx context.Context, image []byte) ([]float32, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "face.jpg")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := form.Close(); err != nil {
		return nil, apperr.Internal(err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	request.Header.Set("Content-Type", form.FormDataContentType())

	response, err := e.client.Do(request)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Face extractor is unreachable").WithCause(err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, apperr.ServiceUnavailable("Face extractor returned an unreadable response").WithCause(err)
	}

	var decoded embedResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apperr.ServiceUnavailable("Face extractor returned malformed JSON").WithCause(err)
	}

	// The extractor reports detection problems (no face, several faces)
	// as client errors with a detail message.
	if response.StatusCode >= 400 && response.StatusCode < 500 {
		msg := decoded.Detail
		if msg == "" {
			msg = "No usable face found in the image"
		}
		return nil, apperr.ValidationError(msg)
	}
	if response.StatusCode != http.StatusOK {
		return nil, apperr.ServiceUnavailable(
			fmt.Sprintf("Face extractor failed with status %d", response.StatusCode))
	}

	if len(decoded.Embedding) != e.dimension {
		return nil, apperr.ServiceUnavailable(
			fmt.Sprintf("Face extractor returned %d dimensions, expected %d",
				len(decoded.Embedding), e.dimension))
	}
	return decoded.Embedding, nil
}

// Ping reports whether the extractor endpoint answers at all. Used by the
// readiness probe.
func (e *HTTPExtractor) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return err
	}
	response, err := e.client.Do(request)
	if err != nil {
		return err
	}
	return response.Body.Close()
}
