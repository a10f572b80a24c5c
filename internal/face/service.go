// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package face

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/users"
)

// # Face Service

// TokenIssuer mints access tokens for recognized users.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, username string, isAdmin bool) (string, error)
}

// Options tunes the match decision.
type Options struct {
	// Threshold is the inclusive minimum cosine similarity for a match.
	Threshold float64

	// Strict rejects a verification whose probe matches more than one
	// enrolled account: an ambiguous face never logs anyone in.
	Strict bool

	// AllowDuplication permits the same face on several accounts. When
	// false, enrollment rejects a face that already matches another user.
	AllowDuplication bool
}

// Service implements face verification and enrollment against the caller's
// session store.
type Service struct {
	resolver  users.StoreResolver
	extractor Extractor
	tokens    TokenIssuer
	opts      Options
}

// NewService creates the face service.
func NewService(resolver users.StoreResolver, extractor Extractor, tokens TokenIssuer, opts Options) *Service {
	return &Service{resolver: resolver, extractor: extractor, tokens: tokens, opts: opts}
}

func (s *Service) store(ctx context.Context) (users.Repository, error) {
	identity := ctxutil.GetSessionIdentity(ctx)
	if identity == "" {
		return nil, apperr.Unauthorized("Missing session token")
	}
	return s.resolver.Resolve(identity)
}

// VerifyResult is the outcome of a verification attempt. A failed match is
// a normal result, not an error.
type VerifyResult struct {
	Recognized bool    `json:"recognized"`
	UserID     int64   `json:"user_id,omitempty"`
	Username   string  `json:"username,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Token      string  `json:"token,omitempty"`
	TokenType  string  `json:"token_type,omitempty"`
	Message    string  `json:"message"`
}

/* Parameters:
   - ctx: carries the session identity.
   - image: raw uploaded image bytes.
   Returns:
   - The best match at or above the threshold with a fresh access token,
     or Recognized=false when nobody matches. Errors are reserved for
     extraction failures and missing sessions. */
func (s *Service) Verify(ctx context.Context, image []byte) (*VerifyResult, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	embedding, err := s.extractor.Embed(ctx, image)
	if err != nil {
		return nil, err
	}

	// In strict mode we ask for a second candidate so ambiguity is visible.
	limit := 1
	if s.opts.Strict {
		limit = 2
	}
	matches, err := repo.Search(ctx, embedding, limit, s.opts.Threshold)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &VerifyResult{
			Recognized: false,
			Message:    "Face not recognized",
		}, nil
	}
	if s.opts.Strict && len(matches) > 1 {
		ctxutil.GetLogger(ctx).Warn("ambiguous face match",
			slog.Int64("best_id", matches[0].ID),
			slog.Int64("runner_up_id", matches[1].ID))
		return &VerifyResult{
			Recognized: false,
			Message:    "Ambiguous match, please try again",
		}, nil
	}

	best := matches[0]
	rec, err := repo.ByID(ctx, best.ID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		// A deactivated account's face still matches; it just cannot log in.
		return &VerifyResult{
			Recognized: false,
			Message:    "Face not recognized",
		}, nil
	}

	token, err := s.tokens.GenerateAccessToken(rec.ID, rec.Username, rec.IsAdmin)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).Info("face verified",
		slog.Int64("user_id", rec.ID),
		slog.Float64("confidence", best.Similarity))
	return &VerifyResult{
		Recognized: true,
		UserID:     rec.ID,
		Username:   rec.Username,
		Confidence: best.Similarity,
		Token:      token,
		TokenType:  constants.TokenTypeBearer,
		Message:    "Welcome back, " + rec.Username,
	}, nil
}

/* Parameters:
   - ctx: carries the session identity.
   - userID: the authenticated account enrolling its face.
   - image: raw uploaded image bytes.
   Returns:
   - The updated record. Re-enrolling replaces the previous face. When
     duplication is disallowed, a face already matching a different
     account is rejected with Conflict. */
func (s *Service) Enroll(ctx context.Context, userID int64, image []byte) (*users.Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	// Fail before calling the extractor if the account is gone.
	if _, err := repo.ByID(ctx, userID); err != nil {
		return nil, err
	}

	embedding, err := s.extractor.Embed(ctx, image)
	if err != nil {
		return nil, err
	}

	if !s.opts.AllowDuplication {
		matches, err := repo.Search(ctx, embedding, 1, s.opts.Threshold)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 && matches[0].ID != userID {
			return nil, apperr.Conflict("This face is already registered to another user")
		}
	}

	if err := repo.UpsertEmbedding(ctx, userID, embedding); err != nil {
		return nil, err
	}

	headPic := base64.StdEncoding.EncodeToString(image)
	rec, err := repo.Update(ctx, userID, users.UpdateFields{HeadPic: &headPic})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("face enrolled", slog.Int64("user_id", userID))
	return rec, nil
}
