// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/platform/sec"
)

// # Account Service

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, username string, isAdmin bool) (string, error)
}

// Service implements account management on top of a session's store.
// The store for the calling session is resolved per request.
type Service struct {
	resolver StoreResolver
	tokens   TokenIssuer
}

// NewService creates the account service.
func NewService(resolver StoreResolver, tokens TokenIssuer) *Service {
	return &Service{resolver: resolver, tokens: tokens}
}

// store resolves the caller's session store from the request context.
func (s *Service) store(ctx context.Context) (Repository, error) {
	identity := ctxutil.GetSessionIdentity(ctx)
	if identity == "" {
		return nil, apperr.Unauthorized("Missing session token")
	}
	return s.resolver.Resolve(identity)
}

// RegisterParams carries the signup payload.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	FullName string
}

/* Parameters:
   - ctx: carries the session identity set by the session middleware.
   - params: validated signup fields with a plaintext password.
   Returns:
   - The created record (active, non-admin), or Conflict when the
     username or email is taken within the caller's session. */
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(params.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	rec, err := repo.Create(ctx, CreateParams{
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      false,
	})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("user registered",
		slog.Int64("user_id", rec.ID),
		slog.String("username", rec.Username))
	return rec, nil
}

// LoginResult is the password-login response payload.
type LoginResult struct {
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	ExpiresIn float64 `json:"expires_in"`
	User      *Record `json:"user"`
}

/* Parameters:
   - ctx: carries the session identity.
   - login: username or email.
   - password: plaintext password to verify.
   Returns:
   - An access token bound to the matched record, or Unauthorized on any
     credential failure. Lookup failures and password failures are
     indistinguishable to the caller. */
func (s *Service) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.authenticate(ctx, repo, login, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(rec.ID, rec.Username, rec.IsAdmin)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).Info("user logged in", slog.Int64("user_id", rec.ID))
	return &LoginResult{
		Token:     token,
		TokenType: constants.TokenTypeBearer,
		ExpiresIn: constants.AccessTokenTTL.Seconds(),
		User:      rec,
	}, nil
}

// authenticate matches login (username or email) against the store and
// verifies the password. Inactive accounts are rejected the same way as
// wrong credentials.
func (s *Service) authenticate(ctx context.Context, repo Repository, login, password string) (*Record, error) {
	var rec *Record
	var err error
	if strings.Contains(login, "@") {
		rec, err = repo.ByEmail(ctx, login)
	} else {
		rec, err = repo.ByUsername(ctx, login)
	}
	if err != nil {
		// Burn a comparable amount of time so missing users are not
		// distinguishable from bad passwords.
		sec.CheckPasswordHash(password, sec.DummyHash)
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if !rec.IsActive {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if !sec.CheckPasswordHash(password, rec.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return rec, nil
}

/* Parameters:
   - ctx: carries the session identity.
   - id: the authenticated caller's record ID.
   Returns:
   - The caller's record, or NotFound when it was removed mid-session. */
func (s *Service) Profile(ctx context.Context, id int64) (*Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ByID(ctx, id)
}

// UpdateProfileParams carries the self-service profile update payload.
type UpdateProfileParams struct {
	Email    *string
	FullName *string
	Password *string // Plaintext; hashed here.
}

/* Parameters:
   - ctx: carries the session identity.
   - id: the authenticated caller's record ID.
   - params: fields to change; nil fields are untouched.
   Returns:
   - The updated record, or Conflict when the new email belongs to
     another record in the same session. */
func (s *Service) UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (*Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	fields := UpdateFields{
		Email:    params.Email,
		FullName: params.FullName,
	}
	if params.Password != nil {
		hash, err := sec.HashPassword(*params.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		fields.Password = &hash
	}

	rec, err := repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("profile updated", slog.Int64("user_id", id))
	return rec, nil
}

/* Parameters:
   - ctx: carries the session identity.
   - id: the authenticated caller's record ID.
   Returns:
   - No error on success. The account is soft-deactivated, not removed,
     so its face data and history stay visible to admins. */
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	repo, err := s.store(ctx)
	if err != nil {
		return err
	}

	inactive := false
	if _, err := repo.Update(ctx, id, UpdateFields{IsActive: &inactive}); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).Info("user deactivated", slog.Int64("user_id", id))
	return nil
}
