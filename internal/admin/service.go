// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package admin implements user administration inside one session.

All operations act on the caller's session store only; an administrator in
one demo session has no reach into any other session.
*/
package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/platform/sec"
	"github.com/veriface/veriface/internal/users"
	"github.com/veriface/veriface/pkg/pagination"
)

// # Admin Service

// Service implements user administration against the caller's session store.
type Service struct {
	resolver users.StoreResolver
}

// NewService creates the admin service.
func NewService(resolver users.StoreResolver) *Service {
	return &Service{resolver: resolver}
}

func (s *Service) store(ctx context.Context) (users.Repository, error) {
	identity := ctxutil.GetSessionIdentity(ctx)
	if identity == "" {
		return nil, apperr.Unauthorized("Missing session token")
	}
	return s.resolver.Resolve(identity)
}

// # User Listing

// Filters narrows the admin user listing. String filters are
// case-insensitive substring matches; nil booleans match everything.
type Filters struct {
	Username string
	Email    string
	FullName string
	IsActive *bool
	IsAdmin  *bool
	HasFace  *bool
}

func (f Filters) matches(rec *users.Record) bool {
	if f.Username != "" && !strings.Contains(strings.ToLower(rec.Username), strings.ToLower(f.Username)) {
		return false
	}
	if f.Email != "" && !strings.Contains(strings.ToLower(rec.Email), strings.ToLower(f.Email)) {
		return false
	}
	if f.FullName != "" && !strings.Contains(strings.ToLower(rec.FullName), strings.ToLower(f.FullName)) {
		return false
	}
	if f.IsActive != nil && rec.IsActive != *f.IsActive {
		return false
	}
	if f.IsAdmin != nil && rec.IsAdmin != *f.IsAdmin {
		return false
	}
	if f.HasFace != nil && rec.HasFace() != *f.HasFace {
		return false
	}
	return true
}

/* Parameters:
   - ctx: carries the session identity.
   - filters: optional narrowing criteria.
   - page: pagination window.
   Returns:
   - The matching page in insertion order plus the total match count. */
func (s *Service) List(ctx context.Context, filters Filters, page pagination.Params) ([]*users.Record, int, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, 0, err
	}

	all, err := repo.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]*users.Record, 0, len(all))
	for _, rec := range all {
		if filters.matches(rec) {
			filtered = append(filtered, rec)
		}
	}

	low, high := page.Slice(len(filtered))
	return filtered[low:high], len(filtered), nil
}

// # User Management

/* Parameters:
   - ctx: carries the session identity.
   - id: record to fetch.
   Returns:
   - The record, or NotFound. */
func (s *Service) Get(ctx context.Context, id int64) (*users.Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ByID(ctx, id)
}

// CreateParams carries the admin user-creation payload.
type CreateParams struct {
	Username string
	Email    string
	Password string
	FullName string
	IsActive bool
	IsAdmin  bool
}

/* Parameters:
   - ctx: carries the session identity.
   - params: the new account, including its role flags.
   Returns:
   - The created record, or Conflict on duplicate username or email. */
func (s *Service) Create(ctx context.Context, params CreateParams) (*users.Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(params.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	rec, err := repo.Create(ctx, users.CreateParams{
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: hash,
		IsActive:     params.IsActive,
		IsAdmin:      params.IsAdmin,
	})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("admin created user",
		slog.Int64("user_id", rec.ID),
		slog.Bool("is_admin", rec.IsAdmin))
	return rec, nil
}

// UpdateParams carries the admin user-update payload.
type UpdateParams struct {
	Username *string
	Email    *string
	FullName *string
	Password *string // Plaintext; hashed here.
	IsActive *bool
	IsAdmin  *bool
}

/* Parameters:
   - ctx: carries the session identity.
   - actorID: the administrator performing the update.
   - id: record to update.
   - params: fields to change; nil fields are untouched.
   Returns:
   - The updated record. Administrators cannot change their own active or
     admin flags, so a session cannot lock itself out of administration. */
func (s *Service) Update(ctx context.Context, actorID, id int64, params UpdateParams) (*users.Record, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	if actorID == id && (params.IsActive != nil || params.IsAdmin != nil) {
		return nil, apperr.Forbidden("Administrators cannot change their own status")
	}

	fields := users.UpdateFields{
		Username: params.Username,
		Email:    params.Email,
		FullName: params.FullName,
		IsActive: params.IsActive,
		IsAdmin:  params.IsAdmin,
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

	ctxutil.GetLogger(ctx).Info("admin updated user", slog.Int64("user_id", id))
	return rec, nil
}

/* Parameters:
   - ctx: carries the session identity.
   - actorID: the administrator performing the deactivation.
   - id: record to deactivate.
   Returns:
   - No error on success. Self-deactivation is forbidden. */
func (s *Service) Deactivate(ctx context.Context, actorID, id int64) error {
	repo, err := s.store(ctx)
	if err != nil {
		return err
	}

	if actorID == id {
		return apperr.Forbidden("Administrators cannot deactivate themselves")
	}

	inactive := false
	if _, err := repo.Update(ctx, id, users.UpdateFields{IsActive: &inactive}); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).Info("admin deactivated user", slog.Int64("user_id", id))
	return nil
}

/* Parameters:
   - ctx: carries the session identity.
   - id: record whose face enrollment should be removed.
   Returns:
   - No error when the record exists; clearing an un-enrolled face is a
     no-op, not an error. */
func (s *Service) ResetFace(ctx context.Context, id int64) error {
	repo, err := s.store(ctx)
	if err != nil {
		return err
	}

	// Distinguish "no record" from "no face".
	if _, err := repo.ByID(ctx, id); err != nil {
		return err
	}
	if _, err := repo.ClearEmbedding(ctx, id); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).Info("admin reset face", slog.Int64("user_id", id))
	return nil
}

// # Batch Operations

// Batch operation identifiers.
const (
	OpActivate      = "activate"
	OpDeactivate    = "deactivate"
	OpResetPassword = "reset-password"
	OpResetFace     = "reset-face"
)

// BatchParams carries a bulk operation over several records.
type BatchParams struct {
	Operation   string
	UserIDs     []int64
	NewPassword string // Only for reset-password.
}

// BatchResult summarizes a bulk operation. Failures of individual records
// do not abort the batch.
type BatchResult struct {
	Operation    string  `json:"operation"`
	TotalCount   int     `json:"total_count"`
	SuccessCount int     `json:"success_count"`
	FailedCount  int     `json:"failed_count"`
	FailedIDs    []int64 `json:"failed_ids,omitempty"`
}

/* Parameters:
   - ctx: carries the session identity.
   - actorID: the administrator performing the batch.
   - params: the operation and its targets.
   Returns:
   - Per-record success counts. The actor is silently skipped (counted as
     failed) for operations that would hit their own account. */
func (s *Service) Batch(ctx context.Context, actorID int64, params BatchParams) (*BatchResult, error) {
	repo, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	var apply func(id int64) error
	switch params.Operation {
	case OpActivate, OpDeactivate:
		active := params.Operation == OpActivate
		apply = func(id int64) error {
			if id == actorID {
				return apperr.Forbidden("Administrators cannot change their own status")
			}
			_, err := repo.Update(ctx, id, users.UpdateFields{IsActive: &active})
			return err
		}
	case OpResetPassword:
		if params.NewPassword == "" {
			return nil, apperr.ValidationError("new_password is required for reset-password")
		}
		hash, err := sec.HashPassword(params.NewPassword)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		apply = func(id int64) error {
			_, err := repo.Update(ctx, id, users.UpdateFields{Password: &hash})
			return err
		}
	case OpResetFace:
		apply = func(id int64) error {
			if _, err := repo.ByID(ctx, id); err != nil {
				return err
			}
			_, err := repo.ClearEmbedding(ctx, id)
			return err
		}
	default:
		return nil, apperr.ValidationError("Unknown batch operation: " + params.Operation)
	}

	result := &BatchResult{
		Operation:  params.Operation,
		TotalCount: len(params.UserIDs),
	}
	for _, id := range params.UserIDs {
		if err := apply(id); err != nil {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.SuccessCount++
	}

	ctxutil.GetLogger(ctx).Info("admin batch operation",
		slog.String("operation", params.Operation),
		slog.Int("succeeded", result.SuccessCount),
		slog.Int("failed", result.FailedCount))
	return result, nil
}
