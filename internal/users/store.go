// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users

import (
	"context"
)

// # Store Contracts

// CreateParams carries the fields needed to insert a new record.
type CreateParams struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
}

// UpdateFields is a partial update: nil pointers leave the field unchanged.
type UpdateFields struct {
	Username *string
	Email    *string
	FullName *string
	Password *string // Already hashed by the caller.
	IsActive *bool
	IsAdmin  *bool
	HeadPic  *string
}

// Repository is the per-session user store.
//
// Every session owns exactly one Repository; implementations must be safe
// for concurrent use by the handlers of that session.
type Repository interface {
	/* Parameters:
	   - ctx: request-scoped context.
	   - params: the new record's fields; the password must already be hashed.
	   Returns:
	   - The stored record with its assigned ID and timestamps.
	   - apperr Conflict when the username or email is already taken. */
	Create(ctx context.Context, params CreateParams) (*Record, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - id: store-local record ID.
	   Returns:
	   - The record, or apperr NotFound when no record has that ID. */
	ByID(ctx context.Context, id int64) (*Record, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - username: exact username to look up.
	   Returns:
	   - The record, or apperr NotFound when no record has that username. */
	ByUsername(ctx context.Context, username string) (*Record, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - email: exact email to look up.
	   Returns:
	   - The record, or apperr NotFound when no record has that email. */
	ByEmail(ctx context.Context, email string) (*Record, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - id: record to update.
	   - fields: partial update; nil pointers are skipped.
	   Returns:
	   - The updated record, or apperr NotFound / Conflict on uniqueness clash. */
	Update(ctx context.Context, id int64, fields UpdateFields) (*Record, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - id: record to remove.
	   Returns:
	   - true when a record was removed, false when the ID did not exist. */
	Delete(ctx context.Context, id int64) (bool, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   Returns:
	   - All records in insertion order. The slice and records are copies. */
	List(ctx context.Context) ([]*Record, error)

	/* Returns:
	   - The number of records currently stored. */
	Count(ctx context.Context) (int, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - id: record to attach the embedding to.
	   - embedding: face feature vector; replaces any previous one.
	   Returns:
	   - apperr NotFound when the record does not exist. */
	UpsertEmbedding(ctx context.Context, id int64, embedding []float32) error

	/* Parameters:
	   - ctx: request-scoped context.
	   - ids: records whose face data should be cleared; empty means all.
	   Returns:
	   - The number of records that actually had face data removed. */
	ClearEmbedding(ctx context.Context, ids ...int64) (int, error)

	/* Parameters:
	   - ctx: request-scoped context.
	   - query: probe embedding.
	   - limit: maximum number of matches; capped at the store size.
	   - threshold: inclusive minimum cosine similarity.
	   Returns:
	   - Matches sorted by similarity descending, ID ascending on ties.
	     Records without an embedding never match. */
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]Match, error)
}

// StoreResolver maps a caller identity to that identity's live store.
// Implemented by the session registry; declared here to keep the
// dependency direction pointing at the domain.
type StoreResolver interface {
	/* Parameters:
	   - identity: the session identity (client IP).
	   Returns:
	   - The session's store, or apperr Unauthorized when no live
	     session exists for the identity. */
	Resolve(identity string) (Repository, error)
}
