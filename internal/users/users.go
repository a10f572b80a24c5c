// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package users implements the per-session user store and account management layer.

It defines the core domain entity (Record) and the embedding store every
session owns: an isolated, in-memory container of user records with CRUD and
cosine-similarity face search.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
external dependencies and encapsulate all business rules related to user
identity inside one session. Stores never outlive their owning session; the
session registry is the only component allowed to create or retire them.
*/
package users

import (
	"time"
)

// # Domain Entities

// Record represents one user entry inside a session store.
//
// IDs are store-local: they increase monotonically from 1 within a store,
// are never reused, and mean nothing outside their store.
type Record struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`

	// HeadPic is the base64-encoded enrollment photo, set together with
	// Embedding and cleared together with it.
	HeadPic string `json:"head_pic,omitempty"`

	// Embedding is the face feature vector. nil means "no face registered".
	// Omitted from JSON: it is large and of no use to clients.
	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFace reports whether a face is enrolled for this record.
func (r *Record) HasFace() bool {
	return r.Embedding != nil
}

// Match is one hit from a similarity search, ordered descending by
// similarity with ascending-ID tie-break.
type Match struct {
	ID         int64   `json:"id"`
	Similarity float64 `json:"similarity"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the users domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldFullName    = "full_name"
	FieldLogin       = "login"
	FieldToken       = "token"
	FieldTokenType   = "token_type"
	FieldImage       = "image"
	FieldUserIDs     = "user_ids"
	FieldNewPassword = "new_password"
)
