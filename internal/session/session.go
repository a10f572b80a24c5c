// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

/*
Package session implements client-scoped demo sessions.

Every client identity (its IP address) gets at most one live session. A
session owns a private in-memory user store that no other session can reach,
and it disappears wholesale when the session expires or is deleted. Sessions
have a fixed lifetime from creation: activity does not extend them.

# Architecture

The [Registry] is the single owner of all sessions and the only component
that creates or retires user stores. Handlers never hold a store across
requests; they resolve it through the registry on every call, which is what
enforces expiry even between sweeper runs.
*/
package session

import (
	"time"

	"github.com/veriface/veriface/internal/users"
)

// # Session Entity

// Session binds one client identity to its private user store for a fixed
// time window.
type Session struct {
	// Identity is the client IP that owns this session.
	Identity string

	CreatedAt time.Time
	ExpiresAt time.Time

	store *users.MemoryStore
}

// Store returns the session's private user store.
func (s *Session) Store() *users.MemoryStore {
	return s.store
}

// ExpiredAt reports whether the session is past its lifetime at the given
// instant. Expiry is exclusive: a session is still live at exactly ExpiresAt.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// RemainingAt returns the lifetime left at the given instant, floored at zero.
func (s *Session) RemainingAt(now time.Time) time.Duration {
	if remaining := s.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// Info is the client-facing view of a session.
type Info struct {
	IPAddress        string    `json:"ip_address"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds float64   `json:"remaining_seconds"`
	UserCount        int       `json:"user_count"`
}
