// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package session_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/session"
	"github.com/veriface/veriface/internal/users"
)

const testTTL = 300 * time.Second

// newRegistry builds a registry with a controllable clock.
func newRegistry(t *testing.T, maxSize int) (*session.Registry, *time.Time) {
	t.Helper()
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := session.NewRegistry(session.Options{
		TTL:     testTTL,
		MaxSize: maxSize,
		Seed: session.Seed{
			Username:     "admin",
			Email:        "admin@example.com",
			FullName:     "Demo Administrator",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvabcdefghi",
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	session.SetClock(registry, func() time.Time { return current })
	return registry, &current
}

/*
TestRegistry_OneSessionPerIdentity verifies that a second Create for the
same identity is rejected while the first session is live.
*/
func TestRegistry_OneSessionPerIdentity(t *testing.T) {
	registry, _ := newRegistry(t, 0)

	_, err := registry.Create("203.0.113.1")
	require.NoError(t, err)

	_, err = registry.Create("203.0.113.1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	// A different identity is unaffected.
	_, err = registry.Create("203.0.113.2")
	assert.NoError(t, err)
}

/*
TestRegistry_TTLBoundary verifies the fixed-lifetime contract: the session
is live at exactly ExpiresAt and gone immediately after, and activity does
not extend it.
*/
func TestRegistry_TTLBoundary(t *testing.T) {
	registry, clock := newRegistry(t, 0)

	sess, err := registry.Create("203.0.113.1")
	require.NoError(t, err)

	// 1. Live at exactly the expiry instant
	*clock = sess.ExpiresAt
	_, err = registry.Get("203.0.113.1")
	assert.NoError(t, err)

	// 2. Accessing the session did not push the deadline out
	*clock = sess.ExpiresAt.Add(time.Nanosecond)
	_, err = registry.Get("203.0.113.1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))

	// 3. Expiry freed the identity for a new session
	_, err = registry.Create("203.0.113.1")
	assert.NoError(t, err)
}

/*
TestRegistry_CapacityExceeded verifies the capacity cap, including that
expired sessions are purged before the cap is checked.
*/
func TestRegistry_CapacityExceeded(t *testing.T) {
	registry, clock := newRegistry(t, 1)

	_, err := registry.Create("203.0.113.1")
	require.NoError(t, err)

	// 1. At capacity: a different identity is turned away
	_, err = registry.Create("203.0.113.2")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CAPACITY_EXCEEDED"))

	// 2. Once the occupant expires, the slot opens without a sweep
	*clock = clock.Add(testTTL + time.Second)
	_, err = registry.Create("203.0.113.2")
	assert.NoError(t, err)
}

/*
TestRegistry_StoreIsolation verifies that each session's store is private:
a user created in one session is invisible to another, and IDs are
store-local.
*/
func TestRegistry_StoreIsolation(t *testing.T) {
	registry, _ := newRegistry(t, 0)
	ctx := context.Background()

	first, err := registry.Create("203.0.113.1")
	require.NoError(t, err)
	second, err := registry.Create("203.0.113.2")
	require.NoError(t, err)

	// Both stores carry the seeded admin as record 1.
	alice, err := first.Store().Create(ctx, users.CreateParams{
		Username: "alice", Email: "alice@example.com", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.ID)

	_, err = second.Store().ByUsername(ctx, "alice")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	// The same username is free in the other session.
	other, err := second.Store().Create(ctx, users.CreateParams{
		Username: "alice", Email: "alice@example.com", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.ID)
}

/*
TestRegistry_SeededAdmin verifies every new store starts with an active
admin account.
*/
func TestRegistry_SeededAdmin(t *testing.T) {
	registry, _ := newRegistry(t, 0)

	sess, err := registry.Create("203.0.113.1")
	require.NoError(t, err)

	admin, err := sess.Store().ByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsActive)
	assert.Equal(t, int64(1), admin.ID)
}

/*
TestRegistry_DeleteThenCreate verifies that deleting a session discards its
store and frees the identity immediately.
*/
func TestRegistry_DeleteThenCreate(t *testing.T) {
	registry, _ := newRegistry(t, 0)
	ctx := context.Background()

	sess, err := registry.Create("203.0.113.1")
	require.NoError(t, err)
	_, err = sess.Store().Create(ctx, users.CreateParams{
		Username: "alice", Email: "alice@example.com", IsActive: true,
	})
	require.NoError(t, err)

	assert.True(t, registry.Delete("203.0.113.1"))
	assert.False(t, registry.Delete("203.0.113.1"))

	// The replacement session starts from a fresh seeded store.
	replacement, err := registry.Create("203.0.113.1")
	require.NoError(t, err)
	_, err = replacement.Store().ByUsername(ctx, "alice")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

/*
TestRegistry_ResolveRequiresLiveSession verifies the resolver path used by
the domain services: a token identity without a live session is rejected.
*/
func TestRegistry_ResolveRequiresLiveSession(t *testing.T) {
	registry, clock := newRegistry(t, 0)

	_, err := registry.Resolve("203.0.113.1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))

	sess, err := registry.Create("203.0.113.1")
	require.NoError(t, err)

	repo, err := registry.Resolve("203.0.113.1")
	require.NoError(t, err)
	assert.NotNil(t, repo)

	*clock = sess.ExpiresAt.Add(time.Second)
	_, err = registry.Resolve("203.0.113.1")
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestRegistry_SweepExpired verifies the bulk purge and the Count bookkeeping.
*/
func TestRegistry_SweepExpired(t *testing.T) {
	registry, clock := newRegistry(t, 0)

	_, err := registry.Create("203.0.113.1")
	require.NoError(t, err)
	*clock = clock.Add(100 * time.Second)
	_, err = registry.Create("203.0.113.2")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Count())

	// Only the first session is past its lifetime.
	*clock = clock.Add(testTTL - 50*time.Second)
	assert.Equal(t, 1, registry.SweepExpired())
	assert.Equal(t, 1, registry.Count())
	assert.Equal(t, 0, registry.SweepExpired())

	snapshot := registry.Snapshot()
	assert.Equal(t, 1, snapshot.LiveSessions)
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, "203.0.113.2", snapshot.Sessions[0].IPAddress)
}
