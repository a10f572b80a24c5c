// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/users"
)

func mustCreate(t *testing.T, store *users.MemoryStore, username, email string) *users.Record {
	t.Helper()
	rec, err := store.Create(context.Background(), users.CreateParams{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		IsActive:     true,
	})
	require.NoError(t, err)
	return rec
}

/*
TestMemoryStore_CreateAssignsSequentialIDs verifies that IDs start at 1,
increase monotonically, and are never reused after deletion.
*/
func TestMemoryStore_CreateAssignsSequentialIDs(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	first := mustCreate(t, store, "alice", "alice@example.com")
	second := mustCreate(t, store, "bob", "bob@example.com")
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	// Deleting does not free the ID for reuse.
	removed, err := store.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	third := mustCreate(t, store, "carol", "carol@example.com")
	assert.Equal(t, int64(3), third.ID)
}

/*
TestMemoryStore_UniquenessConflicts verifies that duplicate usernames and
emails are rejected with a Conflict error.
*/
func TestMemoryStore_UniquenessConflicts(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()
	mustCreate(t, store, "alice", "alice@example.com")

	// 1. Same username, different email
	_, err := store.Create(ctx, users.CreateParams{Username: "alice", Email: "other@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	// 2. Same email, different username
	_, err = store.Create(ctx, users.CreateParams{Username: "alice2", Email: "alice@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	// 3. Update clashing with another record
	bob := mustCreate(t, store, "bob", "bob@example.com")
	taken := "alice"
	_, err = store.Update(ctx, bob.ID, users.UpdateFields{Username: &taken})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	// 4. Updating a record to its own current username is not a conflict
	same := "bob"
	_, err = store.Update(ctx, bob.ID, users.UpdateFields{Username: &same})
	assert.NoError(t, err)
}

/*
TestMemoryStore_LookupsAndNotFound verifies the lookup paths and their
NotFound behavior.
*/
func TestMemoryStore_LookupsAndNotFound(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()
	alice := mustCreate(t, store, "alice", "alice@example.com")

	byID, err := store.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := store.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := store.ByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = store.ByID(ctx, 42)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	_, err = store.ByUsername(ctx, "nobody")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	// The client-facing message reads as one sentence.
	assert.Equal(t, "User not found", apperr.As(err).Message)
}

/*
TestMemoryStore_DefensiveCopies verifies that records handed out by the
store are detached from internal state.
*/
func TestMemoryStore_DefensiveCopies(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()
	alice := mustCreate(t, store, "alice", "alice@example.com")

	require.NoError(t, store.UpsertEmbedding(ctx, alice.ID, []float32{1, 0, 0}))

	got, err := store.ByID(ctx, alice.ID)
	require.NoError(t, err)

	// Mutating the returned record must not affect the store.
	got.Username = "mallory"
	got.Embedding[0] = 99

	fresh, err := store.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Username)
	assert.Equal(t, float32(1), fresh.Embedding[0])
}

/*
TestMemoryStore_UpsertAndClearEmbedding verifies the face data lifecycle:
attach, replace, and clear (targeted and store-wide).
*/
func TestMemoryStore_UpsertAndClearEmbedding(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()
	alice := mustCreate(t, store, "alice", "alice@example.com")
	bob := mustCreate(t, store, "bob", "bob@example.com")
	mustCreate(t, store, "carol", "carol@example.com") // Never enrolled.

	require.NoError(t, store.UpsertEmbedding(ctx, alice.ID, []float32{1, 0}))
	require.NoError(t, store.UpsertEmbedding(ctx, bob.ID, []float32{0, 1}))

	// 1. Unknown record
	err := store.UpsertEmbedding(ctx, 99, []float32{1})
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	// 2. Targeted clear counts only records that had a face
	cleared, err := store.ClearEmbedding(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	got, err := store.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.HasFace())

	// 3. Store-wide clear skips records without faces
	cleared, err = store.ClearEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared) // Only bob still had one.
}

/*
TestMemoryStore_ClearEmbeddingRemovesFromSearch verifies that a record whose
face was cleared can never come back from a search, no matter the threshold.
*/
func TestMemoryStore_ClearEmbeddingRemovesFromSearch(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()
	alice := mustCreate(t, store, "alice", "alice@example.com")
	bob := mustCreate(t, store, "bob", "bob@example.com")

	require.NoError(t, store.UpsertEmbedding(ctx, alice.ID, []float32{1, 0}))
	require.NoError(t, store.UpsertEmbedding(ctx, bob.ID, []float32{1, 0}))

	// 1. Both enrolled records match the probe
	matches, err := store.Search(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// 2. After clearing alice, only bob matches — even at threshold 0
	_, err = store.ClearEmbedding(ctx, alice.ID)
	require.NoError(t, err)

	matches, err = store.Search(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, bob.ID, matches[0].ID)
}

/*
TestMemoryStore_SearchOrdering verifies the similarity search contract:
descending similarity, ascending-ID tie-break, inclusive threshold, and
the limit cap.
*/
func TestMemoryStore_SearchOrdering(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	// Three enrolled users plus one without a face.
	a := mustCreate(t, store, "a", "a@example.com")
	b := mustCreate(t, store, "b", "b@example.com")
	c := mustCreate(t, store, "c", "c@example.com")
	mustCreate(t, store, "d", "d@example.com")

	require.NoError(t, store.UpsertEmbedding(ctx, a.ID, []float32{1, 0}))      // sim 1.0
	require.NoError(t, store.UpsertEmbedding(ctx, b.ID, []float32{1, 1}))      // sim ~0.707
	require.NoError(t, store.UpsertEmbedding(ctx, c.ID, []float32{2, 0}))      // sim 1.0 (tie with a)

	matches, err := store.Search(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// Ties resolved by ascending ID.
	assert.Equal(t, a.ID, matches[0].ID)
	assert.Equal(t, c.ID, matches[1].ID)
	assert.Equal(t, b.ID, matches[2].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)

	// Limit truncates after ordering.
	matches, err = store.Search(ctx, []float32{1, 0}, 1, 0.0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, a.ID, matches[0].ID)
}

/*
TestMemoryStore_SearchThresholdInclusive verifies that a record whose
similarity equals the threshold exactly is included.
*/
func TestMemoryStore_SearchThresholdInclusive(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	a := mustCreate(t, store, "a", "a@example.com")
	require.NoError(t, store.UpsertEmbedding(ctx, a.ID, []float32{1, 0}))

	// Identical vectors have similarity exactly 1.0.
	matches, err := store.Search(ctx, []float32{1, 0}, 10, 1.0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

/*
TestMemoryStore_SearchZeroVector verifies that a zero-norm probe matches
nothing at any positive threshold: its similarity against every record is 0.
*/
func TestMemoryStore_SearchZeroVector(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	a := mustCreate(t, store, "a", "a@example.com")
	require.NoError(t, store.UpsertEmbedding(ctx, a.ID, []float32{1, 0}))

	matches, err := store.Search(ctx, []float32{0, 0}, 10, 0.23)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// At threshold 0 the zero similarity is inclusive.
	matches, err = store.Search(ctx, []float32{0, 0}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Zero(t, matches[0].Similarity)
}

/*
TestMemoryStore_ListInsertionOrder verifies that List preserves insertion
order across deletions.
*/
func TestMemoryStore_ListInsertionOrder(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	a := mustCreate(t, store, "a", "a@example.com")
	b := mustCreate(t, store, "b", "b@example.com")
	c := mustCreate(t, store, "c", "c@example.com")

	_, err := store.Delete(ctx, b.ID)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
