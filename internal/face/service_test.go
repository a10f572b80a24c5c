// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package face_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/veriface/internal/face"
	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/users"
)

// stubExtractor maps image bytes to canned embeddings.
type stubExtractor struct {
	embeddings map[string][]float32
}

func (e *stubExtractor) Embed(_ context.Context, image []byte) ([]float32, error) {
	emb, ok := e.embeddings[string(image)]
	if !ok {
		return nil, apperr.ValidationError("No usable face found in the image")
	}
	return emb, nil
}

type stubResolver struct {
	store *users.MemoryStore
}

func (r *stubResolver) Resolve(string) (users.Repository, error) {
	return r.store, nil
}

type stubIssuer struct{}

func (stubIssuer) GenerateAccessToken(userID int64, username string, isAdmin bool) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func sessionCtx() context.Context {
	return ctxutil.WithSessionIdentity(context.Background(), "203.0.113.7")
}

// fixture builds a store with two enrolled users and a face service over it.
func fixture(t *testing.T, allowDup bool) (*face.Service, *users.MemoryStore) {
	t.Helper()
	store := users.NewMemoryStore()
	ctx := context.Background()

	alice, err := store.Create(ctx, users.CreateParams{
		Username: "alice", Email: "alice@example.com", IsActive: true,
	})
	require.NoError(t, err)
	bob, err := store.Create(ctx, users.CreateParams{
		Username: "bob", Email: "bob@example.com", IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, store.UpsertEmbedding(ctx, alice.ID, []float32{1, 0, 0}))
	require.NoError(t, store.UpsertEmbedding(ctx, bob.ID, []float32{0, 1, 0}))

	extractor := &stubExtractor{embeddings: map[string][]float32{
		"alice.jpg":    {1, 0, 0},
		"stranger.jpg": {0, 0, 1},
	}}

	service := face.NewService(&stubResolver{store: store}, extractor, stubIssuer{}, face.Options{
		Threshold:        0.23,
		AllowDuplication: allowDup,
	})
	return service, store
}

/*
TestService_VerifyRecognized verifies the happy path: the best match above
the threshold is returned with an access token.
*/
func TestService_VerifyRecognized(t *testing.T) {
	service, _ := fixture(t, false)

	result, err := service.Verify(sessionCtx(), []byte("alice.jpg"))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.Equal(t, int64(1), result.UserID)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "token-1", result.Token)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

/*
TestService_VerifyNoMatch verifies that an unknown face is a successful
response with recognized=false, not an error.
*/
func TestService_VerifyNoMatch(t *testing.T) {
	service, _ := fixture(t, false)

	result, err := service.Verify(sessionCtx(), []byte("stranger.jpg"))
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.Empty(t, result.Token)
	assert.Zero(t, result.UserID)
}

/*
TestService_VerifyInactiveAccount verifies that a matching face on a
deactivated account does not log in.
*/
func TestService_VerifyInactiveAccount(t *testing.T) {
	service, store := fixture(t, false)
	inactive := false
	_, err := store.Update(context.Background(), 1, users.UpdateFields{IsActive: &inactive})
	require.NoError(t, err)

	result, err := service.Verify(sessionCtx(), []byte("alice.jpg"))
	require.NoError(t, err)
	assert.False(t, result.Recognized)
}

/*
TestService_VerifyExtractionFailure verifies that extractor errors surface
as errors rather than a silent non-match.
*/
func TestService_VerifyExtractionFailure(t *testing.T) {
	service, _ := fixture(t, false)

	_, err := service.Verify(sessionCtx(), []byte("garbage"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}

/*
TestService_EnrollReplacesFace verifies enrollment and re-enrollment for
the same account.
*/
func TestService_EnrollReplacesFace(t *testing.T) {
	service, store := fixture(t, false)
	ctx := context.Background()

	carol, err := store.Create(ctx, users.CreateParams{
		Username: "carol", Email: "carol@example.com", IsActive: true,
	})
	require.NoError(t, err)

	rec, err := service.Enroll(sessionCtx(), carol.ID, []byte("stranger.jpg"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.HeadPic)

	// The newly enrolled face now verifies as carol.
	result, err := service.Verify(sessionCtx(), []byte("stranger.jpg"))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.Equal(t, carol.ID, result.UserID)
}

/*
TestService_EnrollDuplicateFace verifies the duplicate-face guard: a face
matching another account is rejected unless duplication is allowed.
*/
func TestService_EnrollDuplicateFace(t *testing.T) {
	ctx := context.Background()

	// 1. Duplication disallowed: conflict
	service, store := fixture(t, false)
	carol, err := store.Create(ctx, users.CreateParams{
		Username: "carol", Email: "carol@example.com", IsActive: true,
	})
	require.NoError(t, err)

	_, err = service.Enroll(sessionCtx(), carol.ID, []byte("alice.jpg"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	// 2. Re-enrolling your own face is never a conflict
	_, err = service.Enroll(sessionCtx(), 1, []byte("alice.jpg"))
	assert.NoError(t, err)

	// 3. Duplication allowed: the same face may back two accounts
	service, store = fixture(t, true)
	carol, err = store.Create(ctx, users.CreateParams{
		Username: "carol", Email: "carol@example.com", IsActive: true,
	})
	require.NoError(t, err)
	_, err = service.Enroll(sessionCtx(), carol.ID, []byte("alice.jpg"))
	assert.NoError(t, err)
}

/*
TestService_VerifyStrictAmbiguity verifies that strict mode refuses to log
in a face that matches more than one account, while lenient mode picks the
best match.
*/
func TestService_VerifyStrictAmbiguity(t *testing.T) {
	ctx := context.Background()
	store := users.NewMemoryStore()

	alice, err := store.Create(ctx, users.CreateParams{
		Username: "alice", Email: "alice@example.com", IsActive: true,
	})
	require.NoError(t, err)
	bob, err := store.Create(ctx, users.CreateParams{
		Username: "bob", Email: "bob@example.com", IsActive: true,
	})
	require.NoError(t, err)

	// Both faces land above the threshold for the same probe.
	require.NoError(t, store.UpsertEmbedding(ctx, alice.ID, []float32{1, 0, 0}))
	require.NoError(t, store.UpsertEmbedding(ctx, bob.ID, []float32{1, 1, 0}))

	extractor := &stubExtractor{embeddings: map[string][]float32{
		"probe.jpg": {1, 0, 0},
	}}

	strict := face.NewService(&stubResolver{store: store}, extractor, stubIssuer{}, face.Options{
		Threshold: 0.23, Strict: true,
	})
	result, err := strict.Verify(sessionCtx(), []byte("probe.jpg"))
	require.NoError(t, err)
	assert.False(t, result.Recognized)

	lenient := face.NewService(&stubResolver{store: store}, extractor, stubIssuer{}, face.Options{
		Threshold: 0.23, Strict: false,
	})
	result, err = lenient.Verify(sessionCtx(), []byte("probe.jpg"))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.Equal(t, alice.ID, result.UserID)
}

/*
TestService_EnrollUnknownUser verifies enrollment against a missing record.
*/
func TestService_EnrollUnknownUser(t *testing.T) {
	service, _ := fixture(t, false)

	_, err := service.Enroll(sessionCtx(), 99, []byte("alice.jpg"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}
