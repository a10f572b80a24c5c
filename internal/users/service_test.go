// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/ctxutil"
	"github.com/veriface/veriface/internal/users"
)

// stubResolver maps every identity to one fixed store.
type stubResolver struct {
	store *users.MemoryStore
}

func (r *stubResolver) Resolve(identity string) (users.Repository, error) {
	if identity == "" || r.store == nil {
		return nil, apperr.Unauthorized("No active session")
	}
	return r.store, nil
}

// stubIssuer returns a deterministic token string.
type stubIssuer struct{}

func (stubIssuer) GenerateAccessToken(userID int64, username string, isAdmin bool) (string, error) {
	return fmt.Sprintf("token-%d-%s-%t", userID, username, isAdmin), nil
}

func sessionCtx() context.Context {
	return ctxutil.WithSessionIdentity(context.Background(), "203.0.113.7")
}

/*
TestService_RegisterAndLogin verifies the signup/login round trip: the
stored hash verifies against the original password and login works with
both username and email.
*/
func TestService_RegisterAndLogin(t *testing.T) {
	store := users.NewMemoryStore()
	service := users.NewService(&stubResolver{store: store}, stubIssuer{})
	ctx := sessionCtx()

	rec, err := service.Register(ctx, users.RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pw",
		FullName: "Alice A.",
	})
	require.NoError(t, err)
	assert.True(t, rec.IsActive)
	assert.False(t, rec.IsAdmin)

	// 1. Login by username
	result, err := service.Login(ctx, "alice", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, "token-1-alice-false", result.Token)
	assert.Equal(t, "Bearer", result.TokenType)

	// 2. Login by email
	_, err = service.Login(ctx, "alice@example.com", "s3cret-pw")
	assert.NoError(t, err)

	// 3. Wrong password and unknown user are indistinguishable
	_, badPw := service.Login(ctx, "alice", "wrong")
	_, noUser := service.Login(ctx, "nobody", "wrong")
	require.Error(t, badPw)
	require.Error(t, noUser)
	assert.Equal(t, apperr.As(badPw).Message, apperr.As(noUser).Message)
}

/*
TestService_LoginInactiveAccount verifies that a deactivated account cannot
log in even with correct credentials.
*/
func TestService_LoginInactiveAccount(t *testing.T) {
	store := users.NewMemoryStore()
	service := users.NewService(&stubResolver{store: store}, stubIssuer{})
	ctx := sessionCtx()

	rec, err := service.Register(ctx, users.RegisterParams{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pw",
	})
	require.NoError(t, err)
	require.NoError(t, service.Deactivate(ctx, rec.ID))

	_, err = service.Login(ctx, "alice", "s3cret-pw")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestService_RequiresSessionIdentity verifies that every operation fails
with Unauthorized when no session identity is present in context.
*/
func TestService_RequiresSessionIdentity(t *testing.T) {
	store := users.NewMemoryStore()
	service := users.NewService(&stubResolver{store: store}, stubIssuer{})

	_, err := service.Register(context.Background(), users.RegisterParams{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pw",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))

	_, err = service.Login(context.Background(), "alice", "s3cret-pw")
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestService_UpdateProfile verifies partial updates including password
rehashing and the email uniqueness guard.
*/
func TestService_UpdateProfile(t *testing.T) {
	store := users.NewMemoryStore()
	service := users.NewService(&stubResolver{store: store}, stubIssuer{})
	ctx := sessionCtx()

	alice, err := service.Register(ctx, users.RegisterParams{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pw",
	})
	require.NoError(t, err)
	_, err = service.Register(ctx, users.RegisterParams{
		Username: "bob", Email: "bob@example.com", Password: "s3cret-pw",
	})
	require.NoError(t, err)

	// 1. Change full name and password
	newName := "Alice Updated"
	newPw := "new-s3cret"
	rec, err := service.UpdateProfile(ctx, alice.ID, users.UpdateProfileParams{
		FullName: &newName,
		Password: &newPw,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, rec.FullName)

	_, err = service.Login(ctx, "alice", newPw)
	assert.NoError(t, err)
	_, err = service.Login(ctx, "alice", "s3cret-pw")
	assert.Error(t, err)

	// 2. Taking bob's email is a conflict
	taken := "bob@example.com"
	_, err = service.UpdateProfile(ctx, alice.ID, users.UpdateProfileParams{Email: &taken})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))
}
