// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriface/veriface/internal/platform/sec"
)

/*
TestHashPassword verifies the bcrypt round trip and rejection of wrong
passwords.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", hash)

	assert.True(t, sec.CheckPasswordHash("s3cret-pw", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
	assert.False(t, sec.CheckPasswordHash("s3cret-pw", "not-a-hash"))
}

/*
TestTokenService_RoundTrip verifies access token generation and the claims
that come back out.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("access-secret", "veriface.app", 5*time.Minute)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(42, "alice", true)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "veriface.app", claims.Issuer)
}

/*
TestTokenService_RejectsForeignSignature verifies that tokens signed with a
different secret fail verification.
*/
func TestTokenService_RejectsForeignSignature(t *testing.T) {
	issuing, err := sec.NewTokenService("secret-one", "veriface.app", 5*time.Minute)
	require.NoError(t, err)
	verifying, err := sec.NewTokenService("secret-two", "veriface.app", 5*time.Minute)
	require.NoError(t, err)

	token, err := issuing.GenerateAccessToken(1, "alice", false)
	require.NoError(t, err)

	_, err = verifying.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_EmptySecret verifies that construction fails fast without
a secret.
*/
func TestTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "veriface.app", time.Minute)
	assert.Error(t, err)
	_, err = sec.NewSessionTokenService("", "veriface.app")
	assert.Error(t, err)
}

/*
TestSessionTokenService_RoundTrip verifies that the identity embedded at
issue time is recovered by Validate.
*/
func TestSessionTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewSessionTokenService("session-secret", "veriface.app")
	require.NoError(t, err)

	now := time.Now()
	token, err := service.Issue("203.0.113.7", now, now.Add(5*time.Minute))
	require.NoError(t, err)

	identity, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", identity)
}

/*
TestSessionTokenService_Expired verifies the expired-token sentinel.
*/
func TestSessionTokenService_Expired(t *testing.T) {
	service, err := sec.NewSessionTokenService("session-secret", "veriface.app")
	require.NoError(t, err)

	past := time.Now().Add(-10 * time.Minute)
	token, err := service.Issue("203.0.113.7", past, past.Add(5*time.Minute))
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestSessionTokenService_Malformed verifies that garbage, foreign-signed,
and identity-less tokens all map to the malformed sentinel.
*/
func TestSessionTokenService_Malformed(t *testing.T) {
	service, err := sec.NewSessionTokenService("session-secret", "veriface.app")
	require.NoError(t, err)

	// 1. Garbage input
	_, err = service.Validate("not.a.token")
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)

	// 2. Signed by a different secret
	foreign, err := sec.NewSessionTokenService("other-secret", "veriface.app")
	require.NoError(t, err)
	now := time.Now()
	token, err := foreign.Issue("203.0.113.7", now, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = service.Validate(token)
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)

	// 3. Valid signature but empty identity
	token, err = service.Issue("", now, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = service.Validate(token)
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)
}

/*
TestSessionTokenService_DeterministicClaims verifies that two tokens for
the same session window are identical, since all claim inputs are fixed.
*/
func TestSessionTokenService_DeterministicClaims(t *testing.T) {
	service, err := sec.NewSessionTokenService("session-secret", "veriface.app")
	require.NoError(t, err)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(5 * time.Minute)

	first, err := service.Issue("203.0.113.7", created, expires)
	require.NoError(t, err)
	second, err := service.Issue("203.0.113.7", created, expires)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
