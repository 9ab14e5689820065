// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()

	m, err := NewTokenManager("test-secret-with-enough-entropy", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	return m
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.IssuePair(42, "taro")
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := m.Validate(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "taro", claims.Username)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = m.Validate(pair.Refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not be accepted as access token")

	_, err = m.Validate(pair.Access, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.IssuePair(7, "hanako")
	require.NoError(t, err)

	access, err := m.Refresh(pair.Refresh)
	require.NoError(t, err)

	claims, err := m.Validate(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "hanako", claims.Username)

	_, err = m.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejects(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.IssuePair(1, "taro")
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", time.Minute, time.Minute)
	require.NoError(t, err)

	_, err = other.Validate(pair.Access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := m.IssuePair(1, "taro")
	require.NoError(t, err)

	m.now = time.Now

	_, err = m.Validate(pair.Access, TokenTypeAccess)
	assert.True(t, errors.Is(err, ErrTokenExpired), "error: %v", err)

	_, err = m.Validate(pair.Refresh, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}
