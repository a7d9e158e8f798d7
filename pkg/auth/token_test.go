package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789abcdef"

func newTestManager(t *testing.T, accessTTL time.Duration) TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, accessTTL, 24*time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestGeneratePairAndValidate(t *testing.T) {
	m := newTestManager(t, time.Hour)

	access, refresh, err := m.GeneratePair("user-1", "alice", "moderator", true)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := m.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "moderator", claims.Role)
	assert.True(t, claims.IsSuperuser)
	assert.Empty(t, claims.TokenType)
}

func TestValidate_RejectsRefreshToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	_, refresh, err := m.GeneratePair("user-1", "alice", "user", false)
	require.NoError(t, err)

	_, err = m.Validate(refresh)
	assert.Error(t, err)
}

func TestValidate_RejectsForeignSignature(t *testing.T) {
	m := newTestManager(t, time.Hour)
	other, err := NewTokenManager("another-secret-key-fedcba98765432", time.Hour, time.Hour)
	require.NoError(t, err)

	access, _, err := other.GeneratePair("user-1", "alice", "user", false)
	require.NoError(t, err)

	_, err = m.Validate(access)
	assert.Error(t, err)

	_, err = m.Validate("not-a-jwt-at-all")
	assert.Error(t, err)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	m := newTestManager(t, -time.Minute) // Токен рождается уже просроченным

	access, _, err := m.GeneratePair("user-1", "alice", "user", false)
	require.NoError(t, err)

	_, err = m.Validate(access)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	m := newTestManager(t, time.Hour)

	access, refresh, err := m.GeneratePair("user-1", "alice", "admin", false)
	require.NoError(t, err)

	newAccess, newRefresh, err := m.Refresh(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	// Claims переносятся в новую пару.
	claims, err := m.Validate(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	// Access токен обновлением не принимается.
	_, _, err = m.Refresh(access)
	assert.Error(t, err)
}
