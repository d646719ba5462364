package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*TokenManager, *RevocationRegistry) {
	t.Helper()
	revocation := NewRevocationRegistry(2 * time.Hour)
	return NewTokenManager("test-secret", time.Hour, 24*time.Hour, revocation), revocation
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	token, issued, err := tm.Issue("u1", "u1@example.com", []string{"manager"}, "Uma")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)
	assert.True(t, issued.ExpiresAt.After(issued.IssuedAt.Time), "expiry must exceed issued-at")

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "Uma", claims.Name)
	assert.Equal(t, []string{"manager"}, claims.Roles)
	assert.Equal(t, issued.ID, claims.JTI())
}

func TestIssueMintsUniqueJTI(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	_, first, err := tm.Issue("u1", "", nil, "")
	require.NoError(t, err)
	_, second, err := tm.Issue("u1", "", nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)

	_, err := tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	// Signed under a different secret: structurally fine, signature invalid.
	other := NewTokenManager("other-secret", time.Hour, time.Hour, nil)
	token, _, err := other.Issue("u1", "", nil, "")
	require.NoError(t, err)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	token, _, err := tm.sign("u1", "", nil, "", tokenUseAccess, -time.Minute)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRevoked(t *testing.T) {
	t.Parallel()

	tm, revocation := newTestManager(t)
	token, claims, err := tm.Issue("u1", "", []string{"user"}, "")
	require.NoError(t, err)

	revocation.Revoke(claims.ID, claims.ExpiresAt.Unix())

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	refresh, _, err := tm.IssueRefresh("u1")
	require.NoError(t, err)

	_, err = tm.Verify(refresh)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	claims, err := tm.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	tm, _ := newTestManager(t)
	access, _, err := tm.Issue("u1", "", nil, "")
	require.NoError(t, err)

	_, err = tm.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestRevokedRefreshCannotMintAccess(t *testing.T) {
	t.Parallel()

	tm, revocation := newTestManager(t)
	refresh, claims, err := tm.IssueRefresh("u1")
	require.NoError(t, err)

	revocation.Revoke(claims.ID, claims.ExpiresAt.Unix())

	_, err = tm.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
