package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Now()
	r := NewRevocationRegistry(2 * time.Hour)
	r.now = func() time.Time { return now }

	assert.False(t, r.IsRevoked("jti-1"), "absent entry means not revoked")

	r.Revoke("jti-1", now.Add(time.Hour).Unix())
	assert.True(t, r.IsRevoked("jti-1"))

	// Advance past expiry: the entry self-heals on read and is gone after.
	now = now.Add(time.Hour + time.Second)
	assert.False(t, r.IsRevoked("jti-1"))
	assert.Equal(t, 0, r.Len())
}

func TestRevokeDefaultsToBoundedWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	r := NewRevocationRegistry(2 * time.Hour)
	r.now = func() time.Time { return now }

	r.Revoke("jti-2", 0)
	assert.True(t, r.IsRevoked("jti-2"))

	now = now.Add(2*time.Hour + time.Second)
	assert.False(t, r.IsRevoked("jti-2"), "entry must not outlive the safety window")
}

func TestExpiryBoundaryIsExclusive(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	r := NewRevocationRegistry(0)
	r.now = func() time.Time { return now }

	// revoked iff exp > now: an entry expiring exactly now is not revoked.
	r.Revoke("jti-3", now.Unix())
	assert.False(t, r.IsRevoked("jti-3"))
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	t.Parallel()

	now := time.Now()
	r := NewRevocationRegistry(0)
	r.now = func() time.Time { return now }

	r.Revoke("expired", now.Add(-time.Minute).Unix())
	r.Revoke("live", now.Add(time.Minute).Unix())
	require.Equal(t, 2, r.Len())

	r.Sweep()
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.IsRevoked("live"))
}

func TestRevokeIgnoresEmptyJTI(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry(0)
	r.Revoke("", 0)
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.IsRevoked(""))
}
