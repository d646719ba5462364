package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/config"
	"github.com/spec-kit/edge-gateway/internal/domain"
	"github.com/spec-kit/edge-gateway/internal/events"
	"github.com/spec-kit/edge-gateway/internal/repository"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

type authFixture struct {
	svc        *AuthService
	users      repository.UserRepository
	tokens     *auth.TokenManager
	revocation *auth.RevocationRegistry
	bus        *events.Bus
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := repository.NewMemoryRepository()
	revocation := auth.NewRevocationRegistry(2 * time.Hour)
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour, revocation)
	bus := events.NewBus(50, 64)
	t.Cleanup(bus.Close)

	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Revocation: revocation,
		Bus:        bus,
	})
	return &authFixture{svc: svc, users: users, tokens: tokens, revocation: revocation, bus: bus}
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, "root@example.com", "secret", "Root")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, first.User.Roles)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)

	second, err := f.svc.Register(ctx, "user@example.com", "secret", "User")
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, second.User.Roles)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestLoginSuccessRoundTrip(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "a@example.com", "secret")
	require.NoError(t, err)

	claims, err := f.tokens.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, result.User.Roles, claims.Roles)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("secret", 4)
	require.NoError(t, err)

	seed := []*domain.User{
		{Email: "blocked@example.com", PasswordHash: hash, Status: domain.UserStatusBlocked, EmailVerified: true},
		{Email: "pending@example.com", PasswordHash: hash, Status: domain.UserStatusPendingVerification},
		{Email: "ok@example.com", PasswordHash: hash, Status: domain.UserStatusActive, EmailVerified: true},
	}
	for _, u := range seed {
		require.NoError(t, f.users.Create(ctx, u))
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"unknown email", "ghost@example.com", "secret", "BAD_CREDENTIALS"},
		{"blocked user", "blocked@example.com", "secret", "USER_BLOCKED"},
		{"unverified email", "pending@example.com", "secret", "EMAIL_NOT_VERIFIED"},
		{"wrong password", "ok@example.com", "nope", "BAD_CREDENTIALS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.ToDomainError(err).Code)
		})
	}
}

func TestRefreshIssuesAccessWithCurrentRoles(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	// Role changes after issuance must show up in refreshed tokens.
	user, err := f.users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	user.Roles = append(user.Roles, "manager")
	require.NoError(t, f.users.Update(ctx, user))

	refreshed, err := f.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)

	claims, err := f.tokens.Verify(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Contains(t, claims.Roles, "manager")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, reg.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "MALFORMED_TOKEN", apperrors.ToDomainError(err).Code)
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	claims, err := f.tokens.Verify(reg.AccessToken)
	require.NoError(t, err)

	f.svc.Logout(ctx, &auth.Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	})

	_, err = f.tokens.Verify(reg.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestAssignRoleValidatesClosedSet(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	userSvc := NewUserService(f.users, f.bus)

	reg, err := f.svc.Register(ctx, "a@example.com", "secret", "A")
	require.NoError(t, err)

	updated, err := userSvc.AssignRole(ctx, reg.User.ID, "manager")
	require.NoError(t, err)
	assert.Contains(t, updated.Roles, "manager")

	// Assigning again is idempotent.
	again, err := userSvc.AssignRole(ctx, reg.User.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, updated.Roles, again.Roles)

	_, err = userSvc.AssignRole(ctx, reg.User.ID, "bogus-role")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}
