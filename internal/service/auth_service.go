package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/config"
	"github.com/spec-kit/edge-gateway/internal/domain"
	"github.com/spec-kit/edge-gateway/internal/events"
	"github.com/spec-kit/edge-gateway/internal/repository"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// AuthResult bundles the outcome of register/login/refresh flows.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// AuthService coordinates registration, login, refresh and logout flows
// against the user directory and token manager.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	revocation *auth.RevocationRegistry
	bus        *events.Bus
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Revocation *auth.RevocationRegistry
	Bus        *events.Bus
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		revocation: deps.Revocation,
		bus:        deps.Bus,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new directory user. The first registered user becomes
// admin; everyone after that starts as a plain user.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := string(auth.RoleUser)
	if count == 0 {
		role = string(auth.RoleAdmin)
	}

	user := &domain.User{
		Email:         email,
		Name:          name,
		PasswordHash:  hash,
		Roles:         []string{role},
		Status:        domain.UserStatusActive,
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateEmail(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}

	s.bus.Publish(events.EventUserRegistered, events.UserPayload{UserID: user.ID, Email: user.Email})

	return s.issueFor(user)
}

// Login authenticates a directory user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, badCredentials()
		}
		return nil, err
	}

	if user.Status == domain.UserStatusBlocked {
		return nil, apperrors.NewDomainError("USER_BLOCKED", "user is blocked", http.StatusForbidden, nil)
	}
	if !user.EmailVerified || user.Status == domain.UserStatusPendingVerification {
		return nil, apperrors.NewDomainError("EMAIL_NOT_VERIFIED", "email not verified", http.StatusForbidden, nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, badCredentials()
	}

	s.bus.Publish(events.EventUserLoggedIn, events.UserPayload{UserID: user.ID, Email: user.Email})

	return s.issueFor(user)
}

// Refresh exchanges a valid refresh token for a fresh access token carrying
// the user's current roles.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, auth.MapTokenError(err)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewMalformedToken()
		}
		return nil, err
	}
	if user.Status == domain.UserStatusBlocked {
		return nil, apperrors.NewDomainError("USER_BLOCKED", "user is blocked", http.StatusForbidden, nil)
	}

	access, accessClaims, err := s.tokens.Issue(user.ID, user.Email, user.Roles, user.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        user,
		AccessToken: access,
		ExpiresAt:   accessClaims.ExpiresAt.Unix(),
	}, nil
}

// Logout revokes the presented access token until its natural expiry.
func (s *AuthService) Logout(_ context.Context, principal *auth.Principal) {
	s.revocation.Revoke(principal.TokenID, principal.ExpiresAt)
	s.bus.Publish(events.EventTokenRevoked, events.TokenRevokedPayload{
		TokenID:   principal.TokenID,
		SubjectID: principal.SubjectID,
	})
	s.bus.Publish(events.EventUserLoggedOut, events.UserPayload{UserID: principal.SubjectID, Email: principal.Email})
}

// Me returns the directory record of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueFor(user *domain.User) (*AuthResult, error) {
	access, accessClaims, err := s.tokens.Issue(user.ID, user.Email, user.Roles, user.Name)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessClaims.ExpiresAt.Unix(),
	}, nil
}

func badCredentials() error {
	return apperrors.NewDomainError("BAD_CREDENTIALS", "invalid credentials", http.StatusUnauthorized, nil)
}
