package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure kinds. MapTokenError translates these into the HTTP
// error taxonomy at the transport boundary.
var (
	ErrTokenMalformed = errors.New("token malformed or signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims describes the identity payload embedded in every issued token.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Use   string   `json:"use,omitempty"`
	jwt.RegisteredClaims
}

// JTI returns the unique token id used as the revocation key.
func (c *Claims) JTI() string {
	return c.ID
}

// TokenManager issues and verifies signed identity tokens, rejecting revoked
// token ids via the registry.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revocation *RevocationRegistry
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, revocation *RevocationRegistry) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revocation: revocation,
	}
}

// Issue signs an access token for the subject. Every call mints a fresh jti.
func (tm *TokenManager) Issue(subjectID, email string, roles []string, name string) (string, *Claims, error) {
	return tm.sign(subjectID, email, roles, name, tokenUseAccess, tm.accessTTL)
}

// IssueRefresh signs a refresh token. It carries no roles: it can only be
// exchanged for a new access token, never used against a protected route.
func (tm *TokenManager) IssueRefresh(subjectID string) (string, *Claims, error) {
	return tm.sign(subjectID, "", nil, "", tokenUseRefresh, tm.refreshTTL)
}

func (tm *TokenManager) sign(subjectID, email string, roles []string, name, use string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Name:  name,
		Roles: roles,
		Use:   use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify validates signature and expiry, then rejects revoked token ids.
// Failure is always one of ErrTokenMalformed, ErrTokenExpired, ErrTokenRevoked.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Use == tokenUseRefresh {
		return nil, ErrTokenMalformed
	}
	if tm.revocation != nil && tm.revocation.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token, applying the same revocation check
// so a revoked refresh token cannot mint new access tokens.
func (tm *TokenManager) VerifyRefresh(tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Use != tokenUseRefresh {
		return nil, ErrTokenMalformed
	}
	if tm.revocation != nil && tm.revocation.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
