package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller attached to the request after the
// bearer token has been verified.
type Principal struct {
	SubjectID string
	Email     string
	Name      string
	Roles     []string
	TokenID   string
	ExpiresAt int64
}

// AuthMiddleware validates bearer tokens and attaches the principal.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. A route without the
// middleware is public; a route with it always verifies the token, even when
// no permission is required downstream.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return apperrors.NewNoToken()
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return MapTokenError(err)
	}

	principal := &Principal{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Roles:     claims.Roles,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Unix()
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// RequirePermission authorizes the already-authenticated principal against
// the listed permissions. All of them must be granted.
func RequirePermission(required ...Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNoToken()
		}
		granted := PermissionsForRoles(principal.Roles)
		if !HasAll(granted, required...) {
			return apperrors.NewInsufficientPermission()
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// MapTokenError converts token verification failures to the HTTP taxonomy.
func MapTokenError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewExpiredToken()
	case errors.Is(err, ErrTokenRevoked):
		return apperrors.NewRevokedToken()
	default:
		return apperrors.NewMalformedToken()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
