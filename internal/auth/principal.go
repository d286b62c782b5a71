package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/model"
)

// contextKey is where the JWT middleware stores validated claims.
const contextKey = "user"

// ErrNoPrincipal is returned when a handler expects an authenticated request but none is present.
var ErrNoPrincipal = apperrors.Unauthorized("Unauthorized")

// Principal is the authenticated user making a request, derived from a verified token.
type Principal struct {
	ID       uuid.UUID
	Email    string
	Username string
	Role     model.Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// CanAccessUser reports whether the principal may read or modify the given user record.
func (p *Principal) CanAccessUser(userID uuid.UUID) bool {
	return p.ID == userID || p.IsAdmin()
}

// PrincipalFromClaims converts validated claims into a Principal.
func PrincipalFromClaims(claims *Claims) (*Principal, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrNoPrincipal
	}
	return &Principal{
		ID:       id,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     model.Role(claims.Role),
	}, nil
}

// PrincipalFrom extracts the principal placed on the context by Middleware.
func PrincipalFrom(c echo.Context) (*Principal, error) {
	claims, ok := c.Get(contextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoPrincipal
	}
	return PrincipalFromClaims(claims)
}

// Middleware validates the bearer token in the Authorization header and stores its claims on the context.
// Missing, malformed or expired tokens yield 401.
func Middleware(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  contextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			message := "Unauthorized"
			if errors.Is(err, echojwt.ErrJWTMissing) {
				message = "missing bearer token"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Message: message,
				Code:    "UNAUTHORIZED",
			})
		},
	})
}

// RequireRole rejects principals that do not hold the given role with 403.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := PrincipalFrom(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Message: err.Error(),
					Code:    "UNAUTHORIZED",
				})
			}
			if principal.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Message: "Forbidden resource",
					Code:    "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}
