package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yard-service/internal/auth"
	"yard-service/internal/http/response"
	"yard-service/internal/model"
	"yard-service/internal/service"
)

const (
	claimsContextKey    = "tokenClaims"
	principalContextKey = "principal"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type UserResolver interface {
	Resolve(ctx context.Context, email string) (*model.User, error)
}

// Auth verifies the bearer token. A nil revocation checker disables the revocation lookup;
// a failing lookup is logged and the token is accepted.
func Auth(parser TokenParser, revocations RevocationChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawHeader := c.GetHeader(authorizationHeader)
		if rawHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		parts := strings.SplitN(rawHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			response.Error(c, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := parser.Parse(parts[1])
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "Token expired"
			}
			response.Error(c, http.StatusUnauthorized, message)
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Warn().Err(err).Msg("token revocation lookup failed")
			}
			if revoked {
				response.Error(c, http.StatusUnauthorized, "Token revoked")
				return
			}
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// User resolves the token's email to an active user and stores the principal.
func User(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, service.ErrPermissionDenied) {
				response.Error(c, http.StatusForbidden, "Access denied")
				return
			}
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(principalContextKey, model.NewPrincipal(user))
		c.Next()
	}
}

// RequireOperation rejects principals whose role is outside the operation's role set.
func RequireOperation(op service.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := service.Authorize(principal, op); err != nil {
			response.Error(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}

func Claims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}

	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return model.Principal{}, false
	}

	principal, ok := value.(model.Principal)
	if !ok {
		return model.Principal{}, false
	}

	return principal, true
}
