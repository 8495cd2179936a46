package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medicode/medicode-api/internal/handler"
	"github.com/medicode/medicode-api/internal/model"
)

const actorContextKey = "actor"

// TokenValidator resolves a bearer token into the acting user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.Actor, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Identify resolves the acting user when a valid bearer token is
// present, and otherwise lets the request through anonymously: the
// submission flow treats the missing actor as system-originated.
// An invalid token is still rejected rather than downgraded.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		actor, err := m.validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// RequireAuth rejects requests without an identified acting user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFromContext(c) == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the acting user, or nil for anonymous
// (system-originated) requests.
func ActorFromContext(c *gin.Context) *model.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}
