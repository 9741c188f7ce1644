package middleware

import (
	"errors"
	"fmt"
	"strings"

	userRepo "anoa.com/yamdb/internal/modules/user/repository"
	"anoa.com/yamdb/pkg/apperror"
	"anoa.com/yamdb/pkg/response"
	"anoa.com/yamdb/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	tokens   *token.Manager
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Authenticate resolves the bearer token, if any, into the request user.
// Requests without a token pass through as anonymous; a bad token is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			m.reject(c, "malformed authorization header")
			return
		}

		userID, err := m.tokens.Parse(parts[1])
		if err != nil {
			m.reject(c, "invalid or expired token")
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			response.ResponseError(c, fmt.Errorf("load token user: %w", err))
			c.Abort()
			return
		}
		if err != nil || !user.IsActive {
			m.reject(c, "user not found or inactive")
			return
		}

		c.Set(response.UserKey, user)
		ctx := log.Ctx(c.Request.Context()).With().Uint("user_id", user.ID).Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if response.GetUser(c) == nil {
			response.ResponseError(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	log.Ctx(c.Request.Context()).Debug().Str("reason", reason).Msg("authentication rejected")
	response.ResponseError(c, fmt.Errorf("%w: %s", apperror.ErrUnauthorized, reason))
	c.Abort()
}
