package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/auth"
	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/response"
)

// gin context keys set by JWTAuth
const (
	ContextUserID   = "user_id"
	ContextEmail    = "email"
	ContextRole     = "role"
	ContextTenantID = "tenant_id"
)

// JWTAuth verifies the bearer token and copies the identity into the gin and request contexts.
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextTenantID, claims.TenantID)

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		if claims.TenantID != "" {
			ctx = logger.WithTenantID(ctx, claims.TenantID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if role != "" && role == r {
				c.Next()
				return
			}
		}

		response.ErrorWithCode(c, apperrors.ErrForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserID)
	return userID, userID != ""
}
