package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go_subdns/internal/apperr"
	"go_subdns/internal/auth"
	"go_subdns/internal/httpx"
	"go_subdns/internal/model"
)

// Context keys set by AuthRequired
const (
	KeyUID   = "uid"
	KeyEmail = "email"
	KeyRole  = "role"
)

// UserLoader reloads the token subject so disabled accounts lose access immediately
type UserLoader interface {
	Get(ctx context.Context, id int) (*model.User, error)
}

// AuthRequired is a middleware that validates JWT token
func AuthRequired(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			} else {
				httpx.Error(c, err)
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			httpx.FailErr(c, httpx.ErrForbidden("Account is disabled"))
			c.Abort()
			return
		}

		// 角色以数据库为准，令牌中的角色可能已过期
		c.Set(KeyUID, user.ID)
		c.Set(KeyEmail, user.Email)
		c.Set(KeyRole, user.Role)

		c.Next()
	}
}

// AdminRequired rejects non-admin users; it must run after AuthRequired
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) != model.RoleAdmin {
			httpx.FailErr(c, httpx.ErrForbidden("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0
func CurrentUserID(c *gin.Context) int {
	return c.GetInt(KeyUID)
}
