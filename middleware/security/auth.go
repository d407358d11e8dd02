package security

import (
	"net/http"
	"strings"

	"LinkIM/tools/errs"
	"LinkIM/tools/security"

	"github.com/gin-gonic/gin"
)

// Context keys set for downstream handlers.
const (
	CtxUserIDKey  = "userId"
	CtxIsAdminKey = "isAdmin"
)

type Options struct {
	JWT          security.Options
	RequireAdmin bool
}

// Middleware reads `Authorization: Bearer <token>`, verifies it, and puts
// the subject user id into the request context.
func Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenMissing)
			return
		}

		claims, err := security.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}
		if opts.RequireAdmin && !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, errs.ErrNotAuthorized)
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxIsAdminKey, claims.IsAdmin)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return authz
}

// UserID fetches the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
