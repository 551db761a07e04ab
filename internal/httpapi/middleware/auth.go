package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comicstudio/backend/internal/auth"
	"github.com/comicstudio/backend/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired validates the Bearer token and stores the resolved user id in
// the gin context. Everything below the handler layer receives the id as an
// explicit argument, never via ambient state.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
			c.Abort()
			return
		}
		uid, err := auth.ParseJWT(strings.TrimPrefix(h, "Bearer "), secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}
