package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminKey carries the shared key for the administrative surface.
const HeaderAdminKey = "X-Admin-Key"

// RequireAdminKey guards the admin routes with a bcrypt-hashed shared
// key. An empty hash leaves the surface open, which is the usual lab
// configuration. Admin requests are never fault-injected: operators
// editing the table should not fight the simulation.
func RequireAdminKey(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderAdminKey)
		if key == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin key required",
			})
			return
		}

		c.Next()
	}
}
