package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educypnishi/embassydemo/internal/session"
)

// HeaderSessionToken is where portal clients carry their token. The
// token query parameter is accepted as a fallback.
const HeaderSessionToken = "X-Session-Token"

const tokenContextKey = "sessionToken"

// TokenFromRequest extracts the session token without judging it.
func TokenFromRequest(c *gin.Context) string {
	if token := c.GetHeader(HeaderSessionToken); token != "" {
		return token
	}
	return c.Query("token")
}

// SessionToken returns the validated token attached by RequireSession.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}

// RequireSession rejects requests whose token the registry no longer
// honors. Session errors are terminal for the token: the caller must
// log in again, the portal never renews.
func RequireSession(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)

		if !registry.IsValid(c.Request.Context(), token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired",
				"code":  http.StatusUnauthorized,
			})
			return
		}

		c.Set(tokenContextKey, token)
		c.Next()
	}
}
