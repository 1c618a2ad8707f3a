package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Validation failures are answered before the fault pipeline runs: a
// malformed request gets its 400 immediately, never delayed and never
// swapped for a simulated 429/503.

// RequireMonth rejects requests without a parseable month (YYYY-MM)
// query parameter.
func RequireMonth() gin.HandlerFunc {
	return func(c *gin.Context) {
		month := c.Query("month")
		if _, err := time.Parse("2006-01", month); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "month query param (YYYY-MM) required",
			})
			return
		}
		c.Next()
	}
}

// RequireDate rejects requests without a parseable date (YYYY-MM-DD)
// query parameter.
func RequireDate() gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "date query param (YYYY-MM-DD) required",
			})
			return
		}
		c.Next()
	}
}
