package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ValidateUUIDParam rejects requests whose path parameter key is present
// but not a well-formed UUID.
func ValidateUUIDParam(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.Param(key); v != "" {
			if _, err := uuid.Parse(v); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid id format"})
				return
			}
		}
		c.Next()
	}
}
