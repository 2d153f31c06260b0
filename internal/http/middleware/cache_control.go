package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// CacheControl sets a fixed max-age on every response.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := "max-age=" + strconv.Itoa(maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
