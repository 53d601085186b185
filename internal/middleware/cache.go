package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks API responses as uncacheable so clients and proxies always
// see the latest seat counts.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
