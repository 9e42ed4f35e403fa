package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsAllowHeaders = strings.Join([]string{
	"Content-Type", "Authorization", UserEmailHeader, TraceIDHeader,
}, ", ")

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+TraceIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
