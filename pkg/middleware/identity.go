package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"milelog/pkg/utils"
)

const (
	UserEmailHeader = "X-User-Email"
	UserEmailKey    = "user_email"
	UserIDKey       = "user_id"
)

// IdentityMiddleware resolves the caller's email from the X-User-Email header
// set by the upstream session layer, falling back to a Bearer token issued by
// /auth/login. Requests without either pass through anonymously.
func IdentityMiddleware(secret []byte, clock utils.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email := strings.TrimSpace(c.GetHeader(UserEmailHeader)); email != "" {
			c.Set(UserEmailKey, strings.ToLower(email))
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := utils.ValidateToken(secret, tokenString, clock.Now())
			if err != nil {
				log.WithField("trace_id", c.GetString(TraceIDKey)).WithError(err).Debug("Rejected bearer token")
			} else {
				c.Set(UserEmailKey, strings.ToLower(claims.Email))
				c.Set(UserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 when IdentityMiddleware found no caller.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserEmail(c) == "" {
			utils.HandleServiceError(c, utils.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

func UserEmail(c *gin.Context) string {
	return c.GetString(UserEmailKey)
}
