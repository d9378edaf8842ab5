package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toolsdir/api/internal/jobs"
	"go.uber.org/zap"
)

// RequireJobAuth rejects job triggers whose Authorization header fails authz.
func RequireJobAuth(authz *jobs.Authorizer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Check(c.GetHeader("Authorization")); err != nil {
			logger.Warn("job trigger rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized",
			})
			return
		}
		c.Next()
	}
}
