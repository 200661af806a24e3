package middleware

import (
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/util"
	"learnquest_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验账号服务签发的 JWT。
// jwt.enabled 为 false 时直接放行，由网关负责鉴权。
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.JWT.Enabled {
			c.Next()
			return
		}
		c.Set(util.AuthEnabledKey, true)

		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed",
				zap.String("request_id", c.GetString(util.RequestIDKey)),
				zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ClaimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware 仅管理员可访问，未启用鉴权时放行
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, enabled := c.Get(util.AuthEnabledKey); !enabled {
			c.Next()
			return
		}
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if user.Role != util.RoleAdmin {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
