package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerMiddleware 请求日志中间件
// 只记录会改变状态的请求，健康检查和静态资源不进日志
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		if method == "GET" ||
			strings.HasPrefix(path, "/health") ||
			strings.HasPrefix(path, "/static") ||
			strings.Contains(path, "/favicon.ico") {
			return
		}

		logger.Info("Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
