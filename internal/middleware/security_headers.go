// Middleware: OWASP-рекомендованные заголовки безопасности в каждый ответ.
package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware добавляет заголовки безопасности (X-Content-Type-Options, X-Frame-Options и т.д.) в каждый ответ.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		c.Next()
	}
}
