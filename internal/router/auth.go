// Auth router: OTP send → verify (первый вход создаёт водителя) → /auth/me под JWT.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dlnn-tech/taxi-driver-app/internal/handlers"
	"github.com/dlnn-tech/taxi-driver-app/internal/middleware"
)

// RegisterAuth регистрирует POST /auth/otp/send, POST /auth/otp/verify, GET /auth/me.
func RegisterAuth(g *gin.RouterGroup, deps Dependencies) {
	if deps.Pool == nil {
		return
	}
	g.POST("/otp/send", handlers.SendOTP(deps.Pool, deps.Redis, deps.Security))
	g.POST("/otp/verify", handlers.VerifyOTP(deps.Pool, deps.Drivers, deps.Security))

	me := g.Group("")
	me.Use(middleware.AuthMiddleware(deps.AuthValidator))
	me.GET("/me", handlers.Me(deps.Drivers))
}
