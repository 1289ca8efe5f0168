// Drivers router: профиль и статус заказов; все маршруты под Authorization: Bearer (JWT).
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dlnn-tech/taxi-driver-app/internal/handlers"
	"github.com/dlnn-tech/taxi-driver-app/internal/middleware"
)

// RegisterDrivers регистрирует PUT /drivers/profile и GET /drivers/status.
func RegisterDrivers(g *gin.RouterGroup, deps Dependencies) {
	if deps.Drivers == nil || deps.AuthValidator == nil {
		return
	}
	g.Use(middleware.AuthMiddleware(deps.AuthValidator))
	g.PUT("/profile", handlers.UpdateProfile(deps.Drivers))
	g.GET("/status", handlers.GetDriverStatus(deps.Drivers, deps.Routing, deps.StatusCache))
}
