// Permits router: жизненный цикл допуска; все маршруты под Authorization: Bearer (JWT).
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dlnn-tech/taxi-driver-app/internal/handlers"
	"github.com/dlnn-tech/taxi-driver-app/internal/middleware"
)

// RegisterPermits регистрирует маршруты допуска: current, checklist, photos, submit, ready, history.
func RegisterPermits(g *gin.RouterGroup, deps Dependencies) {
	if deps.Permits == nil || deps.AuthValidator == nil {
		return
	}
	g.Use(middleware.AuthMiddleware(deps.AuthValidator))
	g.GET("/current", handlers.CurrentPermit(deps.Permits))
	g.POST("/checklist", handlers.UpdateChecklist(deps.Permits))
	g.POST("/photos", handlers.UploadPermitPhotos(deps.Permits, deps.Uploads.MaxPhotoBytes))
	g.POST("/submit", handlers.SubmitPermit(deps.Permits))
	g.GET("/ready", handlers.PermitReady(deps.Permits))
	g.GET("/history", handlers.PermitHistory(deps.Permits))
}
