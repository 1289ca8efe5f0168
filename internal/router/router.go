// Роутер: сборка Gin с recovery, security headers, CORS и /api/v1 с полным набором middleware.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dlnn-tech/taxi-driver-app/internal/config"
	"github.com/dlnn-tech/taxi-driver-app/internal/drivers"
	"github.com/dlnn-tech/taxi-driver-app/internal/middleware"
	"github.com/dlnn-tech/taxi-driver-app/internal/orderrouting"
	"github.com/dlnn-tech/taxi-driver-app/internal/permits"
	"github.com/dlnn-tech/taxi-driver-app/internal/store"
)

// Dependencies — зависимости роутера; всё создаётся в main и передаётся явно.
type Dependencies struct {
	AuthValidator middleware.TokenValidator
	RateLimitRPS  int
	Redis         *redis.Client
	Pool          *pgxpool.Pool
	Drivers       *drivers.Repo
	Permits       *permits.Service
	Routing       *orderrouting.Client
	StatusCache   *store.StatusCache
	Security      config.Security
	Uploads       config.Uploads
}

// New создаёт движок Gin: глобально recovery, security headers и CORS;
// /api/v1 с логированием, языком и rate limit; JWT — на маршрутах водителя.
func New(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Accept-Language"},
	}))

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.RequestLoggerMiddleware())
		v1.Use(middleware.LanguageMiddleware())
		if deps.Redis != nil && deps.RateLimitRPS > 0 {
			v1.Use(middleware.RateLimitMiddleware(deps.Redis, deps.RateLimitRPS))
		}

		RegisterSystem(v1)

		authGroup := v1.Group("/auth")
		RegisterAuth(authGroup, deps)

		driversGroup := v1.Group("/drivers")
		RegisterDrivers(driversGroup, deps)

		permitsGroup := v1.Group("/permits")
		RegisterPermits(permitsGroup, deps)
	}

	return r
}
