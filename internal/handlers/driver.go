// Driver handlers: профиль и статус заказов на диспетчерской платформе.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dlnn-tech/taxi-driver-app/internal/drivers"
	"github.com/dlnn-tech/taxi-driver-app/internal/orderrouting"
	"github.com/dlnn-tech/taxi-driver-app/internal/response"
	"github.com/dlnn-tech/taxi-driver-app/internal/store"
)

// UpdateProfileRequest — тело PUT /drivers/profile; все поля опциональны.
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	LicenseNumber *string `json:"license_number"`
	CarNumber     *string `json:"car_number"`
	CarModel      *string `json:"car_model"`
}

// UpdateProfile обновляет редактируемые поля профиля водителя. PUT /drivers/profile.
func UpdateProfile(repo *drivers.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == nil && req.LicenseNumber == nil && req.CarNumber == nil && req.CarModel == nil {
			response.Error(c, http.StatusBadRequest, "at least one field is required")
			return
		}
		for _, f := range []*string{req.Name, req.LicenseNumber, req.CarNumber, req.CarModel} {
			if f != nil {
				*f = strings.TrimSpace(*f)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		err := repo.UpdateProfile(ctx, driverID, drivers.UpdateProfile{
			Name:          req.Name,
			LicenseNumber: req.LicenseNumber,
			CarNumber:     req.CarNumber,
			CarModel:      req.CarModel,
		})
		if err != nil {
			if errors.Is(err, drivers.ErrNotFound) {
				response.Error(c, http.StatusNotFound, "driver not found")
				return
			}
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		driver, err := repo.FindByID(ctx, driverID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, driver)
	}
}

// DriverStatusResponse — профиль плюс актуальный флаг заказов на платформе.
type DriverStatusResponse struct {
	Driver        *drivers.Driver `json:"driver"`
	OrdersEnabled bool            `json:"orders_enabled"`
	FromCache     bool            `json:"from_cache"`
}

// GetDriverStatus возвращает статус заказов: сперва кэш, при промахе — платформа.
// Расхождение с локальным зеркалом исправляется в сторону ответа платформы.
func GetDriverStatus(repo *drivers.Repo, routing *orderrouting.Client, cache *store.StatusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		driver, err := repo.FindByID(ctx, driverID)
		if err != nil {
			if errors.Is(err, drivers.ErrNotFound) {
				response.Error(c, http.StatusNotFound, "driver not found")
				return
			}
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}

		if cache != nil {
			if enabled, err := cache.Get(ctx, driverID); err == nil {
				response.Success(c, http.StatusOK, response.MsgSuccess, DriverStatusResponse{
					Driver:        driver,
					OrdersEnabled: enabled,
					FromCache:     true,
				})
				return
			}
		}

		st, err := routing.GetStatus(ctx, driver.Phone)
		if err != nil {
			// Платформа недоступна — отдаём локальное зеркало.
			log.Printf("[driver] routing status: %v", err)
			response.Success(c, http.StatusOK, response.MsgSuccess, DriverStatusResponse{
				Driver:        driver,
				OrdersEnabled: driver.OrdersEnabled,
			})
			return
		}
		if cache != nil {
			_ = cache.Set(ctx, driverID, st.OrdersEnabled)
		}
		if st.OrdersEnabled != driver.OrdersEnabled {
			if err := repo.SetOrdersEnabled(ctx, driverID, st.OrdersEnabled, time.Now()); err == nil {
				driver.OrdersEnabled = st.OrdersEnabled
			}
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, DriverStatusResponse{
			Driver:        driver,
			OrdersEnabled: st.OrdersEnabled,
		})
	}
}
