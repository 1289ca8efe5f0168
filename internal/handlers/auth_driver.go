// Auth: OTP send → verify (первый вход создаёт водителя) → токены.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dlnn-tech/taxi-driver-app/internal/auth"
	"github.com/dlnn-tech/taxi-driver-app/internal/config"
	"github.com/dlnn-tech/taxi-driver-app/internal/drivers"
	"github.com/dlnn-tech/taxi-driver-app/internal/middleware"
	"github.com/dlnn-tech/taxi-driver-app/internal/response"
)

// --- POST /auth/otp/send ---

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func SendOTP(pool *pgxpool.Pool, rdb *redis.Client, cfg config.Security) gin.HandlerFunc {
	ttlSec := cfg.OTPTTLSec
	if ttlSec < 180 {
		ttlSec = 180
	}
	if ttlSec > 300 {
		ttlSec = 300
	}
	rateLimit := cfg.OTPRateLimitPerPhone
	if rateLimit <= 0 {
		rateLimit = 3
	}
	const rateWindow = 15 * time.Minute
	return func(c *gin.Context) {
		var req SendOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "phone is required")
			return
		}
		phone := auth.NormalizePhone(req.Phone)
		if phone == "" {
			response.Error(c, http.StatusBadRequest, "invalid phone")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		if rdb != nil {
			key := "otp_send:" + phone
			n, err := rdb.Incr(ctx, key).Result()
			if err == nil {
				if n == 1 {
					rdb.Expire(ctx, key, rateWindow)
				}
				if n > int64(rateLimit) {
					response.Error(c, http.StatusTooManyRequests, "too many OTP requests for this phone")
					return
				}
			}
		}

		code, err := auth.CreateOTP(ctx, pool, phone, ttlSec)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		if cfg.TelegramGatewayToken != "" {
			_ = auth.SendOTPViaGateway(cfg.TelegramGatewayToken, phone, code, ttlSec)
		}

		response.Success(c, http.StatusOK, "OTP sent", gin.H{"message": "If the number is registered in Telegram, you will receive a code."})
	}
}

// --- POST /auth/otp/verify ---

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTPResponse — токены и водитель; is_new=true, если водитель создан этим входом.
type VerifyOTPResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	IsNew        bool            `json:"is_new"`
	Driver       *drivers.Driver `json:"driver"`
}

// VerifyOTP проверяет код; первый успешный вход по номеру заводит водителя (original-flow).
func VerifyOTP(pool *pgxpool.Pool, repo *drivers.Repo, cfg config.Security) gin.HandlerFunc {
	maxAttempts := cfg.OTPAttemptsMax
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return func(c *gin.Context) {
		var req VerifyOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "phone and code are required")
			return
		}
		phone := auth.NormalizePhone(req.Phone)
		if phone == "" {
			response.Error(c, http.StatusBadRequest, "invalid phone")
			return
		}
		code := strings.TrimSpace(req.Code)
		if code == "" {
			response.Error(c, http.StatusBadRequest, "code is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		ok, err := auth.ValidateAndConsumeOTP(ctx, pool, phone, code, maxAttempts)
		if err != nil {
			log.Printf("[auth] verify OTP: %v", err)
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			response.Error(c, http.StatusBadRequest, "invalid or expired code")
			return
		}

		isNew := false
		driver, err := repo.FindByPhone(ctx, phone)
		if errors.Is(err, drivers.ErrNotFound) {
			driver, err = repo.CreateFromPhone(ctx, phone)
			if errors.Is(err, drivers.ErrPhoneAlreadyRegistered) {
				// Гонка двух verify по одному номеру: перечитать строку победителя.
				driver, err = repo.FindByPhone(ctx, phone)
			} else {
				isNew = true
			}
		}
		if err != nil {
			log.Printf("[auth] verify OTP driver lookup: %v", err)
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		if !driver.IsActive {
			response.Error(c, http.StatusForbidden, "account blocked")
			return
		}
		if !isNew {
			_ = repo.TouchLogin(ctx, driver.ID)
		}

		tp, err := auth.CreateTokenPair(ctx, pool, driver.ID.String(), cfg.JWTSecret)
		if err != nil {
			log.Printf("[auth] verify OTP CreateTokenPair: %v", err)
			response.Error(c, http.StatusInternalServerError, "internal error")
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, VerifyOTPResponse{
			AccessToken:  tp.AccessToken,
			RefreshToken: tp.RefreshToken,
			ExpiresIn:    tp.ExpiresIn,
			IsNew:        isNew,
			Driver:       driver,
		})
	}
}

// --- GET /auth/me ---

func Me(repo *drivers.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
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
		response.Success(c, http.StatusOK, response.MsgSuccess, driver)
	}
}

// driverIDFrom достаёт UUID водителя из контекста (после AuthMiddleware).
func driverIDFrom(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.UserIDFrom(c.Request.Context()))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
