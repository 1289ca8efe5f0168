// Permit handlers: текущий допуск, чек-лист, фото, подача, готовность, история.
package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dlnn-tech/taxi-driver-app/internal/permits"
	"github.com/dlnn-tech/taxi-driver-app/internal/response"
)

// CurrentPermit возвращает активный допуск водителя; если его нет — ожидающий (создаётся лениво).
func CurrentPermit(svc *permits.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		p, err := svc.Current(ctx, driverID)
		if errors.Is(err, permits.ErrNotFound) {
			p, err = svc.GetOrCreatePending(ctx, driverID)
		}
		if err != nil {
			permitError(c, err)
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, p)
	}
}

// UpdateChecklistRequest — частичное обновление чек-листа; неизвестные ключи игнорируются.
type UpdateChecklistRequest struct {
	Checklist map[string]bool `json:"checklist" binding:"required"`
}

// UpdateChecklist применяет флаги к чек-листу ожидающего допуска. POST /permits/checklist.
func UpdateChecklist(svc *permits.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		var req UpdateChecklistRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Checklist) == 0 {
			response.Error(c, http.StatusBadRequest, "checklist is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		p, err := svc.GetOrCreatePending(ctx, driverID)
		if err != nil {
			permitError(c, err)
			return
		}
		merged, err := svc.UpdateChecklist(ctx, p.ID, req.Checklist)
		if err != nil {
			permitError(c, err)
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{
			"permit_id": p.ID,
			"checklist": merged,
		})
	}
}

// UploadPermitPhotos принимает multipart с файлами по именам слотов. POST /permits/photos.
// Результат по каждому переданному слоту; ошибка одного слота не отменяет остальные.
func UploadPermitPhotos(svc *permits.Service, maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		files := make(map[string]permits.FileUpload)
		for _, slot := range permits.PhotoSlots {
			fh, err := c.FormFile(slot)
			if err != nil || fh == nil {
				continue
			}
			f, err := fh.Open()
			if err != nil {
				response.Error(c, http.StatusBadRequest, slot+": cannot read file")
				return
			}
			// +1 байт, чтобы движок увидел превышение лимита и вернул per-slot ошибку.
			data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
			f.Close()
			if err != nil {
				response.Error(c, http.StatusBadRequest, slot+": cannot read file")
				return
			}
			files[slot] = permits.FileUpload{
				OriginalName: fh.Filename,
				MimeType:     fh.Header.Get("Content-Type"),
				Data:         data,
			}
		}
		if len(files) == 0 {
			response.Error(c, http.StatusBadRequest, "no photo files provided; expected fields: waybill_1, waybill_2, car_exterior, car_interior")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		p, err := svc.GetOrCreatePending(ctx, driverID)
		if err != nil {
			permitError(c, err)
			return
		}
		results, err := svc.UploadPhotos(ctx, p.ID, files)
		if err != nil {
			permitError(c, err)
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{
			"permit_id": p.ID,
			"results":   results,
		})
	}
}

// SubmitPermit подаёт ожидающий допуск. POST /permits/submit.
func SubmitPermit(svc *permits.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		p, err := svc.GetOrCreatePending(ctx, driverID)
		if err != nil {
			permitError(c, err)
			return
		}
		res, err := svc.Submit(ctx, p.ID)
		if err != nil {
			permitError(c, err)
			return
		}
		body := gin.H{
			"permit":         res.Permit,
			"routing_synced": res.RoutingSynced,
		}
		if res.RoutingErr != nil {
			body["routing_error"] = res.RoutingErr.Error()
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, body)
	}
}

// PermitReady сообщает готовность допуска к подаче без побочных эффектов. GET /permits/ready.
func PermitReady(svc *permits.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		p, err := svc.GetOrCreatePending(ctx, driverID)
		if err != nil {
			permitError(c, err)
			return
		}
		r, err := svc.Readiness(ctx, p.ID)
		if err != nil {
			permitError(c, err)
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, r)
	}
}

// PermitHistory возвращает допуски водителя от новых к старым. GET /permits/history?limit=.
func PermitHistory(svc *permits.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := driverIDFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		limit := 10
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 {
				limit = n
			}
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		history, err := svc.History(ctx, driverID, limit)
		if err != nil {
			permitError(c, err)
			return
		}
		if history == nil {
			history = []permits.Permit{}
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, history)
	}
}

// permitError переводит ошибки движка в HTTP-ответы единого формата.
func permitError(c *gin.Context, err error) {
	var notReady *permits.NotReadyError
	var validation *permits.ValidationError
	switch {
	case errors.Is(err, permits.ErrNotFound):
		response.Error(c, http.StatusNotFound, "permit not found")
	case errors.Is(err, permits.ErrInvalidState):
		response.Error(c, http.StatusConflict, "operation not allowed in current permit status")
	case errors.As(err, &notReady):
		response.Success(c, http.StatusBadRequest, "permit is not ready", gin.H{
			"missing_checklist": notReady.MissingChecklist,
			"missing_photos":    notReady.MissingPhotos,
		})
	case errors.As(err, &validation):
		response.Error(c, http.StatusBadRequest, validation.Reason)
	default:
		log.Printf("[permits] %v", err)
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
