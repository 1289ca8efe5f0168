package permits

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — допуск не найден.
	ErrNotFound = errors.New("permit not found")
	// ErrInvalidState — операция не применима к текущему статусу допуска.
	ErrInvalidState = errors.New("permit is not in the required state")
	// ErrDuplicatePending — у водителя уже есть ожидающий допуск (уникальный индекс).
	ErrDuplicatePending = errors.New("pending permit already exists for driver")
)

// NotReadyError — подача отклонена: перечисляет незакрытые пункты и слоты.
type NotReadyError struct {
	MissingChecklist []string
	MissingPhotos    []string
}

func (e *NotReadyError) Error() string {
	var parts []string
	if len(e.MissingChecklist) > 0 {
		parts = append(parts, "checklist: "+strings.Join(e.MissingChecklist, ", "))
	}
	if len(e.MissingPhotos) > 0 {
		parts = append(parts, "photos: "+strings.Join(e.MissingPhotos, ", "))
	}
	return "permit is not ready (" + strings.Join(parts, "; ") + ")"
}

// ValidationError — файл не прошёл проверку размера или типа; до хранилища не доходит.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// UpstreamError — сбой внешнего шлюза; локальный переход статуса при этом не откатывается.
type UpstreamError struct {
	Op  string // "enable_orders" | "disable_orders" | "upload" | "delete"
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
