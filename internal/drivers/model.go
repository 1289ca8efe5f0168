package drivers

import (
	"time"

	"github.com/google/uuid"
)

// Mirrors DB columns from the single table `drivers`.
type Driver struct {
	ID uuid.UUID `json:"id"`

	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          *string `json:"name"`
	LicenseNumber *string `json:"license_number"`
	CarNumber     *string `json:"car_number"`
	CarModel      *string `json:"car_model"`

	IsActive bool `json:"is_active"`

	// Зеркало состояния на диспетчерской платформе (источник истины — платформа).
	OrdersEnabled   bool       `json:"orders_enabled"`
	LastStatusCheck *time.Time `json:"last_status_check"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
