package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("driver not found")
var ErrPhoneAlreadyRegistered = errors.New("phone already registered")

const driverColumns = `
  id, phone, created_at, updated_at,
  name, license_number, car_number, car_model,
  is_active, orders_enabled, last_status_check, last_login_at`

type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID, &d.Phone, &d.CreatedAt, &d.UpdatedAt,
		&d.Name, &d.LicenseNumber, &d.CarNumber, &d.CarModel,
		&d.IsActive, &d.OrdersEnabled, &d.LastStatusCheck, &d.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) FindByPhone(ctx context.Context, phone string) (*Driver, error) {
	const q = `SELECT` + driverColumns + `
FROM drivers
WHERE phone = $1
LIMIT 1`
	return scanDriver(r.pg.QueryRow(ctx, q, phone))
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Driver, error) {
	const q = `SELECT` + driverColumns + `
FROM drivers
WHERE id = $1
LIMIT 1`
	return scanDriver(r.pg.QueryRow(ctx, q, id))
}

// CreateFromPhone заводит водителя при первом успешном входе по OTP.
func (r *Repo) CreateFromPhone(ctx context.Context, phone string) (*Driver, error) {
	const q = `
INSERT INTO drivers (phone, is_active, orders_enabled, created_at, updated_at, last_login_at)
VALUES ($1, true, false, now(), now(), now())
RETURNING` + driverColumns
	d, err := scanDriver(r.pg.QueryRow(ctx, q, phone))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrPhoneAlreadyRegistered
		}
		return nil, err
	}
	return d, nil
}

func (r *Repo) TouchLogin(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE drivers SET last_login_at = now(), updated_at = now() WHERE id = $1`
	_, err := r.pg.Exec(ctx, q, id)
	return err
}

type UpdateProfile struct {
	Name          *string
	LicenseNumber *string
	CarNumber     *string
	CarModel      *string
}

func (r *Repo) UpdateProfile(ctx context.Context, id uuid.UUID, u UpdateProfile) error {
	const q = `
UPDATE drivers
SET name = COALESCE($2, name),
    license_number = COALESCE($3, license_number),
    car_number = COALESCE($4, car_number),
    car_model = COALESCE($5, car_model),
    updated_at = now()
WHERE id = $1`
	tag, err := r.pg.Exec(ctx, q, id, u.Name, u.LicenseNumber, u.CarNumber, u.CarModel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrdersEnabled обновляет локальное зеркало флага заказов; реализует permits.Drivers.
func (r *Repo) SetOrdersEnabled(ctx context.Context, id uuid.UUID, enabled bool, checkedAt time.Time) error {
	const q = `
UPDATE drivers
SET orders_enabled = $2,
    last_status_check = $3,
    updated_at = now()
WHERE id = $1`
	_, err := r.pg.Exec(ctx, q, id, enabled, checkedAt)
	return err
}

// ListStaleEnabled возвращает водителей, у которых зеркало заказов включено,
// хотя активного непросроченного допуска нет; реализует permits.Drivers.
func (r *Repo) ListStaleEnabled(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	const q = `
SELECT d.id
FROM drivers d
WHERE d.orders_enabled = true
  AND NOT EXISTS (
    SELECT 1 FROM permits p
    WHERE p.driver_id = d.id
      AND p.status = 'active'
      AND p.expires_at > $1
  )`
	rows, err := r.pg.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RoutingRef возвращает идентификатор водителя для диспетчерской платформы (номер телефона).
func (r *Repo) RoutingRef(ctx context.Context, id uuid.UUID) (string, error) {
	var phone string
	err := r.pg.QueryRow(ctx, `SELECT phone FROM drivers WHERE id = $1`, id).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return phone, nil
}
