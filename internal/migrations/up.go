// Все миграции в одном файле; порядок задаётся списком в migrations.go.
package migrations

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// 1 — schema_version
func UpSchemaVersion(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INT PRIMARY KEY,
			name    TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO schema_version (version, name) VALUES (1, 'schema_version')
		ON CONFLICT (version) DO NOTHING
	`)
	return err
}

// 2 — drivers
func UpDrivers(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS drivers (
			id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			phone             TEXT NOT NULL UNIQUE,
			name              TEXT,
			license_number    TEXT,
			car_number        TEXT,
			car_model         TEXT,
			is_active         BOOLEAN NOT NULL DEFAULT true,
			orders_enabled    BOOLEAN NOT NULL DEFAULT false,
			last_status_check TIMESTAMPTZ,
			last_login_at     TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO schema_version (version, name) VALUES (2, 'create_drivers_table')
		ON CONFLICT (version) DO NOTHING
	`)
	return err
}

// 3 — otp_codes, auth_tokens (вход только по OTP; таблицы users нет)
func UpAuthSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS otp_codes (
			id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			phone          TEXT NOT NULL,
			code           TEXT NOT NULL,
			expires_at     TIMESTAMPTZ NOT NULL,
			used_at        TIMESTAMPTZ,
			attempts_count INT NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_otp_codes_phone_active ON otp_codes (phone) WHERE used_at IS NULL`)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS auth_tokens (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			driver_id     UUID NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL UNIQUE,
			expires_at    TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_auth_tokens_driver_id ON auth_tokens (driver_id)`)

	_, err = pool.Exec(ctx, `
		INSERT INTO schema_version (version, name) VALUES (3, 'auth_schema')
		ON CONFLICT (version) DO NOTHING
	`)
	return err
}

// 4 — permits: статус, чек-лист JSONB, сроки; один pending на водителя
func UpPermits(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS permits (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			driver_id        UUID NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
			status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'expired', 'rejected')),
			checklist        JSONB NOT NULL DEFAULT '{}'::jsonb,
			issued_at        TIMESTAMPTZ,
			expires_at       TIMESTAMPTZ,
			rejection_reason TEXT,
			routing_enabled  BOOLEAN NOT NULL DEFAULT false,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	// Не больше одного ожидающего допуска на водителя: гонка get-or-create упирается в 23505.
	_, err = pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS permits_one_pending_per_driver
		ON permits (driver_id) WHERE status = 'pending'
	`)
	if err != nil {
		return err
	}
	// Для фонового прохода по просроченным активным допускам.
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_permits_status_expires ON permits (status, expires_at)`)
	_, _ = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_permits_driver_created ON permits (driver_id, created_at DESC)`)

	_, err = pool.Exec(ctx, `
		INSERT INTO schema_version (version, name) VALUES (4, 'create_permits_table')
		ON CONFLICT (version) DO NOTHING
	`)
	return err
}

// 5 — photos: не более одного фото на слот допуска
func UpPhotos(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS photos (
			id            UUID PRIMARY KEY,
			permit_id     UUID NOT NULL REFERENCES permits(id) ON DELETE CASCADE,
			slot          TEXT NOT NULL CHECK (slot IN ('waybill_1', 'waybill_2', 'car_exterior', 'car_interior')),
			object_key    TEXT NOT NULL,
			original_name TEXT NOT NULL,
			mime_type     TEXT NOT NULL,
			size_bytes    BIGINT NOT NULL,
			url           TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (permit_id, slot)
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO schema_version (version, name) VALUES (5, 'create_photos_table')
		ON CONFLICT (version) DO NOTHING
	`)
	return err
}
