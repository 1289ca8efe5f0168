package permits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const permitColumns = `id, driver_id, status, checklist, issued_at, expires_at, rejection_reason, routing_enabled, created_at, updated_at`

// Repo — хранилище допусков поверх pgx; реализует Store.
type Repo struct {
	pg *pgxpool.Pool
}

func NewRepo(pg *pgxpool.Pool) *Repo {
	return &Repo{pg: pg}
}

func scanPermit(row pgx.Row) (*Permit, error) {
	var p Permit
	var checklist []byte
	err := row.Scan(
		&p.ID, &p.DriverID, &p.Status, &checklist,
		&p.IssuedAt, &p.ExpiresAt, &p.RejectionReason, &p.RoutingEnabled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Чек-лист хранится как JSONB; отсутствующие ключи добиваются false через Merge.
	var raw map[string]bool
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &raw); err != nil {
			return nil, fmt.Errorf("decode checklist: %w", err)
		}
	}
	p.Checklist = NewChecklist().Merge(raw)
	return &p, nil
}

func (r *Repo) FindPendingByDriver(ctx context.Context, driverID uuid.UUID) (*Permit, error) {
	q := `SELECT ` + permitColumns + ` FROM permits WHERE driver_id = $1 AND status = 'pending' LIMIT 1`
	p, err := scanPermit(r.pg.QueryRow(ctx, q, driverID))
	if err != nil {
		return nil, err
	}
	if err := r.attachPhotos(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) CreatePending(ctx context.Context, driverID uuid.UUID) (*Permit, error) {
	checklist, _ := json.Marshal(NewChecklist())
	q := `
INSERT INTO permits (driver_id, status, checklist, created_at, updated_at)
VALUES ($1, 'pending', $2, now(), now())
RETURNING ` + permitColumns
	p, err := scanPermit(r.pg.QueryRow(ctx, q, driverID, checklist))
	if err != nil {
		// 23505 по частичному индексу permits_one_pending_per_driver: гонка create-а.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicatePending
		}
		return nil, err
	}
	p.Photos = []Photo{}
	return p, nil
}

func (r *Repo) FindActiveByDriver(ctx context.Context, driverID uuid.UUID, now time.Time) (*Permit, error) {
	q := `
SELECT ` + permitColumns + `
FROM permits
WHERE driver_id = $1 AND status = 'active' AND expires_at > $2
ORDER BY expires_at DESC
LIMIT 1`
	p, err := scanPermit(r.pg.QueryRow(ctx, q, driverID, now))
	if err != nil {
		return nil, err
	}
	if err := r.attachPhotos(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*Permit, error) {
	q := `SELECT ` + permitColumns + ` FROM permits WHERE id = $1`
	p, err := scanPermit(r.pg.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachPhotos(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) SaveChecklist(ctx context.Context, id uuid.UUID, c Checklist) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	tag, err := r.pg.Exec(ctx, `UPDATE permits SET checklist = $2, updated_at = now() WHERE id = $1`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) AddPhoto(ctx context.Context, p *Photo) error {
	q := `
INSERT INTO photos (id, permit_id, slot, object_key, original_name, mime_type, size_bytes, url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pg.Exec(ctx, q,
		p.ID, p.PermitID, p.Slot, p.ObjectKey, p.OriginalName, p.MimeType, p.SizeBytes, p.URL, p.CreatedAt)
	return err
}

func (r *Repo) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	_, err := r.pg.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	return err
}

func (r *Repo) Activate(ctx context.Context, id uuid.UUID, issuedAt, expiresAt time.Time) (bool, error) {
	q := `
UPDATE permits
SET status = 'active', issued_at = $2, expires_at = $3, updated_at = now()
WHERE id = $1 AND status = 'pending'`
	tag, err := r.pg.Exec(ctx, q, id, issuedAt, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) SetRoutingEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	_, err := r.pg.Exec(ctx, `UPDATE permits SET routing_enabled = $2, updated_at = now() WHERE id = $1`, id, enabled)
	return err
}

func (r *Repo) ListOverdue(ctx context.Context, now time.Time) ([]Permit, error) {
	q := `
SELECT ` + permitColumns + `
FROM permits
WHERE status = 'active' AND expires_at < $1
ORDER BY expires_at`
	return r.listPermits(ctx, q, now)
}

func (r *Repo) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	q := `
UPDATE permits
SET status = 'expired', routing_enabled = false, updated_at = now()
WHERE id = $1 AND status = 'active'`
	tag, err := r.pg.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) ListActiveUnsynced(ctx context.Context, now time.Time) ([]Permit, error) {
	q := `
SELECT ` + permitColumns + `
FROM permits
WHERE status = 'active' AND expires_at > $1 AND routing_enabled = false
ORDER BY issued_at`
	return r.listPermits(ctx, q, now)
}

func (r *Repo) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]Permit, error) {
	q := `
SELECT ` + permitColumns + `
FROM permits
WHERE driver_id = $1
ORDER BY created_at DESC
LIMIT $2`
	permits, err := r.listPermits(ctx, q, driverID, limit)
	if err != nil {
		return nil, err
	}
	if err := r.attachPhotosBatch(ctx, permits); err != nil {
		return nil, err
	}
	return permits, nil
}

func (r *Repo) listPermits(ctx context.Context, q string, args ...any) ([]Permit, error) {
	rows, err := r.pg.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Permit
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) attachPhotos(ctx context.Context, p *Permit) error {
	list := []*Permit{p}
	return r.attachPhotosTo(ctx, list)
}

func (r *Repo) attachPhotosBatch(ctx context.Context, permits []Permit) error {
	list := make([]*Permit, len(permits))
	for i := range permits {
		list[i] = &permits[i]
	}
	return r.attachPhotosTo(ctx, list)
}

func (r *Repo) attachPhotosTo(ctx context.Context, permits []*Permit) error {
	if len(permits) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(permits))
	byID := make(map[uuid.UUID]*Permit, len(permits))
	for i, p := range permits {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Photos = []Photo{}
	}
	q := `
SELECT id, permit_id, slot, object_key, original_name, mime_type, size_bytes, url, created_at
FROM photos
WHERE permit_id = ANY($1)
ORDER BY created_at`
	rows, err := r.pg.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ph Photo
		if err := rows.Scan(&ph.ID, &ph.PermitID, &ph.Slot, &ph.ObjectKey, &ph.OriginalName,
			&ph.MimeType, &ph.SizeBytes, &ph.URL, &ph.CreatedAt); err != nil {
			return err
		}
		if p, ok := byID[ph.PermitID]; ok {
			p.Photos = append(p.Photos, ph)
		}
	}
	return rows.Err()
}
