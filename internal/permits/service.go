// Движок жизненного цикла допуска: выдача, чек-лист, фото, подача, фоновое истечение.
// Статус в БД — источник истины; внешняя синхронизация заказов — best-effort.
package permits

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store — персистентность допусков и фотографий.
type Store interface {
	FindPendingByDriver(ctx context.Context, driverID uuid.UUID) (*Permit, error)
	CreatePending(ctx context.Context, driverID uuid.UUID) (*Permit, error)
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID, now time.Time) (*Permit, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Permit, error)
	SaveChecklist(ctx context.Context, id uuid.UUID, c Checklist) error
	AddPhoto(ctx context.Context, p *Photo) error
	DeletePhoto(ctx context.Context, id uuid.UUID) error
	// Activate переводит pending → active; false, если статус уже не pending.
	Activate(ctx context.Context, id uuid.UUID, issuedAt, expiresAt time.Time) (bool, error)
	SetRoutingEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	// ListOverdue возвращает активные допуски с истёкшим expires_at.
	ListOverdue(ctx context.Context, now time.Time) ([]Permit, error)
	// MarkExpired переводит active → expired; false, если кто-то успел раньше.
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)
	// ListActiveUnsynced возвращает активные непросроченные допуски с routing_enabled = false.
	ListActiveUnsynced(ctx context.Context, now time.Time) ([]Permit, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]Permit, error)
}

// OrderRouting — внешняя диспетчерская платформа (идемпотентные вызовы, могут падать).
type OrderRouting interface {
	EnableOrders(ctx context.Context, driverRef string) error
	DisableOrders(ctx context.Context, driverRef string) error
}

// ObjectStorage — бинарное хранилище фотографий.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType, slot, driverRef string) (objectKey, url string, err error)
	Delete(ctx context.Context, objectKey string) error
}

// Drivers — справочник водителей: внешний идентификатор для платформы и зеркало флага заказов.
type Drivers interface {
	RoutingRef(ctx context.Context, driverID uuid.UUID) (string, error)
	SetOrdersEnabled(ctx context.Context, driverID uuid.UUID, enabled bool, checkedAt time.Time) error
	// ListStaleEnabled возвращает водителей с включённым зеркалом заказов без активного допуска.
	ListStaleEnabled(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Config — статические лимиты загрузки фото (задаются один раз при старте).
type Config struct {
	MaxPhotoBytes int64
	AllowedMIME   []string
}

// FileUpload — содержимое одного файла из multipart-запроса.
type FileUpload struct {
	OriginalName string
	MimeType     string
	Data         []byte
}

// SlotResult — результат загрузки по одному слоту; ошибки слотов не прерывают остальные.
type SlotResult struct {
	Slot  string `json:"slot"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Photo *Photo `json:"photo,omitempty"`
}

// SubmitResult — активированный допуск и состояние синхронизации с платформой.
type SubmitResult struct {
	Permit        *Permit
	RoutingSynced bool
	RoutingErr    error // сбой синхронизации заказов; активация при этом не откатывается
}

// Service — движок жизненного цикла; все зависимости передаются явно.
type Service struct {
	store   Store
	drivers Drivers
	routing OrderRouting
	objects ObjectStorage
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

// NewService создаёт движок допусков.
func NewService(store Store, drivers Drivers, routing OrderRouting, objects ObjectStorage, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxPhotoBytes <= 0 {
		cfg.MaxPhotoBytes = 10 << 20
	}
	return &Service{
		store:   store,
		drivers: drivers,
		routing: routing,
		objects: objects,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// GetOrCreatePending возвращает ожидающий допуск водителя, при отсутствии — создаёт.
// Гонку create-а закрывает частичный уникальный индекс: проигравший перечитывает строку победителя.
func (s *Service) GetOrCreatePending(ctx context.Context, driverID uuid.UUID) (*Permit, error) {
	p, err := s.store.FindPendingByDriver(ctx, driverID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p, err = s.store.CreatePending(ctx, driverID)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrDuplicatePending) {
		return s.store.FindPendingByDriver(ctx, driverID)
	}
	return nil, err
}

// Current возвращает активный непросроченный допуск водителя или ErrNotFound.
func (s *Service) Current(ctx context.Context, driverID uuid.UUID) (*Permit, error) {
	return s.store.FindActiveByDriver(ctx, driverID, s.now())
}

// UpdateChecklist сливает известные ключи partial в чек-лист ожидающего допуска.
func (s *Service) UpdateChecklist(ctx context.Context, permitID uuid.UUID, partial map[string]bool) (Checklist, error) {
	p, err := s.store.FindByID(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrInvalidState
	}
	merged := p.Checklist.Merge(partial)
	if err := s.store.SaveChecklist(ctx, p.ID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// UploadPhotos обрабатывает файлы по слотам: валидация, замена старого фото, загрузка, запись.
// Ошибка одного слота не прерывает остальные; вызывающий получает результат по каждому слоту.
func (s *Service) UploadPhotos(ctx context.Context, permitID uuid.UUID, files map[string]FileUpload) ([]SlotResult, error) {
	p, err := s.store.FindByID(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrInvalidState
	}

	driverRef := p.DriverID.String()
	results := make([]SlotResult, 0, len(files))
	for _, slot := range PhotoSlots {
		f, ok := files[slot]
		if !ok {
			continue
		}
		res := SlotResult{Slot: slot}
		if err := s.validatePhoto(f); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		photo, err := s.replacePhoto(ctx, p, slot, driverRef, f)
		if err != nil {
			s.log.Warn("photo upload failed",
				zap.String("permit_id", p.ID.String()),
				zap.String("slot", slot),
				zap.Error(err))
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.OK = true
		res.Photo = photo
		results = append(results, res)
	}
	return results, nil
}

// validatePhoto проверяет размер и MIME до обращения к хранилищу.
func (s *Service) validatePhoto(f FileUpload) error {
	if len(f.Data) == 0 {
		return &ValidationError{Reason: "file is empty"}
	}
	if int64(len(f.Data)) > s.cfg.MaxPhotoBytes {
		return &ValidationError{Reason: "file too large"}
	}
	if !strings.HasPrefix(f.MimeType, "image/") {
		return &ValidationError{Reason: "file must be an image"}
	}
	if len(s.cfg.AllowedMIME) > 0 {
		allowed := false
		for _, m := range s.cfg.AllowedMIME {
			if strings.EqualFold(m, f.MimeType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return &ValidationError{Reason: "mime type not allowed"}
		}
	}
	return nil
}

// replacePhoto удаляет старое фото слота (запись и объект) и сохраняет новое.
func (s *Service) replacePhoto(ctx context.Context, p *Permit, slot, driverRef string, f FileUpload) (*Photo, error) {
	if old := p.PhotoBySlot(slot); old != nil {
		if err := s.store.DeletePhoto(ctx, old.ID); err != nil {
			return nil, err
		}
		// Объект в хранилище — best-effort: осиротевший файл хуже, чем потерянный.
		if err := s.objects.Delete(ctx, old.ObjectKey); err != nil {
			s.log.Warn("stale photo object not deleted",
				zap.String("object_key", old.ObjectKey), zap.Error(err))
		}
	}
	key, url, err := s.objects.Upload(ctx, f.Data, f.OriginalName, f.MimeType, slot, driverRef)
	if err != nil {
		return nil, &UpstreamError{Op: "upload", Err: err}
	}
	photo := &Photo{
		ID:           uuid.New(),
		PermitID:     p.ID,
		Slot:         slot,
		ObjectKey:    key,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		SizeBytes:    int64(len(f.Data)),
		URL:          url,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// Readiness проверяет готовность допуска к подаче без побочных эффектов.
func (s *Service) Readiness(ctx context.Context, permitID uuid.UUID) (Readiness, error) {
	p, err := s.store.FindByID(ctx, permitID)
	if err != nil {
		return Readiness{}, err
	}
	return CheckReadiness(p), nil
}

// Submit переводит готовый ожидающий допуск в active и best-effort включает заказы.
// Сбой платформы не откатывает активацию: статус в БД первичен, синхронизация догоняется.
func (s *Service) Submit(ctx context.Context, permitID uuid.UUID) (SubmitResult, error) {
	p, err := s.store.FindByID(ctx, permitID)
	if err != nil {
		return SubmitResult{}, err
	}
	if p.Status != StatusPending {
		return SubmitResult{}, ErrInvalidState
	}
	if r := CheckReadiness(p); !r.Ready {
		return SubmitResult{}, &NotReadyError{
			MissingChecklist: r.MissingChecklist,
			MissingPhotos:    r.MissingPhotos,
		}
	}
	if !CanTransition(p.Status, StatusActive) {
		return SubmitResult{}, ErrInvalidState
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(PermitDuration)
	ok, err := s.store.Activate(ctx, p.ID, issuedAt, expiresAt)
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		// Конкурентная подача: строка уже не pending.
		return SubmitResult{}, ErrInvalidState
	}
	p.Status = StatusActive
	p.IssuedAt = &issuedAt
	p.ExpiresAt = &expiresAt

	res := SubmitResult{Permit: p}
	if err := s.enableRouting(ctx, p); err != nil {
		res.RoutingErr = err
		s.log.Warn("order routing enable failed; permit stays active",
			zap.String("permit_id", p.ID.String()),
			zap.String("driver_id", p.DriverID.String()),
			zap.Error(err))
	} else {
		res.RoutingSynced = true
		p.RoutingEnabled = true
	}
	return res, nil
}

func (s *Service) enableRouting(ctx context.Context, p *Permit) error {
	ref, err := s.drivers.RoutingRef(ctx, p.DriverID)
	if err != nil {
		return &UpstreamError{Op: "enable_orders", Err: err}
	}
	if err := s.routing.EnableOrders(ctx, ref); err != nil {
		return &UpstreamError{Op: "enable_orders", Err: err}
	}
	if err := s.store.SetRoutingEnabled(ctx, p.ID, true); err != nil {
		return err
	}
	if err := s.drivers.SetOrdersEnabled(ctx, p.DriverID, true, s.now()); err != nil {
		s.log.Warn("driver orders mirror not updated", zap.Error(err))
	}
	return nil
}

// ExpireOverdue переводит просроченные активные допуски в expired и best-effort выключает заказы.
// Каждый допуск обрабатывается независимо; повторный запуск ничего не делает повторно.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.store.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range overdue {
		p := &overdue[i]
		ok, err := s.store.MarkExpired(ctx, p.ID)
		if err != nil {
			s.log.Error("mark expired failed", zap.String("permit_id", p.ID.String()), zap.Error(err))
			continue
		}
		if !ok {
			continue // параллельный проход успел раньше
		}
		expired++
		if p.RoutingEnabled {
			s.disableRouting(ctx, p)
		}
		s.log.Info("permit expired",
			zap.String("permit_id", p.ID.String()),
			zap.String("driver_id", p.DriverID.String()))
	}
	return expired, nil
}

func (s *Service) disableRouting(ctx context.Context, p *Permit) {
	ref, err := s.drivers.RoutingRef(ctx, p.DriverID)
	if err == nil {
		err = s.routing.DisableOrders(ctx, ref)
	}
	if err != nil {
		// Зеркало не трогаем: пока orders_enabled = true, ListStaleEnabled
		// вернёт водителя и ReconcileRouting повторит выключение.
		s.log.Warn("order routing disable failed",
			zap.String("permit_id", p.ID.String()), zap.Error(err))
		return
	}
	if err := s.drivers.SetOrdersEnabled(ctx, p.DriverID, false, s.now()); err != nil {
		s.log.Warn("driver orders mirror not updated", zap.Error(err))
	}
}

// ReconcileRouting догоняет платформу в обе стороны: активные допуски с непрошедшим
// включением заказов получают повторный EnableOrders, а водители со включённым зеркалом
// без активного допуска — DisableOrders. Статус допуска первичен.
func (s *Service) ReconcileRouting(ctx context.Context) (int, error) {
	unsynced, err := s.store.ListActiveUnsynced(ctx, s.now())
	if err != nil {
		return 0, err
	}
	synced := 0
	for i := range unsynced {
		p := &unsynced[i]
		if err := s.enableRouting(ctx, p); err != nil {
			s.log.Warn("routing reconcile failed",
				zap.String("permit_id", p.ID.String()), zap.Error(err))
			continue
		}
		synced++
	}

	stale, err := s.drivers.ListStaleEnabled(ctx, s.now())
	if err != nil {
		return synced, err
	}
	for _, driverID := range stale {
		ref, err := s.drivers.RoutingRef(ctx, driverID)
		if err == nil {
			err = s.routing.DisableOrders(ctx, ref)
		}
		if err != nil {
			s.log.Warn("routing reconcile disable failed",
				zap.String("driver_id", driverID.String()), zap.Error(err))
			continue
		}
		if err := s.drivers.SetOrdersEnabled(ctx, driverID, false, s.now()); err != nil {
			s.log.Warn("driver orders mirror not updated", zap.Error(err))
		}
		synced++
	}
	return synced, nil
}

// History возвращает допуски водителя от новых к старым, с фотографиями.
func (s *Service) History(ctx context.Context, driverID uuid.UUID, limit int) ([]Permit, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListByDriver(ctx, driverID, limit)
}
