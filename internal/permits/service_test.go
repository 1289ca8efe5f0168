package permits

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memStore — потокобезопасная реализация Store в памяти для тестов движка.
type memStore struct {
	mu      sync.Mutex
	permits map[uuid.UUID]*Permit
}

func newMemStore() *memStore {
	return &memStore{permits: make(map[uuid.UUID]*Permit)}
}

func clonePermit(p *Permit) *Permit {
	cp := *p
	cp.Checklist = NewChecklist().Merge(p.Checklist)
	cp.Photos = append([]Photo(nil), p.Photos...)
	return &cp
}

func (s *memStore) FindPendingByDriver(_ context.Context, driverID uuid.UUID) (*Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permits {
		if p.DriverID == driverID && p.Status == StatusPending {
			return clonePermit(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) CreatePending(_ context.Context, driverID uuid.UUID) (*Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permits {
		if p.DriverID == driverID && p.Status == StatusPending {
			return nil, ErrDuplicatePending
		}
	}
	now := time.Now()
	p := &Permit{
		ID:        uuid.New(),
		DriverID:  driverID,
		Status:    StatusPending,
		Checklist: NewChecklist(),
		Photos:    []Photo{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.permits[p.ID] = p
	return clonePermit(p), nil
}

func (s *memStore) FindActiveByDriver(_ context.Context, driverID uuid.UUID, now time.Time) (*Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permits {
		if p.DriverID == driverID && p.Status == StatusActive && p.ExpiresAt != nil && p.ExpiresAt.After(now) {
			return clonePermit(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePermit(p), nil
}

func (s *memStore) SaveChecklist(_ context.Context, id uuid.UUID, c Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[id]
	if !ok {
		return ErrNotFound
	}
	p.Checklist = NewChecklist().Merge(c)
	return nil
}

func (s *memStore) AddPhoto(_ context.Context, ph *Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[ph.PermitID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range p.Photos {
		if existing.Slot == ph.Slot {
			return fmt.Errorf("duplicate photo for slot %s", ph.Slot)
		}
	}
	p.Photos = append(p.Photos, *ph)
	return nil
}

func (s *memStore) DeletePhoto(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permits {
		for i := range p.Photos {
			if p.Photos[i].ID == id {
				p.Photos = append(p.Photos[:i], p.Photos[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (s *memStore) Activate(_ context.Context, id uuid.UUID, issuedAt, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[id]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusActive
	p.IssuedAt = &issuedAt
	p.ExpiresAt = &expiresAt
	return true, nil
}

func (s *memStore) SetRoutingEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[id]
	if !ok {
		return ErrNotFound
	}
	p.RoutingEnabled = enabled
	return nil
}

func (s *memStore) ListOverdue(_ context.Context, now time.Time) ([]Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Permit
	for _, p := range s.permits {
		if p.Status == StatusActive && p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			out = append(out, *clonePermit(p))
		}
	}
	return out, nil
}

func (s *memStore) MarkExpired(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permits[id]
	if !ok || p.Status != StatusActive {
		return false, nil
	}
	p.Status = StatusExpired
	p.RoutingEnabled = false
	return true, nil
}

func (s *memStore) ListActiveUnsynced(_ context.Context, now time.Time) ([]Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Permit
	for _, p := range s.permits {
		if p.Status == StatusActive && !p.RoutingEnabled && p.ExpiresAt != nil && p.ExpiresAt.After(now) {
			out = append(out, *clonePermit(p))
		}
	}
	return out, nil
}

func (s *memStore) ListByDriver(_ context.Context, driverID uuid.UUID, limit int) ([]Permit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Permit
	for _, p := range s.permits {
		if p.DriverID == driverID {
			out = append(out, *clonePermit(p))
		}
	}
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeRouting — диспетчерская платформа: счётчики вызовов и управляемые сбои.
type fakeRouting struct {
	mu          sync.Mutex
	enableCalls []string
	disableCall []string
	failEnable  bool
	failDisable bool
}

func (f *fakeRouting) EnableOrders(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEnable {
		return errors.New("dispatch platform unavailable")
	}
	f.enableCalls = append(f.enableCalls, ref)
	return nil
}

func (f *fakeRouting) DisableOrders(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDisable {
		return errors.New("dispatch platform unavailable")
	}
	f.disableCall = append(f.disableCall, ref)
	return nil
}

// fakeObjects — хранилище объектов: выдаёт ключи и помнит удаления.
type fakeObjects struct {
	mu      sync.Mutex
	seq     int
	deleted []string
}

func (f *fakeObjects) Upload(_ context.Context, _ []byte, _, _, slot, driverRef string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := fmt.Sprintf("permits/%s/%s/%d.jpg", driverRef, slot, f.seq)
	return key, "https://cdn.example.com/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

// fakeDrivers — зеркало флага заказов по водителям; stale-выборка повторяет SQL репозитория.
type fakeDrivers struct {
	mu      sync.Mutex
	phone   string
	store   *memStore
	enabled map[uuid.UUID]bool
}

func (f *fakeDrivers) RoutingRef(_ context.Context, _ uuid.UUID) (string, error) {
	return f.phone, nil
}

func (f *fakeDrivers) SetOrdersEnabled(_ context.Context, id uuid.UUID, enabled bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enabled == nil {
		f.enabled = make(map[uuid.UUID]bool)
	}
	f.enabled[id] = enabled
	return nil
}

func (f *fakeDrivers) ordersEnabled(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled[id]
}

// ListStaleEnabled возвращает водителей со включённым зеркалом без активного допуска,
// как NOT EXISTS-запрос в drivers.Repo.
func (f *fakeDrivers) ListStaleEnabled(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	ids := make([]uuid.UUID, 0, len(f.enabled))
	for id, on := range f.enabled {
		if on {
			ids = append(ids, id)
		}
	}
	f.mu.Unlock()

	var out []uuid.UUID
	for _, id := range ids {
		if _, err := f.store.FindActiveByDriver(ctx, id, now); err == nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memStore, *fakeRouting, *fakeObjects) {
	svc, store, routing, objects, _ := newTestServiceWithDrivers(t)
	return svc, store, routing, objects
}

func newTestServiceWithDrivers(t *testing.T) (*Service, *memStore, *fakeRouting, *fakeObjects, *fakeDrivers) {
	t.Helper()
	store := newMemStore()
	routing := &fakeRouting{}
	objects := &fakeObjects{}
	drivers := &fakeDrivers{phone: "+998901234567", store: store}
	cfg := Config{
		MaxPhotoBytes: 1 << 20,
		AllowedMIME:   []string{"image/jpeg", "image/png"},
	}
	return NewService(store, drivers, routing, objects, cfg, nil), store, routing, objects, drivers
}

func jpeg(n int) FileUpload {
	return FileUpload{OriginalName: "photo.jpg", MimeType: "image/jpeg", Data: make([]byte, n)}
}

func allSlotFiles() map[string]FileUpload {
	files := make(map[string]FileUpload, len(PhotoSlots))
	for _, slot := range PhotoSlots {
		files[slot] = jpeg(1024)
	}
	return files
}

func completePermit(t *testing.T, svc *Service, driverID uuid.UUID) *Permit {
	t.Helper()
	ctx := context.Background()
	p, err := svc.GetOrCreatePending(ctx, driverID)
	if err != nil {
		t.Fatalf("GetOrCreatePending: %v", err)
	}
	flags := make(map[string]bool, len(ChecklistKeys))
	for _, k := range ChecklistKeys {
		flags[k] = true
	}
	if _, err := svc.UpdateChecklist(ctx, p.ID, flags); err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	results, err := svc.UploadPhotos(ctx, p.ID, allSlotFiles())
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	for _, r := range results {
		if !r.OK {
			t.Fatalf("slot %s failed: %s", r.Slot, r.Error)
		}
	}
	return p
}

func TestGetOrCreatePendingIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()

	first, err := svc.GetOrCreatePending(ctx, driverID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Status != StatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	if len(first.Checklist.Missing()) != 9 || len(first.Photos) != 0 {
		t.Fatal("fresh permit must have empty checklist and no photos")
	}

	second, err := svc.GetOrCreatePending(ctx, driverID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("second call created a new pending permit")
	}
}

func TestGetOrCreatePendingConcurrent(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	driverID := uuid.New()

	const workers = 16
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.GetOrCreatePending(context.Background(), driverID)
			if err != nil {
				t.Errorf("GetOrCreatePending: %v", err)
				return
			}
			ids <- p.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected exactly one pending permit, got %d distinct", len(seen))
	}

	pendings := 0
	for _, p := range store.permits {
		if p.DriverID == driverID && p.Status == StatusPending {
			pendings++
		}
	}
	if pendings != 1 {
		t.Fatalf("store holds %d pending permits for the driver", pendings)
	}
}

func TestSubmitNotReady(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.GetOrCreatePending(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreatePending: %v", err)
	}

	_, err = svc.Submit(ctx, p.ID)
	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if len(notReady.MissingChecklist) != 9 || len(notReady.MissingPhotos) != 4 {
		t.Fatalf("unexpected missing detail: %+v", notReady)
	}

	got, err := svc.GetOrCreatePending(ctx, p.DriverID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.ID != p.ID || got.Status != StatusPending {
		t.Fatal("failed submit must leave the pending permit untouched")
	}
}

func TestSubmitActivatesFor16Hours(t *testing.T) {
	svc, _, routing, _ := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()
	p := completePermit(t, svc, driverID)

	issued := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	res, err := svc.Submit(ctx, p.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := res.Permit
	if got.Status != StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}
	if got.IssuedAt == nil || !got.IssuedAt.Equal(issued) {
		t.Fatal("issuedAt not set to submission time")
	}
	want := issued.Add(16 * time.Hour)
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", got.ExpiresAt, want)
	}
	if !res.RoutingSynced || res.RoutingErr != nil {
		t.Fatalf("expected routing sync to succeed: %+v", res)
	}
	if len(routing.enableCalls) != 1 {
		t.Fatalf("expected 1 enable call, got %d", len(routing.enableCalls))
	}

	// Повторная подача того же допуска.
	if _, err := svc.Submit(ctx, p.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resubmit: expected ErrInvalidState, got %v", err)
	}

	// Активный допуск виден через Current.
	svc.now = func() time.Time { return issued.Add(time.Hour) }
	cur, err := svc.Current(ctx, driverID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.ID != p.ID {
		t.Fatal("Current returned a different permit")
	}
}

func TestSubmitSurvivesRoutingFailure(t *testing.T) {
	svc, _, routing, _ := newTestService(t)
	ctx := context.Background()
	p := completePermit(t, svc, uuid.New())
	routing.failEnable = true

	res, err := svc.Submit(ctx, p.ID)
	if err != nil {
		t.Fatalf("Submit must not fail on gateway error: %v", err)
	}
	if res.Permit.Status != StatusActive {
		t.Fatal("local activation must not be rolled back")
	}
	if res.RoutingSynced {
		t.Fatal("routing reported synced despite failure")
	}
	var upstream *UpstreamError
	if !errors.As(res.RoutingErr, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", res.RoutingErr)
	}

	// Reconcile догоняет платформу после восстановления.
	routing.failEnable = false
	synced, err := svc.ReconcileRouting(ctx)
	if err != nil {
		t.Fatalf("ReconcileRouting: %v", err)
	}
	if synced != 1 {
		t.Fatalf("expected 1 resync, got %d", synced)
	}
	if len(routing.enableCalls) != 1 {
		t.Fatalf("expected enable call after reconcile, got %d", len(routing.enableCalls))
	}
}

func TestReconcileDisablesStaleMirror(t *testing.T) {
	svc, _, routing, _, drivers := newTestServiceWithDrivers(t)
	ctx := context.Background()
	driverID := uuid.New()
	p := completePermit(t, svc, driverID)

	issued := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	if _, err := svc.Submit(ctx, p.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !drivers.ordersEnabled(driverID) {
		t.Fatal("mirror must be enabled after successful submit")
	}

	// Платформа недоступна в момент истечения: допуск становится expired,
	// но зеркало обязано остаться включённым — иначе выключение никто не повторит.
	routing.failDisable = true
	svc.now = func() time.Time { return issued.Add(17 * time.Hour) }
	n, err := svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if !drivers.ordersEnabled(driverID) {
		t.Fatal("mirror cleared despite failed platform disable")
	}

	// Платформа восстановилась: reconcile добирает выключение по зеркалу.
	routing.failDisable = false
	synced, err := svc.ReconcileRouting(ctx)
	if err != nil {
		t.Fatalf("ReconcileRouting: %v", err)
	}
	if synced != 1 {
		t.Fatalf("expected 1 resync, got %d", synced)
	}
	if len(routing.disableCall) != 1 {
		t.Fatalf("expected 1 disable call, got %d", len(routing.disableCall))
	}
	if drivers.ordersEnabled(driverID) {
		t.Fatal("mirror must be cleared after successful disable")
	}

	// Повторный reconcile ничего не делает.
	if synced, _ := svc.ReconcileRouting(ctx); synced != 0 {
		t.Fatalf("second reconcile resynced %d", synced)
	}
}

func TestExpireOverdueIsIdempotent(t *testing.T) {
	svc, _, routing, _ := newTestService(t)
	ctx := context.Background()
	p := completePermit(t, svc, uuid.New())

	issued := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	if _, err := svc.Submit(ctx, p.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// До истечения срока sweep ничего не трогает.
	svc.now = func() time.Time { return issued.Add(15 * time.Hour) }
	if n, _ := svc.ExpireOverdue(ctx); n != 0 {
		t.Fatalf("premature expiry: %d", n)
	}

	svc.now = func() time.Time { return issued.Add(17 * time.Hour) }
	n, err := svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if len(routing.disableCall) != 1 {
		t.Fatalf("expected 1 disable call, got %d", len(routing.disableCall))
	}

	// Повторный запуск без смещения времени — no-op.
	n, err = svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("second ExpireOverdue: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep expired %d permits", n)
	}
	if len(routing.disableCall) != 1 {
		t.Fatal("disable must not be called again")
	}
}

func TestUploadReplacesSlotPhoto(t *testing.T) {
	svc, store, _, objects := newTestService(t)
	ctx := context.Background()
	p, err := svc.GetOrCreatePending(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreatePending: %v", err)
	}

	first, err := svc.UploadPhotos(ctx, p.ID, map[string]FileUpload{"waybill_1": jpeg(100)})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if len(first) != 1 || !first[0].OK {
		t.Fatalf("first upload result: %+v", first)
	}
	oldKey := first[0].Photo.ObjectKey

	second, err := svc.UploadPhotos(ctx, p.ID, map[string]FileUpload{"waybill_1": jpeg(200)})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if !second[0].OK {
		t.Fatalf("second upload failed: %s", second[0].Error)
	}

	stored := store.permits[p.ID]
	count := 0
	for _, ph := range stored.Photos {
		if ph.Slot == "waybill_1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected single photo row for the slot, got %d", count)
	}
	if len(objects.deleted) != 1 || objects.deleted[0] != oldKey {
		t.Fatalf("old object not deleted: %v", objects.deleted)
	}
}

func TestUploadValidationIsPerSlot(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.GetOrCreatePending(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreatePending: %v", err)
	}

	files := map[string]FileUpload{
		"waybill_1":    jpeg(2 << 20), // больше лимита в 1 МБ
		"waybill_2":    {OriginalName: "doc.pdf", MimeType: "application/pdf", Data: make([]byte, 100)},
		"car_exterior": jpeg(512),
	}
	results, err := svc.UploadPhotos(ctx, p.ID, files)
	if err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}
	byKey := make(map[string]SlotResult, len(results))
	for _, r := range results {
		byKey[r.Slot] = r
	}
	if byKey["waybill_1"].OK || byKey["waybill_1"].Error == "" {
		t.Fatal("oversized file must fail its slot")
	}
	if byKey["waybill_2"].OK {
		t.Fatal("non-image mime must fail its slot")
	}
	if !byKey["car_exterior"].OK {
		t.Fatalf("valid slot must succeed: %s", byKey["car_exterior"].Error)
	}
}

func TestOperationsRequirePendingState(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	p := completePermit(t, svc, uuid.New())
	if _, err := svc.Submit(ctx, p.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.UpdateChecklist(ctx, p.ID, map[string]bool{"plafon": false}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("checklist on active permit: expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.UploadPhotos(ctx, p.ID, map[string]FileUpload{"waybill_1": jpeg(10)}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("upload on active permit: expected ErrInvalidState, got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()

	issued := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := completePermit(t, svc, driverID)
		at := issued.Add(time.Duration(i) * 24 * time.Hour)
		svc.now = func() time.Time { return at }
		if _, err := svc.Submit(ctx, p.ID); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
		svc.now = func() time.Time { return at.Add(17 * time.Hour) }
		if _, err := svc.ExpireOverdue(ctx); err != nil {
			t.Fatalf("ExpireOverdue #%d: %v", i, err)
		}
	}

	history, err := svc.History(ctx, driverID, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected limit applied, got %d", len(history))
	}
	if history[0].CreatedAt.Before(history[1].CreatedAt) {
		t.Fatal("history must be newest-first")
	}
	for _, p := range history {
		if len(p.Photos) != 4 {
			t.Fatalf("history permits must include photos, got %d", len(p.Photos))
		}
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	svc, _, routing, _ := newTestService(t)
	ctx := context.Background()
	driverID := uuid.New()

	p, err := svc.GetOrCreatePending(ctx, driverID)
	if err != nil {
		t.Fatalf("GetOrCreatePending: %v", err)
	}
	if r, _ := svc.Readiness(ctx, p.ID); r.Ready {
		t.Fatal("fresh permit must not be ready")
	}

	for _, k := range ChecklistKeys {
		if _, err := svc.UpdateChecklist(ctx, p.ID, map[string]bool{k: true}); err != nil {
			t.Fatalf("UpdateChecklist(%s): %v", k, err)
		}
	}
	if _, err := svc.UploadPhotos(ctx, p.ID, allSlotFiles()); err != nil {
		t.Fatalf("UploadPhotos: %v", err)
	}

	r, err := svc.Readiness(ctx, p.ID)
	if err != nil {
		t.Fatalf("Readiness: %v", err)
	}
	if !r.Ready {
		t.Fatalf("expected ready permit: %+v", r)
	}

	before := time.Now()
	res, err := svc.Submit(ctx, p.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Permit.Status != StatusActive {
		t.Fatalf("expected active, got %s", res.Permit.Status)
	}
	lower := before.Add(16*time.Hour - time.Minute)
	upper := time.Now().Add(16*time.Hour + time.Minute)
	if res.Permit.ExpiresAt.Before(lower) || res.Permit.ExpiresAt.After(upper) {
		t.Fatalf("expiresAt %v not within 16h of now", res.Permit.ExpiresAt)
	}
	if len(routing.enableCalls) != 1 {
		t.Fatal("orders were not enabled on the platform")
	}
}
