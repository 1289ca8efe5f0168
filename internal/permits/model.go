// Модель допуска: чек-лист из 9 пунктов, 4 обязательных фото, срок действия 16 часов.
package permits

import (
	"time"

	"github.com/google/uuid"
)

// PermitDuration — срок действия активного допуска с момента подачи.
const PermitDuration = 16 * time.Hour

// ChecklistKeys — фиксированные 9 пунктов готовности автомобиля; других ключей в чек-листе не бывает.
var ChecklistKeys = []string{
	"plafon",
	"carWrapped",
	"businessCard",
	"dashcam",
	"firstAidKit",
	"tireCondition",
	"lights",
	"taximeter",
	"medicalCheck",
}

// PhotoSlots — фиксированные 4 слота обязательных фотографий.
var PhotoSlots = []string{
	"waybill_1",
	"waybill_2",
	"car_exterior",
	"car_interior",
}

var knownChecklistKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ChecklistKeys))
	for _, k := range ChecklistKeys {
		m[k] = struct{}{}
	}
	return m
}()

var knownPhotoSlots = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PhotoSlots))
	for _, s := range PhotoSlots {
		m[s] = struct{}{}
	}
	return m
}()

// KnownSlot reports whether the slot is one of the four required photo slots.
func KnownSlot(slot string) bool {
	_, ok := knownPhotoSlots[slot]
	return ok
}

// Checklist — значения всех 9 пунктов; всегда содержит ровно известные ключи.
type Checklist map[string]bool

// NewChecklist возвращает чек-лист со всеми пунктами false.
func NewChecklist() Checklist {
	c := make(Checklist, len(ChecklistKeys))
	for _, k := range ChecklistKeys {
		c[k] = false
	}
	return c
}

// Merge возвращает копию чек-листа с применёнными значениями partial; неизвестные ключи молча игнорируются.
func (c Checklist) Merge(partial map[string]bool) Checklist {
	out := make(Checklist, len(ChecklistKeys))
	for _, k := range ChecklistKeys {
		out[k] = c[k]
	}
	for k, v := range partial {
		if _, ok := knownChecklistKeys[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Complete возвращает true, если все 9 пунктов отмечены.
func (c Checklist) Complete() bool {
	return len(c.Missing()) == 0
}

// Missing возвращает неотмеченные пункты в порядке ChecklistKeys.
func (c Checklist) Missing() []string {
	var missing []string
	for _, k := range ChecklistKeys {
		if !c[k] {
			missing = append(missing, k)
		}
	}
	return missing
}

// Photo — фотография, прикреплённая к допуску; не более одной на слот.
type Photo struct {
	ID           uuid.UUID `json:"id"`
	PermitID     uuid.UUID `json:"permit_id"`
	Slot         string    `json:"slot"`
	ObjectKey    string    `json:"object_key"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Permit — допуск водителя к приёму заказов; история не удаляется.
type Permit struct {
	ID              uuid.UUID  `json:"id"`
	DriverID        uuid.UUID  `json:"driver_id"`
	Status          string     `json:"status"`
	Checklist       Checklist  `json:"checklist"`
	IssuedAt        *time.Time `json:"issued_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RoutingEnabled  bool       `json:"routing_enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Photos          []Photo    `json:"photos"`
}

// PhotoBySlot возвращает фото для слота или nil.
func (p *Permit) PhotoBySlot(slot string) *Photo {
	for i := range p.Photos {
		if p.Photos[i].Slot == slot {
			return &p.Photos[i]
		}
	}
	return nil
}

// MissingPhotos возвращает незаполненные обязательные слоты в порядке PhotoSlots.
// Лишние записи вне четырёх известных слотов на готовность не влияют.
func (p *Permit) MissingPhotos() []string {
	var missing []string
	for _, slot := range PhotoSlots {
		if p.PhotoBySlot(slot) == nil {
			missing = append(missing, slot)
		}
	}
	return missing
}

// Readiness — результат проверки допуска перед подачей.
type Readiness struct {
	Ready            bool     `json:"ready"`
	MissingChecklist []string `json:"missing_checklist,omitempty"`
	MissingPhotos    []string `json:"missing_photos,omitempty"`
}

// CheckReadiness — чистая проверка: все 9 пунктов отмечены и все 4 слота заполнены.
func CheckReadiness(p *Permit) Readiness {
	r := Readiness{
		MissingChecklist: p.Checklist.Missing(),
		MissingPhotos:    p.MissingPhotos(),
	}
	r.Ready = len(r.MissingChecklist) == 0 && len(r.MissingPhotos) == 0
	return r
}
