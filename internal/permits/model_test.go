package permits

import (
	"testing"

	"github.com/google/uuid"
)

func fullChecklist() Checklist {
	c := NewChecklist()
	for _, k := range ChecklistKeys {
		c[k] = true
	}
	return c
}

func allPhotos(permitID uuid.UUID) []Photo {
	photos := make([]Photo, 0, len(PhotoSlots))
	for _, slot := range PhotoSlots {
		photos = append(photos, Photo{ID: uuid.New(), PermitID: permitID, Slot: slot})
	}
	return photos
}

func TestNewChecklistHasExactlyKnownKeys(t *testing.T) {
	c := NewChecklist()
	if len(c) != len(ChecklistKeys) {
		t.Fatalf("expected %d keys, got %d", len(ChecklistKeys), len(c))
	}
	for _, k := range ChecklistKeys {
		if v, ok := c[k]; !ok || v {
			t.Fatalf("expected key %q present and false", k)
		}
	}
}

func TestChecklistMergeIgnoresUnknownKeys(t *testing.T) {
	c := NewChecklist().Merge(map[string]bool{
		"plafon":   true,
		"dashcam":  true,
		"spoiler":  true, // нет такого пункта
		"carWash":  true,
		"taxmeter": true, // опечатка — тоже мимо
	})
	if len(c) != len(ChecklistKeys) {
		t.Fatalf("merge must not grow the checklist: got %d keys", len(c))
	}
	if !c["plafon"] || !c["dashcam"] {
		t.Fatal("known keys were not merged")
	}
	if c["spoiler"] || c["carWash"] {
		t.Fatal("unknown keys leaked into the checklist")
	}
}

func TestReadiness(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name        string
		checklist   Checklist
		photos      []Photo
		ready       bool
		wantMissing int // пунктов чек-листа
		wantSlots   int
	}{
		{"empty", NewChecklist(), nil, false, 9, 4},
		{"checklist only", fullChecklist(), nil, false, 0, 4},
		{"photos only", NewChecklist(), allPhotos(id), false, 9, 0},
		{"complete", fullChecklist(), allPhotos(id), true, 0, 0},
		{
			"one flag short",
			fullChecklist().Merge(map[string]bool{"medicalCheck": false}),
			allPhotos(id),
			false, 1, 0,
		},
		{
			"one slot short",
			fullChecklist(),
			allPhotos(id)[:3],
			false, 0, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Permit{ID: id, Status: StatusPending, Checklist: tt.checklist, Photos: tt.photos}
			r := CheckReadiness(p)
			if r.Ready != tt.ready {
				t.Fatalf("ready = %v, want %v", r.Ready, tt.ready)
			}
			if len(r.MissingChecklist) != tt.wantMissing {
				t.Fatalf("missing checklist = %d, want %d", len(r.MissingChecklist), tt.wantMissing)
			}
			if len(r.MissingPhotos) != tt.wantSlots {
				t.Fatalf("missing photos = %d, want %d", len(r.MissingPhotos), tt.wantSlots)
			}
		})
	}
}

func TestReadinessIgnoresExtraPhotoRecords(t *testing.T) {
	id := uuid.New()
	p := &Permit{
		ID:        id,
		Status:    StatusPending,
		Checklist: fullChecklist(),
		Photos:    append(allPhotos(id)[:3], Photo{ID: uuid.New(), PermitID: id, Slot: "selfie"}),
	}
	r := CheckReadiness(p)
	if r.Ready {
		t.Fatal("extra unknown slot must not substitute a required one")
	}
	if len(r.MissingPhotos) != 1 || r.MissingPhotos[0] != "car_interior" {
		t.Fatalf("expected car_interior missing, got %v", r.MissingPhotos)
	}
}
