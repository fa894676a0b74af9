package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// Drug is a catalog entry referenced by prescriptions. Names are unique;
// prescriptions reference drugs by id, never embed them.
type Drug struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LabTest is a catalog entry referenced by lab orders.
type LabTest struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Usage is a catalog entry with its reference count, for top-N reporting.
type Usage struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int       `json:"count"`
}

// ToRecord serializes a drug into storage form.
func (d *Drug) ToRecord() map[string]any {
	return map[string]any{
		"id":         d.ID.String(),
		"name":       d.Name,
		"created_at": db.EncodeTime(d.CreatedAt),
	}
}

func drugFromRecord(rec map[string]any) *Drug {
	id, _ := uuid.Parse(str(rec["id"]))
	return &Drug{
		ID:        id,
		Name:      str(rec["name"]),
		CreatedAt: db.DecodeTime(str(rec["created_at"])),
	}
}

// ToRecord serializes a lab test into storage form.
func (t *LabTest) ToRecord() map[string]any {
	return map[string]any{
		"id":         t.ID.String(),
		"name":       t.Name,
		"created_at": db.EncodeTime(t.CreatedAt),
	}
}

func labTestFromRecord(rec map[string]any) *LabTest {
	id, _ := uuid.Parse(str(rec["id"]))
	return &LabTest{
		ID:        id,
		Name:      str(rec["name"]),
		CreatedAt: db.DecodeTime(str(rec["created_at"])),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
