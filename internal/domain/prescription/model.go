package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// Prescription is owned by a visit and references a catalog drug by id.
// The two workflow flags advance Draft -> Sent to Pharmacy -> Fulfilled and
// never move backward.
type Prescription struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	VisitID             uuid.UUID `db:"visit_id" json:"visit_id"`
	DrugID              uuid.UUID `db:"drug_id" json:"drug_id"`
	DrugName            string    `db:"drug_name" json:"drug_name"`
	Note                string    `db:"note" json:"note,omitempty"`
	SentToPharmacy      bool      `db:"sent_to_pharmacy" json:"sent_to_pharmacy"`
	FulfilledByPharmacy bool      `db:"fulfilled_by_pharmacy" json:"fulfilled_by_pharmacy"`
	PharmacyNotes       string    `db:"pharmacy_notes" json:"pharmacy_notes,omitempty"`
	IsDeleted           bool      `db:"is_deleted" json:"is_deleted"`
	LastModified        time.Time `db:"last_modified" json:"last_modified"`
}

// Workflow status labels.
const (
	StatusDraft     = "Draft"
	StatusSent      = "Sent to Pharmacy"
	StatusFulfilled = "Fulfilled"
)

// Status derives the workflow label from the flags.
func (p *Prescription) Status() string {
	switch {
	case p.FulfilledByPharmacy:
		return StatusFulfilled
	case p.SentToPharmacy:
		return StatusSent
	default:
		return StatusDraft
	}
}

// StatusColor maps the workflow status onto a display color.
func (p *Prescription) StatusColor() string {
	switch p.Status() {
	case StatusFulfilled:
		return "#4CAF50"
	case StatusSent:
		return "#FF9800"
	default:
		return "#9E9E9E"
	}
}

func (p *Prescription) Clone() *Prescription {
	out := *p
	return &out
}

// ToRecord serializes into storage form.
func (p *Prescription) ToRecord() map[string]any {
	return map[string]any{
		"id":                    p.ID.String(),
		"visit_id":              p.VisitID.String(),
		"drug_id":               p.DrugID.String(),
		"drug_name":             p.DrugName,
		"note":                  p.Note,
		"sent_to_pharmacy":      db.EncodeBool(p.SentToPharmacy),
		"fulfilled_by_pharmacy": db.EncodeBool(p.FulfilledByPharmacy),
		"pharmacy_notes":        p.PharmacyNotes,
		"is_deleted":            db.EncodeBool(p.IsDeleted),
		"last_modified":         db.EncodeTime(p.LastModified),
	}
}

// FromRecord rebuilds a prescription from storage form.
func FromRecord(rec map[string]any) *Prescription {
	id, _ := uuid.Parse(str(rec["id"]))
	visitID, _ := uuid.Parse(str(rec["visit_id"]))
	drugID, _ := uuid.Parse(str(rec["drug_id"]))
	return &Prescription{
		ID:                  id,
		VisitID:             visitID,
		DrugID:              drugID,
		DrugName:            str(rec["drug_name"]),
		Note:                str(rec["note"]),
		SentToPharmacy:      boolVal(rec["sent_to_pharmacy"]),
		FulfilledByPharmacy: boolVal(rec["fulfilled_by_pharmacy"]),
		PharmacyNotes:       str(rec["pharmacy_notes"]),
		IsDeleted:           boolVal(rec["is_deleted"]),
		LastModified:        db.DecodeTime(str(rec["last_modified"])),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolVal(v any) bool {
	switch n := v.(type) {
	case int16:
		return n != 0
	case int:
		return n != 0
	case int64:
		return n != 0
	case float64:
		return n != 0
	}
	return false
}
