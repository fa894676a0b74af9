package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/laborder"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// Visit belongs to exactly one patient and owns its prescriptions and lab
// orders. VisitNumber is sequential per patient and assigned on create.
// Children are attached on aggregate reads and inlined on the wire; storage
// form carries only the visit's own columns.
type Visit struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID     string    `db:"doctor_id" json:"doctor_id,omitempty"`
	VisitDate    time.Time `db:"visit_date" json:"visit_date"`
	VisitNumber  int       `db:"visit_number" json:"visit_number"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
	IsDeleted    bool      `db:"is_deleted" json:"is_deleted"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`

	Prescriptions []*prescription.Prescription `db:"-" json:"prescriptions,omitempty"`
	LabOrders     []*laborder.LabOrder         `db:"-" json:"lab_orders,omitempty"`
}

func (v *Visit) Clone() *Visit {
	out := *v
	if v.Prescriptions != nil {
		out.Prescriptions = append([]*prescription.Prescription(nil), v.Prescriptions...)
	}
	if v.LabOrders != nil {
		out.LabOrders = append([]*laborder.LabOrder(nil), v.LabOrders...)
	}
	return &out
}

// ToRecord serializes into storage form. Child collections are omitted;
// they live in their own tables.
func (v *Visit) ToRecord() map[string]any {
	return map[string]any{
		"id":            v.ID.String(),
		"patient_id":    v.PatientID.String(),
		"doctor_id":     v.DoctorID,
		"visit_date":    db.EncodeTime(v.VisitDate),
		"visit_number":  v.VisitNumber,
		"notes":         v.Notes,
		"is_deleted":    db.EncodeBool(v.IsDeleted),
		"last_modified": db.EncodeTime(v.LastModified),
	}
}

// FromRecord rebuilds a visit from storage form, children unattached.
func FromRecord(rec map[string]any) *Visit {
	id, _ := uuid.Parse(str(rec["id"]))
	patientID, _ := uuid.Parse(str(rec["patient_id"]))
	return &Visit{
		ID:           id,
		PatientID:    patientID,
		DoctorID:     str(rec["doctor_id"]),
		VisitDate:    db.DecodeTime(str(rec["visit_date"])),
		VisitNumber:  intVal(rec["visit_number"]),
		Notes:        str(rec["notes"]),
		IsDeleted:    boolVal(rec["is_deleted"]),
		LastModified: db.DecodeTime(str(rec["last_modified"])),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func intVal(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int16:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func boolVal(v any) bool {
	return intVal(v) != 0
}
