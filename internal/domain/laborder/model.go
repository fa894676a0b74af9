package laborder

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// LabOrder is owned by a visit and references a catalog lab test. Workflow
// mirrors prescriptions: Draft -> Sent to Lab -> Completed, forward only.
// A completed order may carry a reference to the uploaded result file.
type LabOrder struct {
	ID             uuid.UUID `db:"id" json:"id"`
	VisitID        uuid.UUID `db:"visit_id" json:"visit_id"`
	LabTestID      uuid.UUID `db:"lab_test_id" json:"lab_test_id"`
	LabTestName    string    `db:"lab_test_name" json:"lab_test_name"`
	Note           string    `db:"note" json:"note,omitempty"`
	SentToLab      bool      `db:"sent_to_lab" json:"sent_to_lab"`
	CompletedByLab bool      `db:"completed_by_lab" json:"completed_by_lab"`
	LabNotes       string    `db:"lab_notes" json:"lab_notes,omitempty"`
	ResultFileURL  *string   `db:"result_file_url" json:"result_file_url,omitempty"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	LastModified   time.Time `db:"last_modified" json:"last_modified"`
}

const (
	StatusDraft     = "Draft"
	StatusSent      = "Sent to Lab"
	StatusCompleted = "Completed"
)

func (o *LabOrder) Status() string {
	switch {
	case o.CompletedByLab:
		return StatusCompleted
	case o.SentToLab:
		return StatusSent
	default:
		return StatusDraft
	}
}

func (o *LabOrder) StatusColor() string {
	switch o.Status() {
	case StatusCompleted:
		return "#4CAF50"
	case StatusSent:
		return "#FF9800"
	default:
		return "#9E9E9E"
	}
}

func (o *LabOrder) Clone() *LabOrder {
	out := *o
	if o.ResultFileURL != nil {
		v := *o.ResultFileURL
		out.ResultFileURL = &v
	}
	return &out
}

func (o *LabOrder) ToRecord() map[string]any {
	rec := map[string]any{
		"id":               o.ID.String(),
		"visit_id":         o.VisitID.String(),
		"lab_test_id":      o.LabTestID.String(),
		"lab_test_name":    o.LabTestName,
		"note":             o.Note,
		"sent_to_lab":      db.EncodeBool(o.SentToLab),
		"completed_by_lab": db.EncodeBool(o.CompletedByLab),
		"lab_notes":        o.LabNotes,
		"is_deleted":       db.EncodeBool(o.IsDeleted),
		"last_modified":    db.EncodeTime(o.LastModified),
	}
	// Unset optionals serialize as explicit nulls so a whole-record merge
	// clears them instead of keeping the replaced value.
	rec["result_file_url"] = nil
	if o.ResultFileURL != nil {
		rec["result_file_url"] = *o.ResultFileURL
	}
	return rec
}

func FromRecord(rec map[string]any) *LabOrder {
	id, _ := uuid.Parse(str(rec["id"]))
	visitID, _ := uuid.Parse(str(rec["visit_id"]))
	testID, _ := uuid.Parse(str(rec["lab_test_id"]))
	o := &LabOrder{
		ID:             id,
		VisitID:        visitID,
		LabTestID:      testID,
		LabTestName:    str(rec["lab_test_name"]),
		Note:           str(rec["note"]),
		SentToLab:      boolVal(rec["sent_to_lab"]),
		CompletedByLab: boolVal(rec["completed_by_lab"]),
		LabNotes:       str(rec["lab_notes"]),
		IsDeleted:      boolVal(rec["is_deleted"]),
		LastModified:   db.DecodeTime(str(rec["last_modified"])),
	}
	if v, ok := rec["result_file_url"].(string); ok {
		o.ResultFileURL = &v
	}
	return o
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
