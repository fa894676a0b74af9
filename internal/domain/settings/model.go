package settings

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// DoctorSettings is the singleton practice profile. The seed migration
// inserts the single row; it is only ever updated, never created or deleted
// through the API.
type DoctorSettings struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DoctorName   string    `db:"doctor_name" json:"doctor_name"`
	Specialty    string    `db:"specialty" json:"specialty,omitempty"`
	ClinicName   string    `db:"clinic_name" json:"clinic_name,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Address      string    `db:"address" json:"address,omitempty"`
	PhotoURL     *string   `db:"photo_url" json:"photo_url,omitempty"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`
}

func (s *DoctorSettings) Clone() *DoctorSettings {
	out := *s
	if s.PhotoURL != nil {
		v := *s.PhotoURL
		out.PhotoURL = &v
	}
	return &out
}

func (s *DoctorSettings) ToRecord() map[string]any {
	rec := map[string]any{
		"id":            s.ID.String(),
		"doctor_name":   s.DoctorName,
		"specialty":     s.Specialty,
		"clinic_name":   s.ClinicName,
		"phone":         s.Phone,
		"address":       s.Address,
		"last_modified": db.EncodeTime(s.LastModified),
	}
	if s.PhotoURL != nil {
		rec["photo_url"] = *s.PhotoURL
	}
	return rec
}

func FromRecord(rec map[string]any) *DoctorSettings {
	id, _ := uuid.Parse(str(rec["id"]))
	s := &DoctorSettings{
		ID:           id,
		DoctorName:   str(rec["doctor_name"]),
		Specialty:    str(rec["specialty"]),
		ClinicName:   str(rec["clinic_name"]),
		Phone:        str(rec["phone"]),
		Address:      str(rec["address"]),
		LastModified: db.DecodeTime(str(rec["last_modified"])),
	}
	if v, ok := rec["photo_url"].(string); ok {
		s.PhotoURL = &v
	}
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
