package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// Patient is the root entity of a clinical record. Identifiers are generated
// uuids so records created offline never collide on merge. Every patient
// carries the sync pair (LastModified, IsDeleted); tombstoned patients are
// retained for propagation and excluded from normal reads.
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Age             int        `db:"age" json:"age"`
	Gender          string     `db:"gender" json:"gender"`
	Phone           string     `db:"phone" json:"phone"`
	Address         *string    `db:"address" json:"address,omitempty"`
	PhotoURL        *string    `db:"photo_url" json:"photo_url,omitempty"`
	WeightKG        *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCM        *float64   `db:"height_cm" json:"height_cm,omitempty"`
	ChronicDiseases []string   `db:"chronic_diseases" json:"chronic_diseases,omitempty"`
	FamilyHistory   string     `db:"family_history" json:"family_history,omitempty"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	FirstVisitDate  *time.Time `db:"first_visit_date" json:"first_visit_date,omitempty"`
	DoctorID        string     `db:"doctor_id" json:"doctor_id,omitempty"`
	IsPinned        bool       `db:"is_pinned" json:"is_pinned"`
	IsDeleted       bool       `db:"is_deleted" json:"is_deleted"`
	LastModified    time.Time  `db:"last_modified" json:"last_modified"`
}

// Gender values accepted on create and update.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// BMI derives body mass index from weight and height. Returns 0 when either
// measurement is missing or non-positive.
func (p *Patient) BMI() float64 {
	if p.WeightKG == nil || p.HeightCM == nil || *p.WeightKG <= 0 || *p.HeightCM <= 0 {
		return 0
	}
	m := *p.HeightCM / 100
	return *p.WeightKG / (m * m)
}

// Clone returns a deep copy. Mutation happens on the copy; the stored value
// is only replaced through the repository update path.
func (p *Patient) Clone() *Patient {
	out := *p
	if p.Address != nil {
		v := *p.Address
		out.Address = &v
	}
	if p.PhotoURL != nil {
		v := *p.PhotoURL
		out.PhotoURL = &v
	}
	if p.WeightKG != nil {
		v := *p.WeightKG
		out.WeightKG = &v
	}
	if p.HeightCM != nil {
		v := *p.HeightCM
		out.HeightCM = &v
	}
	if p.FirstVisitDate != nil {
		v := *p.FirstVisitDate
		out.FirstVisitDate = &v
	}
	if p.ChronicDiseases != nil {
		out.ChronicDiseases = append([]string(nil), p.ChronicDiseases...)
	}
	return &out
}

// ToRecord serializes into storage form: snake_case keys, 0/1 booleans, the
// chronic-disease list as a JSON blob, timestamps as RFC3339 strings. Unset
// optionals serialize as explicit nulls so a whole-record merge clears them
// instead of keeping the replaced value.
func (p *Patient) ToRecord() map[string]any {
	return map[string]any{
		"id":               p.ID.String(),
		"name":             p.Name,
		"age":              p.Age,
		"gender":           p.Gender,
		"phone":            p.Phone,
		"address":          nullableStr(p.Address),
		"photo_url":        nullableStr(p.PhotoURL),
		"weight_kg":        nullableFloat(p.WeightKG),
		"height_cm":        nullableFloat(p.HeightCM),
		"chronic_diseases": db.EncodeStringList(p.ChronicDiseases),
		"family_history":   p.FamilyHistory,
		"notes":            p.Notes,
		"first_visit_date": nullableTime(p.FirstVisitDate),
		"doctor_id":        p.DoctorID,
		"is_pinned":        db.EncodeBool(p.IsPinned),
		"is_deleted":       db.EncodeBool(p.IsDeleted),
		"last_modified":    db.EncodeTime(p.LastModified),
	}
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return db.EncodeTime(*v)
}

// FromRecord rebuilds a patient from storage form.
func FromRecord(rec map[string]any) *Patient {
	id, _ := uuid.Parse(str(rec["id"]))
	p := &Patient{
		ID:              id,
		Name:            str(rec["name"]),
		Age:             intVal(rec["age"]),
		Gender:          str(rec["gender"]),
		Phone:           str(rec["phone"]),
		ChronicDiseases: db.DecodeStringList(str(rec["chronic_diseases"])),
		FamilyHistory:   str(rec["family_history"]),
		Notes:           str(rec["notes"]),
		DoctorID:        str(rec["doctor_id"]),
		IsPinned:        boolVal(rec["is_pinned"]),
		IsDeleted:       boolVal(rec["is_deleted"]),
		LastModified:    db.DecodeTime(str(rec["last_modified"])),
	}
	if v, ok := rec["address"].(string); ok {
		p.Address = &v
	}
	if v, ok := rec["photo_url"].(string); ok {
		p.PhotoURL = &v
	}
	if v, ok := floatPtr(rec["weight_kg"]); ok {
		p.WeightKG = v
	}
	if v, ok := floatPtr(rec["height_cm"]); ok {
		p.HeightCM = v
	}
	if s, ok := rec["first_visit_date"].(string); ok && s != "" {
		t := db.DecodeTime(s)
		p.FirstVisitDate = &t
	}
	return p
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

func floatPtr(v any) (*float64, bool) {
	switch n := v.(type) {
	case float64:
		return &n, true
	case int:
		f := float64(n)
		return &f, true
	}
	return nil, false
}
