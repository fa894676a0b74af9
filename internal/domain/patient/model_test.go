package patient

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func samplePatient() *Patient {
	weight := 70.0
	height := 175.0
	addr := "12 Main St"
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Patient{
		ID:              uuid.New(),
		Name:            "Jane Doe",
		Age:             34,
		Gender:          GenderFemale,
		Phone:           "+1-555-0100",
		Address:         &addr,
		WeightKG:        &weight,
		HeightCM:        &height,
		ChronicDiseases: []string{"asthma", "hypertension"},
		FamilyHistory:   "diabetes (father)",
		Notes:           "allergic to penicillin",
		FirstVisitDate:  &first,
		DoctorID:        "doc-1",
		IsPinned:        true,
		LastModified:    time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestRecordRoundTrip(t *testing.T) {
	p := samplePatient()
	got := FromRecord(p.ToRecord())

	if got.ID != p.ID || got.Name != p.Name || got.Age != p.Age {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.Gender != p.Gender || got.Phone != p.Phone {
		t.Errorf("contact fields lost: %+v", got)
	}
	if got.Address == nil || *got.Address != *p.Address {
		t.Errorf("address lost: %v", got.Address)
	}
	if got.WeightKG == nil || *got.WeightKG != *p.WeightKG {
		t.Errorf("weight lost: %v", got.WeightKG)
	}
	if len(got.ChronicDiseases) != 2 || got.ChronicDiseases[0] != "asthma" {
		t.Errorf("chronic diseases lost: %v", got.ChronicDiseases)
	}
	if got.FirstVisitDate == nil || !got.FirstVisitDate.Equal(*p.FirstVisitDate) {
		t.Errorf("first visit date lost: %v", got.FirstVisitDate)
	}
	if !got.IsPinned || got.IsDeleted {
		t.Errorf("flags lost: pinned=%v deleted=%v", got.IsPinned, got.IsDeleted)
	}
	if !got.LastModified.Equal(p.LastModified) {
		t.Errorf("last modified lost: %v", got.LastModified)
	}
}

// Unset optionals must still be present as nulls: a synced whole-record
// replace has to clear fields the sender cleared.
func TestRecordNullsUnsetOptionalFields(t *testing.T) {
	p := &Patient{ID: uuid.New(), Name: "John", LastModified: time.Now()}
	rec := p.ToRecord()
	for _, key := range []string{"address", "photo_url", "weight_kg", "height_cm", "first_visit_date"} {
		v, ok := rec[key]
		if !ok {
			t.Errorf("expected %s key to be present", key)
			continue
		}
		if v != nil {
			t.Errorf("expected %s to be nil, got %v", key, v)
		}
	}
	got := FromRecord(rec)
	if got.Address != nil || got.WeightKG != nil || got.FirstVisitDate != nil {
		t.Errorf("optional fields not nil after round trip: %+v", got)
	}
}

func TestBMI(t *testing.T) {
	p := samplePatient()
	got := p.BMI()
	want := 70.0 / (1.75 * 1.75)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("BMI = %v, want %v", got, want)
	}

	p.HeightCM = nil
	if p.BMI() != 0 {
		t.Error("BMI without height should be 0")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := samplePatient()
	c := p.Clone()
	*c.WeightKG = 99
	c.ChronicDiseases[0] = "changed"
	if *p.WeightKG == 99 {
		t.Error("clone shares weight pointer")
	}
	if p.ChronicDiseases[0] == "changed" {
		t.Error("clone shares disease slice")
	}
}
