package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/catalog"
	"github.com/clinicdesk/clinicdesk/internal/domain/laborder"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/internal/domain/sync"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewService(
		patient.NewRepoMem(store),
		visit.NewRepoMem(store),
		prescription.NewRepoMem(store),
		laborder.NewRepoMem(store),
		catalog.NewDrugRepoMem(store),
		catalog.NewLabTestRepoMem(store),
		sync.NewStoreMem(store),
	), store
}

func seedClinic(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()

	patients := patient.NewService(patient.NewRepoMem(store))
	drugs := catalog.NewDrugRepoMem(store)
	visits := visit.NewRepoMem(store)
	rx := prescription.NewRepoMem(store)

	p1 := &patient.Patient{Name: "Jane Doe", Age: 34, Gender: patient.GenderFemale}
	p2 := &patient.Patient{Name: "Bob Ray", Age: 52, Gender: patient.GenderMale}
	for _, p := range []*patient.Patient{p1, p2} {
		if err := patients.Create(ctx, p); err != nil {
			t.Fatalf("create patient: %v", err)
		}
	}

	d := &catalog.Drug{Name: "Ibuprofen"}
	if err := drugs.Create(ctx, d); err != nil {
		t.Fatalf("create drug: %v", err)
	}

	v := &visit.Visit{PatientID: p1.ID, VisitDate: time.Now().UTC(), LastModified: time.Now().UTC()}
	if err := visits.Create(ctx, v); err != nil {
		t.Fatalf("create visit: %v", err)
	}
	r := &prescription.Prescription{VisitID: v.ID, DrugID: d.ID, LastModified: time.Now().UTC()}
	if err := rx.Create(ctx, r); err != nil {
		t.Fatalf("create prescription: %v", err)
	}
}

func TestUsageStats(t *testing.T) {
	svc, store := newTestService(t)
	seedClinic(t, store)

	stats, err := svc.Usage(context.Background())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if stats.Patients != 2 || stats.Visits != 1 || stats.Prescriptions != 1 {
		t.Errorf("counts = %d/%d/%d", stats.Patients, stats.Visits, stats.Prescriptions)
	}
	if stats.PatientsByGender[patient.GenderFemale] != 1 {
		t.Errorf("gender counts = %v", stats.PatientsByGender)
	}
	if len(stats.TopDrugs) != 1 || stats.TopDrugs[0].Name != "Ibuprofen" {
		t.Errorf("top drugs = %+v", stats.TopDrugs)
	}
}

func TestUsageExcludesTombstones(t *testing.T) {
	svc, store := newTestService(t)
	seedClinic(t, store)
	ctx := context.Background()

	patients := patient.NewService(patient.NewRepoMem(store))
	all, err := patients.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := patients.Delete(ctx, all[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stats, err := svc.Usage(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if stats.Patients != 1 {
		t.Errorf("patients = %d after delete", stats.Patients)
	}
}

func TestExportWorkbookSheets(t *testing.T) {
	svc, store := newTestService(t)
	seedClinic(t, store)

	f, err := svc.ExportWorkbook(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Patients", "Visits", "Prescriptions", "Lab Orders"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	rows, err := f.GetRows("Patients")
	if err != nil {
		t.Fatalf("read patients sheet: %v", err)
	}
	// Header plus the two seeded patients.
	if len(rows) != 3 {
		t.Errorf("patients sheet has %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Errorf("header = %v", rows[0])
	}
}

func TestExportSkipsTombstones(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	id := uuid.New()
	store.Put(memstore.TablePatients, id, memstore.Record{
		"id":            id.String(),
		"name":          "Ghost",
		"is_deleted":    int16(1),
		"last_modified": time.Now().UTC().Format(time.RFC3339Nano),
	})

	f, err := svc.ExportWorkbook(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Patients")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("tombstoned row exported: %d rows", len(rows))
	}
}
