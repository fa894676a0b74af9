package laborder_test

import (
	"context"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/catalog"
	"github.com/clinicdesk/clinicdesk/internal/domain/laborder"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/db/dbtest"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

type contractRepos struct {
	orders   laborder.Repository
	patients patient.Repository
	visits   visit.Repository
	tests    catalog.LabTestRepository
}

// The pg subtests skip without TEST_DATABASE_URL.
func runRepoContract(t *testing.T, fn func(t *testing.T, r contractRepos)) {
	t.Run("mem", func(t *testing.T) {
		store := memstore.New()
		fn(t, contractRepos{
			orders:   laborder.NewRepoMem(store),
			patients: patient.NewRepoMem(store),
			visits:   visit.NewRepoMem(store),
			tests:    catalog.NewLabTestRepoMem(store),
		})
	})
	t.Run("pg", func(t *testing.T) {
		pool := dbtest.Pool(t)
		fn(t, contractRepos{
			orders:   laborder.NewRepoPG(pool),
			patients: patient.NewRepoPG(pool),
			visits:   visit.NewRepoPG(pool),
			tests:    catalog.NewLabTestRepoPG(pool),
		})
	})
}

func seedVisitWithTest(t *testing.T, r contractRepos) (*visit.Visit, *catalog.LabTest) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	p := &patient.Patient{Name: "Jane Doe", Age: 40, LastModified: now}
	if err := r.patients.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	v := &visit.Visit{PatientID: p.ID, VisitDate: now, LastModified: now}
	if err := r.visits.Create(ctx, v); err != nil {
		t.Fatalf("create visit: %v", err)
	}
	lt := &catalog.LabTest{Name: "Complete Blood Count"}
	if err := r.tests.Create(ctx, lt); err != nil {
		t.Fatalf("create lab test: %v", err)
	}
	return v, lt
}

// A tombstoned visit still satisfies the foreign key; the repository has to
// reject new orders under it on both backends.
func TestCreateRequiresLiveVisitContract(t *testing.T) {
	runRepoContract(t, func(t *testing.T, r contractRepos) {
		ctx := context.Background()
		now := time.Now().UTC()
		v, lt := seedVisitWithTest(t, r)

		o := &laborder.LabOrder{VisitID: v.ID, LabTestID: lt.ID, LastModified: now}
		if err := r.orders.Create(ctx, o); err != nil {
			t.Fatalf("create under live visit: %v", err)
		}

		if err := r.visits.Delete(ctx, v.ID, now.Add(time.Second)); err != nil {
			t.Fatalf("delete visit: %v", err)
		}
		err := r.orders.Create(ctx, &laborder.LabOrder{VisitID: v.ID, LabTestID: lt.ID, LastModified: now})
		if !db.IsConstraint(err) {
			t.Errorf("create under tombstoned visit = %v, want constraint error", err)
		}
	})
}

func TestGetResolvesTestNameContract(t *testing.T) {
	runRepoContract(t, func(t *testing.T, r contractRepos) {
		ctx := context.Background()
		v, lt := seedVisitWithTest(t, r)

		o := &laborder.LabOrder{VisitID: v.ID, LabTestID: lt.ID, Note: "fasting", LastModified: time.Now().UTC()}
		if err := r.orders.Create(ctx, o); err != nil {
			t.Fatalf("create lab order: %v", err)
		}
		got, err := r.orders.GetByID(ctx, o.ID)
		if err != nil {
			t.Fatalf("get lab order: %v", err)
		}
		if got.LabTestName != lt.Name {
			t.Errorf("test name = %q, want %q", got.LabTestName, lt.Name)
		}
		if got.Note != "fasting" {
			t.Errorf("note = %q", got.Note)
		}
	})
}
