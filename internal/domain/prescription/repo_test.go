package prescription_test

import (
	"context"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/catalog"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/db/dbtest"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

type contractRepos struct {
	rx       prescription.Repository
	patients patient.Repository
	visits   visit.Repository
	drugs    catalog.DrugRepository
}

// The pg subtests skip without TEST_DATABASE_URL.
func runRepoContract(t *testing.T, fn func(t *testing.T, r contractRepos)) {
	t.Run("mem", func(t *testing.T) {
		store := memstore.New()
		fn(t, contractRepos{
			rx:       prescription.NewRepoMem(store),
			patients: patient.NewRepoMem(store),
			visits:   visit.NewRepoMem(store),
			drugs:    catalog.NewDrugRepoMem(store),
		})
	})
	t.Run("pg", func(t *testing.T) {
		pool := dbtest.Pool(t)
		fn(t, contractRepos{
			rx:       prescription.NewRepoPG(pool),
			patients: patient.NewRepoPG(pool),
			visits:   visit.NewRepoPG(pool),
			drugs:    catalog.NewDrugRepoPG(pool),
		})
	})
}

func seedVisitWithDrug(t *testing.T, r contractRepos) (*visit.Visit, *catalog.Drug) {
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
	d := &catalog.Drug{Name: "Ibuprofen 400mg"}
	if err := r.drugs.Create(ctx, d); err != nil {
		t.Fatalf("create drug: %v", err)
	}
	return v, d
}

// A tombstoned visit still satisfies the foreign key; the repository has to
// reject new prescriptions under it on both backends.
func TestCreateRequiresLiveVisitContract(t *testing.T) {
	runRepoContract(t, func(t *testing.T, r contractRepos) {
		ctx := context.Background()
		now := time.Now().UTC()
		v, d := seedVisitWithDrug(t, r)

		rx := &prescription.Prescription{VisitID: v.ID, DrugID: d.ID, LastModified: now}
		if err := r.rx.Create(ctx, rx); err != nil {
			t.Fatalf("create under live visit: %v", err)
		}

		if err := r.visits.Delete(ctx, v.ID, now.Add(time.Second)); err != nil {
			t.Fatalf("delete visit: %v", err)
		}
		err := r.rx.Create(ctx, &prescription.Prescription{VisitID: v.ID, DrugID: d.ID, LastModified: now})
		if !db.IsConstraint(err) {
			t.Errorf("create under tombstoned visit = %v, want constraint error", err)
		}
	})
}

func TestGetResolvesDrugNameContract(t *testing.T) {
	runRepoContract(t, func(t *testing.T, r contractRepos) {
		ctx := context.Background()
		v, d := seedVisitWithDrug(t, r)

		rx := &prescription.Prescription{VisitID: v.ID, DrugID: d.ID, Note: "after meals", LastModified: time.Now().UTC()}
		if err := r.rx.Create(ctx, rx); err != nil {
			t.Fatalf("create prescription: %v", err)
		}
		got, err := r.rx.GetByID(ctx, rx.ID)
		if err != nil {
			t.Fatalf("get prescription: %v", err)
		}
		if got.DrugName != d.Name {
			t.Errorf("drug name = %q, want %q", got.DrugName, d.Name)
		}
		if got.Note != "after meals" {
			t.Errorf("note = %q", got.Note)
		}
	})
}
