package catalog

import (
	"context"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/db/dbtest"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// Catalog name uniqueness is case-insensitive on both backends. The pg
// subtests skip without TEST_DATABASE_URL.
func runDrugRepoContract(t *testing.T, fn func(t *testing.T, drugs DrugRepository)) {
	t.Run("mem", func(t *testing.T) {
		fn(t, NewDrugRepoMem(memstore.New()))
	})
	t.Run("pg", func(t *testing.T) {
		fn(t, NewDrugRepoPG(dbtest.Pool(t)))
	})
}

func TestDrugNameUniqueIgnoresCase(t *testing.T) {
	runDrugRepoContract(t, func(t *testing.T, drugs DrugRepository) {
		ctx := context.Background()
		if err := drugs.Create(ctx, &Drug{Name: "Ibuprofen 400mg"}); err != nil {
			t.Fatalf("create drug: %v", err)
		}

		err := drugs.Create(ctx, &Drug{Name: "IBUPROFEN 400mg"})
		if !db.IsConstraint(err) {
			t.Errorf("duplicate create = %v, want constraint error", err)
		}
	})
}

func TestDrugRenameOntoExistingNameRejected(t *testing.T) {
	runDrugRepoContract(t, func(t *testing.T, drugs DrugRepository) {
		ctx := context.Background()
		if err := drugs.Create(ctx, &Drug{Name: "Amoxicillin 500mg"}); err != nil {
			t.Fatalf("create first drug: %v", err)
		}
		second := &Drug{Name: "Paracetamol 500mg"}
		if err := drugs.Create(ctx, second); err != nil {
			t.Fatalf("create second drug: %v", err)
		}

		second.Name = "amoxicillin 500MG"
		err := drugs.Update(ctx, second)
		if !db.IsConstraint(err) {
			t.Errorf("rename onto taken name = %v, want constraint error", err)
		}

		// Re-saving under its own name is not a collision.
		second.Name = "Paracetamol 500mg"
		if err := drugs.Update(ctx, second); err != nil {
			t.Errorf("update keeping own name: %v", err)
		}
	})
}

func TestLabTestNameUniqueIgnoresCase(t *testing.T) {
	t.Run("mem", func(t *testing.T) {
		testLabTestDuplicate(t, NewLabTestRepoMem(memstore.New()))
	})
	t.Run("pg", func(t *testing.T) {
		testLabTestDuplicate(t, NewLabTestRepoPG(dbtest.Pool(t)))
	})
}

func testLabTestDuplicate(t *testing.T, tests LabTestRepository) {
	ctx := context.Background()
	if err := tests.Create(ctx, &LabTest{Name: "Complete Blood Count"}); err != nil {
		t.Fatalf("create lab test: %v", err)
	}
	err := tests.Create(ctx, &LabTest{Name: "complete blood count"})
	if !db.IsConstraint(err) {
		t.Errorf("duplicate create = %v, want constraint error", err)
	}
}
