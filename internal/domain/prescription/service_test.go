package prescription

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

func newTestService() (*Service, *memstore.Store, uuid.UUID, uuid.UUID) {
	store := memstore.New()
	visitID := uuid.New()
	store.Put(memstore.TableVisits, visitID, memstore.Record{
		"id":         visitID.String(),
		"is_deleted": int16(0),
	})
	drugID := uuid.New()
	store.Put(memstore.TableDrugs, drugID, memstore.Record{
		"id":   drugID.String(),
		"name": "Ibuprofen",
	})
	return NewService(NewRepoMem(store)), store, visitID, drugID
}

func TestStatusDerivation(t *testing.T) {
	p := &Prescription{}
	if p.Status() != StatusDraft {
		t.Errorf("empty flags: %s", p.Status())
	}
	p.SentToPharmacy = true
	if p.Status() != StatusSent {
		t.Errorf("sent: %s", p.Status())
	}
	p.FulfilledByPharmacy = true
	if p.Status() != StatusFulfilled {
		t.Errorf("fulfilled: %s", p.Status())
	}
}

func TestCreateResolvesDrugName(t *testing.T) {
	svc, _, visitID, drugID := newTestService()
	ctx := context.Background()

	p := &Prescription{VisitID: visitID, DrugID: drugID, Note: "200mg twice daily"}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DrugName != "Ibuprofen" {
		t.Errorf("drug name = %q", got.DrugName)
	}
	if got.Status() != StatusDraft {
		t.Errorf("new prescription status = %q", got.Status())
	}
}

func TestCreateRejectsUnknownDrug(t *testing.T) {
	svc, _, visitID, _ := newTestService()
	err := svc.Create(context.Background(),
		&Prescription{VisitID: visitID, DrugID: uuid.New()})
	if !db.IsConstraint(err) {
		t.Fatalf("expected constraint error, got %v", err)
	}
}

func TestCreateRejectsUnknownVisit(t *testing.T) {
	svc, _, _, drugID := newTestService()
	err := svc.Create(context.Background(),
		&Prescription{VisitID: uuid.New(), DrugID: drugID})
	if !db.IsConstraint(err) {
		t.Fatalf("expected constraint error, got %v", err)
	}
}

func TestCreateRejectsFulfilledBeforeSent(t *testing.T) {
	svc, _, visitID, drugID := newTestService()
	err := svc.Create(context.Background(), &Prescription{
		VisitID:             visitID,
		DrugID:              drugID,
		FulfilledByPharmacy: true,
	})
	if err == nil {
		t.Fatal("expected workflow error")
	}
}

func TestWorkflowAdvances(t *testing.T) {
	svc, _, visitID, drugID := newTestService()
	ctx := context.Background()

	p := &Prescription{VisitID: visitID, DrugID: drugID}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p = p.Clone()
	p.SentToPharmacy = true
	if err := svc.Update(ctx, p); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, _ := svc.GetByID(ctx, p.ID)
	if got.Status() != StatusSent {
		t.Errorf("after send: %q", got.Status())
	}

	p = got.Clone()
	p.FulfilledByPharmacy = true
	p.PharmacyNotes = "dispensed generic"
	if err := svc.Update(ctx, p); err != nil {
		t.Fatalf("fulfil: %v", err)
	}
	got, _ = svc.GetByID(ctx, p.ID)
	if got.Status() != StatusFulfilled {
		t.Errorf("after fulfil: %q", got.Status())
	}
	if got.PharmacyNotes != "dispensed generic" {
		t.Errorf("pharmacy notes = %q", got.PharmacyNotes)
	}
}

func TestWorkflowCannotSkipOrRewind(t *testing.T) {
	svc, _, visitID, drugID := newTestService()
	ctx := context.Background()

	p := &Prescription{VisitID: visitID, DrugID: drugID}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	skip := p.Clone()
	skip.FulfilledByPharmacy = true
	if err := svc.Update(ctx, skip); err == nil {
		t.Error("expected rejection of fulfilled-without-sent")
	}

	sent := p.Clone()
	sent.SentToPharmacy = true
	if err := svc.Update(ctx, sent); err != nil {
		t.Fatalf("send: %v", err)
	}

	rewind := sent.Clone()
	rewind.SentToPharmacy = false
	if err := svc.Update(ctx, rewind); err == nil {
		t.Error("expected rejection of clearing sent flag")
	}
}

func TestDeleteTombstones(t *testing.T) {
	svc, store, visitID, drugID := newTestService()
	ctx := context.Background()

	p := &Prescription{VisitID: visitID, DrugID: drugID}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, p.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := store.Get(memstore.TablePrescriptions, p.ID); !ok {
		t.Error("tombstone physically removed")
	}
}

func TestListByVisitIDsGroupsChildren(t *testing.T) {
	svc, store, visitID, drugID := newTestService()
	ctx := context.Background()

	otherVisit := uuid.New()
	store.Put(memstore.TableVisits, otherVisit, memstore.Record{
		"id":         otherVisit.String(),
		"is_deleted": int16(0),
	})

	for i, vid := range []uuid.UUID{visitID, visitID, otherVisit} {
		p := &Prescription{VisitID: vid, DrugID: drugID}
		if err := svc.Create(ctx, p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	grouped, err := svc.repo.ListByVisitIDs(ctx, []uuid.UUID{visitID, otherVisit})
	if err != nil {
		t.Fatalf("batch list: %v", err)
	}
	if len(grouped[visitID]) != 2 || len(grouped[otherVisit]) != 1 {
		t.Errorf("grouping wrong: %d / %d", len(grouped[visitID]), len(grouped[otherVisit]))
	}
}
