package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// fakeRemote is an in-memory Remote built on the mem store implementation.
type fakeRemote struct {
	store Store
}

func (f *fakeRemote) ListChangedSince(ctx context.Context, since time.Time) ([]*Record, error) {
	return f.store.ListChangedSince(ctx, since)
}

func (f *fakeRemote) Upsert(ctx context.Context, rec *Record) error {
	return f.store.Upsert(ctx, rec)
}

func (f *fakeRemote) MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error {
	return f.store.MarkDeleted(ctx, entityType, id, at)
}

func patientDoc(id uuid.UUID, name string, ts time.Time, deleted bool) map[string]any {
	del := int16(0)
	if deleted {
		del = 1
	}
	return map[string]any{
		"id":            id.String(),
		"name":          name,
		"is_deleted":    del,
		"last_modified": db.EncodeTime(ts),
	}
}

func seed(t *testing.T, s Store, id uuid.UUID, name string, ts time.Time, deleted bool) {
	t.Helper()
	rec, err := RecordFromDoc(EntityPatient, patientDoc(id, name, ts, deleted))
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	if err := s.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newPair() (Store, Store, *Reconciler) {
	local := NewStoreMem(memstore.New())
	remote := NewStoreMem(memstore.New())
	r := NewReconciler(local, &fakeRemote{store: remote}, zerolog.Nop())
	return local, remote, r
}

func TestRunPullsRemoteChanges(t *testing.T) {
	local, remote, r := newPair()
	ctx := context.Background()

	id := uuid.New()
	seed(t, remote, id, "Jane Doe", time.Now().UTC(), false)

	stats, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Pulled != 1 || stats.Applied != 1 {
		t.Errorf("stats = %+v", stats)
	}

	got, err := local.Get(ctx, EntityPatient, id)
	if err != nil {
		t.Fatalf("local get: %v", err)
	}
	if name, _ := got.Doc["name"].(string); name != "Jane Doe" {
		t.Errorf("pulled name = %q", name)
	}
}

func TestRunPushesLocalChanges(t *testing.T) {
	local, remote, r := newPair()
	ctx := context.Background()

	id := uuid.New()
	seed(t, local, id, "Bob Ray", time.Now().UTC(), false)

	stats, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Pushed != 1 {
		t.Errorf("pushed = %d", stats.Pushed)
	}
	if _, err := remote.Get(ctx, EntityPatient, id); err != nil {
		t.Errorf("remote missing pushed record: %v", err)
	}
}

func TestRunResolvesConflictByTimestamp(t *testing.T) {
	local, remote, r := newPair()
	ctx := context.Background()

	id := uuid.New()
	t0 := time.Now().UTC()
	seed(t, local, id, "Old Name", t0, false)
	seed(t, remote, id, "New Name", t0.Add(time.Minute), false)

	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := local.Get(ctx, EntityPatient, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if name, _ := got.Doc["name"].(string); name != "New Name" {
		t.Errorf("conflict resolved to %q", name)
	}
}

func TestRunPropagatesTombstone(t *testing.T) {
	local, remote, r := newPair()
	ctx := context.Background()

	id := uuid.New()
	t0 := time.Now().UTC()
	seed(t, remote, id, "Jane", t0, false)
	seed(t, local, id, "Jane", t0, false)

	// Local delete after both replicas converged.
	if err := local.MarkDeleted(ctx, EntityPatient, id, t0.Add(time.Minute)); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}

	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := remote.Get(ctx, EntityPatient, id)
	if err != nil {
		t.Fatalf("remote get: %v", err)
	}
	if !got.IsDeleted {
		t.Error("tombstone did not propagate to remote")
	}
}

func TestRunAdvancesCursorSoPassesDoNotRepeat(t *testing.T) {
	local, remote, r := newPair()
	ctx := context.Background()

	seed(t, remote, uuid.New(), "Jane", time.Now().UTC(), false)

	first, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Pulled != 1 {
		t.Fatalf("first pull = %d", first.Pulled)
	}

	second, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Pulled != 0 || second.Pushed != 0 {
		t.Errorf("second pass repeated work: %+v", second)
	}

	cursor, err := local.Cursor(ctx)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if cursor.IsZero() {
		t.Error("cursor not persisted")
	}
}

func TestStoreUpsertDropsLosingRecords(t *testing.T) {
	store := NewStoreMem(memstore.New())
	ctx := context.Background()

	id := uuid.New()
	t0 := time.Now().UTC()
	seed(t, store, id, "Current", t0, false)

	stale, err := RecordFromDoc(EntityPatient, patientDoc(id, "Stale", t0.Add(-time.Hour), false))
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	if err := store.Upsert(ctx, stale); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.Get(ctx, EntityPatient, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if name, _ := got.Doc["name"].(string); name != "Current" {
		t.Errorf("stale write applied: %q", name)
	}
}

func TestStoreMarkDeletedIgnoresUnknownID(t *testing.T) {
	store := NewStoreMem(memstore.New())
	if err := store.MarkDeleted(context.Background(), EntityPatient, uuid.New(), time.Now()); err != nil {
		t.Fatalf("expected nil for unknown id, got %v", err)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStoreMem(memstore.New())
	_, err := store.Get(context.Background(), EntityPatient, uuid.New())
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
