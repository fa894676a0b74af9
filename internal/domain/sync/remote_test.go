package sync

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// Spins up the collaborator surface behind production auth and points the
// resty client at it, as two deployments syncing against each other would.
func newSyncServer(t *testing.T) (Store, *httptest.Server) {
	t.Helper()
	store := NewStoreMem(memstore.New())
	e := echo.New()
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		SigningKey: []byte("signing-key"),
		SyncAPIKey: "shared-secret",
	}))
	NewHandler(store).RegisterRoutes(e.Group("/api/v1"))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return store, srv
}

func TestRemoteAuthenticatesWithAPIKey(t *testing.T) {
	store, srv := newSyncServer(t)
	ctx := context.Background()

	id := uuid.New()
	seed(t, store, id, "Jane Doe", time.Now().UTC(), false)

	remote := NewRemote(srv.URL, "shared-secret")
	records, err := remote.ListChangedSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != id {
		t.Errorf("records = %+v", records)
	}
}

func TestRemotePushesThroughAuthenticatedSurface(t *testing.T) {
	store, srv := newSyncServer(t)
	ctx := context.Background()

	remote := NewRemote(srv.URL, "shared-secret")
	id := uuid.New()
	rec, err := RecordFromDoc(EntityPatient, patientDoc(id, "Bob Ray", time.Now().UTC(), false))
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	if err := remote.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.Get(ctx, EntityPatient, id); err != nil {
		t.Errorf("pushed record not stored: %v", err)
	}

	if err := remote.MarkDeleted(ctx, EntityPatient, id, time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	got, err := store.Get(ctx, EntityPatient, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsDeleted {
		t.Error("tombstone not applied")
	}
}

func TestRemoteRejectedWithWrongKey(t *testing.T) {
	_, srv := newSyncServer(t)

	remote := NewRemote(srv.URL, "wrong-secret")
	if _, err := remote.ListChangedSince(context.Background(), time.Time{}); err == nil {
		t.Fatal("expected auth failure with wrong api key")
	}
}
