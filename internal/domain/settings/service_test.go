package settings

import (
	"context"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

func TestGetReturnsSeededRow(t *testing.T) {
	svc := NewService(NewRepoMem(memstore.New()))
	s, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.DoctorName == "" {
		t.Error("seeded settings missing doctor name")
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	svc := NewService(NewRepoMem(memstore.New()))
	ctx := context.Background()

	before, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	url := "files/profile.jpg"
	updated, err := svc.Update(ctx, &DoctorSettings{
		DoctorName: "Dr. Sarah Ahmed",
		Specialty:  "Cardiology",
		ClinicName: "Heart Care Clinic",
		PhotoURL:   &url,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != before.ID {
		t.Error("singleton identity changed on update")
	}
	if updated.LastModified.Before(before.LastModified) {
		t.Error("last modified moved backward")
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.DoctorName != "Dr. Sarah Ahmed" || got.Specialty != "Cardiology" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.PhotoURL == nil || *got.PhotoURL != url {
		t.Errorf("photo url not persisted: %v", got.PhotoURL)
	}
}

func TestUpdateRequiresName(t *testing.T) {
	svc := NewService(NewRepoMem(memstore.New()))
	if _, err := svc.Update(context.Background(), &DoctorSettings{DoctorName: " "}); err == nil {
		t.Fatal("expected validation error")
	}
}
