package settings

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

type repoMem struct{ store *memstore.Store }

// NewRepoMem seeds a default settings row, matching what the seed migration
// does for the relational store.
func NewRepoMem(store *memstore.Store) Repository {
	r := &repoMem{store: store}
	if store.Len(memstore.TableDoctorSettings) == 0 {
		def := &DoctorSettings{ID: uuid.New(), DoctorName: "Doctor"}
		store.Put(memstore.TableDoctorSettings, def.ID, def.ToRecord())
	}
	return r
}

func (r *repoMem) Get(_ context.Context) (*DoctorSettings, error) {
	rows := r.store.List(memstore.TableDoctorSettings)
	if len(rows) == 0 {
		return nil, db.ErrNotFound
	}
	return FromRecord(rows[0]), nil
}

func (r *repoMem) Update(_ context.Context, s *DoctorSettings) error {
	if _, ok := r.store.Get(memstore.TableDoctorSettings, s.ID); !ok {
		return db.ErrNotFound
	}
	r.store.Put(memstore.TableDoctorSettings, s.ID, s.ToRecord())
	return nil
}
