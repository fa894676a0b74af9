package sync

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/memstore"
)

// storeMem runs the same merge semantics over the in-memory store. Table
// names match the relational schema, so entity routing is shared with the
// SQL implementation.
type storeMem struct{ store *memstore.Store }

func NewStoreMem(store *memstore.Store) Store {
	return &storeMem{store: store}
}

// The cursor lives in the sync_state table under a fixed key.
var cursorKey = uuid.Nil

func (s *storeMem) ListChangedSince(_ context.Context, since time.Time) ([]*Record, error) {
	var out []*Record
	for _, entityType := range EntityTypes {
		table := entityTables[entityType]
		var changed []*Record
		for _, doc := range s.store.List(table) {
			rec, err := RecordFromDoc(entityType, doc)
			if err != nil {
				return nil, err
			}
			if rec.LastModified.After(since) {
				changed = append(changed, rec)
			}
		}
		sort.Slice(changed, func(i, j int) bool {
			return changed[i].LastModified.Before(changed[j].LastModified)
		})
		out = append(out, changed...)
	}
	return out, nil
}

func (s *storeMem) Get(_ context.Context, entityType string, id uuid.UUID) (*Record, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	doc, ok := s.store.Get(table, id)
	if !ok {
		return nil, db.ErrNotFound
	}
	return RecordFromDoc(entityType, doc)
}

func (s *storeMem) Upsert(ctx context.Context, rec *Record) error {
	table, err := tableFor(rec.EntityType)
	if err != nil {
		return err
	}
	stored, err := s.Get(ctx, rec.EntityType, rec.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if Merge(stored, rec) != rec {
		return nil
	}
	s.store.Put(table, rec.ID, rec.Doc)
	return nil
}

func (s *storeMem) MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	stored, err := s.Get(ctx, entityType, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.LastModified.After(at) {
		return nil
	}
	s.store.Update(table, id, func(m memstore.Record) memstore.Record {
		m["is_deleted"] = db.EncodeBool(true)
		m["last_modified"] = db.EncodeTime(at)
		return m
	})
	return nil
}

func (s *storeMem) Cursor(_ context.Context) (time.Time, error) {
	rec, ok := s.store.Get(memstore.TableSyncState, cursorKey)
	if !ok {
		return time.Time{}, nil
	}
	raw, _ := rec["cursor"].(string)
	return db.DecodeTime(raw), nil
}

func (s *storeMem) SetCursor(_ context.Context, at time.Time) error {
	s.store.Put(memstore.TableSyncState, cursorKey, memstore.Record{
		"cursor": db.EncodeTime(at),
	})
	return nil
}
