package memstore

import (
	"testing"

	"github.com/google/uuid"
)

func TestPutGetCopies(t *testing.T) {
	s := New()
	id := uuid.New()

	rec := Record{"id": id.String(), "name": "Jane"}
	s.Put(TablePatients, id, rec)

	// Mutating the caller's map must not reach the stored row.
	rec["name"] = "changed"

	got, ok := s.Get(TablePatients, id)
	if !ok {
		t.Fatal("row missing")
	}
	if got["name"] != "Jane" {
		t.Errorf("stored row shares caller's map: %v", got["name"])
	}

	// And mutating the returned copy must not either.
	got["name"] = "also changed"
	again, _ := s.Get(TablePatients, id)
	if again["name"] != "Jane" {
		t.Error("Get returned the stored map itself")
	}
}

func TestGetUnknown(t *testing.T) {
	s := New()
	if _, ok := s.Get(TablePatients, uuid.New()); ok {
		t.Error("unknown id reported as present")
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	s := New()
	id := uuid.New()
	s.Put(TableDrugs, id, Record{"name": "Ibuprofen"})

	s.Delete(TableDrugs, id)
	if _, ok := s.Get(TableDrugs, id); ok {
		t.Error("row survived delete")
	}
	if s.Len(TableDrugs) != 0 {
		t.Errorf("len = %d", s.Len(TableDrugs))
	}
}

func TestListReturnsAllRows(t *testing.T) {
	s := New()
	s.Put(TableVisits, uuid.New(), Record{"notes": "a"})
	s.Put(TableVisits, uuid.New(), Record{"notes": "b"})

	rows := s.List(TableVisits)
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
}

func TestUpdateAppliesUnderLock(t *testing.T) {
	s := New()
	id := uuid.New()
	s.Put(TablePatients, id, Record{"age": 30})

	ok := s.Update(TablePatients, id, func(rec Record) Record {
		rec["age"] = 31
		return rec
	})
	if !ok {
		t.Fatal("update reported missing row")
	}
	got, _ := s.Get(TablePatients, id)
	if got["age"] != 31 {
		t.Errorf("age = %v", got["age"])
	}

	if s.Update(TablePatients, uuid.New(), func(rec Record) Record { return rec }) {
		t.Error("update on unknown id reported true")
	}
}
