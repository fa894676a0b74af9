// Package memstore is a transient in-memory table store used when the
// relational store cannot be opened. Rows are kept in their storage form
// (snake_case keys, booleans as 0/1 integers, list fields as encoded string
// blobs) so domain repositories share one codec with the SQL layer.
package memstore

import (
	"sync"

	"github.com/google/uuid"
)

// Record is one row in storage form.
type Record = map[string]any

// Store holds every table of the clinic schema in memory. All access is
// serialized by a single mutex; operations copy records on the way in and
// out so callers never share map instances.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[uuid.UUID]Record
}

// Table names mirror the relational schema.
const (
	TablePatients       = "patients"
	TableVisits         = "visits"
	TableDrugs          = "drugs"
	TableLabTests       = "lab_tests"
	TablePrescriptions  = "prescriptions"
	TableLabOrders      = "lab_orders"
	TableDoctorSettings = "doctor_settings"
	TableSyncState      = "sync_state"
)

func New() *Store {
	s := &Store{tables: make(map[string]map[uuid.UUID]Record)}
	for _, t := range []string{
		TablePatients, TableVisits, TableDrugs, TableLabTests,
		TablePrescriptions, TableLabOrders, TableDoctorSettings, TableSyncState,
	} {
		s.tables[t] = make(map[uuid.UUID]Record)
	}
	return s
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// Put inserts or replaces a row.
func (s *Store) Put(table string, id uuid.UUID, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table][id] = copyRecord(rec)
}

// Get returns the row and whether it exists. Tombstone filtering is the
// caller's concern; the store is deliberately dumb.
func (s *Store) Get(table string, id uuid.UUID) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

// Delete physically removes a row. Normal deletion flows tombstone via Put;
// this is the purge path.
func (s *Store) Delete(table string, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables[table], id)
}

// List returns a copy of every row in the table, in no particular order.
func (s *Store) List(table string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]Record, 0, len(s.tables[table]))
	for _, rec := range s.tables[table] {
		rows = append(rows, copyRecord(rec))
	}
	return rows
}

// Update applies fn to the stored row under the write lock. It returns false
// if the row does not exist. fn receives a copy; the returned record replaces
// the stored one.
func (s *Store) Update(table string, id uuid.UUID, fn func(Record) Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return false
	}
	s.tables[table][id] = fn(copyRecord(rec))
	return true
}

// Len reports the number of rows in a table, tombstones included.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}
