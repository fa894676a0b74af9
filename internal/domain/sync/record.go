package sync

import (
	"time"

	"github.com/google/uuid"
)

// Entity types carried in change feeds. They name the four synchronized
// tables; catalogs and settings are configuration and do not sync.
const (
	EntityPatient      = "patient"
	EntityVisit        = "visit"
	EntityPrescription = "prescription"
	EntityLabOrder     = "lab_order"
)

// EntityTypes lists every synchronized entity type in dependency order:
// parents before children, so applying a feed in order never references a
// row that has not landed yet.
var EntityTypes = []string{EntityPatient, EntityVisit, EntityPrescription, EntityLabOrder}

// Record is the change-feed envelope for one row of one synchronized table.
// Doc holds the row in storage form, the same representation the in-memory
// store keeps, so both sides of a sync exchange whole records and merge is
// a whole-record comparison.
type Record struct {
	EntityType   string         `json:"entity_type"`
	ID           uuid.UUID      `json:"id"`
	LastModified time.Time      `json:"last_modified"`
	IsDeleted    bool           `json:"is_deleted"`
	Doc          map[string]any `json:"doc"`
}

// ValidEntityType reports whether t names a synchronized entity.
func ValidEntityType(t string) bool {
	for _, e := range EntityTypes {
		if e == t {
			return true
		}
	}
	return false
}
