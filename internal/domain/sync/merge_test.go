package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func rec(ts time.Time, deleted bool) *Record {
	return &Record{
		EntityType:   EntityPatient,
		ID:           uuid.New(),
		LastModified: ts,
		IsDeleted:    deleted,
		Doc:          map[string]any{},
	}
}

func TestMergeGreaterTimestampWins(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := rec(t0, false)
	newer := rec(t0.Add(time.Minute), false)

	if Merge(older, newer) != newer {
		t.Error("newer remote should win")
	}
	if Merge(newer, older) != newer {
		t.Error("newer local should win")
	}
}

func TestMergeEqualTimestampTombstoneWins(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alive := rec(t0, false)
	dead := rec(t0, true)

	if Merge(alive, dead) != dead {
		t.Error("remote tombstone should win the tie")
	}
	if Merge(dead, alive) != dead {
		t.Error("local tombstone should win the tie")
	}
}

func TestMergeLaterUndeleteOverridesTombstone(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dead := rec(t0, true)
	revived := rec(t0.Add(time.Hour), false)

	if Merge(dead, revived) != revived {
		t.Error("later non-tombstone should override the tombstone")
	}
}

func TestMergeNilSides(t *testing.T) {
	r := rec(time.Now(), false)
	if Merge(nil, r) != r {
		t.Error("nil local should yield remote")
	}
	if Merge(r, nil) != r {
		t.Error("nil remote should yield local")
	}
}

func TestMergeEqualNonTombstonesKeepsLocal(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := rec(t0, false)
	remote := rec(t0, false)
	if Merge(local, remote) != local {
		t.Error("tie between non-tombstones should keep the local copy")
	}
}
