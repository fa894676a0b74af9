package sync

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

var entityTables = map[string]string{
	EntityPatient:      "patients",
	EntityVisit:        "visits",
	EntityPrescription: "prescriptions",
	EntityLabOrder:     "lab_orders",
}

func tableFor(entityType string) (string, error) {
	t, ok := entityTables[entityType]
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", entityType)
	}
	return t, nil
}

// Column sets of the synchronized tables. Docs may carry extra derived keys
// (a prescription's resolved drug_name, for one); writes only touch real
// columns so records from any deployment land cleanly.
var tableColumns = map[string][]string{
	"patients": {
		"id", "name", "age", "gender", "phone", "address", "photo_url",
		"weight_kg", "height_cm", "chronic_diseases", "family_history",
		"notes", "first_visit_date", "doctor_id", "is_pinned", "is_deleted",
		"last_modified",
	},
	"visits": {
		"id", "patient_id", "doctor_id", "visit_date", "visit_number",
		"notes", "is_deleted", "last_modified",
	},
	"prescriptions": {
		"id", "visit_id", "drug_id", "note", "sent_to_pharmacy",
		"fulfilled_by_pharmacy", "pharmacy_notes", "is_deleted",
		"last_modified",
	},
	"lab_orders": {
		"id", "visit_id", "lab_test_id", "note", "sent_to_lab",
		"completed_by_lab", "lab_notes", "result_file_url", "is_deleted",
		"last_modified",
	},
}

// upsertColumns returns the doc keys that are real columns of the table,
// sorted for a stable statement shape.
func upsertColumns(table string, doc map[string]any) []string {
	var keys []string
	for _, col := range tableColumns[table] {
		if _, ok := doc[col]; ok {
			keys = append(keys, col)
		}
	}
	sort.Strings(keys)
	return keys
}

// Rows travel as row_to_json so every column arrives in a wire-stable form
// (uuids and timestamps as strings) without per-table scan code.
func (s *storePG) ListChangedSince(ctx context.Context, since time.Time) ([]*Record, error) {
	var out []*Record
	for _, entityType := range EntityTypes {
		table := entityTables[entityType]
		rows, err := s.pool.Query(ctx, `
			SELECT row_to_json(t) FROM `+table+` t
			WHERE t.last_modified > $1
			ORDER BY t.last_modified ASC`, since)
		if err != nil {
			return nil, db.MapError(err)
		}
		for rows.Next() {
			var blob []byte
			if err := rows.Scan(&blob); err != nil {
				rows.Close()
				return nil, db.MapError(err)
			}
			rec, err := recordFromJSON(entityType, blob)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, db.MapError(err)
		}
	}
	return out, nil
}

func (s *storePG) Get(ctx context.Context, entityType string, id uuid.UUID) (*Record, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	var blob []byte
	err = s.pool.QueryRow(ctx,
		`SELECT row_to_json(t) FROM `+table+` t WHERE t.id = $1`, id).Scan(&blob)
	if err != nil {
		return nil, db.MapError(err)
	}
	return recordFromJSON(entityType, blob)
}

func recordFromJSON(entityType string, blob []byte) (*Record, error) {
	var doc map[string]any
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", entityType, err)
	}
	return RecordFromDoc(entityType, doc)
}

// RecordFromDoc builds the envelope from a storage-form document.
func RecordFromDoc(entityType string, doc map[string]any) (*Record, error) {
	idStr, _ := doc["id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("%s doc has invalid id %q", entityType, idStr)
	}
	lm, _ := doc["last_modified"].(string)
	return &Record{
		EntityType:   entityType,
		ID:           id,
		LastModified: db.DecodeTime(lm),
		IsDeleted:    docBool(doc["is_deleted"]),
		Doc:          doc,
	}, nil
}

func docBool(v any) bool {
	switch n := v.(type) {
	case int16:
		return n != 0
	case int:
		return n != 0
	case int64:
		return n != 0
	case float64:
		return n != 0
	case bool:
		return n
	}
	return false
}

// Upsert writes the record under the last-write-wins guard: the row only
// changes when the incoming copy would win the merge.
func (s *storePG) Upsert(ctx context.Context, rec *Record) error {
	table, err := tableFor(rec.EntityType)
	if err != nil {
		return err
	}

	keys := upsertColumns(table, rec.Doc)

	cols := make([]string, 0, len(keys))
	holders := make([]string, 0, len(keys))
	updates := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		v, err := sqlValue(k, rec.Doc[k])
		if err != nil {
			return fmt.Errorf("%s.%s: %w", table, k, err)
		}
		cols = append(cols, k)
		holders = append(holders, fmt.Sprintf("$%d", i+1))
		if k != "id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", k, k))
		}
		args = append(args, v)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET %s
		WHERE %s.last_modified < EXCLUDED.last_modified
		   OR (%s.last_modified = EXCLUDED.last_modified AND EXCLUDED.is_deleted = 1)`,
		table, strings.Join(cols, ", "), strings.Join(holders, ", "),
		strings.Join(updates, ", "), table, table)

	_, err = s.pool.Exec(ctx, sql, args...)
	return db.MapError(err)
}

// sqlValue converts a storage-form value into a driver-native one for the
// typed columns (uuids and timestamps arrive as strings in the doc).
func sqlValue(key string, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch {
	case key == "id" || strings.HasSuffix(key, "_id"):
		if str == "" {
			return nil, nil
		}
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, err
		}
		return id, nil
	case key == "last_modified" || key == "created_at" ||
		strings.HasSuffix(key, "_date"):
		if str == "" {
			return nil, nil
		}
		return db.DecodeTime(str), nil
	}
	return str, nil
}

func (s *storePG) MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE `+table+` SET is_deleted = 1, last_modified = $2
		WHERE id = $1 AND last_modified <= $2`, id, at)
	return db.MapError(err)
}

func (s *storePG) Cursor(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT cursor FROM sync_state WHERE id = 1`).Scan(&at)
	if err != nil {
		if db.MapError(err) == db.ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, db.MapError(err)
	}
	return at, nil
}

func (s *storePG) SetCursor(ctx context.Context, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_state (id, cursor) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET cursor = EXCLUDED.cursor`, at)
	return db.MapError(err)
}
