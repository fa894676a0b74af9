// Package reporting aggregates usage statistics over the clinic data and
// exports the collections as a spreadsheet workbook. Everything runs through
// the repository and sync-store interfaces, so reports work identically
// against the relational store and the in-memory fallback.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/clinicdesk/clinicdesk/internal/domain/catalog"
	"github.com/clinicdesk/clinicdesk/internal/domain/laborder"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/internal/domain/sync"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
)

// UsageStats is the practice dashboard snapshot. All counts exclude
// tombstoned rows.
type UsageStats struct {
	GeneratedAt      time.Time        `json:"generated_at"`
	Patients         int              `json:"patients"`
	Visits           int              `json:"visits"`
	Prescriptions    int              `json:"prescriptions"`
	LabOrders        int              `json:"lab_orders"`
	PatientsByGender map[string]int   `json:"patients_by_gender"`
	TopDrugs         []*catalog.Usage `json:"top_drugs"`
	TopLabTests      []*catalog.Usage `json:"top_lab_tests"`
}

const topN = 5

type Service struct {
	patients patient.Repository
	visits   visit.Repository
	rx       prescription.Repository
	labs     laborder.Repository
	drugs    catalog.DrugRepository
	tests    catalog.LabTestRepository
	feed     sync.Store
	now      func() time.Time
}

func NewService(
	patients patient.Repository,
	visits visit.Repository,
	rx prescription.Repository,
	labs laborder.Repository,
	drugs catalog.DrugRepository,
	tests catalog.LabTestRepository,
	feed sync.Store,
) *Service {
	return &Service{
		patients: patients,
		visits:   visits,
		rx:       rx,
		labs:     labs,
		drugs:    drugs,
		tests:    tests,
		feed:     feed,
		now:      time.Now,
	}
}

// Usage computes the dashboard snapshot.
func (s *Service) Usage(ctx context.Context) (*UsageStats, error) {
	stats := &UsageStats{GeneratedAt: s.now().UTC()}

	var err error
	if stats.Patients, err = s.patients.Count(ctx); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	if stats.Visits, err = s.visits.Count(ctx); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if stats.Prescriptions, err = s.rx.Count(ctx); err != nil {
		return nil, fmt.Errorf("count prescriptions: %w", err)
	}
	if stats.LabOrders, err = s.labs.Count(ctx); err != nil {
		return nil, fmt.Errorf("count lab orders: %w", err)
	}
	if stats.PatientsByGender, err = s.patients.CountByGender(ctx); err != nil {
		return nil, fmt.Errorf("group patients by gender: %w", err)
	}
	if stats.TopDrugs, err = s.drugs.MostPrescribed(ctx, topN); err != nil {
		return nil, fmt.Errorf("top drugs: %w", err)
	}
	if stats.TopLabTests, err = s.tests.MostOrdered(ctx, topN); err != nil {
		return nil, fmt.Errorf("top lab tests: %w", err)
	}
	return stats, nil
}

// Sheet column layouts, in schema order. The export reads whole records off
// the sync feed, so one pass covers every synchronized table.
var exportSheets = []struct {
	entityType string
	sheet      string
	columns    []string
}{
	{sync.EntityPatient, "Patients", []string{
		"id", "name", "age", "gender", "phone", "address",
		"chronic_diseases", "family_history", "notes", "first_visit_date",
		"is_pinned", "last_modified",
	}},
	{sync.EntityVisit, "Visits", []string{
		"id", "patient_id", "visit_date", "visit_number", "notes",
		"last_modified",
	}},
	{sync.EntityPrescription, "Prescriptions", []string{
		"id", "visit_id", "drug_id", "note", "sent_to_pharmacy",
		"fulfilled_by_pharmacy", "pharmacy_notes", "last_modified",
	}},
	{sync.EntityLabOrder, "Lab Orders", []string{
		"id", "visit_id", "lab_test_id", "note", "sent_to_lab",
		"completed_by_lab", "lab_notes", "result_file_url", "last_modified",
	}},
}

// ExportWorkbook renders every non-deleted record into an xlsx workbook,
// one sheet per collection.
func (s *Service) ExportWorkbook(ctx context.Context) (*excelize.File, error) {
	records, err := s.feed.ListChangedSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("read export feed: %w", err)
	}
	byType := make(map[string][]*sync.Record)
	for _, rec := range records {
		if rec.IsDeleted {
			continue
		}
		byType[rec.EntityType] = append(byType[rec.EntityType], rec)
	}

	f := excelize.NewFile()
	for i, def := range exportSheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), def.sheet); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(def.sheet); err != nil {
				return nil, err
			}
		}
		header := make([]any, len(def.columns))
		for c, col := range def.columns {
			header[c] = col
		}
		if err := writeRow(f, def.sheet, 1, header); err != nil {
			return nil, err
		}
		for r, rec := range byType[def.entityType] {
			row := make([]any, len(def.columns))
			for c, col := range def.columns {
				row[c] = cellValue(rec.Doc[col])
			}
			if err := writeRow(f, def.sheet, r+2, row); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue renders a storage-form value for a spreadsheet cell; 0/1 flags
// come out as real booleans.
func cellValue(v any) any {
	switch n := v.(type) {
	case nil:
		return ""
	case int16:
		return n != 0
	default:
		return v
	}
}
