package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErrorNoRows(t *testing.T) {
	if !errors.Is(MapError(pgx.ErrNoRows), ErrNotFound) {
		t.Error("pgx.ErrNoRows should map to ErrNotFound")
	}
}

func TestMapErrorForeignKey(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23503", ConstraintName: "prescriptions_drug_id_fkey"})
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConstraintError, got %v", err)
	}
	if ce.Field != "prescriptions_drug_id_fkey" || ce.Reason != "referenced row does not exist" {
		t.Errorf("mapped to %+v", ce)
	}
}

func TestMapErrorUnique(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "drugs_name_key"})
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConstraintError, got %v", err)
	}
	if ce.Reason != "value already exists" {
		t.Errorf("reason = %q", ce.Reason)
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	orig := errors.New("connection reset")
	if got := MapError(orig); got != orig {
		t.Errorf("unknown error rewritten to %v", got)
	}
	if MapError(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestIsConstraintSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("create prescription: %w", NewConstraintError("drug_id", "referenced row does not exist"))
	if !IsConstraint(err) {
		t.Error("wrapped ConstraintError not detected")
	}
	if IsConstraint(ErrNotFound) {
		t.Error("ErrNotFound misclassified as constraint")
	}
}
