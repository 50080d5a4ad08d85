package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	t.Parallel()

	err := &pgconn.PgError{Code: "23505", ConstraintName: "customers_email_key"}

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(err, "customers_email_key") {
		t.Fatal("expected unique violation with matching constraint")
	}
	if IsUniqueViolation(err, "orders_pkey") {
		t.Fatal("expected mismatch for different constraint")
	}
}

func TestIsUniqueViolationWrapped(t *testing.T) {
	t.Parallel()

	inner := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(fmt.Errorf("insert customer: %w", inner), "") {
		t.Fatal("expected wrapped pg error to be detected")
	}
}

func TestIsUniqueViolationFallbackMessage(t *testing.T) {
	t.Parallel()

	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: customers.email"), "") {
		t.Fatal("expected sqlite message fallback")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("expected non-unique error to be ignored")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is never a violation")
	}
}
