package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("gateway timeout")
	err := Wrap(CodeDependency, cause, "payment capture failed")

	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
	if err.Error() != "DEPENDENCY_ERROR: payment capture failed" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	t.Parallel()

	inner := New(CodeStateConflict, "order already processed")
	wrapped := fmt.Errorf("processing customer batch: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
	if typed.Message() != "order already processed" {
		t.Fatalf("unexpected message: %s", typed.Message())
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	if Retryable(New(CodeValidation, "empty installment batch")) {
		t.Fatal("validation errors must not be retryable")
	}
	if !Retryable(New(CodeDependency, "inventory service unreachable")) {
		t.Fatal("dependency errors should be retryable")
	}
	if Retryable(errors.New("plain error")) {
		t.Fatal("untyped errors should not report retryable")
	}
}

func TestDumpFlattensChainAndCode(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("persisting order: %w", Wrap(CodeDependency, cause, "insert failed"))

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("code = %s, want %s", d.Code, CodeDependency)
	}
	if d.Message != err.Error() {
		t.Fatalf("message = %q", d.Message)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("chain = %v, want wrapped cause entries", d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("pg detail = %+v, want nil without a driver error", d.PG)
	}

	if got := Dump(nil); got.Message != "" || got.Chain != nil {
		t.Fatalf("nil error dumped as %+v", got)
	}
}

func TestDumpLiftsPostgresDiagnostics(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_pkey",
		TableName:      "orders",
		Detail:         "Key (id) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(fmt.Errorf("create order: %w", pgErr))

	if d.PG == nil {
		t.Fatal("expected pg detail for a driver error")
	}
	if d.PG.Code != "23505" || d.PG.Constraint != "orders_pkey" || d.PG.Table != "orders" {
		t.Fatalf("pg detail = %+v", d.PG)
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != MetadataFor(CodeInternal).HTTPStatus {
		t.Fatalf("unknown codes should fall back to internal metadata, got %d", meta.HTTPStatus)
	}
}
