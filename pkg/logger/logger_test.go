package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	pkgerrors "github.com/replenishlabs/replenish-backend/pkg/errors"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithCustomerID(ctx, "cust-123")
	ctx = log.WithOrderID(ctx, "ord-456")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"customer_id\"")) {
		t.Fatalf("expected customer_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"order_id\"")) {
		t.Fatalf("expected order_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerErrorEmitsErrorDetail(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("socket closed"), "payment capture failed")
	log.Error(context.Background(), "capture failed", err)

	if !bytes.Contains(buf.Bytes(), []byte("\"error_detail\"")) {
		t.Fatalf("expected error_detail snapshot; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"DEPENDENCY_ERROR\"")) {
		t.Fatalf("expected the error code in the snapshot; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("socket closed")) {
		t.Fatalf("expected the cause in the chain; entry=%s", buf.String())
	}
}

func TestLoggerWithJobScopesEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithJob(context.Background(), "billing-run")
	log.Info(ctx, "cycle start")

	if !bytes.Contains(buf.Bytes(), []byte("\"job\":\"billing-run\"")) {
		t.Fatalf("expected job field; entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
}
