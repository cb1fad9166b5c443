package errors

import (
	stdErrors "errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNilError(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Code != "" || len(d.Chain) != 0 {
		t.Fatalf("expected zero dump, got %+v", d)
	}
}

func TestDumpTypedChain(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "persisting shift record")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if !d.Retryable {
		t.Fatal("dependency errors must dump as retryable")
	}
	if len(d.Chain) != 2 || !strings.Contains(d.Chain[1], "connection refused") {
		t.Fatalf("expected two-link chain ending in the cause, got %v", d.Chain)
	}
	if d.PGCode != "" {
		t.Fatalf("no driver error in chain, got pg code %q", d.PGCode)
	}
}

func TestDumpExtractsPGXError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "shift_records_natural_key",
		Detail:         "Key (shift_date, worker_slug) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, pgErr, "creating shift record")

	d := Dump(err)
	if d.PGCode != "23505" || d.PGConstraint != "shift_records_natural_key" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if d.PGDetail == "" || d.PGMessage == "" {
		t.Fatalf("expected detail and message, got %+v", d)
	}
}

func TestDumpExtractsPQError(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "items_slug_key"}
	d := Dump(Wrap(CodeConflict, pqErr, "creating item"))
	if d.PGCode != "23505" || d.PGConstraint != "items_slug_key" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
}
