package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: true},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "connection class", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: UniqueViolationCode}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("want %t, got %t", tc.want, got)
			}
		})
	}
}

func TestWrapTransient(t *testing.T) {
	t.Parallel()

	deadlock := &pgconn.PgError{Code: "40P01"}
	if err := WrapTransient(deadlock); !errors.Is(err, outcome.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	plain := errors.New("syntax error")
	if WrapTransient(plain) != plain {
		t.Fatalf("non-transient errors must pass through")
	}
}

func TestPgErrorCode(t *testing.T) {
	t.Parallel()

	code, constraint, ok := PgErrorCode(fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "employees_login_key"}))
	if !ok || code != UniqueViolationCode || constraint != "employees_login_key" {
		t.Fatalf("unexpected result: %s %s %t", code, constraint, ok)
	}
	if _, _, ok := PgErrorCode(errors.New("x")); ok {
		t.Fatalf("expected ok=false for non pg errors")
	}
}
