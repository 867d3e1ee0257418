package rawstore

import (
	"context"
	"strings"
	"testing"
)

type stubStore struct{}

func (stubStore) Close() {}

func (stubStore) EnsureTables(context.Context, []TableSpec) error { return nil }

func (stubStore) Upsert(context.Context, TableSpec, [][]any) (int64, error) { return 0, nil }

func (stubStore) Truncate(context.Context, []TableSpec) error { return nil }

func stubFactory(ctx context.Context, cfg Config) (Store, error) {
	return stubStore{}, nil
}

func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "oracle", DSN: "x"})
	if err == nil || !strings.Contains(err.Error(), "unsupported store kind") {
		t.Fatalf("expected unsupported-kind error, got %v", err)
	}
}

func TestNew_MissingKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{DSN: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing store kind") {
		t.Fatalf("expected missing-kind error, got %v", err)
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	Register("stub-roundtrip", stubFactory)

	s, err := New(context.Background(), Config{Kind: "stub-roundtrip", DSN: "ignored"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(stubStore); !ok {
		t.Fatalf("New returned %T, want stubStore", s)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Register("stub-dup", stubFactory)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate Register")
		}
	}()
	Register("stub-dup", stubFactory)
}

func TestRegister_EmptyKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty kind")
		}
	}()
	Register("", stubFactory)
}

func TestRegister_NilFactoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil factory")
		}
	}()
	Register("stub-nil", nil)
}
