package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stine-ri/wings-of-memory/internal/store"
	"github.com/stine-ri/wings-of-memory/internal/store/storetest"
)

func TestSQLiteStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(context.Background(), filepath.Join(t.TempDir(), "wings.db"))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "wings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(context.Background(), db); err != nil {
			t.Fatalf("schema run %d: %v", i, err)
		}
	}
	s := NewWithDB(db)
	if p, ok := s.(interface{ HealthPing(context.Context) error }); !ok || p.HealthPing(context.Background()) != nil {
		t.Fatalf("health ping failed")
	}
}
