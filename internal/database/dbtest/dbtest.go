// Package dbtest opens throwaway bolt databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/keyhunt-games/keyhunt/internal/database"
)

func New(t testing.TB) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(t.TempDir(), "test.db"),
		OpenTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close(ctx)
	})

	return db
}
