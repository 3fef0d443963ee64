package draft

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/database"
)

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	if err := database.MigrateUp(database.DialectPostgres, url); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := database.NewPostgresPool(ctx, url, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	store := NewPostgresStore(pool)
	defer store.Close()

	const key = "exam_draft:lecture:pg-test:exam:pg-test"
	if err := store.Save(ctx, key, []byte(`{"answers":{"Q1":["A1"]}}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, key, []byte(`{"answers":{"Q1":["A2"]}}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	b := newTestBook(store, "pg-test", "pg-test")
	if ok, err := b.Restore(ctx); !ok || err != nil {
		t.Fatalf("restore = %v, %v", ok, err)
	}
	if !b.IsSelected("Q1", "A2") {
		t.Fatal("restore did not return the latest upsert")
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load after delete err = %v", err)
	}
}
