package testsupport

import (
	"context"
	"testing"

	"bananadb/internal/config"
	"bananadb/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg, nil)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertImage records an image for tests and returns its id.
func InsertImage(t testing.TB, store *library.Store, img library.NewImage) int64 {
	t.Helper()

	id, err := store.Insert(context.Background(), img)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return id
}
