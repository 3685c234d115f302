package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

func TestDatasetRoundTrip(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	ds := &core.Dataset{
		ID:         "11111111-2222-3333-4444-555555555555",
		Name:       "matter-42",
		SourceKind: "disk",
		Root:       "/srv/intake/matter-42",
		Owner:      "analyst",
	}
	if err := store.PutDataset(ctx, ds); err != nil {
		t.Fatalf("Failed to put dataset: %v", err)
	}
	if ds.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set on put")
	}

	byID, err := store.GetDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("Failed to get dataset: %v", err)
	}
	if byID.Name != "matter-42" {
		t.Fatalf("Expected 'matter-42', got '%s'", byID.Name)
	}

	byName, err := store.GetDatasetByName(ctx, "matter-42")
	if err != nil {
		t.Fatalf("Failed to get dataset by name: %v", err)
	}
	if byName.ID != ds.ID {
		t.Fatalf("Expected ID %s, got %s", ds.ID, byName.ID)
	}
}

func TestDatasetNotFound(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	_, err = store.GetDataset(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestNewStoreRequiresBackend(t *testing.T) {
	_, err := NewStore(nil)
	if err != ErrBackendRequired {
		t.Fatalf("Expected ErrBackendRequired, got %v", err)
	}
}
