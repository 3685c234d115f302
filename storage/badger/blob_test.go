package badger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

const testDataset = "11111111-2222-3333-4444-555555555555"

func TestPutBlobsCountsNetNew(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	blobs := []*core.BlobRef{
		{Dataset: testDataset, Hash: "aa01", Size: 10},
		{Dataset: testDataset, Hash: "aa02", Size: 20},
	}
	created, err := store.PutBlobs(ctx, blobs...)
	if err != nil {
		t.Fatalf("Failed to put blobs: %v", err)
	}
	if created != 2 {
		t.Fatalf("Expected 2 net-new blobs, got %d", created)
	}

	// Re-put one existing and one new: only the new one counts.
	created, err = store.PutBlobs(ctx,
		&core.BlobRef{Dataset: testDataset, Hash: "aa02", Size: 20},
		&core.BlobRef{Dataset: testDataset, Hash: "aa03", Size: 30},
	)
	if err != nil {
		t.Fatalf("Failed to re-put blobs: %v", err)
	}
	if created != 1 {
		t.Fatalf("Expected 1 net-new blob, got %d", created)
	}
}

func TestGetBlobsSkipsMissing(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = store.PutBlobs(ctx,
		&core.BlobRef{Dataset: testDataset, Hash: "bb02", Size: 2},
		&core.BlobRef{Dataset: testDataset, Hash: "bb01", Size: 1},
	)
	if err != nil {
		t.Fatalf("Failed to put blobs: %v", err)
	}

	got, err := store.GetBlobs(ctx, testDataset, "bb02", "bb01", "bb09")
	if err != nil {
		t.Fatalf("Failed to get blobs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 blobs, got %d", len(got))
	}
	if got[0].Hash != "bb01" || got[1].Hash != "bb02" {
		t.Fatalf("Expected hash order, got %s then %s", got[0].Hash, got[1].Hash)
	}

	_, err = store.GetBlob(ctx, testDataset, "bb09")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing blob, got %v", err)
	}
}

func TestInlineValueRoundTrip(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	payload := []byte("small enough to live inline")
	if err := store.PutInlineValue(ctx, testDataset, "cc01", payload); err != nil {
		t.Fatalf("Failed to put inline value: %v", err)
	}

	got, err := store.GetInlineValue(ctx, testDataset, "cc01")
	if err != nil {
		t.Fatalf("Failed to get inline value: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Inline value mismatch: got %q", got)
	}
}
