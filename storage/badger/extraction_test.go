package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sift/core"
)

func TestExtractionRecordsPageOrder(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	err = store.PutRecords(ctx,
		&core.ExtractionRecord{Dataset: testDataset, Hash: "aa01", Extractor: "text", Page: 2, Text: "second"},
		&core.ExtractionRecord{Dataset: testDataset, Hash: "aa01", Extractor: "text", Page: 0, Text: "zeroth"},
		&core.ExtractionRecord{Dataset: testDataset, Hash: "aa01", Extractor: "text", Page: 1, Text: "first"},
	)
	if err != nil {
		t.Fatalf("Failed to put records: %v", err)
	}

	// Re-putting a page overwrites it rather than duplicating.
	err = store.PutRecords(ctx,
		&core.ExtractionRecord{Dataset: testDataset, Hash: "aa01", Extractor: "text", Page: 1, Text: "first again"},
	)
	if err != nil {
		t.Fatalf("Failed to re-put record: %v", err)
	}

	records, err := store.RecordsByHashes(ctx, testDataset, "aa01")
	if err != nil {
		t.Fatalf("Failed to get records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Page != uint32(i) {
			t.Fatalf("Expected page %d at position %d, got %d", i, i, rec.Page)
		}
	}
	if records[1].Text != "first again" {
		t.Fatalf("Expected overwritten text, got %q", records[1].Text)
	}
}

func TestExtractionRecordInvalidUTF8RoundTrip(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	// A row that was accepted on write must always read back, even if
	// an extractor produced bytes that are not valid UTF-8.
	raw := "ok \xff\xfe caf\xe9 end"
	err = store.PutRecords(ctx, &core.ExtractionRecord{
		Dataset:   testDataset,
		Hash:      "bb02",
		Extractor: "text",
		Page:      0,
		Text:      raw,
		Metadata:  map[string]string{"note": "latin1 \xe9"},
	})
	if err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}

	records, err := store.RecordsByHashes(ctx, testDataset, "bb02")
	if err != nil {
		t.Fatalf("Failed to get records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Text == "" {
		t.Fatal("Expected text to survive the round trip")
	}
}

func TestContainerRoundTrip(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	c := &core.Container{
		Dataset: testDataset,
		Hash:    "bb01",
		Kind:    core.KindArchive,
		Types:   []string{"application/zip"},
	}
	if err := store.PutContainer(ctx, c); err != nil {
		t.Fatalf("Failed to put container: %v", err)
	}

	got, err := store.GetContainer(ctx, testDataset, "bb01")
	if err != nil {
		t.Fatalf("Failed to get container: %v", err)
	}
	if got.Kind != core.KindArchive {
		t.Fatalf("Expected archive kind, got %s", got.Kind)
	}
}

func TestEmailHeaderRoundTrip(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	h := &core.EmailHeader{
		Dataset:   testDataset,
		Hash:      "cc01",
		Subject:   "Quarterly figures",
		Addresses: "from: a@example.com; to: b@example.com",
		DateSent:  time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.PutEmailHeader(ctx, h); err != nil {
		t.Fatalf("Failed to put email header: %v", err)
	}

	got, err := store.GetEmailHeader(ctx, testDataset, "cc01")
	if err != nil {
		t.Fatalf("Failed to get email header: %v", err)
	}
	if got.Subject != "Quarterly figures" {
		t.Fatalf("Expected subject, got %q", got.Subject)
	}
	if !got.DateSent.Equal(h.DateSent) {
		t.Fatalf("Expected date %v, got %v", h.DateSent, got.DateSent)
	}
}

func TestEntityHits(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	err = store.PutEntityHits(ctx,
		&core.EntityHit{Dataset: testDataset, Hash: "dd01", Extractor: "text", Page: 0, EntityType: "PER", Values: []string{"Ada Lovelace"}},
		&core.EntityHit{Dataset: testDataset, Hash: "dd01", Extractor: "text", Page: 0, EntityType: "ORG", Values: []string{"Acme"}},
	)
	if err != nil {
		t.Fatalf("Failed to put entity hits: %v", err)
	}

	hits, err := store.EntityHitsByHash(ctx, testDataset, "dd01")
	if err != nil {
		t.Fatalf("Failed to get entity hits: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
}

func TestErrorLogAppendOnly(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	base := time.Now().UTC()
	err = store.Record(ctx,
		&core.ProcessingError{Dataset: testDataset, Hash: "ee01", Task: "parse", Detail: "boom", Timestamp: base},
		&core.ProcessingError{Dataset: testDataset, Hash: "ee01", Task: "parse", Detail: "boom again", Timestamp: base.Add(time.Second)},
	)
	if err != nil {
		t.Fatalf("Failed to record errors: %v", err)
	}

	rows, err := store.ErrorsByHash(ctx, testDataset, "ee01")
	if err != nil {
		t.Fatalf("Failed to list errors: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 error rows, got %d", len(rows))
	}
	if rows[0].Detail != "boom" || rows[1].Detail != "boom again" {
		t.Fatalf("Expected oldest-first order, got %q then %q", rows[0].Detail, rows[1].Detail)
	}
}

func TestTermEncoding(t *testing.T) {
	store, backend, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer func() { store.Close(); backend.Close() }()

	ctx := context.Background()

	pairs := map[string]uint64{
		"pdf": core.TermID("pdf"),
		"txt": core.TermID("txt"),
	}
	if err := store.PutTerms(ctx, testDataset, "extension", pairs); err != nil {
		t.Fatalf("Failed to put terms: %v", err)
	}

	found, err := store.LookupTerms(ctx, testDataset, "extension", []string{"pdf", "txt", "doc"})
	if err != nil {
		t.Fatalf("Failed to look up terms: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 known terms, got %d", len(found))
	}
	if found["pdf"] != pairs["pdf"] {
		t.Fatalf("Expected id %d for pdf, got %d", pairs["pdf"], found["pdf"])
	}

	value, err := store.TermValue(ctx, testDataset, "extension", pairs["txt"])
	if err != nil {
		t.Fatalf("Failed to resolve term id: %v", err)
	}
	if value != "txt" {
		t.Fatalf("Expected 'txt', got %q", value)
	}
}
