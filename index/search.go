package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Document is one search-index row for a blob: its extracted text plus
// term-encoded facets.
type Document struct {
	ID      string              `json:"id"`
	Dataset string              `json:"dataset"`
	Text    string              `json:"text"`
	Terms   map[string][]uint64 `json:"terms"`
}

// SearchStore receives index documents. Upserts are keyed by document
// ID, so re-indexing a blob replaces its row.
type SearchStore interface {
	BulkUpsert(ctx context.Context, dataset string, docs []*Document) error
}

// HTTPSearchStore ships documents to a search service over HTTP.
type HTTPSearchStore struct {
	baseURL string
	client  *http.Client
}

var _ SearchStore = (*HTTPSearchStore)(nil)

// NewHTTPSearchStore creates a client for the search bulk endpoint.
// A nil httpClient uses http.DefaultClient.
func NewHTTPSearchStore(baseURL string, httpClient *http.Client) (*HTTPSearchStore, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSearchStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// BulkUpsert posts one batch of documents.
func (s *HTTPSearchStore) BulkUpsert(ctx context.Context, dataset string, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"dataset":   dataset,
		"documents": docs,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/bulk", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: search returned %d", ErrSearchUnavailable, resp.StatusCode)
	}
	return nil
}

// MemorySearchStore is an in-memory SearchStore for tests.
type MemorySearchStore struct {
	mu   sync.Mutex
	docs map[string]*Document
}

var _ SearchStore = (*MemorySearchStore)(nil)

// NewMemorySearchStore creates an empty in-memory search store.
func NewMemorySearchStore() *MemorySearchStore {
	return &MemorySearchStore{docs: make(map[string]*Document)}
}

// BulkUpsert merges documents by ID.
func (s *MemorySearchStore) BulkUpsert(ctx context.Context, dataset string, docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	return nil
}

// Get returns a stored document by ID.
func (s *MemorySearchStore) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

// Len returns the number of stored documents.
func (s *MemorySearchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
