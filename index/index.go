package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/services"
	"github.com/poiesic/sift/storage"
)

// indexChunkSize bounds how many plan members are indexed per batch.
const indexChunkSize = 512

// maxNERInput caps the text sent to entity recognition per blob.
const maxNERInput = 100_000

// Facet fields carried on every document.
const (
	FieldNER         = "ner"
	FieldFileType    = "filetype"
	FieldMIMEType    = "mime_type"
	FieldExtension   = "extension"
	FieldParentPaths = "parent_paths"
)

// Indexer aggregates extraction output into search documents. Indexing
// a plan twice produces identical documents, so duplicate index tasks
// are harmless.
type Indexer struct {
	db       storage.Store
	search   SearchStore
	entities services.EntityService
	logger   *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// WithEntityService sets the NER backend. Without one, documents carry
// no entity facet.
func WithEntityService(entities services.EntityService) Option {
	return func(i *Indexer) error {
		i.entities = entities
		return nil
	}
}

// NewIndexer creates an Indexer.
func NewIndexer(db storage.Store, search SearchStore, opts ...Option) (*Indexer, error) {
	if db == nil {
		return nil, ErrStorageRequired
	}
	if search == nil {
		return nil, ErrSearchStoreRequired
	}

	i := &Indexer{
		db:     db,
		search: search,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// IndexPlan builds and ships documents for every member of a plan, in
// bounded chunks. The plan must have finished executing: indexing a
// half-executed plan would publish documents missing extraction output.
func (i *Indexer) IndexPlan(ctx context.Context, dataset, planHash string) error {
	finished, err := i.db.Finished(ctx, dataset, planHash)
	if err != nil {
		return err
	}
	if !finished {
		return fmt.Errorf("%w: %s", ErrPlanNotFinished, planHash)
	}

	plan, err := i.db.GetPlan(ctx, dataset, planHash)
	if err != nil {
		return err
	}

	for start := 0; start < len(plan.Items); start += indexChunkSize {
		end := min(start+indexChunkSize, len(plan.Items))
		if err := i.indexChunk(ctx, dataset, plan.Items[start:end]); err != nil {
			return err
		}
	}
	i.logger.Info("plan indexed", "dataset", dataset, "plan", planHash, "items", len(plan.Items))
	return nil
}

// indexChunk builds documents for one batch of hashes and bulk-upserts
// them.
func (i *Indexer) indexChunk(ctx context.Context, dataset string, hashes []string) error {
	records, err := i.db.RecordsByHashes(ctx, dataset, hashes...)
	if err != nil {
		return err
	}
	byHash := make(map[string][]*core.ExtractionRecord)
	for _, rec := range records {
		byHash[rec.Hash] = append(byHash[rec.Hash], rec)
	}

	docs := make([]*Document, 0, len(hashes))
	for _, hash := range hashes {
		doc, err := i.buildDocument(ctx, dataset, hash, byHash[hash])
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return i.search.BulkUpsert(ctx, dataset, docs)
}

// buildDocument aggregates one blob's records into a document.
func (i *Indexer) buildDocument(ctx context.Context, dataset, hash string, records []*core.ExtractionRecord) (*Document, error) {
	var textParts []string
	meta := map[string]string{}
	for _, rec := range records {
		if rec.Text != "" {
			textParts = append(textParts, rec.Text)
		}
		for key, value := range rec.Metadata {
			if _, seen := meta[key]; !seen {
				meta[key] = value
			}
		}
	}
	text := strings.Join(textParts, "\n")

	doc := &Document{
		ID:      hash,
		Dataset: dataset,
		Text:    text,
		Terms:   map[string][]uint64{},
	}

	entityValues, err := i.recognizeEntities(ctx, dataset, hash, text)
	if err != nil {
		return nil, err
	}
	facets := map[string][]string{
		FieldNER:       entityValues,
		FieldFileType:  splitList(meta["kind"]),
		FieldMIMEType:  nonEmpty(meta["mime_type"]),
		FieldExtension: nonEmpty(meta["extension"]),
	}

	paths, err := i.db.FilePaths(ctx, dataset, hash)
	if err != nil {
		return nil, err
	}
	facets[FieldParentPaths] = ancestorPaths(paths)

	for field, values := range facets {
		if len(values) == 0 {
			continue
		}
		ids, err := i.encodeTerms(ctx, dataset, field, values)
		if err != nil {
			return nil, err
		}
		doc.Terms[field] = ids
	}
	return doc, nil
}

// recognizeEntities runs NER and persists the hits. Recognition
// degrades to an empty facet on failure; indexing never waits on a
// broken NER service.
func (i *Indexer) recognizeEntities(ctx context.Context, dataset, hash, text string) ([]string, error) {
	if i.entities == nil || text == "" {
		return nil, nil
	}
	input := text
	if len(input) > maxNERInput {
		input = input[:maxNERInput]
	}
	grouped, err := i.entities.Extract(ctx, input)
	if err != nil {
		i.logger.Warn("entity recognition failed, indexing without entities",
			"hash", hash, "error", err)
		return nil, nil
	}

	var values []string
	hits := make([]*core.EntityHit, 0, len(grouped))
	for entityType, entityValues := range grouped {
		if len(entityValues) == 0 {
			continue
		}
		values = append(values, entityValues...)
		hits = append(hits, &core.EntityHit{
			Dataset:    dataset,
			Hash:       hash,
			Extractor:  "indexing",
			EntityType: entityType,
			Values:     entityValues,
		})
	}
	if len(hits) > 0 {
		if err := i.db.PutEntityHits(ctx, hits...); err != nil {
			return nil, err
		}
	}
	sort.Strings(values)
	return values, nil
}

// encodeTerms maps values to their stable ids, minting ids for values
// the dataset has not seen before.
func (i *Indexer) encodeTerms(ctx context.Context, dataset, field string, values []string) ([]uint64, error) {
	unique := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" && !seen[v] {
			unique = append(unique, v)
			seen[v] = true
		}
	}

	known, err := i.db.LookupTerms(ctx, dataset, field, unique)
	if err != nil {
		return nil, err
	}
	missing := map[string]uint64{}
	for _, v := range unique {
		if _, ok := known[v]; !ok {
			missing[v] = core.TermID(v)
		}
	}
	if len(missing) > 0 {
		if err := i.db.PutTerms(ctx, dataset, field, missing); err != nil {
			return nil, err
		}
	}

	ids := make([]uint64, 0, len(unique))
	for _, v := range unique {
		if id, ok := known[v]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, missing[v])
		}
	}
	return ids, nil
}

// ancestorPaths expands logical paths into every ancestor directory, so
// a search scoped to a folder matches everything beneath it.
func ancestorPaths(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		dir := path.Dir(p)
		for dir != "." && dir != "/" && dir != "" {
			if !seen[dir] {
				seen[dir] = true
				out = append(out, dir)
			}
			dir = path.Dir(dir)
		}
	}
	sort.Strings(out)
	return out
}

func nonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

// splitList splits a comma-joined metadata value into individual facet
// terms; a multi-kind file shows up under each of its kinds.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
