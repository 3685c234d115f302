package extract

import (
	"context"
	"strconv"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// GenericExtractor runs for every item regardless of kind. It records
// the detected type and size so even formats with no specific
// extractor become searchable by their metadata.
type GenericExtractor struct {
	db storage.Store
}

var _ Extractor = (*GenericExtractor)(nil)

// NewGenericExtractor creates the always-on metadata pass.
func NewGenericExtractor(db storage.Store) *GenericExtractor {
	return &GenericExtractor{db: db}
}

func (e *GenericExtractor) Name() string { return "generic" }

// Extract writes the page-zero metadata record for the item.
func (e *GenericExtractor) Extract(ctx context.Context, item *Item) error {
	return e.db.PutRecords(ctx, &core.ExtractionRecord{
		Dataset:   item.Ref.Dataset,
		Hash:      item.Ref.Hash,
		Extractor: e.Name(),
		Page:      0,
		Metadata: map[string]string{
			"mime_type": item.Type.MIME,
			"extension": item.Type.Extension,
			"kind":      item.Type.KindLabel(),
			"size":      strconv.FormatInt(item.Ref.Size, 10),
		},
	})
}
