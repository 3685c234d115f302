package extract

import (
	"context"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/services"
	"github.com/poiesic/sift/storage"
)

// MetadataExtractor routes items through the external parser and
// records the resulting pages and metadata.
type MetadataExtractor struct {
	db     storage.Store
	parser services.MetadataService
}

var _ Extractor = (*MetadataExtractor)(nil)

// NewMetadataExtractor creates the document parser pass.
func NewMetadataExtractor(db storage.Store, parser services.MetadataService) *MetadataExtractor {
	return &MetadataExtractor{db: db, parser: parser}
}

func (e *MetadataExtractor) Name() string { return "tika" }

// Extract parses the document and writes one record per page. Parser
// metadata rides on the first page.
func (e *MetadataExtractor) Extract(ctx context.Context, item *Item) error {
	blob, err := item.Open()
	if err != nil {
		return err
	}
	defer blob.Close()

	result, err := e.parser.Parse(ctx, blob, item.Type.MIME)
	if err != nil {
		return err
	}

	records := make([]*core.ExtractionRecord, 0, len(result.Pages))
	for i, page := range result.Pages {
		rec := &core.ExtractionRecord{
			Dataset:   item.Ref.Dataset,
			Hash:      item.Ref.Hash,
			Extractor: e.Name(),
			Page:      uint32(i),
			Text:      page,
		}
		if i == 0 {
			rec.Metadata = result.Metadata
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		records = append(records, &core.ExtractionRecord{
			Dataset:   item.Ref.Dataset,
			Hash:      item.Ref.Hash,
			Extractor: e.Name(),
			Page:      0,
			Metadata:  result.Metadata,
		})
	}
	return e.db.PutRecords(ctx, records...)
}
