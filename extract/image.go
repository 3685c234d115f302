package extract

import (
	"context"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/queue"
	"github.com/poiesic/sift/storage"
)

// ImageExtractor records image metadata and hands the pixels to the OCR
// fleet. OCR runs as its own task so slow recognition never holds a
// plan open.
type ImageExtractor struct {
	db    storage.Store
	queue queue.Queue
}

var _ Extractor = (*ImageExtractor)(nil)

// NewImageExtractor creates the image pass.
func NewImageExtractor(db storage.Store, q queue.Queue) *ImageExtractor {
	return &ImageExtractor{db: db, queue: q}
}

func (e *ImageExtractor) Name() string { return "image" }

// Extract records the image row and enqueues recognition.
func (e *ImageExtractor) Extract(ctx context.Context, item *Item) error {
	rec := &core.ExtractionRecord{
		Dataset:   item.Ref.Dataset,
		Hash:      item.Ref.Hash,
		Extractor: e.Name(),
		Page:      0,
		Metadata: map[string]string{
			"mime_type": item.Type.MIME,
		},
	}
	if err := e.db.PutRecords(ctx, rec); err != nil {
		return err
	}
	if e.queue == nil {
		return nil
	}
	task := queue.NewTask("file.ocr", item.Ref.Dataset, map[string]string{
		"hash": item.Ref.Hash,
	})
	return e.queue.Enqueue(ctx, queue.ClassOCR, task)
}
