package extract

import (
	"context"

	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/services"
	"github.com/poiesic/sift/storage"
)

// OCRProcessor runs image recognition for one blob. It executes on the
// OCR worker fleet, decoupled from plan execution, and writing the
// record is idempotent so duplicate tasks are harmless.
type OCRProcessor struct {
	content *content.Store
	db      storage.Store
	ocr     services.OCRService
}

// NewOCRProcessor creates the OCR task handler.
func NewOCRProcessor(contentStore *content.Store, db storage.Store, ocr services.OCRService) *OCRProcessor {
	return &OCRProcessor{content: contentStore, db: db, ocr: ocr}
}

// Process recognizes text in the blob and records it.
func (p *OCRProcessor) Process(ctx context.Context, dataset, hash string) error {
	blob, err := p.content.Open(ctx, dataset, hash)
	if err != nil {
		return err
	}
	defer blob.Close()

	text, err := p.ocr.Recognize(ctx, blob)
	if err != nil {
		return err
	}
	return p.db.PutRecords(ctx, &core.ExtractionRecord{
		Dataset:   dataset,
		Hash:      hash,
		Extractor: "easyocr",
		Page:      0,
		Text:      text,
	})
}
