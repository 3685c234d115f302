package extract

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

// textChunkSize bounds one extraction record. Large plain-text files
// become a run of pages instead of one enormous row.
const textChunkSize = 16 * 1024 * 1024

// TextExtractor streams plain text into page-sized extraction records.
// Stored text is always valid UTF-8: chunks never split a multi-byte
// rune and undecodable bytes become replacement characters.
type TextExtractor struct {
	db storage.Store
}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates the plain-text extractor.
func NewTextExtractor(db storage.Store) *TextExtractor {
	return &TextExtractor{db: db}
}

func (e *TextExtractor) Name() string { return "text" }

// Extract reads the staged copy in chunks and writes one record per
// chunk. A trailing partial rune is carried into the next chunk.
func (e *TextExtractor) Extract(ctx context.Context, item *Item) error {
	f, err := item.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, textChunkSize)
	carry := 0
	page := uint32(0)
	for {
		n, rerr := io.ReadFull(f, buf[carry:])
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return rerr
		}
		total := carry + n
		last := rerr != nil

		end := total
		if !last {
			end = runeBoundary(buf[:total])
		}
		if end > 0 {
			rec := &core.ExtractionRecord{
				Dataset:   item.Ref.Dataset,
				Hash:      item.Ref.Hash,
				Extractor: e.Name(),
				Page:      page,
				Text:      strings.ToValidUTF8(string(buf[:end]), "�"),
			}
			if perr := e.db.PutRecords(ctx, rec); perr != nil {
				return perr
			}
			page++
		}
		if last {
			return nil
		}
		carry = copy(buf, buf[end:total])
	}
}

// runeBoundary returns the largest split index that does not cut a
// multi-byte rune in half. Bytes past the index belong to an
// incomplete trailing rune and wait for the rest of it.
func runeBoundary(b []byte) int {
	end := len(b)
	for i := 1; i <= utf8.UTFMax && i <= end; i++ {
		if utf8.RuneStart(b[end-i]) {
			if utf8.FullRune(b[end-i:]) {
				return end
			}
			return end - i
		}
	}
	return end
}
