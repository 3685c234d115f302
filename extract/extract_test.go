package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/sift/content"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/objectstore"
	"github.com/poiesic/sift/queue"
	"github.com/poiesic/sift/services/mock"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/storage/badger"
	"github.com/poiesic/sift/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = "11111111-2222-3333-4444-555555555555"

type testEnv struct {
	db        storage.Store
	content   *content.Store
	registrar *vfs.Registrar
	queue     *queue.MemoryQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		backend.Close()
	})

	contentStore, err := content.NewStore(db, objectstore.NewMemoryStore())
	require.NoError(t, err)

	registrar, err := vfs.NewRegistrar(contentStore, db)
	require.NoError(t, err)

	q := queue.NewMemoryQueue()
	t.Cleanup(func() { q.Close() })

	return &testEnv{db: db, content: contentStore, registrar: registrar, queue: q}
}

// ingest stores bytes and registers a logical path for them.
func (env *testEnv) ingest(t *testing.T, path string, data []byte) *core.BlobRef {
	t.Helper()
	ctx := context.Background()
	ref, _, err := env.content.PutReader(ctx, testDataset, bytes.NewReader(data))
	require.NoError(t, err)
	_, err = env.db.PutFiles(ctx, &core.VFSFile{
		Dataset: testDataset,
		Path:    path,
		Hash:    ref.Hash,
		Size:    ref.Size,
	})
	require.NoError(t, err)
	return ref
}

// stage writes the bytes to a local file the way plan execution does
// before extraction.
func stage(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestDetectReader(t *testing.T) {
	detected, err := DetectReader(strings.NewReader("plain words here"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []core.Kind{core.KindText}, detected.Kinds)
	assert.Equal(t, core.KindText, detected.Primary())
	assert.Equal(t, "txt", detected.Extension)

	detected, err = DetectReader(bytes.NewReader([]byte("%PDF-1.4\n")), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", detected.MIME)
	assert.Equal(t, []core.Kind{core.KindPDF}, detected.Kinds)
}

func TestDetectReaderExtensionAddsKind(t *testing.T) {
	// An eml file sniffs as text; the extension adds email, and both
	// kinds survive so both extractors get a pass at it.
	raw := "From: a@example.com\r\nTo: b@example.com\r\nSubject: hi\r\n\r\nbody\r\n"
	detected, err := DetectReader(strings.NewReader(raw), "mail/message.eml")
	require.NoError(t, err)
	assert.Equal(t, []core.Kind{core.KindEmail, core.KindText}, detected.Kinds)
	assert.Equal(t, "email,text", detected.KindLabel())

	detected, err = DetectReader(strings.NewReader("From alice Mon Jan  1\r\nSubject: x\r\n\r\nhello\r\n"), "inbox.mbox")
	require.NoError(t, err)
	assert.Contains(t, detected.Kinds, core.KindEmail)
	assert.Contains(t, detected.Kinds, core.KindText)
}

func TestRouterRunsGenericForUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	router, err := NewRouter(env.db)
	require.NoError(t, err)

	data := []byte{0x00, 0x01, 0x02, 0x03}
	ref := env.ingest(t, "blob.bin", data)
	require.NoError(t, router.Process(ctx, ref, stage(t, data), 0))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "generic", records[0].Extractor)
	assert.Equal(t, "4", records[0].Metadata["size"])
}

func TestRouterRunsEveryMatchingExtractor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	router, err := NewRouter(env.db)
	require.NoError(t, err)
	router.Register(NewTextExtractor(env.db), core.KindText)
	email, err := NewEmailExtractor(env.db, env.registrar)
	require.NoError(t, err)
	router.Register(email, core.KindEmail)

	raw := []byte("From: a@example.com\r\nTo: b@example.com\r\nSubject: hi\r\n\r\nbody here\r\n")
	ref := env.ingest(t, "mail/message.eml", raw)
	require.NoError(t, router.Process(ctx, ref, stage(t, raw), 0))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	ran := map[string]bool{}
	for _, rec := range records {
		ran[rec.Extractor] = true
	}
	assert.True(t, ran["generic"])
	assert.True(t, ran["text"])
	assert.True(t, ran["email"])
}

func TestRouterReadsStagedCopy(t *testing.T) {
	// The object store never sees this blob; extraction works entirely
	// off the staged local file.
	env := newTestEnv(t)
	ctx := context.Background()

	data := []byte("staged only, never uploaded")
	ref := &core.BlobRef{Dataset: testDataset, Hash: strings.Repeat("ab", 32), Size: int64(len(data))}
	_, err := env.db.PutFiles(ctx, &core.VFSFile{
		Dataset: testDataset,
		Path:    "local.txt",
		Hash:    ref.Hash,
		Size:    ref.Size,
	})
	require.NoError(t, err)

	router, err := NewRouter(env.db)
	require.NoError(t, err)
	router.Register(NewTextExtractor(env.db), core.KindText)
	require.NoError(t, router.Process(ctx, ref, stage(t, data), 0))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRouterCoversParserOnlyKinds(t *testing.T) {
	// Audio, video, and anything unrecognized go to the external
	// parser when the metadata extractor is registered for them.
	env := newTestEnv(t)
	ctx := context.Background()

	parser := mock.NewMockMetadataService()
	router, err := NewRouter(env.db)
	require.NoError(t, err)
	router.Register(NewMetadataExtractor(env.db, parser),
		core.KindAudio, core.KindVideo, core.KindOther)

	data := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), []byte("fake audio frames")...)
	ref := env.ingest(t, "media/song.mp3", data)
	require.NoError(t, router.Process(ctx, ref, stage(t, data), 0))

	assert.Equal(t, 1, parser.Calls)
	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	ran := map[string]bool{}
	for _, rec := range records {
		ran[rec.Extractor] = true
	}
	assert.True(t, ran["tika"])
}

func TestRouterRecordsExtractorFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parser := mock.NewMockMetadataService()
	parser.Err = assert.AnError

	router, err := NewRouter(env.db)
	require.NoError(t, err)
	router.Register(NewMetadataExtractor(env.db, parser), core.KindPDF)

	data := []byte("%PDF-1.4\nbroken")
	ref := env.ingest(t, "broken.pdf", data)
	require.NoError(t, router.Process(ctx, ref, stage(t, data), 0))

	// The failure landed in the error log; the generic record survived.
	errs, err := env.db.ErrorsByHash(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "tika", errs[0].Task)

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "generic", records[0].Extractor)
}

func TestTextExtractorChunksPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := []byte("some searchable prose")
	ref := env.ingest(t, "notes.txt", data)
	extractor := NewTextExtractor(env.db)

	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "text/plain", Kinds: []core.Kind{core.KindText}},
		Path: stage(t, data),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "some searchable prose", records[0].Text)
}

func TestTextExtractorSanitizesInvalidBytes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := []byte("ok \xff\xfe latin1 caf\xe9 end")
	ref := env.ingest(t, "legacy.log", data)
	extractor := NewTextExtractor(env.db)

	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "text/plain", Kinds: []core.Kind{core.KindText}},
		Path: stage(t, data),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, utf8.ValidString(records[0].Text))
	assert.Contains(t, records[0].Text, "�")
	assert.Contains(t, records[0].Text, "end")
}

func TestRuneBoundary(t *testing.T) {
	// A trailing partial rune gets held back for the next chunk.
	assert.Equal(t, 1, runeBoundary([]byte{'a', 0xC3}))
	assert.Equal(t, 1, runeBoundary([]byte{'a', 0xF0, 0x9F}))
	// Complete runes split nowhere.
	assert.Equal(t, 3, runeBoundary([]byte("aé")))
	assert.Equal(t, 5, runeBoundary([]byte("hello")))
	// Garbage bytes are not a partial rune; they pass through whole
	// and sanitization replaces them.
	assert.Equal(t, 2, runeBoundary([]byte{'a', 0xFF}))
}

func TestMetadataExtractorPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parser := mock.NewMockMetadataService()
	extractor := NewMetadataExtractor(env.db, parser)

	data := []byte("%PDF-1.4\ncontent")
	ref := env.ingest(t, "report.pdf", data)
	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "application/pdf", Kinds: []core.Kind{core.KindPDF}},
		Path: stage(t, data),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tika", records[0].Extractor)
	assert.Equal(t, "parsed text", records[0].Text)
	assert.Equal(t, "application/pdf", records[0].Metadata["Content-Type"])
}

func TestImageExtractorEnqueuesOCR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	extractor := NewImageExtractor(env.db, env.queue)
	data := []byte("\x89PNG\r\n\x1a\nfake")
	ref := env.ingest(t, "scan.png", data)
	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "image/png", Kinds: []core.Kind{core.KindImage}},
		Path: stage(t, data),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	task, err := env.queue.Dequeue(ctx, queue.ClassOCR, 0)
	require.NoError(t, err)
	assert.Equal(t, "file.ocr", task.Name)
	assert.Equal(t, ref.Hash, task.Payload["hash"])
}

func TestArchiveExtractorExpandsZip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("inner/a.txt")
	require.NoError(t, err)
	w.Write([]byte("file a"))
	w, err = zw.Create("inner/b.txt")
	require.NoError(t, err)
	w.Write([]byte("file b"))
	require.NoError(t, zw.Close())

	ref := env.ingest(t, "bundle.zip", buf.Bytes())
	extractor, err := NewArchiveExtractor(env.db, env.registrar)
	require.NoError(t, err)

	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "application/zip", Kinds: []core.Kind{core.KindArchive}},
		Path: stage(t, buf.Bytes()),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	children, err := env.db.FilesByContainer(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "inner/a.txt", children[0].Path)

	container, err := env.db.GetContainer(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	assert.Equal(t, core.KindArchive, container.Kind)
}

func TestArchiveExtractorDepthLimit(t *testing.T) {
	env := newTestEnv(t)

	extractor, err := NewArchiveExtractor(env.db, env.registrar)
	require.NoError(t, err)

	data := []byte("PK\x03\x04")
	ref := env.ingest(t, "deep.zip", data)
	item := &Item{
		Ref:   ref,
		Type:  &DetectedType{MIME: "application/zip", Kinds: []core.Kind{core.KindArchive}},
		Path:  stage(t, data),
		Depth: maxContainerDepth,
	}
	err = extractor.Extract(context.Background(), item)
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestArchiveExtractorRejectsTraversal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../../escape.txt")
	require.NoError(t, err)
	w.Write([]byte("nope"))
	w, err = zw.Create("safe.txt")
	require.NoError(t, err)
	w.Write([]byte("fine"))
	require.NoError(t, zw.Close())

	ref := env.ingest(t, "sneaky.zip", buf.Bytes())
	extractor, err := NewArchiveExtractor(env.db, env.registrar)
	require.NoError(t, err)

	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "application/zip", Kinds: []core.Kind{core.KindArchive}},
		Path: stage(t, buf.Bytes()),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	children, err := env.db.FilesByContainer(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "safe.txt", children[0].Path)
}

func TestEmailExtractor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	raw := strings.Join([]string{
		"From: Alice <alice@example.com>",
		"To: bob@example.com",
		"Subject: Budget review",
		"Date: Tue, 01 Jul 2014 12:00:00 +0000",
		"Content-Type: multipart/mixed; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"Please see the attached figures.",
		"--XYZ",
		"Content-Type: application/octet-stream",
		"Content-Disposition: attachment; filename=figures.csv",
		"",
		"q1,100",
		"--XYZ--",
		"",
	}, "\r\n")

	ref := env.ingest(t, "mail/budget.eml", []byte(raw))
	extractor, err := NewEmailExtractor(env.db, env.registrar)
	require.NoError(t, err)

	item := &Item{
		Ref:  ref,
		Type: &DetectedType{MIME: "message/rfc822", Kinds: []core.Kind{core.KindEmail}},
		Path: stage(t, []byte(raw)),
	}
	require.NoError(t, extractor.Extract(ctx, item))

	header, err := env.db.GetEmailHeader(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	assert.Equal(t, "Budget review", header.Subject)
	assert.Contains(t, header.Addresses, "from: alice@example.com")
	assert.Contains(t, header.Addresses, "to: bob@example.com")

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Please see the attached figures.", records[0].Text)

	children, err := env.db.FilesByContainer(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "attachments/figures.csv", children[0].Path)

	container, err := env.db.GetContainer(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	assert.Equal(t, core.KindEmail, container.Kind)
}

func TestOCRProcessor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ocr := mock.NewMockOCRService()
	ocr.Text = "text found in image"

	processor := NewOCRProcessor(env.content, env.db, ocr)
	ref := env.ingest(t, "scan.png", []byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, processor.Process(ctx, testDataset, ref.Hash))

	records, err := env.db.RecordsByHashes(ctx, testDataset, ref.Hash)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "easyocr", records[0].Extractor)
	assert.Equal(t, "text found in image", records[0].Text)
}
