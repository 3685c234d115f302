package extract

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/vfs"
)

// ArchiveExtractor expands archives into container-linked file rows.
// Members become blobs like any other content; nested archives surface
// as new blobs and are expanded on the next planning round.
type ArchiveExtractor struct {
	db        storage.Store
	registrar *vfs.Registrar
}

var _ Extractor = (*ArchiveExtractor)(nil)

// NewArchiveExtractor creates the archive expansion pass.
func NewArchiveExtractor(db storage.Store, registrar *vfs.Registrar) (*ArchiveExtractor, error) {
	if registrar == nil {
		return nil, ErrRegistrarRequired
	}
	return &ArchiveExtractor{db: db, registrar: registrar}, nil
}

func (e *ArchiveExtractor) Name() string { return "archive" }

// Extract expands the archive and writes its container row. The
// container hash is the archive's own blob hash, so re-expansion is
// idempotent.
func (e *ArchiveExtractor) Extract(ctx context.Context, item *Item) error {
	if item.Depth >= maxContainerDepth {
		return ErrDepthExceeded
	}

	var expandErr error
	switch {
	case isZipMIME(item.Type.MIME):
		expandErr = e.expandZip(ctx, item)
	case item.Type.MIME == "application/x-tar":
		expandErr = e.expandStream(ctx, item, e.expandTar)
	case item.Type.MIME == "application/gzip" || item.Type.MIME == "application/x-gzip":
		expandErr = e.expandStream(ctx, item, e.expandGzip)
	case item.Type.MIME == "application/zstd" || item.Type.MIME == "application/x-zstd":
		expandErr = e.expandStream(ctx, item, e.expandZstd)
	default:
		return ErrUnsupportedArchive
	}
	if expandErr != nil {
		return expandErr
	}

	return e.db.PutContainer(ctx, &core.Container{
		Dataset: item.Ref.Dataset,
		Hash:    item.Ref.Hash,
		Kind:    core.KindArchive,
		Types:   []string{item.Type.MIME},
	})
}

func isZipMIME(mime string) bool {
	return mime == "application/zip" || strings.HasPrefix(mime, "application/x-zip")
}

// safeMemberPath normalizes a member path and rejects traversal.
func safeMemberPath(name string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return cleaned, true
}

// expandStream opens the staged copy and runs a sequential expansion.
func (e *ArchiveExtractor) expandStream(ctx context.Context, item *Item, expand func(context.Context, *Item, io.Reader) error) error {
	blob, err := item.Open()
	if err != nil {
		return err
	}
	defer blob.Close()
	return expand(ctx, item, blob)
}

// expandZip reads the staged copy directly; the zip directory needs
// random access.
func (e *ArchiveExtractor) expandZip(ctx context.Context, item *Item) error {
	zr, err := zip.OpenReader(item.Path)
	if err != nil {
		return err
	}
	defer zr.Close()

	var dirs []string
	for _, member := range zr.File {
		memberPath, ok := safeMemberPath(member.Name)
		if !ok {
			continue
		}
		if member.FileInfo().IsDir() {
			dirs = append(dirs, memberPath)
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return err
		}
		_, regErr := e.registrar.RegisterEntries(ctx, item.Ref.Dataset, item.Ref.Hash, []vfs.Entry{
			{Path: memberPath, Reader: rc},
		})
		rc.Close()
		if regErr != nil {
			return regErr
		}
	}
	_, err = e.registrar.RegisterDirectories(ctx, item.Ref.Dataset, item.Ref.Hash, "", dirs)
	return err
}

func (e *ArchiveExtractor) expandTar(ctx context.Context, item *Item, blob io.Reader) error {
	tr := tar.NewReader(blob)
	var dirs []string
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		memberPath, ok := safeMemberPath(header.Name)
		if !ok {
			continue
		}
		switch header.Typeflag {
		case tar.TypeDir:
			dirs = append(dirs, memberPath)
		case tar.TypeReg:
			_, err := e.registrar.RegisterEntries(ctx, item.Ref.Dataset, item.Ref.Hash, []vfs.Entry{
				{Path: memberPath, Reader: tr},
			})
			if err != nil {
				return err
			}
		}
	}
	_, err := e.registrar.RegisterDirectories(ctx, item.Ref.Dataset, item.Ref.Hash, "", dirs)
	return err
}

func (e *ArchiveExtractor) expandGzip(ctx context.Context, item *Item, blob io.Reader) error {
	gz, err := gzip.NewReader(blob)
	if err != nil {
		return err
	}
	defer gz.Close()

	name := gz.Name
	if name == "" {
		name = e.memberName(ctx, item, ".gz")
	}
	memberPath, ok := safeMemberPath(name)
	if !ok {
		memberPath = "content"
	}
	_, err = e.registrar.RegisterEntries(ctx, item.Ref.Dataset, item.Ref.Hash, []vfs.Entry{
		{Path: memberPath, Reader: gz},
	})
	return err
}

func (e *ArchiveExtractor) expandZstd(ctx context.Context, item *Item, blob io.Reader) error {
	zr, err := zstd.NewReader(blob)
	if err != nil {
		return err
	}
	defer zr.Close()

	memberPath, ok := safeMemberPath(e.memberName(ctx, item, ".zst"))
	if !ok {
		memberPath = "content"
	}
	_, err = e.registrar.RegisterEntries(ctx, item.Ref.Dataset, item.Ref.Hash, []vfs.Entry{
		{Path: memberPath, Reader: zr},
	})
	return err
}

// memberName derives a single-member name from the archive's own
// logical path, stripping the compression suffix.
func (e *ArchiveExtractor) memberName(ctx context.Context, item *Item, suffix string) string {
	paths, err := e.db.FilePaths(ctx, item.Ref.Dataset, item.Ref.Hash)
	if err != nil || len(paths) == 0 {
		return "content"
	}
	base := path.Base(paths[0])
	if trimmed := strings.TrimSuffix(base, suffix); trimmed != "" && trimmed != base {
		return trimmed
	}
	return base
}
