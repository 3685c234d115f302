package extract

import (
	"io"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/poiesic/sift/core"
)

// DetectedType is the result of content-type detection for one blob.
// Kinds is the sorted union of every detector's verdict; a file can
// match more than one coarse category (an mbox is both text and email)
// and each matching extractor runs.
type DetectedType struct {
	MIME      string
	Extension string
	Kinds     []core.Kind
}

// Primary returns the first kind in sorted order, for callers that
// want a single label.
func (d *DetectedType) Primary() core.Kind {
	if len(d.Kinds) == 0 {
		return core.KindOther
	}
	return d.Kinds[0]
}

// KindLabel joins the kind set into one comma-separated value.
func (d *DetectedType) KindLabel() string {
	parts := make([]string, 0, len(d.Kinds))
	for _, kind := range d.Kinds {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, ",")
}

// DetectReader sniffs the content type from the stream's leading bytes.
// The logical path refines the result: sniffing alone cannot tell a CSV
// from plain text, or an eml from any other text file, but the
// extension can.
func DetectReader(r io.Reader, logicalPath string) (*DetectedType, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, err
	}

	mime := mtype.String()
	ext := strings.TrimPrefix(mtype.Extension(), ".")
	if pathExt := strings.TrimPrefix(path.Ext(logicalPath), "."); pathExt != "" {
		ext = strings.ToLower(pathExt)
	}

	return &DetectedType{
		MIME:      mime,
		Extension: ext,
		Kinds:     kindSet(mime, ext),
	}, nil
}

// kindSet unions the sniffed kind with the extension mapping. Sniffing
// alone leaves emails looking like plain text and old office formats
// looking like generic OLE blobs; the extension adds the category the
// sniffer missed. KindOther drops out whenever a detector found
// something more specific.
func kindSet(mime, ext string) []core.Kind {
	set := map[core.Kind]bool{core.KindFromMIME(mime): true}
	if mapped, ok := extensionKinds[ext]; ok {
		set[mapped] = true
	}
	if len(set) > 1 {
		delete(set, core.KindOther)
	}

	kinds := make([]core.Kind, 0, len(set))
	for kind := range set {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// extensionKinds maps extensions that sniffing commonly misses. Mbox
// and eml files sniff as plain text; old office formats sniff as
// generic OLE containers.
var extensionKinds = map[string]core.Kind{
	"eml":  core.KindEmail,
	"mbox": core.KindEmail,
	"msg":  core.KindEmail,
	"doc":  core.KindDoc,
	"docx": core.KindDoc,
	"xls":  core.KindXLS,
	"xlsx": core.KindXLS,
	"ppt":  core.KindPPT,
	"pptx": core.KindPPT,
	"csv":  core.KindText,
	"log":  core.KindText,
	"md":   core.KindText,
}
