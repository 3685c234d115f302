package extract

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
	"github.com/poiesic/sift/vfs"
)

// EmailExtractor parses RFC 822 messages: structured headers, body text
// as extraction records, and attachments as container-linked files.
type EmailExtractor struct {
	db        storage.Store
	registrar *vfs.Registrar
}

var _ Extractor = (*EmailExtractor)(nil)

// NewEmailExtractor creates the email pass.
func NewEmailExtractor(db storage.Store, registrar *vfs.Registrar) (*EmailExtractor, error) {
	if registrar == nil {
		return nil, ErrRegistrarRequired
	}
	return &EmailExtractor{db: db, registrar: registrar}, nil
}

func (e *EmailExtractor) Name() string { return "email" }

// Extract parses the message and writes header, body, and attachment
// rows. The container hash is the email's own blob hash.
func (e *EmailExtractor) Extract(ctx context.Context, item *Item) error {
	if item.Depth >= maxContainerDepth {
		return ErrDepthExceeded
	}

	blob, err := item.Open()
	if err != nil {
		return err
	}
	defer blob.Close()

	msg, err := mail.ReadMessage(bufio.NewReader(blob))
	if err != nil {
		return err
	}

	if err := e.putHeader(ctx, item, msg); err != nil {
		return err
	}

	var pages []string
	var attachments []vfs.Entry
	if err := e.walkBody(msg.Header.Get("Content-Type"), transferDecoder(msg.Header.Get("Content-Transfer-Encoding"), msg.Body), &pages, &attachments); err != nil {
		return err
	}

	records := make([]*core.ExtractionRecord, 0, len(pages))
	for i, text := range pages {
		records = append(records, &core.ExtractionRecord{
			Dataset:   item.Ref.Dataset,
			Hash:      item.Ref.Hash,
			Extractor: e.Name(),
			Page:      uint32(i),
			Text:      text,
		})
	}
	if len(records) > 0 {
		if err := e.db.PutRecords(ctx, records...); err != nil {
			return err
		}
	}
	if len(attachments) > 0 {
		if _, err := e.registrar.RegisterEntries(ctx, item.Ref.Dataset, item.Ref.Hash, attachments); err != nil {
			return err
		}
	}

	return e.db.PutContainer(ctx, &core.Container{
		Dataset: item.Ref.Dataset,
		Hash:    item.Ref.Hash,
		Kind:    core.KindEmail,
		Types:   []string{item.Type.MIME},
	})
}

// putHeader writes the structured header row.
func (e *EmailExtractor) putHeader(ctx context.Context, item *Item, msg *mail.Message) error {
	raw := make(map[string]string, len(msg.Header))
	for key, values := range msg.Header {
		raw[key] = strings.Join(values, "; ")
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	var addresses []string
	for _, field := range []string{"From", "To", "Cc", "Bcc"} {
		value := msg.Header.Get(field)
		if value == "" {
			continue
		}
		addresses = append(addresses, fmt.Sprintf("%s: %s", strings.ToLower(field), formatAddresses(value)))
	}

	header := &core.EmailHeader{
		Dataset:    item.Ref.Dataset,
		Hash:       item.Ref.Hash,
		Subject:    decodeHeaderWord(msg.Header.Get("Subject")),
		Addresses:  strings.Join(addresses, "; "),
		RawHeaders: string(rawJSON),
	}
	if date, err := msg.Header.Date(); err == nil {
		header.DateSent = date.UTC()
	}
	return e.db.PutEmailHeader(ctx, header)
}

// formatAddresses normalizes an address header to bare addresses where
// parseable, falling back to the raw value.
func formatAddresses(value string) string {
	parsed, err := mail.ParseAddressList(value)
	if err != nil {
		return value
	}
	parts := make([]string, 0, len(parsed))
	for _, addr := range parsed {
		parts = append(parts, strings.ToLower(addr.Address))
	}
	return strings.Join(parts, ", ")
}

func decodeHeaderWord(value string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// walkBody descends multipart trees, collecting text parts as pages and
// everything with a filename as an attachment.
func (e *EmailExtractor) walkBody(contentType string, body io.Reader, pages *[]string, attachments *[]vfs.Entry) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart body without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			decoded := transferDecoder(part.Header.Get("Content-Transfer-Encoding"), part)
			if filename := part.FileName(); filename != "" {
				data, err := io.ReadAll(decoded)
				if err != nil {
					return err
				}
				*attachments = append(*attachments, vfs.Entry{
					Path:   "attachments/" + filename,
					Reader: strings.NewReader(string(data)),
				})
				continue
			}
			if err := e.walkBody(part.Header.Get("Content-Type"), decoded, pages, attachments); err != nil {
				return err
			}
		}
	}

	if strings.HasPrefix(mediaType, "text/") {
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			*pages = append(*pages, text)
		}
	}
	return nil
}

// transferDecoder wraps a part body with its transfer decoding.
func transferDecoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
