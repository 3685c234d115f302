package core

import "strings"

// Kind is the coarse file category used for extraction routing.
type Kind string

const (
	KindArchive Kind = "archive"
	KindEmail   Kind = "email"
	KindText    Kind = "text"
	KindHTML    Kind = "html"
	KindDoc     Kind = "doc"
	KindXLS     Kind = "xls"
	KindPPT     Kind = "ppt"
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindOther   Kind = "other"
)

var htmlMIMEs = map[string]bool{
	"text/html":                 true,
	"text/xhtml+xml":            true,
	"application/xhtml+xml":     true,
	"application/xaml+xml":      true,
	"application/x-hush-pgp-encrypted-html-body":           true,
	"application/x-hush-pgp-encrypted-html-body-multipart": true,
}

var archiveMIMEs = map[string]bool{
	"application/zip":              true,
	"application/x-zip":            true,
	"application/x-zip-compressed": true,
	"application/x-tar":            true,
	"application/x-7z-compressed":  true,
	"application/x-rar-compressed": true,
	"application/x-rar":            true,
	"application/rar":              true,
	"application/vnd.rar":          true,
	"application/x-bzip2":          true,
	"application/x-gzip":           true,
	"application/gzip":             true,
	"application/x-lzma":           true,
	"application/x-lzip":           true,
	"application/x-xz":             true,
	"application/x-zstd":           true,
	"application/zstd":             true,
}

var docMIMEs = map[string]bool{
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template": true,
	"application/vnd.ms-word.document.macroEnabled.12":                        true,
	"application/vnd.oasis.opendocument.text":                                 true,
	"application/rtf": true,
}

var xlsMIMEs = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":    true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.template": true,
	"application/vnd.ms-excel.template.macroEnabled.12":                    true,
	"application/vnd.ms-excel.sheet.macroEnabled.12":                       true,
	"application/vnd.oasis.opendocument.spreadsheet":                       true,
	"application/x-excel":   true,
	"application/x-msexcel": true,
	"application/x-ms-excel": true,
}

var pptMIMEs = map[string]bool{
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.openxmlformats-officedocument.presentationml.template":     true,
	"application/vnd.ms-powerpoint.template.macroEnabled.12":                    true,
	"application/vnd.ms-powerpoint.slideshow.macroEnabled.12":                   true,
	"application/vnd.oasis.opendocument.presentation":                           true,
	"application/x-powerpoint":   true,
	"application/x-mspowerpoint": true,
}

var emailMIMEs = map[string]bool{
	"message/rfc822":             true,
	"application/vnd.ms-outlook": true,
	"application/vnd.ms-exchange": true,
	"application/mbox":           true,
}

// KindFromMIME maps a MIME type to its coarse category. Unknown types map
// to KindOther; the generic extraction pass still covers them.
func KindFromMIME(mimeType string) Kind {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case htmlMIMEs[mt]:
		return KindHTML
	case archiveMIMEs[mt] || strings.HasPrefix(mt, "application/x-zip"):
		return KindArchive
	case docMIMEs[mt]:
		return KindDoc
	case xlsMIMEs[mt]:
		return KindXLS
	case pptMIMEs[mt]:
		return KindPPT
	case emailMIMEs[mt]:
		return KindEmail
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio
	case mt == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mt, "text/"):
		return KindText
	}
	return KindOther
}
