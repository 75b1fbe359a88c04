// Package document holds the record the crawler writes and the ranker reads.
package document

import (
	"mime"
	"strings"
	"time"
)

// Kind is the extraction variant a fetched resource was handled as.
type Kind string

const (
	KindHTML        Kind = "html"
	KindPDF         Kind = "pdf"
	KindDOCX        Kind = "docx"
	KindText        Kind = "text"
	KindUnsupported Kind = "unsupported"
)

// MIME types we know how to extract.
const (
	MIMEHTML  = "text/html"
	MIMEXHTML = "application/xhtml+xml"
	MIMEPDF   = "application/pdf"
	MIMEDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText  = "text/plain"
)

// KindOf resolves a declared Content-Type header value to a Kind.
// Parameters (charset etc.) are ignored and matching is case-insensitive.
func KindOf(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// fall back to the raw prefix, some servers send junk parameters
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	switch strings.ToLower(mediaType) {
	case MIMEHTML, MIMEXHTML:
		return KindHTML
	case MIMEPDF:
		return KindPDF
	case MIMEDOCX:
		return KindDOCX
	case MIMEText:
		return KindText
	default:
		return KindUnsupported
	}
}

// Document is one crawled resource keyed by its normalized URL.
type Document struct {
	URL         string    `json:"url" bson:"_id"`
	Title       string    `json:"title,omitempty" bson:"title,omitempty"`
	Text        string    `json:"content" bson:"content"`
	Links       []string  `json:"urls" bson:"urls"`
	Kind        Kind      `json:"kind" bson:"kind"`
	ContentType string    `json:"content_type,omitempty" bson:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at" bson:"fetched_at"`
}
