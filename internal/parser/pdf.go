package parser

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns page text in page order. A broken page ends extraction;
// pages read before it are kept.
func extractPDF(body []byte) (text string) {
	var pages []string
	defer func() {
		// the pdf reader panics on some malformed xref tables
		if r := recover(); r != nil {
			text = strings.Join(pages, "\n")
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return ""
	}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			break
		}
		pages = append(pages, strings.TrimSpace(s))
	}
	return strings.Join(pages, "\n")
}
