// Package parser turns a fetched body into indexable text and outgoing links.
package parser

import (
	"bytes"
	"io"

	"golang.org/x/net/html/charset"

	"webindexer/internal/document"
)

// Result is what one extraction yields. Links is nil for every kind except
// html.
type Result struct {
	Kind  document.Kind
	Title string
	Text  string
	Links []string
}

// Extract dispatches on the declared content type. It never fails: malformed
// input gives whatever text could be recovered before the damage, possibly
// none.
func Extract(body []byte, contentType, baseURL string) Result {
	kind := document.KindOf(contentType)
	res := Result{Kind: kind}

	switch kind {
	case document.KindHTML:
		res.Title, res.Text, res.Links = extractHTML(body, contentType, baseURL)
	case document.KindPDF:
		res.Text = extractPDF(body)
	case document.KindDOCX:
		res.Text = extractDOCX(body)
	case document.KindText:
		res.Text = string(decode(body, contentType))
	}
	return res
}

// decode converts body to UTF-8 using the charset parameter, a BOM or, for
// markup, a <meta> declaration. Undecodable input is returned unchanged.
func decode(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		return body
	}
	return out
}
