package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// extractDOCX reads paragraph text from the main document part. Decoding
// stops at the first XML error; paragraphs before it are kept.
func extractDOCX(body []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return ""
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			part = f
			break
		}
	}
	if part == nil {
		return ""
	}
	rc, err := part.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	return readParagraphs(rc)
}

func readParagraphs(r io.Reader) string {
	var (
		paragraphs []string
		cur        strings.Builder
		inText     bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			paragraphs = append(paragraphs, s)
		}
		cur.Reset()
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	flush()
	return strings.Join(paragraphs, "\n")
}
