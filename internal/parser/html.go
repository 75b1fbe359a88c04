package parser

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nodes whose text is never shown to a reader
const invisible = "script, style, noscript, template"

func extractHTML(body []byte, contentType, baseURL string) (title, text string, links []string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decode(body, contentType)))
	if err != nil {
		return "", "", nil
	}

	title = collapse(doc.Find("title").First().Text())
	links = collectLinks(doc, baseURL)

	doc.Find(invisible).Remove()

	var sb strings.Builder
	for _, n := range doc.Find("body").Nodes {
		appendText(&sb, n)
	}
	return title, collapse(sb.String()), links
}

// appendText writes every text node under n, separated by spaces so that
// adjacent block elements do not glue words together.
func appendText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(sb, c)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func collectLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := ResolveLink(base, href)
		if abs == "" {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}
