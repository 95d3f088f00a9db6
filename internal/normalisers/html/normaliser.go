package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Normalise returns the readable text of the page. The <title>, when
// present, is the first line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("%w: html: %w", domain.ErrInvalidInput, err)
	}

	title := collapseSpaces(doc.Find("title").First().Text())
	doc.Find("head, script, style, noscript, svg, template, iframe").Remove()

	var b strings.Builder
	render(&b, doc.Selection)
	body := cleanLines(b.String())

	if title != "" && !strings.HasPrefix(body, title) {
		if body == "" {
			return title, nil
		}
		return title + "\n" + body, nil
	}
	return body, nil
}

// blockElements start and end on their own line.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

func render(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			b.WriteString(child.Text())
		case name == "br":
			b.WriteByte('\n')
		case name == "td" || name == "th":
			render(b, child)
			b.WriteByte('\t')
		case blockElements[name]:
			b.WriteByte('\n')
			render(b, child)
			b.WriteByte('\n')
		case strings.HasPrefix(name, "#"):
			// comments, doctype
		default:
			render(b, child)
		}
	})
}

var multiSpaces = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)

func collapseSpaces(s string) string {
	return strings.TrimSpace(multiSpaces.ReplaceAllString(s, " "))
}

// cleanLines collapses runs of spaces, trims each line and drops blank lines.
func cleanLines(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		// Tabs separate table cells.
		cells := strings.Split(line, "\t")
		kept := cells[:0]
		for _, c := range cells {
			if c = collapseSpaces(c); c != "" {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			out = append(out, strings.Join(kept, "\t"))
		}
	}
	return strings.Join(out, "\n")
}
