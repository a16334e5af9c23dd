package normalizer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// blockTags are the elements that imply a line break between blocks of the
// rich-text editor output.
var blockTags = map[string]bool{
	"div": true,
	"p":   true,
	"br":  true,
}

// Parse converts a rich-text HTML description into an ordered sequence of
// content parts. The traversal is depth-first in document order, so the
// output matches the visual top-to-bottom reading order: text nodes become
// text parts, inline data-URI images become image parts, and block-level
// boundaries become newlines. Consecutive text parts are merged and
// empty-after-trim text parts are dropped.
//
// The input is a body fragment, not a document, and is parsed as one. A full
// document parse would drop whitespace-only text before the first element,
// which breaks round-tripping already-normalized text through Parse.
func Parse(rawHTML string) ([]domain.ContentPart, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(rawHTML), container)
	if err != nil {
		return nil, fmt.Errorf("parsing description html: %w", err)
	}

	var parts []domain.ContentPart
	for _, n := range nodes {
		walk(n, &parts)
	}

	return consolidate(parts), nil
}

func walk(n *html.Node, parts *[]domain.ContentPart) {
	switch {
	case n.Type == html.ElementNode && n.Data == "img":
		if part, ok := imagePart(n); ok {
			*parts = append(*parts, part)
		}
	case n.Type == html.TextNode:
		if n.Data != "" {
			*parts = append(*parts, domain.TextPart(n.Data))
		}
	case n.Type == html.ElementNode && blockTags[n.Data]:
		*parts = append(*parts, domain.TextPart("\n"))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, parts)
	}
}

// imagePart extracts mime type and base64 payload from a data-URI image
// source: the payload follows the first comma, the mime type sits between
// ':' and ';' in the metadata prefix.
func imagePart(n *html.Node) (domain.ContentPart, bool) {
	var src string
	for _, attr := range n.Attr {
		if attr.Key == "src" {
			src = attr.Val
			break
		}
	}
	if !strings.HasPrefix(src, "data:image") {
		return domain.ContentPart{}, false
	}

	meta, payload, found := strings.Cut(src, ",")
	if !found {
		return domain.ContentPart{}, false
	}

	colon := strings.Index(meta, ":")
	semi := strings.Index(meta, ";")
	if colon < 0 || semi < colon {
		return domain.ContentPart{}, false
	}

	return domain.ImagePart(meta[colon+1:semi], payload), true
}

// consolidate merges runs of consecutive text parts and drops text parts
// that are empty after trimming. Image parts are never merged or dropped.
func consolidate(parts []domain.ContentPart) []domain.ContentPart {
	var merged []domain.ContentPart
	for _, part := range parts {
		if part.IsText() && len(merged) > 0 && merged[len(merged)-1].IsText() {
			merged[len(merged)-1].Text += part.Text
			continue
		}
		merged = append(merged, part)
	}

	var out []domain.ContentPart
	for _, part := range merged {
		if part.IsText() && strings.TrimSpace(part.Text) == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
