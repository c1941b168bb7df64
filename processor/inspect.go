package processor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/tlproxy"
	"golang.org/x/net/html"
)

// InspectedText is one distinct translatable text found by Inspect.
type InspectedText struct {
	ID      string `json:"id"` // tlproxy.FragmentID of the trimmed text
	Text    string `json:"text"`
	Context string `json:"context,omitempty"` // Where the text sits, e.g. `in <h1 class="title"> | inside: div`
}

// InspectedLink is one anchor Transform would rewrite.
type InspectedLink struct {
	Href      string `json:"href"`
	Rewritten string `json:"rewritten"`
}

// Summary describes what Transform would do to a document, without calling
// any provider.
type Summary struct {
	Title     string
	Lang      string
	Texts     []InspectedText
	Links     []InspectedLink
	Protected int // Elements skipped as protected
}

// Inspect parses the whole document and reports its distinct translatable
// texts and rewritable links. Anchors are matched on the parsed tree, so a
// self-closing anchor is listed even though Transform leaves it alone.
func (t *Transformer) Inspect(src io.Reader, rc RenderContext) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(src)
	if err != nil {
		return nil, &tlproxy.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	summary := &Summary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Lang:  doc.Find("html").First().AttrOr("lang", ""),
	}

	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && t.skipElement(n, rc.CodeSentinel) {
			summary.Protected++
			return
		}

		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" && !seen[trimmed] {
				seen[trimmed] = true
				summary.Texts = append(summary.Texts, InspectedText{
					ID:      tlproxy.FragmentID(trimmed),
					Text:    trimmed,
					Context: buildContext(n),
				})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if ShouldRewrite(href, rc.LinkKeyword) {
			summary.Links = append(summary.Links, InspectedLink{
				Href:      href,
				Rewritten: RewriteLink(href, rc),
			})
		}
	})

	return summary, nil
}

// skipElement reports whether the subtree of n is protected: an ignored
// tag, a data-no-translate element, or a code block whose first text child
// carries the sentinel.
func (t *Transformer) skipElement(n *html.Node, sentinel string) bool {
	if t.protected[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" {
			return true
		}
	}
	if sentinel != "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
		return strings.HasPrefix(n.FirstChild.Data, sentinel)
	}
	return false
}

// buildContext describes where a text node sits: its parent tag (with class
// or id) and up to three outer ancestors.
func buildContext(n *html.Node) string {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return ""
	}

	var parts []string

	var classAttr, idAttr string
	for _, attr := range parent.Attr {
		switch attr.Key {
		case "class":
			classAttr = attr.Val
		case "id":
			idAttr = attr.Val
		}
	}

	switch {
	case classAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", parent.Data, classAttr))
	case idAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s id=%q>", parent.Data, idAttr))
	default:
		parts = append(parts, fmt.Sprintf("in <%s>", parent.Data))
	}

	var ancestors []string
	ancestor := parent.Parent
	for i := 0; i < 3 && ancestor != nil; i++ {
		if ancestor.Type == html.ElementNode && ancestor.Data != "html" && ancestor.Data != "body" {
			ancestors = append(ancestors, ancestor.Data)
		}
		ancestor = ancestor.Parent
	}
	if len(ancestors) > 0 {
		// Reverse to show outer to inner
		for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
			ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
		}
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}

	return strings.Join(parts, " | ")
}
