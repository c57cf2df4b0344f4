package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text/title
	Tag        string // HTML tag (a, img, script, link, etc.)
	Attribute  string // Attribute containing the link (href, src, etc.)
	IsInternal bool   // True if link is internal to the output tree
	Line       int    // Approximate line number in HTML
}

// Page is one parsed output page.
type Page struct {
	Links []*Link
	// IDs holds every id attribute; anchors are checked against it.
	IDs map[string]struct{}
}

// HasID reports whether the page declares the fragment id.
func (p *Page) HasID(id string) bool {
	_, ok := p.IDs[id]
	return ok
}

// linkAttrs maps tags to the attribute carrying their link.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

// ParseFile parses an HTML file.
func ParseFile(htmlPath string) (*Page, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close() // read-only
	}()

	return Parse(file)
}

// Parse extracts links and ids from an HTML reader.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	page := &Page{IDs: map[string]struct{}{}}
	var lineNum int

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			lineNum++
			if id := getAttr(n, "id"); id != "" {
				page.IDs[id] = struct{}{}
			}
			if link := extractElementLink(n, lineNum); link != nil {
				page.Links = append(page.Links, link)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return page, nil
}

// extractElementLink extracts the link of a single HTML element, if any.
func extractElementLink(n *html.Node, lineNum int) *Link {
	attr, ok := linkAttrs[n.Data]
	if !ok {
		return nil
	}
	target := getAttr(n, attr)
	if target == "" {
		return nil
	}
	link := &Link{
		URL:        target,
		Tag:        n.Data,
		Attribute:  attr,
		IsInternal: isInternalLink(target),
		Line:       lineNum,
	}
	switch n.Data {
	case "a":
		link.Text = extractText(n)
	case "img":
		link.Text = getAttr(n, "alt")
	case "link":
		link.Text = getAttr(n, "rel")
	}
	return link
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return strings.TrimSpace(text.String())
}

// isInternalLink reports whether a URL points into the output tree.
func isInternalLink(linkURL string) bool {
	if strings.HasPrefix(linkURL, "#") {
		return true
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// ShouldVerifyLink filters links that can never be checked against the tree.
func ShouldVerifyLink(link *Link) bool {
	if link.URL == "" || !link.IsInternal {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link.URL, prefix) {
			return false
		}
	}
	return true
}
