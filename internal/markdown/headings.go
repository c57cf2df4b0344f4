package markdown

import (
	"bytes"

	gmast "github.com/yuin/goldmark/ast"
)

// Anchors returns the heading IDs of a document in order of appearance.
func Anchors(n Document) []string {
	anchors := make([]string, 0)
	_ = gmast.Walk(n.Root(), func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := node.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if id, found := h.AttributeString("id"); found {
			if b, ok := id.([]byte); ok && len(b) > 0 {
				anchors = append(anchors, string(b))
			}
		}
		return gmast.WalkSkipChildren, nil
	})
	return anchors
}

// Title returns the plain text of the first level-1 heading, or "".
func Title(n Document) string {
	var title string
	_ = gmast.Walk(n.Root(), func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := node.(*gmast.Heading); ok && h.Level == 1 {
			title = PlainText(h, n.Source())
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// PlainText concatenates the text segments below node.
func PlainText(node gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(node, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *gmast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(v.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
