package markdown

import (
	"bytes"
	"regexp"
	"sort"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

// Link is a link-like construct found in a parsed document.
//
// Start and End locate the destination text in the source. They are -1 when
// the destination does not appear literally after the link text (reference
// links, empty link text, autolinks).
type Link struct {
	Kind        LinkKind
	Destination string
	Start       int
	End         int
}

// Located reports whether the destination was found in the source.
func (l Link) Located() bool { return l.Start >= 0 }

// Definition is a link reference definition ("[label]: destination").
// Start and End locate the destination in the source.
type Definition struct {
	Label       string
	Destination string
	Start       int
	End         int
}

var definitionPattern = regexp.MustCompile(`(?m)^ {0,3}\[((?:[^\[\]\\]|\\.)+)\]:[ \t]*\n?[ \t]*(<[^<>\n]*>|\S+)`)

// Definitions returns the link reference definitions of a parsed document in
// source order. Lines that belong to a block still present in the tree
// (paragraph text, code, HTML) are not definitions and are skipped.
func Definitions(n Document) []Definition {
	src := n.Source()
	covered := blockLines(n.Root())

	defs := make([]Definition, 0)
	for _, m := range definitionPattern.FindAllSubmatchIndex(src, -1) {
		if isCovered(covered, m[2]-1) {
			continue
		}
		start, end := m[4], m[5]
		if src[start] == '<' {
			start++
			end--
		}
		defs = append(defs, Definition{
			Label:       string(src[m[2]:m[3]]),
			Destination: string(src[start:end]),
			Start:       start,
			End:         end,
		})
	}
	return defs
}

// blockLines returns the source lines held by the blocks of the tree,
// sorted by start offset.
func blockLines(root gmast.Node) []text.Segment {
	var segs []text.Segment
	_ = gmast.Walk(root, func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || node.Type() != gmast.TypeBlock {
			return gmast.WalkContinue, nil
		}
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			segs = append(segs, lines.At(i))
		}
		return gmast.WalkContinue, nil
	})
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	return segs
}

func isCovered(segs []text.Segment, offset int) bool {
	for _, s := range segs {
		if s.Start > offset {
			return false
		}
		if offset < s.Stop {
			return true
		}
	}
	return false
}

// ExtractLinks walks a parsed document and returns its links and images in
// document order.
func ExtractLinks(n Document) []Link {
	src := n.Source()
	links := make([]Link, 0)
	_ = gmast.Walk(n.Root(), func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(v.URL(src)), Start: -1, End: -1})
		case *gmast.Image:
			links = append(links, locate(src, node, LinkKindImage, string(v.Destination)))
		case *gmast.Link:
			links = append(links, locate(src, node, LinkKindInline, string(v.Destination)))
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// locate finds the inline destination of a link by scanning forward from the
// end of its content for "](" followed by the destination.
func locate(src []byte, node gmast.Node, kind LinkKind, dest string) Link {
	l := Link{Kind: kind, Destination: dest, Start: -1, End: -1}
	stop := contentStop(src, node)
	if stop < 0 || dest == "" {
		return l
	}
	i := stop
	for i < len(src) && bytes.IndexByte([]byte("*_`~"), src[i]) >= 0 {
		i++
	}
	if !bytes.HasPrefix(src[i:], []byte("](")) {
		return l
	}
	i += 2
	for i < len(src) && (src[i] == ' ' || src[i] == '<') {
		i++
	}
	if !bytes.HasPrefix(src[i:], []byte(dest)) {
		return l
	}
	l.Start = i
	l.End = i + len(dest)
	return l
}

// contentStop returns the source offset just past the last inline child of
// node: the end of a text segment, or the closing parenthesis of a nested
// image or link. It is -1 when nothing inside node maps to the source.
func contentStop(src []byte, node gmast.Node) int {
	stop := -1
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s := -1
		switch v := c.(type) {
		case *gmast.Text:
			s = v.Segment.Stop
		case *Substitution:
			s = v.Segment.Stop
		case *gmast.RawHTML:
			if n := v.Segments.Len(); n > 0 {
				s = v.Segments.At(n - 1).Stop
			}
		case *gmast.Image:
			s = closingParen(src, locate(src, v, LinkKindImage, string(v.Destination)))
		case *gmast.Link:
			s = closingParen(src, locate(src, v, LinkKindInline, string(v.Destination)))
		default:
			s = contentStop(src, c)
		}
		if s > stop {
			stop = s
		}
	}
	return stop
}

// closingParen returns the offset after the ")" that closes a located inline
// link, skipping an optional title.
func closingParen(src []byte, l Link) int {
	if !l.Located() {
		return -1
	}
	i := l.End
	if i < len(src) && src[i] == '>' {
		i++
	}
	i = skipSpace(src, i)
	if i < len(src) && (src[i] == '"' || src[i] == '\'' || src[i] == '(') {
		closer := src[i]
		if closer == '(' {
			closer = ')'
		}
		i++
		for i < len(src) && src[i] != closer {
			if src[i] == '\\' {
				i++
			}
			i++
		}
		i = skipSpace(src, i+1)
	}
	if i < len(src) && src[i] == ')' {
		return i + 1
	}
	return -1
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n') {
		i++
	}
	return i
}
