package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindSubstitution is the node kind of a |name| variable reference.
var KindSubstitution = gmast.NewNodeKind("Substitution")

// Substitution is an inline |name| reference resolved against the active
// variable table at render time.
type Substitution struct {
	gmast.BaseInline

	Name string
	// Segment covers the full |name| text including both bars.
	Segment text.Segment
}

func (n *Substitution) Kind() gmast.NodeKind { return KindSubstitution }

func (n *Substitution) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

type substitutionParser struct{}

func (p *substitutionParser) Trigger() []byte { return []byte{'|'} }

func (p *substitutionParser) Parse(_ gmast.Node, block text.Reader, _ parser.Context) gmast.Node {
	line, segment := block.PeekLine()
	end := -1
	for i := 1; i < len(line); i++ {
		if line[i] == '|' {
			end = i
			break
		}
		if !isNameByte(line[i]) {
			return nil
		}
	}
	if end <= 1 {
		return nil
	}
	n := &Substitution{
		Name:    string(line[1:end]),
		Segment: text.NewSegment(segment.Start, segment.Start+end+1),
	}
	block.Advance(end + 1)
	return n
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type substitutions struct{}

// Substitutions adds |name| variable references to a Goldmark parser.
var Substitutions goldmark.Extender = &substitutions{}

func (e *substitutions) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&substitutionParser{}, 900),
	))
}

// FindSubstitutions returns the |name| references of a document in order.
func FindSubstitutions(n Document) []*Substitution {
	subs := make([]*Substitution, 0)
	_ = gmast.Walk(n.Root(), func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if s, ok := node.(*Substitution); ok && entering {
			subs = append(subs, s)
		}
		return gmast.WalkContinue, nil
	})
	return subs
}
