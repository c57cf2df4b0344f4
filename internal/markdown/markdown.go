package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Node is a parsed markdown document: the source bytes and the Goldmark AST
// built from them. A Node is never mutated after Parse returns; renderers
// read it through Source and Root only.
type Node struct {
	source []byte
	root   gmast.Node
}

// Document is read access to a parsed markdown tree. *Node implements it.
type Document interface {
	Source() []byte
	Root() gmast.Node
}

// Source returns the markdown the node was parsed from.
func (n *Node) Source() []byte {
	if n == nil {
		return nil
	}
	return n.source
}

// Root returns the document root of the AST.
func (n *Node) Root() gmast.Node {
	if n == nil {
		return nil
	}
	return n.root
}

// Extensions returns the Goldmark extensions shared by the parser and every
// formatter. Renderers must register the same set so that all node kinds
// produced by Parse have a renderer.
func Extensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.Strikethrough,
		extension.TaskList,
		extension.Footnote,
		Substitutions,
	}
}

// New builds a Goldmark instance with the shared extensions plus extra options.
func New(opts ...goldmark.Option) goldmark.Markdown {
	base := []goldmark.Option{
		goldmark.WithExtensions(Extensions()...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	return goldmark.New(append(base, opts...)...)
}

// Parse parses a markdown body (frontmatter already removed) into a Node.
func Parse(body []byte) *Node {
	src := append([]byte(nil), body...)
	root := New().Parser().Parse(text.NewReader(src))
	return &Node{source: src, root: root}
}
