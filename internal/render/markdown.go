package render

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/markdown"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// FormatMarkdown is the format tag of MarkdownFormatter.
const FormatMarkdown = "markdown"

// MarkdownFormatter re-emits the document's markdown with link, image and
// reference definition destinations resolved for the output tree and |name|
// references replaced. Everything else is copied byte for byte. A link whose
// destination changes but cannot be found in the source is a gap.
type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter { return &MarkdownFormatter{} }

func (f *MarkdownFormatter) Format() string { return FormatMarkdown }

func (f *MarkdownFormatter) Render(ctx context.Context, node docset.Node, rc *rendercontext.Context) ([]byte, error) {
	src := node.Source()
	edits := make([]markdown.Edit, 0)

	defs := markdown.Definitions(node)
	rewritten := map[int]bool{}

	for _, l := range markdown.ExtractLinks(node) {
		if l.Kind == markdown.LinkKindAuto {
			continue
		}
		var (
			u   string
			err error
		)
		if l.Kind == markdown.LinkKindImage {
			u, err = rc.AssetURL(ctx, l.Destination)
		} else {
			u, err = rc.Resolve(ctx, l.Destination)
		}
		if err != nil {
			return nil, err
		}
		if u == l.Destination {
			continue
		}
		if l.Located() {
			edits = append(edits, markdown.Edit{Start: l.Start, End: l.End, Replacement: []byte(u)})
			continue
		}

		// Reference links are rewritten at their definition.
		found := false
		for _, d := range defs {
			if d.Destination != l.Destination {
				continue
			}
			found = true
			if !rewritten[d.Start] {
				rewritten[d.Start] = true
				edits = append(edits, markdown.Edit{Start: d.Start, End: d.End, Replacement: []byte(u)})
			}
		}
		if found || strings.HasPrefix(u, urlgen.UnresolvedPrefix) {
			continue
		}
		slog.Debug("Link destination cannot be rewritten",
			logfields.Document(rc.CurrentFileName()),
			logfields.LinkTarget(l.Destination))
		if _, err := rc.Unresolved(ctx, l.Destination); err != nil {
			return nil, err
		}
	}

	for _, s := range markdown.FindSubstitutions(node) {
		v, ok := rc.Variable(s.Name)
		if !ok {
			slog.Debug("Undefined substitution variable",
				logfields.Document(rc.CurrentFileName()),
				slog.String("variable", s.Name))
			continue
		}
		edits = append(edits, markdown.Edit{Start: s.Segment.Start, End: s.Segment.Stop, Replacement: []byte(v)})
	}

	return markdown.ApplyEdits(src, edits)
}
