// Package styler renders a parsed module as a syntax-highlighted HTML
// fragment: one <span> per name, attribute, string, or number literal,
// carrying its inferred type as a title attribute and, when a Linker
// is supplied, a cross-reference link to its definition site. It is a
// read-only consumer of the analyzer's query surface (spec.md §6),
// mirroring the teacher's cmd/lsp hover handler rather than a
// component of the analysis itself.
package styler

import (
	"html"
	"sort"
	"strings"

	"github.com/arborist-lang/arborist/internal/analyzer"
	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/demo/linker"
)

// span is one highlighted source range.
type span struct {
	start, end int
	class      string
	title      string
	href       string // empty: no cross-reference link
	anchorID   string // empty: not a definition site
}

// Render walks mod and returns an HTML fragment wrapping src in
// <span class="tok-...">-delimited runs, escaped for embedding in a
// page. Source ranges the walk doesn't visit pass through unchanged
// (whitespace, punctuation, keywords the node taxonomy doesn't carry
// as their own node). l may be nil, in which case spans carry no
// cross-reference links or anchors.
func Render(a *analyzer.Analyzer, mod *ast.Module, src []byte, file string, l *linker.Linker) string {
	var spans []span
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if s, ok := classify(a, l, file, n); ok {
			spans = append(spans, s)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	for _, stmt := range mod.Body {
		walk(stmt)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.WriteString(`<pre class="arborist-source">`)
	pos := 0
	for _, s := range spans {
		if s.start < pos || s.end > len(src) {
			continue // overlapping/out-of-range span from a malformed tree; skip rather than corrupt the output
		}
		b.WriteString(html.EscapeString(string(src[pos:s.start])))
		writeOpenTag(&b, s)
		b.WriteString(html.EscapeString(string(src[s.start:s.end])))
		if s.href != "" {
			b.WriteString(`</a>`)
		}
		b.WriteString(`</span>`)
		pos = s.end
	}
	b.WriteString(html.EscapeString(string(src[pos:])))
	b.WriteString(`</pre>`)
	return b.String()
}

func writeOpenTag(b *strings.Builder, s span) {
	b.WriteString(`<span class="tok-`)
	b.WriteString(s.class)
	b.WriteString(`"`)
	if s.anchorID != "" {
		b.WriteString(` id="`)
		b.WriteString(html.EscapeString(s.anchorID))
		b.WriteString(`"`)
	}
	b.WriteString(` title="`)
	b.WriteString(html.EscapeString(s.title))
	b.WriteString(`">`)
	if s.href != "" {
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(s.href))
		b.WriteString(`">`)
	}
}

// classify returns the highlight span for a node worth annotating, and
// whether n is one of those kinds at all.
func classify(a *analyzer.Analyzer, l *linker.Linker, file string, n ast.Node) (span, bool) {
	switch v := n.(type) {
	case *ast.Name:
		s := span{start: v.Start(), end: v.End(), class: "name", title: typeTitle(a, v)}
		annotate(&s, l, file, v)
		return s, true
	case *ast.Attribute:
		// Span only the ".attr" suffix: v.Value is walked separately as
		// its own node and would otherwise double up with this span.
		s := span{start: v.Value.End(), end: v.End(), class: "attribute", title: typeTitle(a, v)}
		annotate(&s, l, file, v)
		return s, true
	case *ast.Str:
		return span{start: v.Start(), end: v.End(), class: "string", title: "Str"}, true
	case *ast.Num:
		title := "Int"
		if v.IsFloat {
			title = "Unknown"
		}
		return span{start: v.Start(), end: v.End(), class: "number", title: title}, true
	}
	return span{}, false
}

// annotate fills in a name/attribute span's cross-reference link and
// definition anchor from the linker's binding index, when one was
// supplied.
func annotate(s *span, l *linker.Linker, file string, n ast.Node) {
	if l == nil {
		return
	}
	if b, ok := l.DefinitionAt(n); ok {
		s.title = l.Title(b) + ": " + s.title
		s.anchorID = l.AnchorID(b)
		return
	}
	if b, ok := l.ReferenceAt(n); ok {
		s.title = l.Title(b) + ": " + s.title
		s.href = l.Href(file, b)
	}
}

// typeTitle reports the type the analyzer resolved for n, falling back
// to "Unknown" when n was never transformed (dead code the uncalled-
// function sweep didn't reach, or a node outside any loaded file).
func typeTitle(a *analyzer.Analyzer, n ast.Node) string {
	t, ok := a.GetNodeType(n)
	if !ok {
		return "Unknown"
	}
	return t.String()
}
