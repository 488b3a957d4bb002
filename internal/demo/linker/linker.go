// Package linker resolves every binding's references to an anchor at
// its definition site, mirroring the hover/definition handlers of the
// teacher's cmd/lsp: a read-only consumer of the analyzer's binding and
// reference index (spec.md §6), never mutating it.
package linker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/arborist-lang/arborist/internal/analyzer"
	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/types"
)

// Linker indexes an analysis run's bindings by both their definition
// site and every recorded reference site, so a page renderer can ask
// "is this exact node a definition or a use, and of what" in O(1)
// rather than re-scanning the binding index per node.
type Linker struct {
	anchors map[*types.Binding]string
	defSite map[string]*types.Binding
	refSite map[string]*types.Binding
}

// New walks every binding reachable from a (spec.md §6's global binding
// index), mints an anchor id for each, and indexes both its definition
// site and its reference sites by (file, start, length).
func New(a *analyzer.Analyzer) *Linker {
	l := &Linker{
		anchors: make(map[*types.Binding]string),
		defSite: make(map[string]*types.Binding),
		refSite: make(map[string]*types.Binding),
	}
	for _, b := range a.GetAllBindings() {
		l.anchors[b] = "def-" + uuid.New().String()
		if b.DefiningNode != nil {
			l.defSite[spanKey(b.File, b.DefiningNode)] = b
		}
		for _, r := range b.Refs() {
			l.refSite[types.RefKey(*r)] = b
		}
	}
	return l
}

func spanKey(file string, n ast.Node) string {
	return fmt.Sprintf("%s:%d:%d", file, n.Start(), n.End()-n.Start())
}

// AnchorID returns the id attribute a definition site's <span> should
// carry, minting one on demand for a binding New didn't already see
// (one GetAllBindings() missed, e.g. a builtin).
func (l *Linker) AnchorID(b *types.Binding) string {
	if id, ok := l.anchors[b]; ok {
		return id
	}
	id := "def-" + uuid.New().String()
	l.anchors[b] = id
	return id
}

// DefinitionAt reports the binding whose definition site exactly spans
// n, if n is one.
func (l *Linker) DefinitionAt(n ast.Node) (*types.Binding, bool) {
	b, ok := l.defSite[spanKey(n.File(), n)]
	return b, ok
}

// ReferenceAt reports the binding n is a recorded reference to, if it
// is one.
func (l *Linker) ReferenceAt(n ast.Node) (*types.Binding, bool) {
	key := types.RefKey(types.Ref{Node: n, File: n.File(), Start: n.Start(), Length: n.End() - n.Start()})
	b, ok := l.refSite[key]
	return b, ok
}

// OutputName maps a source path to the HTML file the styler renders it
// into, preserving the directory structure under outdir.
func OutputName(srcFile string) string {
	ext := filepath.Ext(srcFile)
	return strings.TrimSuffix(srcFile, ext) + ".html"
}

// Href returns the link a reference to b should carry, relative to
// fromFile (the file containing the reference). A same-file reference
// is a local anchor; a cross-file one points at the defining file's
// rendered page plus the anchor.
func (l *Linker) Href(fromFile string, b *types.Binding) string {
	id := l.AnchorID(b)
	if b.File == "" || b.File == fromFile {
		return "#" + id
	}
	fromDir := filepath.Dir(fromFile)
	rel, err := filepath.Rel(fromDir, OutputName(b.File))
	if err != nil {
		return OutputName(b.File) + "#" + id
	}
	return filepath.ToSlash(rel) + "#" + id
}

// Title returns the qualified name a link's title attribute should
// carry, for a reader hovering a cross-reference without following it.
func (l *Linker) Title(b *types.Binding) string {
	if b.QName != "" {
		return b.QName
	}
	return b.Name
}
