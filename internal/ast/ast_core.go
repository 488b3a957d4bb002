// Package ast defines the fixed node taxonomy that every frontend
// (pyflavor, rbflavor) constructs and that the analyzer consumes as an
// external oracle. Dispatch over variants is a type switch, not a
// visitor: a new frontend only needs to build these node shapes, never
// to implement a parallel Accept method (see SPEC_FULL.md §4.9).
package ast

import "github.com/arborist-lang/arborist/internal/token"

// Node is the base interface every AST node satisfies. Only a
// module's root Node carries a non-empty File; every other node's
// File is resolved by walking the parent chain.
type Node interface {
	Start() int
	End() int
	Pos() token.Position
	Parent() Node
	SetParent(Node)
	File() string
	Children() []Node
}

// base is embedded by every concrete node. It is not itself a Node:
// each concrete type forwards to it, which keeps the taxonomy a set of
// plain structs rather than a class hierarchy.
type base struct {
	start, end int
	pos        token.Position
	parent     Node
	file       string // non-empty only on a Module root
}

func (b *base) Start() int           { return b.start }
func (b *base) End() int             { return b.end }
func (b *base) Pos() token.Position  { return b.pos }
func (b *base) Parent() Node         { return b.parent }
func (b *base) SetParent(p Node)     { b.parent = p }
func (b *base) File() string {
	if b.file != "" {
		return b.file
	}
	if b.parent != nil {
		return b.parent.File()
	}
	return ""
}

// Init sets the span a frontend parsed this node from. Every
// constructor calls it once, immediately after allocation.
func (b *base) Init(start, end int, pos token.Position) {
	b.start, b.end = start, end
	b.pos = pos
}

// Module is the root of every AST a frontend produces. Only the root
// carries File and Sha1; children inherit File via the parent chain.
type Module struct {
	base
	Sha1 string // content hash of the source, set by the cache on load
	Body []Node
}

func NewModule(file string, start, end int, pos token.Position, body []Node) *Module {
	m := &Module{Body: body}
	m.Init(start, end, pos)
	m.file = file
	return m
}

func (m *Module) Children() []Node { return m.Body }

// SetFile resets the root's file after a cache round-trip: two paths
// with identical content share one deserialized tree, and each caller
// must stamp its own path back in before use (spec.md §4.8, §9(c)).
func (m *Module) SetFile(file string) { m.file = file }

// SetParents walks the whole tree once, establishing the invariant
// that every reachable child has its parent set before analysis
// begins (spec.md §3).
func SetParents(root Node) {
	for _, c := range root.Children() {
		if c == nil {
			continue
		}
		c.SetParent(root)
		SetParents(c)
	}
}

// GetDocString returns the string-literal value of the first statement
// in body, if and only if that statement is a bare expression
// statement wrapping a string literal. Multiline leading comments
// never count, matching Design Note (b): a comment is not consulted,
// only an actual first-statement string-literal node.
func GetDocString(body []Node) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return "", false
	}
	str, ok := es.Value.(*Str)
	if !ok {
		return "", false
	}
	return str.Value, true
}
