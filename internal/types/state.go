package types

import (
	"fmt"

	"github.com/arborist-lang/arborist/internal/ast"
)

// ScopeKind classifies a State the way spec.md §3 enumerates it.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeInstance
	ScopeBlock // generic "SCOPE" — if/for/while/try bodies, comprehensions
	ScopeGlobal
)

// BindingKind classifies what kind of definition site a Binding
// records (spec.md §3 "Binding").
type BindingKind int

const (
	BindModule BindingKind = iota
	BindClass
	BindMethod
	BindFunction
	BindConstructor
	BindParameter
	BindVariable
	BindScope
	BindAttribute
)

func (k BindingKind) String() string {
	return [...]string{"MODULE", "CLASS", "METHOD", "FUNCTION", "CONSTRUCTOR", "PARAMETER", "VARIABLE", "SCOPE", "ATTRIBUTE"}[k]
}

// Ref is a single successful name/attribute lookup site. It is hashed
// by (file, start, length) — see RefKey.
type Ref struct {
	Node   ast.Node
	File   string
	Start  int
	Length int
}

// RefKey is the hash key spec.md §3 specifies for Ref: "{file, start,
// length}".
func RefKey(r Ref) string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.Start, r.Length)
}

// Binding is a name-to-type association at one definition site, with
// back-links to every observed reference (spec.md §3 "Binding").
// Mutation after creation is restricted to appending Refs and
// refining Type via Union — everything else is set once, at creation.
type Binding struct {
	Name         string
	DefiningNode ast.Node
	Type         Type
	Kind         BindingKind
	QName        string
	File         string
	Start        int
	Length       int
	Builtin      bool
	URL          string

	refs map[string]*Ref
}

// AddRef records a reference to this binding, deduplicating by Ref's
// (file, start, length) key.
func (b *Binding) AddRef(r Ref) {
	if b.refs == nil {
		b.refs = make(map[string]*Ref)
	}
	rr := r
	b.refs[RefKey(r)] = &rr
}

// Refs returns every reference recorded against this binding.
func (b *Binding) Refs() []*Ref {
	out := make([]*Ref, 0, len(b.refs))
	for _, r := range b.refs {
		out = append(out, r)
	}
	return out
}

// State is a lexical environment forming a parent chain, plus the
// dotted qualified-name prefix (spec.md §3 "State (Scope)").
type State struct {
	Parent      *State
	Kind        ScopeKind
	Table       map[string][]*Binding
	Path        string
	GlobalNames map[string]bool
	Forwarding  *State

	// Self is the receiver type bound for a method-call scope, kept
	// off to the side rather than in Table: spec.md §3's selfType is
	// threaded per call rather than stored on FunctionType (see
	// DESIGN.md's internal/types section), and a State-side slot is
	// where that thread actually lives across the body it scopes.
	Self Type
}

// NewState creates a child scope of parent. pathSegment is the name
// this scope contributes to the qualified-name prefix (a function or
// class name); pass "" for scopes that don't extend the path (if/for/
// while/try bodies, comprehensions).
func NewState(parent *State, kind ScopeKind, pathSegment string) *State {
	path := ""
	if parent != nil {
		path = parent.Path
		if pathSegment != "" {
			path = parent.ExtendPath(pathSegment)
		}
	} else if pathSegment != "" {
		path = pathSegment
	}
	return &State{
		Parent:      parent,
		Kind:        kind,
		Table:       make(map[string][]*Binding),
		Path:        path,
		GlobalNames: make(map[string]bool),
	}
}

// ExtendPath returns path + "." + segment, or segment alone when path
// is empty (spec.md §4.2).
func (s *State) ExtendPath(segment string) string {
	if s.Path == "" {
		return segment
	}
	return s.Path + "." + segment
}

// Lookup walks the parent chain and returns the binding list at the
// innermost scope that declares name, or nil.
func (s *State) Lookup(name string) []*Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if bs, ok := cur.Table[name]; ok && len(bs) > 0 {
			return bs
		}
	}
	return nil
}

// LookupAttr is a single-level lookup (no parent walk), used for
// attribute resolution against class/module tables.
func (s *State) LookupAttr(name string) []*Binding {
	return s.Table[name]
}

// Insert creates or updates a Binding. If name was already bound at
// this scope by the same defining node, the existing binding's type
// is widened via Union and its location data left untouched;
// otherwise a fresh Binding is appended.
func (s *State) Insert(name string, node ast.Node, typ Type, kind BindingKind, file string, start, length int) *Binding {
	existing := s.Table[name]
	for _, b := range existing {
		if b.DefiningNode == node {
			b.Type = Union(b.Type, typ)
			return b
		}
	}
	b := &Binding{
		Name:         name,
		DefiningNode: node,
		Type:         typ,
		Kind:         kind,
		QName:        s.ExtendPath(name),
		File:         file,
		Start:        start,
		Length:       length,
	}
	// Copy-on-write append: never grow into another State's shared
	// backing array (Copy() clones the map but not the slices).
	s.Table[name] = append(existing[:len(existing):len(existing)], b)
	return b
}

// Copy produces a shallow snapshot — same parent, cloned table — used
// for branch-flow analysis (spec.md §3 "State (Scope)").
func (s *State) Copy() *State {
	tbl := make(map[string][]*Binding, len(s.Table))
	for k, v := range s.Table {
		cp := make([]*Binding, len(v))
		copy(cp, v)
		tbl[k] = cp
	}
	glob := make(map[string]bool, len(s.GlobalNames))
	for k, v := range s.GlobalNames {
		glob[k] = v
	}
	return &State{
		Parent:      s.Parent,
		Kind:        s.Kind,
		Table:       tbl,
		Path:        s.Path,
		GlobalNames: glob,
		Forwarding:  s.Forwarding,
		Self:        s.Self,
	}
}

// Overwrite replaces s's table with other's (spec.md §4.2 "merge").
func (s *State) Overwrite(other *State) {
	s.Table = other.Table
}

// Merge produces a new State whose table is the per-key union of a's
// and b's binding lists (spec.md §4.2).
func Merge(a, b *State) *State {
	merged := &State{
		Parent:      a.Parent,
		Kind:        a.Kind,
		Path:        a.Path,
		Table:       make(map[string][]*Binding),
		GlobalNames: make(map[string]bool),
		Self:        a.Self,
	}
	for k, v := range a.GlobalNames {
		merged.GlobalNames[k] = v
	}
	for k, v := range b.GlobalNames {
		merged.GlobalNames[k] = v
	}

	seen := make(map[string]bool)
	for k := range a.Table {
		seen[k] = true
	}
	for k := range b.Table {
		seen[k] = true
	}
	for k := range seen {
		merged.Table[k] = unionBindingLists(a.Table[k], b.Table[k])
	}
	return merged
}

func unionBindingLists(a, b []*Binding) []*Binding {
	out := make([]*Binding, 0, len(a)+len(b))
	seen := make(map[*Binding]bool, len(a)+len(b))
	for _, x := range append(append([]*Binding{}, a...), b...) {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// NameType returns the union of every binding's type bound to name at
// the innermost declaring scope, or (UNKNOWN, false) if undeclared.
func (s *State) NameType(name string) (Type, bool) {
	bs := s.Lookup(name)
	if len(bs) == 0 {
		return UNKNOWN, false
	}
	var t Type = UNKNOWN
	for _, b := range bs {
		t = Union(t, b.Type)
	}
	return t, true
}
