// Package types implements the structural/nominal type lattice
// (spec.md §3, §4.1) together with the lexical State/Scope model and
// the Binding/Ref records a State holds (spec.md §4.2, "Binding",
// "Ref"). All three live in one package for the same reason
// golang.org/x/tools's go/types folds Scope, Object, and Type
// together (see _examples/tmc-mirror-go.tools/go/types/check.go):
// a Function/Class/Module type owns a State, and a State's table
// holds Bindings whose Type field is drawn from this same lattice —
// splitting them across packages would be a two-package import cycle.
package types

import (
	"fmt"

	"github.com/arborist-lang/arborist/internal/ast"
)

// Type is the sum type every lattice member implements. Identity is
// per object except for the process-global singletons.
type Type interface {
	String() string
	typeTag() string
}

// ---- Unknown / Cont / Nil -------------------------------------------------

type unknownType struct{}

func (unknownType) String() string  { return "Unknown" }
func (unknownType) typeTag() string { return "unknown" }

// UNKNOWN is the process-global bottom-ish element: union(UNKNOWN, x) == x.
var UNKNOWN Type = unknownType{}

type contType struct{}

func (contType) String() string  { return "Cont" }
func (contType) typeTag() string { return "cont" }

// CONT signals "control continues, no value": the type a statement
// with no value of its own (Break, Continue, Return, a definition or a
// control-flow block) transforms to.
var CONT Type = contType{}

type nilType struct{}

func (nilType) String() string  { return "Nil" }
func (nilType) typeTag() string { return "nil" }

// NIL is the sole value of the Nil type.
var NIL Type = nilType{}

// ---- Bool / undecided bool -------------------------------------------------

// BoolType is either a concrete boolean, the abstract Bool type, or an
// "undecided bool": a boolean result that additionally carries the two
// alternate states produced by narrowing (glossary: "Undecided bool").
type BoolType struct {
	Concrete  *bool
	Undecided bool
	S1, S2    *State
}

func (b *BoolType) String() string {
	switch {
	case b.Concrete != nil:
		if *b.Concrete {
			return "True"
		}
		return "False"
	case b.Undecided:
		return "Bool?"
	default:
		return "Bool"
	}
}
func (*BoolType) typeTag() string { return "bool" }

func boolPtr(v bool) *bool { return &v }

// TRUE, FALSE are the process-global concrete-boolean singletons.
var TRUE = &BoolType{Concrete: boolPtr(true)}
var FALSE = &BoolType{Concrete: boolPtr(false)}

// BOOL is the abstract "some boolean, value unknown" type.
var BOOL = &BoolType{}

// NewUndecided builds a boolean result carrying narrowed true/false
// states, as produced by `and`/`or` chains and comparisons.
func NewUndecided(s1, s2 *State) *BoolType {
	return &BoolType{Undecided: true, S1: s1, S2: s2}
}

// ---- Int (bounded interval) -------------------------------------------------

// IntType is a bounded-interval integer (spec.md §3 "Int carries
// [lower, upper]..."). Int[1,1] is the literal 1; an unbounded side
// renders as ±∞.
type IntType struct {
	Lower, Upper               int64
	LowerBounded, UpperBounded bool
}

// IsActualValue reports whether this interval denotes exactly one
// concrete integer.
func (i IntType) IsActualValue() bool {
	return i.LowerBounded && i.UpperBounded && i.Lower == i.Upper
}

// IsFeasible reports the invariant of spec.md §8: a fully-bounded
// interval must have lower <= upper.
func (i IntType) IsFeasible() bool {
	if i.LowerBounded && i.UpperBounded {
		return i.Lower <= i.Upper
	}
	return true
}

func (i IntType) String() string {
	lo, hi := "-∞", "+∞"
	if i.LowerBounded {
		lo = fmt.Sprintf("%d", i.Lower)
	}
	if i.UpperBounded {
		hi = fmt.Sprintf("%d", i.Upper)
	}
	if i.IsActualValue() {
		return fmt.Sprintf("Int[%d]", i.Lower)
	}
	return fmt.Sprintf("Int[%s,%s]", lo, hi)
}
func (IntType) typeTag() string { return "int" }

// IntExact builds the Int[v,v] type for a literal value v.
func IntExact(v int64) IntType {
	return IntType{Lower: v, Upper: v, LowerBounded: true, UpperBounded: true}
}

// IntUnbounded is the fully-unknown integer, `Int[-∞,+∞]`.
var IntUnbounded = IntType{}

// ---- Str ---------------------------------------------------------------

// StrType is the string type; it carries no literal-value information.
type StrType struct{}

func (StrType) String() string  { return "Str" }
func (StrType) typeTag() string { return "str" }

var STR = StrType{}

// ---- Containers ----------------------------------------------------------

type ListType struct{ Elt Type }

func (l ListType) String() string  { return "List[" + safe(l.Elt) + "]" }
func (ListType) typeTag() string   { return "list" }

type TupleType struct{ Elts []Type }

func (t TupleType) String() string {
	s := "Tuple("
	for i, e := range t.Elts {
		if i > 0 {
			s += ", "
		}
		s += safe(e)
	}
	return s + ")"
}
func (TupleType) typeTag() string { return "tuple" }

type DictType struct{ Key, Val Type }

func (d DictType) String() string { return "Dict[" + safe(d.Key) + "," + safe(d.Val) + "]" }
func (DictType) typeTag() string  { return "dict" }

type SetType struct{ Elt Type }

func (s SetType) String() string { return "Set[" + safe(s.Elt) + "]" }
func (SetType) typeTag() string  { return "set" }

func safe(t Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// ---- Union ---------------------------------------------------------------

// UnionType is always flat (no member is itself a UnionType) and its
// members are deduplicated by structural equality (spec.md §3, §8).
type UnionType struct{ Members []Type }

func (u UnionType) String() string {
	s := "Union{"
	for i, m := range u.Members {
		if i > 0 {
			s += "|"
		}
		s += safe(m)
	}
	return s + "}"
}
func (UnionType) typeTag() string { return "union" }

// ---- Class / Instance ------------------------------------------------------

// ClassType is identity-typed: two ClassType values are equal only if
// they are the same object, matching Go's nominal-class semantics.
type ClassType struct {
	Name  string
	St    *State
	Bases []*ClassType
	Def   *ast.ClassDef
}

func (c *ClassType) String() string { return "Class<" + c.Name + ">" }
func (*ClassType) typeTag() string  { return "class" }

// InstanceType records the class, the call node that created it (used
// for identity per spec.md §3), and the constructor argument types.
type InstanceType struct {
	Class    *ClassType
	Ctor     ast.Node
	CtorArgs []Type
}

func (i *InstanceType) String() string {
	if i.Class == nil {
		return "Instance<?>"
	}
	return "Instance<" + i.Class.Name + ">"
}
func (*InstanceType) typeTag() string { return "instance" }

// ---- Function --------------------------------------------------------------

// FunctionType's equality is identity, not shape: the same
// *FunctionType pointer is always returned for a given definition,
// which is what lets the call-cache memoization terminate mutually
// recursive inference (spec.md §4.1).
//
// selfType is deliberately NOT a field here (see DESIGN.md's
// internal/types section): spec.md §3 describes it as a
// transient, mutable slot on the Function value, but that aliases
// across every call site sharing one FunctionType. The call evaluator
// instead threads selfType as an explicit parameter.
type FunctionType struct {
	Def           *ast.FunctionDef // nil for a builtin
	Env           *State           // captured lexical environment
	Defaults      []Type           // default types, positional tail (len D)
	Name          string
	IsBuiltin     bool
	BuiltinReturn Type // used when Def == nil
	Doc           string
	URL           string

	// Cache memoizes fromType (a canonical key built from the actual
	// parameter types) -> toType. Keyed by string because Type values
	// are not comparable with ==  once containers/unions are involved.
	Cache map[string]Type

	// Scopes retains, per the same fromType key as Cache, the child
	// State the body was transformed under. A Binding "lives for the
	// process" (spec.md §3), including a function's local variables,
	// so the scope that owns them must survive past the call that
	// created it for the global binding index to walk later.
	Scopes map[string]*State
}

func (f *FunctionType) String() string {
	if f.Name != "" {
		return "Function<" + f.Name + ">"
	}
	return "Function<anonymous>"
}
func (*FunctionType) typeTag() string { return "function" }

// CacheKey builds the canonical key for a tuple of actual parameter
// types, used both to look up and to store a call's memoized result.
func CacheKey(args []Type) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ","
		}
		s += safe(a)
	}
	return s
}

// ---- Module ----------------------------------------------------------------

type ModuleType struct {
	Name string
	St   *State
	File string
}

func (m *ModuleType) String() string { return "Module<" + m.Name + ">" }
func (*ModuleType) typeTag() string  { return "module" }

// ---- Symbol/URL --------------------------------------------------------------

// SymbolType is a builtin reference that carries only a name and a
// documentation URL — used for builtin constants that aren't modeled
// more precisely (spec.md §2's "Symbol/URL" lattice member).
type SymbolType struct {
	Name string
	URL  string
}

func (s SymbolType) String() string { return "Symbol<" + s.Name + ">" }
func (SymbolType) typeTag() string  { return "symbol" }
