// Package binder pattern-binds destructurable assignment targets
// (spec.md §4.3 "Binder"): names, tuples/lists, subscripts, and
// attributes.
package binder

import (
	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/token"
	"github.com/arborist-lang/arborist/internal/types"
)

// Transformer evaluates an expression node under a state, the same
// signature the analyzer's own transform entry point has. The binder
// takes it as a callback instead of importing the analyzer package,
// which would otherwise be a cycle (analyzer already imports binder).
type Transformer func(node ast.Node, state *types.State) types.Type

// Bind dispatches on target's concrete AST variant and binds rhs into
// state, appending any diagnostics raised along the way to bag.
func Bind(state *types.State, target ast.Node, rhs types.Type, kind types.BindingKind, file string, xform Transformer, bag *diagnostics.Bag) {
	switch t := target.(type) {
	case *ast.Name:
		state.Insert(t.Id, t, rhs, kind, file, t.Start(), t.End()-t.Start())

	case *ast.TupleNode:
		bindSequence(state, t.Elts, rhs, kind, file, xform, bag, t.Pos())
	case *ast.ListNode:
		bindSequence(state, t.Elts, rhs, kind, file, xform, bag, t.Pos())

	case *ast.Starred:
		// A bare starred target outside a sequence binds to a List of
		// whatever rhs's element type is.
		Bind(state, t.Value, types.ListType{Elt: elementTypeOf(rhs)}, kind, file, xform, bag)

	case *ast.Attribute:
		objType := xform(t.Value, state)
		if st := underlyingState(objType); st != nil {
			st.Insert(t.Attr, t, rhs, types.BindAttribute, file, t.Start(), t.End()-t.Start())
		}

	case *ast.Subscript:
		// No binding; transform indexed sources for side effects only
		// (reference recording, nested binder calls).
		xform(t.Value, state)
		xform(t.Index, state)

	default:
		bag.Add(diagnostics.New(diagnostics.InvalidUnpackTarget, file, target.Pos(), "cannot bind to this expression"))
	}
}

// bindSequence implements the Tuple/List target rule of spec.md §4.3:
// element-wise binding against a compatible-length Tuple/List rhs,
// per-element binding against an iterable-typed rhs, or Unknown with
// a diagnostic otherwise. A Starred element inside the sequence
// absorbs the middle slice as a List.
func bindSequence(state *types.State, elts []ast.Node, rhs types.Type, kind types.BindingKind, file string, xform Transformer, bag *diagnostics.Bag, pos token.Position) {
	starIdx := -1
	for i, e := range elts {
		if _, ok := e.(*ast.Starred); ok {
			starIdx = i
			break
		}
	}

	switch r := rhs.(type) {
	case types.TupleType:
		bindFromSlice(state, elts, r.Elts, starIdx, kind, file, xform, bag, pos)
		return
	case types.ListType:
		// A List rhs (rather than a Tuple) has one element type for
		// every position; treat each slot as drawing from it, which
		// also exactly matches the iterable-typed fallback below.
	}

	if isIterable(rhs) {
		elt := elementTypeOf(rhs)
		for _, e := range elts {
			if s, ok := e.(*ast.Starred); ok {
				Bind(state, s.Value, types.ListType{Elt: elt}, kind, file, xform, bag)
				continue
			}
			Bind(state, e, elt, kind, file, xform, bag)
		}
		return
	}

	for _, e := range elts {
		Bind(state, e, types.UNKNOWN, kind, file, xform, bag)
	}
	bag.Add(diagnostics.New(diagnostics.InvalidUnpackTarget, file, pos, "unable to unpack non-iterable value"))
}

func bindFromSlice(state *types.State, elts []ast.Node, rhsElts []types.Type, starIdx int, kind types.BindingKind, file string, xform Transformer, bag *diagnostics.Bag, pos token.Position) {
	if starIdx < 0 {
		if len(elts) != len(rhsElts) {
			for _, e := range elts {
				Bind(state, e, types.UNKNOWN, kind, file, xform, bag)
			}
			bag.Add(diagnostics.New(diagnostics.InvalidUnpackTarget, file, pos, "tuple length mismatch in unpack"))
			return
		}
		for i, e := range elts {
			Bind(state, e, rhsElts[i], kind, file, xform, bag)
		}
		return
	}

	after := len(elts) - starIdx - 1
	if len(rhsElts) < starIdx+after {
		for _, e := range elts {
			Bind(state, e, types.UNKNOWN, kind, file, xform, bag)
		}
		bag.Add(diagnostics.New(diagnostics.InvalidUnpackTarget, file, pos, "tuple too short for starred unpack"))
		return
	}
	for i := 0; i < starIdx; i++ {
		Bind(state, elts[i], rhsElts[i], kind, file, xform, bag)
	}
	middle := rhsElts[starIdx : len(rhsElts)-after]
	star := elts[starIdx].(*ast.Starred)
	Bind(state, star.Value, types.ListType{Elt: types.UnionAll(middle)}, kind, file, xform, bag)
	for i := 0; i < after; i++ {
		Bind(state, elts[starIdx+1+i], rhsElts[len(rhsElts)-after+i], kind, file, xform, bag)
	}
}

func isIterable(t types.Type) bool {
	switch t.(type) {
	case types.ListType, types.SetType, types.StrType, types.DictType:
		return true
	}
	return false
}

func elementTypeOf(t types.Type) types.Type {
	switch v := t.(type) {
	case types.ListType:
		return v.Elt
	case types.SetType:
		return v.Elt
	case types.DictType:
		return v.Key
	case types.StrType:
		return types.STR
	case types.TupleType:
		return types.UnionAll(v.Elts)
	default:
		return types.UNKNOWN
	}
}

// underlyingState returns the scope an attribute assignment through
// objType should land in: a class's own table, an instance's class
// table, or a module's table.
func underlyingState(objType types.Type) *types.State {
	switch v := objType.(type) {
	case *types.ClassType:
		return v.St
	case *types.InstanceType:
		if v.Class != nil {
			return v.Class.St
		}
	case *types.ModuleType:
		return v.St
	case types.UnionType:
		for _, m := range v.Members {
			if st := underlyingState(m); st != nil {
				return st
			}
		}
	}
	return nil
}
