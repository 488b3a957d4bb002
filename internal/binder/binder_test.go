package binder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/binder"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/token"
	"github.com/arborist-lang/arborist/internal/types"
)

func name(id string) *ast.Name {
	n := &ast.Name{Id: id}
	n.Init(0, len(id), token.Position{})
	return n
}

func identity(n ast.Node, s *types.State) types.Type { return types.UNKNOWN }

func TestBindNameInsertsBinding(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()

	binder.Bind(s, name("x"), types.IntExact(1), types.BindVariable, "f.pyf", identity, bag)

	bs := s.Lookup("x")
	require.Len(t, bs, 1)
	require.Equal(t, types.IntExact(1), bs[0].Type)
	require.Empty(t, bag.All())
}

func TestBindTupleElementwiseAgainstTuple(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()
	target := &ast.TupleNode{Elts: []ast.Node{name("a"), name("b")}}
	rhs := types.TupleType{Elts: []types.Type{types.IntExact(1), types.STR}}

	binder.Bind(s, target, rhs, types.BindVariable, "f.pyf", identity, bag)

	aT, _ := s.NameType("a")
	bT, _ := s.NameType("b")
	require.Equal(t, types.IntExact(1), aT)
	require.Equal(t, types.STR, bT)
	require.Empty(t, bag.All())
}

func TestBindTupleLengthMismatchDiagnoses(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()
	target := &ast.TupleNode{Elts: []ast.Node{name("a"), name("b"), name("c")}}
	rhs := types.TupleType{Elts: []types.Type{types.IntExact(1), types.STR}}

	binder.Bind(s, target, rhs, types.BindVariable, "f.pyf", identity, bag)

	require.Len(t, bag.All(), 1)
	require.Equal(t, diagnostics.InvalidUnpackTarget, bag.All()[0].Code)

	aT, _ := s.NameType("a")
	require.True(t, types.IsUnknown(aT))
}

func TestBindStarredAbsorbsMiddleSlice(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()
	target := &ast.TupleNode{Elts: []ast.Node{
		name("head"),
		&ast.Starred{Value: name("mid")},
		name("tail"),
	}}
	rhs := types.TupleType{Elts: []types.Type{
		types.IntExact(1), types.STR, types.IntExact(2), types.IntExact(3),
	}}

	binder.Bind(s, target, rhs, types.BindVariable, "f.pyf", identity, bag)

	midT, _ := s.NameType("mid")
	list, ok := midT.(types.ListType)
	require.True(t, ok)
	require.Equal(t, types.Union(types.STR, types.IntExact(2)), list.Elt)

	tailT, _ := s.NameType("tail")
	require.Equal(t, types.IntExact(3), tailT)
	require.Empty(t, bag.All())
}

func TestBindSequenceAgainstIterableBroadcastsElementType(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()
	target := &ast.ListNode{Elts: []ast.Node{name("a"), name("b")}}
	rhs := types.ListType{Elt: types.STR}

	binder.Bind(s, target, rhs, types.BindVariable, "f.pyf", identity, bag)

	aT, _ := s.NameType("a")
	bT, _ := s.NameType("b")
	require.Equal(t, types.STR, aT)
	require.Equal(t, types.STR, bT)
}

func TestBindSequenceAgainstNonIterableDiagnoses(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()
	target := &ast.TupleNode{Elts: []ast.Node{name("a")}}

	binder.Bind(s, target, types.IntExact(1), types.BindVariable, "f.pyf", identity, bag)

	require.Len(t, bag.All(), 1)
	require.Equal(t, diagnostics.InvalidUnpackTarget, bag.All()[0].Code)
}

func TestBindAttributeInsertsIntoClassState(t *testing.T) {
	classState := types.NewState(nil, types.ScopeClass, "C")
	cls := &types.ClassType{Name: "C", St: classState}

	s := types.NewState(nil, types.ScopeModule, "")
	objXform := func(n ast.Node, st *types.State) types.Type { return cls }

	target := &ast.Attribute{Value: name("C"), Attr: "x"}
	bag := diagnostics.NewBag()

	binder.Bind(s, target, types.IntExact(1), types.BindAttribute, "f.pyf", objXform, bag)

	bs := classState.LookupAttr("x")
	require.Len(t, bs, 1)
	require.Equal(t, types.IntExact(1), bs[0].Type)
}

func TestBindUnsupportedTargetDiagnoses(t *testing.T) {
	s := types.NewState(nil, types.ScopeModule, "")
	bag := diagnostics.NewBag()

	binder.Bind(s, &ast.Num{IVal: 1}, types.IntExact(1), types.BindVariable, "f.pyf", identity, bag)

	require.Len(t, bag.All(), 1)
	require.Equal(t, diagnostics.InvalidUnpackTarget, bag.All()[0].Code)
}
