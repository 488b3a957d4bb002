package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/token"
)

func TestModuleFileInheritsDownTheParentChain(t *testing.T) {
	inner := &ast.Name{Id: "x"}
	assign := &ast.Assign{Targets: []ast.Node{inner}, Value: &ast.Num{IVal: 1}}
	mod := ast.NewModule("pkg/mod.pyf", 0, 10, token.Position{}, []ast.Node{assign})

	ast.SetParents(mod)

	require.Equal(t, "pkg/mod.pyf", inner.File())
	require.Equal(t, assign, inner.Parent())
	require.Equal(t, ast.Node(mod), assign.Parent())
}

func TestSetParentsHandlesOptionalNilFields(t *testing.T) {
	bareReturn := &ast.Return{Value: nil}
	mod := ast.NewModule("f.pyf", 0, 1, token.Position{}, []ast.Node{bareReturn})

	require.NotPanics(t, func() { ast.SetParents(mod) })
}

func TestGetDocStringFindsLeadingStringLiteral(t *testing.T) {
	doc := &ast.Str{Value: "module docs"}
	body := []ast.Node{&ast.ExprStmt{Value: doc}}

	s, ok := ast.GetDocString(body)
	require.True(t, ok)
	require.Equal(t, "module docs", s)
}

func TestGetDocStringRejectsNonStringFirstStatement(t *testing.T) {
	body := []ast.Node{&ast.ExprStmt{Value: &ast.Num{IVal: 1}}}
	_, ok := ast.GetDocString(body)
	require.False(t, ok)
}

func TestGetDocStringEmptyBody(t *testing.T) {
	_, ok := ast.GetDocString(nil)
	require.False(t, ok)
}

func TestSetFileOverridesRootFileAfterCacheRoundTrip(t *testing.T) {
	mod := ast.NewModule("original.pyf", 0, 1, token.Position{}, nil)
	mod.SetFile("reimported.pyf")
	require.Equal(t, "reimported.pyf", mod.File())
}

func TestTupleNodeChildrenReturnsElements(t *testing.T) {
	a := &ast.Name{Id: "a"}
	b := &ast.Name{Id: "b"}
	tup := &ast.TupleNode{Elts: []ast.Node{a, b}}
	require.Equal(t, []ast.Node{a, b}, tup.Children())
}
