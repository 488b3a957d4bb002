package pyflavor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
)

func TestParseFunctionDefWithDefaults(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("def f(a, b=1):\n    return a\n"))
	require.NoError(t, err)

	fn, ok := mod.Body[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "f", fn.Name)
	require.Equal(t, []string{"a", "b"}, fn.Args)
	require.Len(t, fn.Defaults, 1)
}

func TestParseClassWithBase(t *testing.T) {
	src := "class Dog(Animal):\n    def bark(self):\n        return 1\n"
	mod, err := pyflavor.Parse("t.pyf", []byte(src))
	require.NoError(t, err)

	cls, ok := mod.Body[0].(*ast.ClassDef)
	require.True(t, ok)
	require.Equal(t, "Dog", cls.Name)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Body, 1)
}

func TestParseImportFromWithNames(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("from os import path, getenv\n"))
	require.NoError(t, err)

	imp, ok := mod.Body[0].(*ast.ImportNode)
	require.True(t, ok)
	require.Equal(t, "os", imp.ModulePath)
	require.Equal(t, []string{"path", "getenv"}, imp.Names)
}

func TestParseImportWildcard(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("from os import *\n"))
	require.NoError(t, err)

	imp, ok := mod.Body[0].(*ast.ImportNode)
	require.True(t, ok)
	require.True(t, imp.IsWildcard)
}

func TestParseWithStatementBindsOptionalVars(t *testing.T) {
	src := "with open(\"f\") as fh:\n    fh\n"
	mod, err := pyflavor.Parse("t.pyf", []byte(src))
	require.NoError(t, err)

	w, ok := mod.Body[0].(*ast.With)
	require.True(t, ok)
	require.NotNil(t, w.OptionalVars)
}

func TestParseTryExceptElseFinally(t *testing.T) {
	src := "try:\n    1\nexcept ValueError as e:\n    2\nelse:\n    3\nfinally:\n    4\n"
	mod, err := pyflavor.Parse("t.pyf", []byte(src))
	require.NoError(t, err)

	tr, ok := mod.Body[0].(*ast.Try)
	require.True(t, ok)
	require.Len(t, tr.Handlers, 1)
	require.NotEmpty(t, tr.Orelse)
	require.NotEmpty(t, tr.Finalbody)
}

func TestParseListComprehension(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("x = [i for i in range(10)]\n"))
	require.NoError(t, err)

	assign, ok := mod.Body[0].(*ast.Assign)
	require.True(t, ok)
	_, ok = assign.Value.(*ast.ListComp)
	require.True(t, ok)
}
