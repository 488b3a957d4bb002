package rbflavor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/frontend/rbflavor"
)

func TestParseMethodDefWithDefaults(t *testing.T) {
	src := "def greet(name, greeting = \"hi\")\n  return name\nend\n"
	mod, err := rbflavor.Parse("t.rbf", []byte(src))
	require.NoError(t, err)
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "greet", fn.Name)
	require.Equal(t, []string{"name", "greeting"}, fn.Args)
	require.Len(t, fn.Defaults, 1)
}

func TestParseClassWithSuperclassAndMethod(t *testing.T) {
	src := "class Dog < Animal\n  def bark\n    return 1\n  end\nend\n"
	mod, err := rbflavor.Parse("t.rbf", []byte(src))
	require.NoError(t, err)

	cls, ok := mod.Body[0].(*ast.ClassDef)
	require.True(t, ok)
	require.Equal(t, "Dog", cls.Name)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Body, 1)

	method, ok := cls.Body[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.True(t, method.IsMethod)
}

func TestParseBlockWithPipeParams(t *testing.T) {
	src := "[1, 2].each do |x|\n  x\nend\n"
	mod, err := rbflavor.Parse("t.rbf", []byte(src))
	require.NoError(t, err)
	require.Len(t, mod.Body, 1)
}

func TestParseIfElsif(t *testing.T) {
	src := "if x\n  1\nelsif y\n  2\nelse\n  3\nend\n"
	mod, err := rbflavor.Parse("t.rbf", []byte(src))
	require.NoError(t, err)
	_, ok := mod.Body[0].(*ast.If)
	require.True(t, ok)
}

func TestParseVarargAndKwarg(t *testing.T) {
	src := "def f(a, *rest, **opts)\n  a\nend\n"
	mod, err := rbflavor.Parse("t.rbf", []byte(src))
	require.NoError(t, err)

	fn := mod.Body[0].(*ast.FunctionDef)
	require.Equal(t, "rest", fn.Vararg)
	require.Equal(t, "opts", fn.Kwarg)
}
