package pyflavor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
)

func TestParseFunctionDecorator(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("@memoize\ndef fib(n):\n    return n\n"))
	require.NoError(t, err)
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "fib", fn.Name)
	require.Len(t, fn.Decorators, 1)

	name, ok := fn.Decorators[0].(*ast.Name)
	require.True(t, ok)
	require.Equal(t, "memoize", name.Id)
}

func TestParseStackedDecorators(t *testing.T) {
	mod, err := pyflavor.Parse("t.pyf", []byte("@a\n@b\ndef f():\n    return 1\n"))
	require.NoError(t, err)
	fn := mod.Body[0].(*ast.FunctionDef)
	require.Len(t, fn.Decorators, 2)
}

func TestParseDecoratedMethodInsideClass(t *testing.T) {
	src := "class C:\n    @staticmethod\n    def f():\n        return 1\n"
	mod, err := pyflavor.Parse("t.pyf", []byte(src))
	require.NoError(t, err)

	cls, ok := mod.Body[0].(*ast.ClassDef)
	require.True(t, ok)
	require.Len(t, cls.Body, 1)

	method, ok := cls.Body[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Len(t, method.Decorators, 1)
}

func TestParseClassDecorator(t *testing.T) {
	src := "@register\nclass C:\n    def f(self):\n        return 1\n"
	mod, err := pyflavor.Parse("t.pyf", []byte(src))
	require.NoError(t, err)

	cls, ok := mod.Body[0].(*ast.ClassDef)
	require.True(t, ok)
	require.Len(t, cls.Decorators, 1)
}
