package analyzer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/analyzer"
	"github.com/arborist-lang/arborist/internal/cache"
	"github.com/arborist-lang/arborist/internal/config"
	"github.com/arborist-lang/arborist/internal/frontend"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
	"github.com/arborist-lang/arborist/internal/types"
)

func newTestAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	reg := frontend.NewRegistry(pyflavor.New())
	return analyzer.New(config.DefaultConfig(), reg, c)
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.pyf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// TestFunctionDecoratorWrapsReturnType checks that a function decorator
// is applied by calling it with the undecorated function as its
// argument, and that the decorated binding reflects whatever the
// decorator itself returns rather than the bare function.
func TestFunctionDecoratorWrapsReturnType(t *testing.T) {
	src := `
def identity(f):
    return f

@identity
def greet():
    return "hi"

result = greet()
`
	a := newTestAnalyzer(t)
	path := writeSource(t, src)
	mod, err := a.AnalyzeFile(path)
	require.NoError(t, err)

	bs := mod.St.LookupAttr("result")
	require.NotEmpty(t, bs)
	// identity returns its argument unchanged, so calling the decorated
	// "greet" should still behave like the original function.
	require.Equal(t, types.STR.String(), bs[0].Type.String())
}

// TestClassDecoratorConstructsInstance checks that a class used as a
// decorator is applied by constructing an instance around the
// decorated function via __init__.
func TestClassDecoratorConstructsInstance(t *testing.T) {
	src := `
class Wrapper:
    def __init__(self, fn):
        self.fn = fn

@Wrapper
def task():
    return 1

x = task
`
	a := newTestAnalyzer(t)
	path := writeSource(t, src)
	mod, err := a.AnalyzeFile(path)
	require.NoError(t, err)

	bs := mod.St.LookupAttr("x")
	require.NotEmpty(t, bs)
	inst, ok := bs[0].Type.(*types.InstanceType)
	require.True(t, ok, "expected task to be wrapped into a Wrapper instance, got %s", bs[0].Type)
	require.Equal(t, "Wrapper", inst.Class.Name)
}

// TestUndecoratedFunctionStillCallable is a control case: a plain
// function with no decorators is unaffected by applyDecorator's
// pass-through path.
func TestUndecoratedFunctionStillCallable(t *testing.T) {
	src := `
def add(a, b):
    return a + b

total = add(1, 2)
`
	a := newTestAnalyzer(t)
	path := writeSource(t, src)
	mod, err := a.AnalyzeFile(path)
	require.NoError(t, err)

	bs := mod.St.LookupAttr("total")
	require.NotEmpty(t, bs)
	require.Contains(t, bs[0].Type.String(), "Int")
}
