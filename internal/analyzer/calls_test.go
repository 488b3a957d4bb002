package analyzer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/types"
)

// TestBuiltinCallDoesNotPanic checks that calling a builtin (which has
// no definition AST) resolves to its fixed return type instead of
// dereferencing a nil FunctionDef.
func TestBuiltinCallDoesNotPanic(t *testing.T) {
	src := `
xs = [1, 2, 3]
n = len(xs)
print(n)
s = str(n)
`
	a := newTestAnalyzer(t)
	path := writeSource(t, src)

	require.NotPanics(t, func() {
		_, err := a.AnalyzeFile(path)
		require.NoError(t, err)
	})

	mod, ok := a.GetModule(path)
	require.True(t, ok)

	bs := mod.St.LookupAttr("n")
	require.NotEmpty(t, bs)
	require.Equal(t, types.IntUnbounded.String(), bs[0].Type.String())

	bs = mod.St.LookupAttr("s")
	require.NotEmpty(t, bs)
	require.Equal(t, types.STR.String(), bs[0].Type.String())
}

// TestRecursiveCallTerminates checks that a directly recursive function
// whose argument strictly narrows on every call (so it never repeats an
// argument-type cache key) still terminates analysis, guarded by the
// Call-node-identity cycle guard rather than the argument-keyed cache.
func TestRecursiveCallTerminates(t *testing.T) {
	src := `
def fact(n):
    return 1 if n <= 1 else n * fact(n - 1)

result = fact(5)
`
	a := newTestAnalyzer(t)
	path := writeSource(t, src)

	done := make(chan struct{})
	go func() {
		_, err := a.AnalyzeFile(path)
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recursive call did not terminate")
	}

	mod, ok := a.GetModule(path)
	require.True(t, ok)
	bs := mod.St.LookupAttr("result")
	require.NotEmpty(t, bs)
}
