package styler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/analyzer"
	"github.com/arborist-lang/arborist/internal/cache"
	"github.com/arborist-lang/arborist/internal/config"
	"github.com/arborist-lang/arborist/internal/demo/linker"
	"github.com/arborist-lang/arborist/internal/demo/styler"
	"github.com/arborist-lang/arborist/internal/frontend"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
)

func TestRenderEscapesAndAnnotates(t *testing.T) {
	src := "x = 1\ny = \"<hi>\"\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.pyf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	reg := frontend.NewRegistry(pyflavor.New())
	a := analyzer.New(config.DefaultConfig(), reg, c)
	_, err = a.AnalyzeFile(path)
	require.NoError(t, err)
	a.Finish()

	mod, ok := a.GetAstForFile(path)
	require.True(t, ok)

	out := styler.Render(a, mod, []byte(src), path, nil)
	require.Contains(t, out, `<pre class="arborist-source">`)
	require.Contains(t, out, `tok-name`)
	require.Contains(t, out, `tok-string`)
	// The string literal's angle brackets must be escaped, not passed
	// through raw into the HTML fragment.
	require.NotContains(t, out, "<hi>")
	require.Contains(t, out, "&lt;hi&gt;")
}

func TestRenderWithLinkerAddsAnchorsAndLinks(t *testing.T) {
	src := "x = 1\ny = x\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.pyf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	reg := frontend.NewRegistry(pyflavor.New())
	a := analyzer.New(config.DefaultConfig(), reg, c)
	_, err = a.AnalyzeFile(path)
	require.NoError(t, err)
	a.Finish()

	mod, ok := a.GetAstForFile(path)
	require.True(t, ok)

	l := linker.New(a)
	out := styler.Render(a, mod, []byte(src), path, l)
	require.True(t, strings.Contains(out, `id="def-`), "definition site should carry an anchor id")
	require.True(t, strings.Contains(out, `<a href="#def-`), "reference to x should link to its definition anchor")
}
