package linker_test

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
	"github.com/arborist-lang/arborist/internal/frontend"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
)

func analyzeSource(t *testing.T, src string) (*analyzer.Analyzer, string) {
	t.Helper()
	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	reg := frontend.NewRegistry(pyflavor.New())
	a := analyzer.New(config.DefaultConfig(), reg, c)

	dir := t.TempDir()
	path := filepath.Join(dir, "mod.pyf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	_, err = a.AnalyzeFile(path)
	require.NoError(t, err)
	a.Finish()
	return a, path
}

func TestHrefSameFileIsLocalAnchor(t *testing.T) {
	a, path := analyzeSource(t, "x = 1\ny = x\n")
	l := linker.New(a)

	bindings := a.GetAllBindings()
	require.NotEmpty(t, bindings)

	found := false
	for _, b := range bindings {
		if b.Name != "x" {
			continue
		}
		found = true
		href := l.Href(path, b)
		require.True(t, strings.HasPrefix(href, "#"), "same-file href should be a local anchor, got %q", href)
	}
	require.True(t, found, "expected a binding named x")
}

func TestOutputNameSwapsExtension(t *testing.T) {
	require.Equal(t, "foo/bar.html", linker.OutputName("foo/bar.pyf"))
}

func TestAnchorIDStableAcrossCalls(t *testing.T) {
	a, _ := analyzeSource(t, "x = 1\n")
	l := linker.New(a)
	bindings := a.GetAllBindings()
	require.NotEmpty(t, bindings)
	b := bindings[0]
	id1 := l.AnchorID(b)
	id2 := l.AnchorID(b)
	require.Equal(t, id1, id2)
}
