package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/cache"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/token"
)

type stubFrontend struct {
	calls int
	err   error
}

func (f *stubFrontend) Parse(file string, src []byte) (*ast.Module, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return ast.NewModule(file, 0, len(src), token.Position{}, nil), nil
}

func TestLoadParsesOnceForIdenticalContent(t *testing.T) {
	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	fe := &stubFrontend{}
	src := []byte("x = 1\n")

	m1, err := c.Load("a.pyf", src, fe)
	require.NoError(t, err)
	require.Equal(t, "a.pyf", m1.File())

	m2, err := c.Load("b.pyf", src, fe)
	require.NoError(t, err)
	require.Equal(t, "b.pyf", m2.File(), "a second path with identical content must restamp its own file")

	require.Equal(t, 1, fe.calls, "a cache hit must not re-invoke the frontend")
}

func TestLoadCachesFailureSentinel(t *testing.T) {
	c, err := cache.New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	fe := &stubFrontend{err: errors.New("boom")}
	src := []byte("!!!")

	_, err1 := c.Load("a.pyf", src, fe)
	require.Error(t, err1)
	_, err2 := c.Load("b.pyf", src, fe)
	require.Error(t, err2)

	require.Equal(t, 1, fe.calls, "a cached parse failure must short-circuit re-parsing")
}

func TestDiskTierSurvivesAcrossCacheInstances(t *testing.T) {
	dir := t.TempDir()
	fe := &stubFrontend{}
	src := []byte("y = 2\n")

	c1, err := cache.New(dir)
	require.NoError(t, err)
	_, err = c1.Load("a.pyf", src, fe)
	require.NoError(t, err)

	c2, err := cache.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c2.Close() })

	m, err := c2.Load("a.pyf", src, fe)
	require.NoError(t, err)
	require.Equal(t, "a.pyf", m.File())
	require.Equal(t, 1, fe.calls, "the second Cache instance must see the first's disk-tier entry")
}

func TestCloseRemovesTheDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.New(dir)
	require.NoError(t, err)

	dbPath := filepath.Join(dir, "asts.sqlite")
	_, statErr := os.Stat(dbPath)
	require.NoError(t, statErr)

	require.NoError(t, c.Close())
	_, statErr = os.Stat(dbPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestParseFailureDiagnosticCarriesCode(t *testing.T) {
	d := cache.ParseFailureDiagnostic("a.pyf", errors.New("unexpected token"))
	require.Equal(t, diagnostics.ParseFailure, d.Code)
	require.Contains(t, d.Error(), "unexpected token")
}
