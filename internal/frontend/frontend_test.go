package frontend_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/frontend"
)

type stubFrontend struct {
	name string
	exts []string
}

func (f stubFrontend) Name() string         { return f.name }
func (f stubFrontend) Extensions() []string { return f.exts }
func (f stubFrontend) Parse(file string, src []byte) (*ast.Module, error) {
	return nil, nil
}

func TestRegistryForMatchesByExtension(t *testing.T) {
	py := stubFrontend{name: "py", exts: []string{".pyf"}}
	rb := stubFrontend{name: "rb", exts: []string{".rbf"}}
	reg := frontend.NewRegistry(py, rb)

	require.Equal(t, py, reg.For("a/b/mod.pyf"))
	require.Equal(t, rb, reg.For("a/b/mod.rbf"))
	require.Nil(t, reg.For("a/b/mod.txt"))
}

func TestRegistryAllPreservesOrder(t *testing.T) {
	py := stubFrontend{name: "py", exts: []string{".pyf"}}
	rb := stubFrontend{name: "rb", exts: []string{".rbf"}}
	reg := frontend.NewRegistry(py, rb)

	all := reg.All()
	require.Len(t, all, 2)
	require.Equal(t, "py", all[0].Name())
	require.Equal(t, "rb", all[1].Name())
}
