package pyflavor

import "github.com/arborist-lang/arborist/internal/ast"

// Frontend adapts this package's Lex/Parse pair to the shared
// frontend.Frontend interface.
type Frontend struct{}

func New() Frontend { return Frontend{} }

func (Frontend) Name() string         { return "py" }
func (Frontend) Extensions() []string { return []string{".pyf"} }

func (Frontend) Parse(file string, src []byte) (*ast.Module, error) {
	return Parse(file, src)
}
