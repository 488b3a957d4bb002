// Package frontend defines the shared contract every concrete parser
// (pyflavor, rbflavor) implements, letting the analyzer and the AST
// cache stay language-agnostic (spec.md §6 "Parser contract",
// generalized to more than one concrete syntax).
package frontend

import "github.com/arborist-lang/arborist/internal/ast"

// Frontend parses one file's source into the shared node taxonomy. A
// nil, nil return is never valid: a hard parse failure must be
// reported as an error, which the cache then records as a parse
// failure (spec.md §7 "Parse failure").
type Frontend interface {
	// Name identifies the dialect, e.g. "py" or "rb".
	Name() string
	// Extensions lists the file extensions this frontend claims.
	Extensions() []string
	// Parse parses file's contents (already read into src) into a
	// *ast.Module. Positions in the result are byte offsets into src.
	Parse(file string, src []byte) (*ast.Module, error)
}

// Registry resolves a path to the Frontend that should parse it.
type Registry struct {
	frontends []Frontend
}

func NewRegistry(fs ...Frontend) *Registry {
	return &Registry{frontends: fs}
}

// For returns the frontend claiming path's extension, or nil.
func (r *Registry) For(path string) Frontend {
	for _, f := range r.frontends {
		for _, ext := range f.Extensions() {
			if hasSuffix(path, ext) {
				return f
			}
		}
	}
	return nil
}

// All returns every registered frontend, in registration order.
func (r *Registry) All() []Frontend {
	return r.frontends
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
