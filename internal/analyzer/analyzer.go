// Package analyzer implements the whole-program driver (spec.md §3,
// §4.4): it owns the builtin scope, the per-file module registry, the
// call stack that guards recursive inference, and the diagnostic and
// reference indexes every query surface in spec.md §6 reads from.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/cache"
	"github.com/arborist-lang/arborist/internal/config"
	"github.com/arborist-lang/arborist/internal/diagnostics"
	"github.com/arborist-lang/arborist/internal/frontend"
	"github.com/arborist-lang/arborist/internal/types"
)

// Analyzer is the process-lifetime singleton spec.md §3 describes: a
// single-threaded (spec.md §5) context struct rather than a package of
// free functions, so that more than one analysis run can coexist in a
// process (e.g. the CLI's `query` subcommands and a future language
// server).
type Analyzer struct {
	Config   config.Config
	Registry *frontend.Registry
	Cache    *cache.Cache

	Builtins *types.State

	modules map[string]*types.ModuleType // absolute file path -> module
	asts    map[string]*ast.Module

	callStack []callFrame

	uncalled map[*ast.FunctionDef]*types.FunctionType

	problems map[ast.Node][]*diagnostics.Diagnostic
	bag      *diagnostics.Bag

	refs map[string][]*types.Ref // types.RefKey -> refs sharing it (always len<=1 in practice, kept as a slice for symmetry with bindings)

	// nodeTypes records the resolved type of every Name/Attribute node,
	// for consumers (the HTML styler) that need "what type did this
	// exact source span infer to" without re-deriving it from a Ref's
	// binding.
	nodeTypes map[ast.Node]types.Type

	// returnStack is the side channel Return/Yield statements feed
	// into: the top frame belongs to whichever call evaluation is
	// currently transforming a function body (calls.go).
	returnStack []*returnAcc
}

// callFrame identifies one in-flight call for the cycle guard of
// spec.md §4.5b: the exact Call node being evaluated. Re-entering the
// same Call node while it is still on the stack is a cycle regardless
// of what its argument types hashed to — a strictly-changing argument
// (e.g. a recursive Int interval) would otherwise never repeat a key
// and so never trip an args-keyed guard.
type callFrame struct {
	call *ast.Call
}

// New builds an Analyzer and populates its builtin scope via
// RegisterBuiltins.
func New(cfg config.Config, reg *frontend.Registry, c *cache.Cache) *Analyzer {
	a := &Analyzer{
		Config:   cfg,
		Registry: reg,
		Cache:    c,
		Builtins: types.NewState(nil, types.ScopeGlobal, ""),
		modules:  make(map[string]*types.ModuleType),
		asts:     make(map[string]*ast.Module),
		uncalled: make(map[*ast.FunctionDef]*types.FunctionType),
		problems: make(map[ast.Node][]*diagnostics.Diagnostic),
		bag:      diagnostics.NewBag(),
		refs:      make(map[string][]*types.Ref),
		nodeTypes: make(map[ast.Node]types.Type),
	}
	RegisterBuiltins(a)
	return a
}

// AnalyzeFile loads and transforms a single file, returning its module
// type. A file already loaded is returned from the registry without
// re-transforming (spec.md §4.4 "analyze(path)" is idempotent per
// path).
func (a *Analyzer) AnalyzeFile(path string) (*types.ModuleType, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if m, ok := a.modules[abs]; ok {
		return m, nil
	}
	m, err := a.LoadFile(abs)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Analyze walks root (a file or a directory) and analyzes every source
// file the registered frontends claim, mirroring spec.md §4.4's
// top-level driver entry point.
func (a *Analyzer) Analyze(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		_, err := a.AnalyzeFile(root)
		return err
	}
	return filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if a.Registry.For(path) == nil {
			return nil
		}
		_, aerr := a.AnalyzeFile(path)
		return aerr
	})
}

// LoadFile parses (via the cache) and transforms path's module body,
// installing bindings in a fresh module-scoped State rooted at
// Builtins. A parse failure is recorded as a diagnostic and the module
// is registered with an empty body, matching spec.md §7's "analysis
// keeps going with Unknown standing in for whatever failed".
func (a *Analyzer) LoadFile(abs string) (*types.ModuleType, error) {
	fe := a.Registry.For(abs)
	if fe == nil {
		return nil, fmt.Errorf("analyzer: no frontend claims %s", abs)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	mod := &types.ModuleType{Name: moduleName(abs), File: abs}
	mod.St = types.NewState(a.Builtins, types.ScopeModule, mod.Name)
	a.modules[abs] = mod

	tree, perr := a.Cache.Load(abs, src, fe)
	if perr != nil {
		a.putProblem(nil, cache.ParseFailureDiagnostic(abs, perr))
		return mod, nil
	}
	a.asts[abs] = tree

	for _, stmt := range tree.Body {
		a.Transform(stmt, mod.St)
	}
	return mod, nil
}

// Finish runs the end-of-analysis sweeps spec.md §4.4 describes: any
// FunctionDef never reached by a Call evaluation is reported, and the
// accumulated diagnostic bag is finalized.
func (a *Analyzer) Finish() []*diagnostics.Diagnostic {
	// A function nothing ever calls still gets one best-effort pass
	// with Unknown arguments, so its locals and inner calls still show
	// up in the binding index and cross-reference data a reader
	// browsing dead code would expect (spec.md §6's query surface
	// doesn't distinguish reachable from unreachable definitions).
	for def, fn := range a.uncalled {
		args := make([]types.Type, countPositional(def))
		for i := range args {
			args[i] = types.UNKNOWN
		}
		var self types.Type
		if def.IsMethod {
			self = types.UNKNOWN
		}
		a.evalFunctionCall(fn, self, args, map[string]types.Type{}, nil, nil, nil, nil)
		a.bag.Add(diagnostics.New(
			diagnostics.FunctionNotReturns,
			def.File(), def.Pos(),
			fmt.Sprintf("function %q is never called", def.Name),
		))
	}
	for _, ds := range a.problems {
		a.bag.AddAll(ds)
	}
	return a.bag.All()
}

func countPositional(def *ast.FunctionDef) int {
	n := len(def.Args)
	if def.IsMethod && n > 0 && (def.Args[0] == "self" || def.Args[0] == "cls") {
		n--
	}
	return n
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ---- query surface (spec.md §6) --------------------------------------------

// GetAstForFile returns the parsed tree for an already-loaded file.
func (a *Analyzer) GetAstForFile(path string) (*ast.Module, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	m, ok := a.asts[abs]
	return m, ok
}

// GetModule returns the ModuleType for an already-loaded file.
func (a *Analyzer) GetModule(path string) (*types.ModuleType, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	m, ok := a.modules[abs]
	return m, ok
}

// GetAllBindings walks every loaded module's scope tree, plus every
// retained per-call-type function scope, and returns the full,
// deduplicated binding set spec.md §6 calls the global binding index.
func (a *Analyzer) GetAllBindings() []*types.Binding {
	seen := make(map[*types.Binding]bool)
	var out []*types.Binding
	visitedStates := make(map[*types.State]bool)

	var walkState func(st *types.State)
	walkState = func(st *types.State) {
		if st == nil || visitedStates[st] {
			return
		}
		visitedStates[st] = true
		for _, bs := range st.Table {
			for _, b := range bs {
				if !seen[b] {
					seen[b] = true
					out = append(out, b)
				}
				walkType(b.Type, walkState)
			}
		}
	}

	for _, m := range a.modules {
		walkState(m.St)
	}
	return out
}

// walkType descends into a Type's owned scopes (a class's table, a
// function's per-call-type retained scopes) so GetAllBindings reaches
// every binding reachable from a loaded module, not only its top
// level.
func walkType(t types.Type, visit func(*types.State)) {
	switch v := t.(type) {
	case *types.ClassType:
		visit(v.St)
	case *types.InstanceType:
		if v.Class != nil {
			visit(v.Class.St)
		}
	case *types.FunctionType:
		for _, st := range v.Scopes {
			visit(st)
		}
	case *types.ModuleType:
		visit(v.St)
	case types.UnionType:
		for _, m := range v.Members {
			walkType(m, visit)
		}
	}
}

// GetReferences returns every recorded Ref for a binding whose
// (file, start, length) key matches key.
func (a *Analyzer) GetReferences(key string) []*types.Ref {
	return a.refs[key]
}

// GetProblems returns every diagnostic attached to node.
func (a *Analyzer) GetProblems(node ast.Node) []*diagnostics.Diagnostic {
	return a.problems[node]
}

// AllProblems returns the deduplicated, sorted diagnostic set collected
// so far (valid before Finish, which only adds the uncalled-function
// sweep on top).
func (a *Analyzer) AllProblems() []*diagnostics.Diagnostic {
	return a.bag.All()
}

// putProblem attaches a diagnostic both to node (for getProblems) and
// to the process-wide bag (for the final sorted report). node may be
// nil for a whole-file failure such as a parse error.
func (a *Analyzer) putProblem(node ast.Node, d *diagnostics.Diagnostic) {
	if node != nil {
		a.problems[node] = append(a.problems[node], d)
	}
	a.bag.Add(d)
}

// recordRef appends a reference against a binding and indexes it by
// its RefKey for GetReferences.
func (a *Analyzer) recordRef(b *types.Binding, node ast.Node, file string) {
	r := types.Ref{Node: node, File: file, Start: node.Start(), Length: node.End() - node.Start()}
	b.AddRef(r)
	key := types.RefKey(r)
	a.refs[key] = []*types.Ref{&r}
}

// recordType widens the resolved type recorded for node, so a consumer
// asking "what did this exact source span infer to" (GetNodeType) gets
// the same union a Lookup at that point in the program saw.
func (a *Analyzer) recordType(node ast.Node, t types.Type) {
	a.nodeTypes[node] = types.Union(a.nodeTypes[node], t)
}

// GetNodeType returns the resolved type of a Name or Attribute node
// already transformed, if any.
func (a *Analyzer) GetNodeType(node ast.Node) (types.Type, bool) {
	t, ok := a.nodeTypes[node]
	return t, ok
}
