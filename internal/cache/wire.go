package cache

import (
	"fmt"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/token"
)

// wireNode is the gob-friendly mirror of an internal/ast node. The
// real node types embed an unexported `base` (spec.md §9(c): "the
// format is private"), so a disk round-trip goes through this
// explicit, typed-map representation instead of gob-ing the node
// structs directly. Every field is a concrete typed map rather than
// map[string]interface{}, which sidesteps gob.Register entirely.
type wireNode struct {
	Kind       string
	Start, End int
	Line, Col  int

	Str      map[string]string
	StrList  map[string][]string
	Int      map[string]int64
	Float    map[string]float64
	Bool     map[string]bool
	Node     map[string]*wireNode
	NodeList map[string][]*wireNode
}

func newWire(n ast.Node, kind string) *wireNode {
	return &wireNode{
		Kind: kind, Start: n.Start(), End: n.End(),
		Line: n.Pos().Line, Col: n.Pos().Column,
	}
}

func (w *wireNode) pos() token.Position { return token.Position{Offset: w.Start, Line: w.Line, Column: w.Col} }

func (w *wireNode) setStr(k, v string) {
	if w.Str == nil {
		w.Str = map[string]string{}
	}
	w.Str[k] = v
}
func (w *wireNode) setStrList(k string, v []string) {
	if w.StrList == nil {
		w.StrList = map[string][]string{}
	}
	w.StrList[k] = v
}
func (w *wireNode) setInt(k string, v int64) {
	if w.Int == nil {
		w.Int = map[string]int64{}
	}
	w.Int[k] = v
}
func (w *wireNode) setFloat(k string, v float64) {
	if w.Float == nil {
		w.Float = map[string]float64{}
	}
	w.Float[k] = v
}
func (w *wireNode) setBool(k string, v bool) {
	if w.Bool == nil {
		w.Bool = map[string]bool{}
	}
	w.Bool[k] = v
}
func (w *wireNode) setNode(k string, n ast.Node) {
	if n == nil {
		return
	}
	if w.Node == nil {
		w.Node = map[string]*wireNode{}
	}
	w.Node[k] = toWire(n)
}
func (w *wireNode) setNodeList(k string, ns []ast.Node) {
	if len(ns) == 0 {
		return
	}
	if w.NodeList == nil {
		w.NodeList = map[string][]*wireNode{}
	}
	list := make([]*wireNode, len(ns))
	for i, n := range ns {
		list[i] = toWire(n)
	}
	w.NodeList[k] = list
}

// toWire converts one AST node (not its parent links) to its wire
// form; Children are walked recursively.
func toWire(n ast.Node) *wireNode {
	switch v := n.(type) {
	case *ast.Module:
		w := newWire(v, "Module")
		w.setStr("Sha1", v.Sha1)
		w.setNodeList("Body", v.Body)
		return w
	case *ast.Name:
		w := newWire(v, "Name")
		w.setStr("Id", v.Id)
		return w
	case *ast.Str:
		w := newWire(v, "Str")
		w.setStr("Value", v.Value)
		return w
	case *ast.Num:
		w := newWire(v, "Num")
		w.setBool("IsFloat", v.IsFloat)
		w.setInt("IVal", v.IVal)
		w.setFloat("FVal", v.FVal)
		return w
	case *ast.BoolLit:
		w := newWire(v, "BoolLit")
		w.setBool("Value", v.Value)
		return w
	case *ast.NilLit:
		return newWire(v, "NilLit")
	case *ast.TupleNode:
		w := newWire(v, "TupleNode")
		w.setNodeList("Elts", v.Elts)
		return w
	case *ast.ListNode:
		w := newWire(v, "ListNode")
		w.setNodeList("Elts", v.Elts)
		return w
	case *ast.SetNode:
		w := newWire(v, "SetNode")
		w.setNodeList("Elts", v.Elts)
		return w
	case *ast.DictNode:
		w := newWire(v, "DictNode")
		w.setNodeList("Keys", v.Keys)
		w.setNodeList("Values", v.Values)
		return w
	case *ast.Starred:
		w := newWire(v, "Starred")
		w.setNode("Value", v.Value)
		return w
	case *ast.Attribute:
		w := newWire(v, "Attribute")
		w.setNode("Value", v.Value)
		w.setStr("Attr", v.Attr)
		return w
	case *ast.Subscript:
		w := newWire(v, "Subscript")
		w.setNode("Value", v.Value)
		w.setNode("Index", v.Index)
		return w
	case *ast.ExprStmt:
		w := newWire(v, "ExprStmt")
		w.setNode("Value", v.Value)
		return w
	case *ast.Assign:
		w := newWire(v, "Assign")
		w.setNodeList("Targets", v.Targets)
		w.setNode("Value", v.Value)
		return w
	case *ast.AugAssign:
		w := newWire(v, "AugAssign")
		w.setNode("Target", v.Target)
		w.setStr("Op", v.Op)
		w.setNode("Value", v.Value)
		return w
	case *ast.If:
		w := newWire(v, "If")
		w.setNode("Test", v.Test)
		w.setNodeList("Body", v.Body)
		w.setNodeList("Orelse", v.Orelse)
		return w
	case *ast.For:
		w := newWire(v, "For")
		w.setNode("Target", v.Target)
		w.setNode("Iter", v.Iter)
		w.setNodeList("Body", v.Body)
		w.setNodeList("Orelse", v.Orelse)
		return w
	case *ast.While:
		w := newWire(v, "While")
		w.setNode("Test", v.Test)
		w.setNodeList("Body", v.Body)
		w.setNodeList("Orelse", v.Orelse)
		return w
	case *ast.ExceptHandler:
		w := newWire(v, "ExceptHandler")
		w.setNode("ExcType", v.ExcType)
		w.setStr("Name", v.Name)
		w.setNodeList("Body", v.Body)
		return w
	case *ast.Try:
		w := newWire(v, "Try")
		w.setNodeList("Body", v.Body)
		w.setNodeList("Orelse", v.Orelse)
		w.setNodeList("Finalbody", v.Finalbody)
		handlers := make([]ast.Node, len(v.Handlers))
		for i, h := range v.Handlers {
			handlers[i] = h
		}
		w.setNodeList("Handlers", handlers)
		return w
	case *ast.With:
		w := newWire(v, "With")
		w.setNode("Context", v.Context)
		w.setNode("OptionalVars", v.OptionalVars)
		w.setNodeList("Body", v.Body)
		return w
	case *ast.Return:
		w := newWire(v, "Return")
		w.setNode("Value", v.Value)
		return w
	case *ast.Yield:
		w := newWire(v, "Yield")
		w.setNode("Value", v.Value)
		return w
	case *ast.Break:
		return newWire(v, "Break")
	case *ast.Continue:
		return newWire(v, "Continue")
	case *ast.Global:
		w := newWire(v, "Global")
		w.setStrList("Names", v.Names)
		return w
	case *ast.ImportNode:
		w := newWire(v, "ImportNode")
		w.setStr("ModulePath", v.ModulePath)
		w.setStrList("Names", v.Names)
		w.setStr("Alias", v.Alias)
		w.setBool("IsWildcard", v.IsWildcard)
		return w
	case *ast.FunctionDef:
		w := newWire(v, "FunctionDef")
		w.setStr("Name", v.Name)
		w.setStrList("Args", v.Args)
		w.setNodeList("Defaults", v.Defaults)
		w.setStr("Vararg", v.Vararg)
		w.setStr("Kwarg", v.Kwarg)
		w.setStrList("AfterRest", v.AfterRest)
		w.setStr("BlockArg", v.BlockArg)
		w.setNodeList("Decorators", v.Decorators)
		w.setNodeList("Body", v.Body)
		w.setBool("IsMethod", v.IsMethod)
		w.setBool("Called", v.Called)
		return w
	case *ast.ClassDef:
		w := newWire(v, "ClassDef")
		w.setStr("Name", v.Name)
		w.setNodeList("Bases", v.Bases)
		w.setNodeList("Decorators", v.Decorators)
		w.setNodeList("Body", v.Body)
		return w
	case *ast.Keyword:
		w := newWire(v, "Keyword")
		w.setStr("Name", v.Name)
		w.setNode("Value", v.Value)
		return w
	case *ast.Call:
		w := newWire(v, "Call")
		w.setNode("Func", v.Func)
		w.setNodeList("Args", v.Args)
		kws := make([]ast.Node, len(v.Keywords))
		for i, k := range v.Keywords {
			kws[i] = k
		}
		w.setNodeList("Keywords", kws)
		w.setNode("Starargs", v.Starargs)
		w.setNode("Kwargs", v.Kwargs)
		w.setNode("BlockArg", v.BlockArg)
		w.setBool("IsTail", v.IsTail)
		return w
	case *ast.BinOp:
		w := newWire(v, "BinOp")
		w.setStr("Op", v.Op)
		w.setNode("Left", v.Left)
		w.setNode("Right", v.Right)
		return w
	case *ast.BoolOp:
		w := newWire(v, "BoolOp")
		w.setStr("Op", v.Op)
		w.setNodeList("Values", v.Values)
		return w
	case *ast.UnaryOp:
		w := newWire(v, "UnaryOp")
		w.setStr("Op", v.Op)
		w.setNode("Operand", v.Operand)
		return w
	case *ast.Compare:
		w := newWire(v, "Compare")
		w.setNode("Left", v.Left)
		w.setStr("Op", v.Op)
		w.setNode("Right", v.Right)
		return w
	case *ast.Lambda:
		w := newWire(v, "Lambda")
		w.setStrList("Args", v.Args)
		w.setNodeList("Defaults", v.Defaults)
		w.setStr("Vararg", v.Vararg)
		w.setStr("Kwarg", v.Kwarg)
		w.setNode("Body", v.Body)
		return w
	case *ast.ListComp:
		w := newWire(v, "ListComp")
		w.setNode("Elt", v.Elt)
		w.setNode("Target", v.Target)
		w.setNode("Iter", v.Iter)
		w.setNodeList("Ifs", v.Ifs)
		return w
	case *ast.SetComp:
		w := newWire(v, "SetComp")
		w.setNode("Elt", v.Elt)
		w.setNode("Target", v.Target)
		w.setNode("Iter", v.Iter)
		w.setNodeList("Ifs", v.Ifs)
		return w
	case *ast.DictComp:
		w := newWire(v, "DictComp")
		w.setNode("KeyExpr", v.KeyExpr)
		w.setNode("ValExpr", v.ValExpr)
		w.setNode("Target", v.Target)
		w.setNode("Iter", v.Iter)
		w.setNodeList("Ifs", v.Ifs)
		return w
	default:
		panic(fmt.Sprintf("cache: toWire: unhandled node type %T", n))
	}
}

func (w *wireNode) nodeList(k string) []ast.Node {
	ws := w.NodeList[k]
	if ws == nil {
		return nil
	}
	out := make([]ast.Node, len(ws))
	for i, c := range ws {
		out[i] = fromWire(c)
	}
	return out
}

func (w *wireNode) node(k string) ast.Node {
	c, ok := w.Node[k]
	if !ok {
		return nil
	}
	return fromWire(c)
}

// fromWire reconstructs a node tree from its wire form. Parent links
// are not restored here; the caller runs ast.SetParents on the
// reassembled root.
func fromWire(w *wireNode) ast.Node {
	switch w.Kind {
	case "Module":
		body := w.nodeList("Body")
		m := ast.NewModule("", w.Start, w.End, w.pos(), body)
		m.Sha1 = w.Str["Sha1"]
		return m
	case "Name":
		n := &ast.Name{Id: w.Str["Id"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Str":
		n := &ast.Str{Value: w.Str["Value"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Num":
		n := &ast.Num{IsFloat: w.Bool["IsFloat"], IVal: w.Int["IVal"], FVal: w.Float["FVal"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "BoolLit":
		n := &ast.BoolLit{Value: w.Bool["Value"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "NilLit":
		n := &ast.NilLit{}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "TupleNode":
		n := &ast.TupleNode{Elts: w.nodeList("Elts")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ListNode":
		n := &ast.ListNode{Elts: w.nodeList("Elts")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "SetNode":
		n := &ast.SetNode{Elts: w.nodeList("Elts")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "DictNode":
		n := &ast.DictNode{Keys: w.nodeList("Keys"), Values: w.nodeList("Values")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Starred":
		n := &ast.Starred{Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Attribute":
		n := &ast.Attribute{Value: w.node("Value"), Attr: w.Str["Attr"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Subscript":
		n := &ast.Subscript{Value: w.node("Value"), Index: w.node("Index")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ExprStmt":
		n := &ast.ExprStmt{Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Assign":
		n := &ast.Assign{Targets: w.nodeList("Targets"), Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "AugAssign":
		n := &ast.AugAssign{Target: w.node("Target"), Op: w.Str["Op"], Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "If":
		n := &ast.If{Test: w.node("Test"), Body: w.nodeList("Body"), Orelse: w.nodeList("Orelse")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "For":
		n := &ast.For{Target: w.node("Target"), Iter: w.node("Iter"), Body: w.nodeList("Body"), Orelse: w.nodeList("Orelse")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "While":
		n := &ast.While{Test: w.node("Test"), Body: w.nodeList("Body"), Orelse: w.nodeList("Orelse")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ExceptHandler":
		n := &ast.ExceptHandler{ExcType: w.node("ExcType"), Name: w.Str["Name"], Body: w.nodeList("Body")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Try":
		handlerNodes := w.nodeList("Handlers")
		handlers := make([]*ast.ExceptHandler, len(handlerNodes))
		for i, h := range handlerNodes {
			handlers[i] = h.(*ast.ExceptHandler)
		}
		n := &ast.Try{Body: w.nodeList("Body"), Handlers: handlers, Orelse: w.nodeList("Orelse"), Finalbody: w.nodeList("Finalbody")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "With":
		n := &ast.With{Context: w.node("Context"), OptionalVars: w.node("OptionalVars"), Body: w.nodeList("Body")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Return":
		n := &ast.Return{Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Yield":
		n := &ast.Yield{Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Break":
		n := &ast.Break{}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Continue":
		n := &ast.Continue{}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Global":
		n := &ast.Global{Names: w.StrList["Names"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ImportNode":
		n := &ast.ImportNode{ModulePath: w.Str["ModulePath"], Names: w.StrList["Names"], Alias: w.Str["Alias"], IsWildcard: w.Bool["IsWildcard"]}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "FunctionDef":
		n := &ast.FunctionDef{
			Name: w.Str["Name"], Args: w.StrList["Args"], Defaults: w.nodeList("Defaults"),
			Vararg: w.Str["Vararg"], Kwarg: w.Str["Kwarg"], AfterRest: w.StrList["AfterRest"],
			BlockArg: w.Str["BlockArg"], Decorators: w.nodeList("Decorators"), Body: w.nodeList("Body"),
			IsMethod: w.Bool["IsMethod"], Called: w.Bool["Called"],
		}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ClassDef":
		n := &ast.ClassDef{Name: w.Str["Name"], Bases: w.nodeList("Bases"), Decorators: w.nodeList("Decorators"), Body: w.nodeList("Body")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Keyword":
		n := &ast.Keyword{Name: w.Str["Name"], Value: w.node("Value")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Call":
		kwNodes := w.nodeList("Keywords")
		kws := make([]*ast.Keyword, len(kwNodes))
		for i, k := range kwNodes {
			kws[i] = k.(*ast.Keyword)
		}
		n := &ast.Call{
			Func: w.node("Func"), Args: w.nodeList("Args"), Keywords: kws,
			Starargs: w.node("Starargs"), Kwargs: w.node("Kwargs"), BlockArg: w.node("BlockArg"),
			IsTail: w.Bool["IsTail"],
		}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "BinOp":
		n := &ast.BinOp{Op: w.Str["Op"], Left: w.node("Left"), Right: w.node("Right")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "BoolOp":
		n := &ast.BoolOp{Op: w.Str["Op"], Values: w.nodeList("Values")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "UnaryOp":
		n := &ast.UnaryOp{Op: w.Str["Op"], Operand: w.node("Operand")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Compare":
		n := &ast.Compare{Left: w.node("Left"), Op: w.Str["Op"], Right: w.node("Right")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "Lambda":
		n := &ast.Lambda{Args: w.StrList["Args"], Defaults: w.nodeList("Defaults"), Vararg: w.Str["Vararg"], Kwarg: w.Str["Kwarg"], Body: w.node("Body")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "ListComp":
		n := &ast.ListComp{Elt: w.node("Elt"), Target: w.node("Target"), Iter: w.node("Iter"), Ifs: w.nodeList("Ifs")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "SetComp":
		n := &ast.SetComp{Elt: w.node("Elt"), Target: w.node("Target"), Iter: w.node("Iter"), Ifs: w.nodeList("Ifs")}
		n.Init(w.Start, w.End, w.pos())
		return n
	case "DictComp":
		n := &ast.DictComp{KeyExpr: w.node("KeyExpr"), ValExpr: w.node("ValExpr"), Target: w.node("Target"), Iter: w.node("Iter"), Ifs: w.nodeList("Ifs")}
		n.Init(w.Start, w.End, w.pos())
		return n
	default:
		panic(fmt.Sprintf("cache: fromWire: unknown kind %q", w.Kind))
	}
}
