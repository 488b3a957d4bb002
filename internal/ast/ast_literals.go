package ast

// Name is a bare identifier reference or assignment target.
type Name struct {
	base
	Id string
}

func (n *Name) Children() []Node { return nil }

// Str is a string literal.
type Str struct {
	base
	Value string
}

func (s *Str) Children() []Node { return nil }

// Num is an integer or floating point literal.
type Num struct {
	base
	IsFloat bool
	IVal    int64
	FVal    float64
}

func (n *Num) Children() []Node { return nil }

// BoolLit is a boolean literal.
type BoolLit struct {
	base
	Value bool
}

func (b *BoolLit) Children() []Node { return nil }

// NilLit is the nil/None/null literal.
type NilLit struct{ base }

func (n *NilLit) Children() []Node { return nil }

// TupleNode is a fixed-arity tuple literal or tuple-unpack target.
type TupleNode struct {
	base
	Elts []Node
}

func (t *TupleNode) Children() []Node { return t.Elts }

// ListNode is a list literal or list-unpack target.
type ListNode struct {
	base
	Elts []Node
}

func (l *ListNode) Children() []Node { return l.Elts }

// SetNode is a set literal.
type SetNode struct {
	base
	Elts []Node
}

func (s *SetNode) Children() []Node { return s.Elts }

// DictNode is a dict/hash literal.
type DictNode struct {
	base
	Keys   []Node
	Values []Node
}

func (d *DictNode) Children() []Node {
	out := make([]Node, 0, len(d.Keys)+len(d.Values))
	out = append(out, d.Keys...)
	out = append(out, d.Values...)
	return out
}

// Starred is a `*x` splat appearing inside a tuple/list-unpack target
// or a call's argument list.
type Starred struct {
	base
	Value Node
}

func (s *Starred) Children() []Node { return []Node{s.Value} }

// Attribute is `value.attr`.
type Attribute struct {
	base
	Value Node
	Attr  string
}

func (a *Attribute) Children() []Node { return []Node{a.Value} }

// Subscript is `value[index]`.
type Subscript struct {
	base
	Value Node
	Index Node
}

func (s *Subscript) Children() []Node { return []Node{s.Value, s.Index} }
