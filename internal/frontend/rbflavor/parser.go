package rbflavor

import (
	"fmt"
	"strconv"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/token"
)

// parser is the `end`-delimited counterpart to pyflavor's
// indentation-based parser; the expression grammar below is
// deliberately identical in shape to pyflavor's, since both dialects
// build the same internal/ast node taxonomy.
type parser struct {
	toks []token.Token
	pos  int
	file string
}

// Parse implements frontend.Frontend for the rbflavor dialect.
func Parse(file string, src []byte) (*ast.Module, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	p := &parser{toks: toks, file: file}
	body, err := p.parseStmts(func() bool { return p.cur().Kind == token.EOF })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	end := 0
	if len(toks) > 0 {
		end = toks[len(toks)-1].EndByte
	}
	m := ast.NewModule(file, 0, end, token.Position{Line: 1, Column: 1}, body)
	ast.SetParents(m)
	return m, nil
}

func (p *parser) cur() token.Token { return p.toks[p.pos] }
func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == token.KEYWORD && t.Lexeme == kw
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, fmt.Errorf("%s: expected %s, got %s", p.cur().Pos, k, p.cur().Kind)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return fmt.Errorf("%s: expected keyword %q, got %q", p.cur().Pos, kw, p.cur().Lexeme)
	}
	p.advance()
	return nil
}

func (p *parser) skipNewlines() {
	for p.cur().Kind == token.NEWLINE || p.cur().Kind == token.SEMI {
		p.advance()
	}
}

func (p *parser) parseStmts(stop func() bool) ([]ast.Node, error) {
	var out []ast.Node
	p.skipNewlines()
	for !stop() {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
		p.skipNewlines()
	}
	return out, nil
}

func (p *parser) atBlockEnd() bool {
	return p.isKeyword("end") || p.isKeyword("elsif") || p.isKeyword("else") ||
		p.isKeyword("rescue") || p.isKeyword("ensure") || p.cur().Kind == token.EOF
}

func (p *parser) parseStmt() (ast.Node, error) {
	t := p.cur()
	if t.Kind == token.KEYWORD {
		switch t.Lexeme {
		case "if":
			return p.parseIf()
		case "unless":
			return p.parseUnless()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "def":
			return p.parseDef()
		case "class":
			return p.parseClass()
		case "begin":
			return p.parseBegin()
		case "return":
			start := p.advance()
			var val ast.Node
			if p.cur().Kind != token.NEWLINE {
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				val = v
			}
			n := &ast.Return{Value: val}
			n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
			return n, nil
		case "break":
			start := p.advance()
			n := &ast.Break{}
			n.Init(start.Pos.Offset, start.EndByte, start.Pos)
			return n, nil
		case "next":
			start := p.advance()
			n := &ast.Continue{}
			n.Init(start.Pos.Offset, start.EndByte, start.Pos)
			return n, nil
		case "global":
			start := p.advance()
			var names []string
			for {
				id, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				names = append(names, id.Lexeme)
				if p.cur().Kind != token.COMMA {
					break
				}
				p.advance()
			}
			n := &ast.Global{Names: names}
			n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
			return n, nil
		case "require":
			start := p.advance()
			str, err := p.expect(token.STRING)
			if err != nil {
				return nil, err
			}
			n := &ast.ImportNode{ModulePath: str.Lexeme}
			n.Init(start.Pos.Offset, str.EndByte, start.Pos)
			return n, nil
		}
	}
	return p.parseSimpleOrAssign()
}

func (p *parser) parseIf() (ast.Node, error) {
	start := p.advance() // "if"
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	orelse, err := p.parseElsifChain()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.If{Test: test, Body: body, Orelse: orelse}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseElsifChain() ([]ast.Node, error) {
	if p.isKeyword("elsif") {
		start := p.advance()
		test, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		body, err := p.parseStmts(p.atBlockEnd)
		if err != nil {
			return nil, err
		}
		rest, err := p.parseElsifChain()
		if err != nil {
			return nil, err
		}
		n := &ast.If{Test: test, Body: body, Orelse: rest}
		n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
		return []ast.Node{n}, nil
	}
	if p.isKeyword("else") {
		p.advance()
		p.skipNewlines()
		return p.parseStmts(p.atBlockEnd)
	}
	return nil, nil
}

// expectEnd consumes the closing `end` keyword every rbflavor block
// requires.
func (p *parser) expectEnd() (token.Token, error) {
	if !p.isKeyword("end") {
		return token.Token{}, fmt.Errorf("%s: expected 'end', got %q", p.cur().Pos, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func (p *parser) parseUnless() (ast.Node, error) {
	start := p.advance() // "unless"
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	var orelse []ast.Node
	if p.isKeyword("else") {
		p.advance()
		p.skipNewlines()
		orelse, err = p.parseStmts(p.atBlockEnd)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	negated := &ast.UnaryOp{Op: "not", Operand: test}
	negated.Init(test.Start(), test.End(), test.Pos())
	n := &ast.If{Test: negated, Body: body, Orelse: orelse}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseWhile() (ast.Node, error) {
	start := p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.While{Test: test, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseFor() (ast.Node, error) {
	start := p.advance()
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.For{Target: target, Iter: iter, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseTargetList() (ast.Node, error) {
	first, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.COMMA {
		return first, nil
	}
	elts := []ast.Node{first}
	for p.cur().Kind == token.COMMA {
		p.advance()
		e, err := p.parseTarget()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	n := &ast.TupleNode{Elts: elts}
	n.Init(elts[0].Start(), elts[len(elts)-1].End(), elts[0].Pos())
	return n, nil
}

func (p *parser) parseTarget() (ast.Node, error) {
	if p.cur().Kind == token.STAR {
		start := p.advance()
		inner, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		n := &ast.Starred{Value: inner}
		n.Init(start.Pos.Offset, inner.End(), start.Pos)
		return n, nil
	}
	return p.parsePostfix()
}

func (p *parser) parseDef() (ast.Node, error) {
	start := p.advance() // "def"
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var args []string
	var defaults []ast.Node
	vararg, kwarg, blockArg := "", "", ""
	if p.cur().Kind == token.LPAREN {
		p.advance()
		for p.cur().Kind != token.RPAREN {
			switch {
			case p.cur().Kind == token.STAR:
				p.advance()
				if p.cur().Kind == token.STAR {
					p.advance()
					id, err := p.expect(token.IDENT)
					if err != nil {
						return nil, err
					}
					kwarg = id.Lexeme
				} else {
					id, err := p.expect(token.IDENT)
					if err != nil {
						return nil, err
					}
					vararg = id.Lexeme
				}
			case p.cur().Kind == token.PIPE:
				p.advance()
				id, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				blockArg = id.Lexeme
				if _, err := p.expect(token.PIPE); err != nil {
					return nil, err
				}
			default:
				id, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				args = append(args, id.Lexeme)
				if p.cur().Kind == token.ASSIGN {
					p.advance()
					d, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					defaults = append(defaults, d)
				}
			}
			if p.cur().Kind == token.COMMA {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.FunctionDef{
		Name: name.Lexeme, Args: args, Defaults: defaults,
		Vararg: vararg, Kwarg: kwarg, BlockArg: blockArg, Body: body,
	}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseClass() (ast.Node, error) {
	start := p.advance() // "class"
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var bases []ast.Node
	if p.cur().Kind == token.LT {
		p.advance()
		b, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		bases = append(bases, b)
	}
	p.skipNewlines()
	var body []ast.Node
	for !p.isKeyword("end") && p.cur().Kind != token.EOF {
		if p.isKeyword("def") {
			m, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			m.(*ast.FunctionDef).IsMethod = true
			body = append(body, m)
		} else {
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			if s != nil {
				body = append(body, s)
			}
		}
		p.skipNewlines()
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.ClassDef{Name: name.Lexeme, Bases: bases, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseBegin() (ast.Node, error) {
	start := p.advance() // "begin"
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	var handlers []*ast.ExceptHandler
	for p.isKeyword("rescue") {
		hstart := p.advance()
		var excType ast.Node
		name := ""
		if p.cur().Kind != token.NEWLINE {
			excType, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur().Kind == token.ASSIGN {
				// `=>` lexes as ASSIGN then GT in this tokenizer's two-char
				// scan; accept either spelling for the bound name.
				p.advance()
			}
			if p.cur().Kind == token.GT {
				p.advance()
			}
			if p.cur().Kind == token.IDENT {
				id := p.advance()
				name = id.Lexeme
			}
		}
		p.skipNewlines()
		hbody, err := p.parseStmts(p.atBlockEnd)
		if err != nil {
			return nil, err
		}
		h := &ast.ExceptHandler{ExcType: excType, Name: name, Body: hbody}
		h.Init(hstart.Pos.Offset, p.cur().Pos.Offset, hstart.Pos)
		handlers = append(handlers, h)
	}
	var orelse, finalbody []ast.Node
	if p.isKeyword("else") {
		p.advance()
		p.skipNewlines()
		orelse, err = p.parseStmts(p.atBlockEnd)
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("ensure") {
		p.advance()
		p.skipNewlines()
		finalbody, err = p.parseStmts(p.atBlockEnd)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	n := &ast.Try{Body: body, Handlers: handlers, Orelse: orelse, Finalbody: finalbody}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseSimpleOrAssign() (ast.Node, error) {
	start := p.cur()
	target, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if aug, ok := augOp(p.cur(), p.peekAt(1)); ok {
		p.advance()
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n := &ast.AugAssign{Target: target, Op: aug, Value: val}
		n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
		return n, nil
	}

	first, err := p.continueExprFrom(target)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.ASSIGN {
		targets := []ast.Node{first}
		var val ast.Node
		for p.cur().Kind == token.ASSIGN {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur().Kind == token.ASSIGN {
				targets = append(targets, v)
				continue
			}
			val = v
		}
		n := &ast.Assign{Targets: targets, Value: val}
		n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
		return n, nil
	}
	n := &ast.ExprStmt{Value: first}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func augOp(op, eq token.Token) (string, bool) {
	if eq.Kind != token.ASSIGN {
		return "", false
	}
	switch op.Kind {
	case token.PLUS:
		return "+", true
	case token.MINUS:
		return "-", true
	case token.STAR:
		return "*", true
	case token.SLASH:
		return "/", true
	case token.PERCENT:
		return "%", true
	default:
		return "", false
	}
}

// ---- Expressions -----------------------------------------------------------

func (p *parser) parseExpr() (ast.Node, error) { return p.parseOr() }

func (p *parser) continueExprFrom(left ast.Node) (ast.Node, error) {
	left, err := p.termFrom(left)
	if err != nil {
		return nil, err
	}
	left, err = p.arithFrom(left)
	if err != nil {
		return nil, err
	}
	left, err = p.comparisonFrom(left)
	if err != nil {
		return nil, err
	}
	left, err = p.andFrom(left)
	if err != nil {
		return nil, err
	}
	return p.orFrom(left)
}

func (p *parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	return p.orFrom(left)
}

func (p *parser) orFrom(left ast.Node) (ast.Node, error) {
	if !p.isKeyword("or") {
		return left, nil
	}
	values := []ast.Node{left}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		values = append(values, right)
	}
	n := &ast.BoolOp{Op: "or", Values: values}
	n.Init(left.Start(), values[len(values)-1].End(), left.Pos())
	return n, nil
}

func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return p.andFrom(left)
}

func (p *parser) andFrom(left ast.Node) (ast.Node, error) {
	if !p.isKeyword("and") {
		return left, nil
	}
	values := []ast.Node{left}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		values = append(values, right)
	}
	n := &ast.BoolOp{Op: "and", Values: values}
	n.Init(left.Start(), values[len(values)-1].End(), left.Pos())
	return n, nil
}

func (p *parser) parseNot() (ast.Node, error) {
	if p.isKeyword("not") {
		start := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		n := &ast.UnaryOp{Op: "not", Operand: operand}
		n.Init(start.Pos.Offset, operand.End(), start.Pos)
		return n, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ast.Node, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	return p.comparisonFrom(left)
}

func (p *parser) comparisonFrom(left ast.Node) (ast.Node, error) {
	for {
		var op string
		switch p.cur().Kind {
		case token.LT:
			op = "<"
		case token.GT:
			op = ">"
		case token.LTE:
			op = "<="
		case token.GTE:
			op = ">="
		case token.EQ:
			op = "=="
		case token.NEQ:
			op = "!="
		default:
			if p.isKeyword("is") {
				op = "is"
			} else if p.isKeyword("in") {
				op = "in"
			} else {
				return left, nil
			}
		}
		p.advance()
		right, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		n := &ast.Compare{Left: left, Op: op, Right: right}
		n.Init(left.Start(), right.End(), left.Pos())
		left = n
	}
}

func (p *parser) parseArith() (ast.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return p.arithFrom(left)
}

func (p *parser) arithFrom(left ast.Node) (ast.Node, error) {
	for p.cur().Kind == token.PLUS || p.cur().Kind == token.MINUS {
		op := "+"
		if p.cur().Kind == token.MINUS {
			op = "-"
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		n := &ast.BinOp{Op: op, Left: left, Right: right}
		n.Init(left.Start(), right.End(), left.Pos())
		left = n
	}
	return left, nil
}

func (p *parser) parseTerm() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.termFrom(left)
}

func (p *parser) termFrom(left ast.Node) (ast.Node, error) {
	for p.cur().Kind == token.STAR || p.cur().Kind == token.SLASH || p.cur().Kind == token.PERCENT {
		op := map[token.Kind]string{token.STAR: "*", token.SLASH: "/", token.PERCENT: "%"}[p.cur().Kind]
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := &ast.BinOp{Op: op, Left: left, Right: right}
		n.Init(left.Start(), right.End(), left.Pos())
		left = n
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Node, error) {
	if p.cur().Kind == token.MINUS {
		start := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := &ast.UnaryOp{Op: "-", Operand: operand}
		n.Init(start.Pos.Offset, operand.End(), start.Pos)
		return n, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.DOT:
			p.advance()
			id, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			attr := &ast.Attribute{Value: expr, Attr: id.Lexeme}
			attr.Init(expr.Start(), id.EndByte, expr.Pos())
			if p.cur().Kind == token.LPAREN {
				expr, err = p.parseCallTrailer(attr)
				if err != nil {
					return nil, err
				}
			} else {
				expr = attr
			}
		case token.LPAREN:
			call, err := p.parseCallTrailer(expr)
			if err != nil {
				return nil, err
			}
			expr = call
		case token.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(token.RBRACKET)
			if err != nil {
				return nil, err
			}
			n := &ast.Subscript{Value: expr, Index: idx}
			n.Init(expr.Start(), end.EndByte, expr.Pos())
			expr = n
		case token.KEYWORD:
			if p.cur().Lexeme == "do" {
				expr, err = p.attachBlock(expr)
				if err != nil {
					return nil, err
				}
				continue
			}
			return expr, nil
		case token.LBRACE:
			// A call immediately followed by `{ |x| ... }` attaches a
			// block the same way `do ... end` does.
			if call, ok := expr.(*ast.Call); ok && call.BlockArg == nil {
				expr, err = p.attachBraceBlock(expr)
				if err != nil {
					return nil, err
				}
				continue
			}
			return expr, nil
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseCallTrailer(fn ast.Node) (ast.Node, error) {
	p.advance() // "("
	call := &ast.Call{Func: fn}
	for p.cur().Kind != token.RPAREN {
		if p.cur().Kind == token.STAR {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Starargs = v
		} else if p.cur().Kind == token.IDENT && p.peekAt(1).Kind == token.COLON {
			name := p.advance().Lexeme
			p.advance() // ":"
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			kw := &ast.Keyword{Name: name, Value: v}
			kw.Init(v.Start(), v.End(), v.Pos())
			call.Keywords = append(call.Keywords, kw)
		} else {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		if p.cur().Kind == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(token.RPAREN)
	if err != nil {
		return nil, err
	}
	call.Init(fn.Start(), end.EndByte, fn.Pos())
	return call, nil
}

// attachBlock parses `do |params| body end` and assigns it as the
// enclosing call's BlockArg, modeling a Ruby block as an anonymous
// FunctionDef (spec.md §4.13 "with-statement / block-args").
func (p *parser) attachBlock(expr ast.Node) (ast.Node, error) {
	start := p.advance() // "do"
	params, err := p.parseBlockParams()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseStmts(p.atBlockEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectEnd(); err != nil {
		return nil, err
	}
	fn := &ast.FunctionDef{Args: params, Body: body}
	fn.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return setBlockArg(expr, fn), nil
}

func (p *parser) attachBraceBlock(expr ast.Node) (ast.Node, error) {
	start := p.advance() // "{"
	params, err := p.parseBlockParams()
	if err != nil {
		return nil, err
	}
	var body []ast.Node
	for p.cur().Kind != token.RBRACE {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			body = append(body, s)
		}
		p.skipNewlines()
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionDef{Args: params, Body: body}
	fn.Init(start.Pos.Offset, end.EndByte, start.Pos)
	return setBlockArg(expr, fn), nil
}

func (p *parser) parseBlockParams() ([]string, error) {
	var params []string
	if p.cur().Kind == token.PIPE {
		p.advance()
		for p.cur().Kind != token.PIPE {
			id, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, id.Lexeme)
			if p.cur().Kind == token.COMMA {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(token.PIPE); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func setBlockArg(expr ast.Node, fn *ast.FunctionDef) ast.Node {
	if call, ok := expr.(*ast.Call); ok {
		call.BlockArg = fn
		return call
	}
	call := &ast.Call{Func: expr, BlockArg: fn}
	call.Init(expr.Start(), fn.End(), expr.Pos())
	return call
}

func (p *parser) parseAtom() (ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case token.INT:
		p.advance()
		v, _ := strconv.ParseInt(t.Lexeme, 10, 64)
		n := &ast.Num{IVal: v}
		n.Init(t.Pos.Offset, t.EndByte, t.Pos)
		return n, nil
	case token.FLOAT:
		p.advance()
		v, _ := strconv.ParseFloat(t.Lexeme, 64)
		n := &ast.Num{IsFloat: true, FVal: v}
		n.Init(t.Pos.Offset, t.EndByte, t.Pos)
		return n, nil
	case token.STRING:
		p.advance()
		n := &ast.Str{Value: t.Lexeme}
		n.Init(t.Pos.Offset, t.EndByte, t.Pos)
		return n, nil
	case token.IDENT:
		p.advance()
		n := &ast.Name{Id: t.Lexeme}
		n.Init(t.Pos.Offset, t.EndByte, t.Pos)
		return n, nil
	case token.LPAREN:
		p.advance()
		if p.cur().Kind == token.RPAREN {
			end := p.advance()
			n := &ast.TupleNode{}
			n.Init(t.Pos.Offset, end.EndByte, t.Pos)
			return n, nil
		}
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind == token.COMMA {
			elts := []ast.Node{first}
			for p.cur().Kind == token.COMMA {
				p.advance()
				if p.cur().Kind == token.RPAREN {
					break
				}
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elts = append(elts, e)
			}
			end, err := p.expect(token.RPAREN)
			if err != nil {
				return nil, err
			}
			n := &ast.TupleNode{Elts: elts}
			n.Init(t.Pos.Offset, end.EndByte, t.Pos)
			return n, nil
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return first, nil
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseHashLiteral()
	case token.KEYWORD:
		switch t.Lexeme {
		case "true", "false":
			p.advance()
			n := &ast.BoolLit{Value: t.Lexeme == "true"}
			n.Init(t.Pos.Offset, t.EndByte, t.Pos)
			return n, nil
		case "nil":
			p.advance()
			n := &ast.NilLit{}
			n.Init(t.Pos.Offset, t.EndByte, t.Pos)
			return n, nil
		case "yield":
			p.advance()
			var val ast.Node
			if p.cur().Kind != token.NEWLINE {
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				val = v
			}
			n := &ast.Yield{Value: val}
			n.Init(t.Pos.Offset, p.cur().Pos.Offset, t.Pos)
			return n, nil
		}
	}
	return nil, fmt.Errorf("%s: unexpected token %s", t.Pos, t.Kind)
}

func (p *parser) parseArrayLiteral() (ast.Node, error) {
	start := p.advance() // "["
	var elts []ast.Node
	for p.cur().Kind != token.RBRACKET {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
		if p.cur().Kind == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	n := &ast.ListNode{Elts: elts}
	n.Init(start.Pos.Offset, end.EndByte, start.Pos)
	return n, nil
}

func (p *parser) parseHashLiteral() (ast.Node, error) {
	start := p.advance() // "{"
	var keys, vals []ast.Node
	for p.cur().Kind != token.RBRACE {
		var k ast.Node
		var err error
		if p.cur().Kind == token.IDENT && p.peekAt(1).Kind == token.COLON {
			id := p.advance()
			sym := &ast.Str{Value: id.Lexeme}
			sym.Init(id.Pos.Offset, id.EndByte, id.Pos)
			k = sym
			p.advance() // ":"
		} else {
			k, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
			// `=>` lexes as ASSIGN immediately followed by GT.
			if p.cur().Kind == token.ASSIGN && p.peekAt(1).Kind == token.GT {
				p.advance()
				p.advance()
			}
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
		if p.cur().Kind == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	n := &ast.DictNode{Keys: keys, Values: vals}
	n.Init(start.Pos.Offset, end.EndByte, start.Pos)
	return n, nil
}
