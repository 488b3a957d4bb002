package pyflavor

import (
	"fmt"
	"strconv"

	"github.com/arborist-lang/arborist/internal/ast"
	"github.com/arborist-lang/arborist/internal/token"
)

// parser is a conventional recursive-descent parser with a
// precedence-climbing expression core, the same shape as the
// teacher's own internal/parser but built over this dialect's
// indentation-based statement grammar instead.
type parser struct {
	toks []token.Token
	pos  int
	file string
}

// Parse implements frontend.Frontend for the pyflavor dialect.
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
	start := 0
	end := 0
	if len(toks) > 0 {
		end = toks[len(toks)-1].EndByte
	}
	m := ast.NewModule(file, start, end, token.Position{Line: 1, Column: 1}, body)
	ast.SetParents(m)
	return m, nil
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
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
	for p.cur().Kind == token.NEWLINE {
		p.advance()
	}
}

// parseStmts reads statements until stop() reports true.
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

// parseBlock parses `: NEWLINE INDENT stmt* DEDENT`.
func (p *parser) parseBlock() ([]ast.Node, error) {
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(token.INDENT); err != nil {
		return nil, err
	}
	body, err := p.parseStmts(func() bool { return p.cur().Kind == token.DEDENT })
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DEDENT); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *parser) parseStmt() (ast.Node, error) {
	t := p.cur()
	if t.Kind == token.AT {
		return p.parseDecorated()
	}
	if t.Kind == token.KEYWORD {
		switch t.Lexeme {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "def":
			return p.parseDef(false)
		case "class":
			return p.parseClass()
		case "try":
			return p.parseTry()
		case "with":
			return p.parseWith()
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
		case "continue":
			start := p.advance()
			n := &ast.Continue{}
			n.Init(start.Pos.Offset, start.EndByte, start.Pos)
			return n, nil
		case "pass":
			p.advance()
			return nil, nil
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
		case "import", "from":
			return p.parseImport()
		}
	}
	return p.parseSimpleOrAssign()
}

// parseDecorated consumes one or more `@expr` lines and attaches them
// to the def/class that follows (spec.md §4.13 decorators).
func (p *parser) parseDecorated() (ast.Node, error) {
	decs, err := p.parseDecorators()
	if err != nil {
		return nil, err
	}
	var n ast.Node
	switch {
	case p.isKeyword("def"):
		n, err = p.parseDef(false)
	case p.isKeyword("class"):
		n, err = p.parseClass()
	default:
		return nil, fmt.Errorf("%s: expected def or class after decorator", p.file)
	}
	if err != nil {
		return nil, err
	}
	attachDecorators(n, decs)
	return n, nil
}

// parseDecorators reads the `@expr` NEWLINE lines leading up to the
// next statement, without consuming it.
func (p *parser) parseDecorators() ([]ast.Node, error) {
	var decs []ast.Node
	for p.cur().Kind == token.AT {
		p.advance()
		d, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)
		p.skipNewlines()
	}
	return decs, nil
}

func attachDecorators(n ast.Node, decs []ast.Node) {
	switch v := n.(type) {
	case *ast.FunctionDef:
		v.Decorators = decs
	case *ast.ClassDef:
		v.Decorators = decs
	}
}

func (p *parser) parseIf() (ast.Node, error) {
	start := p.advance() // "if"
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var orelse []ast.Node
	p.skipNewlines()
	if p.isKeyword("elif") {
		elifNode, err := p.parseIf2("elif")
		if err != nil {
			return nil, err
		}
		orelse = []ast.Node{elifNode}
	} else if p.isKeyword("else") {
		p.advance()
		orelse, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	n := &ast.If{Test: test, Body: body, Orelse: orelse}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

// parseIf2 parses an "elif" clause as a nested If (elif is sugar for
// `else: if ...`).
func (p *parser) parseIf2(kw string) (ast.Node, error) {
	start := p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var orelse []ast.Node
	p.skipNewlines()
	if p.isKeyword("elif") {
		elifNode, err := p.parseIf2("elif")
		if err != nil {
			return nil, err
		}
		orelse = []ast.Node{elifNode}
	} else if p.isKeyword("else") {
		p.advance()
		orelse, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	n := &ast.If{Test: test, Body: body, Orelse: orelse}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseWhile() (ast.Node, error) {
	start := p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
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
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.For{Target: target, Iter: iter, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

// parseTargetList parses a for-loop or assignment target, which may be
// a bare name or a comma-separated tuple (unparenthesized).
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
		if p.isKeyword("in") {
			break
		}
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

func (p *parser) parseDef(isMethod bool) (ast.Node, error) {
	start := p.advance() // "def"
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []string
	var defaults []ast.Node
	vararg, kwarg := "", ""
	for p.cur().Kind != token.RPAREN {
		if p.cur().Kind == token.STAR {
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
		} else {
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
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.FunctionDef{
		Name: name.Lexeme, Args: args, Defaults: defaults,
		Vararg: vararg, Kwarg: kwarg, Body: body, IsMethod: isMethod,
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
	if p.cur().Kind == token.LPAREN {
		p.advance()
		for p.cur().Kind != token.RPAREN {
			b, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			bases = append(bases, b)
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
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(token.INDENT); err != nil {
		return nil, err
	}
	var body []ast.Node
	p.skipNewlines()
	for p.cur().Kind != token.DEDENT {
		if p.cur().Kind == token.AT {
			decs, err := p.parseDecorators()
			if err != nil {
				return nil, err
			}
			m, err := p.parseDef(true)
			if err != nil {
				return nil, err
			}
			attachDecorators(m, decs)
			body = append(body, m)
		} else if p.isKeyword("def") {
			m, err := p.parseDef(true)
			if err != nil {
				return nil, err
			}
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
	if _, err := p.expect(token.DEDENT); err != nil {
		return nil, err
	}
	n := &ast.ClassDef{Name: name.Lexeme, Bases: bases, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseTry() (ast.Node, error) {
	start := p.advance() // "try"
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var handlers []*ast.ExceptHandler
	p.skipNewlines()
	for p.isKeyword("except") {
		hstart := p.advance()
		var excType ast.Node
		name := ""
		if p.cur().Kind != token.COLON {
			excType, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.isKeyword("as") {
				p.advance()
				id, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				name = id.Lexeme
			}
		}
		hbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		h := &ast.ExceptHandler{ExcType: excType, Name: name, Body: hbody}
		h.Init(hstart.Pos.Offset, p.cur().Pos.Offset, hstart.Pos)
		handlers = append(handlers, h)
		p.skipNewlines()
	}
	var orelse, finalbody []ast.Node
	if p.isKeyword("else") {
		p.advance()
		orelse, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if p.isKeyword("finally") {
		p.advance()
		finalbody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	n := &ast.Try{Body: body, Handlers: handlers, Orelse: orelse, Finalbody: finalbody}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseWith() (ast.Node, error) {
	start := p.advance() // "with"
	ctx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var optVars ast.Node
	if p.isKeyword("as") {
		p.advance()
		optVars, err = p.parseTarget()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.With{Context: ctx, OptionalVars: optVars, Body: body}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

func (p *parser) parseImport() (ast.Node, error) {
	start := p.cur()
	if p.isKeyword("from") {
		p.advance()
		mod, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("import"); err != nil {
			return nil, err
		}
		if p.cur().Kind == token.STAR {
			p.advance()
			n := &ast.ImportNode{ModulePath: mod.Lexeme, IsWildcard: true}
			n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
			return n, nil
		}
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
		n := &ast.ImportNode{ModulePath: mod.Lexeme, Names: names}
		n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
		return n, nil
	}
	p.advance() // "import"
	mod, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.isKeyword("as") {
		p.advance()
		id, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		alias = id.Lexeme
	}
	n := &ast.ImportNode{ModulePath: mod.Lexeme, Alias: alias}
	n.Init(start.Pos.Offset, p.cur().Pos.Offset, start.Pos)
	return n, nil
}

// parseSimpleOrAssign parses an expression statement, plain assignment
// (with chaining `a = b = expr`), or augmented assignment. It parses
// the lowest-precedence operand once, checks for an augmented-assign
// operator immediately following it (which a full parseExpr call
// would otherwise swallow as a binary operator), and otherwise
// continues climbing precedence from that same operand so the
// assignment-or-not decision doesn't require backtracking.
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

// augOp recognizes an augmented-assign operator as two adjacent
// tokens (the lexer never special-cases `+=`-style lexemes).
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

// ---- Expressions: precedence-climbing -----------------------------------

func (p *parser) parseExpr() (ast.Node, error) {
	return p.parseOr()
}

// continueExprFrom resumes precedence climbing from an
// already-parsed unary-level operand, applying every higher level in
// turn (*, /, %; +, -; comparisons; and; or). Used by statement
// parsing, which must peek past the operand for an augmented-assign
// operator before committing to a full expression parse.
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

var compareOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true}

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

// parsePostfix parses an atom followed by any chain of call/attribute/
// subscript trailers.
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
			n := &ast.Attribute{Value: expr, Attr: id.Lexeme}
			n.Init(expr.Start(), id.EndByte, expr.Pos())
			expr = n
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
		} else if p.cur().Kind == token.IDENT && p.peekAt(1).Kind == token.ASSIGN {
			name := p.advance().Lexeme
			p.advance() // "="
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
		return p.parseListOrComp()
	case token.LBRACE:
		return p.parseDictOrSet()
	case token.KEYWORD:
		switch t.Lexeme {
		case "True", "False":
			p.advance()
			n := &ast.BoolLit{Value: t.Lexeme == "True"}
			n.Init(t.Pos.Offset, t.EndByte, t.Pos)
			return n, nil
		case "None":
			p.advance()
			n := &ast.NilLit{}
			n.Init(t.Pos.Offset, t.EndByte, t.Pos)
			return n, nil
		case "lambda":
			return p.parseLambda()
		case "yield":
			p.advance()
			var val ast.Node
			if p.cur().Kind != token.NEWLINE && p.cur().Kind != token.RPAREN {
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

func (p *parser) parseLambda() (ast.Node, error) {
	start := p.advance() // "lambda"
	var args []string
	var defaults []ast.Node
	for p.cur().Kind == token.IDENT {
		id := p.advance()
		args = append(args, id.Lexeme)
		if p.cur().Kind == token.ASSIGN {
			p.advance()
			d, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			defaults = append(defaults, d)
		}
		if p.cur().Kind == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := &ast.Lambda{Args: args, Defaults: defaults, Body: body}
	n.Init(start.Pos.Offset, body.End(), start.Pos)
	return n, nil
}

// parseListOrComp parses `[expr, expr, ...]` or `[expr for t in it if
// cond]` (spec.md §4.13 comprehensions-as-For).
func (p *parser) parseListOrComp() (ast.Node, error) {
	start := p.advance() // "["
	if p.cur().Kind == token.RBRACKET {
		end := p.advance()
		n := &ast.ListNode{}
		n.Init(start.Pos.Offset, end.EndByte, start.Pos)
		return n, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		p.advance()
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
		var ifs []ast.Node
		for p.isKeyword("if") {
			p.advance()
			c, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ifs = append(ifs, c)
		}
		end, err := p.expect(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		n := &ast.ListComp{Elt: first, Target: target, Iter: iter, Ifs: ifs}
		n.Init(start.Pos.Offset, end.EndByte, start.Pos)
		return n, nil
	}
	elts := []ast.Node{first}
	for p.cur().Kind == token.COMMA {
		p.advance()
		if p.cur().Kind == token.RBRACKET {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	end, err := p.expect(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	n := &ast.ListNode{Elts: elts}
	n.Init(start.Pos.Offset, end.EndByte, start.Pos)
	return n, nil
}

// parseDictOrSet parses `{}`, `{k: v, ...}`, `{e, ...}`, or their
// comprehension forms.
func (p *parser) parseDictOrSet() (ast.Node, error) {
	start := p.advance() // "{"
	if p.cur().Kind == token.RBRACE {
		end := p.advance()
		n := &ast.DictNode{}
		n.Init(start.Pos.Offset, end.EndByte, start.Pos)
		return n, nil
	}
	firstKey, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.COLON {
		p.advance()
		firstVal, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("for") {
			p.advance()
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
			var ifs []ast.Node
			for p.isKeyword("if") {
				p.advance()
				c, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				ifs = append(ifs, c)
			}
			end, err := p.expect(token.RBRACE)
			if err != nil {
				return nil, err
			}
			n := &ast.DictComp{KeyExpr: firstKey, ValExpr: firstVal, Target: target, Iter: iter, Ifs: ifs}
			n.Init(start.Pos.Offset, end.EndByte, start.Pos)
			return n, nil
		}
		keys := []ast.Node{firstKey}
		vals := []ast.Node{firstVal}
		for p.cur().Kind == token.COMMA {
			p.advance()
			if p.cur().Kind == token.RBRACE {
				break
			}
			k, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		end, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		n := &ast.DictNode{Keys: keys, Values: vals}
		n.Init(start.Pos.Offset, end.EndByte, start.Pos)
		return n, nil
	}
	if p.isKeyword("for") {
		p.advance()
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
		var ifs []ast.Node
		for p.isKeyword("if") {
			p.advance()
			c, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ifs = append(ifs, c)
		}
		end, err := p.expect(token.RBRACE)
		if err != nil {
			return nil, err
		}
		n := &ast.SetComp{Elt: firstKey, Target: target, Iter: iter, Ifs: ifs}
		n.Init(start.Pos.Offset, end.EndByte, start.Pos)
		return n, nil
	}
	elts := []ast.Node{firstKey}
	for p.cur().Kind == token.COMMA {
		p.advance()
		if p.cur().Kind == token.RBRACE {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	n := &ast.SetNode{Elts: elts}
	n.Init(start.Pos.Offset, end.EndByte, start.Pos)
	return n, nil
}
