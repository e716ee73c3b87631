package parser

import (
	"fmt"
	"strconv"
	"strings"

	"myst/internal/ast"
	"myst/internal/lexer"
	"myst/internal/token"
)

type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// init cur/peek
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns parse errors followed by any errors the lexer reported.
func (p *Parser) Errors() []string {
	return append(append([]string(nil), p.l.Errors()...), p.errors...)
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf("%d:%d: ", pos.Line, pos.Column) + fmt.Sprintf(format, args...)
	p.errors = append(p.errors, msg)
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "expected %s, got %s (%q)", kind, p.cur.Kind, p.cur.Lexeme)
	}
	tok := p.cur
	p.nextToken()
	return tok
}

// ---------- Top-level ----------

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Kind != token.EOF {
		before := p.cur
		if st := p.parseStatement(); st != nil {
			prog.Body = append(prog.Body, st)
		}
		if p.cur == before {
			p.nextToken()
		}
	}
	return prog
}

func (p *Parser) parseBlock() []ast.Node {
	p.expect(token.LBrace)

	var body []ast.Node
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		before := p.cur
		if st := p.parseStatement(); st != nil {
			body = append(body, st)
		}
		if p.cur == before {
			// no progress: skip the offending token
			p.nextToken()
		}
	}

	if p.cur.Kind == token.RBrace {
		p.nextToken()
	} else {
		p.errorf(p.cur.Pos, "expected '}' to close block")
	}
	return body
}

func (p *Parser) parseStatement() ast.Node {
	switch p.cur.Kind {
	case token.Let:
		return p.parseLetStmt()
	case token.Func:
		return p.parseFuncDecl()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.Return:
		return p.parseReturnStmt()
	case token.Import, token.Include:
		return p.parseImportStmt()
	case token.Pass:
		tok := p.cur
		p.nextToken()
		p.expect(token.Semicolon)
		return &ast.PassStmt{PassPos: tok.Pos}
	case token.Semicolon:
		p.nextToken()
		return nil
	case token.Illegal:
		p.nextToken()
		return nil
	}

	expr := p.parseExpr()
	if expr == nil {
		p.nextToken()
		return nil
	}
	if p.cur.Kind == token.Assign {
		// Any left side is accepted here; the compiler rejects targets
		// that are not plain identifiers.
		opTok := p.cur
		p.nextToken()
		value := p.parseExpr()
		p.expect(token.Semicolon)
		return &ast.BinaryExpr{
			Op:    ast.OpAssign,
			OpPos: opTok.Pos,
			Left:  expr,
			Right: value,
		}
	}
	p.expect(token.Semicolon)
	return expr
}

func (p *Parser) parseLetStmt() ast.Node {
	letTok := p.cur
	p.nextToken()

	if p.cur.Kind != token.Ident {
		p.errorf(p.cur.Pos, "expected variable name after 'let'")
		return nil
	}
	nameTok := p.cur
	p.nextToken()

	var typ ast.TypeNode
	if p.cur.Kind == token.Colon {
		p.nextToken()
		typ = p.parseType()
	}

	p.expect(token.Assign)
	value := p.parseExpr()
	p.expect(token.Semicolon)

	return &ast.BinaryExpr{
		Op:         ast.OpDeclare,
		OpPos:      letTok.Pos,
		Left:       &ast.Ident{Name: nameTok.Lexeme, NamePos: nameTok.Pos},
		Right:      value,
		Annotation: typ,
	}
}

func (p *Parser) parseFuncDecl() ast.Node {
	p.nextToken() // func

	if p.cur.Kind != token.Ident {
		p.errorf(p.cur.Pos, "expected function name after 'func'")
		return nil
	}
	nameTok := p.cur
	p.nextToken()

	p.expect(token.LParen)
	var params []*ast.Param
	if p.cur.Kind != token.RParen {
		for {
			if p.cur.Kind != token.Ident {
				p.errorf(p.cur.Pos, "expected parameter name")
				break
			}
			param := &ast.Param{Name: p.cur.Lexeme, NamePos: p.cur.Pos}
			p.nextToken()
			if p.cur.Kind == token.Colon {
				p.nextToken()
				param.Type = p.parseType()
			}
			params = append(params, param)
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)

	var result ast.TypeNode
	if p.cur.Kind == token.Colon {
		p.nextToken()
		result = p.parseType()
	}

	body := p.parseBlock()
	return &ast.FuncDecl{
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
		Params:  params,
		Result:  result,
		Body:    body,
	}
}

func (p *Parser) parseType() ast.TypeNode {
	tok := p.cur
	switch tok.Kind {
	case token.NumberType, token.StringType, token.StructType, token.NullType:
		p.nextToken()
		return &ast.SimpleType{Name: tok.Lexeme, NamePos: tok.Pos}
	case token.Func:
		p.nextToken()
		ft := &ast.FuncType{FuncPos: tok.Pos}
		if p.cur.Kind == token.Lt {
			p.nextToken()
			ft.Result = p.parseType()
			p.expect(token.Gt)
		}
		return ft
	default:
		p.errorf(tok.Pos, "expected type, got %s (%q)", tok.Kind, tok.Lexeme)
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseIfStmt() ast.Node {
	ifTok := p.cur
	p.nextToken()

	cond := p.parseExpr()
	then := p.parseBlock()

	var els []ast.Node
	if p.cur.Kind == token.Else {
		p.nextToken()
		if p.cur.Kind == token.If {
			// else if: the nested if is the whole false branch
			if nested := p.parseIfStmt(); nested != nil {
				els = []ast.Node{nested}
			}
		} else {
			els = p.parseBlock()
		}
	}

	return &ast.IfStmt{
		IfPos: ifTok.Pos,
		Cond:  cond,
		Then:  then,
		Else:  els,
	}
}

func (p *Parser) parseWhileStmt() ast.Node {
	whileTok := p.cur
	p.nextToken()
	cond := p.parseExpr()
	body := p.parseBlock()

	return &ast.WhileStmt{
		WhilePos: whileTok.Pos,
		Cond:     cond,
		Body:     body,
	}
}

func (p *Parser) parseReturnStmt() ast.Node {
	retTok := p.cur
	p.nextToken()

	var value ast.Node
	if p.cur.Kind != token.Semicolon {
		value = p.parseExpr()
	}
	p.expect(token.Semicolon)

	return &ast.ReturnStmt{ReturnPos: retTok.Pos, Value: value}
}

func (p *Parser) parseImportStmt() ast.Node {
	impTok := p.cur
	p.nextToken()

	if p.cur.Kind != token.Ident {
		p.errorf(p.cur.Pos, "expected module name after '%s'", impTok.Lexeme)
		return nil
	}
	parts := []string{p.cur.Lexeme}
	p.nextToken()
	for p.cur.Kind == token.Dot {
		p.nextToken()
		if p.cur.Kind != token.Ident {
			p.errorf(p.cur.Pos, "expected identifier after '.' in module name")
			break
		}
		parts = append(parts, p.cur.Lexeme)
		p.nextToken()
	}
	p.expect(token.Semicolon)

	return &ast.ImportStmt{ImportPos: impTok.Pos, Name: strings.Join(parts, ".")}
}

// ---------- Expressions ----------

func (p *Parser) parseExpr() ast.Node {
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]ast.Operator{
	token.Eq:    ast.OpEq,
	token.NotEq: ast.OpNotEq,
	token.Lt:    ast.OpLt,
	token.LtEq:  ast.OpLtEq,
	token.Gt:    ast.OpGt,
	token.GtEq:  ast.OpGtEq,
}

func (p *Parser) parseComparison() ast.Node {
	left := p.parseAdditive()
	for {
		op, ok := comparisonOps[p.cur.Kind]
		if !ok {
			return left
		}
		opTok := p.cur
		p.nextToken()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Op: op, OpPos: opTok.Pos, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Node {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		opTok := p.cur
		op := ast.OpAdd
		if opTok.Kind == token.Minus {
			op = ast.OpSub
		}
		p.nextToken()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op, OpPos: opTok.Pos, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Node {
	left := p.parseUnary()
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash {
		opTok := p.cur
		op := ast.OpMul
		if opTok.Kind == token.Slash {
			op = ast.OpDiv
		}
		p.nextToken()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, OpPos: opTok.Pos, Left: left, Right: right}
	}
	return left
}

// parseUnary folds "-<int>" into a negative literal and rewrites any other
// negation as 0 - x, since the instruction set has no negate.
func (p *Parser) parseUnary() ast.Node {
	if p.cur.Kind != token.Minus {
		return p.parsePrimary()
	}
	minus := p.cur
	p.nextToken()
	if tok := p.cur; tok.Kind == token.Int {
		p.nextToken()
		// parsed with its sign so the most negative int64 fits
		v, err := strconv.ParseInt("-"+tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q", "-"+tok.Lexeme)
		}
		return &ast.NumberLit{Value: v, LitPos: minus.Pos}
	}
	x := p.parseUnary()
	if lit, ok := x.(*ast.NumberLit); ok {
		return &ast.NumberLit{Value: -lit.Value, LitPos: minus.Pos}
	}
	return &ast.BinaryExpr{
		Op:    ast.OpSub,
		OpPos: minus.Pos,
		Left:  &ast.NumberLit{Value: 0, LitPos: minus.Pos},
		Right: x,
	}
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.cur
	switch tok.Kind {
	case token.Int:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q", tok.Lexeme)
		}
		return &ast.NumberLit{Value: v, LitPos: tok.Pos}

	case token.String:
		p.nextToken()
		return &ast.StringLit{Value: tok.Lexeme, LitPos: tok.Pos}

	case token.LBracket:
		p.nextToken()
		arr := &ast.ArrayLit{LBrack: tok.Pos}
		if p.cur.Kind != token.RBracket {
			for {
				arr.Elements = append(arr.Elements, p.parseExpr())
				if p.cur.Kind == token.Comma {
					p.nextToken()
					continue
				}
				break
			}
		}
		p.expect(token.RBracket)
		return arr

	case token.LParen:
		p.nextToken()
		inner := p.parseExpr()
		p.expect(token.RParen)
		return inner

	case token.Ident:
		return p.parseNamed()

	default:
		p.errorf(tok.Pos, "unexpected %s (%q) in expression", tok.Kind, tok.Lexeme)
		return nil
	}
}

// parseNamed parses NAME, NAME(args), NAME[index] and NAME.member paths.
// A path a.b(x) becomes Property{a, Call{b, x}} so the member keeps its
// own call shape.
func (p *Parser) parseNamed() ast.Node {
	nameTok := p.cur
	p.nextToken()
	ident := &ast.Ident{Name: nameTok.Lexeme, NamePos: nameTok.Pos}

	switch p.cur.Kind {
	case token.LParen:
		return p.parseCall(ident)

	case token.LBracket:
		p.nextToken()
		index := p.parseExpr()
		p.expect(token.RBracket)
		return &ast.IndexExpr{Name: ident.Name, NamePos: ident.NamePos, Index: index}

	case token.Dot:
		dot := p.cur
		p.nextToken()
		if p.cur.Kind != token.Ident {
			p.errorf(p.cur.Pos, "expected identifier after '.'")
			return ident
		}
		return &ast.PropertyExpr{Object: ident, Member: p.parseNamed(), DotPos: dot.Pos}
	}
	return ident
}

func (p *Parser) parseCall(callee ast.Node) ast.Node {
	lparen := p.cur
	p.nextToken()

	var args []ast.Node
	if p.cur.Kind != token.RParen {
		for {
			args = append(args, p.parseExpr())
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)

	return &ast.CallExpr{Callee: callee, Args: args, LParen: lparen.Pos}
}
