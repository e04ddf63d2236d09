// Package parser builds an *ast.CompileUnit from a token stream, using a
// Pratt-parser shape (prefix/infix function tables keyed by token type,
// curToken/peekToken lookahead, expectPeek) generalized from a
// line-oriented expression grammar to SysY's brace-and-semicolon
// C-subset grammar: top-level items are declarations or function
// definitions, statements nest in blocks, and every node is allocated
// through an arena rather than a bare composite literal.
//
// Unlike a parser that accumulates parse errors into a slice and keeps
// going, this one reports the first syntax error with token.Fatal and
// aborts immediately: every pass here fails fast, with no local
// recovery.
package parser

import (
	"strconv"

	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/ast"
	"github.com/NKU-RuntimeError/SysY-compiler/lexer"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
	"github.com/NKU-RuntimeError/SysY-compiler/types"
)

const (
	_ int = iota
	LOWEST
	LOGIC_OR
	LOGIC_AND
	EQUALITY
	RELATIONAL
	SUM
	PRODUCT
	PREFIX
	CALL
)

var precedences = map[token.Type]int{
	token.OR:  LOGIC_OR,
	token.AND: LOGIC_AND,
	token.EQL: EQUALITY,
	token.NEQ: EQUALITY,
	token.LSS: RELATIONAL,
	token.LEQ: RELATIONAL,
	token.GTR: RELATIONAL,
	token.GEQ: RELATIONAL,
	token.ADD: SUM,
	token.SUB: SUM,
	token.MUL: PRODUCT,
	token.QUO: PRODUCT,
	token.REM: PRODUCT,
}

var binaryOps = map[token.Type]ast.BinaryOp{
	token.ADD: ast.Add,
	token.SUB: ast.Sub,
	token.MUL: ast.Mul,
	token.QUO: ast.Quo,
	token.REM: ast.Rem,
	token.LSS: ast.Lss,
	token.LEQ: ast.Leq,
	token.GTR: ast.Gtr,
	token.GEQ: ast.Geq,
	token.EQL: ast.Eql,
	token.NEQ: ast.Neq,
	token.AND: ast.LAnd,
	token.OR:  ast.LOr,
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Parser struct {
	l *lexer.Lexer
	a *arena.Arena

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New returns a parser that allocates every node it builds through a.
func New(l *lexer.Lexer, a *arena.Arena) *Parser {
	p := &Parser{l: l, a: a}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:       p.parseIdentPrimary,
		token.INT_CONST:   p.parseNumberLiteral,
		token.FLOAT_CONST: p.parseNumberLiteral,
		token.ADD:         p.parseUnaryExpr,
		token.SUB:         p.parseUnaryExpr,
		token.NOT:         p.parseUnaryExpr,
		token.LPAREN:      p.parseGroupedExpr,
	}

	p.infixParseFns = map[token.Type]infixParseFn{}
	for tt := range precedences {
		p.infixParseFns[tt] = p.parseBinaryExpr
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) {
	if !p.peekTokenIs(t) {
		token.Fatal(token.SyntaxError, p.peekToken.Pos, "expected %s, got %s", t, p.peekToken.Type)
	}
	p.nextToken()
}

func (p *Parser) fatalf(format string, args ...any) {
	token.Fatal(token.SyntaxError, p.curToken.Pos, format, args...)
}

func (p *Parser) rangeFrom(start token.Position) token.Range {
	return token.Range{Begin: start, End: p.curToken.Pos}
}

// ParseCompileUnit parses an entire source file into its root node.
func (p *Parser) ParseCompileUnit() *ast.CompileUnit {
	start := p.curToken.Pos
	unit := arena.Make[ast.CompileUnit](p.a)
	for !p.curTokenIs(token.EOF) {
		unit.Items = append(unit.Items, p.parseTopLevelItem())
		p.nextToken()
	}
	unit.R = p.rangeFrom(start)
	return unit
}

func (p *Parser) parseTopLevelItem() ast.Node {
	if p.curTokenIs(token.CONST) {
		return p.parseConstVariableDecl()
	}

	typ := p.parseTypeKeyword()
	if !p.curTokenIs(token.IDENT) {
		p.fatalf("expected a name, got %s", p.curToken.Type)
	}
	name := p.curToken.Literal

	if p.peekTokenIs(token.LPAREN) {
		return p.parseFunctionDef(typ, name)
	}
	return p.parseVariableDeclRest(typ, name)
}

func (p *Parser) parseTypeKeyword() types.Kind {
	switch p.curToken.Type {
	case token.INT:
		p.nextToken()
		return types.Int
	case token.FLOAT:
		p.nextToken()
		return types.Float
	case token.VOID:
		p.nextToken()
		return types.Void
	default:
		p.fatalf("expected a type keyword, got %s", p.curToken.Type)
		return types.Void
	}
}

// parseConstVariableDecl parses `const <type> def, def, ...;` with cur
// positioned on the CONST token.
func (p *Parser) parseConstVariableDecl() *ast.ConstVariableDecl {
	start := p.curToken.Pos
	p.nextToken()
	typ := p.parseTypeKeyword()

	decl := arena.Make[ast.ConstVariableDecl](p.a)
	decl.Type = typ
	decl.Defs = append(decl.Defs, p.parseConstVariableDef())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		decl.Defs = append(decl.Defs, p.parseConstVariableDef())
	}
	p.expectPeek(token.SEMI)
	decl.R = p.rangeFrom(start)
	return decl
}

func (p *Parser) parseConstVariableDef() *ast.ConstVariableDef {
	start := p.curToken.Pos
	if !p.curTokenIs(token.IDENT) {
		p.fatalf("expected identifier, got %s", p.curToken.Type)
	}
	def := arena.Make[ast.ConstVariableDef](p.a)
	def.Name = p.curToken.Literal
	def.Dims = p.parseDims(false)
	p.expectPeek(token.ASSIGN)
	p.nextToken()
	def.Init = p.parseInitializerElement()
	def.R = p.rangeFrom(start)
	return def
}

// parseDims consumes a sequence of `[expr]` or, when allowEmptyFirst is
// true, a single leading `[]` sentinel for an array-decayed parameter.
func (p *Parser) parseDims(allowEmptyFirst bool) []ast.Expr {
	var dims []ast.Expr
	first := true
	for p.peekTokenIs(token.LBRACK) {
		p.nextToken()
		if allowEmptyFirst && first && p.peekTokenIs(token.RBRACK) {
			p.nextToken()
			dims = append(dims, nil)
			first = false
			continue
		}
		p.nextToken()
		dims = append(dims, p.parseExpr(LOWEST))
		p.expectPeek(token.RBRACK)
		first = false
	}
	return dims
}

// parseVariableDeclRest parses the remainder of a `<type> def, ...;`
// declaration whose type has already been read and whose first def's
// name is the current token.
func (p *Parser) parseVariableDeclRest(typ types.Kind, firstName string) *ast.VariableDecl {
	start := p.curToken.Pos
	decl := arena.Make[ast.VariableDecl](p.a)
	decl.Type = typ
	decl.Defs = append(decl.Defs, p.parseVariableDef(firstName))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		decl.Defs = append(decl.Defs, p.parseVariableDef(p.curToken.Literal))
	}
	p.expectPeek(token.SEMI)
	decl.R = p.rangeFrom(start)
	return decl
}

func (p *Parser) parseVariableDef(name string) *ast.VariableDef {
	start := p.curToken.Pos
	def := arena.Make[ast.VariableDef](p.a)
	def.Name = name
	def.Dims = p.parseDims(false)
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		def.Init = p.parseInitializerElement()
	}
	def.R = p.rangeFrom(start)
	return def
}

func (p *Parser) parseInitializerElement() ast.InitializerElement {
	if p.curTokenIs(token.LBRACE) {
		return p.parseInitializerList()
	}
	expr := p.parseExpr(LOWEST)
	elem, ok := expr.(ast.InitializerElement)
	if !ok {
		p.fatalf("expression cannot appear in an initializer")
	}
	return elem
}

func (p *Parser) parseInitializerList() *ast.InitializerList {
	start := p.curToken.Pos
	list := arena.Make[ast.InitializerList](p.a)
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		list.R = p.rangeFrom(start)
		return list
	}
	p.nextToken()
	list.Elements = append(list.Elements, p.parseInitializerElement())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list.Elements = append(list.Elements, p.parseInitializerElement())
	}
	p.expectPeek(token.RBRACE)
	list.R = p.rangeFrom(start)
	return list
}

func (p *Parser) parseFunctionDef(returnType types.Kind, name string) *ast.FunctionDef {
	start := p.curToken.Pos
	def := arena.Make[ast.FunctionDef](p.a)
	def.ReturnType = returnType
	def.Name = name

	p.expectPeek(token.LPAREN)
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		def.Args = append(def.Args, p.parseFunctionArg())
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			def.Args = append(def.Args, p.parseFunctionArg())
		}
	}
	p.expectPeek(token.RPAREN)

	p.expectPeek(token.LBRACE)
	def.Body = p.parseBlock()
	def.R = p.rangeFrom(start)
	return def
}

func (p *Parser) parseFunctionArg() *ast.FunctionArg {
	start := p.curToken.Pos
	arg := arena.Make[ast.FunctionArg](p.a)
	arg.Type = p.parseTypeKeyword()
	if !p.curTokenIs(token.IDENT) {
		p.fatalf("expected parameter name, got %s", p.curToken.Type)
	}
	arg.Name = p.curToken.Literal
	arg.Dims = p.parseDims(true)
	arg.R = p.rangeFrom(start)
	return arg
}

// parseBlock parses a brace-delimited sequence of declarations and
// statements with cur positioned on the opening LBRACE.
func (p *Parser) parseBlock() *ast.Block {
	start := p.curToken.Pos
	block := arena.Make[ast.Block](p.a)
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		block.Elements = append(block.Elements, p.parseBlockElement())
	}
	p.expectPeek(token.RBRACE)
	block.R = p.rangeFrom(start)
	return block
}

func (p *Parser) parseBlockElement() ast.Node {
	switch p.curToken.Type {
	case token.CONST:
		return p.parseConstVariableDecl()
	case token.INT, token.FLOAT:
		typ := p.parseTypeKeyword()
		if !p.curTokenIs(token.IDENT) {
			p.fatalf("expected a name, got %s", p.curToken.Type)
		}
		return p.parseVariableDeclRest(typ, p.curToken.Literal)
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.BREAK:
		start := p.curToken.Pos
		p.expectPeek(token.SEMI)
		s := arena.Make[ast.BreakStmt](p.a)
		s.R = p.rangeFrom(start)
		return s
	case token.CONTINUE:
		start := p.curToken.Pos
		p.expectPeek(token.SEMI)
		s := arena.Make[ast.ContinueStmt](p.a)
		s.R = p.rangeFrom(start)
		return s
	case token.RETURN:
		return p.parseReturnStmt()
	case token.SEMI:
		s := arena.Make[ast.NullStmt](p.a)
		s.R = p.rangeFrom(p.curToken.Pos)
		return s
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.curToken.Pos
	s := arena.Make[ast.IfStmt](p.a)
	p.expectPeek(token.LPAREN)
	p.nextToken()
	s.Cond = p.parseExpr(LOWEST)
	p.expectPeek(token.RPAREN)
	p.nextToken()
	s.Then = p.parseStatement()
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		s.Else = p.parseStatement()
	}
	s.R = p.rangeFrom(start)
	return s
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.curToken.Pos
	s := arena.Make[ast.WhileStmt](p.a)
	p.expectPeek(token.LPAREN)
	p.nextToken()
	s.Cond = p.parseExpr(LOWEST)
	p.expectPeek(token.RPAREN)
	p.nextToken()
	s.Body = p.parseStatement()
	s.R = p.rangeFrom(start)
	return s
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.curToken.Pos
	s := arena.Make[ast.ReturnStmt](p.a)
	if p.peekTokenIs(token.SEMI) {
		p.nextToken()
		s.R = p.rangeFrom(start)
		return s
	}
	p.nextToken()
	s.Expr = p.parseExpr(LOWEST)
	p.expectPeek(token.SEMI)
	s.R = p.rangeFrom(start)
	return s
}

func (p *Parser) parseAssignOrExprStmt() ast.Stmt {
	start := p.curToken.Pos
	expr := p.parseExpr(LOWEST)

	if p.peekTokenIs(token.ASSIGN) {
		v, ok := expr.(*ast.VariableExpr)
		if !ok {
			p.fatalf("left-hand side of assignment must be a variable")
		}
		p.nextToken()
		p.nextToken()
		rhs := p.parseExpr(LOWEST)
		p.expectPeek(token.SEMI)

		s := arena.Make[ast.AssignStmt](p.a)
		lv := arena.Make[ast.LValue](p.a)
		lv.Name = v.Name
		lv.Indices = v.Indices
		lv.R = v.R
		s.LValue = lv
		s.RValue = rhs
		s.R = p.rangeFrom(start)
		return s
	}

	p.expectPeek(token.SEMI)
	s := arena.Make[ast.ExprStmt](p.a)
	s.Expr = expr
	s.R = p.rangeFrom(start)
	return s
}

func (p *Parser) parseExpr(precedence int) ast.Expr {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.fatalf("no expression can start with %s", p.curToken.Type)
	}
	left := prefix()

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentPrimary() ast.Expr {
	start := p.curToken.Pos
	name := p.curToken.Literal

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		call := arena.Make[ast.FunctionCallExpr](p.a)
		call.Name = name
		call.Args = p.parseCallArgs()
		call.R = p.rangeFrom(start)
		return call
	}

	v := arena.Make[ast.VariableExpr](p.a)
	v.Name = name
	for p.peekTokenIs(token.LBRACK) {
		p.nextToken()
		p.nextToken()
		v.Indices = append(v.Indices, p.parseExpr(LOWEST))
		p.expectPeek(token.RBRACK)
	}
	v.R = p.rangeFrom(start)
	return v
}

func (p *Parser) parseCallArgs() []ast.Expr {
	var args []ast.Expr
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpr(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpr(LOWEST))
	}
	p.expectPeek(token.RPAREN)
	return args
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	lit := arena.Make[ast.NumberExpr](p.a)
	lit.R = p.rangeFrom(p.curToken.Pos)
	text := p.curToken.Literal

	if p.curToken.Type == token.FLOAT_CONST {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.fatalf("invalid float literal %q", text)
		}
		lit.Type = types.Float
		lit.FloatVal = float32(v)
		return lit
	}

	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		p.fatalf("invalid integer literal %q", text)
	}
	lit.Type = types.Int
	lit.IntVal = int32(v)
	return lit
}

var unaryOps = map[token.Type]ast.UnaryOp{
	token.ADD: ast.UnaryPlus,
	token.SUB: ast.UnaryMinus,
	token.NOT: ast.UnaryNot,
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	start := p.curToken.Pos
	op := unaryOps[p.curToken.Type]
	p.nextToken()
	expr := arena.Make[ast.UnaryExpr](p.a)
	expr.Op = op
	expr.Expr = p.parseExpr(PREFIX)
	expr.R = p.rangeFrom(start)
	return expr
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	start := left.Range().Begin
	op := binaryOps[p.curToken.Type]
	precedence := p.curPrecedence()
	p.nextToken()
	expr := arena.Make[ast.BinaryExpr](p.a)
	expr.Op = op
	expr.LHS = left
	expr.RHS = p.parseExpr(precedence)
	expr.R = p.rangeFrom(start)
	return expr
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken()
	expr := p.parseExpr(LOWEST)
	p.expectPeek(token.RPAREN)
	return expr
}
