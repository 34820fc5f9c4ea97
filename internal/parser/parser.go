// Package parser is a recursive-descent parser producing an ast.Program
// directly from a token stream, grounded on the teacher's ast/parser.go
// current/lookahead-token shape (here a slice + index instead of the
// teacher's two-field lookahead, since this grammar needs a little more
// lookahead for distinguishing a cast from a parenthesized expression).
package parser

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
	"nanocc/internal/lexer"
)

type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses src into an ast.Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) curKind() lexer.Kind { return p.toks[p.pos].Kind }

func (p *Parser) peekAt(off int) lexer.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.curKind() != k {
		return lexer.Token{}, p.errf("expected %v, got %v", k, p.cur())
	}
	return p.advance(), nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return diag.New(diag.StageParse, diag.ParseError, format, args...)
}

func isTypeSpec(k lexer.Kind) bool {
	return k == lexer.KwInt || k == lexer.KwLong
}

func (p *Parser) parseType() ast.Type {
	switch p.curKind() {
	case lexer.KwLong:
		p.advance()
		return ast.LongType{}
	case lexer.KwInt:
		p.advance()
		return ast.IntType{}
	default:
		panic("parseType called on non-type-spec token")
	}
}

func parseStorageClass(p *Parser) ast.StorageClass {
	switch p.curKind() {
	case lexer.KwStatic:
		p.advance()
		return ast.Static
	case lexer.KwExtern:
		p.advance()
		return ast.Extern
	default:
		return ast.NoStorageClass
	}
}

// ---------------------------------------------------------------------------
// Program / top-level declarations

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.curKind() != lexer.EOF {
		decl, err := p.parseTopLevelDeclaration()
		if err != nil {
			return nil, err
		}
		prog.Declarations = append(prog.Declarations, decl)
	}
	return prog, nil
}

// parseTopLevelDeclaration parses [storage-class] type ident, then decides
// between a variable and a function declaration by whether '(' follows.
func (p *Parser) parseTopLevelDeclaration() (ast.Declaration, error) {
	storage := parseStorageClass(p)
	if !isTypeSpec(p.curKind()) {
		return nil, p.errf("expected a type specifier, got %v", p.cur())
	}
	typ := p.parseType()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if p.curKind() == lexer.LParen {
		return p.parseFunctionDeclaration(storage, typ, name.Text)
	}
	return p.parseVariableDeclarationTail(storage, typ, name.Text)
}

func (p *Parser) parseVariableDeclarationTail(storage ast.StorageClass, typ ast.Type, name string) (ast.Declaration, error) {
	decl := &ast.VariableDeclaration{Name: name, Type: typ, StorageClass: storage}
	if p.curKind() == lexer.Assign {
		p.advance()
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseFunctionDeclaration(storage ast.StorageClass, retType ast.Type, name string) (ast.Declaration, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var paramNames []string
	var paramTypes []ast.Type
	if p.curKind() == lexer.KwVoid && p.peekAt(1).Kind == lexer.RParen {
		p.advance()
	} else if p.curKind() != lexer.RParen {
		for {
			if !isTypeSpec(p.curKind()) {
				return nil, p.errf("expected a parameter type, got %v", p.cur())
			}
			pt := p.parseType()
			pn, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			paramTypes = append(paramTypes, pt)
			paramNames = append(paramNames, pn.Text)
			if p.curKind() == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	decl := &ast.FunctionDeclaration{
		Name:         name,
		ParamNames:   paramNames,
		Type:         ast.FunctionType{Params: paramTypes, Return: retType},
		StorageClass: storage,
	}
	switch p.curKind() {
	case lexer.Semicolon:
		p.advance()
		return decl, nil
	case lexer.LBrace:
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		decl.Body = body
		return decl, nil
	default:
		return nil, p.errf("expected ';' or function body, got %v", p.cur())
	}
}

// ---------------------------------------------------------------------------
// Blocks / block items / local declarations

func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	b := &ast.Block{}
	for p.curKind() != lexer.RBrace {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	p.advance() // '}'
	return b, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	storageAhead := p.curKind() == lexer.KwStatic || p.curKind() == lexer.KwExtern
	typeAhead := isTypeSpec(p.curKind())
	if storageAhead || typeAhead {
		decl, err := p.parseLocalDeclaration()
		if err != nil {
			return nil, err
		}
		return ast.DeclarationItem{Declaration: decl}, nil
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.StatementItem{Statement: stmt}, nil
}

// parseLocalDeclaration only ever produces a VariableDeclaration: nested
// function declarations aren't part of the grammar.
func (p *Parser) parseLocalDeclaration() (*ast.VariableDeclaration, error) {
	storage := parseStorageClass(p)
	if !isTypeSpec(p.curKind()) {
		return nil, p.errf("expected a type specifier, got %v", p.cur())
	}
	typ := p.parseType()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	decl, err := p.parseVariableDeclarationTail(storage, typ, name.Text)
	if err != nil {
		return nil, err
	}
	return decl.(*ast.VariableDeclaration), nil
}

// ---------------------------------------------------------------------------
// Statements

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curKind() {
	case lexer.KwReturn:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Expr: e}, nil
	case lexer.Semicolon:
		p.advance()
		return &ast.NullStmt{}, nil
	case lexer.LBrace:
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundStmt{Block: b}, nil
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwDo:
		return p.parseDoWhile()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwBreak:
		p.advance()
		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{}, nil
	case lexer.KwContinue:
		p.advance()
		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{}, nil
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: e}, nil
	}
}

func (p *Parser) parseIf() (ast.Statement, error) {
	p.advance()
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	if p.curKind() == lexer.KwElse {
		p.advance()
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseStmt
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	p.advance()
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (ast.Statement, error) {
	p.advance()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	p.advance()
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	init, err := p.parseForInit()
	if err != nil {
		return nil, err
	}
	var cond ast.Expression
	if p.curKind() != lexer.Semicolon {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	var post ast.Expression
	if p.curKind() != lexer.RParen {
		post, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body}, nil
}

func (p *Parser) parseForInit() (ast.ForInit, error) {
	if isTypeSpec(p.curKind()) || p.curKind() == lexer.KwStatic || p.curKind() == lexer.KwExtern {
		decl, err := p.parseLocalDeclaration()
		if err != nil {
			return nil, err
		}
		return ast.ForInitDecl{Decl: decl}, nil
	}
	if p.curKind() == lexer.Semicolon {
		p.advance()
		return ast.ForInitExpr{}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return ast.ForInitExpr{Expr: e}, nil
}

// ---------------------------------------------------------------------------
// Expressions: precedence-climbing, lowest to highest:
//   assignment (right-assoc) > conditional (right-assoc) > ||  > && > |
//   > ^ > & > ==/!= > relational > shift > additive > multiplicative > unary
//   > cast > primary

func (p *Parser) parseExpr() (ast.Expression, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expression, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if p.curKind() == lexer.Assign {
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpr{Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseConditional() (ast.Expression, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.curKind() == lexer.Question {
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		els, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalExpr{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

// precedence table, lowest binds loosest.
var precedence = map[lexer.Kind]int{
	lexer.LogOr:  1,
	lexer.LogAnd: 2,
	lexer.Pipe:   3,
	lexer.Caret:  4,
	lexer.Amp:    5,
	lexer.Eq:     6,
	lexer.Ne:     6,
	lexer.Lt:     7,
	lexer.Le:     7,
	lexer.Gt:     7,
	lexer.Ge:     7,
	lexer.Shl:    8,
	lexer.Shr:    8,
	lexer.Plus:   9,
	lexer.Minus:  9,
	lexer.Star:   10,
	lexer.Slash:  10,
	lexer.Percent: 10,
}

var binOpFor = map[lexer.Kind]ast.BinaryOp{
	lexer.LogOr: ast.LogicalOr, lexer.LogAnd: ast.LogicalAnd,
	lexer.Pipe: ast.BitOr, lexer.Caret: ast.BitXor, lexer.Amp: ast.BitAnd,
	lexer.Eq: ast.Equal, lexer.Ne: ast.NotEqual,
	lexer.Lt: ast.LessThan, lexer.Le: ast.LessOrEqual,
	lexer.Gt: ast.GreaterThan, lexer.Ge: ast.GreaterOrEqual,
	lexer.Shl: ast.ShiftLeft, lexer.Shr: ast.ShiftRight,
	lexer.Plus: ast.Add, lexer.Minus: ast.Sub,
	lexer.Star: ast.Mul, lexer.Slash: ast.Div, lexer.Percent: ast.Rem,
}

func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedence[p.curKind()]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := binOpFor[p.curKind()]
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.curKind() {
	case lexer.Minus:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Negate, Expr: e}, nil
	case lexer.Tilde:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Complement, Expr: e}, nil
	case lexer.Bang:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Not, Expr: e}, nil
	case lexer.LParen:
		if isTypeSpec(p.peekAt(1).Kind) && p.peekAt(2).Kind == lexer.RParen {
			p.advance() // '('
			target := p.parseType()
			p.advance() // ')'
			e, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.CastExpr{Target: target, Expr: e}, nil
		}
		return p.parsePrimary()
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.curKind() {
	case lexer.IntLiteral:
		t := p.advance()
		return &ast.ConstantExpr{Value: ast.ConstInt(int32(t.Value))}, nil
	case lexer.LongLiteral:
		t := p.advance()
		return &ast.ConstantExpr{Value: ast.ConstLong(t.Value)}, nil
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.Ident:
		name := p.advance().Text
		if p.curKind() == lexer.LParen {
			return p.parseCallArgs(name)
		}
		return &ast.VarExpr{Name: name}, nil
	default:
		return nil, p.errf("expected an expression, got %v", p.cur())
	}
}

func (p *Parser) parseCallArgs(name string) (ast.Expression, error) {
	p.advance() // '('
	call := &ast.FunctionCallExpr{Name: name}
	if p.curKind() != lexer.RParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.curKind() == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return call, nil
}
