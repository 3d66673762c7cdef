package parser

import (
	"fmt"
	"strconv"

	"slices"

	"github.com/kievzenit/c2ir/internal/ast"
	"github.com/kievzenit/c2ir/internal/compiler_errors"
	"github.com/kievzenit/c2ir/internal/lexer"
)

type UnexpectedExpectedError struct {
	Unexpected lexer.TokenKind
	Expected   lexer.TokenKind

	FileName string
	Line     int
	Column   int
	Length   int
}

func (e *UnexpectedExpectedError) GetMessage() string {
	return fmt.Sprintf("unexpected token: '%s', expected: '%s'", e.Unexpected.String(), e.Expected.String())
}

func (e *UnexpectedExpectedError) GetFileName() string {
	return e.FileName
}

func (e *UnexpectedExpectedError) GetLine() int {
	return e.Line
}

func (e *UnexpectedExpectedError) GetColumn() int {
	return e.Column
}

func (e *UnexpectedExpectedError) GetLength() int {
	return e.Length
}

type UnexpectedExpectedManyError struct {
	Unexpected lexer.TokenKind
	Expected   []lexer.TokenKind

	FileName string
	Line     int
	Column   int
	Length   int
}

func (e *UnexpectedExpectedManyError) GetMessage() string {
	expectedKinds := make([]string, len(e.Expected))
	for i, kind := range e.Expected {
		expectedKinds[i] = kind.String()
	}
	return fmt.Sprintf("unexpected token: '%s', expected one of: '%s'", e.Unexpected.String(), expectedKinds)
}

func (e *UnexpectedExpectedManyError) GetFileName() string {
	return e.FileName
}

func (e *UnexpectedExpectedManyError) GetLine() int {
	return e.Line
}

func (e *UnexpectedExpectedManyError) GetColumn() int {
	return e.Column
}

func (e *UnexpectedExpectedManyError) GetLength() int {
	return e.Length
}

type UnexpectedError struct {
	Unexpected lexer.TokenKind

	FileName string
	Line     int
	Column   int
	Length   int
}

func (e *UnexpectedError) GetMessage() string {
	return fmt.Sprintf("unexpected token: '%s'", e.Unexpected.String())
}

func (e *UnexpectedError) GetFileName() string {
	return e.FileName
}

func (e *UnexpectedError) GetLine() int {
	return e.Line
}

func (e *UnexpectedError) GetColumn() int {
	return e.Column
}

func (e *UnexpectedError) GetLength() int {
	return e.Length
}

type InvalidLiteralError struct {
	Literal string
	Reason  error

	FileName string
	Line     int
	Column   int
}

func (e *InvalidLiteralError) GetMessage() string {
	return fmt.Sprintf("invalid literal '%s': %v", e.Literal, e.Reason)
}

func (e *InvalidLiteralError) GetFileName() string {
	return e.FileName
}

func (e *InvalidLiteralError) GetLine() int {
	return e.Line
}

func (e *InvalidLiteralError) GetColumn() int {
	return e.Column
}

type Parser struct {
	fileName string

	scanner lexer.TokenScanner
	eh      compiler_errors.ErrorHandler

	tree *ast.Tree
	curr *lexer.Token
}

var bindingPowerLookup map[lexer.TokenKind]int = map[lexer.TokenKind]int{
	lexer.PLUS:     30,
	lexer.MINUS:    30,
	lexer.ASTERISK: 40,
	lexer.SLASH:    40,
}

var binaryOperators map[lexer.TokenKind]ast.Operator = map[lexer.TokenKind]ast.Operator{
	lexer.PLUS:     ast.Add,
	lexer.MINUS:    ast.Subtract,
	lexer.ASTERISK: ast.Multiply,
	lexer.SLASH:    ast.Divide,
}

// typeNames disambiguates `int *p;` from the expression `a * b;`. A statement
// of the form `name name ...` is always a declaration, whether or not the
// first name is a known type.
var typeNames = []string{"void", "char", "int", "double", "long", "short", "float"}

func NewParser(fileName string, scanner lexer.TokenScanner, eh compiler_errors.ErrorHandler) *Parser {
	return &Parser{
		fileName: fileName,
		scanner:  scanner,
		eh:       eh,
		tree:     ast.NewTree(),
		curr:     scanner.Read(),
	}
}

// Parse reads the whole translation unit and returns the arena together with
// the root block holding the top-level statements in source order.
func (p *Parser) Parse() (*ast.Tree, ast.NodeID) {
	pos := p.pos()

	stmts := make([]ast.NodeID, 0)
	for p.scanner.HasTokens() {
		stmts = append(stmts, p.parseTopStmt())
	}

	root := p.tree.Add(&ast.Block{
		Pos: pos,

		Stmts: stmts,
	})
	return p.tree, root
}

func (p *Parser) parseTopStmt() ast.NodeID {
	if p.curr.Kind == lexer.EXTERN {
		return p.parseExternDeclStmt()
	}

	if p.isDeclStart() {
		return p.parseDeclStmt(true)
	}

	return p.parseStmt()
}

func (p *Parser) parseExternDeclStmt() ast.NodeID {
	p.expect(lexer.EXTERN)
	pos := p.pos()
	p.read()

	returnType := p.parseTypeRef()

	p.expect(lexer.IDENT)
	name := p.curr.Value
	p.read()

	params, variadic := p.parseParams()

	p.expect(lexer.SEMICOLON)
	p.read()

	return p.tree.Add(&ast.ExternDeclaration{
		Pos: pos,

		ReturnType: returnType,
		Name:       name,
		Params:     params,
		Variadic:   variadic,
	})
}

// parseDeclStmt parses `type name ...` and dispatches on what follows the
// name: a parameter list makes it a function, anything else a variable.
func (p *Parser) parseDeclStmt(allowFunctions bool) ast.NodeID {
	pos := p.pos()
	typ := p.parseTypeRef()

	p.expect(lexer.IDENT)
	name := p.curr.Value
	p.read()

	if p.curr.Kind == lexer.LPAREN {
		if !allowFunctions {
			p.unexpected(p.curr.Kind)
		}
		return p.parseFuncDeclStmt(pos, typ, name)
	}

	return p.parseVarDeclStmt(pos, typ, name)
}

func (p *Parser) parseFuncDeclStmt(pos ast.Pos, returnType ast.TypeRef, name string) ast.NodeID {
	params, variadic := p.parseParams()

	body := ast.NoNode
	if p.curr.Kind == lexer.SEMICOLON {
		p.read()
	} else {
		body = p.parseBlock()
	}

	return p.tree.Add(&ast.FunctionDeclaration{
		Pos: pos,

		ReturnType: returnType,
		Name:       name,
		Params:     params,
		Variadic:   variadic,
		Body:       body,
	})
}

func (p *Parser) parseParams() ([]ast.Param, bool) {
	p.expect(lexer.LPAREN)
	p.read()

	params := make([]ast.Param, 0)
	if p.curr.Kind == lexer.IDENT && p.curr.Value == "void" {
		p.read()
		if p.curr.Kind == lexer.RPAREN {
			p.read()
			return params, false
		}
		p.unread()
	}

	var variadic bool
	for p.scanner.HasTokens() && p.curr.Kind != lexer.RPAREN {
		if p.curr.Kind == lexer.ELLIPSIS {
			// `...` needs at least one named parameter before it.
			if len(params) == 0 {
				p.unexpected(p.curr.Kind)
			}
			variadic = true
			p.read()
			break
		}

		param := ast.Param{Type: p.parseTypeRef()}
		if p.curr.Kind == lexer.IDENT {
			param.Name = p.curr.Value
			p.read()
		}

		// `char s[]` as a parameter is a pointer.
		if p.curr.Kind == lexer.LBRACKET {
			p.read()
			if p.curr.Kind == lexer.INT {
				p.read()
			}
			p.expect(lexer.RBRACKET)
			p.read()
			param.Type.IsPointer = true
		}

		params = append(params, param)

		p.expectAny(lexer.COMMA, lexer.RPAREN)
		if p.curr.Kind == lexer.RPAREN {
			break
		}
		p.read()
	}

	p.expect(lexer.RPAREN)
	p.read()

	return params, variadic
}

func (p *Parser) parseVarDeclStmt(pos ast.Pos, typ ast.TypeRef, name string) ast.NodeID {
	if p.curr.Kind == lexer.LBRACKET {
		p.read()
		typ.ArrayLen = ast.InferArrayLen
		if p.curr.Kind == lexer.INT {
			typ.ArrayLen = int(p.parseIntValue(false))
			if typ.ArrayLen <= 0 {
				p.eh.AddError(&InvalidLiteralError{
					Literal: p.curr.Value,
					Reason:  fmt.Errorf("array length must be positive"),

					FileName: p.fileName,
					Line:     p.curr.Metadata.Line,
					Column:   p.curr.Metadata.Column,
				})
				p.eh.FailNow()
			}
			p.read()
		}
		p.expect(lexer.RBRACKET)
		p.read()
	}

	init := ast.NoNode
	if p.curr.Kind == lexer.ASSIGN {
		p.read()
		init = p.parseExpr()
	}

	p.expect(lexer.SEMICOLON)
	p.read()

	return p.tree.Add(&ast.VariableDeclaration{
		Pos: pos,

		Type: typ,
		Name: name,
		Init: init,
	})
}

func (p *Parser) parseTypeRef() ast.TypeRef {
	if p.curr.Kind == lexer.CONST {
		p.read()
	}

	p.expect(lexer.IDENT)
	typ := ast.TypeRef{Name: p.curr.Value}
	p.read()

	if p.curr.Kind == lexer.CONST {
		p.read()
	}

	if p.curr.Kind == lexer.ASTERISK {
		typ.IsPointer = true
		p.read()
	}

	return typ
}

func (p *Parser) parseStmt() ast.NodeID {
	switch {
	case p.curr.Kind == lexer.RETURN:
		return p.parseReturnStmt()
	case p.isDeclStart():
		return p.parseDeclStmt(false)
	}

	return p.parseExprStmt()
}

func (p *Parser) parseBlock() ast.NodeID {
	p.expect(lexer.LBRACE)
	pos := p.pos()
	p.read()

	stmts := make([]ast.NodeID, 0)
	for p.scanner.HasTokens() && p.curr.Kind != lexer.RBRACE {
		stmts = append(stmts, p.parseStmt())
	}

	p.expect(lexer.RBRACE)
	p.read()

	return p.tree.Add(&ast.Block{
		Pos: pos,

		Stmts: stmts,
	})
}

func (p *Parser) parseReturnStmt() ast.NodeID {
	p.expect(lexer.RETURN)
	pos := p.pos()
	p.read()

	if p.curr.Kind == lexer.SEMICOLON {
		p.read()
		return p.tree.Add(&ast.ReturnStatement{
			Pos: pos,

			Expr: ast.NoNode,
		})
	}

	expr := p.parseExpr()
	p.expect(lexer.SEMICOLON)
	p.read()

	return p.tree.Add(&ast.ReturnStatement{
		Pos: pos,

		Expr: expr,
	})
}

func (p *Parser) parseExprStmt() ast.NodeID {
	pos := p.pos()
	expr := p.parseExpr()

	p.expect(lexer.SEMICOLON)
	p.read()

	return p.tree.Add(&ast.ExpressionStatement{
		Pos: pos,

		Expr: expr,
	})
}

func (p *Parser) parseExpr() ast.NodeID {
	if p.curr.Kind == lexer.IDENT && p.peek() == lexer.ASSIGN {
		return p.parseAssignExpr()
	}

	left := p.parseUnaryExpr()
	return p.parseBinaryExpr(left, 0)
}

func (p *Parser) parseAssignExpr() ast.NodeID {
	target := p.parseIdentExpr()
	pos := p.tree.Node(target).Position()

	p.expect(lexer.ASSIGN)
	p.read()

	value := p.parseExpr()

	return p.tree.Add(&ast.Assignment{
		Pos: pos,

		Target: target,
		Value:  value,
	})
}

func (p *Parser) parseBinaryExpr(left ast.NodeID, bindingPower int) ast.NodeID {
	for {
		op := p.curr
		currentBindingPower, ok := bindingPowerLookup[op.Kind]
		if !ok || currentBindingPower < bindingPower {
			return left
		}
		p.read()

		right := p.parseUnaryExpr()

		nextBindingPower, ok := bindingPowerLookup[p.curr.Kind]
		if ok && currentBindingPower < nextBindingPower {
			right = p.parseBinaryExpr(right, currentBindingPower+10)
		}

		left = p.tree.Add(&ast.BinaryOp{
			Pos: p.tree.Node(left).Position(),

			Op:    binaryOperators[op.Kind],
			Left:  left,
			Right: right,
		})
	}
}

// parseUnaryExpr folds a leading minus into numeric literals and lowers any
// other negation to `0 - operand`.
func (p *Parser) parseUnaryExpr() ast.NodeID {
	switch p.curr.Kind {
	case lexer.PLUS:
		p.read()
		return p.parseUnaryExpr()
	case lexer.MINUS:
		pos := p.pos()
		p.read()

		switch p.curr.Kind {
		case lexer.INT:
			return p.parseIntegerExpr(pos, true)
		case lexer.FLOAT:
			return p.parseFloatExpr(pos, true)
		}

		zero := p.tree.Add(&ast.IntegerLiteral{Pos: pos})
		operand := p.parseUnaryExpr()
		return p.tree.Add(&ast.BinaryOp{
			Pos: pos,

			Op:    ast.Subtract,
			Left:  zero,
			Right: operand,
		})
	}

	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() ast.NodeID {
	switch p.curr.Kind {
	case lexer.LPAREN:
		return p.parseParenExpr()
	case lexer.IDENT:
		if p.peek() == lexer.LPAREN {
			return p.parseCallExpr()
		}
		return p.parseIdentExpr()
	}

	return p.parseLiteralExpr()
}

func (p *Parser) parseParenExpr() ast.NodeID {
	p.expect(lexer.LPAREN)
	p.read()

	expr := p.parseExpr()

	p.expect(lexer.RPAREN)
	p.read()

	return expr
}

func (p *Parser) parseCallExpr() ast.NodeID {
	p.expect(lexer.IDENT)
	pos := p.pos()
	name := p.curr.Value
	p.read()

	p.expect(lexer.LPAREN)
	p.read()

	args := make([]ast.NodeID, 0)
	for p.scanner.HasTokens() && p.curr.Kind != lexer.RPAREN {
		args = append(args, p.parseExpr())
		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}

	p.expect(lexer.RPAREN)
	p.read()

	return p.tree.Add(&ast.Call{
		Pos: pos,

		Callee: name,
		Args:   args,
	})
}

func (p *Parser) parseIdentExpr() ast.NodeID {
	p.expect(lexer.IDENT)

	pos := p.pos()
	ident := p.curr.Value
	p.read()

	return p.tree.Add(&ast.Identifier{
		Pos: pos,

		Name: ident,
	})
}

func (p *Parser) parseLiteralExpr() ast.NodeID {
	switch p.curr.Kind {
	case lexer.INT:
		return p.parseIntegerExpr(p.pos(), false)
	case lexer.FLOAT:
		return p.parseFloatExpr(p.pos(), false)
	case lexer.CHAR:
		return p.parseCharExpr()
	case lexer.STRING:
		return p.parseStringExpr()
	}

	p.unexpected(p.curr.Kind)
	return ast.NoNode
}

func (p *Parser) parseIntegerExpr(pos ast.Pos, negative bool) ast.NodeID {
	p.expect(lexer.INT)
	value := p.parseIntValue(negative)
	p.read()

	return p.tree.Add(&ast.IntegerLiteral{
		Pos: pos,

		Value: value,
	})
}

func (p *Parser) parseIntValue(negative bool) int64 {
	literal := p.curr.Value
	if negative {
		literal = "-" + literal
	}

	value, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		p.invalidLiteral(literal, err)
	}
	return value
}

func (p *Parser) parseFloatExpr(pos ast.Pos, negative bool) ast.NodeID {
	p.expect(lexer.FLOAT)

	literal := p.curr.Value
	if negative {
		literal = "-" + literal
	}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		p.invalidLiteral(literal, err)
	}
	p.read()

	return p.tree.Add(&ast.FloatLiteral{
		Pos: pos,

		Value: value,
	})
}

// parseCharExpr yields the character code as an integer, as in C.
func (p *Parser) parseCharExpr() ast.NodeID {
	p.expect(lexer.CHAR)
	pos := p.pos()

	value := p.curr.Value[0]
	p.read()

	return p.tree.Add(&ast.IntegerLiteral{
		Pos: pos,

		Value: int64(value),
	})
}

// parseStringExpr concatenates adjacent string literals.
func (p *Parser) parseStringExpr() ast.NodeID {
	p.expect(lexer.STRING)
	pos := p.pos()

	text := p.curr.Value
	p.read()
	for p.curr.Kind == lexer.STRING {
		text += p.curr.Value
		p.read()
	}

	return p.tree.Add(&ast.StringLiteral{
		Pos: pos,

		Text: text,
	})
}

func (p *Parser) isDeclStart() bool {
	switch p.curr.Kind {
	case lexer.CONST:
		return true
	case lexer.IDENT:
		switch p.peek() {
		case lexer.IDENT:
			return true
		case lexer.ASTERISK:
			return slices.Contains(typeNames, p.curr.Value)
		}
	}
	return false
}

func (p *Parser) peek() lexer.TokenKind {
	p.read()
	kind := p.curr.Kind
	p.unread()
	return kind
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{
		Line:   p.curr.Metadata.Line,
		Column: p.curr.Metadata.Column,
	}
}

func (p *Parser) read() *lexer.Token {
	p.curr = p.scanner.Read()
	return p.curr
}

func (p *Parser) unread() *lexer.Token {
	p.curr = p.scanner.Unread()
	return p.curr
}

func (p *Parser) expect(kind lexer.TokenKind) {
	if p.curr.Kind != kind {
		p.eh.AddError(&UnexpectedExpectedError{
			Unexpected: p.curr.Kind,
			Expected:   kind,

			FileName: p.fileName,
			Line:     p.curr.Metadata.Line,
			Column:   p.curr.Metadata.Column,
			Length:   p.curr.Metadata.Length,
		})
		p.eh.FailNow()
	}
}

func (p *Parser) expectAny(kinds ...lexer.TokenKind) {
	found := p.isCurrAny(kinds...)
	if found {
		return
	}

	p.eh.AddError(&UnexpectedExpectedManyError{
		Unexpected: p.curr.Kind,
		Expected:   kinds,

		FileName: p.fileName,
		Line:     p.curr.Metadata.Line,
		Column:   p.curr.Metadata.Column,
		Length:   p.curr.Metadata.Length,
	})
	p.eh.FailNow()
}

func (p *Parser) isCurrAny(kinds ...lexer.TokenKind) bool {
	return slices.Contains(kinds, p.curr.Kind)
}

func (p *Parser) unexpected(kind lexer.TokenKind) {
	p.eh.AddError(&UnexpectedError{
		Unexpected: kind,

		FileName: p.fileName,
		Line:     p.curr.Metadata.Line,
		Column:   p.curr.Metadata.Column,
		Length:   p.curr.Metadata.Length,
	})
	p.eh.FailNow()
}

func (p *Parser) invalidLiteral(literal string, reason error) {
	p.eh.AddError(&InvalidLiteralError{
		Literal: literal,
		Reason:  reason,

		FileName: p.fileName,
		Line:     p.curr.Metadata.Line,
		Column:   p.curr.Metadata.Column,
	})
	p.eh.FailNow()
}
