package lexer

import (
	"fmt"

	"github.com/kievzenit/c2ir/internal/compiler_errors"
)

type LexerError struct {
	Message string

	FileName string
	Line     int
	Column   int
}

func (l *Lexer) newUnexpectedError(unexpected byte) *LexerError {
	return l.newError(fmt.Sprintf("unexpected character: '%s'", string(unexpected)))
}

func (l *Lexer) newExpectedError(expected byte) *LexerError {
	return l.newError(fmt.Sprintf("expected '%s'", string(expected)))
}

func (l *Lexer) newError(message string) *LexerError {
	return &LexerError{
		Message:  message,
		FileName: l.fileName,
		Line:     l.line,
		Column:   l.column(),
	}
}

func (e *LexerError) GetMessage() string {
	return e.Message
}

func (e *LexerError) GetFileName() string {
	return e.FileName
}

func (e *LexerError) GetLine() int {
	return e.Line
}

func (e *LexerError) GetColumn() int {
	return e.Column
}

type Lexer struct {
	fileName string

	buf []byte
	pos int

	line      int
	lineStart int

	eh compiler_errors.ErrorHandler
}

func NewLexer(fileName string, buf []byte, eh compiler_errors.ErrorHandler) *Lexer {
	return &Lexer{
		fileName: fileName,

		buf: buf,
		pos: 0,

		line:      1,
		lineStart: 0,

		eh: eh,
	}
}

func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0)

	for l.hasChars() {
		start := l.pos
		metadata := Metadata{
			Line:   l.line,
			Column: l.column(),
		}

		var token Token
		switch {
		case l.isCurrSkippable():
			if l.isCurrNewline() {
				l.newline()
			}
			l.advance()
			continue

		case l.read() == '#':
			token = l.processDirective()

		case l.isCurrDigit():
			token = l.processNumber()

		case l.isCurrIdentifier():
			token = l.processIdentifier()

		case l.read() == '\'':
			token = l.processCharLiteral()

		case l.read() == '"':
			token = l.processStringLiteral()

		case l.isCurrPunctuation():
			token = l.processPunctuation()

		default:
			l.eh.AddError(l.newUnexpectedError(l.read()))
			l.eh.FailNow()
			return tokens
		}

		if token.Kind != COMMENT && token.Kind != DIRECTIVE {
			metadata.Length = l.pos - start + 1
			token.Metadata = metadata
			tokens = append(tokens, token)
		}

		l.advance()
	}

	tokens = append(tokens, Token{
		Kind:  EOF,
		Value: EOF.String(),
		Metadata: Metadata{
			Line:   l.line,
			Column: l.column(),
		},
	})

	return tokens
}

func (l *Lexer) isCurrIdentifier() bool {
	return (l.read() >= 'a' && l.read() <= 'z') || (l.read() >= 'A' && l.read() <= 'Z') || l.read() == '_'
}

func (l *Lexer) isCurrDigit() bool {
	return l.read() >= '0' && l.read() <= '9'
}

func (l *Lexer) isCurrPunctuation() bool {
	switch l.read() {
	case '+', '-', '*', '/', '=', '(', ')', '[', ']', '{', '}', ';', '.', ',':
		return true
	}
	return false
}

func (l *Lexer) isCurrNewline() bool {
	return l.read() == '\n'
}

func (l *Lexer) isCurrSkippable() bool {
	switch l.read() {
	case ' ', '\t', '\n', '\r':
		return true
	}

	return false
}

func (l *Lexer) processIdentifier() Token {
	identifierBuf := make([]byte, 0)
	identifierBuf = append(identifierBuf, l.read())
	l.advance()

	for l.hasChars() {
		if !l.isCurrIdentifier() && !l.isCurrDigit() {
			break
		}

		identifierBuf = append(identifierBuf, l.read())
		l.advance()
	}
	l.unread()
	identifier := string(identifierBuf)

	switch identifier {
	case "extern":
		return Token{
			Kind:  EXTERN,
			Value: identifier,
		}
	case "const":
		return Token{
			Kind:  CONST,
			Value: identifier,
		}
	case "return":
		return Token{
			Kind:  RETURN,
			Value: identifier,
		}
	}

	return Token{
		Kind:  IDENT,
		Value: identifier,
	}
}

func (l *Lexer) processNumber() Token {
	numberBuf := make([]byte, 0)
	numberBuf = append(numberBuf, l.read())
	l.advance()

	var isFloat bool
	for l.hasChars() {
		if !isFloat && l.read() == '.' {
			isFloat = true
			numberBuf = append(numberBuf, l.read())
			l.advance()
			continue
		}

		if !l.isCurrDigit() {
			break
		}

		numberBuf = append(numberBuf, l.read())
		l.advance()
	}
	l.unread()

	if isFloat {
		return Token{
			Kind:  FLOAT,
			Value: string(numberBuf),
		}
	}

	return Token{
		Kind:  INT,
		Value: string(numberBuf),
	}
}

func (l *Lexer) processEscape() byte {
	l.advance()
	if !l.hasChars() {
		l.eh.AddError(l.newError("unterminated escape sequence"))
		l.eh.FailNow()
		return 0
	}

	switch l.read() {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '\'', '"':
		return l.read()
	}

	l.eh.AddError(l.newError(fmt.Sprintf("unknown escape sequence: '\\%s'", string(l.read()))))
	l.eh.FailNow()
	return 0
}

func (l *Lexer) processStringLiteral() Token {
	l.advance()

	stringBuf := make([]byte, 0)
	var foundClosingQuote bool
	for l.hasChars() {
		if l.read() == '"' {
			foundClosingQuote = true
			break
		}

		if l.read() == '\n' {
			break
		}

		if l.read() == '\\' {
			stringBuf = append(stringBuf, l.processEscape())
			l.advance()
			continue
		}

		stringBuf = append(stringBuf, l.read())
		l.advance()
	}

	if !foundClosingQuote {
		l.eh.AddError(l.newExpectedError('"'))
		l.eh.FailNow()
	}

	return Token{
		Kind:  STRING,
		Value: string(stringBuf),
	}
}

func (l *Lexer) processCharLiteral() Token {
	var char byte

	l.advance()
	if !l.hasChars() || l.read() == '\n' {
		l.eh.AddError(l.newExpectedError('\''))
		l.eh.FailNow()
		return Token{Kind: CHAR}
	}

	char = l.read()
	if char == '\\' {
		char = l.processEscape()
	}

	l.advance()
	if !l.hasChars() || l.read() != '\'' {
		l.eh.AddError(l.newExpectedError('\''))
		l.eh.FailNow()
	}

	return Token{
		Kind:  CHAR,
		Value: string(char),
	}
}

// processDirective skips a preprocessor line such as `#include <stdio.h>`.
func (l *Lexer) processDirective() Token {
	content := make([]byte, 0)

	for l.hasChars() && l.read() != '\n' {
		content = append(content, l.read())
		l.advance()
	}
	l.unread()

	return Token{
		Kind:  DIRECTIVE,
		Value: string(content),
	}
}

func (l *Lexer) processOneLineComment() Token {
	content := make([]byte, 0)

	l.advance()
	for l.hasChars() && l.read() != '\n' {
		content = append(content, l.read())
		l.advance()
	}
	l.unread()

	return Token{
		Kind:  COMMENT,
		Value: string(content),
	}
}

func (l *Lexer) processMultiLineComment() Token {
	content := make([]byte, 0)

	l.advance()
	for {
		if !l.hasChars() {
			l.eh.AddError(l.newExpectedError('/'))
			l.eh.FailNow()
			l.unread()
			break
		}

		if l.read() == '*' && l.pos+1 < len(l.buf) && l.next() == '/' {
			l.advance()
			break
		}

		if l.isCurrNewline() {
			l.newline()
		}

		content = append(content, l.read())
		l.advance()
	}

	return Token{
		Kind:  COMMENT,
		Value: string(content),
	}
}

func (l *Lexer) processSlash() Token {
	l.advance()
	if !l.hasChars() {
		l.unread()
		return Token{
			Kind:  SLASH,
			Value: "/",
		}
	}

	if l.read() == '/' {
		return l.processOneLineComment()
	}

	if l.read() == '*' {
		return l.processMultiLineComment()
	}

	l.unread()
	return Token{
		Kind:  SLASH,
		Value: "/",
	}
}

func (l *Lexer) processPunctuation() Token {
	switch l.read() {
	case '+':
		return Token{
			Kind:  PLUS,
			Value: "+",
		}
	case '-':
		return Token{
			Kind:  MINUS,
			Value: "-",
		}
	case '*':
		return Token{
			Kind:  ASTERISK,
			Value: "*",
		}
	case '/':
		return l.processSlash()
	case '=':
		return Token{
			Kind:  ASSIGN,
			Value: "=",
		}
	case '(':
		return Token{
			Kind:  LPAREN,
			Value: "(",
		}
	case '[':
		return Token{
			Kind:  LBRACKET,
			Value: "[",
		}
	case '{':
		return Token{
			Kind:  LBRACE,
			Value: "{",
		}
	case ')':
		return Token{
			Kind:  RPAREN,
			Value: ")",
		}
	case ']':
		return Token{
			Kind:  RBRACKET,
			Value: "]",
		}
	case '}':
		return Token{
			Kind:  RBRACE,
			Value: "}",
		}
	case ';':
		return Token{
			Kind:  SEMICOLON,
			Value: ";",
		}
	case '.':
		return l.processDot()
	case ',':
		return Token{
			Kind:  COMMA,
			Value: ",",
		}
	}

	panic("unreachable")
}

func (l *Lexer) processDot() Token {
	if l.pos+2 < len(l.buf) && l.buf[l.pos+1] == '.' && l.buf[l.pos+2] == '.' {
		l.advance()
		l.advance()
		return Token{
			Kind:  ELLIPSIS,
			Value: "...",
		}
	}

	l.eh.AddError(l.newUnexpectedError('.'))
	l.eh.FailNow()
	return Token{Kind: COMMENT}
}

func (l *Lexer) newline() {
	l.line++
	l.lineStart = l.pos + 1
}

func (l *Lexer) column() int {
	return l.pos - l.lineStart + 1
}

func (l *Lexer) hasChars() bool {
	return l.pos < len(l.buf)
}

func (l *Lexer) advance()   { l.pos++ }
func (l *Lexer) next() byte { return l.buf[l.pos+1] }
func (l *Lexer) read() byte { return l.buf[l.pos] }
func (l *Lexer) unread()    { l.pos-- }
