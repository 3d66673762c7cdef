package lexer

import (
	"fmt"
)

type TokenKind int

const (
	EOF TokenKind = iota

	INT
	FLOAT
	CHAR
	STRING

	IDENT

	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /

	ASSIGN // =

	LPAREN   // (
	LBRACKET // [
	LBRACE   // {

	RPAREN   // )
	RBRACKET // ]
	RBRACE   // }

	SEMICOLON // ;
	COMMA     // ,
	ELLIPSIS  // ...

	EXTERN
	CONST
	RETURN

	// produced while scanning and dropped before Tokenize returns
	COMMENT
	DIRECTIVE
)

func (tk TokenKind) String() string {
	switch tk {
	case EOF:
		return "EOF"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case CHAR:
		return "CHAR"
	case STRING:
		return "STRING"
	case IDENT:
		return "IDENT"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case ASSIGN:
		return "ASSIGN"
	case LPAREN:
		return "LPAREN"
	case LBRACKET:
		return "LBRACKET"
	case LBRACE:
		return "LBRACE"
	case RPAREN:
		return "RPAREN"
	case RBRACKET:
		return "RBRACKET"
	case RBRACE:
		return "RBRACE"
	case SEMICOLON:
		return "SEMICOLON"
	case COMMA:
		return "COMMA"
	case ELLIPSIS:
		return "ELLIPSIS"
	case EXTERN:
		return "EXTERN"
	case CONST:
		return "CONST"
	case RETURN:
		return "RETURN"
	case COMMENT:
		return "COMMENT"
	case DIRECTIVE:
		return "DIRECTIVE"
	default:
		panic(fmt.Sprintf("TokenKind.String(): received illegal token kind: %d", tk))
	}
}

type Metadata struct {
	Line   int
	Column int
	Length int
}

type Token struct {
	Kind  TokenKind
	Value string

	Metadata Metadata
}

func (t *Token) hasActualValue() bool {
	switch t.Kind {
	case INT, FLOAT, CHAR, STRING, IDENT:
		return true
	}

	return false
}

func (t *Token) String() string {
	if !t.hasActualValue() {
		return fmt.Sprintf("%s()", t.Kind)
	}

	return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
}
