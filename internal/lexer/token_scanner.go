package lexer

type TokenScanner interface {
	Read() *Token
	Unread() *Token
	HasTokens() bool
}

type SimpleTokenScanner struct {
	tokens []Token

	pos int
}

// NewTokenScanner expects the token stream to end with EOF, as produced by
// Lexer.Tokenize. Reading past EOF keeps returning EOF.
func NewTokenScanner(tokens []Token) TokenScanner {
	return &SimpleTokenScanner{
		tokens: tokens,
	}
}

func (s *SimpleTokenScanner) Read() *Token {
	if s.pos >= len(s.tokens) {
		return &s.tokens[len(s.tokens)-1]
	}

	token := &s.tokens[s.pos]
	s.pos++

	return token
}

// Unread steps back one token and returns the token before it, which is the
// parser's current token again.
func (s *SimpleTokenScanner) Unread() *Token {
	if s.pos > 1 {
		s.pos--
	}
	return &s.tokens[s.pos-1]
}

// HasTokens reports whether the most recently read token is not EOF.
func (s *SimpleTokenScanner) HasTokens() bool {
	if s.pos == 0 {
		return len(s.tokens) > 0 && s.tokens[0].Kind != EOF
	}
	return s.tokens[s.pos-1].Kind != EOF
}
