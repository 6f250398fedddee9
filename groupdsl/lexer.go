package groupdsl

// TokenType represents the type of a group-condition token
type TokenType int

const (
	// Token types for the group condition lexer
	TOKEN_IDENT TokenType = iota
	TOKEN_STRING
	TOKEN_EQ  // ==
	TOKEN_OR  // ||
	TOKEN_AND // &&
	TOKEN_DOT
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_EOF
	TOKEN_ERROR
)

// Token represents a lexical token in a group condition
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Lexer tokenizes group condition strings
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// NewLexer creates a new group condition lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar looks ahead without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace advances past whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readIdentifier reads an identifier
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readString reads a string literal (single or double quoted)
func (l *Lexer) readString(quote byte) string {
	l.readChar() // skip opening quote
	start := l.position
	for l.ch != quote && l.ch != 0 {
		l.readChar()
	}
	str := l.input[start:l.position]
	if l.ch == quote {
		l.readChar() // skip closing quote
	}
	return str
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.position}

	switch {
	case l.ch == 0:
		tok.Type = TOKEN_EOF
	case l.ch == '=' && l.peekChar() == '=':
		tok.Type = TOKEN_EQ
		tok.Literal = "=="
		l.readChar()
		l.readChar()
	case l.ch == '|' && l.peekChar() == '|':
		tok.Type = TOKEN_OR
		tok.Literal = "||"
		l.readChar()
		l.readChar()
	case l.ch == '&' && l.peekChar() == '&':
		tok.Type = TOKEN_AND
		tok.Literal = "&&"
		l.readChar()
		l.readChar()
	case l.ch == '.':
		tok.Type = TOKEN_DOT
		tok.Literal = "."
		l.readChar()
	case l.ch == '(':
		tok.Type = TOKEN_LPAREN
		tok.Literal = "("
		l.readChar()
	case l.ch == ')':
		tok.Type = TOKEN_RPAREN
		tok.Literal = ")"
		l.readChar()
	case l.ch == '\'' || l.ch == '"':
		tok.Type = TOKEN_STRING
		tok.Literal = l.readString(l.ch)
	case isLetter(l.ch):
		tok.Type = TOKEN_IDENT
		tok.Literal = l.readIdentifier()
	default:
		tok.Type = TOKEN_ERROR
		tok.Literal = string(l.ch)
		l.readChar()
	}

	return tok
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
