package filter

import "strings"

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF      TokenKind = iota
	TokField              // {TagName} (braces stripped)
	TokString             // "text" or 'text' (quotes stripped, no escapes)
	TokWord               // bareword: number, true/false
	TokOp                 // == != > >= < <=
	TokLParen             // (
	TokRParen             // )
	TokLBracket           // [
	TokRBracket           // ]
	TokComma              // ,
	TokAnd                // AND
	TokOr                 // OR
	TokNot                // NOT
	TokIn                 // IN
	TokContains           // CONTAINS
	TokHas                // HAS
	TokNo                 // NO
	TokValue              // VALUE
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokField:
		return "FIELD"
	case TokString:
		return "STRING"
	case TokWord:
		return "WORD"
	case TokOp:
		return "OPERATOR"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokLBracket:
		return "["
	case TokRBracket:
		return "]"
	case TokComma:
		return ","
	case TokAnd:
		return "AND"
	case TokOr:
		return "OR"
	case TokNot:
		return "NOT"
	case TokIn:
		return "IN"
	case TokContains:
		return "CONTAINS"
	case TokHas:
		return "HAS"
	case TokNo:
		return "NO"
	case TokValue:
		return "VALUE"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind TokenKind
	Lit  string
	Pos  int // byte offset in input for error reporting
}

// Lexer tokenizes a filter expression.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: start}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: start}, nil
	case '[':
		l.pos++
		return Token{Kind: TokLBracket, Lit: "[", Pos: start}, nil
	case ']':
		l.pos++
		return Token{Kind: TokRBracket, Lit: "]", Pos: start}, nil
	case ',':
		l.pos++
		return Token{Kind: TokComma, Lit: ",", Pos: start}, nil
	case '{':
		return l.scanField()
	case '"', '\'':
		return l.scanQuoted(ch)
	case '=', '!', '<', '>':
		return l.scanOperator()
	}

	return l.scanBareword()
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// scanField reads {TagName}. Everything up to the first closing brace is the name.
func (l *Lexer) scanField() (Token, error) {
	start := l.pos
	end := strings.IndexByte(l.input[start+1:], '}')
	if end < 0 {
		return Token{}, newParseError(start, ErrUnterminatedField, "unterminated field reference starting at position %d", start)
	}
	name := l.input[start+1 : start+1+end]
	l.pos = start + end + 2
	return Token{Kind: TokField, Lit: name, Pos: start}, nil
}

// scanQuoted reads a quoted literal. There are no escape sequences: the first
// matching quote character ends the literal.
func (l *Lexer) scanQuoted(quote byte) (Token, error) {
	start := l.pos
	end := strings.IndexByte(l.input[start+1:], quote)
	if end < 0 {
		return Token{}, newParseError(start, ErrUnterminatedString, "unterminated string starting at position %d", start)
	}
	lit := l.input[start+1 : start+1+end]
	l.pos = start + end + 2
	return Token{Kind: TokString, Lit: lit, Pos: start}, nil
}

func (l *Lexer) scanOperator() (Token, error) {
	start := l.pos
	two := ""
	if l.pos+1 < len(l.input) {
		two = l.input[l.pos : l.pos+2]
	}
	switch two {
	case "==", "!=", ">=", "<=":
		l.pos += 2
		return Token{Kind: TokOp, Lit: two, Pos: start}, nil
	}
	switch l.input[l.pos] {
	case '<', '>':
		l.pos++
		return Token{Kind: TokOp, Lit: l.input[start:l.pos], Pos: start}, nil
	}
	return Token{}, newParseError(start, ErrUnexpectedChar, "unexpected character %q", l.input[start])
}

func (l *Lexer) scanBareword() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isBarewordChar(l.input[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return Token{}, newParseError(start, ErrUnexpectedChar, "unexpected character %q", l.input[start])
	}
	lit := l.input[start:l.pos]
	return Token{Kind: classifyWord(lit), Lit: lit, Pos: start}, nil
}

// isBarewordChar returns true if ch can be part of a bareword.
func isBarewordChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r':
		return false
	case '(', ')', '[', ']', ',', '{', '}', '"', '\'', '=', '!', '<', '>':
		return false
	default:
		return true
	}
}

// classifyWord checks if a word is a keyword (case-insensitive).
func classifyWord(word string) TokenKind {
	switch strings.ToUpper(word) {
	case "AND":
		return TokAnd
	case "OR":
		return TokOr
	case "NOT":
		return TokNot
	case "IN":
		return TokIn
	case "CONTAINS":
		return TokContains
	case "HAS":
		return TokHas
	case "NO":
		return TokNo
	case "VALUE":
		return TokValue
	default:
		return TokWord
	}
}
