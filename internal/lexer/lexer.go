package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"myst/internal/token"
)

type Lexer struct {
	input []rune

	pos int

	ch   rune
	line int
	col  int

	errors []string
}

func New(input string) *Lexer {
	l := &Lexer{
		input: []rune(input),
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := token.Position{
		Line:   l.line,
		Column: l.col,
	}

	ch := l.ch

	// EOF
	if ch == 0 {
		return token.Token{
			Kind:   token.EOF,
			Lexeme: "",
			Pos:    pos,
		}
	}

	if isDigit(ch) {
		return token.Token{
			Kind:   token.Int,
			Lexeme: l.readNumber(),
			Pos:    pos,
		}
	}

	// Identifiers / keywords. Identifiers are stored in NFC so that
	// visually identical names written with combining marks resolve to the
	// same symbol.
	if isLetter(ch) {
		lit := norm.NFC.String(l.readIdentifier())
		return token.Token{
			Kind:   token.LookupIdent(lit),
			Lexeme: lit,
			Pos:    pos,
		}
	}

	if ch == '"' {
		l.readChar() // consume opening quote
		lit, ok := l.readString(pos)
		if !ok {
			return token.Token{Kind: token.Illegal, Lexeme: "", Pos: pos}
		}
		return token.Token{
			Kind:   token.String,
			Lexeme: lit,
			Pos:    pos,
		}
	}

	// Single- and two-character tokens
	var kind token.Kind
	var lexeme string

	switch ch {
	case ';':
		kind = token.Semicolon
		lexeme = ";"
	case ',':
		kind = token.Comma
		lexeme = ","
	case '.':
		kind = token.Dot
		lexeme = "."
	case ':':
		kind = token.Colon
		lexeme = ":"
	case '(':
		kind = token.LParen
		lexeme = "("
	case ')':
		kind = token.RParen
		lexeme = ")"
	case '{':
		kind = token.LBrace
		lexeme = "{"
	case '}':
		kind = token.RBrace
		lexeme = "}"
	case '[':
		kind = token.LBracket
		lexeme = "["
	case ']':
		kind = token.RBracket
		lexeme = "]"
	case '+':
		kind = token.Plus
		lexeme = "+"
	case '-':
		kind = token.Minus
		lexeme = "-"
	case '*':
		kind = token.Star
		lexeme = "*"
	case '/':
		kind = token.Slash
		lexeme = "/"
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.NotEq
			lexeme = "!="
		} else {
			l.errorf(pos, "unexpected '!'")
			kind = token.Illegal
			lexeme = "!"
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.Eq
			lexeme = "=="
		} else {
			kind = token.Assign
			lexeme = "="
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.LtEq
			lexeme = "<="
		} else {
			kind = token.Lt
			lexeme = "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.GtEq
			lexeme = ">="
		} else {
			kind = token.Gt
			lexeme = ">"
		}
	default:
		l.errorf(pos, fmt.Sprintf("unexpected character %q", ch))
		kind = token.Illegal
		lexeme = string(ch)
	}
	l.readChar()
	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    pos,
	}
}

// Helpers

func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		break
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos - 1 // current rune is already in l.ch
	for isLetter(l.ch) || isDigit(l.ch) || unicode.IsMark(l.ch) {
		l.readChar()
	}
	return string(l.input[start:l.offset()])
}

func (l *Lexer) readNumber() string {
	start := l.pos - 1
	for isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[start:l.offset()])
}

// offset is the index of the current rune, or len(input) once exhausted.
func (l *Lexer) offset() int {
	if l.ch == 0 && l.pos >= len(l.input) {
		return len(l.input)
	}
	return l.pos - 1
}

func (l *Lexer) readString(startPos token.Position) (string, bool) {
	var sb []rune
	for {
		if l.ch == 0 || l.ch == '\n' {
			l.errorf(startPos, "unterminated string literal")
			return "", false
		}
		if l.ch == '"' {
			l.readChar() // consume closing quote
			return string(sb), true
		}
		if l.ch == '\\' {
			escPos := token.Position{Line: l.line, Column: l.col}
			l.readChar()
			r, ok := l.readEscape(escPos)
			if !ok {
				return "", false
			}
			sb = append(sb, r)
			l.readChar()
			continue
		}
		sb = append(sb, l.ch)
		l.readChar()
	}
}

func (l *Lexer) readEscape(pos token.Position) (rune, bool) {
	switch l.ch {
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	default:
		l.errorf(pos, "invalid escape sequence")
		return 0, false
	}
}

func (l *Lexer) errorf(pos token.Position, msg string) {
	l.errors = append(l.errors, formatError(pos, msg))
}

func formatError(pos token.Position, msg string) string {
	return fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg)
}

func (l *Lexer) Errors() []string {
	return l.errors
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	if ch > utf8.RuneSelf {
		return false
	}
	return ch >= '0' && ch <= '9'
}
