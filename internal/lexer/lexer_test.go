package lexer_test

import (
	"testing"

	"myst/internal/lexer"
	"myst/internal/token"
)

func TestNextToken_BasicProgram(t *testing.T) {
	input := `import io;

func add(a: number, b: number): number {
    return a + b;
}

let s: string = "hi\n";
if add(1, 2) >= 3 { pass; } else { x = [1, 2][0]; }
while i != 10 { i = i - 1; }
`

	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Import, "import"},
		{token.Ident, "io"},
		{token.Semicolon, ";"},

		{token.Func, "func"},
		{token.Ident, "add"},
		{token.LParen, "("},
		{token.Ident, "a"},
		{token.Colon, ":"},
		{token.NumberType, "number"},
		{token.Comma, ","},
		{token.Ident, "b"},
		{token.Colon, ":"},
		{token.NumberType, "number"},
		{token.RParen, ")"},
		{token.Colon, ":"},
		{token.NumberType, "number"},
		{token.LBrace, "{"},
		{token.Return, "return"},
		{token.Ident, "a"},
		{token.Plus, "+"},
		{token.Ident, "b"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},

		{token.Let, "let"},
		{token.Ident, "s"},
		{token.Colon, ":"},
		{token.StringType, "string"},
		{token.Assign, "="},
		{token.String, "hi\n"},
		{token.Semicolon, ";"},

		{token.If, "if"},
		{token.Ident, "add"},
		{token.LParen, "("},
		{token.Int, "1"},
		{token.Comma, ","},
		{token.Int, "2"},
		{token.RParen, ")"},
		{token.GtEq, ">="},
		{token.Int, "3"},
		{token.LBrace, "{"},
		{token.Pass, "pass"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},
		{token.Else, "else"},
		{token.LBrace, "{"},
		{token.Ident, "x"},
		{token.Assign, "="},
		{token.LBracket, "["},
		{token.Int, "1"},
		{token.Comma, ","},
		{token.Int, "2"},
		{token.RBracket, "]"},
		{token.LBracket, "["},
		{token.Int, "0"},
		{token.RBracket, "]"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},

		{token.While, "while"},
		{token.Ident, "i"},
		{token.NotEq, "!="},
		{token.Int, "10"},
		{token.LBrace, "{"},
		{token.Ident, "i"},
		{token.Assign, "="},
		{token.Ident, "i"},
		{token.Minus, "-"},
		{token.Int, "1"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},
		{token.EOF, ""},
	}

	l := lexer.New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (lexeme=%q, pos=%+v)",
				i, tt.kind, tok.Kind, tok.Lexeme, tok.Pos)
		}

		if tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.lit, tok.Lexeme)
		}
	}
	if errs := l.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}
}

func TestNextToken_TrailingIdentifierAtEOF(t *testing.T) {
	l := lexer.New("return total")
	if tok := l.NextToken(); tok.Kind != token.Return {
		t.Fatalf("expected Return, got %s", tok.Kind)
	}
	tok := l.NextToken()
	if tok.Kind != token.Ident || tok.Lexeme != "total" {
		t.Fatalf("expected Ident(total), got %s(%q)", tok.Kind, tok.Lexeme)
	}
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF, got %s", tok.Kind)
	}
}

func TestNextToken_CommentsAndPositions(t *testing.T) {
	l := lexer.New("// header\nlet x = 42; // trailing\n")
	tok := l.NextToken()
	if tok.Kind != token.Let {
		t.Fatalf("expected Let, got %s", tok.Kind)
	}
	if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Fatalf("expected position 2:1, got %s", tok.Pos)
	}
	l.NextToken() // x
	l.NextToken() // =
	num := l.NextToken()
	if num.Kind != token.Int || num.Lexeme != "42" {
		t.Fatalf("expected Int(42), got %s(%q)", num.Kind, num.Lexeme)
	}
	l.NextToken() // ;
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF after comment, got %s", tok.Kind)
	}
}

func TestNextToken_NormalizesIdentifiers(t *testing.T) {
	// "é" written as 'e' + combining acute accent must lex to the
	// precomposed form.
	l := lexer.New("cafe\u0301")
	tok := l.NextToken()
	if tok.Kind != token.Ident {
		t.Fatalf("expected Ident, got %s", tok.Kind)
	}
	if tok.Lexeme != "caf\u00e9" {
		t.Fatalf("expected NFC identifier %q, got %q", "caf\u00e9", tok.Lexeme)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := lexer.New(`let s = "oops`)
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF || tok.Kind == token.Illegal {
			break
		}
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected an unterminated string error")
	}
}
