package token

import "fmt"

type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident  // Identifier
	Int    // Integer
	String // String literal

	// Keywords
	Let
	Func
	If
	Else
	While
	Return
	Import
	Include
	Pass

	// Type keywords
	NumberType // number
	StringType // string
	StructType // struct
	NullType   // null

	// Operators
	Assign // =

	Plus  // +
	Minus // -
	Star  // *
	Slash // /

	Eq    // ==
	NotEq // !=
	Lt    // <
	LtEq  // <=
	Gt    // >
	GtEq  // >=

	// Symbols
	Comma     // ,
	Semicolon // ;
	Dot       // .
	Colon     // :

	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
)

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

var kindNames = [...]string{
	Illegal:    "Illegal",
	EOF:        "EOF",
	Ident:      "Ident",
	Int:        "Int",
	String:     "String",
	Let:        "Let",
	Func:       "Func",
	If:         "If",
	Else:       "Else",
	While:      "While",
	Return:     "Return",
	Import:     "Import",
	Include:    "Include",
	Pass:       "Pass",
	NumberType: "NumberType",
	StringType: "StringType",
	StructType: "StructType",
	NullType:   "NullType",
	Assign:     "Assign",
	Plus:       "Plus",
	Minus:      "Minus",
	Star:       "Star",
	Slash:      "Slash",
	Eq:         "Eq",
	NotEq:      "NotEq",
	Lt:         "Lt",
	LtEq:       "LtEq",
	Gt:         "Gt",
	GtEq:       "GtEq",
	Comma:      "Comma",
	Semicolon:  "Semicolon",
	Dot:        "Dot",
	Colon:      "Colon",
	LParen:     "LParen",
	RParen:     "RParen",
	LBrace:     "LBrace",
	RBrace:     "RBrace",
	LBracket:   "LBracket",
	RBracket:   "RBracket",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"let":     Let,
	"func":    Func,
	"if":      If,
	"else":    Else,
	"while":   While,
	"return":  Return,
	"import":  Import,
	"include": Include,
	"pass":    Pass,

	"number": NumberType,
	"string": StringType,
	"struct": StructType,
	"null":   NullType,
}

func LookupIdent(lit string) Kind {
	if kind, ok := keywords[lit]; ok {
		return kind
	}
	return Ident
}
