package lexer

import "fmt"

// Kind is the set of token kinds the lexer produces, grounded on the
// teacher's ast/lexer.go TokenKind enum shape.
type Kind int

const (
	EOF Kind = iota
	Ident
	IntLiteral
	LongLiteral

	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Shl
	Shr
	LogAnd
	LogOr
	Bang
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Assign

	LParen
	RParen
	LBrace
	RBrace
	Semicolon
	Comma
	Question
	Colon

	KwInt
	KwLong
	KwReturn
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwBreak
	KwContinue
	KwStatic
	KwExtern
	KwVoid
)

var keywords = map[string]Kind{
	"int": KwInt, "long": KwLong, "return": KwReturn,
	"if": KwIf, "else": KwElse, "while": KwWhile, "do": KwDo, "for": KwFor,
	"break": KwBreak, "continue": KwContinue,
	"static": KwStatic, "extern": KwExtern, "void": KwVoid,
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind Kind
	Text string
	// Value holds the literal's numeric value for IntLiteral/LongLiteral.
	Value int64
	Line  int
	Col   int
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Col)
}

func (k Kind) String() string {
	names := map[Kind]string{
		EOF: "<eof>", Ident: "<ident>", IntLiteral: "<int>", LongLiteral: "<long>",
		Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
		Amp: "&", Pipe: "|", Caret: "^", Tilde: "~",
		Shl: "<<", Shr: ">>", LogAnd: "&&", LogOr: "||", Bang: "!",
		Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=", Assign: "=",
		LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
		Semicolon: ";", Comma: ",", Question: "?", Colon: ":",
		KwInt: "int", KwLong: "long", KwReturn: "return",
		KwIf: "if", KwElse: "else", KwWhile: "while", KwDo: "do", KwFor: "for",
		KwBreak: "break", KwContinue: "continue",
		KwStatic: "static", KwExtern: "extern", KwVoid: "void",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "<unknown>"
}
