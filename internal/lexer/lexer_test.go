package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanocc/internal/diag"
	"nanocc/internal/lexer"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasicProgram(t *testing.T) {
	toks, err := lexer.Tokenize("int main(void){return 2+3*4;}")
	require.NoError(t, err)
	require.Equal(t, []lexer.Kind{
		lexer.KwInt, lexer.Ident, lexer.LParen, lexer.KwVoid, lexer.RParen,
		lexer.LBrace, lexer.KwReturn, lexer.IntLiteral, lexer.Plus,
		lexer.IntLiteral, lexer.Star, lexer.IntLiteral, lexer.Semicolon,
		lexer.RBrace, lexer.EOF,
	}, kinds(toks))
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	toks, err := lexer.Tokenize("a && b || c == d != e <= f >= g << h >> i")
	require.NoError(t, err)
	got := kinds(toks)
	want := []lexer.Kind{
		lexer.Ident, lexer.LogAnd, lexer.Ident, lexer.LogOr, lexer.Ident,
		lexer.Eq, lexer.Ident, lexer.Ne, lexer.Ident, lexer.Le, lexer.Ident,
		lexer.Ge, lexer.Ident, lexer.Shl, lexer.Ident, lexer.Shr, lexer.Ident,
		lexer.EOF,
	}
	require.Equal(t, want, got)
}

func TestTokenizeSingleVsDoubleAmpAndPipe(t *testing.T) {
	toks, err := lexer.Tokenize("a & b | c")
	require.NoError(t, err)
	require.Equal(t, []lexer.Kind{
		lexer.Ident, lexer.Amp, lexer.Ident, lexer.Pipe, lexer.Ident, lexer.EOF,
	}, kinds(toks))
}

func TestTokenizeLongLiteral(t *testing.T) {
	toks, err := lexer.Tokenize("4294967296L")
	require.NoError(t, err)
	require.Equal(t, lexer.LongLiteral, toks[0].Kind)
	require.Equal(t, int64(4294967296), toks[0].Value)
}

func TestTokenizeIntLiteral(t *testing.T) {
	toks, err := lexer.Tokenize("42")
	require.NoError(t, err)
	require.Equal(t, lexer.IntLiteral, toks[0].Kind)
	require.Equal(t, int64(42), toks[0].Value)
}

func TestStripsLineAndBlockComments(t *testing.T) {
	toks, err := lexer.Tokenize("int x; // trailing comment\n/* block\ncomment */ int y;")
	require.NoError(t, err)
	require.Equal(t, []lexer.Kind{
		lexer.KwInt, lexer.Ident, lexer.Semicolon,
		lexer.KwInt, lexer.Ident, lexer.Semicolon, lexer.EOF,
	}, kinds(toks))
}

func TestUnrecognizedCharacterIsLexicalError(t *testing.T) {
	_, err := lexer.Tokenize("int x = 1 @ 2;")
	require.Error(t, err)
	require.True(t, diag.IsKind(err, diag.LexicalError))
}

func TestKeywordsAreNotIdentifiers(t *testing.T) {
	toks, err := lexer.Tokenize("static extern void break continue do for while if else return int long")
	require.NoError(t, err)
	want := []lexer.Kind{
		lexer.KwStatic, lexer.KwExtern, lexer.KwVoid, lexer.KwBreak,
		lexer.KwContinue, lexer.KwDo, lexer.KwFor, lexer.KwWhile, lexer.KwIf,
		lexer.KwElse, lexer.KwReturn, lexer.KwInt, lexer.KwLong, lexer.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestIdentifierWithUnderscoreAndDigits(t *testing.T) {
	toks, err := lexer.Tokenize("_foo_bar123")
	require.NoError(t, err)
	require.Equal(t, lexer.Ident, toks[0].Kind)
	require.Equal(t, "_foo_bar123", toks[0].Text)
}
