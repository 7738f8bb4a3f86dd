package lang_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/lang"
)

func scanAll(t *testing.T, source string) []lang.Token {
	t.Helper()
	lexer := lang.NewLexer([]byte(source))
	var tokens []lang.Token
	for {
		tok, err := lexer.Advance()
		require.NoError(t, err)
		tokens = append(tokens, tok)
		if tok.Kind == lang.EOF {
			return tokens
		}
	}
}

func TestLexerTokenKinds(t *testing.T) {
	tokens := scanAll(t, `int x := 1;`)
	kinds := make([]lang.Kind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lang.Kind{
		lang.Typename, lang.Identifier, lang.Assign, lang.IntLiteral, lang.Semi, lang.EOF,
	}, kinds)
}

func TestLexerMultiByteOperators(t *testing.T) {
	cases := []struct {
		source string
		kind   lang.Kind
	}{
		{"==", lang.OpEq},
		{"!=", lang.OpNe},
		{"<=", lang.OpLe},
		{">=", lang.OpGe},
		{"::", lang.OpScope},
		{":=", lang.Assign},
		{"->", lang.Arrow},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			tokens := scanAll(t, tc.source)
			require.Equal(t, tc.kind, tokens[0].Kind)
			require.Equal(t, 2, tokens[0].End-tokens[0].Begin)
		})
	}
}

// '+', '-', '*', '/' always lex as single characters, even immediately
// followed by '=': there are no compound-assignment operators.
func TestLexerNoCompoundAssignment(t *testing.T) {
	tokens := scanAll(t, `x += 1;`)
	kinds := make([]lang.Kind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lang.Kind{
		lang.Identifier, lang.OpPlus, lang.OpAssign, lang.IntLiteral, lang.Semi, lang.EOF,
	}, kinds)
}

func TestLexerLiteralsAndComments(t *testing.T) {
	source := `
		// a line comment
		real r := 3.14; /* a block
		comment */ string s := "he\"llo";
		char c := '\n';
	`
	tokens := scanAll(t, source)

	var kinds []lang.Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lang.Kind{
		lang.Typename, lang.Identifier, lang.Assign, lang.RealLiteral, lang.Semi,
		lang.Typename, lang.Identifier, lang.Assign, lang.StringLiteral, lang.Semi,
		lang.Typename, lang.Identifier, lang.Assign, lang.CharLiteral, lang.Semi,
		lang.EOF,
	}, kinds)
}

func TestLexerOffsetsMonotonic(t *testing.T) {
	source := `f := (int a, int b) -> int { return a + b; } // trailing`
	tokens := scanAll(t, source)

	prevEnd := 0
	for _, tok := range tokens {
		require.GreaterOrEqual(t, tok.Begin, prevEnd, "token ranges must not overlap")
		require.LessOrEqual(t, tok.Begin, tok.End)
		prevEnd = tok.End
	}
}

func TestLexerPeekIsIdempotent(t *testing.T) {
	lexer := lang.NewLexer([]byte(`int x;`))
	first, err := lexer.Peek()
	require.NoError(t, err)
	second, err := lexer.Peek()
	require.NoError(t, err)
	require.Equal(t, first, second)

	committed, err := lexer.Advance()
	require.NoError(t, err)
	require.Equal(t, first, committed)
}

func TestLexerUnterminatedString(t *testing.T) {
	lexer := lang.NewLexer([]byte(`"never closed`))
	_, err := lexer.Advance()
	require.ErrorIs(t, err, lang.ErrLex)
}

func TestLexerUnexpectedByte(t *testing.T) {
	lexer := lang.NewLexer([]byte("\x01"))
	_, err := lexer.Advance()
	require.ErrorIs(t, err, lang.ErrLex)
}

func TestLocationIndex(t *testing.T) {
	source := []byte("int x;\nint y;\nint zzz;\n")
	index := lang.NewLocationIndex(source)

	loc := index.OffsetToLocation(0)
	require.Equal(t, lang.Location{Line: 1, Character: 1}, loc)

	// Offset of 'y' on line 2.
	loc = index.OffsetToLocation(11)
	require.Equal(t, lang.Location{Line: 2, Character: 5}, loc)

	require.Equal(t, "int y;", index.LineToString(2))
	require.Equal(t, "int zzz;", index.LineToString(3))
	require.Equal(t, "", index.LineToString(42))
}
