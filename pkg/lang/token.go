package lang

// ----------------------------------------------------------------------------
// General information

// This section defines the Token: the lexer's unit of output. A Token is a
// tagged kind plus a half-open byte range [Begin, End) into the source buffer —
// it never owns a copy of its text, callers slice the source buffer themselves
// when the literal text is needed (diagnostics, literal parsing).

// Kind tags the lexical category of a Token.
type Kind uint8

const (
	EOF Kind = iota

	Identifier
	Typename // int, real, void, bool, char, string

	IntLiteral
	RealLiteral
	StringLiteral
	CharLiteral

	KwReturn
	KwCast
	KwIf
	KwElse
	KwWhile
	KwTrue
	KwFalse
	KwBreak
	KwStruct

	// Punctuation
	Semi   // ;
	Colon  // :
	Assign // := (declaration/init, NOT plain assignment — see OpAssign below)
	Arrow  // ->
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Dot // '.', struct field access

	// Operators. '==', '!=', '<=', '>=' and '::' are the recognised multi-byte
	// operators; '+=', '-=', '*=', '/=' are intentionally NOT recognised —
	// '+', '-', '*', '/' always lex as single characters even immediately
	// followed by '='.
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpPercent
	OpLess
	OpGreater
	OpBang
	OpAssign // plain '=', used for statement-level assignment (not ':=')
	OpEq     // '=='
	OpNe     // '!='
	OpLe     // '<='
	OpGe     // '>='
	OpScope  // '::'
)

// Token is a tagged kind plus a half-open byte range into the source buffer.
type Token struct {
	Kind  Kind
	Begin int
	End   int
}

// keywords maps the fixed keyword vocabulary (typenames + control keywords) to
// their Token kind. Populated once; the lexer consults it after scanning an
// identifier-shaped run of bytes.
var keywords = map[string]Kind{
	"int":    Typename,
	"real":   Typename,
	"void":   Typename,
	"bool":   Typename,
	"char":   Typename,
	"string": Typename,

	"return": KwReturn,
	"cast":   KwCast,
	"if":     KwIf,
	"else":   KwElse,
	"while":  KwWhile,
	"true":   KwTrue,
	"false":  KwFalse,
	"break":  KwBreak,
	"struct": KwStruct,
}
