package lang

import (
	"errors"
	"strings"
)

// ----------------------------------------------------------------------------
// General information

// This section implements the Parser: recursive-descent over statements and
// declarations, with precedence-climbing for expressions. The grammar is
// hand-written rather than built on a parser-combinator library: climbing a
// precedence table while threading rewind-point recovery does not decompose
// into combinators without fighting them.
//
// Diagnostic-mode recovery: a rule that hits Context.Report in DiagnosticMode
// gets back ErrRewound, and its
// caller (ParseProgram's and parseBlock's statement loops are the only two
// "parse-local rewind points" in this grammar) calls synchronize and resumes
// the loop instead of unwinding the whole parse with a non-local jump.

// Parser turns a Lexer's token stream into an AST rooted at a NodeRef into a
// shared Arena, interning string literals into a shared StringTable as it goes.
type Parser struct {
	ctx     *Context
	arena   *Arena
	strings *StringTable
	lex     *Lexer
}

// NewParser wraps 'ctx' (which owns the source buffer and diagnostics mode),
// emitting nodes into 'arena' and interning strings into 'strings'.
func NewParser(ctx *Context, arena *Arena, strings *StringTable) *Parser {
	return &Parser{ctx: ctx, arena: arena, strings: strings, lex: NewLexer(ctx.Source)}
}

func (p *Parser) text(tok Token) string { return string(p.ctx.Source[tok.Begin:tok.End]) }

func (p *Parser) peek() (Token, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return Token{}, p.lexErr(err)
	}
	return tok, nil
}

func (p *Parser) advance() (Token, error) {
	tok, err := p.lex.Advance()
	if err != nil {
		return Token{}, p.lexErr(err)
	}
	return tok, nil
}

func (p *Parser) lexErr(err error) error {
	var le *LexError
	if errors.As(err, &le) {
		return p.ctx.Report(ErrLex, Range{le.Offset, le.Offset + 1}, "%s", le.Message)
	}
	return err
}

// expect consumes the next token, reporting a parse-error (and, in
// DiagnosticMode, returning ErrRewound) if it is not of 'kind'.
func (p *Parser) expect(kind Kind, what string) (Token, error) {
	tok, err := p.peek()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected %s", what)
	}
	return p.advance()
}

// synchronize discards tokens up to and including the next statement
// boundary (';' or '}'), or EOF, so a caller-level rewind point can resume
// parsing the next declaration/statement after a diagnostic.
func (p *Parser) synchronize() {
	for {
		tok, err := p.peek()
		if err != nil || tok.Kind == EOF {
			return
		}
		if _, err := p.advance(); err != nil {
			return
		}
		if tok.Kind == Semi || tok.Kind == RBrace {
			return
		}
	}
}

// ----------------------------------------------------------------------------
// Program, declarations

// ParseProgram parses the entire token stream into a single NProgram node.
func (p *Parser) ParseProgram() (NodeRef, error) {
	root := p.arena.New(NProgram, Range{0, len(p.ctx.Source)})

	for {
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		if tok.Kind == EOF {
			break
		}

		stmt, err := p.parseGlobalStmt()
		if errors.Is(err, ErrRewound) {
			p.synchronize()
			continue
		}
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(root, stmt)
	}
	return root, nil
}

func (p *Parser) parseGlobalStmt() (NodeRef, error) {
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	switch tok.Kind {
	case Typename:
		return p.parseVarDecl()
	case KwStruct:
		return p.parseStructDeclOrVarDecl()
	case Identifier:
		return p.parseFuncDecl()
	default:
		return NoRef, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected a variable, function or struct declaration")
	}
}

// parseTypeNameText parses a declaration-position type: either a basic
// typename keyword, or `struct` followed by a previously-declared struct's
// name. It never needs more than the Lexer's single token of lookahead
// because each keyword is consumed before the following token is examined.
func (p *Parser) parseTypeNameText() (string, int, error) {
	tok, err := p.peek()
	if err != nil {
		return "", 0, err
	}
	if tok.Kind == Typename {
		if _, err := p.advance(); err != nil {
			return "", 0, err
		}
		return p.text(tok), tok.Begin, nil
	}
	if tok.Kind == KwStruct {
		if _, err := p.advance(); err != nil {
			return "", 0, err
		}
		nameTok, err := p.expect(Identifier, "a struct name")
		if err != nil {
			return "", 0, err
		}
		return p.text(nameTok), tok.Begin, nil
	}
	return "", 0, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected a type")
}

// parseVarDecl parses `typename identifier (':=' expr)? ';'`.
func (p *Parser) parseVarDecl() (NodeRef, error) {
	typeTok, err := p.expect(Typename, "a typename")
	if err != nil {
		return NoRef, err
	}
	return p.finishVarDecl(typeTok.Begin, p.text(typeTok))
}

// finishVarDecl parses the identifier/initializer/';' tail shared by a
// basic-typed and a struct-typed variable declaration, given the type text
// and source offset already consumed by the caller.
func (p *Parser) finishVarDecl(typeBegin int, typeName string) (NodeRef, error) {
	nameTok, err := p.expect(Identifier, "an identifier")
	if err != nil {
		return NoRef, err
	}

	node := p.arena.New(NVarDecl, Range{typeBegin, nameTok.End})
	p.arena.At(node).TypeName = typeName
	p.arena.At(node).Text = p.text(nameTok)
	p.arena.At(node).NameRange = Range{nameTok.Begin, nameTok.End}

	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind == Assign {
		if _, err := p.advance(); err != nil {
			return NoRef, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, init)
		p.arena.At(node).HasInit = true
	}

	semi, err := p.expect(Semi, "';'")
	if err != nil {
		return NoRef, err
	}
	p.arena.At(node).Range = Range{typeBegin, semi.End}
	return node, nil
}

// parseParam parses one `typename identifier` parameter, without a trailing
// ';' or initializer — reuses NVarDecl per ast.go's "also used for function
// parameters and struct fields". The type may name a basic type or a
// previously-declared struct.
func (p *Parser) parseParam() (NodeRef, error) {
	typeName, begin, err := p.parseTypeNameText()
	if err != nil {
		return NoRef, err
	}
	nameTok, err := p.expect(Identifier, "a parameter name")
	if err != nil {
		return NoRef, err
	}
	node := p.arena.New(NVarDecl, Range{begin, nameTok.End})
	p.arena.At(node).TypeName = typeName
	p.arena.At(node).Text = p.text(nameTok)
	p.arena.At(node).NameRange = Range{nameTok.Begin, nameTok.End}
	return node, nil
}

// parseFuncDecl parses `identifier ':=' '(' param-list ')' '->' typename block`.
func (p *Parser) parseFuncDecl() (NodeRef, error) {
	nameTok, err := p.expect(Identifier, "a function name")
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(Assign, "':='"); err != nil {
		return NoRef, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return NoRef, err
	}

	var params []NodeRef
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	for tok.Kind != RParen {
		param, err := p.parseParam()
		if err != nil {
			return NoRef, err
		}
		params = append(params, param)

		tok, err = p.peek()
		if err != nil {
			return NoRef, err
		}
		if tok.Kind == Comma {
			if _, err := p.advance(); err != nil {
				return NoRef, err
			}
			tok, err = p.peek()
			if err != nil {
				return NoRef, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return NoRef, err
	}
	if _, err := p.expect(Arrow, "'->'"); err != nil {
		return NoRef, err
	}
	retTok, err := p.expect(Typename, "a return typename")
	if err != nil {
		return NoRef, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return NoRef, err
	}

	node := p.arena.New(NFuncDecl, Range{nameTok.Begin, p.arena.At(body).Range.End})
	p.arena.At(node).Text = p.text(nameTok)
	p.arena.At(node).NameRange = Range{nameTok.Begin, nameTok.End}
	p.arena.At(node).TypeName = p.text(retTok)
	p.arena.At(node).NumParams = len(params)
	for _, param := range params {
		p.arena.AddChild(node, param)
	}
	p.arena.AddChild(node, body)
	return node, nil
}

// parseStructDeclOrVarDecl parses a declaration that starts with the 'struct'
// keyword, which is ambiguous for one extra token past the struct's name:
// `struct Name { ... }` declares the struct itself, while `struct Name x;`
// (or `x := ...;`) declares a variable of that previously-declared struct
// type. Both readings share the `struct Name` prefix, so it is consumed
// first and the following token (still only one token of lookahead at a
// time) picks the continuation.
func (p *Parser) parseStructDeclOrVarDecl() (NodeRef, error) {
	kwTok, err := p.expect(KwStruct, "'struct'")
	if err != nil {
		return NoRef, err
	}
	nameTok, err := p.expect(Identifier, "a struct name")
	if err != nil {
		return NoRef, err
	}
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind == LBrace {
		return p.finishStructDecl(kwTok, nameTok)
	}
	return p.finishVarDecl(kwTok.Begin, p.text(nameTok))
}

// finishStructDecl parses the `'{' (typename identifier ';')* '}'` body of a
// struct declaration once `struct Name` has already been consumed.
func (p *Parser) finishStructDecl(kwTok, nameTok Token) (NodeRef, error) {
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return NoRef, err
	}

	node := p.arena.New(NStructDecl, Range{kwTok.Begin, 0})
	p.arena.At(node).Text = p.text(nameTok)
	p.arena.At(node).NameRange = Range{nameTok.Begin, nameTok.End}

	for {
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		if tok.Kind == RBrace {
			break
		}
		field, err := p.parseParam()
		if err != nil {
			return NoRef, err
		}
		if _, err := p.expect(Semi, "';'"); err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, field)
	}
	rbrace, err := p.expect(RBrace, "'}'")
	if err != nil {
		return NoRef, err
	}
	p.arena.At(node).Range.End = rbrace.End
	return node, nil
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) parseBlock() (NodeRef, error) {
	lbrace, err := p.expect(LBrace, "'{'")
	if err != nil {
		return NoRef, err
	}
	node := p.arena.New(NBlock, Range{lbrace.Begin, 0})

	for {
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		if tok.Kind == RBrace || tok.Kind == EOF {
			break
		}
		stmt, err := p.parseStatement()
		if errors.Is(err, ErrRewound) {
			p.synchronize()
			continue
		}
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, stmt)
	}

	rbrace, err := p.expect(RBrace, "'}'")
	if err != nil {
		return NoRef, err
	}
	p.arena.At(node).Range.End = rbrace.End
	return node, nil
}

func (p *Parser) parseStatement() (NodeRef, error) {
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	switch tok.Kind {
	case Typename:
		return p.parseVarDecl()
	case KwStruct:
		return p.parseStructDeclOrVarDecl()
	case LBrace:
		return p.parseBlock()
	case KwReturn:
		return p.parseReturn()
	case KwIf:
		return p.parseIf()
	case KwWhile:
		return p.parseWhile()
	case KwBreak:
		return p.parseBreak()
	case Identifier:
		return p.parseIdentStmt()
	default:
		return NoRef, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected a statement")
	}
}

func (p *Parser) parseReturn() (NodeRef, error) {
	kwTok, err := p.expect(KwReturn, "'return'")
	if err != nil {
		return NoRef, err
	}
	node := p.arena.New(NReturnStmt, Range{kwTok.Begin, 0})

	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind != Semi {
		expr, err := p.parseExpr()
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, expr)
	}
	semi, err := p.expect(Semi, "';'")
	if err != nil {
		return NoRef, err
	}
	p.arena.At(node).Range.End = semi.End
	return node, nil
}

func (p *Parser) parseBreak() (NodeRef, error) {
	kwTok, err := p.expect(KwBreak, "'break'")
	if err != nil {
		return NoRef, err
	}
	semi, err := p.expect(Semi, "';'")
	if err != nil {
		return NoRef, err
	}
	return p.arena.New(NBreakStmt, Range{kwTok.Begin, semi.End}), nil
}

func (p *Parser) parseIf() (NodeRef, error) {
	kwTok, err := p.expect(KwIf, "'if'")
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return NoRef, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return NoRef, err
	}
	thenBlk, err := p.parseBlock()
	if err != nil {
		return NoRef, err
	}

	node := p.arena.New(NIfStmt, Range{kwTok.Begin, p.arena.At(thenBlk).Range.End})
	p.arena.AddChild(node, cond)
	p.arena.AddChild(node, thenBlk)

	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind == KwElse {
		if _, err := p.advance(); err != nil {
			return NoRef, err
		}
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		var elseBlk NodeRef
		if tok.Kind == KwIf {
			elseBlk, err = p.parseIf() // else-if chaining
		} else {
			elseBlk, err = p.parseBlock()
		}
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, elseBlk)
		p.arena.At(node).Range.End = p.arena.At(elseBlk).Range.End
	}
	return node, nil
}

func (p *Parser) parseWhile() (NodeRef, error) {
	kwTok, err := p.expect(KwWhile, "'while'")
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return NoRef, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return NoRef, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return NoRef, err
	}
	node := p.arena.New(NWhileStmt, Range{kwTok.Begin, p.arena.At(body).Range.End})
	p.arena.AddChild(node, cond)
	p.arena.AddChild(node, body)
	return node, nil
}

// parseIdentStmt parses the two identifier-started statement forms: a bare
// call expression, or an assignment `lvalue '=' expr ';'`.
func (p *Parser) parseIdentStmt() (NodeRef, error) {
	startTok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	lhs, err := p.parsePostfix()
	if err != nil {
		return NoRef, err
	}

	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind == OpAssign {
		if _, err := p.advance(); err != nil {
			return NoRef, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return NoRef, err
		}
		semi, err := p.expect(Semi, "';'")
		if err != nil {
			return NoRef, err
		}
		node := p.arena.New(NAssignStmt, Range{startTok.Begin, semi.End})
		p.arena.AddChild(node, lhs)
		p.arena.AddChild(node, rhs)
		return node, nil
	}

	if p.arena.At(lhs).Kind == NCallExpr {
		semi, err := p.expect(Semi, "';'")
		if err != nil {
			return NoRef, err
		}
		node := p.arena.New(NExprStmt, Range{startTok.Begin, semi.End})
		p.arena.AddChild(node, lhs)
		return node, nil
	}

	return NoRef, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected '=' or a call's '(' after expression")
}

// ----------------------------------------------------------------------------
// Expressions

func binaryOpFor(kind Kind) (ExprOp, bool) {
	switch kind {
	case OpPlus:
		return EAdd, true
	case OpMinus:
		return ESub, true
	case OpStar:
		return EMul, true
	case OpSlash:
		return EDiv, true
	case OpPercent:
		return EMod, true
	case OpLess:
		return ELt, true
	case OpGreater:
		return EGt, true
	case OpLe:
		return ELe, true
	case OpGe:
		return EGe, true
	case OpEq:
		return EEq, true
	case OpNe:
		return ENe, true
	default:
		return ENone, false
	}
}

// parseExpr is the grammar's single expression entrypoint; it climbs
// precedence starting from the lowest binding power (comparisons).
func (p *Parser) parseExpr() (NodeRef, error) {
	return p.parseBinary(1)
}

// parseBinary implements precedence climbing: the "merge" rule — sinking a
// lower-precedence right-hand operator into the left child — falls
// out naturally from recursing with 'op.precedence()+1' as the next minimum
// precedence, which is the standard left-associative climbing step.
func (p *Parser) parseBinary(minPrec int) (NodeRef, error) {
	left, err := p.parseUnary()
	if err != nil {
		return NoRef, err
	}

	for {
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		op, isBinary := binaryOpFor(tok.Kind)
		if !isBinary || op.precedence() < minPrec {
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return NoRef, err
		}
		right, err := p.parseBinary(op.precedence() + 1)
		if err != nil {
			return NoRef, err
		}
		node := p.arena.New(NBinaryExpr, Range{p.arena.At(left).Range.Begin, p.arena.At(right).Range.End})
		p.arena.At(node).Op = op
		p.arena.AddChild(node, left)
		p.arena.AddChild(node, right)
		left = node
	}
}

func (p *Parser) parseUnary() (NodeRef, error) {
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	if tok.Kind == OpMinus || tok.Kind == OpBang {
		if _, err := p.advance(); err != nil {
			return NoRef, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return NoRef, err
		}
		node := p.arena.New(NUnaryExpr, Range{tok.Begin, p.arena.At(operand).Range.End})
		if tok.Kind == OpMinus {
			p.arena.At(node).Op = ENeg
		} else {
			p.arena.At(node).Op = ENot
		}
		p.arena.AddChild(node, operand)
		return node, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of '.field'
// and '(args)' suffixes (struct field chains and call expressions).
func (p *Parser) parsePostfix() (NodeRef, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return NoRef, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return NoRef, err
		}
		switch tok.Kind {
		case Dot:
			if _, err := p.advance(); err != nil {
				return NoRef, err
			}
			fieldTok, err := p.expect(Identifier, "a field name")
			if err != nil {
				return NoRef, err
			}
			node := p.arena.New(NDotExpr, Range{p.arena.At(expr).Range.Begin, fieldTok.End})
			p.arena.At(node).Text = p.text(fieldTok)
			p.arena.AddChild(node, expr)
			expr = node
		case LParen:
			call, err := p.finishCall(expr)
			if err != nil {
				return NoRef, err
			}
			expr = call
		default:
			return expr, nil
		}
	}
}

// finishCall parses the `'(' expr-list ')'` suffix of a call expression whose
// callee is 'callee' (Children[0] of the resulting NCallExpr; Children[1:]
// are the argument expressions).
func (p *Parser) finishCall(callee NodeRef) (NodeRef, error) {
	if _, err := p.expect(LParen, "'('"); err != nil {
		return NoRef, err
	}
	node := p.arena.New(NCallExpr, Range{p.arena.At(callee).Range.Begin, 0})
	p.arena.AddChild(node, callee)

	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}
	for tok.Kind != RParen {
		arg, err := p.parseExpr()
		if err != nil {
			return NoRef, err
		}
		p.arena.AddChild(node, arg)

		tok, err = p.peek()
		if err != nil {
			return NoRef, err
		}
		if tok.Kind == Comma {
			if _, err := p.advance(); err != nil {
				return NoRef, err
			}
			tok, err = p.peek()
			if err != nil {
				return NoRef, err
			}
			continue
		}
		break
	}
	rparen, err := p.expect(RParen, "')'")
	if err != nil {
		return NoRef, err
	}
	p.arena.At(node).Range.End = rparen.End
	return node, nil
}

func (p *Parser) parsePrimary() (NodeRef, error) {
	tok, err := p.peek()
	if err != nil {
		return NoRef, err
	}

	switch tok.Kind {
	case IntLiteral:
		p.advance()
		node := p.arena.New(NIntLit, Range{tok.Begin, tok.End})
		p.arena.At(node).LitKind = IntLiteral
		p.arena.At(node).LitText = p.text(tok)
		return node, nil

	case RealLiteral:
		p.advance()
		node := p.arena.New(NRealLit, Range{tok.Begin, tok.End})
		p.arena.At(node).LitKind = RealLiteral
		p.arena.At(node).LitText = p.text(tok)
		return node, nil

	case StringLiteral:
		p.advance()
		raw := p.text(tok)
		value := decodeStringLiteral(raw)
		node := p.arena.New(NStringLit, Range{tok.Begin, tok.End})
		p.arena.At(node).LitKind = StringLiteral
		p.arena.At(node).LitText = raw
		p.arena.At(node).StrIndex = p.strings.Intern(value)
		return node, nil

	case CharLiteral:
		p.advance()
		node := p.arena.New(NCharLit, Range{tok.Begin, tok.End})
		p.arena.At(node).LitKind = CharLiteral
		p.arena.At(node).LitText = p.text(tok)
		return node, nil

	case KwTrue, KwFalse:
		p.advance()
		node := p.arena.New(NBoolLit, Range{tok.Begin, tok.End})
		p.arena.At(node).LitKind = tok.Kind
		p.arena.At(node).LitText = p.text(tok)
		return node, nil

	case Identifier:
		p.advance()
		node := p.arena.New(NIdentExpr, Range{tok.Begin, tok.End})
		p.arena.At(node).Text = p.text(tok)
		return node, nil

	case LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return NoRef, err
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return NoRef, err
		}
		return inner, nil

	case KwCast:
		return p.parseCast()

	default:
		return NoRef, p.ctx.Report(ErrParse, Range{tok.Begin, tok.End}, "expected an expression")
	}
}

// parseCast parses `'cast' '(' typename ',' expr ')'`. Which conversions are
// actually lowerable is decided at code generation time.
func (p *Parser) parseCast() (NodeRef, error) {
	kwTok, err := p.expect(KwCast, "'cast'")
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return NoRef, err
	}
	typeTok, err := p.expect(Typename, "a target typename")
	if err != nil {
		return NoRef, err
	}
	if _, err := p.expect(Comma, "','"); err != nil {
		return NoRef, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return NoRef, err
	}
	rparen, err := p.expect(RParen, "')'")
	if err != nil {
		return NoRef, err
	}
	node := p.arena.New(NCastExpr, Range{kwTok.Begin, rparen.End})
	p.arena.At(node).TypeName = p.text(typeTok)
	p.arena.AddChild(node, expr)
	return node, nil
}

// decodeStringLiteral strips the surrounding quotes and resolves backslash
// escapes. The lexer's only contract is that a backslash consumes the next
// byte unconditionally; this applies the conventional C-style escape values
// for the common cases and otherwise passes the escaped byte through
// literally.
func decodeStringLiteral(raw string) string {
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] != '\\' || i+1 >= len(inner) {
			b.WriteByte(inner[i])
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String()
}
