package tac

import (
	"fmt"
	"strconv"

	"langforge.dev/toolkit/pkg/container"
	"langforge.dev/toolkit/pkg/lang"
)

// ----------------------------------------------------------------------------
// General information

// This section implements three-address-code generation: a statement-order walk
// of the typed AST that lowers every expression into fresh temporaries, every
// control construct into label/goto pairs, and every call into a run of
// push-arg pseudo-instructions immediately preceding the call itself (the x64
// backend consumes those to build the argument list).
//
// Labels are monotonically-assigned ids, not instruction indices: a forward
// branch allocates its target id up front, and the id is stamped onto whichever
// instruction the generator emits next once the target position is reached.
// When two labels land on the same position a no-op is emitted to carry the
// first, preserving the "label ids resolve to exactly one instruction"
// invariant.

// Generator lowers a resolved, type-checked AST into a Program.
type Generator struct {
	ctx     *lang.Context
	arena   *lang.Arena
	strings *lang.StringTable
	pool    *Pool
	globals map[string]bool

	// Per-function state, reset by genFunction.
	fn           *Function
	nextLabel    int
	pendingLabel int
	breakLabels  container.Stack[int]
	localNames   map[*lang.Symbol]string
	nameCounts   map[string]int
}

// NewGenerator wires the generator onto the front end's arena and string table.
func NewGenerator(ctx *lang.Context, arena *lang.Arena, strings *lang.StringTable) *Generator {
	return &Generator{ctx: ctx, arena: arena, strings: strings, pool: NewPool(), globals: map[string]bool{}}
}

// valKindOf maps a front-end type to the backend value-category hint.
func valKindOf(t *lang.Type) ValKind {
	if t == nil || t.Class != lang.ClassBasic {
		return ValInt // struct/pointer values are manipulated as addresses
	}
	switch t.Basic {
	case lang.TReal:
		return ValReal
	case lang.TBool:
		return ValBool
	case lang.TChar:
		return ValChar
	case lang.TString:
		return ValString
	default:
		return ValInt
	}
}

// slotsOf returns how many 8-byte frame slots a declared type occupies.
func slotsOf(t *lang.Type) int {
	if t != nil && t.Class == lang.ClassStruct {
		return len(t.Fields)
	}
	return 1
}

// Generate lowers the whole program rooted at 'root' (an NProgram node).
// Global-variable initializers, when present, are gathered into a synthetic
// leading function the emitted runtime entry point runs before main.
func (g *Generator) Generate(root lang.NodeRef) (*Program, error) {
	program := &Program{Pool: g.pool}

	var initDecls []lang.NodeRef
	node := g.arena.At(root)
	for _, child := range node.Children {
		n := g.arena.At(child)
		switch n.Kind {
		case lang.NVarDecl:
			program.Globals = append(program.Globals, Local{
				Name:  n.Text,
				Slots: slotsOf(n.Type),
				Val:   valKindOf(n.Type),
			})
			g.globals[n.Text] = true
			if n.HasInit {
				initDecls = append(initDecls, child)
			}
		}
	}

	if len(initDecls) > 0 {
		fn, err := g.genGlobalInit(initDecls)
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, *fn)
	}

	for _, child := range node.Children {
		if g.arena.At(child).Kind != lang.NFuncDecl {
			continue
		}
		fn, err := g.genFunction(child)
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, *fn)
	}

	total := 0
	for _, fn := range program.Functions {
		total += len(fn.Instrs)
	}
	g.ctx.Logger.Debug().
		Int("functions", len(program.Functions)).
		Int("instructions", total).
		Msg("tac generation complete")
	return program, nil
}

// GlobalInitFunc is the name of the synthetic function carrying global-variable
// initializer code; the backend's entry point calls it before the user's main.
const GlobalInitFunc = "__globals"

func (g *Generator) genGlobalInit(decls []lang.NodeRef) (*Function, error) {
	g.resetFunction(&Function{Name: GlobalInitFunc})
	for _, ref := range decls {
		n := g.arena.At(ref)
		initRef := n.Children[len(n.Children)-1]
		src, err := g.genExpr(initRef)
		if err != nil {
			return nil, err
		}
		g.emit(Instruction{Op: OpCopy, Src1: src, Dst: g.pool.Symbol(n.Text, valKindOf(n.Type))})
	}
	g.emit(Instruction{Op: OpReturn})
	return g.fn, nil
}

func (g *Generator) resetFunction(fn *Function) {
	g.fn = fn
	g.nextLabel = 0
	g.pendingLabel = 0
	g.breakLabels = container.Stack[int]{}
	g.localNames = map[*lang.Symbol]string{}
	g.nameCounts = map[string]int{}
}

// emit appends one instruction, stamping any pending label onto it.
func (g *Generator) emit(inst Instruction) {
	if g.pendingLabel != 0 {
		inst.Label = g.pendingLabel
		g.pendingLabel = 0
	}
	g.fn.Instrs = append(g.fn.Instrs, inst)
}

// newLabel allocates a fresh label id, unique within the current function.
func (g *Generator) newLabel() int {
	g.nextLabel++
	return g.nextLabel
}

// placeLabel marks 'id' as the label of the next emitted instruction. If a
// label is already pending a no-op is emitted to carry it, so two branch
// targets never collapse onto one instruction.
func (g *Generator) placeLabel(id int) {
	if g.pendingLabel != 0 {
		g.emit(Instruction{Op: OpNop})
	}
	g.pendingLabel = id
}

// newTemp allocates a fresh temporary and returns its pool address.
func (g *Generator) newTemp(val ValKind) Index {
	seq := g.fn.Temps
	g.fn.Temps++
	return g.pool.Temp(seq, val)
}

// localName returns the frame-unique name for a resolved symbol. Shadowed
// declarations of the same source name get a numeric suffix so each owns a
// distinct frame slot.
func (g *Generator) localName(sym *lang.Symbol) string {
	if sym.Kind == lang.GlobalVar || sym.Kind == lang.Function {
		return sym.Name
	}
	if name, ok := g.localNames[sym]; ok {
		return name
	}
	// A local must never share a frame name with another local of the same
	// source name (shadowing) or with a global it shadows, else they would
	// collapse onto one slot.
	name := sym.Name
	if count := g.nameCounts[sym.Name]; count > 0 || g.globals[sym.Name] {
		name = fmt.Sprintf("%s$%d", sym.Name, count)
	}
	g.nameCounts[sym.Name]++
	g.localNames[sym] = name
	return name
}

func (g *Generator) genFunction(ref lang.NodeRef) (*Function, error) {
	n := g.arena.At(ref)
	g.resetFunction(&Function{
		Name:        n.Text,
		ReturnsReal: n.Type.Return.Equal(lang.BasicType(lang.TReal)),
	})

	for _, paramRef := range n.Children[:n.NumParams] {
		param := g.arena.At(paramRef)
		if param.Type != nil && param.Type.Class == lang.ClassStruct {
			return nil, g.ctx.Report(lang.ErrCodegen, param.Range, "struct-typed parameter %q is not implemented", param.Text)
		}
		name := g.localName(param.Symbol)
		val := valKindOf(param.Type)
		g.fn.Params = append(g.fn.Params, Local{Name: name, Slots: 1, Val: val})
		g.emit(Instruction{Op: OpDeclareParameter, Src1: g.pool.Symbol(name, val)})
	}

	bodyRef := n.Children[len(n.Children)-1]
	if err := g.genBlock(bodyRef); err != nil {
		return nil, err
	}

	// A function falling off its closing brace (and any pending branch target
	// placed there) still needs a return to reach the epilogue.
	if g.pendingLabel != 0 || len(g.fn.Instrs) == 0 || g.fn.Instrs[len(g.fn.Instrs)-1].Op != OpReturn {
		g.emit(Instruction{Op: OpReturn})
	}
	return g.fn, nil
}

// ----------------------------------------------------------------------------
// Statements

func (g *Generator) genBlock(ref lang.NodeRef) error {
	for _, stmt := range g.arena.At(ref).Children {
		if err := g.genStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// genBlockOrIf lowers an if-statement branch that is either a plain block or,
// for "else if" chaining, a nested if statement.
func (g *Generator) genBlockOrIf(ref lang.NodeRef) error {
	if g.arena.At(ref).Kind == lang.NIfStmt {
		return g.genStatement(ref)
	}
	return g.genBlock(ref)
}

func (g *Generator) genStatement(ref lang.NodeRef) error {
	n := g.arena.At(ref)
	switch n.Kind {
	case lang.NVarDecl:
		name := g.localName(n.Symbol)
		g.fn.Locals = append(g.fn.Locals, Local{Name: name, Slots: slotsOf(n.Type), Val: valKindOf(n.Type)})
		if n.HasInit {
			src, err := g.genExpr(n.Children[len(n.Children)-1])
			if err != nil {
				return err
			}
			g.emit(Instruction{Op: OpCopy, Src1: src, Dst: g.pool.Symbol(name, valKindOf(n.Type))})
		}
		return nil

	case lang.NStructDecl:
		return nil // a local struct declares a type, not storage

	case lang.NBlock:
		return g.genBlock(ref)

	case lang.NReturnStmt:
		if len(n.Children) == 1 {
			src, err := g.genExpr(n.Children[0])
			if err != nil {
				return err
			}
			g.emit(Instruction{Op: OpReturn, Src1: src})
			return nil
		}
		g.emit(Instruction{Op: OpReturn})
		return nil

	case lang.NIfStmt:
		return g.genIf(ref)

	case lang.NWhileStmt:
		return g.genWhile(ref)

	case lang.NBreakStmt:
		end, ok := g.breakLabels.Top()
		if !ok {
			return g.ctx.Report(lang.ErrCodegen, n.Range, "'break' outside of a loop")
		}
		g.emit(Instruction{Op: OpGoto, Dst: g.pool.Label(end)})
		return nil

	case lang.NExprStmt:
		_, err := g.genExpr(n.Children[0])
		return err

	case lang.NAssignStmt:
		return g.genAssign(ref)
	}
	return nil
}

// genIf lowers `if (cond) then else alt` into exactly one if-false-goto whose
// target is the first instruction of the else branch (or the join point when
// there is no else) and, when an else exists, one unconditional goto past it.
func (g *Generator) genIf(ref lang.NodeRef) error {
	n := g.arena.At(ref)
	cond, err := g.genExpr(n.Children[0])
	if err != nil {
		return err
	}

	elseLabel := g.newLabel()
	g.emit(Instruction{Op: OpIfFalseGoto, Src1: cond, Dst: g.pool.Label(elseLabel)})

	if err := g.genBlockOrIf(n.Children[1]); err != nil {
		return err
	}

	if len(n.Children) == 3 {
		endLabel := g.newLabel()
		g.emit(Instruction{Op: OpGoto, Dst: g.pool.Label(endLabel)})
		g.placeLabel(elseLabel)
		if err := g.genBlockOrIf(n.Children[2]); err != nil {
			return err
		}
		g.placeLabel(endLabel)
		return nil
	}

	g.placeLabel(elseLabel)
	return nil
}

func (g *Generator) genWhile(ref lang.NodeRef) error {
	n := g.arena.At(ref)
	startLabel := g.newLabel()
	endLabel := g.newLabel()

	g.placeLabel(startLabel)
	cond, err := g.genExpr(n.Children[0])
	if err != nil {
		return err
	}
	g.emit(Instruction{Op: OpIfFalseGoto, Src1: cond, Dst: g.pool.Label(endLabel)})

	g.breakLabels.Push(endLabel)
	err = g.genBlock(n.Children[1])
	g.breakLabels.Pop()
	if err != nil {
		return err
	}

	g.emit(Instruction{Op: OpGoto, Dst: g.pool.Label(startLabel)})
	g.placeLabel(endLabel)
	return nil
}

func (g *Generator) genAssign(ref lang.NodeRef) error {
	n := g.arena.At(ref)
	lhs := g.arena.At(n.Children[0])

	src, err := g.genExpr(n.Children[1])
	if err != nil {
		return err
	}

	switch lhs.Kind {
	case lang.NIdentExpr:
		dst := g.pool.Symbol(g.localName(lhs.Symbol), valKindOf(lhs.Type))
		g.emit(Instruction{Op: OpCopy, Src1: src, Dst: dst})
		return nil

	case lang.NDotExpr:
		addr, err := g.genFieldAddr(n.Children[0])
		if err != nil {
			return err
		}
		g.emit(Instruction{Op: OpStoreIndirect, Src1: src, Dst: addr})
		return nil
	}
	return g.ctx.Report(lang.ErrCodegen, lhs.Range, "assignment target must be a variable or a struct field")
}

// ----------------------------------------------------------------------------
// Expressions

var binaryOpcodes = map[lang.ExprOp]Opcode{
	lang.EAdd: OpAdd, lang.ESub: OpSub, lang.EMul: OpMul, lang.EDiv: OpDiv, lang.EMod: OpMod,
	lang.EGt: OpGt, lang.ELt: OpLt, lang.EGe: OpGe, lang.ELe: OpLe, lang.EEq: OpEq, lang.ENe: OpNe,
}

// genExpr lowers one expression into instructions whose result lands in the
// returned address (a constant, a symbol, or a fresh temporary).
func (g *Generator) genExpr(ref lang.NodeRef) (Index, error) {
	n := g.arena.At(ref)
	switch n.Kind {
	case lang.NIntLit:
		v, err := strconv.ParseInt(n.LitText, 10, 64)
		if err != nil {
			return Unused, g.ctx.Report(lang.ErrCodegen, n.Range, "integer literal %q out of range", n.LitText)
		}
		return g.pool.IntConst(v), nil

	case lang.NRealLit:
		v, err := strconv.ParseFloat(n.LitText, 64)
		if err != nil {
			return Unused, g.ctx.Report(lang.ErrCodegen, n.Range, "real literal %q out of range", n.LitText)
		}
		return g.pool.RealConst(v), nil

	case lang.NStringLit:
		return g.pool.StringConst(n.StrIndex), nil

	case lang.NCharLit:
		return g.pool.CharConst(charValue(n.LitText)), nil

	case lang.NBoolLit:
		return g.pool.BoolConst(n.LitKind == lang.KwTrue), nil

	case lang.NIdentExpr:
		return g.pool.Symbol(g.localName(n.Symbol), valKindOf(n.Type)), nil

	case lang.NDotExpr:
		addr, err := g.genFieldAddr(ref)
		if err != nil {
			return Unused, err
		}
		dst := g.newTemp(valKindOf(n.Type))
		g.emit(Instruction{Op: OpLoadIndirect, Src1: addr, Dst: dst})
		return dst, nil

	case lang.NCallExpr:
		return g.genCall(ref)

	case lang.NBinaryExpr:
		left, err := g.genExpr(n.Children[0])
		if err != nil {
			return Unused, err
		}
		right, err := g.genExpr(n.Children[1])
		if err != nil {
			return Unused, err
		}
		dst := g.newTemp(valKindOf(n.Type))
		g.emit(Instruction{Op: binaryOpcodes[n.Op], Src1: left, Src2: right, Dst: dst})
		return dst, nil

	case lang.NUnaryExpr:
		operand, err := g.genExpr(n.Children[0])
		if err != nil {
			return Unused, err
		}
		dst := g.newTemp(valKindOf(n.Type))
		op := OpNeg
		if n.Op == lang.ENot {
			op = OpNot
		}
		g.emit(Instruction{Op: op, Src1: operand, Dst: dst})
		return dst, nil

	case lang.NCastExpr:
		return g.genCast(ref)
	}
	return Unused, g.ctx.Report(lang.ErrCodegen, n.Range, "cannot lower node kind %d", n.Kind)
}

func (g *Generator) genCall(ref lang.NodeRef) (Index, error) {
	n := g.arena.At(ref)
	callee := g.arena.At(n.Children[0])

	for _, argRef := range n.Children[1:] {
		arg, err := g.genExpr(argRef)
		if err != nil {
			return Unused, err
		}
		g.emit(Instruction{Op: OpPushArg, Src1: arg, Callee: callee.Text})
	}

	if n.Type.Equal(lang.BasicType(lang.TVoid)) {
		g.emit(Instruction{Op: OpCallVoid, Callee: callee.Text})
		return Unused, nil
	}
	dst := g.newTemp(valKindOf(n.Type))
	g.emit(Instruction{Op: OpCall, Dst: dst, Callee: callee.Text})
	return dst, nil
}

// genCast lowers `cast(typename, expr)`. Only real->int is lowerable; a cast
// between identical types is a no-op, anything else is a codegen-error rather
// than silently wrong output.
func (g *Generator) genCast(ref lang.NodeRef) (Index, error) {
	n := g.arena.At(ref)
	inner := g.arena.At(n.Children[0])

	src, err := g.genExpr(n.Children[0])
	if err != nil {
		return Unused, err
	}
	if n.Type.Equal(inner.Type) {
		return src, nil
	}
	if n.Type.Equal(lang.BasicType(lang.TInt)) && inner.Type.Equal(lang.BasicType(lang.TReal)) {
		dst := g.newTemp(ValInt)
		g.emit(Instruction{Op: OpCastRealToInt, Src1: src, Dst: dst})
		return dst, nil
	}
	return Unused, g.ctx.Report(lang.ErrCodegen, n.Range, "cast from %s to %s is not implemented", inner.Type, n.Type)
}

// genFieldAddr computes the address of a struct field named by an NDotExpr:
// the base variable's address plus the field's slot offset, chained for nested
// field accesses.
func (g *Generator) genFieldAddr(ref lang.NodeRef) (Index, error) {
	n := g.arena.At(ref)
	base := g.arena.At(n.Children[0])

	var baseAddr Index
	switch base.Kind {
	case lang.NIdentExpr:
		baseAddr = g.newTemp(ValInt)
		g.emit(Instruction{
			Op:   OpAddressOf,
			Src1: g.pool.Symbol(g.localName(base.Symbol), valKindOf(base.Type)),
			Dst:  baseAddr,
		})
	case lang.NDotExpr:
		addr, err := g.genFieldAddr(n.Children[0])
		if err != nil {
			return Unused, err
		}
		baseAddr = addr
	default:
		return Unused, g.ctx.Report(lang.ErrCodegen, base.Range, "field access base must be a variable or a field")
	}

	offset := int64(n.Symbol.Seq) * 8
	if offset == 0 {
		return baseAddr, nil
	}
	sum := g.newTemp(ValInt)
	g.emit(Instruction{Op: OpAdd, Src1: baseAddr, Src2: g.pool.IntConst(offset), Dst: sum})
	return sum, nil
}

// charValue decodes a character literal's source text ('a', '\n', ...) into
// its byte value. The lexer guarantees the quote/escape shape.
func charValue(text string) byte {
	inner := text[1 : len(text)-1]
	if inner[0] != '\\' {
		return inner[0]
	}
	switch inner[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return inner[1]
	}
}
