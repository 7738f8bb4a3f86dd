package x64

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"langforge.dev/toolkit/pkg/lang"
	"langforge.dev/toolkit/pkg/tac"
)

// ----------------------------------------------------------------------------
// General information

// This section drives the lowering of a tac.Program into the final assembly
// listing. Every function label is the source name prefixed with a dot
// (assembler-local, invisible to the linker); the one exported symbol is the
// 'main' wrapper at the bottom of .text, which runs the synthetic
// global-initializer function when one exists, calls the source-level main and
// exits with status 0. Binary operations evaluate through the RAX/RCX register
// pair (XMM0/XMM1 for reals); every TAC operand round-trips through its frame
// slot between instructions, which keeps the lowering a direct per-instruction
// translation with no register allocation.

// Emitter lowers one tac.Program into an assembly listing.
type Emitter struct {
	program *tac.Program
	strings *lang.StringTable
	logger  zerolog.Logger

	frame   frame
	fnLabel string
	pending []tac.Index // staged push-arg addresses awaiting the next call

	realLabels map[uint64]string // float bit pattern -> rodata label
	realOrder  []uint64
}

// NewEmitter wires the emitter onto the generator's output and the front
// end's interned string table.
func NewEmitter(program *tac.Program, strings *lang.StringTable, logger zerolog.Logger) *Emitter {
	return &Emitter{program: program, strings: strings, logger: logger, realLabels: map[uint64]string{}}
}

// Emit renders the whole program: safety wrappers and functions in .text, the
// exported main wrapper, interned strings, real constants and printf format
// strings in .rodata, and zero-initialised globals in .bss.
func (e *Emitter) Emit() (string, error) {
	var text strings.Builder
	text.WriteString("\t.text\n\n")
	safeWrappers(&text)

	hasMain, hasInit := false, false
	for i := range e.program.Functions {
		fn := &e.program.Functions[i]
		if fn.Name == "main" {
			hasMain = true
		}
		if fn.Name == tac.GlobalInitFunc {
			hasInit = true
		}
		if err := e.emitFunction(&text, fn); err != nil {
			return "", err
		}
	}

	if hasMain {
		text.WriteString("\t.globl\tmain\n")
		text.WriteString("main:\n")
		text.WriteString("\tpushq\t%rbp\n")
		text.WriteString("\tmovq\t%rsp, %rbp\n")
		if hasInit {
			fmt.Fprintf(&text, "\tcall\t.%s\n", tac.GlobalInitFunc)
		}
		text.WriteString("\tcall\t.main\n")
		text.WriteString("\tmovq\t$0, %rdi\n")
		text.WriteString("\tcall\texit\n\n")
	}

	e.emitRodata(&text)
	e.emitBss(&text)

	e.logger.Debug().
		Int("functions", len(e.program.Functions)).
		Int("globals", len(e.program.Globals)).
		Msg("assembly emission complete")
	return text.String(), nil
}

// ----------------------------------------------------------------------------
// Function lowering

func (e *Emitter) emitFunction(b *strings.Builder, fn *tac.Function) error {
	e.frame = layoutFrame(fn)
	e.fnLabel = "." + fn.Name
	e.pending = e.pending[:0]

	fmt.Fprintf(b, "%s:\n", e.fnLabel)
	b.WriteString("\tpushq\t%rbp\n")
	b.WriteString("\tmovq\t%rsp, %rbp\n")
	for _, home := range e.frame.homes {
		if home.real {
			b.WriteString("\tsubq\t$8, %rsp\n")
			fmt.Fprintf(b, "\tmovsd\t%s, (%%rsp)\n", home.reg)
		} else {
			fmt.Fprintf(b, "\tpushq\t%s\n", home.reg)
		}
	}
	if e.frame.residual > 0 {
		fmt.Fprintf(b, "\tsubq\t$%d, %%rsp\n", e.frame.residual)
	}

	for _, inst := range fn.Instrs {
		if inst.Label != 0 {
			fmt.Fprintf(b, "%s_L%d:\n", e.fnLabel, inst.Label)
		}
		if err := e.emitInstruction(b, fn, inst); err != nil {
			return err
		}
	}

	fmt.Fprintf(b, "%s_ret:\n", e.fnLabel)
	b.WriteString("\tmovq\t%rbp, %rsp\n")
	b.WriteString("\tpopq\t%rbp\n")
	b.WriteString("\tret\n\n")

	e.logger.Debug().Str("function", fn.Name).Int("instructions", len(fn.Instrs)).Msg("function lowered")
	return nil
}

func (e *Emitter) emitInstruction(b *strings.Builder, fn *tac.Function, inst tac.Instruction) error {
	switch inst.Op {
	case tac.OpNop:
		b.WriteString("\tnop\n")
		return nil

	case tac.OpDeclareParameter:
		return nil // homed by the prologue

	case tac.OpAdd, tac.OpSub, tac.OpMul, tac.OpDiv, tac.OpMod,
		tac.OpGt, tac.OpLt, tac.OpGe, tac.OpLe, tac.OpEq, tac.OpNe:
		return e.emitBinary(b, inst)

	case tac.OpNeg:
		if e.isReal(inst.Src1) {
			return fmt.Errorf("%w: unary negate on a real operand is not implemented", lang.ErrCodegen)
		}
		e.loadInt(b, "%rax", inst.Src1)
		b.WriteString("\tnegq\t%rax\n")
		e.store(b, "%rax", inst.Dst)
		return nil

	case tac.OpNot:
		e.loadInt(b, "%rax", inst.Src1)
		b.WriteString("\tcmpq\t$0, %rax\n")
		b.WriteString("\tsete\t%al\n")
		b.WriteString("\tmovzbq\t%al, %rax\n")
		e.store(b, "%rax", inst.Dst)
		return nil

	case tac.OpCopy:
		// A plain 64-bit move is a faithful copy for every value category.
		e.loadInt(b, "%rax", inst.Src1)
		e.store(b, "%rax", inst.Dst)
		return nil

	case tac.OpCastRealToInt:
		e.loadReal(b, "%xmm0", inst.Src1)
		b.WriteString("\tcvttsd2si\t%xmm0, %rax\n")
		e.store(b, "%rax", inst.Dst)
		return nil

	case tac.OpIfFalseGoto:
		e.loadInt(b, "%rax", inst.Src1)
		b.WriteString("\ttestq\t%rax, %rax\n")
		fmt.Fprintf(b, "\tjz\t%s_L%d\n", e.fnLabel, e.labelID(inst.Dst))
		return nil

	case tac.OpGoto:
		fmt.Fprintf(b, "\tjmp\t%s_L%d\n", e.fnLabel, e.labelID(inst.Dst))
		return nil

	case tac.OpAddressOf:
		src := e.program.Pool.At(inst.Src1)
		if e.frame.isLocal(src.SymbolName) {
			fmt.Fprintf(b, "\tleaq\t%s, %%rax\n", e.frame.slot(src.SymbolName))
		} else {
			fmt.Fprintf(b, "\tleaq\t%s(%%rip), %%rax\n", src.SymbolName)
		}
		e.store(b, "%rax", inst.Dst)
		return nil

	case tac.OpLoadIndirect:
		e.loadInt(b, "%rax", inst.Src1)
		b.WriteString("\tmovq\t(%rax), %rcx\n")
		e.store(b, "%rcx", inst.Dst)
		return nil

	case tac.OpStoreIndirect:
		e.loadInt(b, "%rax", inst.Dst)
		e.loadInt(b, "%rcx", inst.Src1)
		b.WriteString("\tmovq\t%rcx, (%rax)\n")
		return nil

	case tac.OpPushArg:
		e.pending = append(e.pending, inst.Src1)
		return nil

	case tac.OpCallVoid, tac.OpCall:
		return e.emitCall(b, inst)

	case tac.OpReturn:
		if inst.Src1 != tac.Unused {
			if fn.ReturnsReal {
				e.loadReal(b, "%xmm0", inst.Src1)
			} else {
				e.loadInt(b, "%rax", inst.Src1)
			}
		}
		fmt.Fprintf(b, "\tjmp\t%s_ret\n", e.fnLabel)
		return nil
	}
	return fmt.Errorf("%w: opcode %s has no lowering", lang.ErrCodegen, inst.Op)
}

// emitBinary lowers the five arithmetic and six comparison opcodes through
// the RAX/RCX pair (XMM0/XMM1 when either operand is real). Comparisons
// produce 0/1 in the destination via cmp + set<cc> + movzx.
func (e *Emitter) emitBinary(b *strings.Builder, inst tac.Instruction) error {
	if e.isReal(inst.Src1) || e.isReal(inst.Src2) {
		return e.emitRealBinary(b, inst)
	}

	e.loadInt(b, "%rax", inst.Src1)
	e.loadInt(b, "%rcx", inst.Src2)
	switch inst.Op {
	case tac.OpAdd:
		b.WriteString("\taddq\t%rcx, %rax\n")
	case tac.OpSub:
		b.WriteString("\tsubq\t%rcx, %rax\n")
	case tac.OpMul:
		b.WriteString("\timulq\t%rcx, %rax\n")
	case tac.OpDiv:
		b.WriteString("\tcqto\n")
		b.WriteString("\tidivq\t%rcx\n")
	case tac.OpMod:
		b.WriteString("\tcqto\n")
		b.WriteString("\tidivq\t%rcx\n")
		b.WriteString("\tmovq\t%rdx, %rax\n")
	default:
		cc := map[tac.Opcode]string{
			tac.OpGt: "setg", tac.OpLt: "setl", tac.OpGe: "setge",
			tac.OpLe: "setle", tac.OpEq: "sete", tac.OpNe: "setne",
		}[inst.Op]
		b.WriteString("\tcmpq\t%rcx, %rax\n")
		fmt.Fprintf(b, "\t%s\t%%al\n", cc)
		b.WriteString("\tmovzbq\t%al, %rax\n")
	}
	e.store(b, "%rax", inst.Dst)
	return nil
}

func (e *Emitter) emitRealBinary(b *strings.Builder, inst tac.Instruction) error {
	e.loadReal(b, "%xmm0", inst.Src1)
	e.loadReal(b, "%xmm1", inst.Src2)
	switch inst.Op {
	case tac.OpAdd:
		b.WriteString("\taddsd\t%xmm1, %xmm0\n")
	case tac.OpSub:
		b.WriteString("\tsubsd\t%xmm1, %xmm0\n")
	case tac.OpMul:
		b.WriteString("\tmulsd\t%xmm1, %xmm0\n")
	case tac.OpDiv:
		b.WriteString("\tdivsd\t%xmm1, %xmm0\n")
	case tac.OpMod:
		return fmt.Errorf("%w: '%%' on real operands is not implemented", lang.ErrCodegen)
	default:
		cc := map[tac.Opcode]string{
			tac.OpGt: "seta", tac.OpLt: "setb", tac.OpGe: "setae",
			tac.OpLe: "setbe", tac.OpEq: "sete", tac.OpNe: "setne",
		}[inst.Op]
		b.WriteString("\tucomisd\t%xmm1, %xmm0\n")
		fmt.Fprintf(b, "\t%s\t%%al\n", cc)
		b.WriteString("\tmovzbq\t%al, %rax\n")
		e.store(b, "%rax", inst.Dst)
		return nil
	}
	e.storeReal(b, "%xmm0", inst.Dst)
	return nil
}

// ----------------------------------------------------------------------------
// Calls

// emitCall consumes the staged push-arg addresses and lowers a call. The
// builtins print/println expand inline instead of calling a function of that
// name.
func (e *Emitter) emitCall(b *strings.Builder, inst tac.Instruction) error {
	args := e.pending
	e.pending = nil

	if inst.Callee == "print" || inst.Callee == "println" {
		e.emitPrint(b, args, inst.Callee == "println")
		return nil
	}

	// Classify arguments the way layoutFrame classifies parameters, so the
	// callee's home slots line up with what is loaded here.
	type regArg struct {
		reg string
		idx tac.Index
	}
	var regArgs []regArg
	var stackArgs []tac.Index
	ints, reals := 0, 0
	for _, arg := range args {
		real := e.isReal(arg)
		switch {
		case real && reals < len(realArgRegs):
			regArgs = append(regArgs, regArg{realArgRegs[reals], arg})
			reals++
		case !real && ints < len(intArgRegs):
			regArgs = append(regArgs, regArg{intArgRegs[ints], arg})
			ints++
		default:
			stackArgs = append(stackArgs, arg)
		}
	}

	// Stack arguments push right-to-left; an odd push count gets a sentinel
	// so RSP is still 16-byte aligned at the call.
	cleanup := 8 * len(stackArgs)
	if len(stackArgs)%2 == 1 {
		b.WriteString("\tpushq\t$0\n")
		cleanup += 8
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		e.loadInt(b, "%rax", stackArgs[i])
		b.WriteString("\tpushq\t%rax\n")
	}

	for _, ra := range regArgs {
		if strings.HasPrefix(ra.reg, "%xmm") {
			e.loadReal(b, ra.reg, ra.idx)
		} else {
			e.loadInt(b, ra.reg, ra.idx)
		}
	}

	fmt.Fprintf(b, "\tcall\t.%s\n", inst.Callee)
	if cleanup > 0 {
		fmt.Fprintf(b, "\taddq\t$%d, %%rsp\n", cleanup)
	}

	if inst.Op == tac.OpCall {
		if e.isReal(inst.Dst) {
			e.storeReal(b, "%xmm0", inst.Dst)
		} else {
			e.store(b, "%rax", inst.Dst)
		}
	}
	return nil
}

// emitPrint expands a builtin print/println call inline: one safe_printf per
// argument with the per-type format string, plus a raw newline putchar for
// println.
func (e *Emitter) emitPrint(b *strings.Builder, args []tac.Index, newline bool) {
	for _, arg := range args {
		if e.isReal(arg) {
			e.loadReal(b, "%xmm0", arg)
			fmt.Fprintf(b, "\tleaq\t%s(%%rip), %%rdi\n", fmtReal)
			b.WriteString("\tmovb\t$1, %al\n")
		} else {
			e.loadInt(b, "%rsi", arg)
			addr := e.program.Pool.At(arg)
			format := fmtInt
			switch {
			case addr.Kind == tac.AddrStringConst || addr.Val == tac.ValString:
				format = fmtString
			case addr.Val == tac.ValChar:
				format = fmtChar
			}
			fmt.Fprintf(b, "\tleaq\t%s(%%rip), %%rdi\n", format)
			b.WriteString("\txorl\t%eax, %eax\n")
		}
		b.WriteString("\tcall\tsafe_printf\n")
	}
	if newline {
		b.WriteString("\tmovq\t$10, %rdi\n")
		b.WriteString("\tcall\tsafe_putchar\n")
	}
}

// ----------------------------------------------------------------------------
// Operand plumbing

// isReal reports whether the pool address at 'idx' carries a scalar-double
// value.
func (e *Emitter) isReal(idx tac.Index) bool {
	a := e.program.Pool.At(idx)
	if a.Kind == tac.AddrRealConst {
		return true
	}
	return (a.Kind == tac.AddrSymbol || a.Kind == tac.AddrTemp) && a.Val == tac.ValReal
}

func (e *Emitter) labelID(idx tac.Index) int { return e.program.Pool.At(idx).Label }

// loadInt materialises the pool address at 'idx' into an integer register. A
// real constant loads as a raw 64-bit pattern, which is what copy/store paths
// want; arithmetic goes through loadReal instead.
func (e *Emitter) loadInt(b *strings.Builder, reg string, idx tac.Index) {
	a := e.program.Pool.At(idx)
	switch a.Kind {
	case tac.AddrIntConst, tac.AddrSizeConst:
		fmt.Fprintf(b, "\tmovq\t$%d, %s\n", a.IntValue, reg)
	case tac.AddrBoolConst:
		v := 0
		if a.BoolValue {
			v = 1
		}
		fmt.Fprintf(b, "\tmovq\t$%d, %s\n", v, reg)
	case tac.AddrStringConst:
		fmt.Fprintf(b, "\tleaq\t.LCstr%d(%%rip), %s\n", a.StrIndex, reg)
	case tac.AddrRealConst:
		fmt.Fprintf(b, "\tmovq\t%s(%%rip), %s\n", e.realConstLabel(a.RealValue), reg)
	case tac.AddrSymbol:
		fmt.Fprintf(b, "\tmovq\t%s, %s\n", e.frame.slot(a.SymbolName), reg)
	case tac.AddrTemp:
		fmt.Fprintf(b, "\tmovq\t%s, %s\n", e.frame.tempSlot(a.Temp), reg)
	}
}

func (e *Emitter) loadReal(b *strings.Builder, xmm string, idx tac.Index) {
	a := e.program.Pool.At(idx)
	switch a.Kind {
	case tac.AddrRealConst:
		fmt.Fprintf(b, "\tmovsd\t%s(%%rip), %s\n", e.realConstLabel(a.RealValue), xmm)
	case tac.AddrSymbol:
		fmt.Fprintf(b, "\tmovsd\t%s, %s\n", e.frame.slot(a.SymbolName), xmm)
	case tac.AddrTemp:
		fmt.Fprintf(b, "\tmovsd\t%s, %s\n", e.frame.tempSlot(a.Temp), xmm)
	}
}

func (e *Emitter) store(b *strings.Builder, reg string, idx tac.Index) {
	a := e.program.Pool.At(idx)
	switch a.Kind {
	case tac.AddrSymbol:
		fmt.Fprintf(b, "\tmovq\t%s, %s\n", reg, e.frame.slot(a.SymbolName))
	case tac.AddrTemp:
		fmt.Fprintf(b, "\tmovq\t%s, %s\n", reg, e.frame.tempSlot(a.Temp))
	}
}

func (e *Emitter) storeReal(b *strings.Builder, xmm string, idx tac.Index) {
	a := e.program.Pool.At(idx)
	switch a.Kind {
	case tac.AddrSymbol:
		fmt.Fprintf(b, "\tmovsd\t%s, %s\n", xmm, e.frame.slot(a.SymbolName))
	case tac.AddrTemp:
		fmt.Fprintf(b, "\tmovsd\t%s, %s\n", xmm, e.frame.tempSlot(a.Temp))
	}
}

// realConstLabel interns a real constant into .rodata and returns its label.
func (e *Emitter) realConstLabel(v float64) string {
	bits := math.Float64bits(v)
	if label, ok := e.realLabels[bits]; ok {
		return label
	}
	label := fmt.Sprintf(".LCreal%d", len(e.realOrder))
	e.realLabels[bits] = label
	e.realOrder = append(e.realOrder, bits)
	return label
}

// ----------------------------------------------------------------------------
// Data sections

func (e *Emitter) emitRodata(b *strings.Builder) {
	b.WriteString("\t.section\t.rodata\n")
	fmt.Fprintf(b, "%s:\n\t.string\t\"%%ld\"\n", fmtInt)
	fmt.Fprintf(b, "%s:\n\t.string\t\"%%f\"\n", fmtReal)
	fmt.Fprintf(b, "%s:\n\t.string\t\"%%s\"\n", fmtString)
	fmt.Fprintf(b, "%s:\n\t.string\t\"%%c\"\n", fmtChar)

	for i := 0; i < e.strings.Len(); i++ {
		fmt.Fprintf(b, ".LCstr%d:\n\t.string\t\"%s\"\n", i, escapeString(e.strings.Get(i)))
	}

	if len(e.realOrder) > 0 {
		b.WriteString("\t.align\t8\n")
		for i, bits := range e.realOrder {
			fmt.Fprintf(b, ".LCreal%d:\n\t.quad\t0x%016x\n", i, bits)
		}
	}
	b.WriteString("\n")
}

func (e *Emitter) emitBss(b *strings.Builder) {
	if len(e.program.Globals) == 0 {
		return
	}
	b.WriteString("\t.bss\n")
	for _, global := range e.program.Globals {
		b.WriteString("\t.align\t8\n")
		fmt.Fprintf(b, "%s:\n\t.zero\t%d\n", global.Name, 8*global.Slots)
	}
}

// escapeString renders an interned string for a .string directive: printable
// bytes pass through, quotes and backslashes are escaped, everything else
// becomes an octal escape.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString("\\n")
		case c == '\t':
			b.WriteString("\\t")
		case c >= 0x20 && c < 0x7F:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "\\%03o", c)
		}
	}
	return b.String()
}
