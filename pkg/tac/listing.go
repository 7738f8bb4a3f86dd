package tac

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// General information

// This section renders a Program as a human-readable listing, backing the
// compiler driver's -p flag. The format is diagnostic output, not an
// interchange format: nothing parses it back.

// Listing renders every function's instruction stream with resolved operand
// addresses.
func (p *Program) Listing() string {
	var b strings.Builder
	for _, fn := range p.Functions {
		fmt.Fprintf(&b, "%s:\n", fn.Name)
		for _, inst := range fn.Instrs {
			label := "      "
			if inst.Label != 0 {
				label = fmt.Sprintf("L%-4d ", inst.Label)
			}
			fmt.Fprintf(&b, "  %s%s\n", label, p.formatInstruction(inst))
		}
	}
	return b.String()
}

func (p *Program) formatInstruction(inst Instruction) string {
	operand := func(idx Index) string { return p.Pool.At(idx).String() }

	switch inst.Op {
	case OpNop:
		return "nop"
	case OpReturn:
		if inst.Src1 == Unused {
			return "return"
		}
		return fmt.Sprintf("return %s", operand(inst.Src1))
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpGt, OpLt, OpGe, OpLe, OpEq, OpNe:
		return fmt.Sprintf("%s := %s %s %s", operand(inst.Dst), operand(inst.Src1), inst.Op, operand(inst.Src2))
	case OpNeg, OpNot:
		return fmt.Sprintf("%s := %s %s", operand(inst.Dst), inst.Op, operand(inst.Src1))
	case OpCallVoid:
		return fmt.Sprintf("call %s", inst.Callee)
	case OpCall:
		return fmt.Sprintf("%s := call %s", operand(inst.Dst), inst.Callee)
	case OpCopy:
		return fmt.Sprintf("%s := %s", operand(inst.Dst), operand(inst.Src1))
	case OpCastRealToInt:
		return fmt.Sprintf("%s := int(%s)", operand(inst.Dst), operand(inst.Src1))
	case OpIfFalseGoto:
		return fmt.Sprintf("if-false %s goto %s", operand(inst.Src1), operand(inst.Dst))
	case OpGoto:
		return fmt.Sprintf("goto %s", operand(inst.Dst))
	case OpAddressOf:
		return fmt.Sprintf("%s := &%s", operand(inst.Dst), operand(inst.Src1))
	case OpLoadIndirect:
		return fmt.Sprintf("%s := *%s", operand(inst.Dst), operand(inst.Src1))
	case OpStoreIndirect:
		return fmt.Sprintf("*%s := %s", operand(inst.Dst), operand(inst.Src1))
	case OpDeclareParameter:
		return fmt.Sprintf("param %s", operand(inst.Src1))
	case OpPushArg:
		return fmt.Sprintf("push-arg %s", operand(inst.Src1))
	default:
		return inst.Op.String()
	}
}
