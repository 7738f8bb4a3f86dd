package tac_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/lang"
	"langforge.dev/toolkit/pkg/tac"
)

// lower runs the whole front end plus TAC generation over 'source'.
func lower(t *testing.T, source string) *tac.Program {
	t.Helper()
	ctx := lang.NewContext([]byte(source), lang.DiagnosticMode)
	arena, table := &lang.Arena{}, lang.NewStringTable()

	root, err := lang.NewParser(ctx, arena, table).ParseProgram()
	require.NoError(t, err)
	require.Empty(t, ctx.Diagnostics)
	require.NoError(t, lang.NewResolver(ctx, arena).Resolve(root))
	require.NoError(t, lang.NewTypeChecker(ctx, arena).Check(root))

	program, err := tac.NewGenerator(ctx, arena, table).Generate(root)
	require.NoError(t, err)
	return program
}

// findFunction returns the named function's TAC.
func findFunction(t *testing.T, program *tac.Program, name string) *tac.Function {
	t.Helper()
	for i := range program.Functions {
		if program.Functions[i].Name == name {
			return &program.Functions[i]
		}
	}
	t.Fatalf("no function %q in program", name)
	return nil
}

// labelTarget returns the index of the instruction carrying label 'id'.
func labelTarget(t *testing.T, fn *tac.Function, id int) int {
	t.Helper()
	target := -1
	for i, inst := range fn.Instrs {
		if inst.Label == id {
			require.Equal(t, -1, target, "label %d must resolve to exactly one instruction", id)
			target = i
		}
	}
	require.NotEqual(t, -1, target, "label %d must resolve to an instruction", id)
	return target
}

// The last non-return instruction of `return a + b` is a binary add into a
// fresh temporary.
func TestGenerateBinaryAdd(t *testing.T) {
	program := lower(t, `f := (int a, int b) -> int { return a + b; }`)
	fn := findFunction(t, program, "f")

	require.Equal(t, tac.OpReturn, fn.Instrs[len(fn.Instrs)-1].Op)
	add := fn.Instrs[len(fn.Instrs)-2]
	require.Equal(t, tac.OpAdd, add.Op)
	require.Equal(t, tac.AddrTemp, program.Pool.At(add.Dst).Kind)
	require.Equal(t, "a", program.Pool.At(add.Src1).SymbolName)
	require.Equal(t, "b", program.Pool.At(add.Src2).SymbolName)

	// The returned value is the very temporary the add produced.
	require.Equal(t, add.Dst, fn.Instrs[len(fn.Instrs)-1].Src1)
}

// An if/else produces exactly one if-false-goto targeting the first
// instruction of the else block, and one goto after the true block targeting
// the instruction after the else block.
func TestGenerateIfElseShape(t *testing.T) {
	program := lower(t, `
		f := (int x) -> int {
			if (x > 0) { return 1; } else { return 2; }
		}
	`)
	fn := findFunction(t, program, "f")

	var ifFalse, gotos []int
	for i, inst := range fn.Instrs {
		switch inst.Op {
		case tac.OpIfFalseGoto:
			ifFalse = append(ifFalse, i)
		case tac.OpGoto:
			gotos = append(gotos, i)
		}
	}
	require.Len(t, ifFalse, 1)
	require.Len(t, gotos, 1)

	branch := fn.Instrs[ifFalse[0]]
	elseStart := labelTarget(t, fn, program.Pool.At(branch.Dst).Label)
	// The true block is everything between the branch and the goto; the else
	// block starts right after the goto.
	require.Equal(t, gotos[0]+1, elseStart)

	join := labelTarget(t, fn, program.Pool.At(fn.Instrs[gotos[0]].Dst).Label)
	require.Greater(t, join, elseStart, "the join point follows the else block")
}

func TestGenerateWhileAndBreak(t *testing.T) {
	program := lower(t, `
		f := (int n) -> int {
			int total := 0;
			while (n > 0) {
				if (n == 3) { break; }
				total = total + n;
				n = n - 1;
			}
			return total;
		}
	`)
	fn := findFunction(t, program, "f")

	count := 0
	for _, inst := range fn.Instrs {
		if inst.Op == tac.OpIfFalseGoto {
			count++
		}
	}
	require.Equal(t, 2, count) // loop condition + the inner if

	// Every branch resolves to exactly one labelled instruction.
	for _, inst := range fn.Instrs {
		if inst.Op == tac.OpGoto || inst.Op == tac.OpIfFalseGoto {
			labelTarget(t, fn, program.Pool.At(inst.Dst).Label)
		}
	}
}

func TestGenerateCallPushesArguments(t *testing.T) {
	program := lower(t, `
		add := (int a, int b) -> int { return a + b; }
		f := () -> int { return add(1, 2); }
	`)
	fn := findFunction(t, program, "f")

	var ops []tac.Opcode
	for _, inst := range fn.Instrs {
		ops = append(ops, inst.Op)
	}
	require.Equal(t, []tac.Opcode{tac.OpPushArg, tac.OpPushArg, tac.OpCall, tac.OpReturn}, ops)

	call := fn.Instrs[2]
	require.Equal(t, "add", call.Callee)
	require.Equal(t, tac.AddrTemp, program.Pool.At(call.Dst).Kind)
}

func TestGenerateBuiltinCallIsVoid(t *testing.T) {
	program := lower(t, `f := () -> void { println("hi", 42); }`)
	fn := findFunction(t, program, "f")

	require.Equal(t, tac.OpPushArg, fn.Instrs[0].Op)
	require.Equal(t, tac.AddrStringConst, program.Pool.At(fn.Instrs[0].Src1).Kind)
	require.Equal(t, tac.OpPushArg, fn.Instrs[1].Op)
	require.Equal(t, tac.OpCallVoid, fn.Instrs[2].Op)
	require.Equal(t, "println", fn.Instrs[2].Callee)
}

func TestGenerateCastRealToInt(t *testing.T) {
	program := lower(t, `f := (real r) -> int { return cast(int, r); }`)
	fn := findFunction(t, program, "f")

	var cast *tac.Instruction
	for i := range fn.Instrs {
		if fn.Instrs[i].Op == tac.OpCastRealToInt {
			cast = &fn.Instrs[i]
		}
	}
	require.NotNil(t, cast)
	require.Equal(t, tac.ValReal, program.Pool.At(cast.Src1).Val)
	require.Equal(t, tac.ValInt, program.Pool.At(cast.Dst).Val)
}

func TestGenerateUnsupportedCast(t *testing.T) {
	ctx := lang.NewContext([]byte(`f := (bool b) -> int { return cast(int, b); }`), lang.DiagnosticMode)
	arena, table := &lang.Arena{}, lang.NewStringTable()
	root, err := lang.NewParser(ctx, arena, table).ParseProgram()
	require.NoError(t, err)
	require.NoError(t, lang.NewResolver(ctx, arena).Resolve(root))
	require.NoError(t, lang.NewTypeChecker(ctx, arena).Check(root))

	_, err = tac.NewGenerator(ctx, arena, table).Generate(root)
	require.ErrorIs(t, err, lang.ErrRewound)
	require.Len(t, ctx.Diagnostics, 1)
	require.ErrorIs(t, ctx.Diagnostics[0].Err, lang.ErrCodegen)
}

// Struct field access lowers through address-of plus an offset add, loads
// read through load-indirect and writes through store-indirect.
func TestGenerateStructFieldAccess(t *testing.T) {
	program := lower(t, `
		struct Point { int x; int y; }
		f := () -> int {
			struct Point p;
			p.y = 7;
			return p.y;
		}
	`)
	fn := findFunction(t, program, "f")

	var addrOf, stores, loads int
	for _, inst := range fn.Instrs {
		switch inst.Op {
		case tac.OpAddressOf:
			addrOf++
		case tac.OpStoreIndirect:
			stores++
		case tac.OpLoadIndirect:
			loads++
		}
	}
	require.Equal(t, 2, addrOf)
	require.Equal(t, 1, stores)
	require.Equal(t, 1, loads)

	// The struct local occupies one slot per field.
	require.Len(t, fn.Locals, 1)
	require.Equal(t, 2, fn.Locals[0].Slots)
}

// Global initializers gather into the synthetic init function; globals
// themselves are recorded for the backend's BSS section.
func TestGenerateGlobalInit(t *testing.T) {
	program := lower(t, `
		int g := 42;
		main := () -> void { g = g + 1; }
	`)
	require.Len(t, program.Globals, 1)
	require.Equal(t, "g", program.Globals[0].Name)

	init := findFunction(t, program, tac.GlobalInitFunc)
	require.Equal(t, tac.OpCopy, init.Instrs[0].Op)
	require.Equal(t, "g", program.Pool.At(init.Instrs[0].Dst).SymbolName)
}

// Shadowed locals get distinct frame names, so each declaration owns a slot.
func TestGenerateShadowedLocals(t *testing.T) {
	program := lower(t, `
		f := () -> int {
			int x := 1;
			{ int x := 2; }
			return x;
		}
	`)
	fn := findFunction(t, program, "f")
	require.Len(t, fn.Locals, 2)
	require.NotEqual(t, fn.Locals[0].Name, fn.Locals[1].Name)
}

func TestListingRendersOperands(t *testing.T) {
	program := lower(t, `f := (int a, int b) -> int { return a + b; }`)
	listing := program.Listing()
	require.Contains(t, listing, "f:")
	require.Contains(t, listing, "add")
	require.Contains(t, listing, "t0 := a add b")
}
