package lang_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/lang"
)

// parse runs the parser alone (no resolution or checking) in diagnostic mode.
func parse(t *testing.T, source string) (*lang.Context, *lang.Arena, lang.NodeRef) {
	t.Helper()
	ctx := lang.NewContext([]byte(source), lang.DiagnosticMode)
	arena, table := &lang.Arena{}, lang.NewStringTable()
	root, err := lang.NewParser(ctx, arena, table).ParseProgram()
	require.NoError(t, err)
	return ctx, arena, root
}

func TestParseFunctionDeclaration(t *testing.T) {
	ctx, arena, root := parse(t, `f := (int a, int b) -> int { return a + b; }`)
	require.Empty(t, ctx.Diagnostics)

	program := arena.At(root)
	require.Equal(t, lang.NProgram, program.Kind)
	require.Len(t, program.Children, 1)

	fn := arena.At(program.Children[0])
	require.Equal(t, lang.NFuncDecl, fn.Kind)
	require.Equal(t, "f", fn.Text)
	require.Equal(t, "int", fn.TypeName)
	require.Equal(t, 2, fn.NumParams)
	require.Len(t, fn.Children, 3) // two params + body

	body := arena.At(fn.Children[2])
	require.Equal(t, lang.NBlock, body.Kind)
	require.Len(t, body.Children, 1)

	ret := arena.At(body.Children[0])
	require.Equal(t, lang.NReturnStmt, ret.Kind)
	sum := arena.At(ret.Children[0])
	require.Equal(t, lang.NBinaryExpr, sum.Kind)
	require.Equal(t, lang.EAdd, sum.Op)
}

// Precedence climbing: '*' binds tighter than '+', comparison looser than
// arithmetic, so `a + b * c < d` parses as `(a + (b * c)) < d`.
func TestParsePrecedence(t *testing.T) {
	ctx, arena, root := parse(t, `f := (int a, int b, int c, int d) -> bool { return a + b * c < d; }`)
	require.Empty(t, ctx.Diagnostics)

	fn := arena.At(arena.At(root).Children[0])
	ret := arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0])
	cmp := arena.At(ret.Children[0])
	require.Equal(t, lang.ELt, cmp.Op)

	add := arena.At(cmp.Children[0])
	require.Equal(t, lang.EAdd, add.Op)
	mul := arena.At(add.Children[1])
	require.Equal(t, lang.EMul, mul.Op)
}

func TestParseUnaryBindsTightest(t *testing.T) {
	ctx, arena, root := parse(t, `f := (int a, int b) -> int { return -a * b; }`)
	require.Empty(t, ctx.Diagnostics)

	fn := arena.At(arena.At(root).Children[0])
	ret := arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0])
	mul := arena.At(ret.Children[0])
	require.Equal(t, lang.EMul, mul.Op)
	neg := arena.At(mul.Children[0])
	require.Equal(t, lang.NUnaryExpr, neg.Kind)
	require.Equal(t, lang.ENeg, neg.Op)
}

func TestParseControlFlow(t *testing.T) {
	source := `
		f := (int x) -> int {
			while (x > 0) {
				if (x == 1) { break; } else { x = x - 1; }
			}
			return x;
		}
	`
	ctx, arena, root := parse(t, source)
	require.Empty(t, ctx.Diagnostics)

	fn := arena.At(arena.At(root).Children[0])
	body := arena.At(fn.Children[len(fn.Children)-1])
	loop := arena.At(body.Children[0])
	require.Equal(t, lang.NWhileStmt, loop.Kind)

	cond := arena.At(loop.Children[0])
	require.Equal(t, lang.EGt, cond.Op)

	ifStmt := arena.At(arena.At(loop.Children[1]).Children[0])
	require.Equal(t, lang.NIfStmt, ifStmt.Kind)
	require.Len(t, ifStmt.Children, 3) // cond, then, else
}

// Parsing the same source twice yields structurally equal trees (node
// identity aside), observable through the rendered dump.
func TestParseIdempotence(t *testing.T) {
	source := `
		int g := 42;
		f := (int a) -> int { if (a > g) { return a; } return g; }
	`
	_, arenaA, rootA := parse(t, source)
	_, arenaB, rootB := parse(t, source)
	require.Equal(t, arenaA.Dump(rootA), arenaB.Dump(rootB))
}

// In diagnostic mode a malformed statement is recorded and the parser resumes
// at the next statement boundary instead of abandoning the file.
func TestParseDiagnosticModeRecovers(t *testing.T) {
	source := `
		int x := ;
		int y := 2;
	`
	ctx, arena, root := parse(t, source)
	require.Len(t, ctx.Diagnostics, 1)
	require.ErrorIs(t, ctx.Diagnostics[0].Err, lang.ErrParse)

	program := arena.At(root)
	require.Len(t, program.Children, 1)
	require.Equal(t, "y", arena.At(program.Children[0]).Text)
}

func TestParseStructDeclarationAndUse(t *testing.T) {
	source := `
		struct Point { int x; int y; }
		f := () -> int {
			struct Point p;
			p.x = 3;
			return p.x;
		}
	`
	ctx, arena, root := parse(t, source)
	require.Empty(t, ctx.Diagnostics)

	program := arena.At(root)
	require.Len(t, program.Children, 2)

	decl := arena.At(program.Children[0])
	require.Equal(t, lang.NStructDecl, decl.Kind)
	require.Equal(t, "Point", decl.Text)
	require.Len(t, decl.Children, 2)

	fn := arena.At(program.Children[1])
	body := arena.At(fn.Children[len(fn.Children)-1])
	local := arena.At(body.Children[0])
	require.Equal(t, lang.NVarDecl, local.Kind)
	require.Equal(t, "Point", local.TypeName)

	assign := arena.At(body.Children[1])
	require.Equal(t, lang.NAssignStmt, assign.Kind)
	require.Equal(t, lang.NDotExpr, arena.At(assign.Children[0]).Kind)
}

func TestParseCast(t *testing.T) {
	ctx, arena, root := parse(t, `f := (real r) -> int { return cast(int, r); }`)
	require.Empty(t, ctx.Diagnostics)

	fn := arena.At(arena.At(root).Children[0])
	ret := arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0])
	cast := arena.At(ret.Children[0])
	require.Equal(t, lang.NCastExpr, cast.Kind)
	require.Equal(t, "int", cast.TypeName)
}
