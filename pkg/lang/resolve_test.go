package lang_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/lang"
)

// resolve parses and resolves 'source' in diagnostic mode, returning the
// context (for diagnostics), arena, root and the resolution error.
func resolve(t *testing.T, source string) (*lang.Context, *lang.Arena, lang.NodeRef, error) {
	t.Helper()
	ctx, arena, root := parse(t, source)
	require.Empty(t, ctx.Diagnostics)
	err := lang.NewResolver(ctx, arena).Resolve(root)
	return ctx, arena, root, err
}

func TestResolveBindsIdentifiers(t *testing.T) {
	source := `
		int g := 1;
		f := (int a) -> int { return a + g; }
	`
	_, arena, root, err := resolve(t, source)
	require.NoError(t, err)

	fn := arena.At(arena.At(root).Children[1])
	ret := arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0])
	sum := arena.At(ret.Children[0])

	left := arena.At(sum.Children[0])
	require.NotNil(t, left.Symbol)
	require.Equal(t, lang.Parameter, left.Symbol.Kind)

	right := arena.At(sum.Children[1])
	require.NotNil(t, right.Symbol)
	require.Equal(t, lang.GlobalVar, right.Symbol.Kind)
}

// Redeclaring a name in the same scope is a name-error whose source range
// covers the second identifier only, not the whole declaration.
func TestResolveRedeclarationRange(t *testing.T) {
	source := `f := () -> void { int count := 1; int count := 2; }`
	ctx, _, _, err := resolve(t, source)
	require.ErrorIs(t, err, lang.ErrRewound)
	require.Len(t, ctx.Diagnostics, 1)

	diag := ctx.Diagnostics[0]
	require.ErrorIs(t, diag.Err, lang.ErrName)
	require.Equal(t, "count", source[diag.Range.Begin:diag.Range.End])
	require.Equal(t, strings.LastIndex(source, "count"), diag.Range.Begin)
}

// Shadowing through a nested block is not a collision.
func TestResolveShadowing(t *testing.T) {
	source := `
		f := () -> void {
			int x := 1;
			{ int x := 2; }
		}
	`
	_, _, _, err := resolve(t, source)
	require.NoError(t, err)
}

func TestResolveUndeclaredIdentifier(t *testing.T) {
	ctx, _, _, err := resolve(t, `f := () -> int { return missing; }`)
	require.ErrorIs(t, err, lang.ErrRewound)
	require.Len(t, ctx.Diagnostics, 1)
	require.ErrorIs(t, ctx.Diagnostics[0].Err, lang.ErrName)
}

func TestResolveCalleeMustBeFunction(t *testing.T) {
	ctx, _, _, err := resolve(t, `
		int notf := 1;
		f := () -> void { notf(); }
	`)
	require.ErrorIs(t, err, lang.ErrRewound)
	require.Len(t, ctx.Diagnostics, 1)
	require.ErrorIs(t, ctx.Diagnostics[0].Err, lang.ErrName)
}

func TestResolveBuiltinsInstalled(t *testing.T) {
	_, arena, root, err := resolve(t, `f := () -> void { println("hi"); }`)
	require.NoError(t, err)

	fn := arena.At(arena.At(root).Children[0])
	call := arena.At(arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0]).Children[0])
	require.Equal(t, lang.NCallExpr, call.Kind)
	require.NotNil(t, call.Symbol)
	require.True(t, call.Symbol.Builtin)
}

// Mutually recursive functions resolve thanks to the forward-declaration pass.
func TestResolveForwardReference(t *testing.T) {
	source := `
		even := (int n) -> bool { if (n == 0) { return true; } return odd(n - 1); }
		odd := (int n) -> bool { if (n == 0) { return false; } return even(n - 1); }
	`
	_, _, _, err := resolve(t, source)
	require.NoError(t, err)
}

func TestResolveDotAccessChain(t *testing.T) {
	source := `
		struct Point { int x; int y; }
		f := () -> int {
			struct Point p;
			p.y = 7;
			return p.y;
		}
	`
	_, arena, root, err := resolve(t, source)
	require.NoError(t, err)

	fn := arena.At(arena.At(root).Children[1])
	body := arena.At(fn.Children[len(fn.Children)-1])
	assign := arena.At(body.Children[1])
	dot := arena.At(assign.Children[0])
	require.NotNil(t, dot.Symbol)
	require.Equal(t, "y", dot.Symbol.Name)
	require.Equal(t, 1, dot.Symbol.Seq)
}

// Resolution is deterministic: the same input always binds an identifier to
// the same declaration.
func TestResolveDeterministic(t *testing.T) {
	source := `
		int g := 1;
		f := (int g) -> int { return g; }
	`
	for run := 0; run < 2; run++ {
		_, arena, root, err := resolve(t, source)
		require.NoError(t, err)

		fn := arena.At(arena.At(root).Children[1])
		ret := arena.At(arena.At(fn.Children[len(fn.Children)-1]).Children[0])
		ident := arena.At(ret.Children[0])
		require.Equal(t, lang.Parameter, ident.Symbol.Kind, "parameter must shadow the global")
	}
}
