// Package x64 lowers a three-address-code program to an AT&T-syntax x86-64
// assembly listing following the System V AMD64 calling convention, suitable
// for assembly and static linkage against a C runtime.
package x64

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// General information

// This section pins down the System V AMD64 call contract the emitter follows:
// the first six integer/pointer arguments travel in RDI, RSI, RDX, RCX, R8 and
// R9, real arguments in the first eight scalar-double registers, anything
// beyond on the stack pushed right-to-left with a sentinel push when the count
// is odd (the stack must be 16-byte aligned at every call site). Results come
// back in RAX (integer) or XMM0 (real).
//
// It also carries the safety wrappers: safe_putchar, safe_printf and
// safe_malloc realign the stack pointer to a 16-byte boundary before entering
// the libc routine, so a caller that lost alignment can still print.

// intArgRegs are the integer/pointer argument registers, in ABI order.
var intArgRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// realArgRegs are the scalar-double argument registers, in ABI order.
var realArgRegs = []string{"%xmm0", "%xmm1", "%xmm2", "%xmm3", "%xmm4", "%xmm5", "%xmm6", "%xmm7"}

// Format-string labels shared by every inline print expansion. The labels are
// emitted once into .rodata regardless of use; an unused .rodata constant
// costs a few bytes and keeps the expansion table-driven.
const (
	fmtInt    = ".LCfmt_int"
	fmtReal   = ".LCfmt_real"
	fmtString = ".LCfmt_str"
	fmtChar   = ".LCfmt_char"
)

// safeWrappers is the fixed preamble emitted at the top of every .text
// section. Each wrapper saves the frame pointer, forces RSP down to a 16-byte
// boundary, forwards to the libc routine and restores the caller's stack.
func safeWrappers(b *strings.Builder) {
	for _, wrapped := range []struct{ name, callee string }{
		{"safe_putchar", "putchar"},
		{"safe_printf", "printf"},
		{"safe_malloc", "malloc"},
	} {
		fmt.Fprintf(b, "%s:\n", wrapped.name)
		fmt.Fprintf(b, "\tpushq\t%%rbp\n")
		fmt.Fprintf(b, "\tmovq\t%%rsp, %%rbp\n")
		fmt.Fprintf(b, "\tandq\t$-16, %%rsp\n")
		fmt.Fprintf(b, "\tcall\t%s\n", wrapped.callee)
		fmt.Fprintf(b, "\tmovq\t%%rbp, %%rsp\n")
		fmt.Fprintf(b, "\tpopq\t%%rbp\n")
		fmt.Fprintf(b, "\tret\n\n")
	}
}
