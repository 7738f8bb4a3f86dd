package x64

import (
	"fmt"

	"langforge.dev/toolkit/pkg/tac"
)

// ----------------------------------------------------------------------------
// General information

// This section computes the stack frame of one function: every parameter,
// local variable and temporary the function's TAC references gets a frame
// offset relative to RBP. Register-classed parameters (the first six
// integer/pointer ones in RDI..R9, the first eight real ones in XMM0..XMM7)
// arrive in registers and are pushed to home slots right after the prologue
// establishes the frame pointer, in declaration order; parameters that spilled
// to the stack were pushed by the caller and sit at positive offsets above the
// saved frame pointer and return address. Locals and temporaries follow below
// the home slots, one 8-byte slot each (a struct-typed local takes one slot
// per field, fields ascending from its base offset). The residual frame
// (everything not covered by the home-slot pushes) is sized so RSP stays
// 16-byte aligned at call sites.

// paramHome records one register parameter's entry register and home slot.
type paramHome struct {
	reg    string
	offset int
	real   bool
}

// frame maps symbol and temporary names to their RBP-relative offsets.
type frame struct {
	offsets  map[string]int
	temps    []int // temp sequence number -> offset
	homes    []paramHome
	residual int // bytes to subtract from RSP after the home-slot pushes
}

// layoutFrame assigns every frame-resident address of 'fn' an offset.
func layoutFrame(fn *tac.Function) frame {
	f := frame{offsets: map[string]int{}}

	cur, ints, reals, spilled := 0, 0, 0, 0
	for _, param := range fn.Params {
		real := param.Val == tac.ValReal
		switch {
		case real && reals < len(realArgRegs):
			cur += 8
			f.offsets[param.Name] = -cur
			f.homes = append(f.homes, paramHome{reg: realArgRegs[reals], offset: -cur, real: true})
			reals++
		case !real && ints < len(intArgRegs):
			cur += 8
			f.offsets[param.Name] = -cur
			f.homes = append(f.homes, paramHome{reg: intArgRegs[ints], offset: -cur})
			ints++
		default:
			f.offsets[param.Name] = 16 + 8*spilled
			spilled++
		}
	}

	for _, local := range fn.Locals {
		cur += 8 * local.Slots
		f.offsets[local.Name] = -cur // base slot; struct fields ascend from here
	}
	for t := 0; t < fn.Temps; t++ {
		cur += 8
		f.temps = append(f.temps, -cur)
	}

	total := (cur + 15) &^ 15
	f.residual = total - 8*len(f.homes)
	return f
}

// slot renders the frame operand for a named symbol, falling back to
// RIP-relative addressing for names not resident in this frame (globals).
func (f frame) slot(name string) string {
	if off, ok := f.offsets[name]; ok {
		return fmt.Sprintf("%d(%%rbp)", off)
	}
	return fmt.Sprintf("%s(%%rip)", name)
}

// isLocal reports whether 'name' has a slot in this frame.
func (f frame) isLocal(name string) bool {
	_, ok := f.offsets[name]
	return ok
}

// tempSlot renders the frame operand for temporary 'seq'.
func (f frame) tempSlot(seq int) string {
	return fmt.Sprintf("%d(%%rbp)", f.temps[seq])
}
