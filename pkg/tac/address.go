package tac

import "fmt"

// ----------------------------------------------------------------------------
// General information

// This section implements the address pool: a single dense, append-only array
// of operand descriptors shared by every TAC instruction in the function list
// currently being generated. Every instruction names its operands as Indexes
// into this pool rather than embedding values directly, so the same descriptor
// can be referenced by more than one instruction (a variable read twice, a
// label targeted by more than one branch) without duplication.

// Kind tags the variant an Address carries. Index 0 of any pool is always the
// reserved "unused" address, which is why Kind's zero value is AddrUnused
// rather than a kind requiring payload fields.
type Kind uint8

const (
	AddrUnused Kind = iota
	AddrSymbol
	AddrIntConst
	AddrRealConst
	AddrStringConst
	AddrBoolConst
	AddrSizeConst
	AddrLabel
	AddrTemp
	AddrArgList
)

func (k Kind) String() string {
	switch k {
	case AddrUnused:
		return "unused"
	case AddrSymbol:
		return "symbol"
	case AddrIntConst:
		return "int-const"
	case AddrRealConst:
		return "real-const"
	case AddrStringConst:
		return "string-const"
	case AddrBoolConst:
		return "bool-const"
	case AddrSizeConst:
		return "size-const"
	case AddrLabel:
		return "label"
	case AddrTemp:
		return "temp"
	case AddrArgList:
		return "arg-list"
	default:
		return "?"
	}
}

// ValKind is the value-category hint the generator stamps on symbol and
// temporary addresses so the x64 backend can pick integer vs. scalar-double
// lowering (and the right printf format string for a builtin print argument)
// without re-walking the AST. Most constant addresses imply their ValKind from
// the address Kind alone; character constants are AddrIntConst entries carrying
// ValChar (see CharConst).
type ValKind uint8

const (
	ValInt ValKind = iota
	ValReal
	ValBool
	ValChar
	ValString
)

// Address is the tagged-union operand descriptor; only the field(s) matching
// Kind are meaningful for a given value (the same discriminant discipline as
// lang.Node and lang.Type).
type Address struct {
	Kind Kind
	Val  ValKind // value-category hint, meaningful on AddrSymbol, AddrTemp and character AddrIntConst

	SymbolName string // AddrSymbol: the declared name (global, local, parameter)
	IntValue   int64  // AddrIntConst, AddrSizeConst
	RealValue  float64 // AddrRealConst
	StrIndex   int    // AddrStringConst: index into the shared string table
	BoolValue  bool   // AddrBoolConst
	Label      int    // AddrLabel: the monotonically-assigned label id
	Temp       int    // AddrTemp: the temporary's sequence number within its function
	ArgIndex   []Index // AddrArgList: the pending call's argument addresses, in order
}

func (a Address) String() string {
	switch a.Kind {
	case AddrUnused:
		return "-"
	case AddrSymbol:
		return a.SymbolName
	case AddrIntConst:
		return fmt.Sprintf("%d", a.IntValue)
	case AddrRealConst:
		return fmt.Sprintf("%g", a.RealValue)
	case AddrStringConst:
		return fmt.Sprintf("str#%d", a.StrIndex)
	case AddrBoolConst:
		return fmt.Sprintf("%t", a.BoolValue)
	case AddrSizeConst:
		return fmt.Sprintf("%d", a.IntValue)
	case AddrLabel:
		return fmt.Sprintf("L%d", a.Label)
	case AddrTemp:
		return fmt.Sprintf("t%d", a.Temp)
	case AddrArgList:
		return fmt.Sprintf("args%v", a.ArgIndex)
	default:
		return "?"
	}
}

// Index names one Address within a Pool. Index(0) is the reserved unused slot.
type Index int

// Pool is the process-wide (per-compilation) dense array of Addresses, shared
// by every function's TAC: append-only while the compile runs, read-only
// afterwards.
type Pool struct {
	entries []Address
}

// NewPool returns a Pool with its reserved "unused" entry already populated.
func NewPool() *Pool {
	return &Pool{entries: []Address{{Kind: AddrUnused}}}
}

// Unused is the address every Pool reserves at Index 0.
const Unused Index = 0

func (p *Pool) push(a Address) Index {
	p.entries = append(p.entries, a)
	return Index(len(p.entries) - 1)
}

// At returns the Address named by 'idx'.
func (p *Pool) At(idx Index) Address { return p.entries[idx] }

// Symbol records a reference to a declared name. Entries are not deduplicated;
// each use site gets its own descriptor.
func (p *Pool) Symbol(name string, val ValKind) Index {
	return p.push(Address{Kind: AddrSymbol, SymbolName: name, Val: val})
}

func (p *Pool) IntConst(v int64) Index { return p.push(Address{Kind: AddrIntConst, IntValue: v}) }

// CharConst is an integer constant carrying the ValChar hint, so a builtin
// print of a character literal picks the %c format string instead of %ld.
func (p *Pool) CharConst(v byte) Index {
	return p.push(Address{Kind: AddrIntConst, IntValue: int64(v), Val: ValChar})
}

func (p *Pool) RealConst(v float64) Index { return p.push(Address{Kind: AddrRealConst, RealValue: v}) }

func (p *Pool) StringConst(strIndex int) Index {
	return p.push(Address{Kind: AddrStringConst, StrIndex: strIndex})
}

func (p *Pool) BoolConst(v bool) Index { return p.push(Address{Kind: AddrBoolConst, BoolValue: v}) }

func (p *Pool) SizeConst(v int64) Index { return p.push(Address{Kind: AddrSizeConst, IntValue: v}) }

// Label records a branch-target address naming label 'id' (allocated by the
// generator, unique within its function). The address is never rewritten
// afterwards: the generator marks the target by stamping 'id' onto the
// instruction it emits at that position.
func (p *Pool) Label(id int) Index { return p.push(Address{Kind: AddrLabel, Label: id}) }

// Temp allocates a fresh temporary address.
func (p *Pool) Temp(seq int, val ValKind) Index {
	return p.push(Address{Kind: AddrTemp, Temp: seq, Val: val})
}

// ArgList records the ordered argument addresses of a pending call.
func (p *Pool) ArgList(args []Index) Index {
	return p.push(Address{Kind: AddrArgList, ArgIndex: args})
}
