package lang

import "fmt"

// ----------------------------------------------------------------------------
// General information

// This section defines Type: the tagged union over the type classes the
// checker works with (basic, pointer, array, struct, tuple, function). As
// with Atom in the regex package, only the field(s) matching Class are
// meaningful for a given value; consumers are expected to switch exhaustively
// on Class rather than guess at which fields are populated.

// Class tags the variant carried by a Type.
type Class uint8

const (
	ClassBasic Class = iota
	ClassPointer
	ClassArray
	ClassStruct
	ClassTuple
	ClassFunction
)

// Basic enumerates the primitive type vocabulary.
type Basic uint8

const (
	TVoid Basic = iota
	TInt
	TReal
	TChar
	TBool
	TString
	TSize
)

func (b Basic) String() string {
	switch b {
	case TVoid:
		return "void"
	case TInt:
		return "int"
	case TReal:
		return "real"
	case TChar:
		return "char"
	case TBool:
		return "bool"
	case TString:
		return "string"
	case TSize:
		return "size"
	default:
		return "?"
	}
}

// StructField names one member of a struct type.
type StructField struct {
	Name string
	Type *Type
}

// Type is a tagged union over the type classes the checker works with. Types
// are interned nowhere in particular — equality is always structural, computed
// by Equal below, matching the Open Question's "safe interpretation".
type Type struct {
	Class Class

	Basic Basic // valid when Class == ClassBasic

	Inner *Type // valid when Class == ClassPointer or ClassArray (element type)
	Len   int   // valid when Class == ClassArray (-1 when unknown/unsized)

	Name   string        // valid when Class == ClassStruct (struct tag name)
	Fields []StructField // valid when Class == ClassStruct

	Args   []*Type // valid when Class == ClassFunction or ClassTuple (tuple elements)
	Return *Type   // valid when Class == ClassFunction
}

func BasicType(b Basic) *Type { return &Type{Class: ClassBasic, Basic: b} }

func PointerType(inner *Type) *Type { return &Type{Class: ClassPointer, Inner: inner} }

func ArrayType(inner *Type, length int) *Type {
	return &Type{Class: ClassArray, Inner: inner, Len: length}
}

func FunctionType(args []*Type, ret *Type) *Type {
	return &Type{Class: ClassFunction, Args: args, Return: ret}
}

func StructType(name string, fields []StructField) *Type {
	return &Type{Class: ClassStruct, Name: name, Fields: fields}
}

func TupleType(elems []*Type) *Type {
	return &Type{Class: ClassTuple, Args: elems}
}

// Equal implements structural equality over names and element types, rejecting
// comparisons across different Classes (the Open Question's "safe
// interpretation": a struct is never equal to a tuple even with identical
// field types, and so on).
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Class != other.Class {
		return false
	}
	switch t.Class {
	case ClassBasic:
		return t.Basic == other.Basic
	case ClassPointer:
		return t.Inner.Equal(other.Inner)
	case ClassArray:
		return t.Len == other.Len && t.Inner.Equal(other.Inner)
	case ClassStruct:
		if t.Name != other.Name || len(t.Fields) != len(other.Fields) {
			return false
		}
		for i, f := range t.Fields {
			if f.Name != other.Fields[i].Name || !f.Type.Equal(other.Fields[i].Type) {
				return false
			}
		}
		return true
	case ClassTuple:
		if len(t.Args) != len(other.Args) {
			return false
		}
		for i, a := range t.Args {
			if !a.Equal(other.Args[i]) {
				return false
			}
		}
		return true
	case ClassFunction:
		if !t.Return.Equal(other.Return) || len(t.Args) != len(other.Args) {
			return false
		}
		for i, a := range t.Args {
			if !a.Equal(other.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Class {
	case ClassBasic:
		return t.Basic.String()
	case ClassPointer:
		return fmt.Sprintf("*%s", t.Inner)
	case ClassArray:
		return fmt.Sprintf("[%d]%s", t.Len, t.Inner)
	case ClassStruct:
		return "struct " + t.Name
	case ClassTuple:
		return fmt.Sprintf("tuple%v", t.Args)
	case ClassFunction:
		return fmt.Sprintf("func%v -> %s", t.Args, t.Return)
	default:
		return "?"
	}
}
