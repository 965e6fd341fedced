// Package types defines the Cb type system for the ILP32 target.
package types

import "fmt"

// Target sizes and alignments (32-bit x86, System V)
const (
	CharSize    = 1
	ShortSize   = 2
	IntSize     = 4
	LongSize    = 4
	PointerSize = 4
)

// Type is the interface for all Cb types
type Type interface {
	implType()
	Size() int
	Alignment() int
	String() string
}

// VoidType represents the void type
type VoidType struct{}

// IntegerType represents char, short, int and long in both signednesses
type IntegerType struct {
	ByteSize int
	Signed   bool
	Name     string
}

// PointerType represents pointer types
type PointerType struct {
	Base Type
}

// ArrayType represents array types. Length is -1 for arrays of
// undefined length (as in parameter declarations).
type ArrayType struct {
	Base   Type
	Length int64
}

// FunctionType represents function types
type FunctionType struct {
	Return   Type
	Params   []Type
	Variadic bool
}

// Member is a struct or union member with its computed offset
type Member struct {
	Name   string
	Type   Type
	Offset int
}

// StructType represents a struct with its layout
type StructType struct {
	Name    string
	Members []Member
	Loc     string // declaration location, for diagnostics

	laidOut bool
	size    int
	align   int
}

// UnionType represents a union with its layout
type UnionType struct {
	Name    string
	Members []Member
	Loc     string

	laidOut bool
	size    int
	align   int
}

// UserType is a typedef alias. Real is the flattened underlying type.
type UserType struct {
	Name string
	Real Type
}

func (*VoidType) implType()     {}
func (*IntegerType) implType()  {}
func (*PointerType) implType()  {}
func (*ArrayType) implType()    {}
func (*FunctionType) implType() {}
func (*StructType) implType()   {}
func (*UnionType) implType()    {}
func (*UserType) implType()     {}

func (*VoidType) Size() int      { return 1 }
func (*VoidType) Alignment() int { return 1 }
func (*VoidType) String() string { return "void" }

func (t *IntegerType) Size() int      { return t.ByteSize }
func (t *IntegerType) Alignment() int { return t.ByteSize }
func (t *IntegerType) String() string { return t.Name }

// MinValue returns the smallest representable value
func (t *IntegerType) MinValue() int64 {
	if !t.Signed {
		return 0
	}
	return -(int64(1) << (uint(t.ByteSize)*8 - 1))
}

// MaxValue returns the largest representable value
func (t *IntegerType) MaxValue() int64 {
	bits := uint(t.ByteSize) * 8
	if t.Signed {
		return int64(1)<<(bits-1) - 1
	}
	return int64(1)<<bits - 1
}

func (t *PointerType) Size() int      { return PointerSize }
func (t *PointerType) Alignment() int { return PointerSize }
func (t *PointerType) String() string { return t.Base.String() + "*" }

func (t *ArrayType) Size() int {
	if t.Length < 0 {
		return PointerSize
	}
	return t.Base.Size() * int(t.Length)
}
func (t *ArrayType) Alignment() int { return t.Base.Alignment() }
func (t *ArrayType) String() string {
	if t.Length < 0 {
		return t.Base.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.Base.String(), t.Length)
}

// IsComplete reports whether the array has a known length
func (t *ArrayType) IsComplete() bool { return t.Length >= 0 }

func (t *FunctionType) Size() int      { return 0 }
func (t *FunctionType) Alignment() int { return 1 }
func (t *FunctionType) String() string {
	s := t.Return.String() + " ("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	if t.Variadic {
		if len(t.Params) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s + ")"
}

func (t *StructType) String() string { return "struct " + t.Name }
func (t *UnionType) String() string  { return "union " + t.Name }

func (t *UserType) Size() int      { return t.Real.Size() }
func (t *UserType) Alignment() int { return t.Real.Alignment() }
func (t *UserType) String() string { return t.Name }

// --- Constructors ---

// Void returns the void type
func Void() Type { return &VoidType{} }

// Char returns the signed char type
func Char() Type { return &IntegerType{ByteSize: CharSize, Signed: true, Name: "char"} }

// UChar returns the unsigned char type
func UChar() Type { return &IntegerType{ByteSize: CharSize, Signed: false, Name: "unsigned char"} }

// Short returns the signed short type
func Short() Type { return &IntegerType{ByteSize: ShortSize, Signed: true, Name: "short"} }

// UShort returns the unsigned short type
func UShort() Type { return &IntegerType{ByteSize: ShortSize, Signed: false, Name: "unsigned short"} }

// Int returns the signed int type
func Int() Type { return &IntegerType{ByteSize: IntSize, Signed: true, Name: "int"} }

// UInt returns the unsigned int type
func UInt() Type { return &IntegerType{ByteSize: IntSize, Signed: false, Name: "unsigned int"} }

// Long returns the signed long type
func Long() Type { return &IntegerType{ByteSize: LongSize, Signed: true, Name: "long"} }

// ULong returns the unsigned long type
func ULong() Type { return &IntegerType{ByteSize: LongSize, Signed: false, Name: "unsigned long"} }

// Pointer returns a pointer to the given type
func Pointer(base Type) Type { return &PointerType{Base: base} }

// Array returns an array type
func Array(base Type, length int64) Type { return &ArrayType{Base: base, Length: length} }

// Function returns a function type
func Function(ret Type, params []Type, variadic bool) Type {
	return &FunctionType{Return: ret, Params: params, Variadic: variadic}
}

// --- Predicates ---

// Real unwraps typedef aliases
func Real(t Type) Type {
	for {
		u, ok := t.(*UserType)
		if !ok {
			return t
		}
		t = u.Real
	}
}

// IsVoid reports whether t is void
func IsVoid(t Type) bool {
	_, ok := Real(t).(*VoidType)
	return ok
}

// IsInteger reports whether t is an integer type
func IsInteger(t Type) bool {
	_, ok := Real(t).(*IntegerType)
	return ok
}

// IsSigned reports whether t is a signed integer type
func IsSigned(t Type) bool {
	it, ok := Real(t).(*IntegerType)
	return ok && it.Signed
}

// IsPointer reports whether t is a pointer type
func IsPointer(t Type) bool {
	_, ok := Real(t).(*PointerType)
	return ok
}

// IsArray reports whether t is an array type
func IsArray(t Type) bool {
	_, ok := Real(t).(*ArrayType)
	return ok
}

// IsFunction reports whether t is a function type
func IsFunction(t Type) bool {
	_, ok := Real(t).(*FunctionType)
	return ok
}

// IsStruct reports whether t is a struct type
func IsStruct(t Type) bool {
	_, ok := Real(t).(*StructType)
	return ok
}

// IsUnion reports whether t is a union type
func IsUnion(t Type) bool {
	_, ok := Real(t).(*UnionType)
	return ok
}

// IsComposite reports whether t is a struct or union type
func IsComposite(t Type) bool { return IsStruct(t) || IsUnion(t) }

// IsScalar reports whether t is an integer or pointer type
func IsScalar(t Type) bool { return IsInteger(t) || IsPointer(t) }

// IsPointerOrArray reports whether t dereferences
func IsPointerOrArray(t Type) bool { return IsPointer(t) || IsArray(t) }

// IsCallable reports whether t can be called: a function or a
// pointer to function
func IsCallable(t Type) bool {
	switch rt := Real(t).(type) {
	case *FunctionType:
		return true
	case *PointerType:
		return IsFunction(rt.Base)
	}
	return false
}

// BaseOf returns the pointee or element type of a pointer or array
func BaseOf(t Type) Type {
	switch rt := Real(t).(type) {
	case *PointerType:
		return rt.Base
	case *ArrayType:
		return rt.Base
	}
	return nil
}

// FunctionTypeOf returns the function type of a callable
func FunctionTypeOf(t Type) *FunctionType {
	switch rt := Real(t).(type) {
	case *FunctionType:
		return rt
	case *PointerType:
		if ft, ok := Real(rt.Base).(*FunctionType); ok {
			return ft
		}
	}
	return nil
}

// CompositeTypeOf returns the struct or union type of t, or nil
func CompositeTypeOf(t Type) Type {
	switch rt := Real(t).(type) {
	case *StructType:
		return rt
	case *UnionType:
		return rt
	}
	return nil
}

// Equal checks structural equality of two types. Named struct and
// union types compare nominally.
func Equal(a, b Type) bool {
	a, b = Real(a), Real(b)
	if a == nil || b == nil {
		return a == b
	}
	switch ta := a.(type) {
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *IntegerType:
		tb, ok := b.(*IntegerType)
		return ok && ta.ByteSize == tb.ByteSize && ta.Signed == tb.Signed
	case *PointerType:
		tb, ok := b.(*PointerType)
		return ok && Equal(ta.Base, tb.Base)
	case *ArrayType:
		tb, ok := b.(*ArrayType)
		return ok && ta.Length == tb.Length && Equal(ta.Base, tb.Base)
	case *StructType:
		tb, ok := b.(*StructType)
		return ok && ta.Name == tb.Name
	case *UnionType:
		tb, ok := b.(*UnionType)
		return ok && ta.Name == tb.Name
	case *FunctionType:
		tb, ok := b.(*FunctionType)
		if !ok || ta.Variadic != tb.Variadic || len(ta.Params) != len(tb.Params) {
			return false
		}
		if !Equal(ta.Return, tb.Return) {
			return false
		}
		for i, p := range ta.Params {
			if !Equal(p, tb.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}
