package ast

import "fmt"

// TypeRef is a syntactic reference to a type, resolved to a
// types.Type by the type resolver.
type TypeRef interface {
	Node
	typeRefNode()
	String() string
}

// VoidRef refers to void
type VoidRef struct {
	Position Pos
}

// IntegerRef refers to a primitive integer type by its canonical
// name ("int", "unsigned char", ...)
type IntegerRef struct {
	Position Pos
	Name     string
}

// StructRef refers to a struct by tag
type StructRef struct {
	Position Pos
	Name     string
}

// UnionRef refers to a union by tag
type UnionRef struct {
	Position Pos
	Name     string
}

// UserRef refers to a typedef name
type UserRef struct {
	Position Pos
	Name     string
}

// PointerRef refers to a pointer to the base type
type PointerRef struct {
	Position Pos
	Base     TypeRef
}

// ArrayRef refers to an array of the base type. Length is -1 for an
// undefined length.
type ArrayRef struct {
	Position Pos
	Base     TypeRef
	Length   int64
}

// FuncRef refers to a function type
type FuncRef struct {
	Position Pos
	Return   TypeRef
	Params   []TypeRef
	Variadic bool
}

func (r *VoidRef) Pos() Pos    { return r.Position }
func (r *IntegerRef) Pos() Pos { return r.Position }
func (r *StructRef) Pos() Pos  { return r.Position }
func (r *UnionRef) Pos() Pos   { return r.Position }
func (r *UserRef) Pos() Pos    { return r.Position }
func (r *PointerRef) Pos() Pos { return r.Position }
func (r *ArrayRef) Pos() Pos   { return r.Position }
func (r *FuncRef) Pos() Pos    { return r.Position }

func (*VoidRef) typeRefNode()    {}
func (*IntegerRef) typeRefNode() {}
func (*StructRef) typeRefNode()  {}
func (*UnionRef) typeRefNode()   {}
func (*UserRef) typeRefNode()    {}
func (*PointerRef) typeRefNode() {}
func (*ArrayRef) typeRefNode()   {}
func (*FuncRef) typeRefNode()    {}

func (*VoidRef) String() string      { return "void" }
func (r *IntegerRef) String() string { return r.Name }
func (r *StructRef) String() string  { return "struct " + r.Name }
func (r *UnionRef) String() string   { return "union " + r.Name }
func (r *UserRef) String() string    { return r.Name }
func (r *PointerRef) String() string { return r.Base.String() + "*" }

func (r *ArrayRef) String() string {
	if r.Length < 0 {
		return r.Base.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", r.Base.String(), r.Length)
}

func (r *FuncRef) String() string {
	s := r.Return.String() + " ("
	for i, p := range r.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	if r.Variadic {
		if len(r.Params) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s + ")"
}
