package ast

import "github.com/lifes/cbc-ubuntu-64bit/pkg/types"

// exprBase carries the position and the two type slots shared by all
// expression nodes.
type exprBase struct {
	position Pos
	origType types.Type
	typ      types.Type
}

func (e *exprBase) Pos() Pos                 { return e.position }
func (e *exprBase) exprNode()                {}
func (e *exprBase) Type() types.Type         { return e.typ }
func (e *exprBase) OrigType() types.Type     { return e.origType }
func (e *exprBase) SetType(t types.Type)     { e.typ = t }
func (e *exprBase) SetOrigType(t types.Type) { e.origType = t }

// IntegerLiteralNode is an integer or character literal
type IntegerLiteralNode struct {
	exprBase
	Value    int64
	Unsigned bool
}

// StringLiteralNode is a string literal; Value holds the decoded
// bytes without the terminating NUL.
type StringLiteralNode struct {
	exprBase
	Value string
}

// VariableNode is an identifier reference, bound to its entity by the
// local reference resolver.
type VariableNode struct {
	exprBase
	VarName string
	entity  Entity
}

// UnaryOpNode covers +, -, ! and ~
type UnaryOpNode struct {
	exprBase
	Op   string
	Expr Expr
}

// PrefixOpNode covers ++e and --e
type PrefixOpNode struct {
	exprBase
	Op   string
	Expr Expr
}

// SuffixOpNode covers e++ and e--
type SuffixOpNode struct {
	exprBase
	Op   string
	Expr Expr
}

// BinaryOpNode covers arithmetic, bitwise, shift, comparison and
// logical operators.
type BinaryOpNode struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// CondExprNode is the conditional operator cond ? then : else
type CondExprNode struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

// CommaNode is the comma operator
type CommaNode struct {
	exprBase
	Left  Expr
	Right Expr
}

// AssignNode is a simple assignment
type AssignNode struct {
	exprBase
	LHS Expr
	RHS Expr
}

// OpAssignNode is a compound assignment; Op is the underlying binary
// operator ("+", "<<", ...).
type OpAssignNode struct {
	exprBase
	Op  string
	LHS Expr
	RHS Expr
}

// CastNode is an explicit cast, or an implicit conversion
// materialized by the type checker (Ref is nil then).
type CastNode struct {
	exprBase
	Ref  TypeRef
	Expr Expr
}

// SizeofExprNode is sizeof applied to an expression
type SizeofExprNode struct {
	exprBase
	Expr Expr
}

// SizeofTypeNode is sizeof applied to a type. Target is the resolved
// operand type, attached by the type resolver.
type SizeofTypeNode struct {
	exprBase
	Ref    TypeRef
	Target types.Type
}

// MemberNode is a struct or union member access e.m
type MemberNode struct {
	exprBase
	Expr   Expr
	Member string
}

// PtrMemberNode is a member access through a pointer e->m
type PtrMemberNode struct {
	exprBase
	Expr   Expr
	Member string
}

// ArefNode is an array subscript a[i]
type ArefNode struct {
	exprBase
	Expr  Expr
	Index Expr
}

// FuncallNode is a function call
type FuncallNode struct {
	exprBase
	Expr Expr
	Args []Expr
}

// AddressNode is the address-of operator &e
type AddressNode struct {
	exprBase
	Expr Expr
}

// DereferenceNode is the dereference operator *e
type DereferenceNode struct {
	exprBase
	Expr Expr
}

// --- Constructors ---

func NewIntegerLiteral(pos Pos, value int64, unsigned bool) *IntegerLiteralNode {
	return &IntegerLiteralNode{exprBase: exprBase{position: pos}, Value: value, Unsigned: unsigned}
}

func NewStringLiteral(pos Pos, value string) *StringLiteralNode {
	return &StringLiteralNode{exprBase: exprBase{position: pos}, Value: value}
}

func NewVariable(pos Pos, name string) *VariableNode {
	return &VariableNode{exprBase: exprBase{position: pos}, VarName: name}
}

func NewUnaryOp(pos Pos, op string, expr Expr) *UnaryOpNode {
	return &UnaryOpNode{exprBase: exprBase{position: pos}, Op: op, Expr: expr}
}

func NewPrefixOp(pos Pos, op string, expr Expr) *PrefixOpNode {
	return &PrefixOpNode{exprBase: exprBase{position: pos}, Op: op, Expr: expr}
}

func NewSuffixOp(pos Pos, op string, expr Expr) *SuffixOpNode {
	return &SuffixOpNode{exprBase: exprBase{position: pos}, Op: op, Expr: expr}
}

func NewBinaryOp(pos Pos, op string, left, right Expr) *BinaryOpNode {
	return &BinaryOpNode{exprBase: exprBase{position: pos}, Op: op, Left: left, Right: right}
}

func NewCondExpr(pos Pos, cond, then, els Expr) *CondExprNode {
	return &CondExprNode{exprBase: exprBase{position: pos}, Cond: cond, Then: then, Else: els}
}

func NewComma(pos Pos, left, right Expr) *CommaNode {
	return &CommaNode{exprBase: exprBase{position: pos}, Left: left, Right: right}
}

func NewAssign(pos Pos, lhs, rhs Expr) *AssignNode {
	return &AssignNode{exprBase: exprBase{position: pos}, LHS: lhs, RHS: rhs}
}

func NewOpAssign(pos Pos, op string, lhs, rhs Expr) *OpAssignNode {
	return &OpAssignNode{exprBase: exprBase{position: pos}, Op: op, LHS: lhs, RHS: rhs}
}

func NewCast(pos Pos, ref TypeRef, expr Expr) *CastNode {
	return &CastNode{exprBase: exprBase{position: pos}, Ref: ref, Expr: expr}
}

// NewImplicitCast materializes an implicit conversion to t
func NewImplicitCast(expr Expr, t types.Type) *CastNode {
	c := &CastNode{exprBase: exprBase{position: expr.Pos()}, Expr: expr}
	c.SetOrigType(t)
	c.SetType(t)
	return c
}

func NewSizeofExpr(pos Pos, expr Expr) *SizeofExprNode {
	return &SizeofExprNode{exprBase: exprBase{position: pos}, Expr: expr}
}

func NewSizeofType(pos Pos, ref TypeRef) *SizeofTypeNode {
	return &SizeofTypeNode{exprBase: exprBase{position: pos}, Ref: ref}
}

func NewMember(pos Pos, expr Expr, member string) *MemberNode {
	return &MemberNode{exprBase: exprBase{position: pos}, Expr: expr, Member: member}
}

func NewPtrMember(pos Pos, expr Expr, member string) *PtrMemberNode {
	return &PtrMemberNode{exprBase: exprBase{position: pos}, Expr: expr, Member: member}
}

func NewAref(pos Pos, expr, index Expr) *ArefNode {
	return &ArefNode{exprBase: exprBase{position: pos}, Expr: expr, Index: index}
}

func NewFuncall(pos Pos, expr Expr, args []Expr) *FuncallNode {
	return &FuncallNode{exprBase: exprBase{position: pos}, Expr: expr, Args: args}
}

func NewAddress(pos Pos, expr Expr) *AddressNode {
	return &AddressNode{exprBase: exprBase{position: pos}, Expr: expr}
}

func NewDereference(pos Pos, expr Expr) *DereferenceNode {
	return &DereferenceNode{exprBase: exprBase{position: pos}, Expr: expr}
}

// --- Lvalue categories ---

func (*exprBase) IsLvalue() bool        { return false }
func (*VariableNode) IsLvalue() bool    { return true }
func (*DereferenceNode) IsLvalue() bool { return true }
func (*MemberNode) IsLvalue() bool      { return true }
func (*PtrMemberNode) IsLvalue() bool   { return true }
func (*ArefNode) IsLvalue() bool        { return true }

// Entity returns the bound declaration, nil before resolution
func (e *VariableNode) Entity() Entity { return e.entity }

// SetEntity binds the reference to its declaration
func (e *VariableNode) SetEntity(ent Entity) { e.entity = ent }
