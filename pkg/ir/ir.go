// Package ir defines the lowered intermediate representation
// consumed by the code generator. Each function body is a linear list
// of statements over simple operands; expressions are free of side
// effects, which the lowering guarantees by introducing temporaries.
package ir

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/entity"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// Program is a lowered compilation unit
type Program struct {
	GlobalVars []*ast.DefinedVariable
	Constants  *entity.ConstantTable
	Functions  []*Function
}

// Function is one lowered function body. Frame layout information
// (parameters, locals, temporaries) is read from the entity.
type Function struct {
	Name string
	Ent  *ast.DefinedFunction
	Body []Stmt
}

// --- Statements ---

// Stmt is the interface for IR statements
type Stmt interface {
	stmtNode()
}

// ExprStmt evaluates an expression for its side effects (calls)
type ExprStmt struct {
	Expr Expr
}

// Assign stores RHS into the location designated by LHS. LHS is a
// Var or a Mem node.
type Assign struct {
	LHS Expr
	RHS Expr
}

// CJump branches on a condition
type CJump struct {
	Cond Expr
	Then string
	Else string
}

// Jump branches unconditionally
type Jump struct {
	Target string
}

// LabelStmt marks a jump target
type LabelStmt struct {
	Name string
}

// SwitchCase pairs one case value with its target label
type SwitchCase struct {
	Value  int64
	Target string
}

// Switch compares the condition against each case value in order and
// jumps to the first match, or to Default.
type Switch struct {
	Cond    Expr
	Cases   []SwitchCase
	Default string
}

// Return leaves the function; Expr is nil for void returns
type Return struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()  {}
func (*Assign) stmtNode()    {}
func (*CJump) stmtNode()     {}
func (*Jump) stmtNode()      {}
func (*LabelStmt) stmtNode() {}
func (*Switch) stmtNode()    {}
func (*Return) stmtNode()    {}

// --- Expressions ---

// Expr is the interface for IR operands
type Expr interface {
	exprNode()
	Size() int
}

// Int is an immediate integer
type Int struct {
	Value int64
}

// Str is the address of an interned string literal
type Str struct {
	Entry *entity.ConstantEntry
}

// Var is the value of a variable
type Var struct {
	Ent ast.Entity
}

// Addr is the address of a variable
type Addr struct {
	Ent ast.Entity
}

// Mem is a load from a computed address
type Mem struct {
	Expr     Expr
	ByteSize int
	Signed   bool
}

// Bin is a binary operation; operands are evaluated left first
type Bin struct {
	Op    Op
	Left  Expr
	Right Expr
}

// Uni is a unary operation
type Uni struct {
	Op   UniOp
	Expr Expr
}

// Cast converts between integer widths. Widening extends according
// to FromSigned; narrowing re-extends according to ToSigned.
type Cast struct {
	Expr       Expr
	FromSize   int
	FromSigned bool
	ToSize     int
	ToSigned   bool
}

// Call invokes a function. Fn is an Addr of a function entity for
// direct calls, or any address-valued expression for calls through a
// pointer. Arguments are listed left to right.
type Call struct {
	Fn   Expr
	Args []Expr
}

func (*Int) exprNode()  {}
func (*Str) exprNode()  {}
func (*Var) exprNode()  {}
func (*Addr) exprNode() {}
func (*Mem) exprNode()  {}
func (*Bin) exprNode()  {}
func (*Uni) exprNode()  {}
func (*Cast) exprNode() {}
func (*Call) exprNode() {}

func (*Int) Size() int  { return types.IntSize }
func (*Str) Size() int  { return types.PointerSize }
func (*Addr) Size() int { return types.PointerSize }

func (e *Var) Size() int {
	if e.Ent.EntityType() == nil {
		return types.IntSize
	}
	return e.Ent.EntityType().Size()
}

// Signed reports the signedness of the variable's type; pointers
// load unsigned.
func (e *Var) Signed() bool {
	return types.IsSigned(e.Ent.EntityType())
}

func (e *Mem) Size() int  { return e.ByteSize }
func (e *Bin) Size() int  { return e.Left.Size() }
func (e *Uni) Size() int  { return e.Expr.Size() }
func (e *Cast) Size() int { return e.ToSize }
func (e *Call) Size() int { return types.IntSize }

// Op is a binary operator with explicit signedness
type Op int

const (
	Add Op = iota
	Sub
	Mul
	SDiv
	UDiv
	SMod
	UMod
	BitAnd
	BitOr
	BitXor
	LShift
	ArithRShift // signed >>
	BitRShift   // unsigned >>
	Eq
	Ne
	SGt
	SGe
	SLt
	SLe
	UGt
	UGe
	ULt
	ULe
)

var opNames = map[Op]string{
	Add: "+", Sub: "-", Mul: "*", SDiv: "/", UDiv: "/u", SMod: "%", UMod: "%u",
	BitAnd: "&", BitOr: "|", BitXor: "^", LShift: "<<", ArithRShift: ">>", BitRShift: ">>u",
	Eq: "==", Ne: "!=", SGt: ">", SGe: ">=", SLt: "<", SLe: "<=",
	UGt: ">u", UGe: ">=u", ULt: "<u", ULe: "<=u",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "?"
}

// UniOp is a unary operator
type UniOp int

const (
	Neg UniOp = iota
	BitNot
	Not
)

func (op UniOp) String() string {
	switch op {
	case Neg:
		return "-"
	case BitNot:
		return "~"
	case Not:
		return "!"
	}
	return "?"
}
