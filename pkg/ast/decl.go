package ast

import "github.com/lifes/cbc-ubuntu-64bit/pkg/types"

// Slot is a struct or union member declaration
type Slot struct {
	Position Pos
	Name     string
	Ref      TypeRef
}

// DefinedVariable is a variable definition, at top level or local.
// Temporaries introduced by IR lowering are also DefinedVariables.
type DefinedVariable struct {
	Position Pos
	Priv     bool // static linkage
	IsConst  bool
	Ref      TypeRef
	VarName  string
	Init     Expr // optional initializer

	typ types.Type
}

// UndefinedVariable is an extern variable declaration
type UndefinedVariable struct {
	Position Pos
	Ref      TypeRef
	VarName  string

	typ types.Type
}

// Parameter is a function parameter
type Parameter struct {
	Position Pos
	Ref      TypeRef
	VarName  string

	typ types.Type
}

// DefinedFunction is a function definition
type DefinedFunction struct {
	Position Pos
	Priv     bool // static linkage
	Return   TypeRef
	FuncName string
	Params   []*Parameter
	Variadic bool
	Body     *BlockNode

	typ types.Type // the resolved function type

	// Resolution artifacts
	Labels    map[string]*LabelNode // filled by the jump resolver
	LocalVars []*DefinedVariable    // all block-scoped locals, in scope order
	Temps     []*DefinedVariable    // temporaries introduced by lowering
}

// UndefinedFunction is a function prototype
type UndefinedFunction struct {
	Position Pos
	Return   TypeRef
	FuncName string
	Params   []*Parameter
	Variadic bool

	typ types.Type
}

// Constant is a named integer constant (const declarations and enum
// members)
type Constant struct {
	Position  Pos
	Ref       TypeRef
	ConstName string
	Value     Expr

	typ types.Type
}

// StructNode is a struct definition
type StructNode struct {
	Position Pos
	Name     string
	Members  []Slot
}

// UnionNode is a union definition
type UnionNode struct {
	Position Pos
	Name     string
	Members  []Slot
}

// TypedefNode aliases a name to a type
type TypedefNode struct {
	Position Pos
	Name     string
	Real     TypeRef
}

func (d *DefinedVariable) Pos() Pos   { return d.Position }
func (d *UndefinedVariable) Pos() Pos { return d.Position }
func (d *Parameter) Pos() Pos         { return d.Position }
func (d *DefinedFunction) Pos() Pos   { return d.Position }
func (d *UndefinedFunction) Pos() Pos { return d.Position }
func (d *Constant) Pos() Pos          { return d.Position }
func (d *StructNode) Pos() Pos        { return d.Position }
func (d *UnionNode) Pos() Pos         { return d.Position }
func (d *TypedefNode) Pos() Pos       { return d.Position }

func (*DefinedVariable) declNode()   {}
func (*UndefinedVariable) declNode() {}
func (*DefinedFunction) declNode()   {}
func (*UndefinedFunction) declNode() {}
func (*Constant) declNode()          {}
func (*StructNode) declNode()        {}
func (*UnionNode) declNode()         {}
func (*TypedefNode) declNode()       {}

func (*DefinedVariable) entityNode()   {}
func (*UndefinedVariable) entityNode() {}
func (*Parameter) entityNode()         {}
func (*DefinedFunction) entityNode()   {}
func (*UndefinedFunction) entityNode() {}
func (*Constant) entityNode()          {}

func (d *DefinedVariable) Name() string   { return d.VarName }
func (d *UndefinedVariable) Name() string { return d.VarName }
func (d *Parameter) Name() string         { return d.VarName }
func (d *DefinedFunction) Name() string   { return d.FuncName }
func (d *UndefinedFunction) Name() string { return d.FuncName }
func (d *Constant) Name() string          { return d.ConstName }

func (d *DefinedVariable) IsDefined() bool   { return true }
func (d *UndefinedVariable) IsDefined() bool { return false }
func (d *Parameter) IsDefined() bool         { return true }
func (d *DefinedFunction) IsDefined() bool   { return true }
func (d *UndefinedFunction) IsDefined() bool { return false }
func (d *Constant) IsDefined() bool          { return true }

func (d *DefinedVariable) EntityType() types.Type   { return d.typ }
func (d *UndefinedVariable) EntityType() types.Type { return d.typ }
func (d *Parameter) EntityType() types.Type         { return d.typ }
func (d *DefinedFunction) EntityType() types.Type   { return d.typ }
func (d *UndefinedFunction) EntityType() types.Type { return d.typ }
func (d *Constant) EntityType() types.Type          { return d.typ }

func (d *DefinedVariable) SetEntityType(t types.Type)   { d.typ = t }
func (d *UndefinedVariable) SetEntityType(t types.Type) { d.typ = t }
func (d *Parameter) SetEntityType(t types.Type)         { d.typ = t }
func (d *DefinedFunction) SetEntityType(t types.Type)   { d.typ = t }
func (d *UndefinedFunction) SetEntityType(t types.Type) { d.typ = t }
func (d *Constant) SetEntityType(t types.Type)          { d.typ = t }

// FunctionType returns the resolved function type
func (d *DefinedFunction) FunctionType() *types.FunctionType {
	if ft, ok := types.Real(d.typ).(*types.FunctionType); ok {
		return ft
	}
	return nil
}

// FunctionType returns the resolved function type
func (d *UndefinedFunction) FunctionType() *types.FunctionType {
	if ft, ok := types.Real(d.typ).(*types.FunctionType); ok {
		return ft
	}
	return nil
}

// NewTemp creates a lowering temporary of the given type. Temporaries
// have no TypeRef; their type is attached directly.
func NewTemp(pos Pos, name string, t types.Type) *DefinedVariable {
	v := &DefinedVariable{Position: pos, VarName: name}
	v.typ = t
	return v
}
