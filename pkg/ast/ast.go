// Package ast defines the Cb abstract syntax tree.
//
// The tree is produced by the parser and progressively annotated by
// the semantic passes: variable references are bound to entities,
// type references are resolved against the type table, and every
// expression receives its original and effective types.
package ast

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// Pos is a source position
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Pos() Pos
}

// Decl is the interface for top-level declarations
type Decl interface {
	Node
	declNode()
}

// Stmt is the interface for statements
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions. Every expression carries two
// type slots: the original type as the language determines it, and
// the effective type after implicit conversions. Both are populated
// by the type checker.
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	OrigType() types.Type
	SetType(types.Type)
	SetOrigType(types.Type)
	// IsLvalue reports the syntactic category only; assignability
	// additionally depends on the type.
	IsLvalue() bool
}

// Entity is a declaration after resolution: variable references bind
// to entities, and code generation assigns each entity its storage.
type Entity interface {
	Node
	entityNode()
	Name() string
	IsDefined() bool
	EntityType() types.Type
}

// Program is a parsed compilation unit: the ordered top-level
// declarations, including those merged from imported files.
type Program struct {
	SourceFile string
	Decls      []Decl
	Imports    []string
}

// DefinedFunctions returns the function definitions in order
func (p *Program) DefinedFunctions() []*DefinedFunction {
	var out []*DefinedFunction
	for _, d := range p.Decls {
		if f, ok := d.(*DefinedFunction); ok {
			out = append(out, f)
		}
	}
	return out
}

// DefinedVariables returns the global variable definitions in order
func (p *Program) DefinedVariables() []*DefinedVariable {
	var out []*DefinedVariable
	for _, d := range p.Decls {
		if v, ok := d.(*DefinedVariable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Constants returns the constant definitions in order
func (p *Program) Constants() []*Constant {
	var out []*Constant
	for _, d := range p.Decls {
		if c, ok := d.(*Constant); ok {
			out = append(out, c)
		}
	}
	return out
}
