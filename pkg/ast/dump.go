package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dumper writes an annotated tree form of the AST, one node per
// line. After resolution the dump includes the resolved type of each
// expression and the declaration site of each bound variable
// reference, which is what the dump-reference and dump-semantic
// driver modes show.
type Dumper struct {
	w     io.Writer
	depth int
}

// NewDumper creates a new tree dumper
func NewDumper(w io.Writer) *Dumper {
	return &Dumper{w: w}
}

func (d *Dumper) put(format string, args ...interface{}) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("    ", d.depth), fmt.Sprintf(format, args...))
}

func (d *Dumper) nest(f func()) {
	d.depth++
	f()
	d.depth--
}

// DumpProgram dumps all declarations of a program
func (d *Dumper) DumpProgram(prog *Program) {
	d.put("<<Program>> (%s)", prog.SourceFile)
	d.nest(func() {
		for _, decl := range prog.Decls {
			d.DumpDecl(decl)
		}
	})
}

// DumpDecl dumps one declaration subtree
func (d *Dumper) DumpDecl(decl Decl) {
	switch decl := decl.(type) {
	case *StructNode:
		d.put("<<StructNode>> (%s) struct %s", decl.Position, decl.Name)
	case *UnionNode:
		d.put("<<UnionNode>> (%s) union %s", decl.Position, decl.Name)
	case *TypedefNode:
		d.put("<<TypedefNode>> (%s) %s = %s", decl.Position, decl.Name, decl.Real)
	case *Constant:
		d.put("<<Constant>> (%s) %s", decl.Position, decl.ConstName)
		d.nest(func() { d.DumpExpr(decl.Value) })
	case *DefinedVariable:
		d.put("<<DefinedVariable>> (%s) %s%s", decl.Position, staticPrefix(decl.Priv), decl.VarName)
		if decl.Init != nil {
			d.nest(func() { d.DumpExpr(decl.Init) })
		}
	case *UndefinedVariable:
		d.put("<<UndefinedVariable>> (%s) %s", decl.Position, decl.VarName)
	case *UndefinedFunction:
		d.put("<<UndefinedFunction>> (%s) %s", decl.Position, decl.FuncName)
	case *DefinedFunction:
		d.put("<<DefinedFunction>> (%s) %s%s", decl.Position, staticPrefix(decl.Priv), decl.FuncName)
		d.nest(func() {
			for _, prm := range decl.Params {
				d.put("<<Parameter>> (%s) %s %s", prm.Position, typeString(prm.EntityType(), prm.Ref), prm.VarName)
			}
			d.DumpStmt(decl.Body)
		})
	}
}

func staticPrefix(priv bool) string {
	if priv {
		return "static "
	}
	return ""
}

// DumpStmt dumps one statement subtree
func (d *Dumper) DumpStmt(s Stmt) {
	switch s := s.(type) {
	case *BlockNode:
		d.put("<<BlockNode>> (%s)", s.Position)
		d.nest(func() {
			for _, v := range s.Vars {
				d.put("<<DefinedVariable>> (%s) %s %s", v.Position, typeString(v.EntityType(), v.Ref), v.VarName)
				if v.Init != nil {
					d.nest(func() { d.DumpExpr(v.Init) })
				}
			}
			for _, st := range s.Stmts {
				d.DumpStmt(st)
			}
		})
	case *ExprStmtNode:
		d.put("<<ExprStmtNode>> (%s)", s.Position)
		d.nest(func() { d.DumpExpr(s.Expr) })
	case *IfNode:
		d.put("<<IfNode>> (%s)", s.Position)
		d.nest(func() {
			d.DumpExpr(s.Cond)
			d.DumpStmt(s.Then)
			if s.Else != nil {
				d.DumpStmt(s.Else)
			}
		})
	case *WhileNode:
		d.put("<<WhileNode>> (%s)", s.Position)
		d.nest(func() {
			d.DumpExpr(s.Cond)
			d.DumpStmt(s.Body)
		})
	case *DoWhileNode:
		d.put("<<DoWhileNode>> (%s)", s.Position)
		d.nest(func() {
			d.DumpStmt(s.Body)
			d.DumpExpr(s.Cond)
		})
	case *ForNode:
		d.put("<<ForNode>> (%s)", s.Position)
		d.nest(func() {
			if s.InitDecl != nil {
				d.put("<<DefinedVariable>> (%s) %s", s.InitDecl.Position, s.InitDecl.VarName)
			}
			if s.Init != nil {
				d.DumpExpr(s.Init)
			}
			if s.Cond != nil {
				d.DumpExpr(s.Cond)
			}
			if s.Step != nil {
				d.DumpExpr(s.Step)
			}
			d.DumpStmt(s.Body)
		})
	case *SwitchNode:
		d.put("<<SwitchNode>> (%s)", s.Position)
		d.nest(func() {
			d.DumpExpr(s.Cond)
			for _, c := range s.Cases {
				if len(c.Values) == 0 {
					d.put("<<CaseNode>> (%s) default", c.Position)
				} else {
					d.put("<<CaseNode>> (%s)", c.Position)
					d.nest(func() {
						for _, v := range c.Values {
							d.DumpExpr(v)
						}
					})
				}
				d.nest(func() { d.DumpStmt(c.Body) })
			}
		})
	case *ReturnNode:
		d.put("<<ReturnNode>> (%s)", s.Position)
		if s.Expr != nil {
			d.nest(func() { d.DumpExpr(s.Expr) })
		}
	case *BreakNode:
		d.put("<<BreakNode>> (%s)", s.Position)
	case *ContinueNode:
		d.put("<<ContinueNode>> (%s)", s.Position)
	case *LabelNode:
		d.put("<<LabelNode>> (%s) %s", s.Position, s.Name)
		d.nest(func() { d.DumpStmt(s.Stmt) })
	case *GotoNode:
		d.put("<<GotoNode>> (%s) %s", s.Position, s.Target)
	}
}

// DumpExpr dumps one expression subtree with its resolved types
func (d *Dumper) DumpExpr(e Expr) {
	suffix := ""
	if e.Type() != nil {
		suffix = fmt.Sprintf(" : %s", e.Type())
		if e.OrigType() != nil && e.OrigType().String() != e.Type().String() {
			suffix = fmt.Sprintf(" : %s (orig %s)", e.Type(), e.OrigType())
		}
	}
	switch e := e.(type) {
	case *IntegerLiteralNode:
		d.put("<<IntegerLiteralNode>> (%s) %d%s", e.Pos(), e.Value, suffix)
	case *StringLiteralNode:
		d.put("<<StringLiteralNode>> (%s) %s%s", e.Pos(), quoteString(e.Value), suffix)
	case *VariableNode:
		bound := ""
		if e.Entity() != nil {
			bound = fmt.Sprintf(" -> %s", e.Entity().Pos())
		}
		d.put("<<VariableNode>> (%s) %s%s%s", e.Pos(), e.VarName, bound, suffix)
	case *UnaryOpNode:
		d.put("<<UnaryOpNode>> (%s) %s%s", e.Pos(), e.Op, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *PrefixOpNode:
		d.put("<<PrefixOpNode>> (%s) %s%s", e.Pos(), e.Op, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *SuffixOpNode:
		d.put("<<SuffixOpNode>> (%s) %s%s", e.Pos(), e.Op, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *BinaryOpNode:
		d.put("<<BinaryOpNode>> (%s) %s%s", e.Pos(), e.Op, suffix)
		d.nest(func() {
			d.DumpExpr(e.Left)
			d.DumpExpr(e.Right)
		})
	case *CondExprNode:
		d.put("<<CondExprNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() {
			d.DumpExpr(e.Cond)
			d.DumpExpr(e.Then)
			d.DumpExpr(e.Else)
		})
	case *CommaNode:
		d.put("<<CommaNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() {
			d.DumpExpr(e.Left)
			d.DumpExpr(e.Right)
		})
	case *AssignNode:
		d.put("<<AssignNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() {
			d.DumpExpr(e.LHS)
			d.DumpExpr(e.RHS)
		})
	case *OpAssignNode:
		d.put("<<OpAssignNode>> (%s) %s=%s", e.Pos(), e.Op, suffix)
		d.nest(func() {
			d.DumpExpr(e.LHS)
			d.DumpExpr(e.RHS)
		})
	case *CastNode:
		kind := "explicit"
		if e.Ref == nil {
			kind = "implicit"
		}
		d.put("<<CastNode>> (%s) %s%s", e.Pos(), kind, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *SizeofExprNode:
		d.put("<<SizeofExprNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *SizeofTypeNode:
		d.put("<<SizeofTypeNode>> (%s) %s%s", e.Pos(), e.Ref, suffix)
	case *MemberNode:
		d.put("<<MemberNode>> (%s) .%s%s", e.Pos(), e.Member, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *PtrMemberNode:
		d.put("<<PtrMemberNode>> (%s) ->%s%s", e.Pos(), e.Member, suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *ArefNode:
		d.put("<<ArefNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() {
			d.DumpExpr(e.Expr)
			d.DumpExpr(e.Index)
		})
	case *FuncallNode:
		d.put("<<FuncallNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() {
			d.DumpExpr(e.Expr)
			for _, a := range e.Args {
				d.DumpExpr(a)
			}
		})
	case *AddressNode:
		d.put("<<AddressNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	case *DereferenceNode:
		d.put("<<DereferenceNode>> (%s)%s", e.Pos(), suffix)
		d.nest(func() { d.DumpExpr(e.Expr) })
	}
}

func typeString(t interface{ String() string }, ref TypeRef) string {
	if t != nil {
		return t.String()
	}
	if ref != nil {
		return ref.String()
	}
	return "?"
}
