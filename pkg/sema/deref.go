package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// CheckDereferences validates the categorical use of *, [], ., ->
// and &, and that assignment left-hand sides are lvalues. The checks
// use only the types derivable from declarations; full expression
// typing happens afterwards.
func CheckDereferences(prog *ast.Program, h *ErrorHandler) {
	c := &derefChecker{h: h}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.DefinedVariable:
			if d.Init != nil {
				c.checkExpr(d.Init)
			}
		case *ast.DefinedFunction:
			c.checkStmt(d.Body)
		}
	}
}

type derefChecker struct {
	h *ErrorHandler
}

func (c *derefChecker) checkStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	if b, ok := s.(*ast.BlockNode); ok {
		for _, v := range b.Vars {
			if v.Init != nil {
				c.checkExpr(v.Init)
			}
		}
	}
	if f, ok := s.(*ast.ForNode); ok && f.InitDecl != nil && f.InitDecl.Init != nil {
		c.checkExpr(f.InitDecl.Init)
	}
	for _, e := range stmtExprs(s) {
		c.checkExpr(e)
	}
	for _, sub := range stmtChildren(s) {
		c.checkStmt(sub)
	}
}

func (c *derefChecker) checkExpr(e ast.Expr) {
	for _, sub := range exprChildren(e) {
		c.checkExpr(sub)
	}
	switch e := e.(type) {
	case *ast.DereferenceNode:
		if t := inferType(e.Expr); t != nil && !types.IsPointerOrArray(t) {
			c.h.Errorf(e.Pos(), "dereferencing non-pointer: %s", t)
		}
	case *ast.ArefNode:
		if t := inferType(e.Expr); t != nil && !types.IsPointerOrArray(t) {
			c.h.Errorf(e.Pos(), "indexing non-array, non-pointer: %s", t)
		}
	case *ast.MemberNode:
		if t := inferType(e.Expr); t != nil && !types.IsComposite(t) {
			c.h.Errorf(e.Pos(), "accessing member %s of non-struct, non-union: %s", e.Member, t)
		}
	case *ast.PtrMemberNode:
		if t := inferType(e.Expr); t != nil {
			base := types.BaseOf(t)
			if !types.IsPointer(t) || base == nil || !types.IsComposite(base) {
				c.h.Errorf(e.Pos(), "-> applied to non-pointer-to-struct: %s", t)
			}
		}
	case *ast.AddressNode:
		if !isAddressable(e.Expr) {
			c.h.Errorf(e.Pos(), "cannot take address of a non-lvalue")
		}
	case *ast.AssignNode:
		c.checkAssignable(e.Pos(), e.LHS)
	case *ast.OpAssignNode:
		c.checkAssignable(e.Pos(), e.LHS)
	case *ast.PrefixOpNode:
		c.checkAssignable(e.Pos(), e.Expr)
	case *ast.SuffixOpNode:
		c.checkAssignable(e.Pos(), e.Expr)
	case *ast.FuncallNode:
		if t := inferType(e.Expr); t != nil && !types.IsCallable(t) {
			c.h.Errorf(e.Pos(), "calling non-function: %s", t)
		}
	}
}

func (c *derefChecker) checkAssignable(pos ast.Pos, lhs ast.Expr) {
	if !lhs.IsLvalue() {
		c.h.Errorf(pos, "left-hand side of assignment is not an lvalue")
		return
	}
	if v, ok := lhs.(*ast.VariableNode); ok {
		switch ent := v.Entity().(type) {
		case *ast.Constant:
			c.h.Errorf(pos, "assignment to constant %s", ent.ConstName)
		case *ast.DefinedFunction, *ast.UndefinedFunction:
			c.h.Errorf(pos, "assignment to function %s", v.VarName)
		}
	}
	if t := inferType(lhs); t != nil && types.IsArray(t) {
		c.h.Errorf(pos, "assignment to array")
	}
}

// isAddressable reports whether &e is legal: an lvalue or a function
// designator.
func isAddressable(e ast.Expr) bool {
	if e.IsLvalue() {
		if v, ok := e.(*ast.VariableNode); ok {
			if _, isConst := v.Entity().(*ast.Constant); isConst {
				return false
			}
		}
		return true
	}
	return false
}

// inferType derives the type of an expression from declarations
// alone, without promotions. It returns nil where the category check
// must be deferred to the type checker.
func inferType(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntegerLiteralNode:
		return types.Int()
	case *ast.StringLiteralNode:
		return types.Pointer(types.Char())
	case *ast.VariableNode:
		if e.Entity() == nil {
			return nil
		}
		return e.Entity().EntityType()
	case *ast.CastNode:
		return e.Type()
	case *ast.DereferenceNode:
		return types.BaseOf(inferType(e.Expr))
	case *ast.ArefNode:
		return types.BaseOf(inferType(e.Expr))
	case *ast.AddressNode:
		if t := inferType(e.Expr); t != nil {
			return types.Pointer(t)
		}
	case *ast.MemberNode:
		if t := inferType(e.Expr); t != nil {
			if m := types.MemberOf(t, e.Member); m != nil {
				return m.Type
			}
		}
	case *ast.PtrMemberNode:
		if t := inferType(e.Expr); t != nil {
			if base := types.BaseOf(t); base != nil {
				if m := types.MemberOf(base, e.Member); m != nil {
					return m.Type
				}
			}
		}
	case *ast.FuncallNode:
		if t := inferType(e.Expr); t != nil {
			if ft := types.FunctionTypeOf(t); ft != nil {
				return ft.Return
			}
		}
	case *ast.AssignNode:
		return inferType(e.LHS)
	case *ast.CommaNode:
		return inferType(e.Right)
	}
	return nil
}
