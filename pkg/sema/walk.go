package sema

import "github.com/lifes/cbc-ubuntu-64bit/pkg/ast"

// exprChildren returns the direct subexpressions of an expression
func exprChildren(e ast.Expr) []ast.Expr {
	switch e := e.(type) {
	case *ast.UnaryOpNode:
		return []ast.Expr{e.Expr}
	case *ast.PrefixOpNode:
		return []ast.Expr{e.Expr}
	case *ast.SuffixOpNode:
		return []ast.Expr{e.Expr}
	case *ast.BinaryOpNode:
		return []ast.Expr{e.Left, e.Right}
	case *ast.CondExprNode:
		return []ast.Expr{e.Cond, e.Then, e.Else}
	case *ast.CommaNode:
		return []ast.Expr{e.Left, e.Right}
	case *ast.AssignNode:
		return []ast.Expr{e.LHS, e.RHS}
	case *ast.OpAssignNode:
		return []ast.Expr{e.LHS, e.RHS}
	case *ast.CastNode:
		return []ast.Expr{e.Expr}
	case *ast.SizeofExprNode:
		return []ast.Expr{e.Expr}
	case *ast.MemberNode:
		return []ast.Expr{e.Expr}
	case *ast.PtrMemberNode:
		return []ast.Expr{e.Expr}
	case *ast.ArefNode:
		return []ast.Expr{e.Expr, e.Index}
	case *ast.FuncallNode:
		out := []ast.Expr{e.Expr}
		return append(out, e.Args...)
	case *ast.AddressNode:
		return []ast.Expr{e.Expr}
	case *ast.DereferenceNode:
		return []ast.Expr{e.Expr}
	}
	return nil
}

// stmtExprs returns the direct expressions of a statement
func stmtExprs(s ast.Stmt) []ast.Expr {
	switch s := s.(type) {
	case *ast.ExprStmtNode:
		return []ast.Expr{s.Expr}
	case *ast.IfNode:
		return []ast.Expr{s.Cond}
	case *ast.WhileNode:
		return []ast.Expr{s.Cond}
	case *ast.DoWhileNode:
		return []ast.Expr{s.Cond}
	case *ast.ForNode:
		var out []ast.Expr
		if s.Init != nil {
			out = append(out, s.Init)
		}
		if s.Cond != nil {
			out = append(out, s.Cond)
		}
		if s.Step != nil {
			out = append(out, s.Step)
		}
		return out
	case *ast.SwitchNode:
		return []ast.Expr{s.Cond}
	case *ast.ReturnNode:
		if s.Expr != nil {
			return []ast.Expr{s.Expr}
		}
	}
	return nil
}

// stmtChildren returns the direct substatements of a statement
func stmtChildren(s ast.Stmt) []ast.Stmt {
	switch s := s.(type) {
	case *ast.BlockNode:
		return s.Stmts
	case *ast.IfNode:
		var out []ast.Stmt
		if s.Then != nil {
			out = append(out, s.Then)
		}
		if s.Else != nil {
			out = append(out, s.Else)
		}
		return out
	case *ast.WhileNode:
		return []ast.Stmt{s.Body}
	case *ast.DoWhileNode:
		return []ast.Stmt{s.Body}
	case *ast.ForNode:
		return []ast.Stmt{s.Body}
	case *ast.SwitchNode:
		out := make([]ast.Stmt, 0, len(s.Cases))
		for _, c := range s.Cases {
			out = append(out, c.Body)
		}
		return out
	case *ast.LabelNode:
		return []ast.Stmt{s.Stmt}
	}
	return nil
}
