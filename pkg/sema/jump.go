package sema

import "github.com/lifes/cbc-ubuntu-64bit/pkg/ast"

// ResolveJumps binds break, continue and goto statements to their
// targets in every function. Labels are collected first so a goto may
// precede its label.
func ResolveJumps(prog *ast.Program, h *ErrorHandler) {
	for _, fn := range prog.DefinedFunctions() {
		r := &jumpResolver{h: h, fn: fn}
		fn.Labels = make(map[string]*ast.LabelNode)
		r.collectLabels(fn.Body)
		r.check(fn.Body, 0, 0)
	}
}

type jumpResolver struct {
	h  *ErrorHandler
	fn *ast.DefinedFunction
}

func (r *jumpResolver) collectLabels(s ast.Stmt) {
	if l, ok := s.(*ast.LabelNode); ok {
		if _, dup := r.fn.Labels[l.Name]; dup {
			r.h.Errorf(l.Position, "duplicated label: %s", l.Name)
		} else {
			r.fn.Labels[l.Name] = l
		}
	}
	for _, c := range stmtChildren(s) {
		r.collectLabels(c)
	}
}

// check walks statements carrying the nesting depth of enclosing
// loops and switches.
func (r *jumpResolver) check(s ast.Stmt, loops, switches int) {
	switch s := s.(type) {
	case *ast.BreakNode:
		if loops == 0 && switches == 0 {
			r.h.Errorf(s.Position, "break outside of loop or switch")
		}
	case *ast.ContinueNode:
		if loops == 0 {
			r.h.Errorf(s.Position, "continue outside of loop")
		}
	case *ast.GotoNode:
		if _, ok := r.fn.Labels[s.Target]; !ok {
			r.h.Errorf(s.Position, "undefined label: %s", s.Target)
		}
	case *ast.WhileNode:
		r.check(s.Body, loops+1, switches)
	case *ast.DoWhileNode:
		r.check(s.Body, loops+1, switches)
	case *ast.ForNode:
		r.check(s.Body, loops+1, switches)
	case *ast.SwitchNode:
		for _, c := range s.Cases {
			r.check(c.Body, loops, switches+1)
		}
	default:
		for _, c := range stmtChildren(s) {
			r.check(c, loops, switches)
		}
	}
}
