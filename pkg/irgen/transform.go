// Package irgen lowers a semantically analyzed AST into the linear
// IR. Side-effecting subexpressions are sequenced left to right with
// explicit temporaries; short-circuit operators and control flow
// lower to conditional jumps.
package irgen

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/entity"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ir"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// Transform lowers a program to IR. It must only be called on a
// program that passed semantic analysis; unexpected shapes indicate a
// compiler bug and panic as internal errors.
func Transform(prog *ast.Program) *ir.Program {
	t := &transformer{consts: entity.NewConstantTable()}
	out := &ir.Program{Constants: t.consts}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.DefinedVariable:
			out.GlobalVars = append(out.GlobalVars, d)
		case *ast.DefinedFunction:
			out.Functions = append(out.Functions, t.transformFunction(d))
		}
	}
	return out
}

type transformer struct {
	fn     *ast.DefinedFunction
	stmts  []ir.Stmt
	consts *entity.ConstantTable

	labelSeq int
	tempSeq  int

	breaks    []string
	continues []string
	labels    map[string]string // source label -> ir label
}

func (t *transformer) transformFunction(fn *ast.DefinedFunction) *ir.Function {
	t.fn = fn
	t.stmts = nil
	t.breaks = nil
	t.continues = nil
	t.labels = make(map[string]string)
	for name := range fn.Labels {
		t.labels[name] = t.newLabel()
	}

	t.transformStmt(fn.Body)
	if len(t.stmts) == 0 {
		t.emit(&ir.Return{})
	} else if _, ok := t.stmts[len(t.stmts)-1].(*ir.Return); !ok {
		t.emit(&ir.Return{})
	}
	return &ir.Function{Name: fn.FuncName, Ent: fn, Body: t.stmts}
}

func (t *transformer) emit(s ir.Stmt) {
	t.stmts = append(t.stmts, s)
}

func (t *transformer) newLabel() string {
	t.labelSeq++
	return fmt.Sprintf(".L%d", t.labelSeq)
}

// newTemp allocates a lowering temporary on the current function's
// frame.
func (t *transformer) newTemp(pos ast.Pos) *ast.DefinedVariable {
	t.tempSeq++
	tmp := ast.NewTemp(pos, fmt.Sprintf("@tmp%d", t.tempSeq), types.Int())
	t.fn.Temps = append(t.fn.Temps, tmp)
	return tmp
}

// --- Statements ---

func (t *transformer) transformStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	switch s := s.(type) {
	case *ast.BlockNode:
		for _, v := range s.Vars {
			if v.Init != nil {
				rhs := t.exprValue(v.Init)
				t.emit(&ir.Assign{LHS: &ir.Var{Ent: v}, RHS: rhs})
			}
		}
		for _, sub := range s.Stmts {
			t.transformStmt(sub)
		}
	case *ast.ExprStmtNode:
		t.exprEffect(s.Expr)
	case *ast.IfNode:
		t.transformIf(s)
	case *ast.WhileNode:
		t.transformWhile(s)
	case *ast.DoWhileNode:
		t.transformDoWhile(s)
	case *ast.ForNode:
		t.transformFor(s)
	case *ast.SwitchNode:
		t.transformSwitch(s)
	case *ast.ReturnNode:
		if s.Expr == nil {
			t.emit(&ir.Return{})
		} else {
			t.emit(&ir.Return{Expr: t.exprValue(s.Expr)})
		}
	case *ast.BreakNode:
		t.emit(&ir.Jump{Target: t.breaks[len(t.breaks)-1]})
	case *ast.ContinueNode:
		t.emit(&ir.Jump{Target: t.continues[len(t.continues)-1]})
	case *ast.LabelNode:
		t.emit(&ir.LabelStmt{Name: t.labels[s.Name]})
		t.transformStmt(s.Stmt)
	case *ast.GotoNode:
		t.emit(&ir.Jump{Target: t.labels[s.Target]})
	default:
		panic(fmt.Sprintf("irgen: unexpected statement %T at %s", s, s.Pos()))
	}
}

func (t *transformer) transformIf(s *ast.IfNode) {
	thenLabel := t.newLabel()
	elseLabel := t.newLabel()
	endLabel := elseLabel
	if s.Else != nil {
		endLabel = t.newLabel()
	}
	cond := t.exprValue(s.Cond)
	t.emit(&ir.CJump{Cond: cond, Then: thenLabel, Else: elseLabel})
	t.emit(&ir.LabelStmt{Name: thenLabel})
	t.transformStmt(s.Then)
	if s.Else != nil {
		t.emit(&ir.Jump{Target: endLabel})
		t.emit(&ir.LabelStmt{Name: elseLabel})
		t.transformStmt(s.Else)
	}
	t.emit(&ir.LabelStmt{Name: endLabel})
}

func (t *transformer) transformWhile(s *ast.WhileNode) {
	topLabel := t.newLabel()
	bodyLabel := t.newLabel()
	endLabel := t.newLabel()
	t.emit(&ir.LabelStmt{Name: topLabel})
	cond := t.exprValue(s.Cond)
	t.emit(&ir.CJump{Cond: cond, Then: bodyLabel, Else: endLabel})
	t.emit(&ir.LabelStmt{Name: bodyLabel})
	t.pushLoop(endLabel, topLabel)
	t.transformStmt(s.Body)
	t.popLoop()
	t.emit(&ir.Jump{Target: topLabel})
	t.emit(&ir.LabelStmt{Name: endLabel})
}

func (t *transformer) transformDoWhile(s *ast.DoWhileNode) {
	bodyLabel := t.newLabel()
	contLabel := t.newLabel()
	endLabel := t.newLabel()
	t.emit(&ir.LabelStmt{Name: bodyLabel})
	t.pushLoop(endLabel, contLabel)
	t.transformStmt(s.Body)
	t.popLoop()
	t.emit(&ir.LabelStmt{Name: contLabel})
	cond := t.exprValue(s.Cond)
	t.emit(&ir.CJump{Cond: cond, Then: bodyLabel, Else: endLabel})
	t.emit(&ir.LabelStmt{Name: endLabel})
}

func (t *transformer) transformFor(s *ast.ForNode) {
	topLabel := t.newLabel()
	bodyLabel := t.newLabel()
	contLabel := t.newLabel()
	endLabel := t.newLabel()
	if s.InitDecl != nil && s.InitDecl.Init != nil {
		rhs := t.exprValue(s.InitDecl.Init)
		t.emit(&ir.Assign{LHS: &ir.Var{Ent: s.InitDecl}, RHS: rhs})
	}
	if s.Init != nil {
		t.exprEffect(s.Init)
	}
	t.emit(&ir.LabelStmt{Name: topLabel})
	if s.Cond != nil {
		cond := t.exprValue(s.Cond)
		t.emit(&ir.CJump{Cond: cond, Then: bodyLabel, Else: endLabel})
	}
	t.emit(&ir.LabelStmt{Name: bodyLabel})
	t.pushLoop(endLabel, contLabel)
	t.transformStmt(s.Body)
	t.popLoop()
	t.emit(&ir.LabelStmt{Name: contLabel})
	if s.Step != nil {
		t.exprEffect(s.Step)
	}
	t.emit(&ir.Jump{Target: topLabel})
	t.emit(&ir.LabelStmt{Name: endLabel})
}

func (t *transformer) transformSwitch(s *ast.SwitchNode) {
	endLabel := t.newLabel()
	cond := t.exprValue(s.Cond)

	sw := &ir.Switch{Cond: cond, Default: endLabel}
	caseLabels := make([]string, len(s.Cases))
	for i, clause := range s.Cases {
		caseLabels[i] = t.newLabel()
		if len(clause.Values) == 0 {
			sw.Default = caseLabels[i]
			continue
		}
		for _, vexpr := range clause.Values {
			v, ok := sema.FoldInteger(vexpr)
			if !ok {
				panic(fmt.Sprintf("irgen: non-constant case label at %s", vexpr.Pos()))
			}
			sw.Cases = append(sw.Cases, ir.SwitchCase{Value: v, Target: caseLabels[i]})
		}
	}
	t.emit(sw)

	t.breaks = append(t.breaks, endLabel)
	for i, clause := range s.Cases {
		t.emit(&ir.LabelStmt{Name: caseLabels[i]})
		t.transformStmt(clause.Body)
	}
	t.breaks = t.breaks[:len(t.breaks)-1]
	t.emit(&ir.LabelStmt{Name: endLabel})
}

func (t *transformer) pushLoop(breakLabel, continueLabel string) {
	t.breaks = append(t.breaks, breakLabel)
	t.continues = append(t.continues, continueLabel)
}

func (t *transformer) popLoop() {
	t.breaks = t.breaks[:len(t.breaks)-1]
	t.continues = t.continues[:len(t.continues)-1]
}
