package ir

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes a compact textual form of the IR, one statement per
// line, for the dump modes and tests.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IR printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram writes every function of a program
func (p *Printer) PrintProgram(prog *Program) {
	for _, f := range prog.Functions {
		p.PrintFunction(f)
	}
}

// PrintFunction writes one function
func (p *Printer) PrintFunction(f *Function) {
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, s := range f.Body {
		fmt.Fprintf(p.w, "%s\n", StmtString(s))
	}
}

// StmtString renders one IR statement
func StmtString(s Stmt) string {
	switch s := s.(type) {
	case *ExprStmt:
		return "    " + ExprString(s.Expr)
	case *Assign:
		return fmt.Sprintf("    %s = %s", ExprString(s.LHS), ExprString(s.RHS))
	case *CJump:
		return fmt.Sprintf("    cjump %s %s %s", ExprString(s.Cond), s.Then, s.Else)
	case *Jump:
		return "    jump " + s.Target
	case *LabelStmt:
		return s.Name + ":"
	case *Switch:
		var b strings.Builder
		fmt.Fprintf(&b, "    switch %s [", ExprString(s.Cond))
		for i, c := range s.Cases {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%d->%s", c.Value, c.Target)
		}
		fmt.Fprintf(&b, "] default->%s", s.Default)
		return b.String()
	case *Return:
		if s.Expr == nil {
			return "    return"
		}
		return "    return " + ExprString(s.Expr)
	}
	return "    ?"
}

// ExprString renders one IR operand
func ExprString(e Expr) string {
	switch e := e.(type) {
	case *Int:
		return fmt.Sprintf("%d", e.Value)
	case *Str:
		return e.Entry.Symbol
	case *Var:
		return e.Ent.Name()
	case *Addr:
		return "&" + e.Ent.Name()
	case *Mem:
		return fmt.Sprintf("mem%d(%s)", e.ByteSize, ExprString(e.Expr))
	case *Bin:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *Uni:
		return fmt.Sprintf("(%s %s)", e.Op, ExprString(e.Expr))
	case *Cast:
		return fmt.Sprintf("(cast%d->%d %s)", e.FromSize, e.ToSize, ExprString(e.Expr))
	case *Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("call %s(%s)", ExprString(e.Fn), strings.Join(args, ", "))
	}
	return "?"
}
