package irgen

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ir"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// exprEffect lowers an expression for its side effects only
func (t *transformer) exprEffect(e ast.Expr) {
	switch e := e.(type) {
	case *ast.AssignNode:
		rhs := t.exprValue(e.RHS)
		lhs := t.location(e.LHS)
		t.emit(&ir.Assign{LHS: lhs, RHS: rhs})
	case *ast.OpAssignNode:
		t.lowerOpAssign(e)
	case *ast.PrefixOpNode:
		t.lowerIncDec(e.Op, e.Expr)
	case *ast.SuffixOpNode:
		t.lowerIncDec(e.Op, e.Expr)
	case *ast.FuncallNode:
		t.emit(&ir.ExprStmt{Expr: t.lowerCall(e)})
	case *ast.CommaNode:
		t.exprEffect(e.Left)
		t.exprEffect(e.Right)
	case *ast.CondExprNode:
		t.exprValue(e)
	default:
		if hasSideEffects(e) {
			t.exprValue(e)
		}
	}
}

// exprValue lowers an expression to a side-effect-free IR operand,
// emitting any side effects as statements first.
func (t *transformer) exprValue(e ast.Expr) ir.Expr {
	switch e := e.(type) {
	case *ast.IntegerLiteralNode:
		return &ir.Int{Value: e.Value}
	case *ast.StringLiteralNode:
		return &ir.Str{Entry: t.consts.Intern(e.Value)}
	case *ast.VariableNode:
		if c, ok := e.Entity().(*ast.Constant); ok {
			v, ok := sema.FoldInteger(c.Value)
			if ok {
				return &ir.Int{Value: v}
			}
			if s, isStr := c.Value.(*ast.StringLiteralNode); isStr {
				return &ir.Str{Entry: t.consts.Intern(s.Value)}
			}
			panic(fmt.Sprintf("irgen: non-constant constant %s at %s", c.ConstName, e.Pos()))
		}
		return &ir.Var{Ent: e.Entity()}
	case *ast.UnaryOpNode:
		operand := t.exprValue(e.Expr)
		switch e.Op {
		case "+":
			return operand
		case "-":
			return &ir.Uni{Op: ir.Neg, Expr: operand}
		case "~":
			return &ir.Uni{Op: ir.BitNot, Expr: operand}
		case "!":
			return &ir.Uni{Op: ir.Not, Expr: operand}
		}
		panic("irgen: unexpected unary operator " + e.Op)
	case *ast.BinaryOpNode:
		return t.lowerBinary(e)
	case *ast.CondExprNode:
		return t.lowerCondExpr(e)
	case *ast.CommaNode:
		t.exprEffect(e.Left)
		return t.exprValue(e.Right)
	case *ast.AssignNode:
		rhs := t.exprValue(e.RHS)
		tmp := t.spill(rhs, e.Pos())
		lhs := t.location(e.LHS)
		t.emit(&ir.Assign{LHS: lhs, RHS: tmp})
		return tmp
	case *ast.OpAssignNode:
		loc := t.lowerOpAssign(e)
		return loc
	case *ast.PrefixOpNode:
		return t.lowerIncDec(e.Op, e.Expr)
	case *ast.SuffixOpNode:
		return t.lowerSuffixIncDec(e.Op, e.Expr)
	case *ast.CastNode:
		return t.lowerCast(e)
	case *ast.SizeofExprNode:
		return &ir.Int{Value: int64(e.Expr.Type().Size())}
	case *ast.SizeofTypeNode:
		return &ir.Int{Value: int64(e.Target.Size())}
	case *ast.MemberNode, *ast.PtrMemberNode, *ast.ArefNode, *ast.DereferenceNode:
		return t.load(t.addrOf(e), e.Type())
	case *ast.FuncallNode:
		call := t.lowerCall(e)
		tmp := t.newTemp(e.Pos())
		t.emit(&ir.Assign{LHS: &ir.Var{Ent: tmp}, RHS: call})
		return &ir.Var{Ent: tmp}
	case *ast.AddressNode:
		return t.addrOf(e.Expr)
	}
	panic(fmt.Sprintf("irgen: unexpected expression %T at %s", e, e.Pos()))
}

// spill copies a value into a fresh temporary
func (t *transformer) spill(v ir.Expr, pos ast.Pos) ir.Expr {
	tmp := t.newTemp(pos)
	t.emit(&ir.Assign{LHS: &ir.Var{Ent: tmp}, RHS: v})
	return &ir.Var{Ent: tmp}
}

// load produces a sized memory read
func (t *transformer) load(addr ir.Expr, typ types.Type) ir.Expr {
	return &ir.Mem{Expr: addr, ByteSize: typ.Size(), Signed: types.IsSigned(typ)}
}

// location lowers an lvalue to an assignable IR operand
func (t *transformer) location(e ast.Expr) ir.Expr {
	switch e := e.(type) {
	case *ast.VariableNode:
		return &ir.Var{Ent: e.Entity()}
	case *ast.DereferenceNode, *ast.MemberNode, *ast.PtrMemberNode, *ast.ArefNode:
		return t.load(t.addrOf(e), e.Type())
	}
	panic(fmt.Sprintf("irgen: unexpected lvalue %T at %s", e, e.Pos()))
}

// addrOf lowers the address of an lvalue, string literal or function
// designator.
func (t *transformer) addrOf(e ast.Expr) ir.Expr {
	switch e := e.(type) {
	case *ast.VariableNode:
		return &ir.Addr{Ent: e.Entity()}
	case *ast.StringLiteralNode:
		return &ir.Str{Entry: t.consts.Intern(e.Value)}
	case *ast.DereferenceNode:
		return t.exprValue(e.Expr)
	case *ast.MemberNode:
		m := types.MemberOf(e.Expr.Type(), e.Member)
		base := t.addrOf(e.Expr)
		if m.Offset == 0 {
			return base
		}
		return &ir.Bin{Op: ir.Add, Left: base, Right: &ir.Int{Value: int64(m.Offset)}}
	case *ast.PtrMemberNode:
		m := types.MemberOf(types.BaseOf(e.Expr.Type()), e.Member)
		base := t.exprValue(e.Expr)
		if m.Offset == 0 {
			return base
		}
		return &ir.Bin{Op: ir.Add, Left: base, Right: &ir.Int{Value: int64(m.Offset)}}
	case *ast.ArefNode:
		var base ir.Expr
		if types.IsArray(e.Expr.Type()) {
			base = t.addrOf(e.Expr)
		} else {
			base = t.exprValue(e.Expr)
		}
		elemSize := int64(e.Type().Size())
		idx := t.exprValue(e.Index)
		offset := scale(idx, elemSize)
		return &ir.Bin{Op: ir.Add, Left: base, Right: offset}
	case *ast.CastNode:
		// Array decay introduced by the type checker
		return t.addrOf(e.Expr)
	}
	panic(fmt.Sprintf("irgen: cannot take address of %T at %s", e, e.Pos()))
}

// scale multiplies an index by the element size, folding constants
func scale(idx ir.Expr, size int64) ir.Expr {
	if size == 1 {
		return idx
	}
	if lit, ok := idx.(*ir.Int); ok {
		return &ir.Int{Value: lit.Value * size}
	}
	return &ir.Bin{Op: ir.Mul, Left: idx, Right: &ir.Int{Value: size}}
}

// lowerCast lowers explicit and implicit conversions. Array and
// function operands decay to their addresses; integer conversions
// become IR casts when the width changes.
func (t *transformer) lowerCast(e *ast.CastNode) ir.Expr {
	src := e.Expr.Type()
	if types.IsArray(src) || types.IsFunction(src) {
		return t.addrOf(e.Expr)
	}
	operand := t.exprValue(e.Expr)
	from := src.Size()
	to := e.Type().Size()
	if from == to {
		return operand
	}
	return &ir.Cast{
		Expr:       operand,
		FromSize:   from,
		FromSigned: types.IsSigned(src),
		ToSize:     to,
		ToSigned:   types.IsSigned(e.Type()),
	}
}

// lowerBinary lowers a binary operator, handling short-circuit
// evaluation and pointer arithmetic scaling.
func (t *transformer) lowerBinary(e *ast.BinaryOpNode) ir.Expr {
	switch e.Op {
	case "&&":
		return t.lowerShortCircuit(e, true)
	case "||":
		return t.lowerShortCircuit(e, false)
	}

	lt, rt := e.Left.Type(), e.Right.Type()
	lp, rp := types.IsPointer(lt), types.IsPointer(rt)

	// ptr - ptr: difference divided by the element size
	if lp && rp && e.Op == "-" {
		elem := int64(types.BaseOf(lt).Size())
		diff := &ir.Bin{Op: ir.Sub, Left: t.exprValue(e.Left), Right: t.exprValue(e.Right)}
		if elem == 1 {
			return diff
		}
		return &ir.Bin{Op: ir.SDiv, Left: diff, Right: &ir.Int{Value: elem}}
	}
	// ptr +- int: scale the integer side by the element size
	if (e.Op == "+" || e.Op == "-") && (lp || rp) && !(lp && rp) {
		if lp {
			elem := int64(types.BaseOf(lt).Size())
			return &ir.Bin{
				Op:   binOp(e.Op, false),
				Left: t.exprValue(e.Left), Right: scale(t.exprValue(e.Right), elem),
			}
		}
		elem := int64(types.BaseOf(rt).Size())
		return &ir.Bin{
			Op:   ir.Add,
			Left: scale(t.exprValue(e.Left), elem), Right: t.exprValue(e.Right),
		}
	}

	signed := types.IsSigned(lt)
	return &ir.Bin{Op: binOp(e.Op, signed), Left: t.exprValue(e.Left), Right: t.exprValue(e.Right)}
}

// lowerShortCircuit lowers && and || to conditional jumps around
// assignments to a temporary.
func (t *transformer) lowerShortCircuit(e *ast.BinaryOpNode, isAnd bool) ir.Expr {
	tmp := t.newTemp(e.Pos())
	rightLabel := t.newLabel()
	endLabel := t.newLabel()

	left := t.exprValue(e.Left)
	t.emit(&ir.Assign{
		LHS: &ir.Var{Ent: tmp},
		RHS: &ir.Bin{Op: ir.Ne, Left: left, Right: &ir.Int{Value: 0}},
	})
	if isAnd {
		t.emit(&ir.CJump{Cond: &ir.Var{Ent: tmp}, Then: rightLabel, Else: endLabel})
	} else {
		t.emit(&ir.CJump{Cond: &ir.Var{Ent: tmp}, Then: endLabel, Else: rightLabel})
	}
	t.emit(&ir.LabelStmt{Name: rightLabel})
	right := t.exprValue(e.Right)
	t.emit(&ir.Assign{
		LHS: &ir.Var{Ent: tmp},
		RHS: &ir.Bin{Op: ir.Ne, Left: right, Right: &ir.Int{Value: 0}},
	})
	t.emit(&ir.LabelStmt{Name: endLabel})
	return &ir.Var{Ent: tmp}
}

// lowerCondExpr lowers ?: to jumps around assignments to a temporary
func (t *transformer) lowerCondExpr(e *ast.CondExprNode) ir.Expr {
	tmp := t.newTemp(e.Pos())
	thenLabel := t.newLabel()
	elseLabel := t.newLabel()
	endLabel := t.newLabel()

	cond := t.exprValue(e.Cond)
	t.emit(&ir.CJump{Cond: cond, Then: thenLabel, Else: elseLabel})
	t.emit(&ir.LabelStmt{Name: thenLabel})
	thenVal := t.exprValue(e.Then)
	t.emit(&ir.Assign{LHS: &ir.Var{Ent: tmp}, RHS: thenVal})
	t.emit(&ir.Jump{Target: endLabel})
	t.emit(&ir.LabelStmt{Name: elseLabel})
	elseVal := t.exprValue(e.Else)
	t.emit(&ir.Assign{LHS: &ir.Var{Ent: tmp}, RHS: elseVal})
	t.emit(&ir.LabelStmt{Name: endLabel})
	return &ir.Var{Ent: tmp}
}

// lowerOpAssign lowers a compound assignment and returns the
// location it stored to, re-read as the expression value.
func (t *transformer) lowerOpAssign(e *ast.OpAssignNode) ir.Expr {
	lt := e.LHS.Type()
	signed := types.IsSigned(lt)
	op := binOp(e.Op, signed)

	rhs := t.exprValue(e.RHS)
	if types.IsPointer(lt) {
		rhs = scale(rhs, int64(types.BaseOf(lt).Size()))
	}

	if v, ok := e.LHS.(*ast.VariableNode); ok {
		loc := &ir.Var{Ent: v.Entity()}
		t.emit(&ir.Assign{LHS: loc, RHS: &ir.Bin{Op: op, Left: loc, Right: rhs}})
		return loc
	}
	// Evaluate the location address once
	addr := t.spill(t.addrOf(e.LHS), e.Pos())
	loc := t.load(addr, lt)
	t.emit(&ir.Assign{LHS: loc, RHS: &ir.Bin{Op: op, Left: loc, Right: rhs}})
	return loc
}

// lowerIncDec lowers ++e and --e; the result is the updated value
func (t *transformer) lowerIncDec(op string, operand ast.Expr) ir.Expr {
	binop := ir.Add
	if op == "--" {
		binop = ir.Sub
	}
	delta := int64(1)
	if types.IsPointer(operand.Type()) {
		delta = int64(types.BaseOf(operand.Type()).Size())
	}

	if v, ok := operand.(*ast.VariableNode); ok {
		loc := &ir.Var{Ent: v.Entity()}
		t.emit(&ir.Assign{
			LHS: loc,
			RHS: &ir.Bin{Op: binop, Left: loc, Right: &ir.Int{Value: delta}},
		})
		return loc
	}
	addr := t.spill(t.addrOf(operand), operand.Pos())
	loc := t.load(addr, operand.Type())
	t.emit(&ir.Assign{
		LHS: loc,
		RHS: &ir.Bin{Op: binop, Left: loc, Right: &ir.Int{Value: delta}},
	})
	return loc
}

// lowerSuffixIncDec lowers e++ and e--; the result is the value
// before the update, saved in a temporary.
func (t *transformer) lowerSuffixIncDec(op string, operand ast.Expr) ir.Expr {
	binop := ir.Add
	if op == "--" {
		binop = ir.Sub
	}
	delta := int64(1)
	if types.IsPointer(operand.Type()) {
		delta = int64(types.BaseOf(operand.Type()).Size())
	}

	var loc ir.Expr
	if v, ok := operand.(*ast.VariableNode); ok {
		loc = &ir.Var{Ent: v.Entity()}
	} else {
		addr := t.spill(t.addrOf(operand), operand.Pos())
		loc = t.load(addr, operand.Type())
	}
	old := t.spill(loc, operand.Pos())
	t.emit(&ir.Assign{
		LHS: loc,
		RHS: &ir.Bin{Op: binop, Left: loc, Right: &ir.Int{Value: delta}},
	})
	return old
}

// lowerCall lowers a function call. When any argument has side
// effects, all arguments other than integer immediates are spilled to
// temporaries in source order to preserve left-to-right evaluation.
func (t *transformer) lowerCall(e *ast.FuncallNode) ir.Expr {
	args := make([]ir.Expr, len(e.Args))
	spillAll := false
	for _, a := range e.Args {
		if hasSideEffects(a) {
			spillAll = true
			break
		}
	}
	for i, a := range e.Args {
		v := t.exprValue(a)
		if spillAll {
			if _, isImm := v.(*ir.Int); !isImm {
				v = t.spill(v, a.Pos())
			}
		}
		args[i] = v
	}
	return &ir.Call{Fn: t.lowerCallee(e.Expr), Args: args}
}

// lowerCallee distinguishes direct calls from calls through a
// pointer value.
func (t *transformer) lowerCallee(e ast.Expr) ir.Expr {
	// Unwrap the function-to-pointer decay cast
	if cast, ok := e.(*ast.CastNode); ok && cast.Ref == nil && types.IsFunction(cast.Expr.Type()) {
		e = cast.Expr
	}
	if v, ok := e.(*ast.VariableNode); ok {
		switch v.Entity().(type) {
		case *ast.DefinedFunction, *ast.UndefinedFunction:
			return &ir.Addr{Ent: v.Entity()}
		}
	}
	// A call through a pointer: (*f)() and f() are equivalent
	if d, ok := e.(*ast.DereferenceNode); ok && types.IsFunction(d.Type()) {
		return t.exprValue(d.Expr)
	}
	return t.exprValue(e)
}

// binOp maps a source operator to its IR counterpart
func binOp(op string, signed bool) ir.Op {
	switch op {
	case "+":
		return ir.Add
	case "-":
		return ir.Sub
	case "*":
		return ir.Mul
	case "/":
		if signed {
			return ir.SDiv
		}
		return ir.UDiv
	case "%":
		if signed {
			return ir.SMod
		}
		return ir.UMod
	case "&":
		return ir.BitAnd
	case "|":
		return ir.BitOr
	case "^":
		return ir.BitXor
	case "<<":
		return ir.LShift
	case ">>":
		if signed {
			return ir.ArithRShift
		}
		return ir.BitRShift
	case "==":
		return ir.Eq
	case "!=":
		return ir.Ne
	case "<":
		if signed {
			return ir.SLt
		}
		return ir.ULt
	case "<=":
		if signed {
			return ir.SLe
		}
		return ir.ULe
	case ">":
		if signed {
			return ir.SGt
		}
		return ir.UGt
	case ">=":
		if signed {
			return ir.SGe
		}
		return ir.UGe
	}
	panic("irgen: unexpected operator " + op)
}

// hasSideEffects reports whether lowering an expression emits
// statements.
func hasSideEffects(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.AssignNode, *ast.OpAssignNode, *ast.PrefixOpNode,
		*ast.SuffixOpNode, *ast.FuncallNode:
		return true
	case *ast.UnaryOpNode:
		return hasSideEffects(e.Expr)
	case *ast.BinaryOpNode:
		return hasSideEffects(e.Left) || hasSideEffects(e.Right)
	case *ast.CondExprNode:
		return hasSideEffects(e.Cond) || hasSideEffects(e.Then) || hasSideEffects(e.Else)
	case *ast.CommaNode:
		return hasSideEffects(e.Left) || hasSideEffects(e.Right)
	case *ast.CastNode:
		return hasSideEffects(e.Expr)
	case *ast.MemberNode:
		return hasSideEffects(e.Expr)
	case *ast.PtrMemberNode:
		return hasSideEffects(e.Expr)
	case *ast.ArefNode:
		return hasSideEffects(e.Expr) || hasSideEffects(e.Index)
	case *ast.AddressNode:
		return hasSideEffects(e.Expr)
	case *ast.DereferenceNode:
		return hasSideEffects(e.Expr)
	}
	return false
}
