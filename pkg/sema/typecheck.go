package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// CheckTypes performs full expression typing. Every expression
// receives its original and effective types, and every implicit
// conversion is materialized as a cast node so code generation never
// reasons about conversions.
func CheckTypes(prog *ast.Program, table *types.TypeTable, h *ErrorHandler) {
	c := &typeChecker{h: h, table: table}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.DefinedVariable:
			c.checkGlobalVariable(d)
		case *ast.Constant:
			c.checkConstant(d)
		case *ast.DefinedFunction:
			c.fn = d
			c.checkStmt(d.Body)
			c.fn = nil
		}
	}
}

type typeChecker struct {
	h     *ErrorHandler
	table *types.TypeTable
	fn    *ast.DefinedFunction
}

// --- Declarations ---

func (c *typeChecker) checkGlobalVariable(v *ast.DefinedVariable) {
	if v.Init == nil || v.EntityType() == nil {
		return
	}
	v.Init = c.assignTo(v.Init, v.EntityType(), v.Position)
	if v.Init == nil {
		return
	}
	if !isConstantInitializer(v.Init) {
		c.h.Errorf(v.Position, "initializer of global %s is not a constant", v.VarName)
	}
}

func (c *typeChecker) checkConstant(d *ast.Constant) {
	if d.EntityType() == nil {
		return
	}
	d.Value = c.assignTo(d.Value, d.EntityType(), d.Position)
	if d.Value == nil {
		return
	}
	if _, ok := FoldInteger(d.Value); !ok {
		if _, isStr := d.Value.(*ast.StringLiteralNode); !isStr {
			c.h.Errorf(d.Position, "constant %s is not a constant expression", d.ConstName)
		}
	}
}

func isConstantInitializer(e ast.Expr) bool {
	if _, ok := FoldInteger(e); ok {
		return true
	}
	switch e := e.(type) {
	case *ast.StringLiteralNode:
		return true
	case *ast.CastNode:
		return isConstantInitializer(e.Expr)
	}
	return false
}

// --- Statements ---

func (c *typeChecker) checkStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	switch s := s.(type) {
	case *ast.BlockNode:
		for _, v := range s.Vars {
			c.checkLocalVariable(v)
		}
		for _, sub := range s.Stmts {
			c.checkStmt(sub)
		}
	case *ast.ExprStmtNode:
		s.Expr = c.value(s.Expr)
	case *ast.IfNode:
		s.Cond = c.condition(s.Cond)
		c.checkStmt(s.Then)
		c.checkStmt(s.Else)
	case *ast.WhileNode:
		s.Cond = c.condition(s.Cond)
		c.checkStmt(s.Body)
	case *ast.DoWhileNode:
		c.checkStmt(s.Body)
		s.Cond = c.condition(s.Cond)
	case *ast.ForNode:
		if s.InitDecl != nil {
			c.checkLocalVariable(s.InitDecl)
		}
		if s.Init != nil {
			s.Init = c.value(s.Init)
		}
		if s.Cond != nil {
			s.Cond = c.condition(s.Cond)
		}
		if s.Step != nil {
			s.Step = c.value(s.Step)
		}
		c.checkStmt(s.Body)
	case *ast.SwitchNode:
		c.checkSwitch(s)
	case *ast.ReturnNode:
		c.checkReturn(s)
	case *ast.LabelNode:
		c.checkStmt(s.Stmt)
	}
}

func (c *typeChecker) checkLocalVariable(v *ast.DefinedVariable) {
	if v.Init == nil || v.EntityType() == nil {
		return
	}
	v.Init = c.assignTo(v.Init, v.EntityType(), v.Position)
}

func (c *typeChecker) checkSwitch(s *ast.SwitchNode) {
	s.Cond = c.value(s.Cond)
	if s.Cond != nil && s.Cond.Type() != nil {
		if !types.IsInteger(s.Cond.Type()) {
			c.h.Errorf(s.Pos(), "switch condition must be an integer, not %s", s.Cond.Type())
		} else {
			s.Cond = c.promote(s.Cond)
		}
	}
	seen := make(map[int64]bool)
	defaults := 0
	for _, clause := range s.Cases {
		if len(clause.Values) == 0 {
			defaults++
			if defaults > 1 {
				c.h.Errorf(clause.Position, "duplicated default label")
			}
		}
		for i, vexpr := range clause.Values {
			clause.Values[i] = c.value(vexpr)
			v, ok := FoldInteger(clause.Values[i])
			if !ok {
				c.h.Errorf(vexpr.Pos(), "case label is not an integer constant")
				continue
			}
			if seen[v] {
				c.h.Errorf(vexpr.Pos(), "duplicated case label: %d", v)
			}
			seen[v] = true
		}
		c.checkStmt(clause.Body)
	}
}

func (c *typeChecker) checkReturn(s *ast.ReturnNode) {
	if c.fn == nil {
		return
	}
	ft := c.fn.FunctionType()
	if ft == nil {
		return
	}
	if types.IsVoid(ft.Return) {
		if s.Expr != nil {
			c.h.Errorf(s.Position, "returning value from void function")
			s.Expr = c.value(s.Expr)
		}
		return
	}
	if s.Expr == nil {
		c.h.Errorf(s.Position, "return value required")
		return
	}
	s.Expr = c.assignTo(s.Expr, ft.Return, s.Position)
}

// --- Expressions ---

// value types an expression in an rvalue context: arrays decay to
// pointers to their first element, function designators to function
// pointers.
func (c *typeChecker) value(e ast.Expr) ast.Expr {
	e = c.check(e)
	if e == nil || e.Type() == nil {
		return e
	}
	switch rt := types.Real(e.Type()).(type) {
	case *types.ArrayType:
		return ast.NewImplicitCast(e, types.Pointer(rt.Base))
	case *types.FunctionType:
		return ast.NewImplicitCast(e, types.Pointer(e.Type()))
	}
	return e
}

// condition types a controlling expression, which must be scalar
func (c *typeChecker) condition(e ast.Expr) ast.Expr {
	e = c.value(e)
	if e != nil && e.Type() != nil && !types.IsScalar(e.Type()) {
		c.h.Errorf(e.Pos(), "condition must be a scalar, not %s", e.Type())
	}
	return e
}

// setType fills both type slots of a node
func setType(e ast.Expr, t types.Type) {
	e.SetOrigType(t)
	e.SetType(t)
}

// check computes the type of an expression without decay
func (c *typeChecker) check(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *ast.IntegerLiteralNode:
		if e.Unsigned {
			setType(e, types.UInt())
		} else {
			setType(e, types.Int())
		}
	case *ast.StringLiteralNode:
		setType(e, types.Pointer(types.Char()))
	case *ast.VariableNode:
		if e.Entity() != nil {
			setType(e, e.Entity().EntityType())
		}
	case *ast.UnaryOpNode:
		c.checkUnary(e)
	case *ast.PrefixOpNode:
		e.Expr = c.check(e.Expr)
		c.checkIncDec(e, e.Expr)
	case *ast.SuffixOpNode:
		e.Expr = c.check(e.Expr)
		c.checkIncDec(e, e.Expr)
	case *ast.BinaryOpNode:
		e.Left = c.value(e.Left)
		e.Right = c.value(e.Right)
		c.checkBinary(e)
	case *ast.CondExprNode:
		c.checkCond(e)
	case *ast.CommaNode:
		e.Left = c.value(e.Left)
		e.Right = c.value(e.Right)
		if e.Right != nil {
			setType(e, e.Right.Type())
		}
	case *ast.AssignNode:
		e.LHS = c.check(e.LHS)
		if e.LHS == nil || e.LHS.Type() == nil {
			return e
		}
		e.RHS = c.assignTo(e.RHS, e.LHS.Type(), e.Pos())
		setType(e, e.LHS.Type())
	case *ast.OpAssignNode:
		c.checkOpAssign(e)
	case *ast.CastNode:
		e.Expr = c.value(e.Expr)
		c.checkCast(e)
	case *ast.SizeofExprNode:
		e.Expr = c.check(e.Expr)
		if e.Expr != nil && e.Expr.Type() != nil && types.IsFunction(e.Expr.Type()) {
			c.h.Errorf(e.Pos(), "sizeof applied to a function")
		}
		setType(e, types.ULong())
	case *ast.SizeofTypeNode:
		setType(e, types.ULong())
	case *ast.MemberNode:
		e.Expr = c.check(e.Expr)
		c.checkMember(e, e.Expr, e.Member, false)
	case *ast.PtrMemberNode:
		e.Expr = c.value(e.Expr)
		c.checkMember(e, e.Expr, e.Member, true)
	case *ast.ArefNode:
		e.Expr = c.check(e.Expr)
		e.Index = c.value(e.Index)
		c.checkAref(e)
	case *ast.FuncallNode:
		c.checkFuncall(e)
	case *ast.AddressNode:
		e.Expr = c.check(e.Expr)
		if e.Expr != nil && e.Expr.Type() != nil {
			setType(e, types.Pointer(e.Expr.Type()))
		}
	case *ast.DereferenceNode:
		e.Expr = c.value(e.Expr)
		c.checkDeref(e)
	}
	return e
}

func (c *typeChecker) checkUnary(e *ast.UnaryOpNode) {
	e.Expr = c.value(e.Expr)
	if e.Expr == nil || e.Expr.Type() == nil {
		return
	}
	t := e.Expr.Type()
	switch e.Op {
	case "+", "-", "~":
		if !types.IsInteger(t) {
			c.h.Errorf(e.Pos(), "operand of unary %s must be an integer, not %s", e.Op, t)
			return
		}
		e.Expr = c.promote(e.Expr)
		setType(e, e.Expr.Type())
	case "!":
		if !types.IsScalar(t) {
			c.h.Errorf(e.Pos(), "operand of ! must be a scalar, not %s", t)
			return
		}
		setType(e, types.Int())
	}
}

func (c *typeChecker) checkIncDec(e ast.Expr, operand ast.Expr) {
	if operand == nil || operand.Type() == nil {
		return
	}
	t := operand.Type()
	if !types.IsInteger(t) && !types.IsPointer(t) {
		c.h.Errorf(e.Pos(), "operand of ++/-- must be an integer or pointer, not %s", t)
		return
	}
	if types.IsPointer(t) && !c.pointerArithOK(e.Pos(), t) {
		return
	}
	setType(e, t)
}

// pointerArithOK verifies that the pointee size is known
func (c *typeChecker) pointerArithOK(pos ast.Pos, t types.Type) bool {
	base := types.BaseOf(t)
	if base == nil || types.IsVoid(base) || types.IsFunction(base) {
		c.h.Errorf(pos, "pointer arithmetic on %s", t)
		return false
	}
	return true
}

func (c *typeChecker) checkBinary(e *ast.BinaryOpNode) {
	if e.Left == nil || e.Right == nil || e.Left.Type() == nil || e.Right.Type() == nil {
		return
	}
	lt, rt := e.Left.Type(), e.Right.Type()
	switch e.Op {
	case "+", "-":
		lp, rp := types.IsPointer(lt), types.IsPointer(rt)
		switch {
		case lp && !rp:
			if !types.IsInteger(rt) || !c.pointerArithOK(e.Pos(), lt) {
				c.invalidOperands(e)
				return
			}
			e.Right = c.promote(e.Right)
			setType(e, lt)
			return
		case !lp && rp:
			if e.Op == "-" || !types.IsInteger(lt) || !c.pointerArithOK(e.Pos(), rt) {
				c.invalidOperands(e)
				return
			}
			e.Left = c.promote(e.Left)
			setType(e, rt)
			return
		case lp && rp:
			if e.Op != "-" || !types.Equal(types.BaseOf(lt), types.BaseOf(rt)) ||
				!c.pointerArithOK(e.Pos(), lt) {
				c.invalidOperands(e)
				return
			}
			setType(e, types.Long())
			return
		}
		c.arithmetic(e)
	case "*", "/", "%", "&", "|", "^":
		c.arithmetic(e)
	case "<<", ">>":
		if !types.IsInteger(lt) || !types.IsInteger(rt) {
			c.invalidOperands(e)
			return
		}
		e.Left = c.promote(e.Left)
		e.Right = c.promote(e.Right)
		setType(e, e.Left.Type())
	case "==", "!=", "<", "<=", ">", ">=":
		c.comparison(e)
	case "&&", "||":
		if !types.IsScalar(lt) || !types.IsScalar(rt) {
			c.invalidOperands(e)
			return
		}
		setType(e, types.Int())
	}
}

func (c *typeChecker) invalidOperands(e *ast.BinaryOpNode) {
	c.h.Errorf(e.Pos(), "invalid operands to %s: %s and %s",
		e.Op, e.Left.Type(), e.Right.Type())
}

// arithmetic applies the usual arithmetic conversions to an
// integer-only operator.
func (c *typeChecker) arithmetic(e *ast.BinaryOpNode) {
	if !types.IsInteger(e.Left.Type()) || !types.IsInteger(e.Right.Type()) {
		c.invalidOperands(e)
		return
	}
	t := c.usualArith(&e.Left, &e.Right)
	setType(e, t)
}

// comparison types a relational or equality operator; the result is
// always int.
func (c *typeChecker) comparison(e *ast.BinaryOpNode) {
	lt, rt := e.Left.Type(), e.Right.Type()
	switch {
	case types.IsInteger(lt) && types.IsInteger(rt):
		c.usualArith(&e.Left, &e.Right)
	case types.IsPointer(lt) && types.IsPointer(rt):
		if !types.Equal(types.BaseOf(lt), types.BaseOf(rt)) &&
			!types.IsVoid(types.BaseOf(lt)) && !types.IsVoid(types.BaseOf(rt)) {
			c.h.Errorf(e.Pos(), "comparison of distinct pointer types: %s and %s", lt, rt)
			return
		}
	case types.IsPointer(lt) && isNullConstant(e.Right):
		e.Right = ast.NewImplicitCast(e.Right, lt)
	case types.IsPointer(rt) && isNullConstant(e.Left):
		e.Left = ast.NewImplicitCast(e.Left, rt)
	default:
		c.invalidOperands(e)
		return
	}
	setType(e, types.Int())
}

// usualArith applies integer promotions and the usual arithmetic
// conversions to both operands, materializing casts, and returns the
// common type. On a width tie the unsigned type wins.
func (c *typeChecker) usualArith(l, r *ast.Expr) types.Type {
	*l = c.promote(*l)
	*r = c.promote(*r)
	lt := types.Real((*l).Type()).(*types.IntegerType)
	rt := types.Real((*r).Type()).(*types.IntegerType)
	if lt.ByteSize == rt.ByteSize && lt.Signed == rt.Signed {
		return (*l).Type()
	}
	var common types.Type
	switch {
	case lt.ByteSize > rt.ByteSize:
		common = (*l).Type()
	case rt.ByteSize > lt.ByteSize:
		common = (*r).Type()
	case !lt.Signed:
		common = (*l).Type()
	default:
		common = (*r).Type()
	}
	if !types.Equal((*l).Type(), common) {
		*l = ast.NewImplicitCast(*l, common)
	}
	if !types.Equal((*r).Type(), common) {
		*r = ast.NewImplicitCast(*r, common)
	}
	return common
}

// promote applies the integer promotions: char and short operands
// widen to int.
func (c *typeChecker) promote(e ast.Expr) ast.Expr {
	it, ok := types.Real(e.Type()).(*types.IntegerType)
	if !ok || it.ByteSize >= types.IntSize {
		return e
	}
	return ast.NewImplicitCast(e, types.Int())
}

func (c *typeChecker) checkCond(e *ast.CondExprNode) {
	e.Cond = c.condition(e.Cond)
	e.Then = c.value(e.Then)
	e.Else = c.value(e.Else)
	if e.Then == nil || e.Else == nil || e.Then.Type() == nil || e.Else.Type() == nil {
		return
	}
	tt, et := e.Then.Type(), e.Else.Type()
	switch {
	case types.IsInteger(tt) && types.IsInteger(et):
		setType(e, c.usualArith(&e.Then, &e.Else))
	case types.Equal(tt, et):
		setType(e, tt)
	case types.IsPointer(tt) && isNullConstant(e.Else):
		e.Else = ast.NewImplicitCast(e.Else, tt)
		setType(e, tt)
	case types.IsPointer(et) && isNullConstant(e.Then):
		e.Then = ast.NewImplicitCast(e.Then, et)
		setType(e, et)
	default:
		c.h.Errorf(e.Pos(), "incompatible conditional branches: %s and %s", tt, et)
	}
}

func (c *typeChecker) checkOpAssign(e *ast.OpAssignNode) {
	e.LHS = c.check(e.LHS)
	e.RHS = c.value(e.RHS)
	if e.LHS == nil || e.RHS == nil || e.LHS.Type() == nil || e.RHS.Type() == nil {
		return
	}
	lt, rt := e.LHS.Type(), e.RHS.Type()
	if types.IsPointer(lt) {
		if (e.Op != "+" && e.Op != "-") || !types.IsInteger(rt) ||
			!c.pointerArithOK(e.Pos(), lt) {
			c.h.Errorf(e.Pos(), "invalid operands to %s=: %s and %s", e.Op, lt, rt)
			return
		}
		e.RHS = c.promote(e.RHS)
		setType(e, lt)
		return
	}
	if !types.IsInteger(lt) || !types.IsInteger(rt) {
		c.h.Errorf(e.Pos(), "invalid operands to %s=: %s and %s", e.Op, lt, rt)
		return
	}
	e.RHS = c.promote(e.RHS)
	setType(e, lt)
}

func (c *typeChecker) checkCast(e *ast.CastNode) {
	if e.Type() == nil || e.Expr == nil || e.Expr.Type() == nil {
		return
	}
	target := e.Type()
	src := e.Expr.Type()
	if types.IsVoid(target) {
		return
	}
	if types.IsScalar(target) && types.IsScalar(src) {
		return
	}
	c.h.Errorf(e.Pos(), "invalid cast from %s to %s", src, target)
}

func (c *typeChecker) checkMember(e ast.Expr, base ast.Expr, name string, ptr bool) {
	if base == nil || base.Type() == nil {
		return
	}
	t := base.Type()
	if ptr {
		if !types.IsPointer(t) {
			c.h.Errorf(e.Pos(), "-> applied to non-pointer: %s", t)
			return
		}
		t = types.BaseOf(t)
	}
	if !types.IsComposite(t) {
		c.h.Errorf(e.Pos(), "accessing member %s of non-struct, non-union: %s", name, t)
		return
	}
	m := types.MemberOf(t, name)
	if m == nil {
		c.h.Errorf(e.Pos(), "%s has no member %s", t, name)
		return
	}
	setType(e, m.Type)
}

func (c *typeChecker) checkAref(e *ast.ArefNode) {
	if e.Expr == nil || e.Index == nil || e.Expr.Type() == nil || e.Index.Type() == nil {
		return
	}
	if !types.IsPointerOrArray(e.Expr.Type()) {
		c.h.Errorf(e.Pos(), "indexing non-array, non-pointer: %s", e.Expr.Type())
		return
	}
	if !types.IsInteger(e.Index.Type()) {
		c.h.Errorf(e.Pos(), "array index must be an integer, not %s", e.Index.Type())
		return
	}
	e.Index = c.promote(e.Index)
	base := types.BaseOf(e.Expr.Type())
	if types.IsVoid(base) {
		c.h.Errorf(e.Pos(), "indexing void pointer")
		return
	}
	setType(e, base)
}

func (c *typeChecker) checkFuncall(e *ast.FuncallNode) {
	e.Expr = c.check(e.Expr)
	if e.Expr == nil || e.Expr.Type() == nil {
		return
	}
	ft := types.FunctionTypeOf(e.Expr.Type())
	if ft == nil {
		c.h.Errorf(e.Pos(), "calling non-function: %s", e.Expr.Type())
		return
	}
	if ft.Variadic {
		if len(e.Args) < len(ft.Params) {
			c.h.Errorf(e.Pos(), "too few arguments: expected at least %d, got %d",
				len(ft.Params), len(e.Args))
			return
		}
	} else if len(e.Args) != len(ft.Params) {
		c.h.Errorf(e.Pos(), "wrong number of arguments: expected %d, got %d",
			len(ft.Params), len(e.Args))
		return
	}
	for i := range e.Args {
		if i < len(ft.Params) {
			e.Args[i] = c.assignTo(e.Args[i], ft.Params[i], e.Args[i].Pos())
		} else {
			// Default argument promotions for variadic extras
			e.Args[i] = c.value(e.Args[i])
			if e.Args[i] != nil && e.Args[i].Type() != nil && types.IsInteger(e.Args[i].Type()) {
				e.Args[i] = c.promote(e.Args[i])
			}
		}
	}
	setType(e, ft.Return)
}

func (c *typeChecker) checkDeref(e *ast.DereferenceNode) {
	if e.Expr == nil || e.Expr.Type() == nil {
		return
	}
	t := e.Expr.Type()
	if !types.IsPointer(t) {
		c.h.Errorf(e.Pos(), "dereferencing non-pointer: %s", t)
		return
	}
	base := types.BaseOf(t)
	if types.IsVoid(base) {
		c.h.Errorf(e.Pos(), "dereferencing void pointer")
		return
	}
	setType(e, base)
}

// assignTo types an expression in a context expecting the given
// type, materializing the implicit conversion. Used for assignments,
// initializers, arguments and return values.
func (c *typeChecker) assignTo(e ast.Expr, target types.Type, pos ast.Pos) ast.Expr {
	e = c.value(e)
	if e == nil || e.Type() == nil || target == nil {
		return e
	}
	src := e.Type()
	switch {
	case types.Equal(src, target):
		return e
	case types.IsInteger(src) && types.IsInteger(target):
		return ast.NewImplicitCast(e, target)
	case types.IsPointer(target) && isNullConstant(e):
		return ast.NewImplicitCast(e, target)
	case types.IsPointer(target) && types.IsPointer(src):
		if types.IsVoid(types.BaseOf(target)) || types.IsVoid(types.BaseOf(src)) {
			return ast.NewImplicitCast(e, target)
		}
		c.h.Errorf(pos, "incompatible pointer types: %s and %s", src, target)
		return e
	default:
		c.h.Errorf(pos, "incompatible types: %s and %s", src, target)
		return e
	}
}

// isNullConstant reports whether e is the integer constant 0
func isNullConstant(e ast.Expr) bool {
	lit, ok := e.(*ast.IntegerLiteralNode)
	return ok && lit.Value == 0
}
