package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// FoldInteger evaluates an integer constant expression. It follows
// bound constants, so enum members and const definitions fold. The
// second result is false when the expression is not constant.
func FoldInteger(e ast.Expr) (int64, bool) {
	switch e := e.(type) {
	case *ast.IntegerLiteralNode:
		return e.Value, true
	case *ast.VariableNode:
		if c, ok := e.Entity().(*ast.Constant); ok {
			return FoldInteger(c.Value)
		}
		return 0, false
	case *ast.UnaryOpNode:
		v, ok := FoldInteger(e.Expr)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "+":
			return v, true
		case "-":
			return -v, true
		case "~":
			return ^v, true
		case "!":
			return boolValue(v == 0), true
		}
		return 0, false
	case *ast.BinaryOpNode:
		l, ok := FoldInteger(e.Left)
		if !ok {
			return 0, false
		}
		r, ok := FoldInteger(e.Right)
		if !ok {
			return 0, false
		}
		return foldBinary(e.Op, l, r)
	case *ast.CondExprNode:
		c, ok := FoldInteger(e.Cond)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return FoldInteger(e.Then)
		}
		return FoldInteger(e.Else)
	case *ast.CastNode:
		v, ok := FoldInteger(e.Expr)
		if !ok {
			return 0, false
		}
		return truncate(v, e.Type()), true
	case *ast.SizeofTypeNode:
		if e.Target == nil {
			return 0, false
		}
		return int64(e.Target.Size()), true
	case *ast.SizeofExprNode:
		if e.Expr.Type() == nil {
			return 0, false
		}
		return int64(e.Expr.Type().Size()), true
	}
	return 0, false
}

func foldBinary(op string, l, r int64) (int64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	case "<<":
		if r < 0 || r >= 64 {
			return 0, false
		}
		return l << uint(r), true
	case ">>":
		if r < 0 || r >= 64 {
			return 0, false
		}
		return l >> uint(r), true
	case "==":
		return boolValue(l == r), true
	case "!=":
		return boolValue(l != r), true
	case "<":
		return boolValue(l < r), true
	case "<=":
		return boolValue(l <= r), true
	case ">":
		return boolValue(l > r), true
	case ">=":
		return boolValue(l >= r), true
	case "&&":
		return boolValue(l != 0 && r != 0), true
	case "||":
		return boolValue(l != 0 || r != 0), true
	}
	return 0, false
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// truncate wraps a folded value to the width of an integer type
func truncate(v int64, t types.Type) int64 {
	it, ok := types.Real(t).(*types.IntegerType)
	if !ok {
		return v
	}
	bits := uint(it.ByteSize) * 8
	if bits >= 64 {
		return v
	}
	mask := int64(1)<<bits - 1
	v &= mask
	if it.Signed && v&(int64(1)<<(bits-1)) != 0 {
		v -= int64(1) << bits
	}
	return v
}
