package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// ResolveTypes interns every named type in the type table, attaches a
// resolved type to every declared entity, and computes struct and
// union layouts. Typedef chains are flattened: the underlying type of
// an alias never contains another alias.
func ResolveTypes(prog *ast.Program, h *ErrorHandler) *types.TypeTable {
	r := &typeResolver{h: h, table: types.NewTypeTable()}
	r.defineTypes(prog)
	r.resolveDecls(prog)
	for _, msg := range r.table.SemanticCheck() {
		h.ErrorMsg(msg)
	}
	return r.table
}

type typeResolver struct {
	h     *ErrorHandler
	table *types.TypeTable
}

// defineTypes registers struct, union and typedef names. Composite
// types are created empty first so that members may refer to other
// composites in either order; member lists are filled in a second
// sweep.
func (r *typeResolver) defineTypes(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.StructNode:
			st := &types.StructType{Name: d.Name, Loc: d.Position.String()}
			if err := r.table.Define(types.RefStruct, d.Name, st); err != nil {
				r.h.Errorf(d.Position, "%s", err)
			}
		case *ast.UnionNode:
			ut := &types.UnionType{Name: d.Name, Loc: d.Position.String()}
			if err := r.table.Define(types.RefUnion, d.Name, ut); err != nil {
				r.h.Errorf(d.Position, "%s", err)
			}
		}
	}
	// Typedefs may refer to composites and to earlier typedefs
	for _, d := range prog.Decls {
		if td, ok := d.(*ast.TypedefNode); ok {
			real := r.resolveRef(td.Real)
			if real == nil {
				continue
			}
			ut := &types.UserType{Name: td.Name, Real: types.Real(real)}
			if err := r.table.Define(types.RefPlain, td.Name, ut); err != nil {
				r.h.Errorf(td.Position, "%s", err)
			}
		}
	}
	// Fill member lists
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.StructNode:
			st, _ := r.table.Get(types.RefStruct, d.Name)
			if st, ok := st.(*types.StructType); ok {
				st.Members = r.resolveMembers(d.Members)
			}
		case *ast.UnionNode:
			ut, _ := r.table.Get(types.RefUnion, d.Name)
			if ut, ok := ut.(*types.UnionType); ok {
				ut.Members = r.resolveMembers(d.Members)
			}
		}
	}
}

func (r *typeResolver) resolveMembers(slots []ast.Slot) []types.Member {
	members := make([]types.Member, 0, len(slots))
	for _, s := range slots {
		t := r.resolveRef(s.Ref)
		if t == nil {
			continue
		}
		if types.IsVoid(t) {
			r.h.Errorf(s.Position, "member %s has void type", s.Name)
			continue
		}
		if types.IsFunction(t) {
			r.h.Errorf(s.Position, "member %s has function type", s.Name)
			continue
		}
		members = append(members, types.Member{Name: s.Name, Type: t})
	}
	return members
}

// resolveDecls attaches resolved types to every declared entity and
// to the type-carrying expression nodes.
func (r *typeResolver) resolveDecls(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.DefinedVariable:
			r.resolveVariable(d)
			if d.Init != nil {
				r.resolveExpr(d.Init)
			}
		case *ast.UndefinedVariable:
			t := r.resolveRef(d.Ref)
			if t != nil && !r.checkVariableType(d.Position, d.VarName, t) {
				t = nil
			}
			d.SetEntityType(t)
		case *ast.Constant:
			d.SetEntityType(r.resolveRef(d.Ref))
			r.resolveExpr(d.Value)
		case *ast.DefinedFunction:
			r.resolveFunction(d)
		case *ast.UndefinedFunction:
			ret := r.resolveRef(d.Return)
			params := r.resolveParams(d.Params)
			if ret != nil {
				if types.IsComposite(ret) {
					r.h.Errorf(d.Position, "function %s returns a struct or union", d.FuncName)
				}
				d.SetEntityType(types.Function(ret, params, d.Variadic))
			}
		}
	}
}

func (r *typeResolver) resolveVariable(v *ast.DefinedVariable) {
	if v.Ref == nil {
		return // lowering temporary, typed directly
	}
	t := r.resolveRef(v.Ref)
	if t != nil && !r.checkVariableType(v.Position, v.VarName, t) {
		t = nil
	}
	v.SetEntityType(t)
}

func (r *typeResolver) checkVariableType(pos ast.Pos, name string, t types.Type) bool {
	if types.IsVoid(t) {
		r.h.Errorf(pos, "variable %s has void type", name)
		return false
	}
	if types.IsFunction(t) {
		r.h.Errorf(pos, "variable %s has function type", name)
		return false
	}
	return true
}

func (r *typeResolver) resolveFunction(fn *ast.DefinedFunction) {
	ret := r.resolveRef(fn.Return)
	params := r.resolveParams(fn.Params)
	if ret != nil {
		if types.IsArray(ret) {
			r.h.Errorf(fn.Position, "function %s returns an array", fn.FuncName)
		}
		if types.IsComposite(ret) {
			r.h.Errorf(fn.Position, "function %s returns a struct or union", fn.FuncName)
		}
		fn.SetEntityType(types.Function(ret, params, fn.Variadic))
	}
	r.resolveStmt(fn.Body)
}

func (r *typeResolver) resolveParams(params []*ast.Parameter) []types.Type {
	out := make([]types.Type, 0, len(params))
	for _, prm := range params {
		t := r.resolveRef(prm.Ref)
		if t == nil {
			out = append(out, nil)
			continue
		}
		if types.IsVoid(t) {
			r.h.Errorf(prm.Position, "parameter %s has void type", prm.VarName)
			t = nil
		}
		if t != nil && types.IsComposite(t) {
			r.h.Errorf(prm.Position, "parameter %s is a struct or union; pass a pointer instead", prm.VarName)
		}
		// Arrays, with or without a length, decay to pointers in
		// parameter position.
		if at, ok := types.Real(t).(*types.ArrayType); ok && t != nil {
			t = types.Pointer(at.Base)
		}
		prm.SetEntityType(t)
		out = append(out, t)
	}
	return out
}

func (r *typeResolver) resolveStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	if b, ok := s.(*ast.BlockNode); ok {
		for _, v := range b.Vars {
			r.resolveVariable(v)
			if v.Init != nil {
				r.resolveExpr(v.Init)
			}
		}
	}
	if f, ok := s.(*ast.ForNode); ok && f.InitDecl != nil {
		r.resolveVariable(f.InitDecl)
		if f.InitDecl.Init != nil {
			r.resolveExpr(f.InitDecl.Init)
		}
	}
	for _, e := range stmtExprs(s) {
		r.resolveExpr(e)
	}
	for _, c := range stmtChildren(s) {
		r.resolveStmt(c)
	}
	if sw, ok := s.(*ast.SwitchNode); ok {
		for _, c := range sw.Cases {
			for _, v := range c.Values {
				r.resolveExpr(v)
			}
		}
	}
}

// resolveExpr resolves the type references inside cast and sizeof
// nodes; full expression typing belongs to the type checker.
func (r *typeResolver) resolveExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.CastNode:
		if e.Ref != nil {
			if t := r.resolveRef(e.Ref); t != nil {
				e.SetOrigType(t)
				e.SetType(t)
			}
		}
	case *ast.SizeofTypeNode:
		if t := r.resolveRef(e.Ref); t != nil {
			if types.IsFunction(t) {
				r.h.Errorf(e.Pos(), "sizeof applied to function type")
			}
			e.Target = t
		}
	}
	for _, c := range exprChildren(e) {
		r.resolveExpr(c)
	}
}

// resolveRef maps a syntactic type reference to its resolved type
func (r *typeResolver) resolveRef(ref ast.TypeRef) types.Type {
	switch ref := ref.(type) {
	case *ast.VoidRef:
		return types.Void()
	case *ast.IntegerRef:
		t, ok := r.table.Get(types.RefPlain, ref.Name)
		if !ok {
			r.h.Errorf(ref.Position, "unknown type: %s", ref.Name)
			return nil
		}
		return t
	case *ast.StructRef:
		t, ok := r.table.Get(types.RefStruct, ref.Name)
		if !ok {
			r.h.Errorf(ref.Position, "undefined type: struct %s", ref.Name)
			return nil
		}
		return t
	case *ast.UnionRef:
		t, ok := r.table.Get(types.RefUnion, ref.Name)
		if !ok {
			r.h.Errorf(ref.Position, "undefined type: union %s", ref.Name)
			return nil
		}
		return t
	case *ast.UserRef:
		t, ok := r.table.Get(types.RefPlain, ref.Name)
		if !ok {
			r.h.Errorf(ref.Position, "undefined type: %s", ref.Name)
			return nil
		}
		return t
	case *ast.PointerRef:
		base := r.resolveRef(ref.Base)
		if base == nil {
			return nil
		}
		return types.Pointer(base)
	case *ast.ArrayRef:
		base := r.resolveRef(ref.Base)
		if base == nil {
			return nil
		}
		if ref.Length == 0 {
			r.h.Errorf(ref.Position, "zero-length array")
			return nil
		}
		if types.IsVoid(base) || types.IsFunction(base) {
			r.h.Errorf(ref.Position, "array of incomplete type")
			return nil
		}
		if at, ok := types.Real(base).(*types.ArrayType); ok && !at.IsComplete() {
			r.h.Errorf(ref.Position, "array element type is incomplete")
			return nil
		}
		return types.Array(base, ref.Length)
	case *ast.FuncRef:
		ret := r.resolveRef(ref.Return)
		if ret == nil {
			return nil
		}
		params := make([]types.Type, 0, len(ref.Params))
		for _, pr := range ref.Params {
			pt := r.resolveRef(pr)
			if pt == nil {
				return nil
			}
			if types.IsVoid(pt) {
				r.h.Errorf(pr.Pos(), "parameter type is void")
				return nil
			}
			params = append(params, pt)
		}
		return types.Function(ret, params, ref.Variadic)
	}
	return nil
}
