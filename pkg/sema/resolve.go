package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/entity"
)

// ResolveReferences builds the scope tree and binds every variable
// reference to its declaration. It returns the top-level scope.
func ResolveReferences(prog *ast.Program, h *ErrorHandler) *entity.Scope {
	r := &localResolver{h: h, toplevel: entity.NewToplevel()}
	r.declareToplevel(prog)

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.DefinedVariable:
			if d.Init != nil {
				r.resolveExpr(d.Init, r.toplevel)
			}
		case *ast.Constant:
			r.resolveExpr(d.Value, r.toplevel)
		case *ast.DefinedFunction:
			r.resolveFunction(d)
		}
	}
	return r.toplevel
}

type localResolver struct {
	h        *ErrorHandler
	toplevel *entity.Scope
}

// declareToplevel inserts all top-level entities, merging prototypes
// with definitions when their declared types match.
func (r *localResolver) declareToplevel(prog *ast.Program) {
	for _, d := range prog.Decls {
		e, ok := d.(ast.Entity)
		if !ok {
			continue
		}
		prev, exists := r.toplevel.Get(e.Name())
		if !exists {
			if err := r.toplevel.Declare(e); err != nil {
				r.h.Errorf(e.Pos(), "%s", err)
			}
			continue
		}
		r.mergeToplevel(prev, e)
	}
}

// mergeToplevel reconciles a redeclared top-level name
func (r *localResolver) mergeToplevel(prev, next ast.Entity) {
	if !declaredTypesMatch(prev, next) {
		r.h.Errorf(next.Pos(), "conflicting declarations of %s", next.Name())
		return
	}
	if prev.IsDefined() && next.IsDefined() {
		r.h.Errorf(next.Pos(), "duplicated definition: %s", next.Name())
		return
	}
	if !prev.IsDefined() && next.IsDefined() {
		r.toplevel.Replace(next)
	}
	// Definition followed by a prototype, or repeated prototypes:
	// keep the existing entity.
}

// declaredTypesMatch compares declarations syntactically; types are
// not resolved yet at this point.
func declaredTypesMatch(a, b ast.Entity) bool {
	return declString(a) == declString(b)
}

func declString(e ast.Entity) string {
	switch e := e.(type) {
	case *ast.DefinedVariable:
		return "var " + e.Ref.String()
	case *ast.UndefinedVariable:
		return "var " + e.Ref.String()
	case *ast.DefinedFunction:
		return "fun " + funcRefString(e.Return, e.Params, e.Variadic)
	case *ast.UndefinedFunction:
		return "fun " + funcRefString(e.Return, e.Params, e.Variadic)
	case *ast.Constant:
		return "const " + e.Ref.String()
	}
	return "?"
}

func funcRefString(ret ast.TypeRef, params []*ast.Parameter, variadic bool) string {
	refs := make([]ast.TypeRef, len(params))
	for i, p := range params {
		refs[i] = p.Ref
	}
	fn := &ast.FuncRef{Return: ret, Params: refs, Variadic: variadic}
	return fn.String()
}

// resolveFunction introduces the parameter scope and walks the body
func (r *localResolver) resolveFunction(fn *ast.DefinedFunction) {
	paramScope := r.toplevel.NewChild()
	for _, prm := range fn.Params {
		if err := paramScope.Declare(prm); err != nil {
			r.h.Errorf(prm.Position, "%s", err)
		}
	}
	r.resolveBlock(fn.Body, paramScope)
	fn.LocalVars = paramScope.AllLocalVariables()
}

func (r *localResolver) resolveBlock(b *ast.BlockNode, parent *entity.Scope) {
	scope := parent.NewChild()
	for _, v := range b.Vars {
		if err := scope.Declare(v); err != nil {
			r.h.Errorf(v.Position, "%s", err)
		}
		if v.Init != nil {
			r.resolveExpr(v.Init, scope)
		}
	}
	for _, s := range b.Stmts {
		r.resolveStmt(s, scope)
	}
}

func (r *localResolver) resolveStmt(s ast.Stmt, scope *entity.Scope) {
	switch s := s.(type) {
	case *ast.BlockNode:
		r.resolveBlock(s, scope)
		return
	case *ast.ForNode:
		// The for-statement init declaration lives in its own scope
		// enclosing the body.
		forScope := scope
		if s.InitDecl != nil {
			forScope = scope.NewChild()
			if err := forScope.Declare(s.InitDecl); err != nil {
				r.h.Errorf(s.InitDecl.Position, "%s", err)
			}
			if s.InitDecl.Init != nil {
				r.resolveExpr(s.InitDecl.Init, forScope)
			}
		}
		for _, e := range stmtExprs(s) {
			r.resolveExpr(e, forScope)
		}
		r.resolveStmt(s.Body, forScope)
		return
	case *ast.SwitchNode:
		for _, c := range s.Cases {
			for _, v := range c.Values {
				r.resolveExpr(v, scope)
			}
		}
	}
	for _, e := range stmtExprs(s) {
		r.resolveExpr(e, scope)
	}
	for _, c := range stmtChildren(s) {
		r.resolveStmt(c, scope)
	}
}

func (r *localResolver) resolveExpr(e ast.Expr, scope *entity.Scope) {
	if v, ok := e.(*ast.VariableNode); ok {
		ent, found := scope.Refer(v.VarName)
		if !found {
			r.h.Errorf(v.Pos(), "undefined reference to %s", v.VarName)
			return
		}
		v.SetEntity(ent)
		return
	}
	for _, c := range exprChildren(e) {
		r.resolveExpr(c, scope)
	}
}
