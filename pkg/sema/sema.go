package sema

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/entity"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// Result carries the artifacts of semantic analysis
type Result struct {
	Scope *entity.Scope
	Table *types.TypeTable
}

// Analyze runs the full semantic pass chain over a parsed program:
// jump resolution, local reference resolution, type resolution with
// the type table check, dereference checking and type checking.
// The three resolution passes always run; dereference checking and
// type checking are each skipped once errors have been reported, since
// they rely on the invariants the earlier passes establish.
func Analyze(prog *ast.Program, h *ErrorHandler) *Result {
	ResolveJumps(prog, h)
	scope := ResolveReferences(prog, h)
	table := ResolveTypes(prog, h)
	res := &Result{Scope: scope, Table: table}
	if h.HasErrors() {
		return res
	}
	CheckDereferences(prog, h)
	if h.HasErrors() {
		return res
	}
	CheckTypes(prog, table, h)
	return res
}

// Resolve runs only the resolution passes, for the dump-reference
// driver mode.
func Resolve(prog *ast.Program, h *ErrorHandler) *Result {
	ResolveJumps(prog, h)
	scope := ResolveReferences(prog, h)
	table := ResolveTypes(prog, h)
	return &Result{Scope: scope, Table: table}
}
