// Package entity implements the scope chain and literal pools used
// by resolution and code generation.
package entity

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
)

// Scope is one level of the lexical scope tree. The top level holds
// global entities; each function parameter list and each block gets a
// child scope. Lookup walks parent scopes.
type Scope struct {
	parent   *Scope
	children []*Scope
	entities map[string]ast.Entity
	order    []string
}

// NewToplevel creates the root scope of a compilation unit
func NewToplevel() *Scope {
	return &Scope{entities: make(map[string]ast.Entity)}
}

// NewChild creates and links a nested scope
func (s *Scope) NewChild() *Scope {
	c := &Scope{parent: s, entities: make(map[string]ast.Entity)}
	s.children = append(s.children, c)
	return c
}

// Parent returns the enclosing scope, nil at top level
func (s *Scope) Parent() *Scope { return s.parent }

// IsToplevel reports whether this is the root scope
func (s *Scope) IsToplevel() bool { return s.parent == nil }

// Children returns the nested scopes in creation order
func (s *Scope) Children() []*Scope { return s.children }

// Declare inserts an entity into this scope. A duplicate name in the
// same scope is an error; shadowing an outer scope is not.
func (s *Scope) Declare(e ast.Entity) error {
	name := e.Name()
	if _, dup := s.entities[name]; dup {
		return fmt.Errorf("duplicated declaration: %s", name)
	}
	s.entities[name] = e
	s.order = append(s.order, name)
	return nil
}

// Replace swaps the entity registered under a name, preserving the
// declaration order. Used when a definition supersedes a prototype.
func (s *Scope) Replace(e ast.Entity) {
	s.entities[e.Name()] = e
}

// Get returns the entity declared in this scope only
func (s *Scope) Get(name string) (ast.Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Refer resolves a name against this scope and its ancestors
func (s *Scope) Refer(name string) (ast.Entity, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.entities[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Entities returns the entities declared in this scope, in
// declaration order.
func (s *Scope) Entities() []ast.Entity {
	out := make([]ast.Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entities[name])
	}
	return out
}

// AllLocalVariables collects every defined variable in this scope and
// all nested scopes, in scope order.
func (s *Scope) AllLocalVariables() []*ast.DefinedVariable {
	var out []*ast.DefinedVariable
	for _, e := range s.Entities() {
		if v, ok := e.(*ast.DefinedVariable); ok {
			out = append(out, v)
		}
	}
	for _, c := range s.children {
		out = append(out, c.AllLocalVariables()...)
	}
	return out
}
