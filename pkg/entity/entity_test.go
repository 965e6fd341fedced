package entity

import (
	"testing"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
)

func TestScopeLookup(t *testing.T) {
	top := NewToplevel()
	g := &ast.DefinedVariable{VarName: "g"}
	if err := top.Declare(g); err != nil {
		t.Fatal(err)
	}
	child := top.NewChild()
	x := &ast.DefinedVariable{VarName: "x"}
	if err := child.Declare(x); err != nil {
		t.Fatal(err)
	}

	if e, ok := child.Refer("g"); !ok || e != ast.Entity(g) {
		t.Error("lookup must walk parent scopes")
	}
	if _, ok := top.Refer("x"); ok {
		t.Error("parent must not see child declarations")
	}
}

func TestScopeDuplicate(t *testing.T) {
	top := NewToplevel()
	if err := top.Declare(&ast.DefinedVariable{VarName: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := top.Declare(&ast.DefinedVariable{VarName: "a"}); err == nil {
		t.Error("duplicate declaration in one scope must fail")
	}
}

func TestScopeShadowing(t *testing.T) {
	top := NewToplevel()
	outer := &ast.DefinedVariable{VarName: "x"}
	top.Declare(outer)
	child := top.NewChild()
	inner := &ast.DefinedVariable{VarName: "x"}
	if err := child.Declare(inner); err != nil {
		t.Fatalf("shadowing across scopes must be permitted: %v", err)
	}
	if e, _ := child.Refer("x"); e != ast.Entity(inner) {
		t.Error("inner scope must win")
	}
	if e, _ := top.Refer("x"); e != ast.Entity(outer) {
		t.Error("outer scope must keep its own binding")
	}
}

func TestAllLocalVariables(t *testing.T) {
	top := NewToplevel()
	fnScope := top.NewChild()
	a := &ast.DefinedVariable{VarName: "a"}
	fnScope.Declare(a)
	blockScope := fnScope.NewChild()
	b := &ast.DefinedVariable{VarName: "b"}
	blockScope.Declare(b)

	vars := fnScope.AllLocalVariables()
	if len(vars) != 2 || vars[0] != a || vars[1] != b {
		t.Errorf("expected [a b], got %v", vars)
	}
}

func TestConstantTableInterning(t *testing.T) {
	ct := NewConstantTable()
	a := ct.Intern("hello")
	b := ct.Intern("hello")
	c := ct.Intern("world")
	if a != b {
		t.Error("identical literals must share one entry")
	}
	if a == c {
		t.Error("distinct literals must not share an entry")
	}
	if a.Symbol == c.Symbol {
		t.Error("symbols must be distinct")
	}
	if got := len(ct.Entries()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}
