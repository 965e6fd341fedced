package parser

import (
	"os"
	"strings"
	"testing"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"gopkg.in/yaml.v3"
)

// TestSpec is one test case from parse.yaml
type TestSpec struct {
	Name      string     `yaml:"name"`
	Input     string     `yaml:"input"`
	Decls     []DeclSpec `yaml:"decls"`
	Fail      bool       `yaml:"fail"`
	MinErrors int        `yaml:"min_errors"`
}

// DeclSpec is an expected top-level declaration
type DeclSpec struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
}

// TestFile is the parse.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}
	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse parse.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			prog, errs, _ := ParseFile("test.cb", tc.Input, nil)
			if tc.Fail {
				if len(errs) == 0 {
					t.Fatal("expected parse errors, got none")
				}
				if len(errs) < tc.MinErrors {
					t.Fatalf("expected at least %d errors, got %d: %v", tc.MinErrors, len(errs), errs)
				}
				return
			}
			if len(errs) > 0 {
				t.Fatalf("parser errors: %v", errs)
			}
			if len(prog.Decls) != len(tc.Decls) {
				t.Fatalf("expected %d declarations, got %d", len(tc.Decls), len(prog.Decls))
			}
			for i, want := range tc.Decls {
				if got := declKind(prog.Decls[i]); got != want.Kind {
					t.Errorf("decl %d: expected %s, got %s", i, want.Kind, got)
				}
				if e, ok := prog.Decls[i].(ast.Entity); ok && want.Name != "" {
					if e.Name() != want.Name {
						t.Errorf("decl %d: expected name %s, got %s", i, want.Name, e.Name())
					}
				}
			}
		})
	}
}

func declKind(d ast.Decl) string {
	switch d.(type) {
	case *ast.DefinedFunction:
		return "DefinedFunction"
	case *ast.UndefinedFunction:
		return "UndefinedFunction"
	case *ast.DefinedVariable:
		return "DefinedVariable"
	case *ast.UndefinedVariable:
		return "UndefinedVariable"
	case *ast.Constant:
		return "Constant"
	case *ast.StructNode:
		return "StructNode"
	case *ast.UnionNode:
		return "UnionNode"
	case *ast.TypedefNode:
		return "TypedefNode"
	}
	return "?"
}

// parseExpr parses an expression by wrapping it in a return
// statement.
func parseExpr(t *testing.T, expr string) ast.Expr {
	t.Helper()
	src := "int main(void) { return " + expr + "; }"
	prog, errs, _ := ParseFile("test.cb", src, nil)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", expr, errs)
	}
	fn := prog.DefinedFunctions()[0]
	ret := fn.Body.Stmts[0].(*ast.ReturnNode)
	return ret.Expr
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"1-2-3", "((1 - 2) - 3)"},
		{"a = b = c", "(a = (b = c))"},
		{"a || b && c", "(a || (b && c))"},
		{"1 | 2 ^ 3 & 4", "(1 | (2 ^ (3 & 4)))"},
		{"1 << 2 + 3", "(1 << (2 + 3))"},
		{"1 < 2 == 3 > 4", "((1 < 2) == (3 > 4))"},
		{"-a * b", "((-a) * b)"},
		{"!a || b", "((!a) || b)"},
		{"*p++", "(*(p++))"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"a[1][2]", "((a[1])[2])"},
		{"f(1, 2)[3]", "((f(1, 2))[3])"},
		{"s.a->b", "((s.a)->b)"},
		{"a, b, c", "((a, b), c)"},
		{"x += y * 2", "(x += (y * 2))"},
		{"sizeof x + 1", "((sizeof x) + 1)"},
		{"&*p", "(&(*p))"},
	}
	for _, tc := range tests {
		got := ast.ExprString(parseExpr(t, tc.input))
		if got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.input, tc.want, got)
		}
	}
}

func TestCastParsing(t *testing.T) {
	e := parseExpr(t, "(char)x")
	cast, ok := e.(*ast.CastNode)
	if !ok {
		t.Fatalf("expected cast, got %T", e)
	}
	if cast.Ref.String() != "char" {
		t.Errorf("expected char cast, got %s", cast.Ref)
	}
	// A parenthesized expression is not a cast
	e = parseExpr(t, "(x)")
	if _, ok := e.(*ast.VariableNode); !ok {
		t.Errorf("expected variable, got %T", e)
	}
}

func TestStringConcatenation(t *testing.T) {
	e := parseExpr(t, `"foo" "bar"`)
	s, ok := e.(*ast.StringLiteralNode)
	if !ok {
		t.Fatalf("expected string literal, got %T", e)
	}
	if s.Value != "foobar" {
		t.Errorf("expected foobar, got %q", s.Value)
	}
}

func TestMultiDimensionalArrayNesting(t *testing.T) {
	prog, errs, _ := ParseFile("test.cb", "int a[2][3];", nil)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	v := prog.Decls[0].(*ast.DefinedVariable)
	outer, ok := v.Ref.(*ast.ArrayRef)
	if !ok || outer.Length != 2 {
		t.Fatalf("expected outer dimension 2, got %v", v.Ref)
	}
	inner, ok := outer.Base.(*ast.ArrayRef)
	if !ok || inner.Length != 3 {
		t.Fatalf("expected inner dimension 3, got %v", outer.Base)
	}
}

// TestRoundTrip checks that printing a parsed program and reparsing
// the output reproduces the same tree, up to positions.
func TestRoundTrip(t *testing.T) {
	src := `struct point {
    int x;
    int y;
};
typedef int myint;
const int LIMIT = 10;
static char flag = 'y';
int table[4];
extern int puts(char *s);
int add(int a, int b)
{
    return a + b;
}
int main(void)
{
    int i;
    struct point p;
    p.x = 1 + 2 * 3;
    p.y = -p.x;
    for (i = 0; i < LIMIT; ++i) {
        table[i % 4] += add(i, p.x);
    }
    if (p.y < 0 && i != 0) {
        return p.y ? 1 : 0;
    }
    while (i > 0) {
        i--;
    }
    switch (i) {
    case 0:
        return 0;
    default:
        return 1;
    }
}
`
	prog, errs, _ := ParseFile("test.cb", src, nil)
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errs)
	}
	var first strings.Builder
	ast.NewPrinter(&first).PrintProgram(prog)

	prog2, errs2, _ := ParseFile("test.cb", first.String(), nil)
	if len(errs2) > 0 {
		t.Fatalf("reparse: %v\nprinted:\n%s", errs2, first.String())
	}
	var second strings.Builder
	ast.NewPrinter(&second).PrintProgram(prog2)

	if first.String() != second.String() {
		t.Errorf("round trip diverged:\n--- first\n%s\n--- second\n%s", first.String(), second.String())
	}
}

func TestImportCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(dir+"/"+name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.hb", "import b;\nextern int from_a;\n")
	write("b.hb", "import a;\nextern int from_b;\n")

	loader := NewLoader([]string{dir})
	prog, errs, _ := ParseFile("main.cb", "import a;\nint main(void) { return from_a + from_b; }", loader)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	names := map[string]bool{}
	for _, d := range prog.Decls {
		if e, ok := d.(ast.Entity); ok {
			names[e.Name()] = true
		}
	}
	if !names["from_a"] || !names["from_b"] {
		t.Errorf("imported declarations missing: %v", names)
	}
}

func TestImportNotFound(t *testing.T) {
	loader := NewLoader([]string{t.TempDir()})
	_, errs, _ := ParseFile("main.cb", "import nosuch;\n", loader)
	if len(errs) == 0 {
		t.Fatal("expected an import error")
	}
}
