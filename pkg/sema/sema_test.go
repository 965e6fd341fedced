package sema

import (
	"strings"
	"testing"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/parser"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// analyze parses and analyzes one source text
func analyze(t *testing.T, src string) (*ast.Program, *ErrorHandler) {
	t.Helper()
	prog, errs, _ := parser.ParseFile("test.cb", src, nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	h := NewErrorHandler()
	Analyze(prog, h)
	return prog, h
}

func expectError(t *testing.T, src, fragment string) {
	t.Helper()
	_, h := analyze(t, src)
	for _, e := range h.Errors() {
		if strings.Contains(e, fragment) {
			return
		}
	}
	t.Errorf("expected error containing %q, got %v", fragment, h.Errors())
}

func expectClean(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, h := analyze(t, src)
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Errors())
	}
	return prog
}

// --- Jump resolution ---

func TestBreakOutsideLoop(t *testing.T) {
	expectError(t, "int main(void) { break; return 0; }", "break outside of loop or switch")
}

func TestContinueOutsideLoop(t *testing.T) {
	expectError(t, "int main(void) { continue; return 0; }", "continue outside of loop")
}

func TestContinueInsideSwitchOnly(t *testing.T) {
	expectError(t, `int main(void) {
    switch (1) {
    case 1:
        continue;
    }
    return 0;
}`, "continue outside of loop")
}

func TestGotoUndefinedLabel(t *testing.T) {
	expectError(t, "int main(void) { goto nowhere; return 0; }", "undefined label: nowhere")
}

func TestGotoBeforeLabel(t *testing.T) {
	expectClean(t, `int main(void) {
    goto done;
done:
    return 0;
}`)
}

func TestDuplicatedLabel(t *testing.T) {
	expectError(t, `int main(void) {
    int y;
x:
    y = 1;
x:
    y = 2;
    return y;
}`, "duplicated label: x")
}

// --- Reference resolution ---

func TestUndefinedReference(t *testing.T) {
	expectError(t, "int main(void) { return nope; }", "undefined reference to nope")
}

func TestDuplicateLocal(t *testing.T) {
	expectError(t, `int main(void) {
    int x;
    int x;
    return 0;
}`, "duplicated declaration: x")
}

func TestShadowingAllowed(t *testing.T) {
	expectClean(t, `int x;
int main(void) {
    int x;
    x = 1;
    {
        int x;
        x = 2;
    }
    return x;
}`)
}

func TestPrototypeMergesWithDefinition(t *testing.T) {
	expectClean(t, `int add(int a, int b);
int add(int a, int b) { return a + b; }
int main(void) { return add(1, 2); }`)
}

func TestConflictingRedefinition(t *testing.T) {
	expectError(t, `int f(void) { return 0; }
int f(void) { return 1; }`, "duplicated definition: f")
}

func TestConflictingPrototype(t *testing.T) {
	expectError(t, `int f(int x);
char f(char x);`, "conflicting declarations of f")
}

func TestResolutionTotality(t *testing.T) {
	prog := expectClean(t, `int g;
int add(int a, int b) { return a + b; }
int main(void) {
    int x;
    x = g + add(1, 2);
    return x;
}`)
	unbound := 0
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		if v, ok := e.(*ast.VariableNode); ok && v.Entity() == nil {
			unbound++
		}
		for _, c := range exprChildren(e) {
			walkExpr(c)
		}
	}
	var walkStmt func(s ast.Stmt)
	walkStmt = func(s ast.Stmt) {
		if s == nil {
			return
		}
		for _, e := range stmtExprs(s) {
			walkExpr(e)
		}
		for _, c := range stmtChildren(s) {
			walkStmt(c)
		}
	}
	for _, fn := range prog.DefinedFunctions() {
		walkStmt(fn.Body)
	}
	if unbound != 0 {
		t.Errorf("%d variable references left unbound", unbound)
	}
}

func TestResolutionIdempotence(t *testing.T) {
	src := `int g = 1;
int main(void) {
    int x;
    for (x = 0; x < 3; ++x) g += x;
    return g;
}`
	prog, errs, _ := parser.ParseFile("test.cb", src, nil)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	h1 := NewErrorHandler()
	Resolve(prog, h1)
	if h1.HasErrors() {
		t.Fatalf("first resolution failed: %v", h1.Errors())
	}
	h2 := NewErrorHandler()
	Resolve(prog, h2)
	if h2.HasErrors() {
		t.Errorf("second resolution reported errors: %v", h2.Errors())
	}
}

// --- Type resolution and table checks ---

func TestRecursiveStructRejected(t *testing.T) {
	expectError(t, `struct node {
    int value;
    struct node next;
};
int main(void) { return 0; }`, "recursive definition")
}

func TestSelfPointerAllowed(t *testing.T) {
	expectClean(t, `struct node {
    int value;
    struct node *next;
};
int main(void) {
    struct node n;
    n.value = 1;
    n.next = &n;
    return n.next->value;
}`)
}

func TestDuplicateMemberRejected(t *testing.T) {
	expectError(t, `struct p {
    int x;
    int x;
};
int main(void) { return 0; }`, "duplicate member x")
}

func TestZeroLengthArrayRejected(t *testing.T) {
	expectError(t, "int a[0];\nint main(void) { return 0; }", "zero-length array")
}

func TestVoidVariableRejected(t *testing.T) {
	expectError(t, "void v;\nint main(void) { return 0; }", "void type")
}

func TestUndefinedStructTag(t *testing.T) {
	expectError(t, "struct nope *p;\nint main(void) { return 0; }", "undefined type: struct nope")
}

func TestTypedefFlattening(t *testing.T) {
	prog := expectClean(t, `typedef int myint;
typedef myint other;
other g;
int main(void) { return g; }`)
	v := prog.DefinedVariables()[0]
	if v.EntityType().Size() != 4 {
		t.Errorf("typedef chain must resolve to int, got %s", v.EntityType())
	}
}

// --- Dereference checks ---

func TestDerefNonPointer(t *testing.T) {
	expectError(t, "int main(void) { int x; return *x; }", "dereferencing non-pointer")
}

func TestIndexNonArray(t *testing.T) {
	expectError(t, "int main(void) { int x; return x[0]; }", "indexing non-array")
}

func TestMemberOfNonStruct(t *testing.T) {
	expectError(t, "int main(void) { int x; return x.field; }", "non-struct")
}

func TestArrowOnNonPointer(t *testing.T) {
	expectError(t, `struct p { int x; };
int main(void) {
    struct p v;
    return v->x;
}`, "->")
}

func TestAssignToNonLvalue(t *testing.T) {
	expectError(t, "int main(void) { 1 = 2; return 0; }", "not an lvalue")
}

func TestAddressOfNonLvalue(t *testing.T) {
	expectError(t, "int main(void) { int *p; p = &1; return 0; }", "address")
}

func TestAssignToConstant(t *testing.T) {
	expectError(t, `const int LIMIT = 10;
int main(void) { LIMIT = 1; return 0; }`, "constant")
}

// --- Type checking ---

func TestReturnValueRequired(t *testing.T) {
	expectError(t, "int main(void) { return; }", "return value required")
}

func TestReturnFromVoid(t *testing.T) {
	expectError(t, `void f(void) { return 1; }
int main(void) { return 0; }`, "returning value from void function")
}

func TestCallArity(t *testing.T) {
	expectError(t, `int add(int a, int b) { return a + b; }
int main(void) { return add(1); }`, "wrong number of arguments")
}

func TestVariadicCall(t *testing.T) {
	expectClean(t, `int printf(char *fmt, ...);
int main(void) {
    printf("%d %d", 1, 2);
    return 0;
}`)
}

func TestSwitchDuplicateCase(t *testing.T) {
	expectError(t, `int main(void) {
    switch (1) {
    case 2:
        return 1;
    case 2:
        return 2;
    }
    return 0;
}`, "duplicated case label: 2")
}

func TestSwitchNonConstantCase(t *testing.T) {
	expectError(t, `int main(void) {
    int x;
    x = 1;
    switch (1) {
    case x:
        return 1;
    }
    return 0;
}`, "not an integer constant")
}

func TestSwitchNonIntegerCondition(t *testing.T) {
	expectError(t, `int main(void) {
    char *s;
    s = "x";
    switch (s) {
    case 1:
        return 1;
    }
    return 0;
}`, "switch condition must be an integer")
}

func TestEnumMemberInCase(t *testing.T) {
	expectClean(t, `enum { RED, GREEN };
int main(void) {
    switch (1) {
    case RED:
        return 0;
    case GREEN:
        return 1;
    }
    return 2;
}`)
}

func TestIncompatibleAssignment(t *testing.T) {
	expectError(t, `struct p { int x; };
int main(void) {
    struct p v;
    int i;
    i = v;
    return 0;
}`, "incompatible types")
}

func TestIncompatiblePointerAssignment(t *testing.T) {
	expectError(t, `int main(void) {
    int *p;
    char *q;
    q = "x";
    p = q;
    return 0;
}`, "incompatible pointer types")
}

func TestNullPointerConstant(t *testing.T) {
	expectClean(t, `int main(void) {
    int *p;
    p = 0;
    return p == 0;
}`)
}

func TestVoidPointerCompatibility(t *testing.T) {
	expectClean(t, `int main(void) {
    void *v;
    int *p;
    p = 0;
    v = p;
    p = v;
    return 0;
}`)
}

func TestIntegerPromotionMaterialized(t *testing.T) {
	prog := expectClean(t, `int main(void) {
    char a;
    char b;
    a = 'a';
    b = 1;
    return a + b;
}`)
	fn := prog.DefinedFunctions()[0]
	ret := fn.Body.Stmts[2].(*ast.ReturnNode)
	bin, ok := ret.Expr.(*ast.BinaryOpNode)
	if !ok {
		t.Fatalf("expected binary op, got %T", ret.Expr)
	}
	if bin.Type().Size() != 4 {
		t.Errorf("char + char must have type int, got %s", bin.Type())
	}
	if _, ok := bin.Left.(*ast.CastNode); !ok {
		t.Errorf("left operand promotion must be an explicit cast, got %T", bin.Left)
	}
	if _, ok := bin.Right.(*ast.CastNode); !ok {
		t.Errorf("right operand promotion must be an explicit cast, got %T", bin.Right)
	}
}

func TestUsualArithmeticUnsignedWins(t *testing.T) {
	prog := expectClean(t, `int main(void) {
    unsigned int u;
    int i;
    u = 1U;
    i = 1;
    return (u + i) != 0;
}`)
	ret := prog.DefinedFunctions()[0].Body.Stmts[2].(*ast.ReturnNode)
	sum := ret.Expr.(*ast.BinaryOpNode).Left
	if types.IsSigned(sum.Type()) {
		t.Errorf("unsigned int + int must have unsigned type, got %s", sum.Type())
	}
}

func TestPointerArithmeticType(t *testing.T) {
	prog := expectClean(t, `int main(void) {
    int a[3];
    int *p;
    int *q;
    a[0] = 1;
    p = a;
    q = p + 2;
    return q - p;
}`)
	body := prog.DefinedFunctions()[0].Body
	sum := body.Stmts[2].(*ast.ExprStmtNode).Expr.(*ast.AssignNode).RHS
	if !types.IsPointer(sum.Type()) {
		t.Errorf("pointer + int must have pointer type, got %s", sum.Type())
	}
	diff := body.Stmts[3].(*ast.ReturnNode).Expr
	if !types.IsInteger(diff.Type()) {
		t.Errorf("pointer - pointer must have integer type, got %s", diff.Type())
	}
}

func TestPointerArithmeticOnVoidPointer(t *testing.T) {
	expectError(t, `int main(void) {
    void *v;
    v = 0;
    v = v + 1;
    return 0;
}`, "pointer arithmetic")
}

func TestSizeofFunctionRejected(t *testing.T) {
	expectError(t, `int f(void) { return 0; }
int main(void) { return sizeof f; }`, "sizeof applied to a function")
}

func TestTypeMaterialization(t *testing.T) {
	prog := expectClean(t, `int main(void) {
    char c;
    int i;
    c = 'x';
    i = c * 2 + 1;
    return i;
}`)
	missing := 0
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		if e.Type() == nil || e.OrigType() == nil {
			missing++
		}
		for _, c := range exprChildren(e) {
			walkExpr(c)
		}
	}
	var walkStmt func(s ast.Stmt)
	walkStmt = func(s ast.Stmt) {
		if s == nil {
			return
		}
		for _, e := range stmtExprs(s) {
			walkExpr(e)
		}
		for _, c := range stmtChildren(s) {
			walkStmt(c)
		}
	}
	for _, fn := range prog.DefinedFunctions() {
		walkStmt(fn.Body)
	}
	if missing != 0 {
		t.Errorf("%d expressions missing a type slot", missing)
	}
}

func TestGlobalInitializerMustBeConstant(t *testing.T) {
	expectError(t, `int f(void) { return 1; }
int g = f();
int main(void) { return g; }`, "not a constant")
}

func TestConstantFolding(t *testing.T) {
	prog := expectClean(t, `const int A = 2 + 3 * 4;
int main(void) { return A; }`)
	c := prog.Constants()[0]
	v, ok := FoldInteger(c.Value)
	if !ok {
		t.Fatal("constant must fold")
	}
	if v != 14 {
		t.Errorf("expected 14, got %d", v)
	}
}
