package irgen

import (
	"strings"
	"testing"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ir"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/parser"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
)

// lower compiles source text down to IR
func lower(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, errs, _ := parser.ParseFile("test.cb", src, nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	h := sema.NewErrorHandler()
	sema.Analyze(prog, h)
	if h.HasErrors() {
		t.Fatalf("semantic errors: %v", h.Errors())
	}
	return Transform(prog)
}

// render joins the printed statements of one function
func render(f *ir.Function) string {
	var b strings.Builder
	for _, s := range f.Body {
		b.WriteString(ir.StmtString(s))
		b.WriteString("\n")
	}
	return b.String()
}

func fnByName(t *testing.T, prog *ir.Program, name string) *ir.Function {
	t.Helper()
	for _, f := range prog.Functions {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %s not lowered", name)
	return nil
}

func TestLowerReturnConstant(t *testing.T) {
	prog := lower(t, "int main(void) { return 0; }")
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "return 0") {
		t.Errorf("missing return, got:\n%s", text)
	}
}

func TestLowerIfProducesCJump(t *testing.T) {
	prog := lower(t, `int main(void) {
    int x;
    x = 1;
    if (x) return 1;
    return 0;
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "cjump") {
		t.Errorf("if must lower to cjump, got:\n%s", text)
	}
}

func TestLowerForShape(t *testing.T) {
	prog := lower(t, `int main(void) {
    int i;
    int n;
    n = 0;
    for (i = 0; i < 3; ++i) n += i;
    return n;
}`)
	text := render(fnByName(t, prog, "main"))
	// init, top label, conditional jump, body, continue label, step,
	// back jump, end label
	for _, want := range []string{"cjump", "jump"} {
		if !strings.Contains(text, want) {
			t.Errorf("for loop missing %s, got:\n%s", want, text)
		}
	}
	if got := strings.Count(text, ".L"); got < 4 {
		t.Errorf("for loop should introduce at least 4 label uses, got %d:\n%s", got, text)
	}
}

func TestLowerShortCircuitIntroducesTemp(t *testing.T) {
	prog := lower(t, `int side(void) { return 1; }
int main(void) {
    int a;
    a = 0;
    return a && side();
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "@tmp") {
		t.Errorf("&& must introduce a temporary, got:\n%s", text)
	}
	if !strings.Contains(text, "cjump") {
		t.Errorf("&& must lower to conditional jumps, got:\n%s", text)
	}
	main := fnByName(t, prog, "main")
	if len(main.Ent.Temps) == 0 {
		t.Error("temporaries must be registered on the function frame")
	}
}

func TestLowerCondExpr(t *testing.T) {
	prog := lower(t, `int main(void) {
    int x;
    x = 1;
    return x ? 2 : 3;
}`)
	text := render(fnByName(t, prog, "main"))
	if strings.Count(text, "cjump") != 1 {
		t.Errorf("?: must lower to one cjump, got:\n%s", text)
	}
	if !strings.Contains(text, "@tmp") {
		t.Errorf("?: must assign through a temporary, got:\n%s", text)
	}
}

func TestLowerSwitch(t *testing.T) {
	prog := lower(t, `int main(void) {
    int x;
    x = 2;
    switch (x) {
    case 1:
        return 10;
    case 2:
    case 3:
        return 20;
    default:
        return 30;
    }
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "switch") {
		t.Fatalf("missing switch statement:\n%s", text)
	}
	for _, want := range []string{"1->", "2->", "3->", "default->"} {
		if !strings.Contains(text, want) {
			t.Errorf("switch missing %s:\n%s", want, text)
		}
	}
}

func TestLowerPointerArithmeticScaling(t *testing.T) {
	prog := lower(t, `int main(void) {
    int a[3];
    int *p;
    a[0] = 1;
    p = a;
    p = p + 2;
    return *p;
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "8") {
		t.Errorf("p + 2 must scale by the element size 4, got:\n%s", text)
	}
}

func TestLowerArrayIndexScaling(t *testing.T) {
	prog := lower(t, `int main(void) {
    int a[3];
    int i;
    i = 2;
    a[i] = 7;
    return a[2];
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "* 4") && !strings.Contains(text, "+ 8") {
		t.Errorf("indexing must scale by the element size, got:\n%s", text)
	}
}

func TestLowerCallWithSideEffectArgsSpills(t *testing.T) {
	prog := lower(t, `int two(int a, int b) { return a + b; }
int bump(int *p) { return (*p)++; }
int main(void) {
    int x;
    x = 0;
    return two(bump(&x), bump(&x));
}`)
	text := render(fnByName(t, prog, "main"))
	if strings.Count(text, "@tmp") < 2 {
		t.Errorf("side-effecting arguments must be spilled in order, got:\n%s", text)
	}
}

func TestLowerStringLiteralInterning(t *testing.T) {
	prog := lower(t, `int puts(char *s);
int main(void) {
    puts("hello");
    puts("hello");
    puts("other");
    return 0;
}`)
	entries := prog.Constants.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 interned strings, got %d", len(entries))
	}
	if entries[0].Value != "hello" || entries[1].Value != "other" {
		t.Errorf("unexpected intern order: %q, %q", entries[0].Value, entries[1].Value)
	}
}

func TestLowerSuffixIncrement(t *testing.T) {
	prog := lower(t, `int main(void) {
    int i;
    int j;
    i = 5;
    j = i++;
    return j * 10 + i;
}`)
	text := render(fnByName(t, prog, "main"))
	if !strings.Contains(text, "@tmp") {
		t.Errorf("i++ must save the old value in a temporary, got:\n%s", text)
	}
}

func TestLowerImplicitReturn(t *testing.T) {
	prog := lower(t, `void noop(void) { }
int main(void) { return 0; }`)
	text := render(fnByName(t, prog, "noop"))
	if !strings.Contains(text, "return") {
		t.Errorf("void function must end in an implicit return, got:\n%s", text)
	}
}

func TestLowerGlobalCollection(t *testing.T) {
	prog := lower(t, `int g = 1;
static int h;
int main(void) { return g + h; }`)
	if len(prog.GlobalVars) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(prog.GlobalVars))
	}
}
