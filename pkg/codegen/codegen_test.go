package codegen

import (
	"os"
	"strings"
	"testing"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/asm"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/irgen"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/parser"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
	"gopkg.in/yaml.v3"
)

// AsmTestSpec is one test case from asm.yaml
type AsmTestSpec struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Expect       []string `yaml:"expect"`
	ExpectOrder  []string `yaml:"expect_order"`
	ExpectUnique []string `yaml:"expect_unique"`
	ExpectNot    []string `yaml:"expect_not"`
}

// AsmTestFile is the asm.yaml file structure
type AsmTestFile struct {
	Tests []AsmTestSpec `yaml:"tests"`
}

// compile runs the full pipeline from source to assembly text
func compile(t *testing.T, src string, opts Options) string {
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
	asmProg := Generate(irgen.Transform(prog), opts)
	var b strings.Builder
	asm.NewPrinter(&b).PrintProgram(asmProg)
	return b.String()
}

func TestGenerateYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/asm.yaml")
	if err != nil {
		t.Fatalf("failed to read asm.yaml: %v", err)
	}
	var testFile AsmTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse asm.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			out := compile(t, tc.Input, Options{})
			for _, want := range tc.Expect {
				if !strings.Contains(out, want) {
					t.Errorf("missing %q in output:\n%s", want, out)
				}
			}
			pos := 0
			for _, want := range tc.ExpectOrder {
				idx := strings.Index(out[pos:], want)
				if idx < 0 {
					t.Errorf("missing %q (in order) in output:\n%s", want, out)
					break
				}
				pos += idx + len(want)
			}
			for _, want := range tc.ExpectUnique {
				if got := strings.Count(out, want); got != 1 {
					t.Errorf("expected %q exactly once, found %d times:\n%s", want, got, out)
				}
			}
			for _, bad := range tc.ExpectNot {
				if strings.Contains(out, bad) {
					t.Errorf("unexpected %q in output:\n%s", bad, out)
				}
			}
		})
	}
}

func TestPICRoutesCallsThroughPLT(t *testing.T) {
	src := `int puts(char *s);
int main(void) {
    puts("x");
    return 0;
}`
	out := compile(t, src, Options{PIC: true})
	if !strings.Contains(out, "call\tputs@PLT") {
		t.Errorf("PIC call must use the PLT:\n%s", out)
	}
	out = compile(t, src, Options{})
	if strings.Contains(out, "@PLT") {
		t.Errorf("non-PIC output must not use the PLT:\n%s", out)
	}
}

func TestParameterOffsets(t *testing.T) {
	src := `int second(int a, int b) { return b; }
int main(void) { return second(1, 2); }`
	out := compile(t, src, Options{})
	// cdecl: first parameter at 8(%ebp), second at 12(%ebp)
	if !strings.Contains(out, "movl\t12(%ebp), %eax") {
		t.Errorf("second parameter must load from 12(%%ebp):\n%s", out)
	}
}

func TestFrameRoundedToWord(t *testing.T) {
	src := `int main(void) {
    char c;
    c = 'x';
    return c;
}`
	out := compile(t, src, Options{})
	if !strings.Contains(out, "subl\t$4, %esp") {
		t.Errorf("one char local must round the frame to 4 bytes:\n%s", out)
	}
}

func TestEpilogueRestoresFrame(t *testing.T) {
	out := compile(t, "int main(void) { return 0; }", Options{})
	leave := strings.Index(out, "\tleave\n")
	ret := strings.Index(out, "\tret\n")
	if leave < 0 || ret < 0 || ret < leave {
		t.Errorf("epilogue must end with leave; ret:\n%s", out)
	}
}

func TestStructCopyUsesBlockMove(t *testing.T) {
	src := `struct P { int x; int y; int z; };
int main(void) {
    struct P a;
    struct P b;
    a.x = 1;
    a.y = 2;
    a.z = 3;
    b = a;
    return b.z;
}`
	out := compile(t, src, Options{})
	if !strings.Contains(out, "rep movsb") {
		t.Errorf("aggregate assignment must block copy:\n%s", out)
	}
	// callee-saved registers used by the copy must be preserved
	if !strings.Contains(out, "pushl\t%esi") || !strings.Contains(out, "popl\t%esi") {
		t.Errorf("%%esi must be saved and restored:\n%s", out)
	}
}

func TestGlobalPointerToStringLiteral(t *testing.T) {
	src := `char *greeting = "hello";
int main(void) { return 0; }`
	out := compile(t, src, Options{})
	if !strings.Contains(out, ".long\t.LC0") {
		t.Errorf("global string pointer must reference the literal symbol:\n%s", out)
	}
	if !strings.Contains(out, ".string\t\"hello\"") {
		t.Errorf("literal must be emitted in .rodata:\n%s", out)
	}
}
