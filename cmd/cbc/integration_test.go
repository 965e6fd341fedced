package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// End-to-end scenarios: compile, assemble, link and run fixture
// programs, checking their exit status. These need a 32-bit capable
// host toolchain and are enabled with CBC_E2E=1.

func needE2E(t *testing.T) {
	t.Helper()
	if os.Getenv("CBC_E2E") == "" {
		t.Skip("set CBC_E2E=1 to run end-to-end tests")
	}
	for _, tool := range []string{"as", "ld"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found: %v", tool, err)
		}
	}
}

func TestEndToEnd(t *testing.T) {
	needE2E(t)
	tests := []struct {
		name string
		src  string
		exit int
	}{
		{
			name: "return_zero",
			src:  "int main(void){ return 0; }",
			exit: 0,
		},
		{
			name: "precedence",
			src:  "int main(void){ return 1+2*3; }",
			exit: 7,
		},
		{
			name: "recursion",
			src: `int fact(int n){ if(n<=1) return 1; return n*fact(n-1); }
int main(void){ return fact(5); }`,
			exit: 120,
		},
		{
			name: "array_indexing",
			src:  "int main(void){ int a[3]; a[0]=10; a[1]=20; a[2]=30; return a[0]+a[1]+a[2]; }",
			exit: 60,
		},
		{
			name: "struct_layout",
			src: `struct P{ int x; int y; };
int main(void){ struct P p; p.x=3; p.y=4; return p.x*p.x + p.y*p.y; }`,
			exit: 25,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tc.name+".cb")
			if err := os.WriteFile(src, []byte(tc.src), 0644); err != nil {
				t.Fatal(err)
			}
			exe := filepath.Join(dir, tc.name)
			if _, _, err := runCbc(t, "-o", exe, src); err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			cmd := exec.Command(exe)
			err := cmd.Run()
			got := 0
			if exitErr, ok := err.(*exec.ExitError); ok {
				got = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if got != tc.exit {
				t.Errorf("expected exit %d, got %d", tc.exit, got)
			}
		})
	}
}
