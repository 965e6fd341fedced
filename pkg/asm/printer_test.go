package asm

import (
	"strings"
	"testing"
)

func TestPrintFunction(t *testing.T) {
	prog := &Program{
		Functions: []Function{{
			Name: "main",
			Body: []Instruction{
				New("pushl", EBP),
				New("movl", ESP, EBP),
				New("movl", Imm{Value: 0}, EAX),
				Label{Name: ".L1"},
				New("leave"),
				New("ret"),
			},
		}},
	}
	var b strings.Builder
	NewPrinter(&b).PrintProgram(prog)
	out := b.String()
	for _, want := range []string{
		"\t.text\n",
		"\t.globl\tmain\n",
		"main:\n",
		"\tmovl\t%esp, %ebp\n",
		"\tmovl\t$0, %eax\n",
		".L1:\n",
		"\tleave\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintSections(t *testing.T) {
	prog := &Program{
		Strings: []StrLit{{Symbol: ".LC0", Value: "hi\n"}},
		Data: []GlobVar{{
			Name: "counter", Size: 4, Align: 4,
			Init: []Datum{{Size: 4, Value: 7}},
		}},
		RoData: []GlobVar{{
			Name: "frozen", Size: 4, Align: 4,
			Init: []Datum{{Size: 4, Value: 9}},
		}},
		Bss: []GlobVar{{Name: "zeroed", Priv: true, Size: 8, Align: 4}},
	}
	var b strings.Builder
	NewPrinter(&b).PrintProgram(prog)
	out := b.String()
	for _, want := range []string{
		"\t.section\t.rodata\n",
		".LC0:\n",
		"\t.string\t\"hi\\n\"\n",
		"\t.data\n",
		"\t.globl\tcounter\n",
		"\t.long\t7\n",
		"\t.local\tzeroed\n",
		"\t.comm\tzeroed,8,4\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestOperandStrings(t *testing.T) {
	tests := []struct {
		op   Operand
		want string
	}{
		{Imm{Value: 42}, "$42"},
		{ImmSym{Name: ".LC0"}, "$.LC0"},
		{Mem{Offset: -8, Base: EBP}, "-8(%ebp)"},
		{Mem{Base: EAX}, "(%eax)"},
		{Sym{Name: "main"}, "main"},
		{Indirect{Reg: EAX}, "*%eax"},
		{EAX, "%eax"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
