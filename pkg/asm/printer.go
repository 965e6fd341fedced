package asm

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs 32-bit x86 assembly in GNU as syntax
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program: .rodata (string literals
// and const globals), .data, .bss and .text.
func (p *Printer) PrintProgram(prog *Program) {
	if len(prog.Strings) > 0 || len(prog.RoData) > 0 {
		fmt.Fprintf(p.w, "\t.section\t.rodata\n")
		for _, s := range prog.Strings {
			fmt.Fprintf(p.w, "%s:\n", s.Symbol)
			fmt.Fprintf(p.w, "\t.string\t%s\n", quote(s.Value))
		}
		for _, g := range prog.RoData {
			p.printGlobal(g)
		}
	}
	if len(prog.Data) > 0 {
		fmt.Fprintf(p.w, "\t.data\n")
		for _, g := range prog.Data {
			p.printGlobal(g)
		}
	}
	for _, g := range prog.Bss {
		if g.Priv {
			fmt.Fprintf(p.w, "\t.local\t%s\n", g.Name)
		}
		fmt.Fprintf(p.w, "\t.comm\t%s,%d,%d\n", g.Name, g.Size, g.Align)
	}
	fmt.Fprintf(p.w, "\t.text\n")
	for _, f := range prog.Functions {
		p.printFunction(f)
	}
}

func (p *Printer) printGlobal(g GlobVar) {
	if !g.Priv {
		fmt.Fprintf(p.w, "\t.globl\t%s\n", g.Name)
	}
	if g.Align > 1 {
		fmt.Fprintf(p.w, "\t.align\t%d\n", g.Align)
	}
	fmt.Fprintf(p.w, "%s:\n", g.Name)
	for _, d := range g.Init {
		switch {
		case d.Symbol != "":
			fmt.Fprintf(p.w, "\t.long\t%s\n", d.Symbol)
		case d.Size == 1:
			fmt.Fprintf(p.w, "\t.byte\t%d\n", d.Value)
		case d.Size == 2:
			fmt.Fprintf(p.w, "\t.value\t%d\n", d.Value)
		default:
			fmt.Fprintf(p.w, "\t.long\t%d\n", d.Value)
		}
	}
}

func (p *Printer) printFunction(f Function) {
	if !f.Priv {
		fmt.Fprintf(p.w, "\t.globl\t%s\n", f.Name)
	}
	fmt.Fprintf(p.w, "\t.type\t%s, @function\n", f.Name)
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, ins := range f.Body {
		switch ins := ins.(type) {
		case Label:
			fmt.Fprintf(p.w, "%s:\n", ins.Name)
		case Instr:
			p.printInstr(ins)
		}
	}
	fmt.Fprintf(p.w, "\t.size\t%s, .-%s\n", f.Name, f.Name)
}

func (p *Printer) printInstr(ins Instr) {
	if len(ins.Operands) == 0 {
		fmt.Fprintf(p.w, "\t%s\n", ins.Op)
		return
	}
	parts := make([]string, len(ins.Operands))
	for i, o := range ins.Operands {
		parts[i] = o.String()
	}
	fmt.Fprintf(p.w, "\t%s\t%s\n", ins.Op, strings.Join(parts, ", "))
}

// quote renders a string literal for the .string directive
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if c < 32 || c >= 127 {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
