package codegen

import (
	"github.com/lifes/cbc-ubuntu-64bit/pkg/asm"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ir"
)

// wordSize is the stack slot granularity of the 32-bit cdecl
// convention.
const wordSize = 4

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// layoutFrame assigns frame-pointer-relative locations to parameters,
// locals and lowering temporaries, and returns the local frame size.
//
// Parameters sit above the saved frame pointer and return address,
// so the first one lives at 8(%ebp); each occupies at least one
// stack word, as pushed by the caller. Locals and temporaries grow
// downward from the frame pointer with their natural alignment; the
// total is rounded up to a word.
func (g *generator) layoutFrame(fn *ir.Function) int {
	g.frame = make(map[ast.Entity]asm.Mem)

	offset := 2 * wordSize
	for _, prm := range fn.Ent.Params {
		g.frame[prm] = asm.Mem{Offset: offset, Base: asm.EBP}
		size := wordSize
		if prm.EntityType() != nil {
			size = alignUp(prm.EntityType().Size(), wordSize)
		}
		offset += size
	}

	depth := 0
	place := func(v *ast.DefinedVariable) {
		size, align := wordSize, wordSize
		if v.EntityType() != nil {
			size = v.EntityType().Size()
			align = v.EntityType().Alignment()
		}
		depth += size
		depth = alignUp(depth, align)
		g.frame[v] = asm.Mem{Offset: -depth, Base: asm.EBP}
	}
	for _, v := range fn.Ent.LocalVars {
		place(v)
	}
	for _, v := range fn.Ent.Temps {
		place(v)
	}
	return alignUp(depth, wordSize)
}
