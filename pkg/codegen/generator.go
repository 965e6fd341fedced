// Package codegen translates the lowered IR into 32-bit x86
// assembly. Expressions are evaluated with a naive accumulator
// strategy: results live in %eax and intermediates spill to the
// machine stack. Code generation trusts the invariants established
// by semantic analysis; an unexpected IR shape is a compiler bug and
// panics.
package codegen

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/asm"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/entity"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ir"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/types"
)

// Options controls code generation
type Options struct {
	PIC bool // route direct calls through the PLT
}

// Generate translates a lowered program to assembly
func Generate(prog *ir.Program, opts Options) *asm.Program {
	g := &generator{opts: opts, out: &asm.Program{}}
	g.consts = prog.Constants
	for _, v := range prog.GlobalVars {
		g.emitGlobal(v)
	}
	for _, f := range prog.Functions {
		g.emitFunction(f)
	}
	for _, e := range prog.Constants.Entries() {
		g.out.Strings = append(g.out.Strings, asm.StrLit{Symbol: e.Symbol, Value: e.Value})
	}
	return g.out
}

type generator struct {
	opts   Options
	out    *asm.Program
	consts *entity.ConstantTable

	// per function state
	fn        *ir.Function
	frame     map[ast.Entity]asm.Mem
	body      []asm.Instruction
	blockCopy bool // body uses %esi/%edi
	retLabel  string
}

// --- Globals ---

// emitGlobal places one global variable into .data, .rodata or .bss
func (g *generator) emitGlobal(v *ast.DefinedVariable) {
	t := v.EntityType()
	gv := asm.GlobVar{
		Name:  v.VarName,
		Priv:  v.Priv,
		Size:  t.Size(),
		Align: t.Alignment(),
	}
	datum, ok := g.globalDatum(v)
	if ok {
		gv.Init = []asm.Datum{datum}
	}
	switch {
	case v.IsConst && ok:
		g.out.RoData = append(g.out.RoData, gv)
	case ok && !isZeroDatum(datum):
		g.out.Data = append(g.out.Data, gv)
	default:
		gv.Init = nil
		g.out.Bss = append(g.out.Bss, gv)
	}
}

func isZeroDatum(d asm.Datum) bool {
	return d.Symbol == "" && d.Value == 0
}

// globalDatum folds a global initializer into a datum
func (g *generator) globalDatum(v *ast.DefinedVariable) (asm.Datum, bool) {
	if v.Init == nil {
		return asm.Datum{}, false
	}
	if s := stringInitializer(v.Init); s != nil {
		return asm.Datum{Size: types.PointerSize, Symbol: g.internString(s.Value)}, true
	}
	if val, ok := sema.FoldInteger(v.Init); ok {
		return asm.Datum{Size: v.EntityType().Size(), Value: val}, true
	}
	panic(fmt.Sprintf("codegen: non-constant initializer for global %s", v.VarName))
}

func stringInitializer(e ast.Expr) *ast.StringLiteralNode {
	switch e := e.(type) {
	case *ast.StringLiteralNode:
		return e
	case *ast.CastNode:
		return stringInitializer(e.Expr)
	}
	return nil
}

// --- Functions ---

func (g *generator) emitFunction(f *ir.Function) {
	g.fn = f
	g.body = nil
	g.blockCopy = false
	g.retLabel = ".Lret_" + f.Name
	frameSize := g.layoutFrame(f)

	for _, s := range f.Body {
		g.stmt(s)
	}

	var code []asm.Instruction
	code = append(code,
		asm.New("pushl", asm.EBP),
		asm.New("movl", asm.ESP, asm.EBP),
	)
	if frameSize > 0 {
		code = append(code, asm.New("subl", asm.Imm{Value: int64(frameSize)}, asm.ESP))
	}
	if g.blockCopy {
		code = append(code, asm.New("pushl", asm.ESI), asm.New("pushl", asm.EDI))
	}
	code = append(code, g.body...)
	code = append(code, asm.Label{Name: g.retLabel})
	if g.blockCopy {
		code = append(code, asm.New("popl", asm.EDI), asm.New("popl", asm.ESI))
	}
	code = append(code, asm.New("leave"), asm.New("ret"))

	g.out.Functions = append(g.out.Functions, asm.Function{
		Name: f.Name,
		Priv: f.Ent.Priv,
		Body: code,
	})
}

func (g *generator) emit(op string, operands ...asm.Operand) {
	g.body = append(g.body, asm.New(op, operands...))
}

func (g *generator) label(name string) {
	g.body = append(g.body, asm.Label{Name: name})
}

// --- Statements ---

func (g *generator) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.ExprStmt:
		g.expr(s.Expr)
	case *ir.Assign:
		g.assign(s)
	case *ir.CJump:
		g.expr(s.Cond)
		g.emit("cmpl", asm.Imm{Value: 0}, asm.EAX)
		g.emit("jne", asm.Sym{Name: s.Then})
		g.emit("jmp", asm.Sym{Name: s.Else})
	case *ir.Jump:
		g.emit("jmp", asm.Sym{Name: s.Target})
	case *ir.LabelStmt:
		g.label(s.Name)
	case *ir.Switch:
		g.expr(s.Cond)
		for _, c := range s.Cases {
			g.emit("cmpl", asm.Imm{Value: c.Value}, asm.EAX)
			g.emit("je", asm.Sym{Name: c.Target})
		}
		g.emit("jmp", asm.Sym{Name: s.Default})
	case *ir.Return:
		if s.Expr != nil {
			g.expr(s.Expr)
		}
		g.emit("jmp", asm.Sym{Name: g.retLabel})
	default:
		panic(fmt.Sprintf("codegen: unexpected IR statement %T in %s", s, g.fn.Name))
	}
}

// assign stores a value. Scalar stores go through %eax; aggregate
// stores copy bytes with rep movsb.
func (g *generator) assign(s *ir.Assign) {
	size := s.LHS.Size()
	if size > wordSize {
		g.blockCopyAssign(s, size)
		return
	}
	g.expr(s.RHS)
	switch lhs := s.LHS.(type) {
	case *ir.Var:
		g.store(size, g.entityOperand(lhs.Ent))
	case *ir.Mem:
		g.emit("pushl", asm.EAX)
		g.expr(lhs.Expr)
		g.emit("movl", asm.EAX, asm.EDX)
		g.emit("popl", asm.EAX)
		g.store(size, asm.Mem{Base: asm.EDX})
	default:
		panic(fmt.Sprintf("codegen: unexpected assignment target %T in %s", s.LHS, g.fn.Name))
	}
}

// store writes the low size bytes of %eax to dst
func (g *generator) store(size int, dst asm.Operand) {
	switch size {
	case 1:
		g.emit("movb", asm.AL, dst)
	case 2:
		g.emit("movw", asm.AX, dst)
	default:
		g.emit("movl", asm.EAX, dst)
	}
}

// blockCopyAssign copies an aggregate with rep movsb
func (g *generator) blockCopyAssign(s *ir.Assign, size int) {
	g.blockCopy = true
	g.lvalueAddr(s.RHS)
	g.emit("pushl", asm.EAX)
	g.lvalueAddr(s.LHS)
	g.emit("movl", asm.EAX, asm.EDI)
	g.emit("popl", asm.ESI)
	g.emit("movl", asm.Imm{Value: int64(size)}, asm.ECX)
	g.emit("cld")
	g.emit("rep movsb")
}

// lvalueAddr leaves the address of a Var or Mem operand in %eax
func (g *generator) lvalueAddr(e ir.Expr) {
	switch e := e.(type) {
	case *ir.Var:
		g.entityAddr(e.Ent)
	case *ir.Mem:
		g.expr(e.Expr)
	default:
		panic(fmt.Sprintf("codegen: expected lvalue operand, got %T in %s", e, g.fn.Name))
	}
}

// --- Expressions ---

// expr evaluates an IR expression into %eax
func (g *generator) expr(e ir.Expr) {
	switch e := e.(type) {
	case *ir.Int:
		g.emit("movl", asm.Imm{Value: e.Value}, asm.EAX)
	case *ir.Str:
		g.emit("movl", asm.ImmSym{Name: e.Entry.Symbol}, asm.EAX)
	case *ir.Var:
		g.load(e.Size(), e.Signed(), g.entityOperand(e.Ent))
	case *ir.Addr:
		g.entityAddr(e.Ent)
	case *ir.Mem:
		if e.ByteSize > wordSize {
			panic(fmt.Sprintf("codegen: aggregate load outside assignment in %s", g.fn.Name))
		}
		g.expr(e.Expr)
		g.load(e.ByteSize, e.Signed, asm.Mem{Base: asm.EAX})
	case *ir.Bin:
		g.binary(e)
	case *ir.Uni:
		g.unary(e)
	case *ir.Cast:
		g.expr(e.Expr)
		g.cast(e)
	case *ir.Call:
		g.call(e)
	default:
		panic(fmt.Sprintf("codegen: unexpected IR expression %T in %s", e, g.fn.Name))
	}
}

// load reads a sized value into %eax, widening to 32 bits
func (g *generator) load(size int, signed bool, src asm.Operand) {
	switch {
	case size == 1 && signed:
		g.emit("movsbl", src, asm.EAX)
	case size == 1:
		g.emit("movzbl", src, asm.EAX)
	case size == 2 && signed:
		g.emit("movswl", src, asm.EAX)
	case size == 2:
		g.emit("movzwl", src, asm.EAX)
	default:
		g.emit("movl", src, asm.EAX)
	}
}

// entityOperand returns the memory operand of a variable
func (g *generator) entityOperand(ent ast.Entity) asm.Operand {
	if mem, ok := g.frame[ent]; ok {
		return mem
	}
	return asm.Sym{Name: ent.Name()}
}

// entityAddr leaves the address of an entity in %eax
func (g *generator) entityAddr(ent ast.Entity) {
	if mem, ok := g.frame[ent]; ok {
		g.emit("leal", mem, asm.EAX)
		return
	}
	g.emit("movl", asm.ImmSym{Name: ent.Name()}, asm.EAX)
}

// binary evaluates op(l, r): the left operand is computed into %eax
// and pushed, the right lands in %ecx, and the operation combines
// them in %eax.
func (g *generator) binary(e *ir.Bin) {
	g.expr(e.Left)
	g.emit("pushl", asm.EAX)
	g.expr(e.Right)
	g.emit("movl", asm.EAX, asm.ECX)
	g.emit("popl", asm.EAX)

	switch e.Op {
	case ir.Add:
		g.emit("addl", asm.ECX, asm.EAX)
	case ir.Sub:
		g.emit("subl", asm.ECX, asm.EAX)
	case ir.Mul:
		g.emit("imull", asm.ECX, asm.EAX)
	case ir.SDiv, ir.SMod:
		g.emit("cltd")
		g.emit("idivl", asm.ECX)
		if e.Op == ir.SMod {
			g.emit("movl", asm.EDX, asm.EAX)
		}
	case ir.UDiv, ir.UMod:
		g.emit("xorl", asm.EDX, asm.EDX)
		g.emit("divl", asm.ECX)
		if e.Op == ir.UMod {
			g.emit("movl", asm.EDX, asm.EAX)
		}
	case ir.BitAnd:
		g.emit("andl", asm.ECX, asm.EAX)
	case ir.BitOr:
		g.emit("orl", asm.ECX, asm.EAX)
	case ir.BitXor:
		g.emit("xorl", asm.ECX, asm.EAX)
	case ir.LShift:
		g.emit("sall", asm.CL, asm.EAX)
	case ir.ArithRShift:
		g.emit("sarl", asm.CL, asm.EAX)
	case ir.BitRShift:
		g.emit("shrl", asm.CL, asm.EAX)
	default:
		g.comparison(e.Op)
	}
}

var setInstructions = map[ir.Op]string{
	ir.Eq:  "sete",
	ir.Ne:  "setne",
	ir.SGt: "setg",
	ir.SGe: "setge",
	ir.SLt: "setl",
	ir.SLe: "setle",
	ir.UGt: "seta",
	ir.UGe: "setae",
	ir.ULt: "setb",
	ir.ULe: "setbe",
}

func (g *generator) comparison(op ir.Op) {
	set, ok := setInstructions[op]
	if !ok {
		panic(fmt.Sprintf("codegen: unexpected binary operator %v in %s", op, g.fn.Name))
	}
	g.emit("cmpl", asm.ECX, asm.EAX)
	g.emit(set, asm.AL)
	g.emit("movzbl", asm.AL, asm.EAX)
}

func (g *generator) unary(e *ir.Uni) {
	g.expr(e.Expr)
	switch e.Op {
	case ir.Neg:
		g.emit("negl", asm.EAX)
	case ir.BitNot:
		g.emit("notl", asm.EAX)
	case ir.Not:
		g.emit("cmpl", asm.Imm{Value: 0}, asm.EAX)
		g.emit("sete", asm.AL)
		g.emit("movzbl", asm.AL, asm.EAX)
	}
}

// cast re-extends %eax for a width change
func (g *generator) cast(e *ir.Cast) {
	if e.ToSize < e.FromSize {
		g.extend(e.ToSize, e.ToSigned)
		return
	}
	if e.ToSize > e.FromSize {
		g.extend(e.FromSize, e.FromSigned)
	}
}

func (g *generator) extend(size int, signed bool) {
	switch {
	case size == 1 && signed:
		g.emit("movsbl", asm.AL, asm.EAX)
	case size == 1:
		g.emit("movzbl", asm.AL, asm.EAX)
	case size == 2 && signed:
		g.emit("movswl", asm.AX, asm.EAX)
	case size == 2:
		g.emit("movzwl", asm.AX, asm.EAX)
	}
}

// call pushes arguments right to left, emits the call and pops the
// argument area (cdecl: the caller cleans the stack).
func (g *generator) call(e *ir.Call) {
	for i := len(e.Args) - 1; i >= 0; i-- {
		g.expr(e.Args[i])
		g.emit("pushl", asm.EAX)
	}
	if addr, ok := e.Fn.(*ir.Addr); ok {
		name := addr.Ent.Name()
		if g.opts.PIC {
			name += "@PLT"
		}
		g.emit("call", asm.Sym{Name: name})
	} else {
		g.expr(e.Fn)
		g.emit("call", asm.Indirect{Reg: asm.EAX})
	}
	if n := len(e.Args); n > 0 {
		g.emit("addl", asm.Imm{Value: int64(n * wordSize)}, asm.ESP)
	}
}

// internString adds a literal to the constant pool and returns its
// symbol.
func (g *generator) internString(v string) string {
	return g.consts.Intern(v).Symbol
}
