// Package compiler orchestrates the compilation pipeline for one or
// more source files: parse, semantic analysis, IR lowering, assembly
// emission, and invocation of the external assembler and linker.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/asm"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/codegen"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/irgen"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/parser"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/sema"
)

// Error categories. Every failure of the pipeline wraps one of
// these.
var (
	ErrOption   = errors.New("option error")
	ErrFile     = errors.New("file error")
	ErrSyntax   = errors.New("syntax error")
	ErrSemantic = errors.New("semantic error")
	ErrIPC      = errors.New("external tool error")
)

// DefaultImportPath is searched after the paths given with -I
const DefaultImportPath = "/usr/local/cbc/import"

// Options carries the driver configuration into the pipeline
type Options struct {
	ImportPaths []string
	PIC         bool
	NoStdlib    bool
	LibPaths    []string // -L
	Libs        []string // -l
	LDOptions   []string // raw options appended to the link line
}

// Compiler compiles source files. Diagnostics go to errOut in
// file:line:column form; ErrorCount accumulates across files for the
// exit summary.
type Compiler struct {
	opts   *Options
	errOut io.Writer

	ErrorCount int
}

// New creates a compiler with the given options
func New(opts *Options, errOut io.Writer) *Compiler {
	return &Compiler{opts: opts, errOut: errOut}
}

func (c *Compiler) report(msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(c.errOut, m)
		if strings.Contains(m, ": error: ") {
			c.ErrorCount++
		}
	}
}

// Parse reads and parses one source file, merging imports
func (c *Compiler) Parse(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.errOut, "cbc: error: cannot open %s: %v\n", path, err)
		c.ErrorCount++
		return nil, fmt.Errorf("%w: %s", ErrFile, path)
	}
	loader := parser.NewLoader(append(c.opts.ImportPaths, DefaultImportPath))
	prog, errs, warns := parser.ParseFile(path, string(src), loader)
	c.report(warns)
	c.report(errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, path)
	}
	return prog, nil
}

// Analyze runs the semantic passes over a parsed program
func (c *Compiler) Analyze(prog *ast.Program) (*sema.Result, error) {
	h := sema.NewErrorHandler()
	res := sema.Analyze(prog, h)
	c.report(h.Warnings())
	c.report(h.Errors())
	if h.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrSemantic, prog.SourceFile)
	}
	return res, nil
}

// Resolve runs only the resolution passes, for dump-reference
func (c *Compiler) Resolve(prog *ast.Program) (*sema.Result, error) {
	h := sema.NewErrorHandler()
	res := sema.Resolve(prog, h)
	c.report(h.Warnings())
	c.report(h.Errors())
	if h.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrSemantic, prog.SourceFile)
	}
	return res, nil
}

// GenerateAsm lowers an analyzed program and renders the assembly
// text.
func (c *Compiler) GenerateAsm(prog *ast.Program) string {
	irProg := irgen.Transform(prog)
	asmProg := codegen.Generate(irProg, codegen.Options{PIC: c.opts.PIC})
	var b strings.Builder
	asm.NewPrinter(&b).PrintProgram(asmProg)
	return b.String()
}

// CompileToAsm runs the full pipeline from source text to assembly
// text.
func (c *Compiler) CompileToAsm(path string) (string, error) {
	prog, err := c.Parse(path)
	if err != nil {
		return "", err
	}
	if _, err := c.Analyze(prog); err != nil {
		return "", err
	}
	return c.GenerateAsm(prog), nil
}

// CompileToAsmFile compiles a source file and writes the assembly
// next to it (or to the given output path). No artifact is written
// when the pipeline fails.
func (c *Compiler) CompileToAsmFile(path, out string) (string, error) {
	text, err := c.CompileToAsm(path)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = ReplaceExt(path, ".s")
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		fmt.Fprintf(c.errOut, "cbc: error: cannot write %s: %v\n", out, err)
		c.ErrorCount++
		return "", fmt.Errorf("%w: %s", ErrFile, out)
	}
	return out, nil
}

// IsAssemblySource reports whether a path names an assembly input
func IsAssemblySource(path string) bool {
	return strings.HasSuffix(path, ".s")
}

// ReplaceExt swaps the extension of a file name
func ReplaceExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + ext
	}
	return path + ext
}
