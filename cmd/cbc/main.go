package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/compiler"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// Mode flags; the modes are mutually exclusive and the first set one
// wins, checked in dispatch order.
var (
	checkSyntax   bool
	dumpTokens    bool
	dumpAST       bool
	dumpStmt      bool
	dumpReference bool
	dumpSemantic  bool
	dumpAsm       bool
	stopAfterAsm  bool // -S
	stopAfterObj  bool // -c
)

// Compilation options
var (
	importPaths []string
	outputFile  string
	picSmall    bool // -fpic
	picLarge    bool // -fPIC
	noStdlib    bool
	libPaths    []string
	libs        []string
	ldOptions   []string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// longFlagNames lists the long options that also accept single-dash
// spelling, cbc style.
var longFlagNames = []string{
	"check-syntax", "dump-tokens", "dump-ast", "dump-stmt",
	"dump-reference", "dump-semantic", "dump-asm", "no-stdlib",
	"fpic", "fPIC", "version",
}

// normalizeFlags converts single-dash long flags like -dump-ast to
// --dump-ast for pflag compatibility.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, name := range longFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cbc [options] file...",
		Short: "cbc is a compiler for the Cb language",
		Long: `cbc compiles Cb source files to 32-bit x86 assembly and drives
the system assembler and linker to produce executables.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			opts := buildOptions()
			c := compiler.New(opts, errOut)
			err := dispatch(c, args, out, errOut)
			if c.ErrorCount > 0 {
				fmt.Fprintf(errOut, "cbc: %d error(s)\n", c.ErrorCount)
			}
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Mode flags
	rootCmd.Flags().BoolVar(&checkSyntax, "check-syntax", false, "Check syntax only")
	rootCmd.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "Dump the token stream")
	rootCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "Dump the AST after parsing")
	rootCmd.Flags().BoolVar(&dumpStmt, "dump-stmt", false, "Dump the first statement of main")
	rootCmd.Flags().BoolVar(&dumpReference, "dump-reference", false, "Dump the AST after resolution")
	rootCmd.Flags().BoolVar(&dumpSemantic, "dump-semantic", false, "Dump the AST after type checking")
	rootCmd.Flags().BoolVar(&dumpAsm, "dump-asm", false, "Dump generated assembly to stdout")
	rootCmd.Flags().BoolVarP(&stopAfterAsm, "compile", "S", false, "Stop after generating assembly")
	rootCmd.Flags().BoolVarP(&stopAfterObj, "assemble", "c", false, "Stop after generating object files")

	// Compilation options
	rootCmd.Flags().StringArrayVarP(&importPaths, "include", "I", nil, "Add directory to the import search path")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file name")
	rootCmd.Flags().BoolVar(&picSmall, "fpic", false, "Generate position independent code")
	rootCmd.Flags().BoolVar(&picLarge, "fPIC", false, "Generate position independent code")
	rootCmd.Flags().BoolVar(&noStdlib, "no-stdlib", false, "Do not link the C runtime and libc")
	rootCmd.Flags().StringArrayVarP(&libPaths, "libdir", "L", nil, "Add directory to the library search path")
	rootCmd.Flags().StringArrayVarP(&libs, "lib", "l", nil, "Link against a library")
	rootCmd.Flags().StringArrayVar(&ldOptions, "ld-option", nil, "Pass an option to the linker")

	return rootCmd
}

func buildOptions() *compiler.Options {
	return &compiler.Options{
		ImportPaths: append([]string{"."}, importPaths...),
		PIC:         picSmall || picLarge,
		NoStdlib:    noStdlib,
		LibPaths:    libPaths,
		Libs:        libs,
		LDOptions:   ldOptions,
	}
}

// dispatch selects the driver mode and processes every input file
func dispatch(c *compiler.Compiler, files []string, out, errOut io.Writer) error {
	switch {
	case checkSyntax:
		return doCheckSyntax(c, files, out)
	case dumpTokens:
		return doDumpTokens(files, out, errOut)
	case dumpAST:
		return doDump(c, files, out, modeParse)
	case dumpStmt:
		return doDumpStmt(c, files, out, errOut)
	case dumpReference:
		return doDump(c, files, out, modeReference)
	case dumpSemantic:
		return doDump(c, files, out, modeSemantic)
	case dumpAsm:
		return doDumpAsm(c, files, out)
	case stopAfterAsm:
		return doCompile(c, files)
	case stopAfterObj:
		return doAssemble(c, files)
	default:
		return doLink(c, files)
	}
}

// doCheckSyntax reports per-file syntax status; it fails if any file
// is malformed.
func doCheckSyntax(c *compiler.Compiler, files []string, out io.Writer) error {
	var failed error
	for _, file := range files {
		if _, err := c.Parse(file); err != nil {
			fmt.Fprintf(out, "%s: Syntax Error\n", file)
			failed = err
		} else {
			fmt.Fprintf(out, "%s: Syntax OK\n", file)
		}
	}
	return failed
}

// doDumpTokens prints the token stream of every file
func doDumpTokens(files []string, out, errOut io.Writer) error {
	var failed error
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(errOut, "cbc: error: cannot open %s: %v\n", file, err)
			failed = err
			continue
		}
		l := lexer.New(file, string(src))
		for {
			tok := l.NextToken()
			if tok.Type == lexer.TokenEOF {
				break
			}
			fmt.Fprintf(out, "%s %q at %d:%d\n", tok.Type, tok.Literal, tok.Line, tok.Column)
		}
		for _, msg := range l.Errors() {
			fmt.Fprintln(errOut, msg)
			failed = fmt.Errorf("lexical errors in %s", file)
		}
	}
	return failed
}

type dumpMode int

const (
	modeParse dumpMode = iota
	modeReference
	modeSemantic
)

// doDump prints the AST at the requested pipeline stage. The parse
// stage prints source form; the later stages print the annotated
// tree.
func doDump(c *compiler.Compiler, files []string, out io.Writer, mode dumpMode) error {
	var failed error
	for _, file := range files {
		prog, err := c.Parse(file)
		if err != nil {
			failed = err
			continue
		}
		switch mode {
		case modeParse:
			ast.NewPrinter(out).PrintProgram(prog)
		case modeReference:
			if _, err := c.Resolve(prog); err != nil {
				failed = err
				continue
			}
			ast.NewDumper(out).DumpProgram(prog)
		case modeSemantic:
			if _, err := c.Analyze(prog); err != nil {
				failed = err
				continue
			}
			ast.NewDumper(out).DumpProgram(prog)
		}
	}
	return failed
}

// doDumpStmt prints the first statement of main
func doDumpStmt(c *compiler.Compiler, files []string, out, errOut io.Writer) error {
	var failed error
	for _, file := range files {
		prog, err := c.Parse(file)
		if err != nil {
			failed = err
			continue
		}
		if _, err := c.Analyze(prog); err != nil {
			failed = err
			continue
		}
		found := false
		for _, fn := range prog.DefinedFunctions() {
			if fn.FuncName != "main" {
				continue
			}
			found = true
			if len(fn.Body.Stmts) == 0 {
				fmt.Fprintf(errOut, "cbc: error: %s: main has no statement\n", file)
				failed = fmt.Errorf("main has no statement")
				break
			}
			ast.NewDumper(out).DumpStmt(fn.Body.Stmts[0])
		}
		if !found {
			fmt.Fprintf(errOut, "cbc: error: %s: main is not defined\n", file)
			failed = fmt.Errorf("main is not defined")
		}
	}
	return failed
}

// doDumpAsm prints the generated assembly to stdout
func doDumpAsm(c *compiler.Compiler, files []string, out io.Writer) error {
	var failed error
	for _, file := range files {
		text, err := c.CompileToAsm(file)
		if err != nil {
			failed = err
			continue
		}
		fmt.Fprint(out, text)
	}
	return failed
}

// doCompile implements -S: write one .s per source file
func doCompile(c *compiler.Compiler, files []string) error {
	var failed error
	for _, file := range files {
		if compiler.IsAssemblySource(file) {
			continue
		}
		out := ""
		if outputFile != "" && len(files) == 1 {
			out = outputFile
		}
		if _, err := c.CompileToAsmFile(file, out); err != nil {
			failed = err
		}
	}
	return failed
}

// doAssemble implements -c: compile and assemble each file to an
// object.
func doAssemble(c *compiler.Compiler, files []string) error {
	var failed error
	for _, file := range files {
		if _, err := buildObject(c, file, len(files) == 1); err != nil {
			failed = err
		}
	}
	return failed
}

// buildObject produces one object file from a .cb or .s input
func buildObject(c *compiler.Compiler, file string, single bool) (string, error) {
	objPath := compiler.ReplaceExt(file, ".o")
	if single && stopAfterObj && outputFile != "" {
		objPath = outputFile
	}
	asmPath := file
	if !compiler.IsAssemblySource(file) {
		var err error
		asmPath, err = c.CompileToAsmFile(file, "")
		if err != nil {
			return "", err
		}
	}
	if err := c.Assemble(asmPath, objPath); err != nil {
		return "", err
	}
	return objPath, nil
}

// doLink compiles every input and links the objects. Files are
// compiled independently; linking runs only when all of them
// produced an object.
func doLink(c *compiler.Compiler, files []string) error {
	var objs []string
	var failed error
	for _, file := range files {
		obj, err := buildObject(c, file, false)
		if err != nil {
			failed = err
			continue
		}
		objs = append(objs, obj)
	}
	if failed != nil {
		return failed
	}
	out := outputFile
	if out == "" {
		out = "a.out"
	}
	return c.Link(objs, out)
}
