package compiler

import (
	"fmt"
	"os/exec"
)

// External toolchain configuration for the 32-bit ELF target
const (
	AssemblerCommand = "as"
	LinkerCommand    = "ld"
	DynamicLinker    = "/lib/ld-linux.so.2"
)

var crtObjects = struct {
	pre  []string
	post []string
}{
	pre:  []string{"/usr/lib/crt1.o", "/usr/lib/crti.o"},
	post: []string{"/usr/lib/crtn.o"},
}

// Assemble runs the external assembler on one .s file
func (c *Compiler) Assemble(asmPath, objPath string) error {
	args := []string{"--32", "-o", objPath, asmPath}
	return c.runTool(AssemblerCommand, args)
}

// Link runs the external linker over the object files, producing a
// dynamically linked 32-bit executable unless NoStdlib suppresses
// the C runtime.
func (c *Compiler) Link(objPaths []string, outPath string) error {
	args := []string{"-melf_i386", "-o", outPath}
	if !c.opts.NoStdlib {
		args = append(args, "-dynamic-linker", DynamicLinker)
		args = append(args, crtObjects.pre...)
	}
	for _, dir := range c.opts.LibPaths {
		args = append(args, "-L"+dir)
	}
	args = append(args, objPaths...)
	for _, lib := range c.opts.Libs {
		args = append(args, "-l"+lib)
	}
	if !c.opts.NoStdlib {
		args = append(args, "-lc")
		args = append(args, crtObjects.post...)
	}
	args = append(args, c.opts.LDOptions...)
	return c.runTool(LinkerCommand, args)
}

// runTool launches a child process, streaming its output through to
// the driver's error stream, and waits for it synchronously.
func (c *Compiler) runTool(name string, args []string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = c.errOut
	cmd.Stderr = c.errOut
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(c.errOut, "cbc: error: %s failed: %v\n", name, err)
		c.ErrorCount++
		return fmt.Errorf("%w: %s", ErrIPC, name)
	}
	return nil
}
