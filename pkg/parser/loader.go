package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
)

// Loader locates and parses imported header files. An import name
// `a.b` maps to `a/b.hb` resolved against the search paths. Each
// library is parsed at most once per compilation unit; a file that is
// already being loaded is skipped on reentry, which terminates import
// cycles.
type Loader struct {
	SearchPaths []string

	loading  map[string]bool
	loaded   map[string]bool
	typedefs map[string]bool
}

// NewLoader creates a loader over the given search paths
func NewLoader(paths []string) *Loader {
	return &Loader{
		SearchPaths: paths,
		loading:     make(map[string]bool),
		loaded:      make(map[string]bool),
		typedefs:    make(map[string]bool),
	}
}

// HeaderFile maps an import name to its relative file path
func HeaderFile(name string) string {
	return strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".hb"
}

// locate finds the header file for an import name
func (ld *Loader) locate(name string) (string, error) {
	rel := HeaderFile(name)
	for _, dir := range ld.SearchPaths {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("cannot import %s: no such file in import path: %s", name, rel)
}

// Load parses the named library and returns its program. A nil
// program with nil error means the library was already merged into
// this compilation unit, or is being loaded higher up the import
// chain.
func (ld *Loader) Load(name string) (*ast.Program, []string, error) {
	if ld.loaded[name] || ld.loading[name] {
		return nil, nil, nil
	}
	path, err := ld.locate(name)
	if err != nil {
		return nil, nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot import %s: %v", name, err)
	}

	ld.loading[name] = true
	defer delete(ld.loading, name)

	l := lexer.New(path, string(src))
	p := New(l, ld)
	for td := range ld.typedefs {
		p.typedefs[td] = true
	}
	prog := p.ParseProgram()
	for td := range p.typedefs {
		ld.typedefs[td] = true
	}
	ld.loaded[name] = true
	return prog, p.Errors(), nil
}
