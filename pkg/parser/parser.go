// Package parser implements a recursive descent parser for Cb
package parser

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
)

// Parser parses Cb source code into an AST
type Parser struct {
	l         *lexer.Lexer
	file      string
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
	typedefs  map[string]bool // typedef names in scope
	loader    *Loader
	imported  map[string]bool // libraries merged into this unit
}

// New creates a new Parser for the given lexer. The loader resolves
// import declarations; it may be nil when imports are not expected.
func New(l *lexer.Lexer, loader *Loader) *Parser {
	p := &Parser{
		l:        l,
		loader:   loader,
		typedefs: make(map[string]bool),
		imported: make(map[string]bool),
	}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	p.file = p.curToken.File
	return p
}

// ParseFile parses a whole source file, returning the program, the
// errors and the warnings.
func ParseFile(file, src string, loader *Loader) (*ast.Program, []string, []string) {
	l := lexer.New(file, src)
	p := New(l, loader)
	prog := p.ParseProgram()
	return prog, p.Errors(), p.Warnings()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the lexical errors followed by the parsing errors
func (p *Parser) Errors() []string {
	return append(append([]string{}, p.l.Errors()...), p.errors...)
}

// Warnings returns lexical warnings
func (p *Parser) Warnings() []string {
	return p.l.Warnings()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.curToken.File, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: error: %s",
		p.curToken.File, p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) addErrorAt(pos ast.Pos, msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%s: error: %s", pos, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

// skipTo recovers from a parse error by skipping to the next
// statement terminator or block boundary.
func (p *Parser) skipTo(types ...lexer.TokenType) {
	for !p.curTokenIs(lexer.TokenEOF) {
		for _, t := range types {
			if p.curTokenIs(t) {
				return
			}
		}
		p.nextToken()
	}
}

// skipStatement consumes up to and including the next ';', stopping
// short at a '}' so block structure survives.
func (p *Parser) skipStatement() {
	p.skipTo(lexer.TokenSemicolon, lexer.TokenRBrace)
	if p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
}

// ParseProgram parses a compilation unit: imports first, then
// top-level declarations. Imported declarations are merged into the
// returned program's declaration list.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{SourceFile: p.file}

	for p.curTokenIs(lexer.TokenImport) {
		p.parseImport(prog)
	}
	for !p.curTokenIs(lexer.TokenEOF) {
		before := len(p.errors)
		if p.curTokenIs(lexer.TokenImport) {
			p.addError("import declaration must appear before definitions")
			p.skipStatement()
			continue
		}
		d := p.parseTopDecl(prog)
		if d != nil {
			prog.Decls = append(prog.Decls, d...)
		} else if len(p.errors) > before {
			p.skipStatement()
			if p.curTokenIs(lexer.TokenRBrace) {
				p.nextToken()
			}
		}
	}
	return prog
}

// parseImport handles one `import a.b;` declaration
func (p *Parser) parseImport(prog *ast.Program) {
	pos := p.pos()
	p.nextToken() // consume 'import'
	name := ""
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected import name, got %s", p.curToken.Type))
		p.skipStatement()
		return
	}
	name = p.curToken.Literal
	p.nextToken()
	for p.curTokenIs(lexer.TokenDot) {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected import name, got %s", p.curToken.Type))
			p.skipStatement()
			return
		}
		name += "." + p.curToken.Literal
		p.nextToken()
	}
	if !p.expect(lexer.TokenSemicolon) {
		p.skipStatement()
		return
	}

	prog.Imports = append(prog.Imports, name)
	if p.imported[name] {
		return
	}
	p.imported[name] = true

	if p.loader == nil {
		p.addErrorAt(pos, fmt.Sprintf("cannot import %s: no import path configured", name))
		return
	}
	lib, errs, err := p.loader.Load(name)
	if err != nil {
		p.addErrorAt(pos, err.Error())
		return
	}
	p.errors = append(p.errors, errs...)
	if lib == nil {
		// Already being loaded higher up the import chain
		return
	}
	for imp := range p.loader.typedefs {
		p.typedefs[imp] = true
	}
	prog.Decls = append(prog.Decls, lib.Decls...)
}
