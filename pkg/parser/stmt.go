package parser

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
)

// parseBlock parses `{ decls... stmts... }`. Declarations must
// precede statements within a block.
func (p *Parser) parseBlock() *ast.BlockNode {
	block := &ast.BlockNode{Position: p.pos()}
	p.nextToken() // consume '{'

	for p.isLocalDeclStart() {
		vars := p.parseLocalVarDecl()
		block.Vars = append(block.Vars, vars...)
	}
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		before := len(p.errors)
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		} else if len(p.errors) > before {
			p.skipStatement()
		}
	}
	p.expect(lexer.TokenRBrace)
	return block
}

func (p *Parser) isLocalDeclStart() bool {
	if p.curTokenIs(lexer.TokenConst) || p.curTokenIs(lexer.TokenStatic) {
		return true
	}
	if !p.isTypeStart() {
		return false
	}
	// A typedef name followed by anything but a declarator shape is
	// an expression, not a declaration.
	if p.curTokenIs(lexer.TokenIdent) {
		switch p.peekToken.Type {
		case lexer.TokenIdent, lexer.TokenStar:
			return true
		}
		return false
	}
	return true
}

// parseLocalVarDecl parses one local declaration line, possibly
// declaring several variables.
func (p *Parser) parseLocalVarDecl() []*ast.DefinedVariable {
	if p.curTokenIs(lexer.TokenStatic) {
		p.addError("static local variables are not supported")
		p.skipStatement()
		return nil
	}
	isConst := false
	if p.curTokenIs(lexer.TokenConst) {
		isConst = true
		p.nextToken()
	}
	base := p.parseBaseType()
	if base == nil {
		p.skipStatement()
		return nil
	}
	var vars []*ast.DefinedVariable
	for {
		ref, name, pos, ok := p.parseDeclarator(base)
		if !ok {
			p.skipStatement()
			return vars
		}
		var init ast.Expr
		if p.curTokenIs(lexer.TokenAssign) {
			p.nextToken()
			init = p.parseAssign()
		}
		vars = append(vars, &ast.DefinedVariable{
			Position: pos, IsConst: isConst, Ref: ref, VarName: name, Init: init,
		})
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.TokenSemicolon)
	return vars
}

// parseStatement parses one statement
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenBreak:
		pos := p.pos()
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &ast.BreakNode{Position: pos}
	case lexer.TokenContinue:
		pos := p.pos()
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &ast.ContinueNode{Position: pos}
	case lexer.TokenGoto:
		return p.parseGoto()
	case lexer.TokenSemicolon:
		p.nextToken() // empty statement
		return nil
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenColon) {
			return p.parseLabel()
		}
	}
	if p.isLocalDeclStart() || p.curTokenIs(lexer.TokenStatic) {
		p.addError("declaration after statement")
		p.skipStatement()
		return nil
	}
	return p.parseExprStatement()
}

func (p *Parser) parseExprStatement() ast.Stmt {
	pos := p.pos()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	p.expect(lexer.TokenSemicolon)
	return &ast.ExprStmtNode{Position: pos, Expr: expr}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'if'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	then := p.parseStatement()
	var els ast.Stmt
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		els = p.parseStatement()
	}
	return &ast.IfNode{Position: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'while'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	body := p.parseStatement()
	return &ast.WhileNode{Position: pos, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'do'
	body := p.parseStatement()
	if !p.expect(lexer.TokenWhile) {
		return nil
	}
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	p.expect(lexer.TokenSemicolon)
	return &ast.DoWhileNode{Position: pos, Body: body, Cond: cond}
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'for'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	node := &ast.ForNode{Position: pos}
	if !p.curTokenIs(lexer.TokenSemicolon) {
		if p.isLocalDeclStart() {
			base := p.parseBaseType()
			if base == nil {
				return nil
			}
			ref, name, vpos, ok := p.parseDeclarator(base)
			if !ok {
				return nil
			}
			var init ast.Expr
			if p.curTokenIs(lexer.TokenAssign) {
				p.nextToken()
				init = p.parseAssign()
			}
			node.InitDecl = &ast.DefinedVariable{Position: vpos, Ref: ref, VarName: name, Init: init}
		} else {
			node.Init = p.parseExpression()
		}
	}
	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	if !p.curTokenIs(lexer.TokenSemicolon) {
		node.Cond = p.parseExpression()
	}
	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	if !p.curTokenIs(lexer.TokenRParen) {
		node.Step = p.parseExpression()
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	node.Body = p.parseStatement()
	return node
}

func (p *Parser) parseSwitch() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'switch'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}
	node := &ast.SwitchNode{Position: pos, Cond: cond}
	for p.curTokenIs(lexer.TokenCase) || p.curTokenIs(lexer.TokenDefault) {
		c := p.parseCaseClause()
		if c == nil {
			return nil
		}
		node.Cases = append(node.Cases, c)
	}
	if !p.expect(lexer.TokenRBrace) {
		return nil
	}
	return node
}

// parseCaseClause parses a run of case/default labels and the
// statements up to the next label or the closing brace.
func (p *Parser) parseCaseClause() *ast.CaseNode {
	node := &ast.CaseNode{Position: p.pos()}
	isDefault := false
	for {
		if p.curTokenIs(lexer.TokenCase) {
			p.nextToken()
			v := p.parseConditional()
			if v == nil {
				return nil
			}
			node.Values = append(node.Values, v)
			if !p.expect(lexer.TokenColon) {
				return nil
			}
		} else if p.curTokenIs(lexer.TokenDefault) {
			p.nextToken()
			isDefault = true
			if !p.expect(lexer.TokenColon) {
				return nil
			}
		} else {
			break
		}
	}
	if isDefault && len(node.Values) > 0 {
		p.addErrorAt(node.Position, "default mixed with case labels in one clause")
		return nil
	}
	body := &ast.BlockNode{Position: p.pos()}
	for !p.curTokenIs(lexer.TokenCase) && !p.curTokenIs(lexer.TokenDefault) &&
		!p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		before := len(p.errors)
		stmt := p.parseStatement()
		if stmt != nil {
			body.Stmts = append(body.Stmts, stmt)
		} else if len(p.errors) > before {
			p.skipStatement()
		}
	}
	node.Body = body
	return node
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'return'
	var expr ast.Expr
	if !p.curTokenIs(lexer.TokenSemicolon) {
		expr = p.parseExpression()
		if expr == nil {
			return nil
		}
	}
	p.expect(lexer.TokenSemicolon)
	return &ast.ReturnNode{Position: pos, Expr: expr}
}

func (p *Parser) parseGoto() ast.Stmt {
	pos := p.pos()
	p.nextToken() // consume 'goto'
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected label name, got %s", p.curToken.Type))
		return nil
	}
	target := p.curToken.Literal
	p.nextToken()
	p.expect(lexer.TokenSemicolon)
	return &ast.GotoNode{Position: pos, Target: target}
}

func (p *Parser) parseLabel() ast.Stmt {
	pos := p.pos()
	name := p.curToken.Literal
	p.nextToken() // consume name
	p.nextToken() // consume ':'
	stmt := p.parseStatement()
	if stmt == nil {
		p.addErrorAt(pos, "label requires a statement")
		return nil
	}
	return &ast.LabelNode{Position: pos, Name: name, Stmt: stmt}
}
