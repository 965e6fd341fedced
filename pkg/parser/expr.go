package parser

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
)

// parseExpression parses a full expression including the comma
// operator.
func (p *Parser) parseExpression() ast.Expr {
	expr := p.parseAssign()
	if expr == nil {
		return nil
	}
	for p.curTokenIs(lexer.TokenComma) {
		pos := p.pos()
		p.nextToken()
		right := p.parseAssign()
		if right == nil {
			return nil
		}
		expr = ast.NewComma(pos, expr, right)
	}
	return expr
}

var opAssignOps = map[lexer.TokenType]string{
	lexer.TokenPlusAssign:    "+",
	lexer.TokenMinusAssign:   "-",
	lexer.TokenStarAssign:    "*",
	lexer.TokenSlashAssign:   "/",
	lexer.TokenPercentAssign: "%",
	lexer.TokenAndAssign:     "&",
	lexer.TokenOrAssign:      "|",
	lexer.TokenXorAssign:     "^",
	lexer.TokenShlAssign:     "<<",
	lexer.TokenShrAssign:     ">>",
}

// parseAssign parses an assignment expression (right associative)
func (p *Parser) parseAssign() ast.Expr {
	expr := p.parseConditional()
	if expr == nil {
		return nil
	}
	if p.curTokenIs(lexer.TokenAssign) {
		pos := p.pos()
		p.nextToken()
		rhs := p.parseAssign()
		if rhs == nil {
			return nil
		}
		return ast.NewAssign(pos, expr, rhs)
	}
	if op, ok := opAssignOps[p.curToken.Type]; ok {
		pos := p.pos()
		p.nextToken()
		rhs := p.parseAssign()
		if rhs == nil {
			return nil
		}
		return ast.NewOpAssign(pos, op, expr, rhs)
	}
	return expr
}

// parseConditional parses cond ? then : else
func (p *Parser) parseConditional() ast.Expr {
	cond := p.parseLogicalOr()
	if cond == nil || !p.curTokenIs(lexer.TokenQuestion) {
		return cond
	}
	pos := p.pos()
	p.nextToken()
	then := p.parseExpression()
	if then == nil {
		return nil
	}
	if !p.expect(lexer.TokenColon) {
		return nil
	}
	els := p.parseConditional()
	if els == nil {
		return nil
	}
	return ast.NewCondExpr(pos, cond, then, els)
}

// binaryCascade parses a left-associative run of the given operators
func (p *Parser) binaryCascade(sub func() ast.Expr, ops map[lexer.TokenType]string) ast.Expr {
	expr := sub()
	if expr == nil {
		return nil
	}
	for {
		op, ok := ops[p.curToken.Type]
		if !ok {
			return expr
		}
		pos := p.pos()
		p.nextToken()
		right := sub()
		if right == nil {
			return nil
		}
		expr = ast.NewBinaryOp(pos, op, expr, right)
	}
}

func (p *Parser) parseLogicalOr() ast.Expr {
	return p.binaryCascade(p.parseLogicalAnd, map[lexer.TokenType]string{lexer.TokenOr: "||"})
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	return p.binaryCascade(p.parseBitOr, map[lexer.TokenType]string{lexer.TokenAnd: "&&"})
}

func (p *Parser) parseBitOr() ast.Expr {
	return p.binaryCascade(p.parseBitXor, map[lexer.TokenType]string{lexer.TokenPipe: "|"})
}

func (p *Parser) parseBitXor() ast.Expr {
	return p.binaryCascade(p.parseBitAnd, map[lexer.TokenType]string{lexer.TokenCaret: "^"})
}

func (p *Parser) parseBitAnd() ast.Expr {
	return p.binaryCascade(p.parseEquality, map[lexer.TokenType]string{lexer.TokenAmpersand: "&"})
}

func (p *Parser) parseEquality() ast.Expr {
	return p.binaryCascade(p.parseRelational, map[lexer.TokenType]string{
		lexer.TokenEq: "==", lexer.TokenNe: "!=",
	})
}

func (p *Parser) parseRelational() ast.Expr {
	return p.binaryCascade(p.parseShift, map[lexer.TokenType]string{
		lexer.TokenLt: "<", lexer.TokenLe: "<=", lexer.TokenGt: ">", lexer.TokenGe: ">=",
	})
}

func (p *Parser) parseShift() ast.Expr {
	return p.binaryCascade(p.parseAdditive, map[lexer.TokenType]string{
		lexer.TokenShl: "<<", lexer.TokenShr: ">>",
	})
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.binaryCascade(p.parseMultiplicative, map[lexer.TokenType]string{
		lexer.TokenPlus: "+", lexer.TokenMinus: "-",
	})
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.binaryCascade(p.parseCast, map[lexer.TokenType]string{
		lexer.TokenStar: "*", lexer.TokenSlash: "/", lexer.TokenPercent: "%",
	})
}

// parseCast parses `(type) cast` or falls through to unary
func (p *Parser) parseCast() ast.Expr {
	if p.curTokenIs(lexer.TokenLParen) && p.isTypeStartToken(p.peekToken) {
		pos := p.pos()
		p.nextToken() // consume '('
		ref := p.parseTypeRef()
		if ref == nil {
			return nil
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		expr := p.parseCast()
		if expr == nil {
			return nil
		}
		return ast.NewCast(pos, ref, expr)
	}
	return p.parseUnary()
}

// parseUnary parses prefix operators
func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenIncrement:
		p.nextToken()
		expr := p.parseUnary()
		if expr == nil {
			return nil
		}
		return ast.NewPrefixOp(pos, "++", expr)
	case lexer.TokenDecrement:
		p.nextToken()
		expr := p.parseUnary()
		if expr == nil {
			return nil
		}
		return ast.NewPrefixOp(pos, "--", expr)
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenNot, lexer.TokenTilde:
		op := p.curToken.Literal
		p.nextToken()
		expr := p.parseCast()
		if expr == nil {
			return nil
		}
		return ast.NewUnaryOp(pos, op, expr)
	case lexer.TokenStar:
		p.nextToken()
		expr := p.parseCast()
		if expr == nil {
			return nil
		}
		return ast.NewDereference(pos, expr)
	case lexer.TokenAmpersand:
		p.nextToken()
		expr := p.parseCast()
		if expr == nil {
			return nil
		}
		return ast.NewAddress(pos, expr)
	case lexer.TokenSizeof:
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) && p.isTypeStartToken(p.peekToken) {
			p.nextToken() // consume '('
			ref := p.parseTypeRef()
			if ref == nil {
				return nil
			}
			if !p.expect(lexer.TokenRParen) {
				return nil
			}
			return ast.NewSizeofType(pos, ref)
		}
		expr := p.parseUnary()
		if expr == nil {
			return nil
		}
		return ast.NewSizeofExpr(pos, expr)
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by postfix
// operators: subscripts, member accesses, calls, ++ and --.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		pos := p.pos()
		switch p.curToken.Type {
		case lexer.TokenLBracket:
			p.nextToken()
			idx := p.parseExpression()
			if idx == nil {
				return nil
			}
			if !p.expect(lexer.TokenRBracket) {
				return nil
			}
			expr = ast.NewAref(pos, expr, idx)
		case lexer.TokenDot:
			p.nextToken()
			if !p.curTokenIs(lexer.TokenIdent) {
				p.addError(fmt.Sprintf("expected member name, got %s", p.curToken.Type))
				return nil
			}
			expr = ast.NewMember(pos, expr, p.curToken.Literal)
			p.nextToken()
		case lexer.TokenArrow:
			p.nextToken()
			if !p.curTokenIs(lexer.TokenIdent) {
				p.addError(fmt.Sprintf("expected member name, got %s", p.curToken.Type))
				return nil
			}
			expr = ast.NewPtrMember(pos, expr, p.curToken.Literal)
			p.nextToken()
		case lexer.TokenLParen:
			args, ok := p.parseArgs()
			if !ok {
				return nil
			}
			expr = ast.NewFuncall(pos, expr, args)
		case lexer.TokenIncrement:
			p.nextToken()
			expr = ast.NewSuffixOp(pos, "++", expr)
		case lexer.TokenDecrement:
			p.nextToken()
			expr = ast.NewSuffixOp(pos, "--", expr)
		default:
			return expr
		}
	}
}

// parseArgs parses a parenthesized argument list
func (p *Parser) parseArgs() ([]ast.Expr, bool) {
	p.nextToken() // consume '('
	var args []ast.Expr
	if !p.curTokenIs(lexer.TokenRParen) {
		for {
			arg := p.parseAssign()
			if arg == nil {
				return nil, false
			}
			args = append(args, arg)
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	return args, true
}

// parsePrimary parses literals, identifiers and parenthesized
// expressions. Adjacent string literals concatenate.
func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenInt:
		lit := ast.NewIntegerLiteral(pos, p.curToken.IntValue, p.curToken.Unsigned)
		p.nextToken()
		return lit
	case lexer.TokenChar:
		lit := ast.NewIntegerLiteral(pos, p.curToken.IntValue, false)
		p.nextToken()
		return lit
	case lexer.TokenString:
		value := p.curToken.StrValue
		p.nextToken()
		for p.curTokenIs(lexer.TokenString) {
			value += p.curToken.StrValue
			p.nextToken()
		}
		return ast.NewStringLiteral(pos, value)
	case lexer.TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		return ast.NewVariable(pos, name)
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		return expr
	}
	p.addError(fmt.Sprintf("expected expression, got %s", p.curToken.Type))
	return nil
}
