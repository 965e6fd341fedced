package parser

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
	"github.com/lifes/cbc-ubuntu-64bit/pkg/lexer"
)

// isTypeStart reports whether the current token can begin a type
func (p *Parser) isTypeStart() bool {
	switch p.curToken.Type {
	case lexer.TokenVoid, lexer.TokenInt_, lexer.TokenChar_, lexer.TokenShort,
		lexer.TokenLong, lexer.TokenUnsigned, lexer.TokenSigned,
		lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum:
		return true
	case lexer.TokenIdent:
		return p.typedefs[p.curToken.Literal]
	}
	return false
}

// isTypeStartToken reports whether a token can begin a type; used for
// one-token lookahead in cast and sizeof disambiguation.
func (p *Parser) isTypeStartToken(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenVoid, lexer.TokenInt_, lexer.TokenChar_, lexer.TokenShort,
		lexer.TokenLong, lexer.TokenUnsigned, lexer.TokenSigned,
		lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum:
		return true
	case lexer.TokenIdent:
		return p.typedefs[tok.Literal]
	}
	return false
}

// parseTopDecl parses one top-level declaration. It returns nil after
// recording an error; the caller recovers.
func (p *Parser) parseTopDecl(prog *ast.Program) []ast.Decl {
	switch p.curToken.Type {
	case lexer.TokenTypedef:
		return p.parseTypedef()
	case lexer.TokenEnum:
		return p.parseEnum()
	case lexer.TokenConst:
		return p.parseConstant()
	}

	static := false
	extern := false
	for p.curTokenIs(lexer.TokenStatic) || p.curTokenIs(lexer.TokenExtern) {
		if p.curTokenIs(lexer.TokenStatic) {
			static = true
		} else {
			extern = true
		}
		p.nextToken()
	}
	isConst := false
	if p.curTokenIs(lexer.TokenConst) {
		isConst = true
		p.nextToken()
	}

	// struct/union definitions share a prefix with declarations that
	// use the tag as a base type.
	if p.curTokenIs(lexer.TokenStruct) || p.curTokenIs(lexer.TokenUnion) {
		isUnion := p.curTokenIs(lexer.TokenUnion)
		pos := p.pos()
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected tag name, got %s", p.curToken.Type))
			return nil
		}
		tag := p.curToken.Literal
		p.nextToken()
		if p.curTokenIs(lexer.TokenLBrace) {
			if static || extern || isConst {
				p.addError("storage class on type definition")
			}
			return p.parseCompositeDef(pos, tag, isUnion)
		}
		var base ast.TypeRef
		if isUnion {
			base = &ast.UnionRef{Position: pos, Name: tag}
		} else {
			base = &ast.StructRef{Position: pos, Name: tag}
		}
		return p.parseEntityDecl(base, static, extern, isConst)
	}

	if !p.isTypeStart() {
		p.addError(fmt.Sprintf("expected declaration, got %s", p.curToken.Type))
		return nil
	}
	base := p.parseBaseType()
	if base == nil {
		return nil
	}
	return p.parseEntityDecl(base, static, extern, isConst)
}

// parseEntityDecl parses a function or variable declaration after its
// base type.
func (p *Parser) parseEntityDecl(base ast.TypeRef, static, extern, isConst bool) []ast.Decl {
	ref, name, namePos, ok := p.parseDeclarator(base)
	if !ok {
		return nil
	}

	if p.curTokenIs(lexer.TokenLParen) {
		return p.parseFunction(ref, name, namePos, static, extern)
	}

	// Variable declaration list
	var decls []ast.Decl
	for {
		decls = append(decls, p.finishVarDecl(ref, name, namePos, static, extern, isConst))
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
		ref, name, namePos, ok = p.parseDeclarator(base)
		if !ok {
			return decls
		}
	}
	p.expect(lexer.TokenSemicolon)
	return decls
}

func (p *Parser) finishVarDecl(ref ast.TypeRef, name string, pos ast.Pos, static, extern, isConst bool) ast.Decl {
	var init ast.Expr
	if p.curTokenIs(lexer.TokenAssign) {
		p.nextToken()
		init = p.parseAssign()
	}
	if extern && init == nil {
		return &ast.UndefinedVariable{Position: pos, Ref: ref, VarName: name}
	}
	return &ast.DefinedVariable{
		Position: pos, Priv: static, IsConst: isConst,
		Ref: ref, VarName: name, Init: init,
	}
}

// parseFunction parses a function definition or prototype after its
// return type and name.
func (p *Parser) parseFunction(ret ast.TypeRef, name string, pos ast.Pos, static, extern bool) []ast.Decl {
	params, variadic, ok := p.parseParams()
	if !ok {
		return nil
	}
	if p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
		return []ast.Decl{&ast.UndefinedFunction{
			Position: pos, Return: ret, FuncName: name,
			Params: params, Variadic: variadic,
		}}
	}
	if !p.curTokenIs(lexer.TokenLBrace) {
		p.addError(fmt.Sprintf("expected function body, got %s", p.curToken.Type))
		return nil
	}
	if extern {
		p.addErrorAt(pos, "extern function with body")
	}
	body := p.parseBlock()
	return []ast.Decl{&ast.DefinedFunction{
		Position: pos, Priv: static, Return: ret, FuncName: name,
		Params: params, Variadic: variadic, Body: body,
	}}
}

// parseParams parses a parenthesized parameter list. A sole void
// means no parameters.
func (p *Parser) parseParams() ([]*ast.Parameter, bool, bool) {
	if !p.expect(lexer.TokenLParen) {
		return nil, false, false
	}
	if p.curTokenIs(lexer.TokenVoid) && p.peekTokenIs(lexer.TokenRParen) {
		p.nextToken()
		p.nextToken()
		return nil, false, true
	}
	if p.curTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return nil, false, true
	}
	var params []*ast.Parameter
	variadic := false
	for {
		if p.curTokenIs(lexer.TokenDot) && p.peekTokenIs(lexer.TokenDot) {
			// "..." arrives as three dot tokens
			p.nextToken()
			p.nextToken()
			if !p.expect(lexer.TokenDot) {
				return nil, false, false
			}
			variadic = true
			break
		}
		if !p.isTypeStart() {
			p.addError(fmt.Sprintf("expected parameter type, got %s", p.curToken.Type))
			return nil, false, false
		}
		base := p.parseBaseType()
		if base == nil {
			return nil, false, false
		}
		ref, name, pos, ok := p.parseParamDeclarator(base)
		if !ok {
			return nil, false, false
		}
		params = append(params, &ast.Parameter{Position: pos, Ref: ref, VarName: name})
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false, false
	}
	return params, variadic, true
}

// parseCompositeDef parses a struct or union member list after the
// opening brace.
func (p *Parser) parseCompositeDef(pos ast.Pos, tag string, isUnion bool) []ast.Decl {
	p.nextToken() // consume '{'
	var members []ast.Slot
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		if !p.isTypeStart() && !p.curTokenIs(lexer.TokenStruct) && !p.curTokenIs(lexer.TokenUnion) {
			p.addError(fmt.Sprintf("expected member declaration, got %s", p.curToken.Type))
			p.skipStatement()
			continue
		}
		base := p.parseBaseType()
		if base == nil {
			p.skipStatement()
			continue
		}
		ref, name, mpos, ok := p.parseDeclarator(base)
		if !ok {
			p.skipStatement()
			continue
		}
		members = append(members, ast.Slot{Position: mpos, Name: name, Ref: ref})
		p.expect(lexer.TokenSemicolon)
	}
	if !p.expect(lexer.TokenRBrace) {
		return nil
	}
	p.expect(lexer.TokenSemicolon)
	if isUnion {
		return []ast.Decl{&ast.UnionNode{Position: pos, Name: tag, Members: members}}
	}
	return []ast.Decl{&ast.StructNode{Position: pos, Name: tag, Members: members}}
}

// parseTypedef parses `typedef <type> <name>;`
func (p *Parser) parseTypedef() []ast.Decl {
	pos := p.pos()
	p.nextToken() // consume 'typedef'
	real := p.parseTypeRef()
	if real == nil {
		return nil
	}
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected typedef name, got %s", p.curToken.Type))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()
	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	p.typedefs[name] = true
	return []ast.Decl{&ast.TypedefNode{Position: pos, Name: name, Real: real}}
}

// parseConstant parses `const <type> <name> = <expr>;`
func (p *Parser) parseConstant() []ast.Decl {
	pos := p.pos()
	p.nextToken() // consume 'const'
	ref := p.parseTypeRef()
	if ref == nil {
		return nil
	}
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected constant name, got %s", p.curToken.Type))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()
	if !p.expect(lexer.TokenAssign) {
		return nil
	}
	value := p.parseConditional()
	if value == nil {
		return nil
	}
	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return []ast.Decl{&ast.Constant{Position: pos, Ref: ref, ConstName: name, Value: value}}
}

// parseEnum parses an enum definition. Members become integer
// constants; the enum type itself is int.
func (p *Parser) parseEnum() []ast.Decl {
	p.nextToken() // consume 'enum'
	if p.curTokenIs(lexer.TokenIdent) {
		p.nextToken() // the tag itself carries no information
	}
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}
	var decls []ast.Decl
	next := int64(0)
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected enum member, got %s", p.curToken.Type))
			p.skipTo(lexer.TokenRBrace)
			break
		}
		mpos := p.pos()
		name := p.curToken.Literal
		p.nextToken()
		value := next
		if p.curTokenIs(lexer.TokenAssign) {
			p.nextToken()
			v, ok := p.parseEnumValue()
			if !ok {
				return decls
			}
			value = v
		}
		next = value + 1
		decls = append(decls, &ast.Constant{
			Position:  mpos,
			Ref:       &ast.IntegerRef{Position: mpos, Name: "int"},
			ConstName: name,
			Value:     ast.NewIntegerLiteral(mpos, value, false),
		})
		if p.curTokenIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	if !p.expect(lexer.TokenRBrace) {
		return decls
	}
	p.expect(lexer.TokenSemicolon)
	return decls
}

// parseEnumValue accepts an optionally signed integer literal
func (p *Parser) parseEnumValue() (int64, bool) {
	neg := false
	if p.curTokenIs(lexer.TokenMinus) {
		neg = true
		p.nextToken()
	}
	if !p.curTokenIs(lexer.TokenInt) && !p.curTokenIs(lexer.TokenChar) {
		p.addError("enum value must be an integer constant")
		return 0, false
	}
	v := p.curToken.IntValue
	p.nextToken()
	if neg {
		v = -v
	}
	return v, true
}

// parseBaseType parses a primitive, tagged or typedef'd type name
func (p *Parser) parseBaseType() ast.TypeRef {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenVoid:
		p.nextToken()
		return &ast.VoidRef{Position: pos}
	case lexer.TokenStruct:
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected struct tag, got %s", p.curToken.Type))
			return nil
		}
		name := p.curToken.Literal
		p.nextToken()
		return &ast.StructRef{Position: pos, Name: name}
	case lexer.TokenUnion:
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected union tag, got %s", p.curToken.Type))
			return nil
		}
		name := p.curToken.Literal
		p.nextToken()
		return &ast.UnionRef{Position: pos, Name: name}
	case lexer.TokenEnum:
		p.nextToken()
		if p.curTokenIs(lexer.TokenIdent) {
			p.nextToken()
		}
		return &ast.IntegerRef{Position: pos, Name: "int"}
	case lexer.TokenIdent:
		if p.typedefs[p.curToken.Literal] {
			name := p.curToken.Literal
			p.nextToken()
			return &ast.UserRef{Position: pos, Name: name}
		}
		p.addError(fmt.Sprintf("expected type, got %s", p.curToken.Literal))
		return nil
	}

	// Integer types with optional signedness prefix
	unsigned := false
	signednessSeen := false
	for p.curTokenIs(lexer.TokenUnsigned) || p.curTokenIs(lexer.TokenSigned) {
		unsigned = p.curTokenIs(lexer.TokenUnsigned)
		signednessSeen = true
		p.nextToken()
	}
	name := ""
	switch p.curToken.Type {
	case lexer.TokenChar_:
		name = "char"
		p.nextToken()
	case lexer.TokenShort:
		name = "short"
		p.nextToken()
	case lexer.TokenInt_:
		name = "int"
		p.nextToken()
	case lexer.TokenLong:
		name = "long"
		p.nextToken()
	default:
		if !signednessSeen {
			p.addError(fmt.Sprintf("expected type, got %s", p.curToken.Type))
			return nil
		}
		name = "int"
	}
	if unsigned {
		name = "unsigned " + name
	}
	return &ast.IntegerRef{Position: pos, Name: name}
}

// parseTypeRef parses a full abstract type: base, pointer stars,
// function-pointer form and array suffixes. Used by casts, sizeof and
// typedef.
func (p *Parser) parseTypeRef() ast.TypeRef {
	ref := p.parseBaseType()
	if ref == nil {
		return nil
	}
	for p.curTokenIs(lexer.TokenStar) {
		ref = &ast.PointerRef{Position: p.pos(), Base: ref}
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenLParen) && p.peekTokenIs(lexer.TokenStar) {
		fnRef, _, _, ok := p.parseFuncPointer(ref, false)
		if !ok {
			return nil
		}
		ref = fnRef
	}
	if ref = p.parseArraySuffixes(ref); ref == nil {
		return nil
	}
	return ref
}

// parseDeclarator parses pointer stars, the declared name (or a
// function-pointer declarator) and array suffixes.
func (p *Parser) parseDeclarator(base ast.TypeRef) (ast.TypeRef, string, ast.Pos, bool) {
	ref := base
	for p.curTokenIs(lexer.TokenStar) {
		ref = &ast.PointerRef{Position: p.pos(), Base: ref}
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenLParen) && p.peekTokenIs(lexer.TokenStar) {
		return p.parseFuncPointer(ref, true)
	}
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected name, got %s", p.curToken.Type))
		return nil, "", ast.Pos{}, false
	}
	name := p.curToken.Literal
	pos := p.pos()
	p.nextToken()
	if ref = p.parseArraySuffixes(ref); ref == nil {
		return nil, "", ast.Pos{}, false
	}
	return ref, name, pos, true
}

// parseParamDeclarator is parseDeclarator with an optional name, for
// prototypes with abstract parameters.
func (p *Parser) parseParamDeclarator(base ast.TypeRef) (ast.TypeRef, string, ast.Pos, bool) {
	ref := base
	for p.curTokenIs(lexer.TokenStar) {
		ref = &ast.PointerRef{Position: p.pos(), Base: ref}
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenLParen) && p.peekTokenIs(lexer.TokenStar) {
		return p.parseFuncPointer(ref, true)
	}
	name := ""
	pos := p.pos()
	if p.curTokenIs(lexer.TokenIdent) {
		name = p.curToken.Literal
		p.nextToken()
	}
	if ref = p.parseArraySuffixes(ref); ref == nil {
		return nil, "", ast.Pos{}, false
	}
	return ref, name, pos, true
}

// parseFuncPointer parses `(*name)(params)` after the return type.
// When named is false the name is optional (abstract type).
func (p *Parser) parseFuncPointer(ret ast.TypeRef, named bool) (ast.TypeRef, string, ast.Pos, bool) {
	pos := p.pos()
	p.nextToken() // consume '('
	p.nextToken() // consume '*'
	name := ""
	namePos := pos
	if p.curTokenIs(lexer.TokenIdent) {
		name = p.curToken.Literal
		namePos = p.pos()
		p.nextToken()
	} else if named {
		p.addError(fmt.Sprintf("expected name, got %s", p.curToken.Type))
		return nil, "", ast.Pos{}, false
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, "", ast.Pos{}, false
	}
	params, variadic, ok := p.parseParams()
	if !ok {
		return nil, "", ast.Pos{}, false
	}
	refs := make([]ast.TypeRef, len(params))
	for i, prm := range params {
		refs[i] = prm.Ref
	}
	fn := &ast.FuncRef{Position: pos, Return: ret, Params: refs, Variadic: variadic}
	return &ast.PointerRef{Position: pos, Base: fn}, name, namePos, true
}

// parseArraySuffixes parses a run of `[n]` or `[]` suffixes. The
// first dimension is the outermost: `a[2][3]` is two elements of
// type int[3].
func (p *Parser) parseArraySuffixes(base ast.TypeRef) ast.TypeRef {
	type dim struct {
		pos    ast.Pos
		length int64
	}
	var dims []dim
	for p.curTokenIs(lexer.TokenLBracket) {
		pos := p.pos()
		p.nextToken() // consume '['
		length := int64(-1)
		if !p.curTokenIs(lexer.TokenRBracket) {
			if !p.curTokenIs(lexer.TokenInt) {
				p.addError("array length must be an integer constant")
				return nil
			}
			length = p.curToken.IntValue
			p.nextToken()
		}
		if !p.expect(lexer.TokenRBracket) {
			return nil
		}
		dims = append(dims, dim{pos, length})
	}
	ref := base
	for i := len(dims) - 1; i >= 0; i-- {
		ref = &ast.ArrayRef{Position: dims[i].pos, Base: ref, Length: dims[i].length}
	}
	return ref
}
