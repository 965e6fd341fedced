package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `int main(void) {
	int x;
	x = 10 + y->count;
	if (x <= 3 && x != 0) return x % 2;
	s.len += 1;
	bits <<= 2;
	return sizeof(x);
}`
	expected := []struct {
		typ     TokenType
		literal string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenVoid, "void"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenInt_, "int"},
		{TokenIdent, "x"},
		{TokenSemicolon, ";"},
		{TokenIdent, "x"},
		{TokenAssign, "="},
		{TokenInt, "10"},
		{TokenPlus, "+"},
		{TokenIdent, "y"},
		{TokenArrow, "->"},
		{TokenIdent, "count"},
		{TokenSemicolon, ";"},
		{TokenIf, "if"},
		{TokenLParen, "("},
		{TokenIdent, "x"},
		{TokenLe, "<="},
		{TokenInt, "3"},
		{TokenAnd, "&&"},
		{TokenIdent, "x"},
		{TokenNe, "!="},
		{TokenInt, "0"},
		{TokenRParen, ")"},
		{TokenReturn, "return"},
		{TokenIdent, "x"},
		{TokenPercent, "%"},
		{TokenInt, "2"},
		{TokenSemicolon, ";"},
		{TokenIdent, "s"},
		{TokenDot, "."},
		{TokenIdent, "len"},
		{TokenPlusAssign, "+="},
		{TokenInt, "1"},
		{TokenSemicolon, ";"},
		{TokenIdent, "bits"},
		{TokenShlAssign, "<<="},
		{TokenInt, "2"},
		{TokenSemicolon, ";"},
		{TokenReturn, "return"},
		{TokenSizeof, "sizeof"},
		{TokenLParen, "("},
		{TokenIdent, "x"},
		{TokenRParen, ")"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New("test.cb", input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: expected type %s, got %s (%q)", i, exp.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != exp.literal {
			t.Fatalf("token %d: expected literal %q, got %q", i, exp.literal, tok.Literal)
		}
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
}

func TestIntegerLiterals(t *testing.T) {
	tests := []struct {
		input    string
		value    int64
		unsigned bool
	}{
		{"42", 42, false},
		{"0", 0, false},
		{"0x2a", 42, false},
		{"0X2A", 42, false},
		{"052", 42, false},
		{"42U", 42, true},
		{"42L", 42, false},
		{"42UL", 42, true},
		{"2147483647", 2147483647, false},
	}
	for _, tc := range tests {
		l := New("test.cb", tc.input)
		tok := l.NextToken()
		if tok.Type != TokenInt {
			t.Errorf("%q: expected INT, got %s", tc.input, tok.Type)
			continue
		}
		if tok.IntValue != tc.value {
			t.Errorf("%q: expected value %d, got %d", tc.input, tc.value, tok.IntValue)
		}
		if tok.Unsigned != tc.unsigned {
			t.Errorf("%q: expected unsigned=%v", tc.input, tc.unsigned)
		}
	}
}

func TestIntegerOverflowWarns(t *testing.T) {
	l := New("test.cb", "4294967296")
	tok := l.NextToken()
	if tok.Type != TokenInt {
		t.Fatalf("expected INT, got %s", tok.Type)
	}
	if tok.IntValue != 0 {
		t.Errorf("expected wrapped value 0, got %d", tok.IntValue)
	}
	if len(l.Warnings()) == 0 {
		t.Error("expected an overflow warning")
	}
}

func TestCharLiterals(t *testing.T) {
	tests := []struct {
		input string
		value int64
	}{
		{`'a'`, 'a'},
		{`'\n'`, '\n'},
		{`'\t'`, '\t'},
		{`'\0'`, 0},
		{`'\\'`, '\\'},
		{`'\''`, '\''},
		{`'\x41'`, 'A'},
	}
	for _, tc := range tests {
		l := New("test.cb", tc.input)
		tok := l.NextToken()
		if tok.Type != TokenChar {
			t.Errorf("%s: expected CHAR, got %s", tc.input, tok.Type)
			continue
		}
		if tok.IntValue != tc.value {
			t.Errorf("%s: expected value %d, got %d", tc.input, tc.value, tok.IntValue)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	l := New("test.cb", `"hello\n" "a\tb" "\101"`)
	tests := []string{"hello\n", "a\tb", "A"}
	for _, want := range tests {
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Fatalf("expected STRING, got %s", tok.Type)
		}
		if tok.StrValue != want {
			t.Errorf("expected %q, got %q", want, tok.StrValue)
		}
	}
}

func TestComments(t *testing.T) {
	l := New("test.cb", "a // line comment\n/* block\ncomment */ b")
	if tok := l.NextToken(); tok.Literal != "a" {
		t.Fatalf("expected a, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Literal != "b" {
		t.Fatalf("expected b, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != TokenEOF {
		t.Fatalf("expected EOF, got %s", tok.Type)
	}
}

func TestUnterminatedInputs(t *testing.T) {
	for _, input := range []string{`"abc`, "/* never closed", "'a"} {
		l := New("test.cb", input)
		for {
			if tok := l.NextToken(); tok.Type == TokenEOF || tok.Type == TokenIllegal {
				break
			}
		}
		if len(l.Errors()) == 0 {
			t.Errorf("%q: expected a lexical error", input)
		}
	}
}

func TestUnknownCharacter(t *testing.T) {
	l := New("test.cb", "a $ b")
	for {
		if tok := l.NextToken(); tok.Type == TokenEOF {
			break
		}
	}
	if len(l.Errors()) == 0 {
		t.Error("expected an unknown character error")
	}
}

func TestPositions(t *testing.T) {
	l := New("main.cb", "int\n  x;")
	tok := l.NextToken()
	if tok.File != "main.cb" || tok.Line != 1 {
		t.Errorf("expected main.cb:1, got %s:%d", tok.File, tok.Line)
	}
	tok = l.NextToken()
	if tok.Line != 2 {
		t.Errorf("expected x on line 2, got %d", tok.Line)
	}
}
