package types

import "testing"

func TestPrimitiveSizes(t *testing.T) {
	tests := []struct {
		typ   Type
		size  int
		align int
	}{
		{Char(), 1, 1},
		{UChar(), 1, 1},
		{Short(), 2, 2},
		{Int(), 4, 4},
		{Long(), 4, 4},
		{ULong(), 4, 4},
		{Pointer(Char()), 4, 4},
		{Array(Int(), 3), 12, 4},
		{Array(Char(), 5), 5, 1},
	}
	for _, tc := range tests {
		if got := tc.typ.Size(); got != tc.size {
			t.Errorf("%s: expected size %d, got %d", tc.typ, tc.size, got)
		}
		if got := tc.typ.Alignment(); got != tc.align {
			t.Errorf("%s: expected alignment %d, got %d", tc.typ, tc.align, got)
		}
	}
}

func TestStructLayout(t *testing.T) {
	st := &StructType{
		Name: "mixed",
		Members: []Member{
			{Name: "c", Type: Char()},
			{Name: "i", Type: Int()},
			{Name: "s", Type: Short()},
		},
	}
	st.ComputeLayout()
	if st.Members[0].Offset != 0 {
		t.Errorf("c: expected offset 0, got %d", st.Members[0].Offset)
	}
	if st.Members[1].Offset != 4 {
		t.Errorf("i: expected offset 4, got %d", st.Members[1].Offset)
	}
	if st.Members[2].Offset != 8 {
		t.Errorf("s: expected offset 8, got %d", st.Members[2].Offset)
	}
	if st.Size() != 12 {
		t.Errorf("expected padded size 12, got %d", st.Size())
	}
	if st.Alignment() != 4 {
		t.Errorf("expected alignment 4, got %d", st.Alignment())
	}
}

func TestStructLayoutDeterminism(t *testing.T) {
	build := func() *StructType {
		return &StructType{
			Name: "p",
			Members: []Member{
				{Name: "x", Type: Char()},
				{Name: "y", Type: Int()},
			},
		}
	}
	a, b := build(), build()
	a.ComputeLayout()
	a.ComputeLayout() // cached second computation must not drift
	b.ComputeLayout()
	for i := range a.Members {
		if a.Members[i].Offset != b.Members[i].Offset {
			t.Errorf("member %d: offsets differ: %d vs %d", i, a.Members[i].Offset, b.Members[i].Offset)
		}
	}
	if a.Size() != b.Size() || a.Alignment() != b.Alignment() {
		t.Error("size or alignment differs between identical layouts")
	}
}

func TestUnionLayout(t *testing.T) {
	ut := &UnionType{
		Name: "u",
		Members: []Member{
			{Name: "c", Type: Char()},
			{Name: "i", Type: Int()},
			{Name: "a", Type: Array(Char(), 7)},
		},
	}
	ut.ComputeLayout()
	for i := range ut.Members {
		if ut.Members[i].Offset != 0 {
			t.Errorf("member %d: expected offset 0, got %d", i, ut.Members[i].Offset)
		}
	}
	if ut.Size() != 8 {
		t.Errorf("expected size 8 (7 padded to alignment 4), got %d", ut.Size())
	}
}

func TestTypeEqual(t *testing.T) {
	if !Equal(Int(), Int()) {
		t.Error("int == int")
	}
	if Equal(Int(), UInt()) {
		t.Error("int != unsigned int")
	}
	if !Equal(Pointer(Char()), Pointer(Char())) {
		t.Error("char* == char*")
	}
	if Equal(Pointer(Char()), Pointer(Int())) {
		t.Error("char* != int*")
	}
	if !Equal(&StructType{Name: "p"}, &StructType{Name: "p"}) {
		t.Error("struct p == struct p (nominal)")
	}
	if Equal(&StructType{Name: "p"}, &UnionType{Name: "p"}) {
		t.Error("struct p != union p")
	}
	alias := &UserType{Name: "myint", Real: Int()}
	if !Equal(alias, Int()) {
		t.Error("typedef alias compares equal to its underlying type")
	}
}

func TestTableSemanticCheckRecursion(t *testing.T) {
	tt := NewTypeTable()
	self := &StructType{Name: "node", Loc: "t.cb:1:1"}
	self.Members = []Member{
		{Name: "value", Type: Int()},
		{Name: "next", Type: self}, // direct containment
	}
	if err := tt.Define(RefStruct, "node", self); err != nil {
		t.Fatal(err)
	}
	errs := tt.SemanticCheck()
	if len(errs) != 1 {
		t.Fatalf("expected one recursive definition error, got %v", errs)
	}
}

func TestTableSemanticCheckPointerBreaksRecursion(t *testing.T) {
	tt := NewTypeTable()
	self := &StructType{Name: "node", Loc: "t.cb:1:1"}
	self.Members = []Member{
		{Name: "value", Type: Int()},
		{Name: "next", Type: Pointer(self)},
	}
	if err := tt.Define(RefStruct, "node", self); err != nil {
		t.Fatal(err)
	}
	if errs := tt.SemanticCheck(); len(errs) != 0 {
		t.Fatalf("self-pointer must be legal, got %v", errs)
	}
}

func TestTableSemanticCheckMutualRecursion(t *testing.T) {
	tt := NewTypeTable()
	a := &StructType{Name: "a", Loc: "t.cb:1:1"}
	b := &StructType{Name: "b", Loc: "t.cb:2:1"}
	a.Members = []Member{{Name: "b", Type: b}}
	b.Members = []Member{{Name: "a", Type: a}}
	tt.Define(RefStruct, "a", a)
	tt.Define(RefStruct, "b", b)
	if errs := tt.SemanticCheck(); len(errs) != 2 {
		t.Fatalf("expected both structs flagged, got %v", errs)
	}
}

func TestTableSemanticCheckDuplicateMembers(t *testing.T) {
	tt := NewTypeTable()
	st := &StructType{Name: "p", Loc: "t.cb:1:1"}
	st.Members = []Member{
		{Name: "x", Type: Int()},
		{Name: "x", Type: Int()},
	}
	tt.Define(RefStruct, "p", st)
	if errs := tt.SemanticCheck(); len(errs) != 1 {
		t.Fatalf("expected duplicate member error, got %v", errs)
	}
}

func TestTableDefine(t *testing.T) {
	tt := NewTypeTable()
	if !tt.IsDefined(RefPlain, "int") {
		t.Error("int must be predefined")
	}
	st := &StructType{Name: "p"}
	if err := tt.Define(RefStruct, "p", st); err != nil {
		t.Fatal(err)
	}
	if err := tt.Define(RefStruct, "p", st); err == nil {
		t.Error("redefinition must fail")
	}
	// struct and plain namespaces are distinct
	if err := tt.Define(RefPlain, "p", Int()); err != nil {
		t.Errorf("plain p must not clash with struct p: %v", err)
	}
}
