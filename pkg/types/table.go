package types

import "fmt"

// RefKind tags the namespace a type name lives in. Plain covers the
// primitive names and typedef aliases; struct and union tags have
// their own namespaces, as in C.
type RefKind int

const (
	RefPlain RefKind = iota
	RefStruct
	RefUnion
)

func (k RefKind) String() string {
	switch k {
	case RefStruct:
		return "struct"
	case RefUnion:
		return "union"
	}
	return ""
}

type typeKey struct {
	kind RefKind
	name string
}

func (k typeKey) String() string {
	if k.kind == RefPlain {
		return k.name
	}
	return k.kind.String() + " " + k.name
}

// TypeTable interns every named type referenced by a compilation
// unit. Layouts of struct and union types are computed once, on
// first size or offset query, and cached on the type.
type TypeTable struct {
	table map[typeKey]Type
	order []typeKey
}

// NewTypeTable returns a table preloaded with the primitive types of
// the ILP32 target.
func NewTypeTable() *TypeTable {
	tt := &TypeTable{table: make(map[typeKey]Type)}
	for _, t := range []Type{
		Void(), Char(), UChar(), Short(), UShort(),
		Int(), UInt(), Long(), ULong(),
	} {
		tt.put(typeKey{RefPlain, t.String()}, t)
	}
	return tt
}

func (tt *TypeTable) put(k typeKey, t Type) {
	if _, dup := tt.table[k]; !dup {
		tt.order = append(tt.order, k)
	}
	tt.table[k] = t
}

// Get returns the type registered under the given kind and name
func (tt *TypeTable) Get(kind RefKind, name string) (Type, bool) {
	t, ok := tt.table[typeKey{kind, name}]
	return t, ok
}

// Define registers a named type. Redefinition is an error.
func (tt *TypeTable) Define(kind RefKind, name string, t Type) error {
	k := typeKey{kind, name}
	if _, dup := tt.table[k]; dup {
		return fmt.Errorf("duplicate type definition: %s", k)
	}
	tt.put(k, t)
	return nil
}

// IsDefined reports whether a name is registered under the kind
func (tt *TypeTable) IsDefined(kind RefKind, name string) bool {
	_, ok := tt.table[typeKey{kind, name}]
	return ok
}

// Types returns all registered types in definition order
func (tt *TypeTable) Types() []Type {
	out := make([]Type, 0, len(tt.order))
	for _, k := range tt.order {
		out = append(out, tt.table[k])
	}
	return out
}

// SemanticCheck validates every struct and union in the table:
// no type may contain a value of itself, directly or transitively,
// and member names must be unique within one definition. Returned
// messages are prefixed with the type's declaration location.
func (tt *TypeTable) SemanticCheck() []string {
	var errs []string
	// Definition order keeps diagnostics stable
	for _, k := range tt.order {
		t := tt.table[k]
		switch ct := t.(type) {
		case *StructType:
			errs = append(errs, checkDuplicateMembers(ct.Loc, ct.String(), ct.Members)...)
			if containsSelf(t, make(map[Type]bool)) {
				errs = append(errs, fmt.Sprintf("%s: error: recursive definition of %s", ct.Loc, ct.String()))
			}
		case *UnionType:
			errs = append(errs, checkDuplicateMembers(ct.Loc, ct.String(), ct.Members)...)
			if containsSelf(t, make(map[Type]bool)) {
				errs = append(errs, fmt.Sprintf("%s: error: recursive definition of %s", ct.Loc, ct.String()))
			}
		}
	}
	return errs
}

func checkDuplicateMembers(loc, name string, members []Member) []string {
	var errs []string
	seen := make(map[string]bool)
	for _, m := range members {
		if seen[m.Name] {
			errs = append(errs, fmt.Sprintf("%s: error: duplicate member %s in %s", loc, m.Name, name))
		}
		seen[m.Name] = true
	}
	return errs
}

// containsSelf walks member types by value. Pointers break the
// recursion: a struct may contain a pointer to itself.
func containsSelf(t Type, visiting map[Type]bool) bool {
	t = Real(t)
	var members []Member
	switch ct := t.(type) {
	case *StructType:
		members = ct.Members
	case *UnionType:
		members = ct.Members
	case *ArrayType:
		return containsSelf(ct.Base, visiting)
	default:
		return false
	}
	if visiting[t] {
		return true
	}
	visiting[t] = true
	defer delete(visiting, t)
	for _, m := range members {
		if containsSelf(m.Type, visiting) {
			return true
		}
	}
	return false
}
