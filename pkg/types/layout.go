package types

// alignUp rounds n up to the next multiple of align
func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// ComputeLayout places the members of a struct in declaration order,
// aligning each to its type's alignment, and pads the total size up to
// the struct's own alignment. The result is cached; repeated calls
// return identical offsets.
func (t *StructType) ComputeLayout() {
	if t.laidOut {
		return
	}
	offset := 0
	maxAlign := 1
	for i := range t.Members {
		m := &t.Members[i]
		a := m.Type.Alignment()
		offset = alignUp(offset, a)
		m.Offset = offset
		offset += m.Type.Size()
		if a > maxAlign {
			maxAlign = a
		}
	}
	t.size = alignUp(offset, maxAlign)
	t.align = maxAlign
	t.laidOut = true
}

// Size returns the padded struct size
func (t *StructType) Size() int {
	t.ComputeLayout()
	return t.size
}

// Alignment returns the maximum member alignment
func (t *StructType) Alignment() int {
	t.ComputeLayout()
	return t.align
}

// Member returns the named member, or nil
func (t *StructType) Member(name string) *Member {
	t.ComputeLayout()
	for i := range t.Members {
		if t.Members[i].Name == name {
			return &t.Members[i]
		}
	}
	return nil
}

// ComputeLayout gives every union member offset 0; union size is the
// maximum member size padded to the maximum member alignment.
func (t *UnionType) ComputeLayout() {
	if t.laidOut {
		return
	}
	maxSize := 0
	maxAlign := 1
	for i := range t.Members {
		m := &t.Members[i]
		m.Offset = 0
		if s := m.Type.Size(); s > maxSize {
			maxSize = s
		}
		if a := m.Type.Alignment(); a > maxAlign {
			maxAlign = a
		}
	}
	t.size = alignUp(maxSize, maxAlign)
	t.align = maxAlign
	t.laidOut = true
}

// Size returns the padded union size
func (t *UnionType) Size() int {
	t.ComputeLayout()
	return t.size
}

// Alignment returns the maximum member alignment
func (t *UnionType) Alignment() int {
	t.ComputeLayout()
	return t.align
}

// Member returns the named member, or nil
func (t *UnionType) Member(name string) *Member {
	t.ComputeLayout()
	for i := range t.Members {
		if t.Members[i].Name == name {
			return &t.Members[i]
		}
	}
	return nil
}

// MemberOf looks up a member on a struct or union type
func MemberOf(t Type, name string) *Member {
	switch rt := Real(t).(type) {
	case *StructType:
		return rt.Member(name)
	case *UnionType:
		return rt.Member(name)
	}
	return nil
}
