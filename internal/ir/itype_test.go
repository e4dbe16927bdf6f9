package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func u32() *NbrNode { return &NbrNode{Header: Header{NodeTag: UintNbrTag}, Name: "u32", Bits: 32} }
func i32() *NbrNode { return &NbrNode{Header: Header{NodeTag: IntNbrTag}, Name: "i32", Bits: 32} }

func TestIsSameNumeric(t *testing.T) {
	assert.True(t, IsSame(u32(), u32()))
	assert.False(t, IsSame(u32(), i32()))
}

func TestIsSameRef(t *testing.T) {
	a := NewRef(PlainRef, RefTag)
	a.VTExp = u32()
	b := NewRef(PlainRef, RefTag)
	b.VTExp = u32()
	assert.True(t, IsSame(a, b))

	c := NewRef(PlainRef, RefTag)
	c.Perm = MutPerm
	c.VTExp = u32()
	assert.False(t, IsSame(a, c))
}

func TestIsRunSameIgnoresPermission(t *testing.T) {
	a := NewRef(PlainRef, RefTag)
	a.Perm = ConstPerm
	a.VTExp = u32()
	b := NewRef(PlainRef, RefTag)
	b.Perm = MutPerm
	b.VTExp = u32()
	assert.False(t, IsSame(a, b))
	assert.True(t, IsRunSame(a, b))
}

func TestTypeDclFollowsTypedefAndNameUse(t *testing.T) {
	under := u32()
	td := &TypedefNode{DeclHeader: DeclHeader{Name: "MyInt"}, TypeVal: under}
	assert.Same(t, under, TypeDcl(td))

	use := &NameUseNode{ExprHeader: ExprHeader{Header: Header{NodeTag: TypeNameUseTag}}, Decl: td}
	assert.Same(t, under, TypeDcl(use))
}

func TestHashConsistentWithIsRunSame(t *testing.T) {
	a := NewRef(PlainRef, RefTag)
	a.Perm = ConstPerm
	a.VTExp = u32()
	b := NewRef(PlainRef, RefTag)
	b.Perm = MutPerm
	b.VTExp = u32()
	assert.True(t, IsRunSame(a, b))
	assert.Equal(t, Hash(a), Hash(b))
}

func TestIsMoveAndIsZeroSize(t *testing.T) {
	s := &StructNode{DeclHeader: DeclHeader{Header: Header{NodeTag: StructTag, NodeFlags: MoveFlag}, Name: "Buf"}}
	assert.True(t, IsMove(s))
	assert.False(t, IsZeroSize(s))

	zs := &StructNode{DeclHeader: DeclHeader{Header: Header{NodeTag: StructTag, NodeFlags: ZeroSizeFlag}, Name: "Unit"}}
	assert.True(t, IsZeroSize(zs))
}
