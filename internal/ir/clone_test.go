package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneSubstitutesGenericParam(t *testing.T) {
	gp := &GenericParamDcl{DeclHeader: DeclHeader{Name: "T"}}
	concrete := u32()
	cs := &CloneSubst{Subst: map[*GenericParamDcl]Node{gp: concrete}}

	use := &NameUseNode{
		ExprHeader: ExprHeader{Header: Header{NodeTag: VarNameUseTag}},
		Text:       "x",
		Decl:       gp,
	}
	cloned := Clone(cs, use)

	n, ok := cloned.(*NbrNode)
	assert.True(t, ok)
	assert.Same(t, concrete, n)
	assert.Same(t, gp, use.Decl, "original node must be untouched")
}

func TestCloneIsDeepNotShallow(t *testing.T) {
	vd := &VarDcl{DeclHeader: DeclHeader{Name: "x"}, VType: u32()}
	block := &BlockExpr{Stmts: []Node{vd}}
	cs := &CloneSubst{Subst: map[*GenericParamDcl]Node{}}

	cloned := Clone(cs, block).(*BlockExpr)
	clonedVd := cloned.Stmts[0].(*VarDcl)
	clonedVd.Name = "renamed"

	assert.Equal(t, "x", vd.DeclName(), "mutating the clone must not affect the original")
}

func TestCloneResetsFlowState(t *testing.T) {
	vd := &VarDcl{DeclHeader: DeclHeader{Name: "x"}, VType: u32(), Initialized: true, Moved: true}
	cs := &CloneSubst{Subst: map[*GenericParamDcl]Node{}}

	cloned := Clone(cs, vd).(*VarDcl)
	assert.False(t, cloned.Initialized)
	assert.False(t, cloned.Moved)
}

func TestClonePanicsOnModuleLevelNodes(t *testing.T) {
	cs := &CloneSubst{Subst: map[*GenericParamDcl]Node{}}
	assert.Panics(t, func() {
		Clone(cs, &ModuleNode{})
	})
}
