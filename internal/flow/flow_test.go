package flow

import (
	"testing"

	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32() *ir.NbrNode { return &ir.NbrNode{Header: ir.Header{NodeTag: ir.UintNbrTag}, Name: "u32", Bits: 32} }

func movableStruct(name string) *ir.StructNode {
	return &ir.StructNode{DeclHeader: ir.DeclHeader{Header: ir.Header{NodeTag: ir.StructTag, NodeFlags: ir.MoveFlag}, Name: name}}
}

func nameUse(decl ir.Decl) *ir.NameUseNode {
	return &ir.NameUseNode{ExprHeader: ir.ExprHeader{Header: ir.Header{NodeTag: ir.VarNameUseTag}}, Decl: decl}
}

func newAnalyzer() *Analyzer {
	return New(logger.NewDeferLog(), nil)
}

func TestUseBeforeInitReportsError(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32()}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, nameUse(vd)}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestInitializedVarCanBeUsed(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Value: &ir.UintLit{Value: 1}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, nameUse(vd)}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestUseAfterMoveReportsError(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: movableStruct("Box")}
	first := nameUse(vd)
	second := nameUse(vd)
	call := &ir.FnCallExpr{Callee: nameUse(&ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "consume"}}), Args: []ir.Node{first}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, call, second}}
	vd.Value = &ir.UintLit{Value: 0}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestCopySemanticValueIsNotMoved(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Value: &ir.UintLit{Value: 1}}
	first := nameUse(vd)
	second := nameUse(vd)
	call := &ir.FnCallExpr{Callee: nameUse(&ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "consume"}}), Args: []ir.Node{first}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, call, second}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
	assert.False(t, vd.Moved)
}

func TestAssignToImmutableInitializedVarReportsError(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Value: &ir.UintLit{Value: 1}, Perm: ir.ImmPerm}
	assign := &ir.AssignExpr{Lval: nameUse(vd), Rval: &ir.UintLit{Value: 2}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, assign}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestAssignToMutableVarIsFine(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Value: &ir.UintLit{Value: 1}, Perm: ir.MutPerm}
	assign := &ir.AssignExpr{Lval: nameUse(vd), Rval: &ir.UintLit{Value: 2}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, assign}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestAssignToUninitializedVarIsFirstWriteEvenUnderImmutablePerm(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Perm: ir.ImmPerm}
	assign := &ir.AssignExpr{Lval: nameUse(vd), Rval: &ir.UintLit{Value: 2}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, assign}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
	assert.True(t, vd.Initialized)
}

func TestAssignToPlaceholderSkipsFlowTracking(t *testing.T) {
	placeholder := &ir.NameUseNode{ExprHeader: ir.ExprHeader{Header: ir.Header{NodeTag: ir.VarNameUseTag}}, Text: "_"}
	assign := &ir.AssignExpr{Lval: placeholder, Rval: &ir.UintLit{Value: 1}}
	block := &ir.BlockExpr{Stmts: []ir.Node{assign}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestDealiasForSkipsReturnedVariableButIncludesOthers(t *testing.T) {
	kept := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "kept"}, VType: movableStruct("Box"), Value: &ir.UintLit{Value: 0}}
	returned := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "returned"}, VType: movableStruct("Box"), Value: &ir.UintLit{Value: 0}}
	ret := &ir.ReturnExpr{Value: nameUse(returned)}
	block := &ir.BlockExpr{Stmts: []ir.Node{kept, returned, ret}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	require.Len(t, ret.Dealias, 1)
	assert.Same(t, ir.Node(kept), ret.Dealias[0])
}

func TestEmitDealiasTraceOffDiscardsResult(t *testing.T) {
	kept := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "kept"}, VType: movableStruct("Box"), Value: &ir.UintLit{Value: 0}}
	ret := &ir.ReturnExpr{Value: &ir.UintLit{Value: 0}}
	block := &ir.BlockExpr{Stmts: []ir.Node{kept, ret}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.EmitDealiasTrace = false
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.Nil(t, ret.Dealias)
}

func TestCheckBorrowStoredIntoRejectsShortLivedBorrow(t *testing.T) {
	inner := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "target"}, VType: u32(), Value: &ir.UintLit{Value: 1}}
	outer := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "dest"}, VType: ir.NewRef(ir.PlainRef, ir.RefTag)}

	borrow := &ir.BorrowExpr{Target: nameUse(inner)}
	assign := &ir.AssignExpr{Lval: nameUse(outer), Rval: borrow}

	innerBlock := &ir.BlockExpr{Stmts: []ir.Node{inner, assign}}
	outerBlock := &ir.BlockExpr{Stmts: []ir.Node{outer, innerBlock}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: outerBlock}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestCheckBorrowStoredIntoAcceptsSameScopeBorrow(t *testing.T) {
	inner := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "target"}, VType: u32(), Value: &ir.UintLit{Value: 1}}
	outer := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "dest"}, VType: ir.NewRef(ir.PlainRef, ir.RefTag)}

	borrow := &ir.BorrowExpr{Target: nameUse(inner)}
	assign := &ir.AssignExpr{Lval: nameUse(outer), Rval: borrow}

	block := &ir.BlockExpr{Stmts: []ir.Node{inner, outer, assign}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestContinueRecordsDealiasForInitializedLocals(t *testing.T) {
	kept := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "kept"}, VType: movableStruct("Box"), Value: &ir.UintLit{Value: 0}}
	cont := &ir.ContinueExpr{}
	body := &ir.BlockExpr{Stmts: []ir.Node{kept, cont}}
	loop := &ir.LoopExpr{Body: body}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: &ir.BlockExpr{Stmts: []ir.Node{loop}}}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	require.Len(t, cont.Dealias, 1)
	assert.Same(t, ir.Node(kept), cont.Dealias[0])
	assert.False(t, a.Log.HasErrors())
}

func TestBreakOutsideLoopReportsError(t *testing.T) {
	brk := &ir.BreakExpr{}
	block := &ir.BlockExpr{Stmts: []ir.Node{brk}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: block}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestUnlabeledContinueTargetsInnermostLoop(t *testing.T) {
	cont := &ir.ContinueExpr{}
	innerBody := &ir.BlockExpr{Stmts: []ir.Node{cont}}
	inner := &ir.LoopExpr{Body: innerBody}
	outerBody := &ir.BlockExpr{Stmts: []ir.Node{inner}}
	outer := &ir.LoopExpr{Life: "outer", Body: outerBody}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: &ir.BlockExpr{Stmts: []ir.Node{outer}}}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestLabeledBreakTargetsMatchingOuterLoop(t *testing.T) {
	brk := &ir.BreakExpr{LoopJump: ir.LoopJump{Life: "outer"}}
	innerBody := &ir.BlockExpr{Stmts: []ir.Node{brk}}
	inner := &ir.LoopExpr{Body: innerBody}
	outerBody := &ir.BlockExpr{Stmts: []ir.Node{inner}}
	outer := &ir.LoopExpr{Life: "outer", Body: outerBody}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: &ir.BlockExpr{Stmts: []ir.Node{outer}}}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.False(t, a.Log.HasErrors())
}

func TestLabeledBreakWithNoMatchingLoopReportsError(t *testing.T) {
	brk := &ir.BreakExpr{LoopJump: ir.LoopJump{Life: "missing"}}
	body := &ir.BlockExpr{Stmts: []ir.Node{brk}}
	loop := &ir.LoopExpr{Life: "outer", Body: body}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "f"}, Body: &ir.BlockExpr{Stmts: []ir.Node{loop}}}

	a := newAnalyzer()
	a.AnalyzeProgram(&ir.ProgramNode{Modules: []*ir.ModuleNode{{Decls: []ir.Decl{fn}}}})

	assert.True(t, a.Log.HasErrors())
}

func TestFindLoopPhiJoinsBreakValueTypes(t *testing.T) {
	want := u32()
	b1 := &ir.BreakExpr{Value: &ir.UintLit{ExprHeader: ir.ExprHeader{VType: want}}}
	b2 := &ir.BreakExpr{Value: &ir.UintLit{ExprHeader: ir.ExprHeader{VType: u32()}}}

	result := FindLoopPhi([]*ir.BreakExpr{b1, b2})
	assert.Same(t, ir.Node(want), result)
}

func TestFindLoopPhiNoBreaksReturnsVoid(t *testing.T) {
	result := FindLoopPhi(nil)
	assert.Same(t, ir.Void, result)
}
