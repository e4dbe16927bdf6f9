package pipeline

import (
	"testing"

	"github.com/dccarter/cone/internal/config"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32() *ir.NbrNode { return &ir.NbrNode{Header: ir.Header{NodeTag: ir.UintNbrTag}, Name: "u32", Bits: 32} }

func nameUse(text string) *ir.NameUseNode {
	return &ir.NameUseNode{ExprHeader: ir.ExprHeader{Header: ir.Header{NodeTag: ir.NameUseTag}}, Text: text}
}

func newTestContext() (*Context, logger.Log) {
	log := logger.NewDeferLog()
	return NewContext(config.Default(), log), log
}

func TestCompileCleanProgramRunsAllThreeStages(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32(), Value: &ir.UintLit{ExprHeader: ir.ExprHeader{VType: u32()}, Value: 1}}
	use := nameUse("x")
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, use}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "main"}, Body: block}
	prog := &ir.ProgramNode{Modules: []*ir.ModuleNode{
		{DeclHeader: ir.DeclHeader{Name: "m"}, Decls: []ir.Decl{fn}},
	}}

	ctx, _ := newTestContext()
	result := Compile(ctx, prog, nil)

	assert.True(t, result.Ok())
	assert.Equal(t, 0, result.ResolveErrors)
	assert.Equal(t, 0, result.TypeCheckErrors)
	assert.Equal(t, 0, result.FlowErrors)
}

func TestCompileStopsAfterResolveErrors(t *testing.T) {
	use := nameUse("undefined")
	block := &ir.BlockExpr{Stmts: []ir.Node{use}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "main"}, Body: block}
	prog := &ir.ProgramNode{Modules: []*ir.ModuleNode{
		{DeclHeader: ir.DeclHeader{Name: "m"}, Decls: []ir.Decl{fn}},
	}}

	ctx, _ := newTestContext()
	result := Compile(ctx, prog, nil)

	require.Greater(t, result.ResolveErrors, 0)
	assert.Equal(t, 0, result.TypeCheckErrors, "typecheck never runs once resolve fails")
	assert.Equal(t, 0, result.FlowErrors, "flow never runs once resolve fails")
	assert.False(t, result.Ok())
}

func TestCompileStopsAfterTypeCheckErrors(t *testing.T) {
	box := &ir.StructNode{DeclHeader: ir.DeclHeader{Header: ir.Header{NodeTag: ir.StructTag}, Name: "Box"}}
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: box, Value: &ir.UintLit{ExprHeader: ir.ExprHeader{VType: u32()}, Value: 1}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "main"}, Body: block}
	prog := &ir.ProgramNode{Modules: []*ir.ModuleNode{
		{DeclHeader: ir.DeclHeader{Name: "m"}, Decls: []ir.Decl{fn}},
	}}

	ctx, _ := newTestContext()
	result := Compile(ctx, prog, nil)

	assert.Equal(t, 0, result.ResolveErrors)
	require.Greater(t, result.TypeCheckErrors, 0)
	assert.Equal(t, 0, result.FlowErrors, "flow never runs once typecheck fails")
	assert.False(t, result.Ok())
}

func TestCompileThreadsEmitVtablesOptionIntoChecker(t *testing.T) {
	trait := &ir.StructNode{
		DeclHeader: ir.DeclHeader{Header: ir.Header{NodeTag: ir.StructTag, NodeFlags: ir.TraitTypeFlag}, Name: "Shape"},
		Methods: []*ir.FnDcl{{
			DeclHeader: ir.DeclHeader{Name: "area"},
			Params:     []*ir.ParamDcl{{VarDcl: ir.VarDcl{VType: nil}}},
			Returns:    u32(),
		}},
	}
	box := &ir.StructNode{
		DeclHeader: ir.DeclHeader{Header: ir.Header{NodeTag: ir.StructTag}, Name: "Box"},
		Methods: []*ir.FnDcl{{
			DeclHeader: ir.DeclHeader{Name: "area"},
			Params:     []*ir.ParamDcl{{VarDcl: ir.VarDcl{VType: nil}}},
			Returns:    u32(),
		}},
	}
	toRef := ir.NewRef(ir.VirtualRef, ir.VirtRefTag)
	toRef.VTExp = trait
	fromRef := ir.NewRef(ir.PlainRef, ir.RefTag)
	fromRef.VTExp = box

	src := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "b"}, VType: fromRef, Initialized: true,
		Value: &ir.UintLit{ExprHeader: ir.ExprHeader{VType: u32()}, Value: 0}}
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "shape"}, VType: toRef,
		Value: &ir.NameUseNode{ExprHeader: ir.ExprHeader{Header: ir.Header{NodeTag: ir.VarNameUseTag}, VType: fromRef}, Decl: src}}
	block := &ir.BlockExpr{Stmts: []ir.Node{vd}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "main"}, Body: block}
	prog := &ir.ProgramNode{Modules: []*ir.ModuleNode{
		{DeclHeader: ir.DeclHeader{Name: "m"}, Decls: []ir.Decl{fn}},
	}}

	opts := config.Default()
	opts.EmitVtables = false
	log := logger.NewDeferLog()
	ctx := NewContext(opts, log)
	result := Compile(ctx, prog, nil)

	assert.True(t, result.Ok())
	assert.Nil(t, toRef.Vtable, "EmitVtables=false must suppress the attach step through the whole pipeline")
}

func TestResultOkRequiresEveryStageClean(t *testing.T) {
	assert.True(t, Result{}.Ok())
	assert.False(t, Result{ResolveErrors: 1}.Ok())
	assert.False(t, Result{TypeCheckErrors: 1}.Ok())
	assert.False(t, Result{FlowErrors: 1}.Ok())
	assert.False(t, Result{VerifyErrors: 1}.Ok())
}

func TestCompileSkipsVerifyAfterFlowErrors(t *testing.T) {
	vd := &ir.VarDcl{DeclHeader: ir.DeclHeader{Name: "x"}, VType: u32()}
	use := nameUse("x")
	block := &ir.BlockExpr{Stmts: []ir.Node{vd, use}}
	fn := &ir.FnDcl{DeclHeader: ir.DeclHeader{Name: "main"}, Body: block}
	prog := &ir.ProgramNode{Modules: []*ir.ModuleNode{
		{DeclHeader: ir.DeclHeader{Name: "m"}, Decls: []ir.Decl{fn}},
	}}

	ctx, _ := newTestContext()
	result := Compile(ctx, prog, nil)

	require.Greater(t, result.FlowErrors, 0, "x is used before being initialized")
	assert.Equal(t, 0, result.VerifyErrors, "verify never runs once flow fails")
	assert.False(t, result.Ok())
}

func TestNewContextInitializesFreshState(t *testing.T) {
	ctx, _ := newTestContext()
	assert.NotNil(t, ctx.Arena)
	assert.NotNil(t, ctx.Table)
	assert.NotNil(t, ctx.TypeTable)
	assert.Equal(t, config.PtrSize64, ctx.Options.PtrSize)
}
