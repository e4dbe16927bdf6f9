// Package pipeline orchestrates the four passes — name resolution, type
// checking, vtable/trait matching (invoked lazily from type checking),
// and flow analysis — over one parsed program, sharing a single Context
// across all of them.
package pipeline

import (
	"github.com/dccarter/cone/internal/config"
	"github.com/dccarter/cone/internal/flow"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/dccarter/cone/internal/names"
	"github.com/dccarter/cone/internal/resolve"
	"github.com/dccarter/cone/internal/typecheck"
)

// Context bundles every piece of process-wide mutable state one
// compilation needs, threaded explicitly through each pass rather than
// kept in package globals.
type Context struct {
	Arena     *ir.Arena
	Table     *names.Table
	TypeTable *ir.TypeTable
	Log       logger.Log
	Options   config.Options
}

// NewContext returns a freshly initialized, empty Context.
func NewContext(opts config.Options, log logger.Log) *Context {
	return &Context{
		Arena:     ir.NewArena(),
		Table:     names.New(),
		TypeTable: ir.NewTypeTable(),
		Log:       log,
		Options:   opts,
	}
}

// Result reports how far Compile got and how many errors each pass
// produced, for callers (tests, the CLI) that want per-stage detail
// rather than just a pass/fail bit.
type Result struct {
	ResolveErrors   int
	TypeCheckErrors int
	FlowErrors      int
	VerifyErrors    int
}

// Ok reports whether every stage that ran produced zero errors.
func (r Result) Ok() bool {
	return r.ResolveErrors == 0 && r.TypeCheckErrors == 0 && r.FlowErrors == 0 && r.VerifyErrors == 0
}

// Compile runs name resolution, type checking, and flow analysis over
// prog in order, short-circuiting after any stage that produced errors:
// a program with unresolved names can't be meaningfully type-checked,
// and a program with type errors can't be meaningfully flow-analyzed.
func Compile(ctx *Context, prog *ir.ProgramNode, source *logger.Source) Result {
	var result Result

	before := ctx.Log.ErrorCount()
	resolve.New(ctx.Table, ctx.Log, source).ResolveProgram(prog)
	result.ResolveErrors = ctx.Log.ErrorCount() - before
	if result.ResolveErrors > 0 {
		return result
	}

	before = ctx.Log.ErrorCount()
	checker := typecheck.New(ctx.Log, source, ctx.TypeTable)
	checker.EmitVtables = ctx.Options.EmitVtables
	checker.CheckProgram(prog)
	result.TypeCheckErrors = ctx.Log.ErrorCount() - before
	if result.TypeCheckErrors > 0 {
		return result
	}

	before = ctx.Log.ErrorCount()
	analyzer := flow.New(ctx.Log, source)
	analyzer.EmitDealiasTrace = ctx.Options.EmitDealiasTrace
	analyzer.AnalyzeProgram(prog)
	result.FlowErrors = ctx.Log.ErrorCount() - before
	if result.FlowErrors > 0 {
		return result
	}

	result.VerifyErrors = verifyProgram(ctx.Log, source, prog, ctx.Options.EmitVtables)

	return result
}
