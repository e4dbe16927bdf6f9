// Package flow walks a type-checked function body in evaluation order,
// tracking which variables are initialized, which have been moved from,
// and how long a borrowed reference may legally live. It is the last
// pass before a body is considered ready for a backend: everything it
// rejects would otherwise only surface as a use-after-move or
// use-before-init bug at runtime.
package flow

import (
	"fmt"

	"github.com/dccarter/cone/internal/diag"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/dccarter/cone/internal/subtype"
)

// Analyzer carries the shared error sink through one flow pass.
type Analyzer struct {
	Log    logger.Log
	Source *logger.Source
	scope  int
	locals []*ir.VarDcl // every local declared so far in the current function, in order
	loops  []loopTarget // enclosing LoopExpr frames, innermost last

	// EmitDealiasTrace controls whether dealiasFor's result is recorded
	// on control-transfer nodes. It's still computed either way (the
	// cost is the same); when false the result is simply discarded,
	// for callers with no backend to consume the trace.
	EmitDealiasTrace bool
}

func New(log logger.Log, source *logger.Source) *Analyzer {
	return &Analyzer{Log: log, Source: source, EmitDealiasTrace: true}
}

// loopTarget is one entry on the enclosing-loop stack: just the life label
// a break/continue needs to match against, if any.
type loopTarget struct {
	life string
}

// AnalyzeProgram runs flow analysis over every non-generic function body.
func (a *Analyzer) AnalyzeProgram(prog *ir.ProgramNode) {
	for _, mod := range prog.Modules {
		for _, d := range mod.Decls {
			a.analyzeDecl(d)
		}
	}
}

func (a *Analyzer) analyzeDecl(d ir.Decl) {
	switch n := d.(type) {
	case *ir.FnDcl:
		a.analyzeFn(n)
	case *ir.StructNode:
		for _, m := range n.Methods {
			a.analyzeFn(m)
		}
	}
}

func (a *Analyzer) analyzeFn(fn *ir.FnDcl) {
	if fn.GenericInfo != nil || fn.Body == nil {
		return
	}
	a.scope = 0
	a.locals = a.locals[:0]
	a.loops = a.loops[:0]
	for _, p := range fn.Params {
		p.Initialized = true
		p.Moved = false
		p.BorrowScope = a.scope
	}
	a.walk(fn.Body)
}

// walk dispatches on every expression kind that can observe or change a
// variable's initialized/moved state. Everything else recurses without
// touching flow state.
func (a *Analyzer) walk(node ir.Node) {
	switch n := node.(type) {
	case *ir.NameUseNode:
		a.use(n)
	case *ir.FieldUseExpr:
		a.walk(n.Recv)
	case *ir.DerefExpr:
		a.walk(n.Target)
	case *ir.ElementExpr:
		a.walk(n.Target)
		a.walk(n.Index)
	case *ir.AddrExpr:
		a.walk(n.Target)
	case *ir.AllocateExpr:
		a.walk(n.Value)
	case *ir.BorrowExpr:
		a.walk(n.Target)
		n.Scope = a.scope
	case *ir.AssignExpr:
		a.assign(n)
	case *ir.FnCallExpr:
		a.walk(n.Callee)
		for _, arg := range n.Args {
			a.loadArg(arg)
		}
	case *ir.BlockExpr:
		a.scope++
		n.Scope = a.scope
		for _, s := range n.Stmts {
			if vd, ok := s.(*ir.VarDcl); ok {
				a.declare(vd)
				continue
			}
			a.walk(s)
		}
		a.scope--
	case *ir.ReturnExpr:
		if n.Value != nil {
			a.walk(n.Value)
			n.Dealias = a.recordDealias(n.Value)
		}
	case *ir.LoopExpr:
		a.scope++
		n.Scope = a.scope
		a.loops = append(a.loops, loopTarget{life: n.Life})
		a.walk(n.Body)
		a.loops = a.loops[:len(a.loops)-1]
		a.scope--
	case *ir.BreakExpr:
		a.resolveLoopTarget(n.Life, n.Loc())
		if n.Value != nil {
			a.walk(n.Value)
			n.Dealias = a.recordDealias(n.Value)
		}
	case *ir.ContinueExpr:
		a.resolveLoopTarget(n.Life, n.Loc())
		n.Dealias = a.recordDealias(nil)
	case *ir.TupleExpr:
		for _, e := range n.Elements {
			a.walk(e)
		}
	case *ir.ArrayLitExpr:
		if n.Dim != nil {
			a.walk(n.Dim)
		}
		for _, e := range n.Elements {
			a.walk(e)
		}
	case *ir.ConvExpr:
		a.walk(n.Source)
	}
}

func (a *Analyzer) err(loc logger.Loc, kind diag.Kind, text string) {
	a.Log.AddError(a.Source, loc, fmt.Sprintf("%s: %s", kind, text))
}

// declare runs a new local's initializer (if any) and marks it
// initialized from this point in the block onward.
func (a *Analyzer) declare(vd *ir.VarDcl) {
	if vd.Value != nil {
		a.loadArg(vd.Value)
		vd.Initialized = true
	}
	vd.Moved = false
	vd.BorrowScope = a.scope
	a.locals = append(a.locals, vd)
}

// use reports a read of a variable that was never initialized or has
// already been moved from; every other read is flow-neutral.
func (a *Analyzer) use(n *ir.NameUseNode) {
	vd := asVarDcl(n.Decl)
	if vd == nil {
		return
	}
	if !vd.Initialized {
		a.err(n.Loc(), diag.NoMut, fmt.Sprintf("%s used before being initialized", vd.DeclName()))
		return
	}
	if vd.Moved {
		a.err(n.Loc(), diag.Move, fmt.Sprintf("%s used after being moved from", vd.DeclName()))
	}
}

// loadArg is a use that additionally performs the move: passing or
// assigning a move-semantic value consumes its source variable.
func (a *Analyzer) loadArg(expr ir.Node) {
	a.walk(expr)
	n, ok := expr.(*ir.NameUseNode)
	if !ok {
		return
	}
	vd := asVarDcl(n.Decl)
	if vd == nil {
		return
	}
	if ir.IsMove(vd.VType) {
		vd.Moved = true
	}
}

// assign enforces the write-side rule: the lval slot must either be
// uninitialized (first write) or carry MayWrite in its permission, and a
// placeholder `_` lval is always legal and performs no flow tracking at
// all. The value moved/copied into the slot is computed the same way a
// call argument is.
func (a *Analyzer) assign(n *ir.AssignExpr) {
	if isPlaceholder(n.Lval) {
		a.loadArg(n.Rval)
		return
	}

	vd := lvalVarDcl(n.Lval)
	if vd != nil {
		if vd.Initialized && !hasWritePermission(vd.Perm) {
			a.err(n.Loc(), diag.NoMut, fmt.Sprintf("%s is not mutable", vd.DeclName()))
		}
	} else {
		a.walk(n.Lval)
	}

	a.loadArg(n.Rval)
	n.Dealias = a.recordDealias(n.Rval)

	if vd != nil {
		if borrow, ok := n.Rval.(*ir.BorrowExpr); ok {
			a.checkBorrowStoredInto(borrow, vd)
		}
		vd.Initialized = true
		vd.Moved = false
	}
}

// checkBorrowStoredInto rejects storing a borrow into a variable that
// lives longer than the place being borrowed: dest was declared at
// dest.BorrowScope, and a borrow is only as long-lived as the scope its
// target was declared in — storing it somewhere that outlives that scope
// would leave a dangling reference once the target's scope closes.
func (a *Analyzer) checkBorrowStoredInto(borrow *ir.BorrowExpr, dest *ir.VarDcl) {
	target := lvalVarDcl(borrow.Target)
	if target == nil {
		return
	}
	if target.BorrowScope > dest.BorrowScope {
		a.err(borrow.Loc(), diag.BadPerm, fmt.Sprintf(
			"borrow of %s does not live long enough to be stored in %s", target.DeclName(), dest.DeclName()))
	}
}

// resolveLoopTarget validates that a break or continue's label (if any)
// names an enclosing loop: no label targets the innermost one, a label
// searches outward for the matching LoopExpr. Reports an error and
// resolves to nothing when neither applies.
func (a *Analyzer) resolveLoopTarget(life string, loc logger.Loc) {
	if life == "" {
		if len(a.loops) == 0 {
			a.err(loc, diag.BadTerm, "break or continue used outside of a loop")
		}
		return
	}
	for i := len(a.loops) - 1; i >= 0; i-- {
		if a.loops[i].life == life {
			return
		}
	}
	a.err(loc, diag.BadTerm, fmt.Sprintf("'%s targets no enclosing loop with that label", life))
}

// dealiasFor lists the variables whose ownership the flow analyzer has
// determined must be released at this control-transfer point: every local
// declared so far in the enclosing function that is still initialized,
// not already moved, and of move-semantic type. skip is the value
// expression being returned or broken with, if any — its own variable (if
// it names one directly) is excluded, since that one's ownership is
// transferred out rather than released. The backend (out of scope for
// this core) uses this list to emit releases; the core only has to
// compute it correctly once per control-transfer node.
// recordDealias computes dealiasFor but discards the result when
// EmitDealiasTrace is off, rather than attaching it to the node.
func (a *Analyzer) recordDealias(skip ir.Node) []ir.Node {
	list := a.dealiasFor(skip)
	if !a.EmitDealiasTrace {
		return nil
	}
	return list
}

func (a *Analyzer) dealiasFor(skip ir.Node) []ir.Node {
	skipDecl := asVarDcl(declOf(skip))
	var out []ir.Node
	for _, vd := range a.locals {
		if vd == skipDecl {
			continue
		}
		if vd.Initialized && !vd.Moved && ir.IsMove(vd.VType) {
			out = append(out, vd)
		}
	}
	return out
}

func declOf(n ir.Node) ir.Decl {
	if use, ok := n.(*ir.NameUseNode); ok {
		return use.Decl
	}
	return nil
}

func asVarDcl(d ir.Decl) *ir.VarDcl {
	switch v := d.(type) {
	case *ir.VarDcl:
		return v
	case *ir.ParamDcl:
		return &v.VarDcl
	default:
		return nil
	}
}

func lvalVarDcl(n ir.Node) *ir.VarDcl {
	use, ok := n.(*ir.NameUseNode)
	if !ok {
		return nil
	}
	return asVarDcl(use.Decl)
}

func isPlaceholder(n ir.Node) bool {
	use, ok := n.(*ir.NameUseNode)
	return ok && use.Text == "_"
}

func hasWritePermission(p *ir.PermNode) bool {
	return p != nil && p.Attrs&ir.MayWrite != 0
}

// FindLoopPhi folds every break value in a loop's direct body down to one
// common supertype via the subtype engine's join, the same way the type
// checker resolves a loop expression's overall value type.
func FindLoopPhi(breaks []*ir.BreakExpr) ir.Node {
	var result ir.Node
	for _, b := range breaks {
		if b.Value == nil {
			continue
		}
		t, ok := b.Value.(ir.Typed)
		if !ok || !t.HasValueType() {
			continue
		}
		if result == nil {
			result = t.ValueType()
			continue
		}
		super := subtype.FindSuper(result, t.ValueType())
		if super != nil {
			result = super
		}
	}
	if result == nil {
		return ir.Void
	}
	return result
}
