package pipeline

import (
	"fmt"

	"github.com/dccarter/cone/internal/diag"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
)

// verifier re-walks a program that has already passed resolve, typecheck,
// and flow clean, checking the post-conditions a backend is entitled to
// assume without re-deriving them itself: every expression's value type
// resolved, every name-use bound to a declaration, every accepted
// struct->trait coercion carrying its attached vtable, and every recorded
// dealias entry naming an actual move-semantic variable rather than
// something that slipped in by mistake. A violation here means a prior
// pass has a bug, not that the input program is invalid, so it's reported
// as an internal error rather than attributed to any user-facing cause.
type verifier struct {
	log         logger.Log
	source      *logger.Source
	emitVtables bool
	failures    int
}

func verifyProgram(log logger.Log, source *logger.Source, prog *ir.ProgramNode, emitVtables bool) int {
	v := &verifier{log: log, source: source, emitVtables: emitVtables}
	for _, mod := range prog.Modules {
		for _, d := range mod.Decls {
			v.verifyDecl(d)
		}
	}
	return v.failures
}

func (v *verifier) verifyDecl(d ir.Decl) {
	switch n := d.(type) {
	case *ir.FnDcl:
		v.verifyFn(n)
	case *ir.StructNode:
		for _, m := range n.Methods {
			v.verifyFn(m)
		}
	}
}

func (v *verifier) verifyFn(fn *ir.FnDcl) {
	if fn.GenericInfo != nil || fn.Body == nil {
		return
	}
	v.verifyExpr(fn.Body)
}

func (v *verifier) verifyExpr(node ir.Node) {
	if node == nil {
		return
	}
	if t, ok := node.(ir.Typed); ok && !t.HasValueType() {
		v.fail(node.Loc(), fmt.Sprintf("%s: value type never resolved", node.Tag()))
	}

	switch n := node.(type) {
	case *ir.NameUseNode:
		if n.Decl == nil && n.Text != "_" {
			v.fail(n.Loc(), fmt.Sprintf("name use %q never bound to a declaration", n.Text))
		}
	case *ir.FieldUseExpr:
		v.verifyExpr(n.Recv)
	case *ir.DerefExpr:
		v.verifyExpr(n.Target)
	case *ir.ElementExpr:
		v.verifyExpr(n.Target)
		v.verifyExpr(n.Index)
	case *ir.AddrExpr:
		v.verifyExpr(n.Target)
	case *ir.AllocateExpr:
		v.verifyExpr(n.Value)
	case *ir.BorrowExpr:
		v.verifyExpr(n.Target)
	case *ir.AssignExpr:
		v.verifyExpr(n.Lval)
		v.verifyExpr(n.Rval)
		v.verifyDealias(n.Dealias)
	case *ir.FnCallExpr:
		v.verifyExpr(n.Callee)
		for _, a := range n.Args {
			v.verifyExpr(a)
		}
	case *ir.BlockExpr:
		for _, s := range n.Stmts {
			if vd, ok := s.(*ir.VarDcl); ok {
				v.verifyExpr(vd.Value)
				continue
			}
			v.verifyExpr(s)
		}
	case *ir.ReturnExpr:
		v.verifyExpr(n.Value)
		v.verifyDealias(n.Dealias)
	case *ir.LoopExpr:
		v.verifyExpr(n.Body)
	case *ir.BreakExpr:
		v.verifyExpr(n.Value)
		v.verifyDealias(n.Dealias)
	case *ir.ContinueExpr:
		v.verifyDealias(n.Dealias)
	case *ir.TupleExpr:
		for _, e := range n.Elements {
			v.verifyExpr(e)
		}
	case *ir.ArrayLitExpr:
		v.verifyExpr(n.Dim)
		for _, e := range n.Elements {
			v.verifyExpr(e)
		}
	case *ir.ConvExpr:
		v.verifyExpr(n.Source)
		v.verifyVtableAttached(n)
	}
}

// verifyDealias checks that every entry a control-transfer recorded is
// actually a move-semantic variable declaration — the one invariant about
// a dealias list checkable without re-running flow analysis itself, since
// an empty or nil list is also legitimate (nothing needed releasing).
func (v *verifier) verifyDealias(dealias []ir.Node) {
	for _, n := range dealias {
		vd, ok := n.(*ir.VarDcl)
		if !ok || !ir.IsMove(vd.VType) {
			v.fail(n.Loc(), fmt.Sprintf("dealias entry %q is not a move-semantic local", n.Tag()))
		}
	}
}

// verifyVtableAttached checks that an accepted struct->trait coercion
// carries its synthesized method table whenever vtable emission was on;
// with it off the attach step is deliberately skipped, so nothing to
// check.
func (v *verifier) verifyVtableAttached(conv *ir.ConvExpr) {
	if !v.emitVtables || conv.Kind != ir.ConvRefToVirtRef {
		return
	}
	ref, ok := ir.TypeDcl(conv.ValueType()).(*ir.RefNode)
	if !ok || ref.Kind != ir.VirtualRef {
		return
	}
	if len(ref.Vtable) == 0 {
		v.fail(conv.Loc(), "accepted struct->trait coercion has no attached vtable")
	}
}

func (v *verifier) fail(loc logger.Loc, text string) {
	v.failures++
	v.log.AddError(v.source, loc, fmt.Sprintf("%s: %s", diag.Internal, text))
}
