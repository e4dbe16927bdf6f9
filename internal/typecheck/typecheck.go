// Package typecheck assigns and verifies value types across a resolved
// tree: it coerces every expression to the type its context requires,
// inserting explicit conversions where the subtype engine allows a
// runtime one, and rejects anything that doesn't match.
package typecheck

import (
	"fmt"

	"github.com/dccarter/cone/internal/diag"
	"github.com/dccarter/cone/internal/flow"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/dccarter/cone/internal/subtype"
	"github.com/dccarter/cone/internal/vtable"
)

// Checker carries the shared error sink and source through one type-check
// pass over a resolved program.
type Checker struct {
	Log       logger.Log
	Source    *logger.Source
	Types     *ir.TypeTable // interns every reference this pass constructs
	curReturn ir.Node       // declared return type of the function body being checked

	// loops is a stack of the break values collected so far for each
	// loop expression currently being checked, innermost last. Popped
	// and folded to a phi type via flow.FindLoopPhi when its LoopExpr
	// finishes checking.
	loops []*loopFrame

	// EmitVtables controls whether an accepted Ref->VirtRef coercion
	// attaches its synthesized method table to the trait's type-info.
	// The trait matcher itself always runs, since rejecting a coercion
	// with no matching method is a type error regardless of this flag;
	// only the attach step (meaningless without a backend to consume
	// it) is gated.
	EmitVtables bool
}

// loopFrame accumulates the break statements found inside one LoopExpr
// body, by life label if any, so its value type can be resolved once the
// body has been fully checked.
type loopFrame struct {
	life   string
	breaks []*ir.BreakExpr
}

// New returns a checker. types may be nil (tests exercising a single
// expression in isolation don't need interning); CheckProgram always
// receives one from the shared pipeline Context.
func New(log logger.Log, source *logger.Source, types *ir.TypeTable) *Checker {
	return &Checker{Log: log, Source: source, Types: types, EmitVtables: true}
}

// intern runs ref through the shared type table when one is set, so two
// references built from the same structural shape across the whole
// program collapse to the same canonical node.
func (c *Checker) intern(ref *ir.RefNode) *ir.RefNode {
	if c.Types == nil {
		return ref
	}
	return c.Types.InternRef(ref)
}

// CheckProgram type-checks every non-generic function body in the program.
// Generic functions (those carrying GenericInfo) are skipped; this pass
// never checks their bodies.
func (c *Checker) CheckProgram(prog *ir.ProgramNode) {
	for _, mod := range prog.Modules {
		for _, d := range mod.Decls {
			c.checkDecl(d)
		}
	}
}

func (c *Checker) checkDecl(d ir.Decl) {
	switch n := d.(type) {
	case *ir.VarDcl:
		c.checkVarDcl(n)
	case *ir.FnDcl:
		c.checkFn(n)
	case *ir.StructNode:
		for _, m := range n.Methods {
			c.checkFn(m)
		}
	}
}

func (c *Checker) checkVarDcl(v *ir.VarDcl) {
	if v.Value == nil {
		return
	}
	c.checkExpr(v.Value)
	v.Value = c.coerce(v.VType, v.Value)
}

func (c *Checker) checkFn(fn *ir.FnDcl) {
	if fn.GenericInfo != nil || fn.Body == nil {
		return
	}
	saved := c.curReturn
	c.curReturn = fn.Returns
	c.checkExpr(fn.Body)
	c.insertImplicitReturn(fn)
	c.curReturn = saved
}

// insertImplicitReturn replaces the block's trailing expression with a
// ReturnExpr wrapping it when the body doesn't already end in one. Idempotent:
// re-running it on an already-terminated block is a no-op.
func (c *Checker) insertImplicitReturn(fn *ir.FnDcl) {
	block, ok := fn.Body.(*ir.BlockExpr)
	if !ok || len(block.Stmts) == 0 {
		return
	}
	last := block.Stmts[len(block.Stmts)-1]
	if _, already := last.(*ir.ReturnExpr); already {
		return
	}
	if !isExprStmt(last) {
		return
	}
	block.Stmts[len(block.Stmts)-1] = &ir.ReturnExpr{
		ExprHeader: ir.ExprHeader{Header: headerOf(last), VType: ir.Void},
		Value:      last,
	}
}

func isExprStmt(n ir.Node) bool {
	switch n.(type) {
	case *ir.VarDcl:
		return false
	default:
		return true
	}
}

func headerOf(n ir.Node) ir.Header {
	return ir.Header{NodeTag: ir.ReturnTag, Pos: n.Loc()}
}

// checkExpr assigns a value type to every expression reachable from node,
// recursing first so inner expressions are typed before the ones that
// consume them.
func (c *Checker) checkExpr(node ir.Node) {
	switch n := node.(type) {
	case *ir.UintLit, *ir.FloatLit, *ir.StringLit, *ir.NilLit:
		// literal node's value type is set by the parser/literal folding
		// stage; nothing left to infer here.
	case *ir.NameUseNode:
		c.checkNameUse(n)
	case *ir.FieldUseExpr:
		c.checkFieldUse(n)
	case *ir.DerefExpr:
		c.checkExpr(n.Target)
		c.deref(n)
	case *ir.ElementExpr:
		c.checkExpr(n.Target)
		c.checkExpr(n.Index)
		c.element(n)
	case *ir.AddrExpr:
		c.checkExpr(n.Target)
		c.addr(n)
	case *ir.AllocateExpr:
		c.checkExpr(n.Value)
		c.allocate(n)
	case *ir.BorrowExpr:
		c.checkExpr(n.Target)
		c.borrow(n)
	case *ir.AssignExpr:
		c.checkAssign(n)
	case *ir.FnCallExpr:
		c.checkCall(n)
	case *ir.BlockExpr:
		for _, s := range n.Stmts {
			if vd, ok := s.(*ir.VarDcl); ok {
				c.checkVarDcl(vd)
				continue
			}
			c.checkExpr(s)
		}
		n.SetValueType(blockValueType(n))
	case *ir.ReturnExpr:
		if n.Value != nil {
			c.checkExpr(n.Value)
			if c.curReturn != nil {
				n.Value = c.coerce(c.curReturn, n.Value)
			}
		}
		n.SetValueType(ir.Void)
	case *ir.LoopExpr:
		c.loops = append(c.loops, &loopFrame{life: n.Life})
		c.checkExpr(n.Body)
		frame := c.loops[len(c.loops)-1]
		c.loops = c.loops[:len(c.loops)-1]
		n.SetValueType(flow.FindLoopPhi(frame.breaks))
	case *ir.BreakExpr:
		if n.Value != nil {
			c.checkExpr(n.Value)
		}
		if frame := c.loopTarget(n.Life); frame != nil {
			frame.breaks = append(frame.breaks, n)
		} else {
			c.err(n.Loc(), diag.BadTerm, breakTargetMessage(n.Life))
		}
		n.SetValueType(ir.Void)
	case *ir.ContinueExpr:
		n.SetValueType(ir.Void)
	case *ir.TupleExpr:
		for _, e := range n.Elements {
			c.checkExpr(e)
		}
	case *ir.ArrayLitExpr:
		c.checkArrayLit(n)
	case *ir.ConvExpr:
		c.checkExpr(n.Source)
	}
}

func blockValueType(b *ir.BlockExpr) ir.Node {
	if len(b.Stmts) == 0 {
		return ir.Void
	}
	last := b.Stmts[len(b.Stmts)-1]
	if t, ok := last.(ir.Typed); ok && t.HasValueType() {
		return t.ValueType()
	}
	return ir.Void
}

func (c *Checker) checkNameUse(n *ir.NameUseNode) {
	if n.Decl == nil {
		n.SetValueType(ir.Unknown)
		return
	}
	switch d := n.Decl.(type) {
	case *ir.VarDcl:
		n.SetValueType(d.VType)
	case *ir.ParamDcl:
		n.SetValueType(d.VType)
	case *ir.FnDcl:
		n.SetValueType(d.Signature())
	default:
		n.SetValueType(ir.Unknown)
	}
}

// checkFieldUse resolves a.b against the receiver's concrete struct type:
// a field reference becomes the field's declared type, a zero-argument
// method access records the matching method for the call-site rewrite
// fnCallExpr performs at a direct call.
func (c *Checker) checkFieldUse(n *ir.FieldUseExpr) {
	c.checkExpr(n.Recv)
	recvType := valueTypeOf(n.Recv)
	s := structOf(recvType)
	if s == nil {
		c.err(n.Loc(), diag.InvType, fmt.Sprintf("%q is not a field or method of a struct type", n.Name))
		n.SetValueType(ir.Unknown)
		return
	}
	for _, f := range s.Fields {
		if f.Name == n.Name {
			n.SetValueType(f.Type)
			return
		}
	}
	for cur := s; cur != nil; cur = cur.Base {
		for _, m := range cur.Methods {
			if m.DeclName() == n.Name {
				n.Method = m
				n.SetValueType(m.Signature())
				return
			}
		}
	}
	c.err(n.Loc(), diag.NoMeth, fmt.Sprintf("no field or method named %q on %s", n.Name, s.DeclName()))
	n.SetValueType(ir.Unknown)
}

func structOf(t ir.Node) *ir.StructNode {
	dcl := ir.TypeDcl(t)
	switch n := dcl.(type) {
	case *ir.StructNode:
		return n
	case *ir.RefNode:
		return structOf(n.VTExp)
	case *ir.PtrNode:
		return structOf(n.VTExp)
	}
	return nil
}

func valueTypeOf(n ir.Node) ir.Node {
	if t, ok := n.(ir.Typed); ok && t.HasValueType() {
		return t.ValueType()
	}
	return ir.Unknown
}

func (c *Checker) deref(n *ir.DerefExpr) {
	t := ir.TypeDcl(valueTypeOf(n.Target))
	ref, ok := t.(*ir.RefNode)
	if !ok {
		c.err(n.Loc(), diag.InvType, "dereference of a non-reference value")
		n.SetValueType(ir.Unknown)
		return
	}
	n.SetValueType(ref.VTExp)
}

func (c *Checker) element(n *ir.ElementExpr) {
	t := ir.TypeDcl(valueTypeOf(n.Target))
	switch ref := t.(type) {
	case *ir.ArrayNode:
		n.SetValueType(ref.Elem)
	case *ir.RefNode:
		n.SetValueType(ref.VTExp)
	default:
		c.err(n.Loc(), diag.InvType, "index of a non-array, non-array-reference value")
		n.SetValueType(ir.Unknown)
	}
}

func (c *Checker) addr(n *ir.AddrExpr) {
	perm := n.Perm
	if perm == nil {
		perm = ir.RoPerm
	}
	ref := ir.NewRef(ir.PlainRef, ir.RefTag)
	ref.Perm = perm
	ref.VTExp = valueTypeOf(n.Target)
	n.SetValueType(c.intern(ref))
}

func (c *Checker) allocate(n *ir.AllocateExpr) {
	region, ok := ir.TypeDcl(n.Region).(*ir.RegionNode)
	if !ok {
		c.err(n.Loc(), diag.InvType, "allocation target is not a region")
		n.SetValueType(ir.Unknown)
		return
	}
	ref := ir.NewRef(ir.PlainRef, ir.RefTag)
	ref.Region = region
	ref.VTExp = valueTypeOf(n.Value)
	n.SetValueType(c.intern(ref))
}

func (c *Checker) borrow(n *ir.BorrowExpr) {
	perm := n.Perm
	if perm == nil {
		perm = ir.RoPerm
	}
	ref := ir.NewRef(ir.PlainRef, ir.RefTag)
	ref.Region = ir.Borrow
	ref.Perm = perm
	ref.VTExp = valueTypeOf(n.Target)
	n.SetValueType(c.intern(ref))
}

// checkAssign handles single=single by coercing the rval to the lval's type
// and tuple=tuple element-wise (arities must match). A tuple lval with any
// non-tuple rval is rejected, including a call returning multiple values:
// multi-value destructuring is not supported. A single lval with a tuple
// rval goes through the single=single coercion.
func (c *Checker) checkAssign(n *ir.AssignExpr) {
	c.checkExpr(n.Lval)
	c.checkExpr(n.Rval)

	lt, lok := n.Lval.(*ir.TupleExpr)
	rt, rok := n.Rval.(*ir.TupleExpr)

	switch {
	case lok && rok:
		if len(lt.Elements) != len(rt.Elements) {
			c.err(n.Loc(), diag.InvType, "tuple assignment arity mismatch")
			break
		}
		for i := range lt.Elements {
			rt.Elements[i] = c.coerce(valueTypeOf(lt.Elements[i]), rt.Elements[i])
		}
	case lok && !rok:
		c.err(n.Loc(), diag.InvType, "cannot assign a single value to a tuple of lvalues")
	case !lok:
		n.Rval = c.coerce(valueTypeOf(n.Lval), n.Rval)
	}
	n.SetValueType(ir.Void)
}

// checkCall resolves a method call written as a.m(args) into a direct
// call against m with the receiver prepended, then type-checks arguments
// against the callee's declared parameters: arity must match unless the
// trailing parameters carry defaults, and each argument is coerced to its
// parameter's declared type.
func (c *Checker) checkCall(n *ir.FnCallExpr) {
	c.checkExpr(n.Callee)
	for _, a := range n.Args {
		c.checkExpr(a)
	}

	if fu, ok := n.Callee.(*ir.FieldUseExpr); ok && fu.Method != nil {
		n.Args = append([]ir.Node{fu.Recv}, n.Args...)
		n.Callee = &ir.NameUseNode{
			ExprHeader: ir.ExprHeader{Header: fu.Header, VType: fu.Method.Signature()},
			Text:       fu.Method.DeclName(),
			Decl:       fu.Method,
		}
	}

	fn := calleeFn(n.Callee)
	if fn == nil {
		n.SetValueType(ir.Unknown)
		return
	}

	if len(n.Args) > len(fn.Params) {
		c.err(n.Loc(), diag.ManyArgs, fmt.Sprintf("%s: too many arguments", fn.DeclName()))
	} else if len(n.Args) < len(fn.Params) {
		for i := len(n.Args); i < len(fn.Params); i++ {
			if fn.Params[i].Default == nil {
				c.err(n.Loc(), diag.FewArgs, fmt.Sprintf("%s: too few arguments", fn.DeclName()))
				break
			}
		}
	}

	for i := range n.Args {
		if i >= len(fn.Params) {
			break
		}
		n.Args[i] = c.coerce(fn.Params[i].VType, n.Args[i])
	}

	ret := fn.Returns
	if ret == nil {
		ret = ir.Void
	}
	n.SetValueType(ret)
}

func calleeFn(callee ir.Node) *ir.FnDcl {
	use, ok := callee.(*ir.NameUseNode)
	if !ok {
		return nil
	}
	fn, _ := use.Decl.(*ir.FnDcl)
	return fn
}

// checkArrayLit types the two literal forms: the fill form `[dim, val]`
// replicates a single element's type across Dim slots; the list form
// infers a common element type across every element via FindSuper.
func (c *Checker) checkArrayLit(n *ir.ArrayLitExpr) {
	if n.Fill {
		c.checkExpr(n.Dim)
		c.checkExpr(n.Elements[0])
		n.SetValueType(&ir.ArrayNode{
			Header: ir.Header{NodeTag: ir.ArrayTag},
			Dim:    0, // Dim's constant value is not folded, so the length stays 0
			Elem:   valueTypeOf(n.Elements[0]),
		})
		return
	}

	for _, e := range n.Elements {
		c.checkExpr(e)
	}
	if len(n.Elements) == 0 {
		n.SetValueType(&ir.ArrayNode{Header: ir.Header{NodeTag: ir.ArrayTag}, Dim: 0, Elem: ir.Void})
		return
	}
	elem := valueTypeOf(n.Elements[0])
	for _, e := range n.Elements[1:] {
		super := subtype.FindSuper(elem, valueTypeOf(e))
		if super == nil {
			c.err(n.Loc(), diag.InvType, "array literal elements have no common type")
			n.SetValueType(ir.Unknown)
			return
		}
		elem = super
	}
	n.SetValueType(&ir.ArrayNode{Header: ir.Header{NodeTag: ir.ArrayTag}, Dim: int64(len(n.Elements)), Elem: elem})
}

// coerce is the single entry point every assignment-like site funnels
// through: auto-deref the source when the target isn't itself a
// reference, consult the subtype engine, and either accept the
// expression as-is, wrap it in an explicit ConvExpr, try a struct→trait
// vtable coercion, or reject it.
func (c *Checker) coerce(target ir.Node, expr ir.Node) ir.Node {
	if target == nil || target == ir.Unknown {
		return expr
	}
	source := valueTypeOf(expr)

	if _, targetIsRef := ir.TypeDcl(target).(*ir.RefNode); !targetIsRef {
		if srcRef, ok := ir.TypeDcl(source).(*ir.RefNode); ok && srcRef.Kind != ir.VirtualRef {
			expr = c.wrapConv(expr, srcRef.Deref, ir.ConvDerefAuto)
			source = srcRef.VTExp
		}
	}

	switch subtype.Matches(target, source, subtype.Default) {
	case subtype.EqMatch:
		return expr
	case subtype.CastSubtype:
		return expr
	case subtype.ConvSubtype:
		return c.tryConv(target, expr, source)
	default:
		c.err(expr.Loc(), diag.InvType, fmt.Sprintf("cannot use value of type %s where %s is expected", ir.TypeDcl(source).Tag(), ir.TypeDcl(target).Tag()))
		return expr
	}
}

func (c *Checker) tryConv(target, expr, source ir.Node) ir.Node {
	toRef, toIsRef := ir.TypeDcl(target).(*ir.RefNode)
	fromRef, fromIsRef := ir.TypeDcl(source).(*ir.RefNode)

	if toIsRef && fromIsRef && toRef.Kind == ir.VirtualRef {
		toStruct := structOf(toRef.VTExp)
		fromStruct := structOf(fromRef.VTExp)
		if toStruct != nil && fromStruct != nil && toStruct != fromStruct {
			table, ok := vtable.Build(toStruct, fromStruct, c.Source, expr.Loc(), c.Log)
			if !ok {
				return expr
			}
			if c.EmitVtables {
				vtable.Attach(toRef, table)
			}
		}
		return c.wrapConv(expr, target, ir.ConvRefToVirtRef)
	}

	kind := ir.ConvNumericWiden
	if toIsRef && !fromIsRef {
		kind = ir.ConvRefToVirtRef
	}
	if toIsRef && fromIsRef && toRef.Kind == ir.ArrayRef && fromRef.Kind == ir.PlainRef {
		kind = ir.ConvRefToArrayRef
	}
	if !toIsRef {
		if _, toPtr := ir.TypeDcl(target).(*ir.PtrNode); toPtr {
			kind = ir.ConvRefToPtr
		}
	}
	return c.wrapConv(expr, target, kind)
}

func (c *Checker) wrapConv(expr, target ir.Node, kind ir.ConvKind) ir.Node {
	conv := &ir.ConvExpr{
		ExprHeader: ir.ExprHeader{Header: ir.Header{NodeTag: ir.ConvTag, Pos: expr.Loc()}, VType: target},
		Source:     expr,
		Kind:       kind,
	}
	return conv
}

// loopTarget resolves a break's target loop frame the same way flow's
// labeled continue/break targeting does: no label means the innermost
// loop, a label searches outward for the matching one.
func (c *Checker) loopTarget(life string) *loopFrame {
	if life == "" {
		if len(c.loops) == 0 {
			return nil
		}
		return c.loops[len(c.loops)-1]
	}
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].life == life {
			return c.loops[i]
		}
	}
	return nil
}

func breakTargetMessage(life string) string {
	if life == "" {
		return "break used outside of a loop"
	}
	return fmt.Sprintf("break '%s targets no enclosing loop with that label", life)
}

func (c *Checker) err(loc logger.Loc, kind diag.Kind, text string) {
	c.Log.AddError(c.Source, loc, fmt.Sprintf("%s: %s", kind, text))
}
