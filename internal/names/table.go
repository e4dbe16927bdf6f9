// Package names implements the global name table and scope-hooking
// mechanism: a stack of currently visible declarations per identifier,
// with scope frames used to pop whole cohorts of bindings at once in
// LIFO order.
package names

import "github.com/dccarter/cone/internal/ir"

// Table is the process-wide (per-Context) name table. It is held on the
// pipeline Context and threaded through every pass rather than living as a
// package global.
type Table struct {
	bindings map[string]ir.Decl // top of each name's binding stack
	frames   []*frame
}

// frame is a scope checkpoint. Rather than keeping a separate slice of
// everything hooked, it keeps only the most recently hooked declaration;
// each declaration's own HookLink field chains back to the
// one hooked before it in this same frame, so PopScope walks that chain.
type frame struct {
	head ir.Decl
}

// New returns an empty name table.
func New() *Table {
	return &Table{bindings: make(map[string]ir.Decl)}
}

// PushScope opens a new scope frame (block, function, module, or generic
// parameter list).
func (t *Table) PushScope() {
	t.frames = append(t.frames, &frame{})
}

// PopScope tears down the current scope frame, restoring whatever each of
// its hooked names shadowed. Popping with no frame pushed is a programmer error in the
// pass calling it, not a recoverable condition, since push/pop must always
// be paired.
func (t *Table) PopScope() {
	n := len(t.frames)
	if n == 0 {
		panic("names: PopScope with no matching PushScope")
	}
	f := t.frames[n-1]
	t.frames = t.frames[:n-1]
	for decl := f.head; decl != nil; decl = hookLink(decl) {
		t.unhookOne(decl)
	}
}

// Depth reports how many scope frames are currently open; used as a
// declaration's lexical Scope and by tests asserting hook
// stack balance.
func (t *Table) Depth() int {
	return len(t.frames)
}

// Hook binds decl's name into the current scope, pushing any previous
// occupant down. Hooking with no open scope is a programmer
// error for the same reason PopScope is.
func (t *Table) Hook(decl ir.Decl) {
	n := len(t.frames)
	if n == 0 {
		panic("names: Hook with no open scope")
	}
	f := t.frames[n-1]
	setHookLink(decl, f.head)
	f.head = decl
	t.hookNamed(decl.DeclName(), decl)
}

func (t *Table) hookNamed(name string, decl ir.Decl) {
	prev := t.bindings[name]
	setPrevName(decl, prev)
	t.bindings[name] = decl
}

func (t *Table) unhookOne(decl ir.Decl) {
	name := decl.DeclName()
	t.bindings[name] = prevName(decl)
}

// Lookup returns the currently visible declaration bound to name, or nil.
func (t *Table) Lookup(name string) ir.Decl {
	return t.bindings[name]
}

// hookChain is implemented by every declaration type that carries the
// DeclHeader hook-chain fields (PrevName, HookLink).
type hookChain interface {
	SetPrevName(ir.Decl)
	PrevNameOf() ir.Decl
	SetHookLink(ir.Decl)
	HookLinkOf() ir.Decl
}

func setPrevName(decl ir.Decl, prev ir.Decl) {
	if hc, ok := decl.(hookChain); ok {
		hc.SetPrevName(prev)
	}
}

func prevName(decl ir.Decl) ir.Decl {
	if hc, ok := decl.(hookChain); ok {
		return hc.PrevNameOf()
	}
	return nil
}

func setHookLink(decl ir.Decl, next ir.Decl) {
	if hc, ok := decl.(hookChain); ok {
		hc.SetHookLink(next)
	}
}

func hookLink(decl ir.Decl) ir.Decl {
	if hc, ok := decl.(hookChain); ok {
		return hc.HookLinkOf()
	}
	return nil
}
