package vtable

import (
	"fmt"

	"github.com/dccarter/cone/internal/diag"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
)

// signature renders the part of a method's shape that must match between a
// trait declaration and a struct's implementation: name, argument types
// after the receiver, and return type. The receiver itself is deliberately
// excluded — the trait's self is a reference to the trait, the struct's
// self is a reference to the struct, and those are expected to differ, so
// mangling them together would make every trait method look unimplemented.
func signature(fn *ir.FnDcl) string {
	s := fn.DeclName() + "("
	for i, p := range fn.Params {
		if i == 0 {
			continue // receiver
		}
		if i > 1 {
			s += ","
		}
		s += Mangle(p.VType)
	}
	s += ")"
	ret := fn.Returns
	if ret == nil {
		ret = ir.Void
	}
	return s + Mangle(ret)
}

// Build verifies that src structurally implements every method of trait
// and, if so, returns the vtable: one implementation per trait method, in
// trait declaration order. A nil result with ok=false means at least one
// trait method had no matching implementation, which the caller reports
// as a type error.
func Build(trait, src *ir.StructNode, source *logger.Source, loc logger.Loc, log logger.Log) ([]*ir.FnDcl, bool) {
	if !trait.IsTrait() {
		return nil, false
	}

	bySig := make(map[string]*ir.FnDcl, len(src.Methods))
	for _, m := range allMethods(src) {
		bySig[signature(m)] = m
	}

	table := make([]*ir.FnDcl, 0, len(trait.Methods))
	ok := true
	for _, want := range trait.Methods {
		impl, found := bySig[signature(want)]
		if !found {
			ok = false
			log.AddError(source, loc, fmt.Sprintf(
				"%s: %s does not implement method %q required by trait %s",
				diag.InvType, src.DeclName(), want.DeclName(), trait.DeclName()))
			continue
		}
		table = append(table, impl)
	}
	if !ok {
		return nil, false
	}
	return table, true
}

// allMethods walks a struct's nominal Base chain so an inherited method
// satisfies a trait requirement too.
func allMethods(s *ir.StructNode) []*ir.FnDcl {
	var out []*ir.FnDcl
	for cur := s; cur != nil; cur = cur.Base {
		out = append(out, cur.Methods...)
	}
	return out
}

// Attach stores the synthesized table on the VirtRef node's Vtable field.
func Attach(ref *ir.RefNode, table []*ir.FnDcl) {
	ref.Vtable = table
}
