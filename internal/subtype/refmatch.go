package subtype

import "github.com/dccarter/cone/internal/ir"

// structMatches handles a bare (non-reference) struct target.
// Trait-supertype coercion only ever happens through a reference
// (Ref→VirtRef); a bare struct value is invariant.
func structMatches(to *ir.StructNode, from ir.Node, constraint Constraint) TypeCompare {
	return eqIf(ir.IsSame(to, from))
}

// regionMatches decides whether from's region may stand in for to's:
// identical regions always match; any region may narrow to
// the Borrow sentinel (an owned reference is always usable where a borrow
// is expected — the generated code simply doesn't release it); anything
// else is rejected.
func regionMatches(to, from *ir.RegionNode, constraint Constraint) TypeCompare {
	if ir.IsSame(to, from) {
		return EqMatch
	}
	if to.IsBorrow() {
		return CastSubtype
	}
	return NoMatch
}

// permMatches decides whether a reference typed with from's permission may
// be used where to's permission is required, from first principles over
// ir.PermNode's attribute bits: a target permission is satisfiable by a
// source permission when every capability the target grants its holder
// (MayRead, MayWrite, RaceSafe,
// MayIntRef, IsLockless) is also granted by the source. The two aliasing
// bits (MayAlias, MayAliasWrite) describe a reference's own sharing shape
// rather than a capability demanded of its value, so a unique permission
// may still narrow to an aliasing-shaped one — exactly the downgrade an
// owned-to-const coercion needs.
func permMatches(to, from *ir.PermNode) TypeCompare {
	if ir.PermIsSame(to, from) {
		return EqMatch
	}
	const capabilityMask = ir.MayRead | ir.MayWrite | ir.RaceSafe | ir.MayIntRef | ir.IsLockless
	need := to.Attrs & capabilityMask
	have := from.Attrs & capabilityMask
	if need&^have != 0 {
		return NoMatch
	}
	return CastSubtype
}

// refMatches is the core Ref←Ref rule: region, then
// permission, then referent variance driven by to.Perm's read/write bits.
func refMatches(to, from *ir.RefNode, constraint Constraint) TypeCompare {
	result := regionMatches(to.Region, from.Region, constraint)
	if result == NoMatch {
		return NoMatch
	}

	switch permMatches(to.Perm, from.Perm) {
	case NoMatch:
		return NoMatch
	case CastSubtype:
		result = CastSubtype
	}

	var match TypeCompare
	switch to.Perm.Attrs & (ir.MayWrite | ir.MayRead) {
	case ir.MayWrite:
		// write-only: contravariant
		match = Matches(from.VTExp, to.VTExp, Regref)
	case ir.MayWrite | ir.MayRead:
		// read+write: invariant
		if !ir.IsSame(to.VTExp, from.VTExp) {
			return NoMatch
		}
		return result
	default:
		// read-only, or neither: covariant
		match = Matches(to.VTExp, from.VTExp, Regref)
	}

	switch match {
	case EqMatch:
		return result
	case CastSubtype:
		return CastSubtype
	case ConvSubtype:
		if constraint == Monomorph {
			return NoMatch
		}
		return ConvSubtype
	default:
		return NoMatch
	}
}

// refvirtMatchesRef is Ref→VirtRef: always a runtime conversion, forbidden
// under Monomorph. The referent's struct must structurally implement every
// trait method; that check (and vtable synthesis) lives in internal/vtable
// and is invoked by the type checker once this returns ConvSubtype.
func refvirtMatchesRef(to, from *ir.RefNode, constraint Constraint) TypeCompare {
	if constraint == Monomorph {
		return NoMatch
	}

	result := regionMatches(to.Region, from.Region, constraint)
	if result == NoMatch {
		return NoMatch
	}
	switch permMatches(to.Perm, from.Perm) {
	case NoMatch:
		return NoMatch
	case CastSubtype:
		result = CastSubtype
	}

	toDcl := ir.TypeDcl(to.VTExp)
	fromDcl := ir.TypeDcl(from.VTExp)
	toStruct, ok1 := toDcl.(*ir.StructNode)
	fromStruct, ok2 := fromDcl.(*ir.StructNode)
	if !ok1 || !ok2 {
		return NoMatch
	}

	if toStruct == fromStruct {
		if toStruct.HasFlag(ir.HasTagFieldFlag) {
			return ConvSubtype
		}
		return NoMatch
	}

	// Distinct struct/trait: caller (internal/vtable) verifies structural
	// subtyping and builds the dispatch table; here we only report whether
	// the shape is even eligible (i.e. toStruct is a trait).
	if toStruct.IsTrait() {
		return ConvSubtype
	}
	return NoMatch
}

// refvirtMatches is VirtRef←VirtRef: the referent must be structurally the
// same; only region and permission may widen.
func refvirtMatches(to, from *ir.RefNode, constraint Constraint) TypeCompare {
	if !ir.IsSame(to.VTExp, from.VTExp) {
		return NoMatch
	}
	return refMatches(to, from, constraint)
}

// arrayRefMatchesRef is ArrayRef←Ref: accepted as ConvSubtype when the
// referent types are the same — the reference is reinterpreted as a
// singleton array.
func arrayRefMatchesRef(to, from *ir.RefNode, constraint Constraint) TypeCompare {
	result := regionMatches(to.Region, from.Region, constraint)
	if result == NoMatch {
		return NoMatch
	}
	if !ir.IsSame(to.VTExp, from.VTExp) {
		return NoMatch
	}
	return ConvSubtype
}

func arrayRefMatches(to, from *ir.RefNode, constraint Constraint) TypeCompare {
	return refMatches(to, from, constraint)
}

// FindSuper is the join used at overload/merge sites (e.g. a loop's
// break-value phi set).
func FindSuper(a, b ir.Node) ir.Node {
	ta := ir.TypeDcl(a)
	tb := ir.TypeDcl(b)

	if ta.Tag() != tb.Tag() {
		return nil
	}
	if ir.IsSame(ta, tb) {
		return a
	}

	switch ta.Tag() {
	case ir.UintNbrTag, ir.IntNbrTag, ir.FloatNbrTag:
		return nbrFindSuper(a, b)
	case ir.StructTag:
		return structFindSuper(ta.(*ir.StructNode), tb.(*ir.StructNode))
	case ir.RefTag, ir.VirtRefTag:
		return refFindSuper(ta.(*ir.RefNode), tb.(*ir.RefNode))
	default:
		return nil
	}
}

func nbrFindSuper(a, b ir.Node) ir.Node {
	na, nb := a.(*ir.NbrNode), b.(*ir.NbrNode)
	if na.Tag() != nb.Tag() {
		return nil
	}
	if na.Bits >= nb.Bits {
		return a
	}
	return b
}

// structFindSuper walks up nominal Base links to find a common ancestor
// (the nearest common trait/base).
func structFindSuper(a, b *ir.StructNode) ir.Node {
	ancestors := map[*ir.StructNode]bool{}
	for s := a; s != nil; s = s.Base {
		ancestors[s] = true
	}
	for s := b; s != nil; s = s.Base {
		if ancestors[s] {
			return s
		}
	}
	return nil
}

func refFindSuper(a, b *ir.RefNode) ir.Node {
	if !ir.IsSame(a.Region, b.Region) || !ir.PermIsSame(a.Perm, b.Perm) {
		return nil
	}
	vtexp := FindSuper(a.VTExp, b.VTExp)
	if vtexp == nil {
		return nil
	}
	return &ir.RefNode{
		Header: a.Header,
		Kind:   a.Kind,
		Region: a.Region,
		Perm:   a.Perm,
		VTExp:  vtexp,
	}
}
