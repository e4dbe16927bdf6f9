// Package subtype is the subtype/variance engine: given a
// target type, a source type, and a constraint, it decides whether the
// source may be used where the target is expected, and under what
// mechanism (no-op cast, runtime conversion, or outright rejection).
package subtype

import "github.com/dccarter/cone/internal/ir"

// TypeCompare is the four-valued match result a coercion site reduces to.
type TypeCompare uint8

const (
	EqMatch TypeCompare = iota
	CastSubtype
	ConvSubtype
	NoMatch
)

// Constraint selects which coercions are legal at a given site.
type Constraint uint8

const (
	// Default allows every coercion: casts and runtime conversions alike.
	Default Constraint = iota
	// Monomorph is compile-time exact matching for generic instantiation;
	// no runtime conversions are permitted.
	Monomorph
	// Regref is the variance check performed on a reference's referent.
	Regref
)

// Matches answers "does from match to under constraint?" It is the single
// entry point the type checker's coerce() calls.
func Matches(to, from ir.Node, constraint Constraint) TypeCompare {
	from = ir.TypeDcl(from)
	to = ir.TypeDcl(to)

	if to == from {
		return EqMatch
	}

	switch to.Tag() {
	case ir.UintNbrTag, ir.IntNbrTag, ir.FloatNbrTag:
		return nbrMatches(to, from, constraint)

	case ir.StructTag:
		return structMatches(to.(*ir.StructNode), from, constraint)

	case ir.TTupleTag:
		if from.Tag() != ir.TTupleTag {
			return NoMatch
		}
		return eqIf(ir.IsSame(to, from))

	case ir.ArrayTag:
		if from.Tag() != ir.ArrayTag {
			return NoMatch
		}
		return arrayMatches(to.(*ir.ArrayNode), from.(*ir.ArrayNode), constraint)

	case ir.FnSigTag:
		if from.Tag() != ir.FnSigTag {
			return NoMatch
		}
		return fnSigMatches(to.(*ir.FnSigNode), from.(*ir.FnSigNode), constraint)

	case ir.RefTag:
		if from.Tag() != ir.RefTag {
			return NoMatch
		}
		return refMatches(to.(*ir.RefNode), from.(*ir.RefNode), constraint)

	case ir.VirtRefTag:
		switch from.Tag() {
		case ir.VirtRefTag:
			return refvirtMatches(to.(*ir.RefNode), from.(*ir.RefNode), constraint)
		case ir.RefTag:
			return refvirtMatchesRef(to.(*ir.RefNode), from.(*ir.RefNode), constraint)
		}
		return NoMatch

	case ir.ArrayRefTag:
		switch from.Tag() {
		case ir.ArrayRefTag:
			return arrayRefMatches(to.(*ir.RefNode), from.(*ir.RefNode), constraint)
		case ir.RefTag:
			return arrayRefMatchesRef(to.(*ir.RefNode), from.(*ir.RefNode), constraint)
		}
		return NoMatch

	case ir.PtrTag:
		switch from.Tag() {
		case ir.RefTag, ir.ArrayRefTag:
			return eqIfConv(ir.IsSame(from.(*ir.RefNode).VTExp, to.(*ir.PtrNode).VTExp))
		case ir.PtrTag:
			return ptrMatches(to.(*ir.PtrNode), from.(*ir.PtrNode), constraint)
		}
		return NoMatch

	case ir.VoidTag:
		return eqIf(from.Tag() == ir.VoidTag)

	default:
		return eqIf(ir.IsSame(to, from))
	}
}

func eqIf(same bool) TypeCompare {
	if same {
		return EqMatch
	}
	return NoMatch
}

func eqIfConv(same bool) TypeCompare {
	if same {
		return ConvSubtype
	}
	return NoMatch
}

func nbrMatches(to, from ir.Node, constraint Constraint) TypeCompare {
	tn, ok1 := to.(*ir.NbrNode)
	fn, ok2 := from.(*ir.NbrNode)
	if !ok1 || !ok2 {
		return NoMatch
	}
	if tn.Name == fn.Name {
		return EqMatch
	}
	// Exact match aside, only same-signedness widening is legal; narrowing
	// (including float->int, or crossing signedness) is always a hard error
	// since it can silently change the represented value.
	if to.Tag() != from.Tag() {
		return NoMatch
	}
	if tn.Bits >= fn.Bits {
		return ConvSubtype
	}
	return NoMatch
}

func arrayMatches(to, from *ir.ArrayNode, constraint Constraint) TypeCompare {
	if to.Dim != from.Dim {
		return NoMatch
	}
	return eqIf(ir.IsSame(to.Elem, from.Elem))
}

func fnSigMatches(to, from *ir.FnSigNode, constraint Constraint) TypeCompare {
	return eqIf(ir.IsSame(to, from))
}

func ptrMatches(to, from *ir.PtrNode, constraint Constraint) TypeCompare {
	return eqIf(ir.IsSame(to.VTExp, from.VTExp))
}
