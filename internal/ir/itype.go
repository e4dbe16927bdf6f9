package ir

import "reflect"

// typeValueHolder is implemented by declarations that merely name another
// type (NamedTypeDcl, TypedefNode); TypeDcl follows it transparently.
type typeValueHolder interface {
	TypeValue() Node
}

func (d *NamedTypeDcl) TypeValue() Node { return d.TypeVal }
func (d *TypedefNode) TypeValue() Node  { return d.TypeVal }

// TypeDcl strips NameUse and Typedef indirection to reach the underlying
// type declaration node. Callers must only invoke it on nodes that are,
// or resolve to, type nodes.
func TypeDcl(node Node) Node {
	for {
		switch n := node.(type) {
		case *NameUseNode:
			if n.Decl == nil {
				return node
			}
			if holder, ok := n.Decl.(typeValueHolder); ok {
				node = holder.TypeValue()
				continue
			}
			if dn, ok := n.Decl.(Node); ok {
				node = dn
				continue
			}
			return node
		case *TypedefNode:
			node = n.TypeVal
			continue
		default:
			return node
		}
	}
}

// IsSame is iTypeIsSame: nominal identity for named types, structural
// recursion for composite ones.
func IsSame(a, b Node) bool {
	a = TypeDcl(a)
	b = TypeDcl(b)

	if a == b {
		return true
	}
	if a.Tag() != b.Tag() {
		return false
	}

	switch a.Tag() {
	case RefTag, VirtRefTag:
		return refIsSame(a.(*RefNode), b.(*RefNode))
	case ArrayRefTag:
		return arrayRefIsSame(a.(*RefNode), b.(*RefNode))
	case PtrTag:
		return ptrIsSame(a.(*PtrNode), b.(*PtrNode))
	case ArrayTag:
		return arrayIsSame(a.(*ArrayNode), b.(*ArrayNode))
	case TTupleTag:
		return ttupleIsSame(a.(*TTupleNode), b.(*TTupleNode))
	case FnSigTag:
		return fnSigIsSame(a.(*FnSigNode), b.(*FnSigNode))
	case VoidTag:
		return true
	case PermTag:
		return PermIsSame(a.(*PermNode), b.(*PermNode))
	case UintNbrTag, IntNbrTag, FloatNbrTag:
		return a.(*NbrNode).Name == b.(*NbrNode).Name
	default:
		return false
	}
}

// IsRunSame is like IsSame, except every permission compares equal
// (permissions are erased at runtime, so they shouldn't split otherwise
// identical runtime representations into separate interned entries).
func IsRunSame(a, b Node) bool {
	a = TypeDcl(a)
	b = TypeDcl(b)

	if a == b {
		return true
	}
	if a.Tag() != b.Tag() {
		return false
	}

	switch a.Tag() {
	case RefTag, VirtRefTag:
		return refIsRunSame(a.(*RefNode), b.(*RefNode))
	case ArrayRefTag:
		return arrayRefIsRunSame(a.(*RefNode), b.(*RefNode))
	case PtrTag:
		return ptrIsSame(a.(*PtrNode), b.(*PtrNode))
	case ArrayTag:
		return arrayIsSame(a.(*ArrayNode), b.(*ArrayNode))
	case TTupleTag:
		return ttupleIsSame(a.(*TTupleNode), b.(*TTupleNode))
	case FnSigTag:
		return fnSigIsSame(a.(*FnSigNode), b.(*FnSigNode))
	case VoidTag:
		return true
	case PermTag:
		return true
	case UintNbrTag, IntNbrTag, FloatNbrTag:
		return a.(*NbrNode).Name == b.(*NbrNode).Name
	default:
		return false
	}
}

func ptrIsSame(a, b *PtrNode) bool    { return IsSame(a.VTExp, b.VTExp) }
func arrayIsSame(a, b *ArrayNode) bool {
	return a.Dim == b.Dim && IsSame(a.Elem, b.Elem)
}
func ttupleIsSame(a, b *TTupleNode) bool {
	if len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Elements {
		if !IsSame(a.Elements[i], b.Elements[i]) {
			return false
		}
	}
	return true
}
func fnSigIsSame(a, b *FnSigNode) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !IsSame(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return IsSame(a.Returns, b.Returns)
}

// Hash is iTypeHash: references and array-refs combine djb2-style hashes
// of their components; pointers hash their referent; every static
// permission hashes identically; everything else hashes its normalized
// declaration identity.
func Hash(node Node) uint64 {
	dcl := TypeDcl(node)
	switch dcl.Tag() {
	case RefTag, VirtRefTag:
		return refHash(dcl.(*RefNode))
	case ArrayRefTag:
		return arrayRefHash(dcl.(*RefNode))
	case PtrTag:
		return Hash(dcl.(*PtrNode).VTExp)
	case PermTag:
		return 1 // every static permission hashes to the same bucket
	case UintNbrTag, IntNbrTag, FloatNbrTag:
		// Numeric types are the same when their names match, so hash the name.
		hash := uint64(5381)
		for _, c := range []byte(dcl.(*NbrNode).Name) {
			hash = ((hash << 5) + hash) ^ uint64(c)
		}
		return hash
	default:
		return identityHash(dcl)
	}
}

// identityHash turns a node's pointer identity into a hash, discarding the
// low bits a pointer's alignment guarantees are always zero.
func identityHash(n Node) uint64 {
	return uint64(reflect.ValueOf(n).Pointer()) >> 3
}

// IsConcrete reports whether a type has a concrete, instantiable value,
// which here means only that it does not carry the Opaque flag.
func IsConcrete(t Node) bool {
	return !TypeDcl(t).HasFlag(OpaqueFlag)
}

// IsZeroSize reports whether a type carries the ZeroSize flag. The flag is
// not derived here: Void and empty structs report true only if it was set.
func IsZeroSize(t Node) bool {
	return TypeDcl(t).HasFlag(ZeroSizeFlag)
}

// IsMove reports whether a type implements move (linear, non-alias) semantics.
func IsMove(t Node) bool {
	return TypeDcl(t).HasFlag(MoveFlag)
}
