package ir

// RefKind distinguishes the three reference shapes.
type RefKind uint8

const (
	PlainRef RefKind = iota
	VirtualRef
	ArrayRef
)

// RefNode aggregates a reference's three orthogonal components: region,
// permission, and referent value type. VirtRef additionally carries the
// runtime vtable the vtable matcher (internal/vtable) attaches once a
// Ref→VirtRef coercion is accepted; ArrayRef's Len is meaningful only after
// the array-ref companion is built from a sized array type.
type RefNode struct {
	Header
	Kind   RefKind
	Region *RegionNode
	Perm   *PermNode
	VTExp  Node // the referent value type

	// Deref is the companion Deref/ArrayDeref form produced when this
	// reference is dereferenced; built lazily by the type checker.
	Deref Node

	// Vtable is populated by internal/vtable when Kind == VirtualRef and a
	// Ref→VirtRef coercion has been accepted for this exact node.
	Vtable []*FnDcl
}

// NewRef constructs a reference node with Region defaulted to Borrow and
// Perm to RoPerm; callers fill in the real values once they're known.
func NewRef(kind RefKind, tag Tag) *RefNode {
	return &RefNode{
		Header: Header{NodeTag: tag},
		Kind:   kind,
		Region: Borrow,
		Perm:   RoPerm,
		VTExp:  Unknown,
	}
}

// IsValid checks a reference's basic shape invariant: a VirtRef's referent
// must be a struct.
func (r *RefNode) IsValid() bool {
	if r.Kind != VirtualRef {
		return true
	}
	dcl := TypeDcl(r.VTExp)
	s, ok := dcl.(*StructNode)
	return ok && s != nil
}

// refIsSame is the structural-identity test feeding iTypeIsSame for both
// Ref and VirtRef nodes.
func refIsSame(a, b *RefNode) bool {
	return IsSame(a.VTExp, b.VTExp) && PermIsSame(a.Perm, b.Perm) && regionIsSame(a.Region, b.Region)
}

func refIsRunSame(a, b *RefNode) bool {
	return IsSame(a.VTExp, b.VTExp) && IsRunSame(a.Perm, b.Perm) && IsRunSame(a.Region, b.Region)
}

func regionIsSame(a, b *RegionNode) bool {
	return a == b || (a != nil && b != nil && a.IsBorrow() == b.IsBorrow() && a.Decl == b.Decl)
}

// refHash combines djb2-style hashes of region, permission, and referent.
// It hashes the referent (VTExp) rather than the reference's own inferred
// value type, so that IsRunSame(a,b) implies Hash(a) == Hash(b) for every
// pair of references — hashing the inferred type instead would collapse
// that guarantee, since the inferred type is almost always the reference
// itself once normalized.
func refHash(r *RefNode) uint64 {
	hash := uint64(5381) + uint64(r.NodeTag)
	hash = ((hash << 5) + hash) ^ Hash(r.Region)
	hash = ((hash << 5) + hash) ^ Hash(r.Perm)
	return ((hash << 5) + hash) ^ Hash(r.VTExp)
}

// arrayRefIsSame/arrayRefIsRunSame/arrayRefHash reuse the same logic:
// an ArrayRef is a RefNode with Kind == ArrayRef, so they delegate.
func arrayRefIsSame(a, b *RefNode) bool    { return refIsSame(a, b) }
func arrayRefIsRunSame(a, b *RefNode) bool { return refIsRunSame(a, b) }
func arrayRefHash(r *RefNode) uint64       { return refHash(r) }

// NewDeref returns the companion Deref node for a plain or virtual
// reference: same region/perm/referent, tagged as the dereferenced form.
func NewDeref(r *RefNode) *RefNode {
	tag := DerefRefTag
	if r.Kind == ArrayRef {
		tag = ArrayDerefRefTag
	}
	return &RefNode{
		Header: Header{NodeTag: tag},
		Kind:   r.Kind,
		Region: r.Region,
		Perm:   r.Perm,
		VTExp:  r.VTExp,
	}
}
