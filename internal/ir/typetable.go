package ir

// TypeTable interns reference, array-ref, and pointer types by structural
// hash. It is held on the shared compilation Context rather than a
// package global.
type TypeTable struct {
	buckets map[uint64][]Node
}

// NewTypeTable returns an empty, ready-to-use table.
func NewTypeTable() *TypeTable {
	return &TypeTable{buckets: make(map[uint64][]Node)}
}

// Intern returns the canonical node structurally identical (by
// IsRunSame/Hash) to node, inserting node itself as the canonical instance
// the first time its structural shape is seen.
func (t *TypeTable) Intern(node Node) Node {
	h := Hash(node)
	for _, existing := range t.buckets[h] {
		if IsRunSame(existing, node) {
			return existing
		}
	}
	t.buckets[h] = append(t.buckets[h], node)
	return node
}

// InternRef normalizes a reference (or virtual/array-ref) node through the
// table: building its Deref companion once, then returning the canonical
// shared node for its structural shape.
func (t *TypeTable) InternRef(r *RefNode) *RefNode {
	canonical := t.Intern(r)
	ref, ok := canonical.(*RefNode)
	if !ok {
		return r
	}
	if ref.Deref == nil {
		ref.Deref = NewDeref(ref)
	}
	return ref
}

// Len reports how many canonical nodes the table holds, summed over every
// hash bucket; used by tests asserting on interning behavior.
func (t *TypeTable) Len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}
