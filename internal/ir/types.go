package ir

// Void is the singleton void type; iTypeIsSame treats any two Void nodes
// as equal regardless of identity.
var Void Node = &voidNode{Header{NodeTag: VoidTag}}

type voidNode struct{ Header }

// NbrNode is a numeric primitive type: uint<N>, int<N>, or float<N>. Name
// matching (not structural recursion) is what makes two numeric types
// the same.
type NbrNode struct {
	Header
	Name string
	Bits uint16
}

func (n *NbrNode) DeclName() string { return n.Name }

// StructNode models both plain structs and traits: a trait is a struct
// with the TraitType flag set. Tagged-union traits additionally
// carry HasTagField.
type StructNode struct {
	DeclHeader
	Fields  []*FieldDecl
	Methods []*FnDcl
	Base    *StructNode // nominal supertype, if any
}

func (s *StructNode) IsTrait() bool { return s.HasFlag(TraitTypeFlag) }

// FieldDecl is a struct field: a name and its declared type.
type FieldDecl struct {
	Header
	Name string
	Type Node
}

func (f *FieldDecl) DeclName() string { return f.Name }

// FnSigNode is a function signature type: ordered parameter types plus a
// return type (Void if none).
type FnSigNode struct {
	Header
	Params  []Node
	Returns Node
}

// TTupleNode is a tuple *type* (as opposed to TupleExpr, a tuple value).
type TTupleNode struct {
	Header
	Elements []Node
}

// ArrayNode is array<N, T>.
type ArrayNode struct {
	Header
	Dim  int64
	Elem Node
}

// PtrNode is a raw pointer type: permission and region stripped, referent
// only.
type PtrNode struct {
	Header
	VTExp Node
}

// RegionNode names a user struct usable as an allocator/region, or is the
// process-wide Borrow sentinel. A region is itself a type node.
type RegionNode struct {
	Header
	Name string
	Decl *StructNode // nil for the Borrow sentinel
}

func (r *RegionNode) DeclName() string { return r.Name }

// Borrow is the sentinel region every borrowed reference carries.
var Borrow = &RegionNode{Header: Header{NodeTag: RegionTag}, Name: "borrow"}

// IsBorrow reports whether r is the borrow sentinel region.
func (r *RegionNode) IsBorrow() bool { return r == Borrow }
