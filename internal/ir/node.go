// Package ir is the shared node graph every pass in this repository walks
// and annotates. It never rebuilds the tree handed to it by the (external)
// parser; each pass only mutates headers and links in place. Every node
// carries a tag, a flag bitset, a source position, and — for
// expressions — an inferred value type that starts out unknown and is
// filled in by the type checker.
package ir

import "github.com/dccarter/cone/internal/logger"

// Tag discriminates every node family: expressions, declarations, and types
// share one flat enumeration so a single exhaustive switch over Tag can
// dispatch any pass.
type Tag uint16

const (
	// Expression nodes
	UintLitTag Tag = iota
	FloatLitTag
	StringLitTag
	NilLitTag
	NameUseTag     // unresolved name use (ambiguous)
	VarNameUseTag  // resolved to a variable/constant declaration
	TypeNameUseTag // resolved to a type declaration
	FieldNameUseTag
	FieldUseTag // a.b field access expression
	DerefTag
	ElementTag // a[i]
	AddrTag    // &a
	AllocateTag
	BorrowTag
	AssignTag
	FnCallTag
	BlockTag
	ReturnTag
	BreakTag
	ContinueTag
	LoopTag
	TupleTag
	ArrayLitTag
	ConvTag // explicit conversion node inserted for a ConvSubtype coercion

	// Declaration nodes
	VarDclTag
	ConstDclTag
	FnDclTag
	NamedTypeDclTag
	TypedefTag
	GenericParamDclTag
	MacroDclTag
	ModuleTag
	ProgramTag
	ImportTag

	// Type nodes
	UintNbrTag
	IntNbrTag
	FloatNbrTag
	StructTag
	FnSigTag
	TTupleTag
	ArrayTag
	RefTag
	VirtRefTag
	ArrayRefTag
	DerefRefTag
	ArrayDerefRefTag
	PtrTag
	PermTag
	RegionTag
	VoidTag
	UnknownTypeTag
)

var tagNames = [...]string{
	UintLitTag: "UintLit", FloatLitTag: "FloatLit", StringLitTag: "StringLit", NilLitTag: "NilLit",
	NameUseTag: "NameUse", VarNameUseTag: "VarNameUse", TypeNameUseTag: "TypeNameUse", FieldNameUseTag: "FieldNameUse",
	FieldUseTag: "FieldUse", DerefTag: "Deref", ElementTag: "Element", AddrTag: "Addr", AllocateTag: "Allocate",
	BorrowTag: "Borrow", AssignTag: "Assign", FnCallTag: "FnCall", BlockTag: "Block", ReturnTag: "Return",
	BreakTag: "Break", ContinueTag: "Continue", LoopTag: "Loop", TupleTag: "Tuple", ArrayLitTag: "ArrayLit",
	ConvTag: "Conv", VarDclTag: "VarDcl", ConstDclTag: "ConstDcl", FnDclTag: "FnDcl", NamedTypeDclTag: "NamedTypeDcl",
	TypedefTag: "Typedef", GenericParamDclTag: "GenericParamDcl", MacroDclTag: "MacroDcl", ModuleTag: "Module",
	ProgramTag: "Program", ImportTag: "Import", UintNbrTag: "UintNbr", IntNbrTag: "IntNbr", FloatNbrTag: "FloatNbr",
	StructTag: "Struct", FnSigTag: "FnSig", TTupleTag: "TTuple", ArrayTag: "Array", RefTag: "Ref",
	VirtRefTag: "VirtRef", ArrayRefTag: "ArrayRef", DerefRefTag: "DerefRef", ArrayDerefRefTag: "ArrayDerefRef",
	PtrTag: "Ptr", PermTag: "Perm", RegionTag: "Region", VoidTag: "Void", UnknownTypeTag: "UnknownType",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) && tagNames[t] != "" {
		return tagNames[t]
	}
	return "Tag(?)"
}

// IsTypeTag reports whether a tag belongs to the type-node family.
func (t Tag) IsTypeTag() bool {
	return t >= UintNbrTag && t <= UnknownTypeTag
}

// Flag is the per-node property bitset.
type Flag uint32

const (
	OpaqueFlag Flag = 1 << iota
	ZeroSizeFlag
	MoveFlag
	ThreadBoundFlag
	TraitTypeFlag
	SameSizeFlag
	HasTagFieldFlag
)

// Header is embedded by every concrete node type. It supplies the Node
// interface for free through Go's method promotion.
type Header struct {
	NodeTag   Tag
	NodeFlags Flag
	Pos       logger.Loc
}

func (h *Header) Tag() Tag              { return h.NodeTag }
func (h *Header) Loc() logger.Loc       { return h.Pos }
func (h *Header) Flags() Flag           { return h.NodeFlags }
func (h *Header) HasFlag(f Flag) bool   { return h.NodeFlags&f != 0 }
func (h *Header) AddFlag(f Flag)        { h.NodeFlags |= f }
func (h *Header) ClearFlag(f Flag)      { h.NodeFlags &^= f }

// Node is implemented by every IR entity: expressions, declarations, and
// types alike.
type Node interface {
	Tag() Tag
	Loc() logger.Loc
	Flags() Flag
	HasFlag(Flag) bool
	AddFlag(Flag)
}

// ExprHeader is embedded by expression nodes; it adds the inferred value
// type slot every expression carries once type checking completes.
type ExprHeader struct {
	Header
	VType Node
}

func (e *ExprHeader) ValueType() Node        { return e.VType }
func (e *ExprHeader) SetValueType(t Node)    { e.VType = t }
func (e *ExprHeader) HasValueType() bool     { return e.VType != nil && e.VType.Tag() != UnknownTypeTag }

// Typed is implemented by any node carrying an inferred value type.
type Typed interface {
	Node
	ValueType() Node
	SetValueType(Node)
}

// Unknown is the sentinel value type every freshly parsed expression and
// every not-yet-inferred reference referent starts out pointing at.
var Unknown Node = &unknownNode{Header{NodeTag: UnknownTypeTag}}

type unknownNode struct{ Header }

// IsUnknown reports whether n is the Unknown sentinel (nil also counts,
// since a field that was never touched behaves the same way).
func IsUnknown(n Node) bool {
	return n == nil || n.Tag() == UnknownTypeTag
}
