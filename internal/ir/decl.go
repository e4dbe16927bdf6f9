package ir

// Decl is implemented by every node that introduces a name into a scope:
// variables, constants, functions, named types, typedefs, generic
// parameters, macros, and modules/imports all participate in name hooking.
type Decl interface {
	Node
	DeclName() string
}

// DeclHeader supplies the hook-stack back-pointers every named declaration
// needs: prevname (the previous occupant of this global name, restored on
// unhook) and hooklink (the next sibling hooked under the same owning
// scope, so a scope's unhook can walk and pop its whole hooked set in one
// pass).
type DeclHeader struct {
	Header
	Name     string
	Scope    int // lexical nesting depth at declaration
	PrevName Decl
	HookLink Decl
}

func (d *DeclHeader) DeclName() string { return d.Name }

// Hook-chain accessors: SetPrevName/PrevNameOf implement
// shadowing-restore on unhook, SetHookLink/HookLinkOf implement the
// same-scope sibling chain a scope walks to unhook everything it hooked.
func (d *DeclHeader) SetPrevName(prev Decl) { d.PrevName = prev }
func (d *DeclHeader) PrevNameOf() Decl      { return d.PrevName }
func (d *DeclHeader) SetHookLink(next Decl) { d.HookLink = next }
func (d *DeclHeader) HookLinkOf() Decl      { return d.HookLink }

// NameUseNode is a name reference before (or, structurally, when it fails)
// resolution. Resolved uses are represented by NameUseNode too — only the
// header's tag changes, from NameUseTag to one of VarNameUseTag /
// TypeNameUseTag / FieldNameUseTag — with Decl then non-nil.
type NameUseNode struct {
	ExprHeader
	Text string // the identifier text, before resolution
	Decl Decl   // bound declaration, nil until resolved
}

// TypedefNode names an existing type under a new name; iTypeGetTypeDcl
// transparently unwraps it, exactly like NameUseNode.
type TypedefNode struct {
	DeclHeader
	TypeVal Node
}

// VarDcl is a variable or constant declaration (ConstDclTag reuses the same
// shape with the tag distinguishing mutability intent).
type VarDcl struct {
	DeclHeader
	VType Node // declared type, possibly Unknown pending inference
	Perm  *PermNode
	Value Node // initializer expression, nil if none

	// Flow-analysis state, set by the flow pass and left in place after it
	// (Clone resets Initialized and Moved on a copy).
	Initialized bool
	Moved       bool
	BorrowScope int // lexical scope this variable was declared in, as recorded by the flow pass
}

// ParamDcl is a function parameter: a VarDcl plus an optional default.
type ParamDcl struct {
	VarDcl
	Default Node
}

// FnDcl is a function (or method) declaration.
type FnDcl struct {
	DeclHeader
	Params   []*ParamDcl
	Returns  Node
	Body     Node // BlockExpr, nil for declarations without a body
	IsMethod bool
	Owner    *StructNode // enclosing type, for methods

	// GenericInfo is non-nil for an uninstantiated generic function: the
	// passes skip its body. Clone can build a substituted copy of it; no
	// pass in this repository performs that instantiation.
	GenericInfo *GenericInfo
}

func (f *FnDcl) Signature() *FnSigNode {
	params := make([]Node, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.VType
	}
	ret := f.Returns
	if ret == nil {
		ret = Void
	}
	return &FnSigNode{Header: Header{NodeTag: FnSigTag}, Params: params, Returns: ret}
}

// GenericInfo carries a generic function's parameter list, uninstantiated.
type GenericInfo struct {
	Params []*GenericParamDcl
}

// GenericParamDcl is a single generic type parameter.
type GenericParamDcl struct {
	DeclHeader
	Bound Node // trait/structural bound, nil if unconstrained
}

// NamedTypeDcl wraps a type node (struct, trait, numeric, ...) under a
// declared name, giving it identity in the global name table.
type NamedTypeDcl struct {
	DeclHeader
	TypeVal Node
}

// MacroDcl is an (unexpanded by this core; macro expansion is parser-domain)
// macro declaration — retained only so name hooking and module listing stay
// total over every declaration kind.
type MacroDcl struct {
	DeclHeader
	Body Node
}

// ImportDcl names another module to bring into scope. FoldAll marks a
// "foldall" import: when set, the imported module's exports splice
// directly into the importing scope instead of being qualified.
type ImportDcl struct {
	DeclHeader
	ModulePath string
	FoldAll    bool
	Resolved   *ModuleNode
}

// ModuleNode owns an ordered list of top-level declarations.
type ModuleNode struct {
	DeclHeader
	Decls []Decl
}

// ProgramNode is the root: a Program node containing Module nodes.
type ProgramNode struct {
	Header
	Modules []*ModuleNode
}
