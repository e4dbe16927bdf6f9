package ir

// CloneSubst maps a generic parameter declaration to the concrete type
// substituted for it at one instantiation site.
type CloneSubst struct {
	Subst map[*GenericParamDcl]Node
}

// Clone deep-clones a node with generic-parameter substitutions applied:
// a deep copy of the declaration's body with every use of a generic
// parameter replaced by its concrete substitution, ready for normal passes
// to run over as if it had been written that way directly. Only the node
// kinds that can actually appear inside a generic function's body are
// covered (expressions, var/const
// declarations, and the reference/array/tuple/fnsig type nodes a body can
// reference); module/program/import nodes can never be reached from a
// clone root and panic with an internal-error marker if they are, rather
// than being silently mishandled.
func Clone(cs *CloneSubst, node Node) Node {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *GenericParamDcl:
		if repl, ok := cs.Subst[n]; ok {
			return repl
		}
		return n

	// Expressions
	case *UintLit:
		c := *n
		return &c
	case *FloatLit:
		c := *n
		return &c
	case *StringLit:
		c := *n
		return &c
	case *NilLit:
		c := *n
		return &c
	case *NameUseNode:
		c := *n
		if repl, ok := cs.Subst[asGenericParam(n.Decl)]; ok {
			return repl
		}
		c.VType = Clone(cs, n.VType)
		return &c
	case *FieldUseExpr:
		c := *n
		c.Recv = Clone(cs, n.Recv)
		c.VType = Clone(cs, n.VType)
		return &c
	case *DerefExpr:
		c := *n
		c.Target = Clone(cs, n.Target)
		c.VType = Clone(cs, n.VType)
		return &c
	case *ElementExpr:
		c := *n
		c.Target = Clone(cs, n.Target)
		c.Index = Clone(cs, n.Index)
		c.VType = Clone(cs, n.VType)
		return &c
	case *AddrExpr:
		c := *n
		c.Target = Clone(cs, n.Target)
		c.VType = Clone(cs, n.VType)
		return &c
	case *AllocateExpr:
		c := *n
		c.Region = Clone(cs, n.Region)
		c.Value = Clone(cs, n.Value)
		c.VType = Clone(cs, n.VType)
		return &c
	case *BorrowExpr:
		c := *n
		c.Target = Clone(cs, n.Target)
		c.VType = Clone(cs, n.VType)
		return &c
	case *AssignExpr:
		c := *n
		c.Lval = Clone(cs, n.Lval)
		c.Rval = Clone(cs, n.Rval)
		c.VType = Clone(cs, n.VType)
		c.Dealias = nil
		return &c
	case *FnCallExpr:
		c := *n
		c.Callee = Clone(cs, n.Callee)
		c.Args = cloneSlice(cs, n.Args)
		c.VType = Clone(cs, n.VType)
		return &c
	case *BlockExpr:
		c := *n
		c.Stmts = cloneSlice(cs, n.Stmts)
		c.VType = Clone(cs, n.VType)
		return &c
	case *ReturnExpr:
		c := *n
		c.Value = Clone(cs, n.Value)
		c.Dealias = nil
		return &c
	case *BreakExpr:
		c := *n
		c.Value = Clone(cs, n.Value)
		c.Dealias = nil
		return &c
	case *ContinueExpr:
		c := *n
		c.Dealias = nil
		return &c
	case *LoopExpr:
		c := *n
		c.Body = Clone(cs, n.Body)
		c.VType = Clone(cs, n.VType)
		return &c
	case *TupleExpr:
		c := *n
		c.Elements = cloneSlice(cs, n.Elements)
		c.VType = Clone(cs, n.VType)
		return &c
	case *ArrayLitExpr:
		c := *n
		c.Dim = Clone(cs, n.Dim)
		c.Elements = cloneSlice(cs, n.Elements)
		c.VType = Clone(cs, n.VType)
		return &c
	case *ConvExpr:
		c := *n
		c.Source = Clone(cs, n.Source)
		c.VType = Clone(cs, n.VType)
		return &c

	// Declarations reachable from a body
	case *VarDcl:
		c := *n
		c.VType = Clone(cs, n.VType)
		c.Value = Clone(cs, n.Value)
		c.Initialized = false
		c.Moved = false
		return &c

	// Type nodes a body can reference
	case *RefNode:
		c := *n
		c.VTExp = Clone(cs, n.VTExp)
		c.Deref = nil
		return &c
	case *ArrayNode:
		c := *n
		c.Elem = Clone(cs, n.Elem)
		return &c
	case *TTupleNode:
		c := *n
		c.Elements = cloneSlice(cs, n.Elements)
		return &c
	case *FnSigNode:
		c := *n
		c.Params = cloneSlice(cs, n.Params)
		c.Returns = Clone(cs, n.Returns)
		return &c
	case *PtrNode:
		c := *n
		c.VTExp = Clone(cs, n.VTExp)
		return &c

	// Nodes with no substructure to substitute into, or that are shared
	// immutable singletons: return as-is.
	case *NbrNode, *PermNode, *RegionNode, *StructNode, *voidNode, *unknownNode:
		return node

	case *ModuleNode, *ProgramNode, *ImportDcl:
		panic("ir: Clone called on a node kind unreachable from a generic function body: " + node.Tag().String())

	default:
		return node
	}
}

func cloneSlice(cs *CloneSubst, nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(cs, n)
	}
	return out
}

func asGenericParam(d Decl) *GenericParamDcl {
	gp, _ := d.(*GenericParamDcl)
	return gp
}
