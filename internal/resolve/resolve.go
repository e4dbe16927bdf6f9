// Package resolve implements name resolution: every name-use
// node is replaced — in place, by retagging and linking — with a direct
// pointer to its declaration, across nested scopes and modules.
package resolve

import (
	"fmt"

	"github.com/dccarter/cone/internal/diag"
	"github.com/dccarter/cone/internal/ir"
	"github.com/dccarter/cone/internal/logger"
	"github.com/dccarter/cone/internal/names"
)

// Resolver carries the shared name table and error sink through one
// resolution pass. It is constructed per-Context.
type Resolver struct {
	Table  *names.Table
	Log    logger.Log
	Source *logger.Source
}

// New returns a resolver. Call ResolveProgram to hook a program's modules
// and resolve their bodies; it auto-imports the core library's built-in
// permission names into the shared scope before doing either.
func New(table *names.Table, log logger.Log, source *logger.Source) *Resolver {
	return &Resolver{Table: table, Log: log, Source: source}
}

// ResolveProgram runs name resolution over every module in definition
// order, pre-hooking every module's top-level declarations into one shared
// scope before visiting any body, so forward references both within a
// module and across modules resolve. The core library's permission names
// (mut, imm, const, ...) are hooked into that same scope first, auto-
// imported into every module except one literally named "core", which
// defines them itself.
func (r *Resolver) ResolveProgram(prog *ir.ProgramNode) {
	r.Table.PushScope()
	defer r.Table.PopScope()

	r.hookCoreExports(prog)
	for _, mod := range prog.Modules {
		r.hookModuleDecls(mod)
	}
	for _, mod := range prog.Modules {
		r.resolveModule(mod)
	}
}

// hookCoreExports auto-imports the core library's built-in permission
// names into the shared program scope, unless one of the modules being
// resolved is core itself.
func (r *Resolver) hookCoreExports(prog *ir.ProgramNode) {
	for _, mod := range prog.Modules {
		if mod.DeclName() == "core" {
			return
		}
	}
	for _, p := range ir.AllPerms {
		r.Table.Hook(p)
	}
}

func (r *Resolver) hookModuleDecls(mod *ir.ModuleNode) {
	for _, d := range mod.Decls {
		r.Table.Hook(d)
	}
}

func (r *Resolver) resolveModule(mod *ir.ModuleNode) {
	for _, d := range mod.Decls {
		r.resolveDecl(d)
	}
}

func (r *Resolver) resolveDecl(d ir.Decl) {
	switch n := d.(type) {
	case *ir.ImportDcl:
		r.resolveImport(n)
	case *ir.VarDcl:
		r.resolveType(&n.VType)
		if n.Value != nil {
			r.resolveExpr(&n.Value)
		}
	case *ir.NamedTypeDcl:
		r.resolveType(&n.TypeVal)
	case *ir.TypedefNode:
		r.resolveType(&n.TypeVal)
	case *ir.StructNode:
		for _, f := range n.Fields {
			r.resolveType(&f.Type)
		}
		for _, m := range n.Methods {
			r.resolveFn(m)
		}
	case *ir.FnDcl:
		r.resolveFn(n)
	case *ir.MacroDcl:
		// Macro expansion is parser-domain; nothing to resolve here.
	}
}

// resolveImport splices a foldall import's exports directly into the
// current scope; a plain import only records its target.
func (r *Resolver) resolveImport(imp *ir.ImportDcl) {
	if imp.Resolved == nil || !imp.FoldAll {
		return
	}
	for _, d := range imp.Resolved.Decls {
		r.Table.Hook(d)
	}
}

func (r *Resolver) resolveFn(fn *ir.FnDcl) {
	if fn.GenericInfo != nil {
		// Uninstantiated generics carry GenericInfo and are skipped
		// entirely until instantiation clones them with it resolved.
		return
	}

	r.Table.PushScope()
	defer r.Table.PopScope()

	for _, p := range fn.Params {
		r.resolveType(&p.VType)
		if p.Default != nil {
			r.resolveExpr(&p.Default)
		}
		r.Table.Hook(p)
	}
	r.resolveType(&fn.Returns)

	if fn.Body != nil {
		r.resolveExpr(&fn.Body)
	}
}

// resolveType resolves a name-use appearing in type position, retagging it
// TypeNameUseTag.
func (r *Resolver) resolveType(slot *ir.Node) {
	r.resolveNameIn(slot, ir.TypeNameUseTag)
	switch n := (*slot).(type) {
	case *ir.RefNode:
		r.resolveType(&n.VTExp)
	case *ir.PtrNode:
		r.resolveType(&n.VTExp)
	case *ir.ArrayNode:
		r.resolveType(&n.Elem)
	case *ir.TTupleNode:
		for i := range n.Elements {
			r.resolveType(&n.Elements[i])
		}
	case *ir.FnSigNode:
		for i := range n.Params {
			r.resolveType(&n.Params[i])
		}
		r.resolveType(&n.Returns)
	}
}

// resolveExpr walks an expression tree, resolving every name-use it finds.
func (r *Resolver) resolveExpr(slot *ir.Node) {
	if *slot == nil {
		return
	}
	r.resolveNameIn(slot, ir.VarNameUseTag)

	switch n := (*slot).(type) {
	case *ir.FieldUseExpr:
		r.resolveExpr(&n.Recv)
	case *ir.DerefExpr:
		r.resolveExpr(&n.Target)
	case *ir.ElementExpr:
		r.resolveExpr(&n.Target)
		r.resolveExpr(&n.Index)
	case *ir.AddrExpr:
		r.resolveExpr(&n.Target)
	case *ir.AllocateExpr:
		r.resolveType(&n.Region)
		r.resolveExpr(&n.Value)
	case *ir.BorrowExpr:
		r.resolveExpr(&n.Target)
	case *ir.AssignExpr:
		r.resolveExpr(&n.Lval)
		r.resolveExpr(&n.Rval)
	case *ir.FnCallExpr:
		r.resolveExpr(&n.Callee)
		for i := range n.Args {
			r.resolveExpr(&n.Args[i])
		}
	case *ir.BlockExpr:
		r.Table.PushScope()
		defer r.Table.PopScope()
		for i, s := range n.Stmts {
			if vd, ok := s.(*ir.VarDcl); ok {
				r.resolveType(&vd.VType)
				if vd.Value != nil {
					r.resolveExpr(&vd.Value)
				}
				r.Table.Hook(vd)
				continue
			}
			r.resolveExpr(&n.Stmts[i])
		}
	case *ir.ReturnExpr:
		if n.Value != nil {
			r.resolveExpr(&n.Value)
		}
	case *ir.LoopExpr:
		r.resolveExpr(&n.Body)
	case *ir.BreakExpr:
		if n.Value != nil {
			r.resolveExpr(&n.Value)
		}
	case *ir.ContinueExpr, *ir.UintLit, *ir.FloatLit, *ir.StringLit, *ir.NilLit:
		// leaves
	case *ir.TupleExpr:
		for i := range n.Elements {
			r.resolveExpr(&n.Elements[i])
		}
	case *ir.ArrayLitExpr:
		if n.Dim != nil {
			r.resolveExpr(&n.Dim)
		}
		for i := range n.Elements {
			r.resolveExpr(&n.Elements[i])
		}
	}
}

// resolveNameIn replaces *slot with a direct link when it is an
// unresolved NameUseNode, retagging it to the given "use" tag. Anything
// else (already-resolved, or not a name at all) is left untouched — e.g.
// field-use names are resolved later by the type checker against the
// receiver's concrete type, since field membership isn't visible to a
// context-free name lookup.
func (r *Resolver) resolveNameIn(slot *ir.Node, asTag ir.Tag) {
	use, ok := (*slot).(*ir.NameUseNode)
	if !ok || use.Tag() != ir.NameUseTag {
		return
	}
	decl := r.Table.Lookup(use.Text)
	if decl == nil {
		r.Log.AddError(r.Source, use.Loc(), fmt.Sprintf("%s: undefined name %q", diag.BadTerm, use.Text))
		return
	}
	use.Decl = decl
	use.NodeTag = asTag
}
