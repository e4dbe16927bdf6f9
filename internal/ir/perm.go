package ir

// PermAttr is the attribute bitset every permission carries.
type PermAttr uint16

const (
	MayRead PermAttr = 1 << iota
	MayWrite
	MayAlias
	MayAliasWrite
	RaceSafe
	MayIntRef
	IsLockless
)

// PermNode is a named, first-class permission type value. The built-in set
// is fixed and interned once; user code never declares new ones.
type PermNode struct {
	Header
	Name  string
	Attrs PermAttr
}

func (p *PermNode) DeclName() string { return p.Name }

// Built-in permissions and their attribute bitsets. "opaq" and "ro" are
// aliases assigned below rather than distinct attribute sets.
var (
	MutPerm    = &PermNode{Header{NodeTag: PermTag}, "mut", MayRead | MayWrite | RaceSafe | MayIntRef | IsLockless}
	MmutPerm   = &PermNode{Header{NodeTag: PermTag}, "mmut", MayRead | MayWrite | MayAlias | MayAliasWrite | IsLockless}
	ImmPerm    = &PermNode{Header{NodeTag: PermTag}, "imm", MayRead | MayAlias | RaceSafe | MayIntRef | IsLockless}
	ConstPerm  = &PermNode{Header{NodeTag: PermTag}, "const", MayRead | MayAlias | IsLockless}
	ConstxPerm = &PermNode{Header{NodeTag: PermTag}, "constx", MayRead | MayAlias | MayIntRef | IsLockless}
	MutxPerm   = &PermNode{Header{NodeTag: PermTag}, "mutx", MayRead | MayWrite | MayAlias | MayIntRef | IsLockless}
	IdPerm     = &PermNode{Header{NodeTag: PermTag}, "id", MayAlias | RaceSafe | IsLockless}

	// Aliases: "opaq" names the permission used for opaque (function
	// signature) referents, "ro" names the default read-only permission a
	// borrow infers when none is given. opaq aliases imm; ro aliases const.
	OpaqPerm = ImmPerm
	RoPerm   = ConstPerm
)

// AllPerms lists the built-ins, used by the name table's auto-import of
// the core library.
var AllPerms = []*PermNode{MutPerm, MmutPerm, ImmPerm, ConstPerm, ConstxPerm, MutxPerm, IdPerm}

// PermIsSame is the structural equality used by iTypeIsSame/iTypeIsRunSame
// for permission nodes.
func PermIsSame(a, b *PermNode) bool {
	return a == b || (a != nil && b != nil && a.Attrs == b.Attrs && a.Name == b.Name)
}
