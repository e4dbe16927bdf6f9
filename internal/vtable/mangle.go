// Package vtable builds the method dispatch table attached to a trait's
// type-info whenever a Ref→VirtRef coercion is accepted.
package vtable

import (
	"strings"

	"github.com/dccarter/cone/internal/ir"
)

// Mangle renders a type's mangled signature fragment: named types print
// their name; references/array-refs/virtual-refs are prefixed with
// '&'/'+'/'<' and their non-default permission; pointers are prefixed
// with '*'; numeric kinds collapse to a single letter ('u'/'i'/'f').
func Mangle(t ir.Node) string {
	var b strings.Builder
	mangle(&b, t)
	return b.String()
}

func mangle(b *strings.Builder, t ir.Node) {
	switch n := ir.TypeDcl(t).(type) {
	case *ir.StructNode:
		b.WriteString(n.DeclName())
	case *ir.NbrNode:
		switch n.Tag() {
		case ir.UintNbrTag:
			b.WriteByte('u')
		case ir.IntNbrTag:
			b.WriteByte('i')
		case ir.FloatNbrTag:
			b.WriteByte('f')
		}
	case *ir.RefNode:
		switch n.Kind {
		case ir.VirtualRef:
			b.WriteByte('<')
		case ir.ArrayRef:
			b.WriteByte('+')
		default:
			b.WriteByte('&')
		}
		if !ir.PermIsSame(n.Perm, ir.RoPerm) {
			mangle(b, n.Perm)
			b.WriteByte(' ')
		}
		mangle(b, n.VTExp)
	case *ir.PtrNode:
		b.WriteByte('*')
		mangle(b, n.VTExp)
	case *ir.PermNode:
		b.WriteString(n.Name)
	case *ir.FnSigNode:
		b.WriteByte('(')
		for i, p := range n.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			mangle(b, p)
		}
		b.WriteByte(')')
		mangle(b, n.Returns)
	default:
		b.WriteByte('?')
	}
}
