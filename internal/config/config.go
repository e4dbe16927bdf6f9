// Package config holds the opaque options struct the core receives from
// the CLI plus the handful of pass-level toggles that fall out of it.
// The core never parses these itself; cmd/conec assembles one Options
// value and hands it to pipeline.Compile.
package config

// PtrSize is the address width used to size usize/isize and to decide
// pointer-sized struct layout; only 4 and 8 are meaningful.
type PtrSize int32

const (
	PtrSize32 PtrSize = 4
	PtrSize64 PtrSize = 8
)

// Options is the Go-native rendering of ConeOptions: the input the
// lexer/parser/backend and stdlib initialization all consume, and that the
// semantic core treats as an opaque bag of knobs.
type Options struct {
	// PtrSize sizes usize/isize and pointer-backed reference layout.
	PtrSize PtrSize

	// SourcePath is the entry module's path, used only for diagnostics
	// and relative-import resolution (both out of this core's scope).
	SourcePath string

	// OutputPath is where the backend (out of scope) will write.
	OutputPath string

	// EmitVtables, when false, still runs the vtable & trait matcher for
	// its type-checking side effects but skips attaching the
	// synthesized table to the trait's type-info.
	EmitVtables bool

	// EmitDealiasTrace asks the flow analyzer to record dealias lists
	// even when the caller has no backend to consume them;
	// useful for tests that assert on dealias contents directly.
	EmitDealiasTrace bool
}

// Default returns the options a freestanding 64-bit target compiles with.
func Default() Options {
	return Options{
		PtrSize:          PtrSize64,
		EmitVtables:      true,
		EmitDealiasTrace: true,
	}
}
