package ir

// Arena is the append-only allocation context nodes live in for the
// duration of one compilation. There is
// no per-node deallocation; the arena (and everything it produced) is
// dropped together when a Context goes out of scope.
type Arena struct {
	count int
}

// NewArena returns a fresh, empty allocation context.
func NewArena() *Arena {
	return &Arena{}
}

// track counts one node toward Count, purely for bookkeeping (tests assert
// on it); Go's allocator does the actual work. The New* constructors in
// this package do not call it.
func (a *Arena) track() {
	a.count++
}

// Count returns how many nodes this arena has produced so far.
func (a *Arena) Count() int { return a.count }
