package fontcache

import "sync"

// Span addresses a contiguous byte range inside an Arena.
type Span struct {
	Start, End int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Arena is append-only byte storage for raw font file contents.
// Subslices handed out by Bytes remain valid for the life of the
// process: spans are never freed, moved, or overwritten, and appends
// that grow the backing store leave previously returned slices aliased
// to the old backing array, which the garbage collector keeps alive.
//
// Arena is safe for concurrent use.
type Arena struct {
	mu   sync.RWMutex
	data []byte
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Append copies b into the arena and returns the span addressing it.
func (a *Arena) Append(b []byte) Span {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := len(a.data)
	a.data = append(a.data, b...)
	return Span{Start: start, End: len(a.data)}
}

// Bytes returns the bytes addressed by span. The returned slice must
// not be modified.
func (a *Arena) Bytes(span Span) []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data[span.Start:span.End:span.End]
}

// Size returns the total number of bytes stored.
func (a *Arena) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}
