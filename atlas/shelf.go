package atlas

// ShelfAllocator packs rectangles into a fixed-size area using
// horizontal shelves. Glyph bitmaps within one text run cluster around
// a few heights, which shelf packing handles well with very little
// bookkeeping.
//
// Rectangles are placed left to right on the current shelf; when a
// rectangle does not fit, a new shelf is opened below. Allocations are
// permanent: there is no free operation, matching the cache's
// no-eviction design.
type ShelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

// shelf is one horizontal strip.
type shelf struct {
	y      int // top of the strip
	height int // tallest rectangle placed so far
	x      int // next free x position
}

// NewShelfAllocator creates an allocator for a width x height area
// with the given padding between rectangles.
func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	return &ShelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// Allocate reserves a w x h rectangle and returns its top-left corner.
// Returns ok == false when no space remains; the allocator is
// unchanged in that case.
func (a *ShelfAllocator) Allocate(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 {
		return -1, -1, false
	}
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			// Taller than the shelf. The last shelf may grow downward
			// if there is room; interior shelves are fixed.
			if i == len(a.shelves)-1 && s.y+paddedH <= a.height {
				s.height = h
				x, y = s.x, s.y
				s.x += paddedW
				a.usedArea += w * h
				return x, y, true
			}
			continue
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height || paddedW > a.width {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// CanFit reports whether a w x h rectangle could currently be placed,
// without allocating.
func (a *ShelfAllocator) CanFit(w, h int) bool {
	paddedW := w + a.padding
	paddedH := h + a.padding
	if paddedW > a.width || paddedH > a.height {
		return false
	}
	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h <= s.height {
			return true
		}
		if i == len(a.shelves)-1 && s.y+paddedH <= a.height {
			return true
		}
	}
	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	return newY+paddedH <= a.height
}

// Utilization returns the fraction of the area covered by allocated
// rectangles, 0 to 1.
func (a *ShelfAllocator) Utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}

// ShelfCount returns the number of shelves opened so far.
func (a *ShelfAllocator) ShelfCount() int { return len(a.shelves) }
