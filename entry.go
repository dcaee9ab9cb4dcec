package fontcache

// Revision is a font's head-table revision in 16.16 fixed point.
type Revision int32

// Float returns the revision as a floating-point number.
func (r Revision) Float() float64 { return float64(r) / 65536 }

// VariationAxis is one continuous design-space dimension of a variable
// font, such as weight or width.
type VariationAxis struct {
	Tag               string
	Min, Default, Max float32
}

// NamedInstance is a designer-chosen point in a variable font's design
// space with its own display name, e.g. "SemiBold Condensed".
type NamedInstance struct {
	Name string
	// Index is the instance's position in the font's instance list.
	Index int
	// Coords holds one design-space value per variation axis.
	Coords []float32
}

// fontEntry is one cataloged face. Entries are owned by the cache and
// mutated only under its lock; the public view is EntryRef.
type fontEntry struct {
	span      Span
	fileType  FontFileType
	faceIndex int

	family    string
	subfamily string
	revision  Revision
	axes      []VariationAxis
	instances []NamedInstance
	features  []string

	lazy lazyFontData
}

// ranksAbove reports whether candidate should replace incumbent for
// the same (family, subfamily) pair. More variation axes win, then
// more feature tags, then more named instances, then a higher
// revision. Equal on all counts keeps the incumbent.
func (e *fontEntry) ranksAbove(incumbent *fontEntry) bool {
	if len(e.axes) != len(incumbent.axes) {
		return len(e.axes) > len(incumbent.axes)
	}
	if len(e.features) != len(incumbent.features) {
		return len(e.features) > len(incumbent.features)
	}
	if len(e.instances) != len(incumbent.instances) {
		return len(e.instances) > len(incumbent.instances)
	}
	return e.revision > incumbent.revision
}

// EntryRef is a stable handle to one cached face. The zero value is
// invalid. Refs stay valid for the life of the cache; when an entry is
// replaced by a better duplicate, existing refs observe the new entry.
type EntryRef struct {
	cache *FontCache
	index int
}

// Index returns the entry's cache index.
func (r EntryRef) Index() int { return r.index }

// Valid reports whether the ref points at a live entry.
func (r EntryRef) Valid() bool {
	if r.cache == nil {
		return false
	}
	r.cache.mu.RLock()
	defer r.cache.mu.RUnlock()
	return r.index >= 0 && r.index < len(r.cache.entries)
}

// entry returns the underlying entry. Callers must hold the cache lock
// or tolerate a replaced entry appearing mid-read.
func (r EntryRef) entry() *fontEntry {
	r.cache.mu.RLock()
	defer r.cache.mu.RUnlock()
	return r.cache.entries[r.index]
}

// Family returns the face's family name.
func (r EntryRef) Family() string { return r.entry().family }

// Subfamily returns the face's subfamily name, possibly empty.
func (r EntryRef) Subfamily() string { return r.entry().subfamily }

// FullName returns "Family Subfamily", or just the family when the
// face has no subfamily.
func (r EntryRef) FullName() string {
	e := r.entry()
	if e.subfamily == "" {
		return e.family
	}
	return e.family + " " + e.subfamily
}

// Revision returns the face's head-table revision.
func (r EntryRef) Revision() Revision { return r.entry().revision }

// FaceIndex returns the face's index within its source file. Always 0
// for single-face files.
func (r EntryRef) FaceIndex() int { return r.entry().faceIndex }

// FileType reports whether the face came from a single-face file or a
// collection.
func (r EntryRef) FileType() FontFileType { return r.entry().fileType }

// Axes returns the face's variation axes. The result must not be
// modified.
func (r EntryRef) Axes() []VariationAxis { return r.entry().axes }

// NamedInstances returns the face's named instances. The result must
// not be modified.
func (r EntryRef) NamedInstances() []NamedInstance { return r.entry().instances }

// FeatureTags returns the face's OpenType feature tags, deduplicated
// and sorted. The result must not be modified.
func (r EntryRef) FeatureTags() []string { return r.entry().features }

// Path returns the source file path currently linked to this entry.
func (r EntryRef) Path() string {
	r.cache.mu.RLock()
	defer r.cache.mu.RUnlock()
	return r.cache.pathOfLocked(r.index)
}

// Bytes returns the raw bytes of the font file this face came from.
// The slice stays valid for the life of the cache and must not be
// modified.
func (r EntryRef) Bytes() []byte {
	e := r.entry()
	return r.cache.arena.Bytes(e.span)
}
