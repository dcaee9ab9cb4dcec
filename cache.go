package fontcache

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/fontcache/internal/otmeta"
)

// Option configures a FontCache.
type Option func(*FontCache)

// WithInvariantChecks enables consistency verification of the cache's
// internal tables after every mutation. Violations panic. Intended for
// tests; the checks walk every path record and are not free.
func WithInvariantChecks() Option {
	return func(c *FontCache) { c.checkInvariants = true }
}

// WithLoadConcurrency bounds the number of files read and parsed in
// parallel during LoadFontFiles. Defaults to GOMAXPROCS.
func WithLoadConcurrency(n int) Option {
	return func(c *FontCache) {
		if n > 0 {
			c.loadConcurrency = n
		}
	}
}

// FontCache catalogs font files. It deduplicates files by content
// hash, keeps at most one face per (family, subfamily) pair, and keeps
// raw file bytes alive in an append-only arena for the derived parsers.
//
// FontCache is safe for concurrent use.
type FontCache struct {
	mu    sync.RWMutex
	arena *Arena

	// entries is the face catalog. Indices are stable: replacement
	// swaps the entry behind an index, never reorders.
	entries []*fontEntry

	// Per-path records, indexed by path id in registration order.
	paths      []string
	fileTypes  []FontFileType
	spans      []Span
	indexSets  []map[int]struct{}
	hashToPath map[uint64]int

	checkInvariants bool
	loadConcurrency int
}

// New creates an empty FontCache.
func New(opts ...Option) *FontCache {
	c := &FontCache{
		arena:           NewArena(),
		hashToPath:      make(map[uint64]int),
		loadConcurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadStatus reports what a single file load contributed.
type LoadStatus int

const (
	// StatusNew means the file contributed new or replacing faces.
	StatusNew LoadStatus = iota
	// StatusAlreadyCached means byte-identical content was loaded
	// before, possibly under a different path.
	StatusAlreadyCached
	// StatusNoNewData means the content was unseen but every face was
	// outranked by an already-cached duplicate.
	StatusNoNewData
)

// String returns the string representation of the status.
func (s LoadStatus) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusAlreadyCached:
		return "AlreadyCached"
	case StatusNoNewData:
		return "NoNewData"
	default:
		return "Unknown"
	}
}

// LoadResult describes the outcome of loading one font file.
type LoadResult struct {
	Status LoadStatus

	// NewlyCached holds indices of faces added by this load.
	NewlyCached []int
	// Replaced holds indices whose entry was swapped for a
	// higher-ranking face from this file.
	Replaced []int
	// Existing holds the indices already cataloged for byte-identical
	// content. Set only when Status is StatusAlreadyCached.
	Existing []int
	// Skipped counts faces outranked by existing entries.
	Skipped int
}

// Indices returns the sorted union of newly cached and replaced
// indices.
func (r LoadResult) Indices() []int {
	out := make([]int, 0, len(r.NewlyCached)+len(r.Replaced))
	out = append(out, r.NewlyCached...)
	out = append(out, r.Replaced...)
	sort.Ints(out)
	return out
}

// parsedFace is the metadata of one face, produced by the stateless
// parallel phase.
type parsedFace struct {
	faceIndex int
	family    string
	subfamily string
	revision  Revision
	axes      []VariationAxis
	instances []NamedInstance
	features  []string
}

// loadWork is one path's fully parsed result, ready for the
// sequential commit phase.
type loadWork struct {
	path     string
	fileType FontFileType
	data     []byte
	hash     uint64
	faces    []parsedFace
}

// LoadFontFile reads, parses, and commits a single font file.
func (c *FontCache) LoadFontFile(path string) (LoadResult, error) {
	work, err := c.prepare(path)
	if err != nil {
		return LoadResult{}, err
	}
	return c.commit(work), nil
}

// LoadFontFiles loads many font files. The per-path work (read, hash,
// parse) runs in parallel with no shared mutable state; results are
// then committed strictly sequentially in input order, which is where
// all dedup and replacement decisions happen.
//
// The returned count is the number of distinct indices newly cached or
// replaced across all paths. A failing path contributes nothing and
// does not affect other paths; all failures are joined into the
// returned error.
func (c *FontCache) LoadFontFiles(paths []string) (int, error) {
	works := make([]*loadWork, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(c.loadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			w, err := c.prepare(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			works[i] = w
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			Logger().Warn("font file skipped", "path", paths[i], "error", err)
		}
	}

	touched := make(map[int]struct{})
	for _, w := range works {
		if w == nil {
			continue
		}
		res := c.commit(w)
		for _, idx := range res.NewlyCached {
			touched[idx] = struct{}{}
		}
		for _, idx := range res.Replaced {
			touched[idx] = struct{}{}
		}
	}

	Logger().Info("font files loaded",
		"requested", len(paths),
		"touched", len(touched))
	return len(touched), errors.Join(errs...)
}

// prepare is the stateless per-path phase: read the file, validate its
// extension, hash its content, and parse every face's metadata. It
// reads no mutable cache state and can run concurrently with other
// prepare calls.
func (c *FontCache) prepare(path string) (*loadWork, error) {
	fileType, err := classifyPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fontcache: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	h := fnv.New64a()
	_, _ = h.Write(data)

	work := &loadWork{
		path:     path,
		fileType: fileType,
		data:     data,
		hash:     h.Sum64(),
	}

	// Skip parsing when the content hash is already cataloged. A new
	// hash appearing between this check and commit only costs a
	// redundant parse, never a wrong result.
	c.mu.RLock()
	_, seen := c.hashToPath[work.hash]
	c.mu.RUnlock()
	if seen {
		return work, nil
	}

	faces, err := otmeta.Faces(data)
	if err != nil {
		return nil, fmt.Errorf("fontcache: parse %s: %w", path, err)
	}
	for i, face := range faces {
		parsed, err := parseFaceMeta(path, i, face)
		if err != nil {
			return nil, err
		}
		work.faces = append(work.faces, parsed)
	}
	return work, nil
}

// parseFaceMeta extracts one face's catalog metadata.
func parseFaceMeta(path string, faceIndex int, face *otmeta.Face) (parsedFace, error) {
	family, ok := face.Name(otmeta.NameIDFamily)
	if !ok || family == "" {
		return parsedFace{}, &MissingDataError{Path: path, FaceIndex: faceIndex, What: "family name"}
	}
	// Subfamily is optional.
	subfamily, _ := face.Name(otmeta.NameIDSubfamily)

	revision, _ := face.Revision()

	rawAxes, rawInstances, err := face.Variations()
	if err != nil {
		return parsedFace{}, fmt.Errorf("fontcache: %s face %d: %w", path, faceIndex, err)
	}
	axes := make([]VariationAxis, len(rawAxes))
	for i, a := range rawAxes {
		axes[i] = VariationAxis{
			Tag:     a.Tag.String(),
			Min:     fixedToFloat32(a.Min),
			Default: fixedToFloat32(a.Default),
			Max:     fixedToFloat32(a.Max),
		}
	}
	instances := make([]NamedInstance, len(rawInstances))
	for i, inst := range rawInstances {
		name, ok := face.Name(inst.SubfamilyNameID)
		if !ok || name == "" {
			return parsedFace{}, &NamedInstanceError{Path: path, FaceIndex: faceIndex, Instance: i}
		}
		coords := make([]float32, len(inst.Coords))
		for j, v := range inst.Coords {
			coords[j] = fixedToFloat32(v)
		}
		instances[i] = NamedInstance{Name: name, Index: i, Coords: coords}
	}

	return parsedFace{
		faceIndex: faceIndex,
		family:    family,
		subfamily: subfamily,
		revision:  Revision(revision),
		axes:      axes,
		instances: instances,
		features:  face.FeatureTags(),
	}, nil
}

// fixedToFloat32 converts a 16.16 fixed-point value to float32.
func fixedToFloat32(v int32) float32 { return float32(v) / 65536 }

// commit folds one path's parsed result into the cache. All dedup,
// replacement, and index assignment happens here, under the write
// lock, strictly one path at a time.
func (c *FontCache) commit(work *loadWork) LoadResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pathID, ok := c.hashToPath[work.hash]; ok {
		indices := make([]int, 0, len(c.indexSets[pathID]))
		for idx := range c.indexSets[pathID] {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		return LoadResult{Status: StatusAlreadyCached, Existing: indices}
	}

	// Stage decisions without touching shared tables.
	type replacement struct {
		index int
		entry *fontEntry
	}
	var newEntries []*fontEntry
	var replacements []replacement
	skipped := 0

	for _, face := range work.faces {
		entry := &fontEntry{
			fileType:  work.fileType,
			faceIndex: face.faceIndex,
			family:    face.family,
			subfamily: face.subfamily,
			revision:  face.revision,
			axes:      face.axes,
			instances: face.instances,
			features:  face.features,
		}
		existing := c.findEntryLocked(face.family, face.subfamily)
		switch {
		case existing < 0:
			newEntries = append(newEntries, entry)
		case entry.ranksAbove(c.entries[existing]):
			replacements = append(replacements, replacement{index: existing, entry: entry})
		default:
			skipped++
		}
	}

	if len(newEntries) == 0 && len(replacements) == 0 {
		// Nothing survives dedup. Record the path and hash anyway so
		// a re-load of the same content is detected as AlreadyCached
		// without re-parsing.
		c.registerPathLocked(work, Span{})
		c.verifyLocked()
		return LoadResult{Status: StatusNoNewData, Skipped: skipped}
	}

	span := c.arena.Append(work.data)
	pathID := c.registerPathLocked(work, span)

	result := LoadResult{Status: StatusNew, Skipped: skipped}
	for _, entry := range newEntries {
		entry.span = span
		idx := len(c.entries)
		c.entries = append(c.entries, entry)
		c.indexSets[pathID][idx] = struct{}{}
		result.NewlyCached = append(result.NewlyCached, idx)
	}
	for _, r := range replacements {
		r.entry.span = span
		// Invariant: a live index is owned by exactly one path.
		// Unlink it from the old owner before relinking.
		owner := c.ownerOfLocked(r.index)
		if owner < 0 {
			panic(fmt.Sprintf("fontcache: replaced index %d has no owning path", r.index))
		}
		delete(c.indexSets[owner], r.index)
		c.indexSets[pathID][r.index] = struct{}{}
		c.entries[r.index] = r.entry
		result.Replaced = append(result.Replaced, r.index)
	}

	Logger().Debug("font file committed",
		"path", work.path,
		"new", len(result.NewlyCached),
		"replaced", len(result.Replaced),
		"skipped", skipped)

	c.verifyLocked()
	return result
}

// registerPathLocked appends a new per-path record and returns its id.
func (c *FontCache) registerPathLocked(work *loadWork, span Span) int {
	pathID := len(c.paths)
	c.paths = append(c.paths, work.path)
	c.fileTypes = append(c.fileTypes, work.fileType)
	c.spans = append(c.spans, span)
	c.indexSets = append(c.indexSets, make(map[int]struct{}))
	c.hashToPath[work.hash] = pathID
	return pathID
}

// findEntryLocked returns the index of the live entry with the given
// (family, subfamily), case-insensitively, or -1.
func (c *FontCache) findEntryLocked(family, subfamily string) int {
	ff, fs := foldName(family), foldName(subfamily)
	for i, e := range c.entries {
		if foldName(e.family) == ff && foldName(e.subfamily) == fs {
			return i
		}
	}
	return -1
}

// ownerOfLocked returns the path id whose index set contains idx,
// or -1.
func (c *FontCache) ownerOfLocked(idx int) int {
	for pathID, set := range c.indexSets {
		if _, ok := set[idx]; ok {
			return pathID
		}
	}
	return -1
}

// pathOfLocked returns the path string owning idx, or "".
func (c *FontCache) pathOfLocked(idx int) string {
	if owner := c.ownerOfLocked(idx); owner >= 0 {
		return c.paths[owner]
	}
	return ""
}

// verifyLocked checks the cross-table consistency invariants. Enabled
// via WithInvariantChecks; violations are programming errors and panic.
func (c *FontCache) verifyLocked() {
	if !c.checkInvariants {
		return
	}
	if len(c.paths) != len(c.fileTypes) || len(c.paths) != len(c.spans) ||
		len(c.paths) != len(c.indexSets) || len(c.paths) != len(c.hashToPath) {
		panic("fontcache: per-path table lengths diverged")
	}
	linked := 0
	seen := make(map[int]struct{})
	for _, set := range c.indexSets {
		for idx := range set {
			if _, dup := seen[idx]; dup {
				panic(fmt.Sprintf("fontcache: index %d linked to multiple paths", idx))
			}
			seen[idx] = struct{}{}
			linked++
		}
	}
	if linked != len(c.entries) {
		panic(fmt.Sprintf("fontcache: %d linked indices for %d entries", linked, len(c.entries)))
	}
	total := 0
	for _, span := range c.spans {
		total += span.Len()
	}
	if total != c.arena.Size() {
		panic(fmt.Sprintf("fontcache: path spans cover %d bytes, arena holds %d", total, c.arena.Size()))
	}
}

// NumEntries returns the number of cataloged faces.
func (c *FontCache) NumEntries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// DataSize returns the total raw font bytes held by the cache.
func (c *FontCache) DataSize() int {
	return c.arena.Size()
}

// Entry returns a handle to the entry at index.
func (c *FontCache) Entry(index int) (EntryRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.entries) {
		return EntryRef{}, ErrInvalidEntry
	}
	return EntryRef{cache: c, index: index}, nil
}

// ListFonts returns one line per cataloged face, sorted, in the form
// "Family - Subfamily". With showPath the owning file path is appended
// in brackets.
func (c *FontCache) ListFonts(showPath bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lines := make([]string, 0, len(c.entries))
	for i, e := range c.entries {
		line := e.family
		if e.subfamily != "" {
			line += " - " + e.subfamily
		}
		if showPath {
			line += " [" + c.pathOfLocked(i) + "]"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}
