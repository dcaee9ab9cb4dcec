// Package fontcache indexes font files for GPU text rendering.
//
// The cache reads TrueType and OpenType files (single faces and
// collections), deduplicates them by content hash, and extracts the
// metadata needed to resolve a face by family and subfamily name:
// revision, variation axes, named instances, and OpenType feature tags.
// Raw file bytes live in an append-only arena so that every derived
// view stays valid for the life of the cache.
//
// Loading is two-phase. The per-path work (read, hash, parse) runs in
// parallel with no shared state; the results are then folded into the
// cache strictly sequentially, which is where deduplication, entry
// replacement, and index assignment happen.
//
// Shaping and rasterization state is computed lazily per face on first
// use. A FontShaper turns a string into positioned glyphs through
// go-text/typesetting's HarfBuzz port; the atlas subpackage caches the
// resulting rasterizations in a shared texture and emits quad geometry
// for the GPU layer.
//
// Basic usage:
//
//	cache := fontcache.New()
//	if _, err := cache.LoadFontFiles(paths); err != nil { ... }
//	ref, err := cache.FindFont("Arial", "Regular")
//	if err != nil { ... }
//	shaper, err := cache.NewShaper(ref, fontcache.ShaperSettings{})
//	glyphs, err := shaper.Shape("Hello", nil, 24)
package fontcache
