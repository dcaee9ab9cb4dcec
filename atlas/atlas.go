// Package atlas caches rasterized glyphs in a shared texture for GPU
// text rendering. Rasterizations are keyed by face, glyph, size, and
// variable-font coordinates; each is packed once into the atlas and
// referenced forever after by its UV rectangle. The atlas only grows:
// there is no eviction, and exhaustion is a fatal condition the caller
// must provision against.
package atlas

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/font/sfnt"
)

// ErrAtlasExhausted is returned when the packer cannot place another
// glyph. There is no eviction policy; the atlas must be sized
// generously up front.
var ErrAtlasExhausted = errors.New("atlas: atlas exhausted")

// bytesPerTexel is the RGBA8 texel size of the atlas backing store.
const bytesPerTexel = 4

// Key identifies one rasterization. Two keys are equal iff they name
// the same face, glyph, rounded pixel size, and bit-identical
// variation coordinates.
type Key struct {
	Face int
	GID  uint32
	PPEM uint16

	// coords packs the float32 coordinate bits so the vector can take
	// part in map equality.
	coords string
}

// NewKey builds a Key. ppem is rounded to whole pixels; coords is the
// design-space coordinate vector (nil for non-variable fonts).
func NewKey(face int, gid uint32, ppem float64, coords []float32) Key {
	return Key{
		Face:   face,
		GID:    gid,
		PPEM:   uint16(math.Round(ppem)),
		coords: packCoords(coords),
	}
}

// packCoords encodes float32 bit patterns into a string usable as a
// map key component.
func packCoords(coords []float32) string {
	if len(coords) == 0 {
		return ""
	}
	b := make([]byte, 4*len(coords))
	for i, c := range coords {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(c))
	}
	return string(b)
}

// Region is a glyph's UV rectangle in the atlas texture, plus its
// pixel position for debugging and tests.
type Region struct {
	U0, V0, U1, V1 float32
	X, Y           int
}

// GlyphBounds is everything the render layer needs to draw one cached
// glyph: its bitmap placement relative to the caret and its atlas UVs.
type GlyphBounds struct {
	Placement
	Region
}

// Config holds atlas cache configuration.
type Config struct {
	// Width and Height are the atlas texture dimensions in texels.
	// Default: 1024 x 1024.
	Width, Height int

	// Padding is the gap between packed glyphs, preventing sampler
	// bleed. Default: 1.
	Padding int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Width: 1024, Height: 1024, Padding: 1}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Width < 64 || c.Height < 64 {
		return &ConfigError{Field: "Width/Height", Reason: "must be at least 64"}
	}
	if c.Width > 16384 || c.Height > 16384 {
		return &ConfigError{Field: "Width/Height", Reason: "must be at most 16384"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Cache is the glyph atlas cache. It owns the atlas pixel buffer,
// packs new rasterizations with a shelf allocator, and tracks whether
// the buffer has changed since the GPU last saw it.
//
// Cache is safe for concurrent use: the whole get-or-insert sequence
// runs under one mutex so a key can never be rasterized or allocated
// twice.
type Cache struct {
	mu        sync.Mutex
	config    Config
	renderer  GlyphRenderer
	allocator *ShelfAllocator
	pixels    []byte
	lookup    map[Key]GlyphBounds
	scratch   MaskBuffer
	dirty     bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithRenderer replaces the default Rasterizer. Used by tests to
// count or stub rasterizations.
func WithRenderer(r GlyphRenderer) CacheOption {
	return func(c *Cache) { c.renderer = r }
}

// NewCache creates an atlas cache.
func NewCache(config Config, opts ...CacheOption) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{
		config:    config,
		renderer:  NewRasterizer(),
		allocator: NewShelfAllocator(config.Width, config.Height, config.Padding),
		pixels:    make([]byte, config.Width*config.Height*bytesPerTexel),
		lookup:    make(map[Key]GlyphBounds),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetGlyphBounds returns the atlas bounds for key, rasterizing and
// packing the glyph on first request. Repeated requests for the same
// key return identical bounds with zero rasterization work.
//
// ft must be the outline font of the face the key names. A glyph that
// cannot be placed returns ErrAtlasExhausted.
func (c *Cache) GetGlyphBounds(ft *sfnt.Font, key Key) (GlyphBounds, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bounds, ok := c.lookup[key]; ok {
		c.hits.Add(1)
		return bounds, nil
	}
	c.misses.Add(1)

	placement, err := c.renderer.RenderMask(ft, key.GID, float64(key.PPEM), &c.scratch)
	if err != nil {
		return GlyphBounds{}, err
	}

	if placement.Width == 0 || placement.Height == 0 {
		// Blank glyph (space). Cache a zero-area region so later
		// requests stay hits.
		bounds := GlyphBounds{Placement: placement}
		c.lookup[key] = bounds
		return bounds, nil
	}

	x, y, ok := c.allocator.Allocate(placement.Width, placement.Height)
	if !ok {
		return GlyphBounds{}, fmt.Errorf("atlas: glyph %dx%d: %w",
			placement.Width, placement.Height, ErrAtlasExhausted)
	}

	c.blit(&c.scratch, x, y)
	c.dirty = true

	bounds := GlyphBounds{
		Placement: placement,
		Region: Region{
			X:  x,
			Y:  y,
			U0: float32(x) / float32(c.config.Width),
			V0: float32(y) / float32(c.config.Height),
			U1: float32(x+placement.Width) / float32(c.config.Width),
			V1: float32(y+placement.Height) / float32(c.config.Height),
		},
	}
	c.lookup[key] = bounds
	return bounds, nil
}

// blit packs a coverage mask into the atlas at (x, y). The mask's
// three horizontal samples per pixel land in the R, G, and B channels;
// alpha is the saturating sum of the three, a deliberate approximation
// that lets one texture serve both subpixel and plain-alpha blending.
// Mask rows are bottom-up while the atlas buffer is top-down, so rows
// flip here; quad emission pairs V0 with the glyph's top edge to match.
func (c *Cache) blit(mask *MaskBuffer, x, y int) {
	for row := 0; row < mask.Height; row++ {
		dstRow := y + mask.Height - 1 - row
		for px := 0; px < mask.Width; px++ {
			r := mask.Sample(px, row, 0)
			g := mask.Sample(px, row, 1)
			b := mask.Sample(px, row, 2)
			sum := uint16(r) + uint16(g) + uint16(b)
			if sum > 255 {
				sum = 255
			}
			off := (dstRow*c.config.Width + x + px) * bytesPerTexel
			c.pixels[off] = r
			c.pixels[off+1] = g
			c.pixels[off+2] = b
			c.pixels[off+3] = byte(sum)
		}
	}
}

// DirtyPixels returns the whole atlas buffer and whether it changed
// since the previous call. The caller uploads the bytes to the GPU
// texture when changed is true; the dirty flag clears on read. The
// returned slice is the live backing store and must not be retained
// across cache mutations.
func (c *Cache) DirtyPixels() (pixels []byte, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed = c.dirty
	c.dirty = false
	return c.pixels, changed
}

// Stats returns hit and miss counts. Misses equal the number of
// rasterization attempts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// GlyphCount returns the number of cached rasterizations.
func (c *Cache) GlyphCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lookup)
}

// Utilization returns the fraction of atlas area in use.
func (c *Cache) Utilization() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocator.Utilization()
}

// Config returns the cache configuration.
func (c *Cache) Config() Config { return c.config }

// TextureDescriptor describes the atlas texture for the GPU layer.
type TextureDescriptor struct {
	Size      gputypes.Extent3D
	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
}

// TextureDescriptor returns the descriptor of the texture that
// DirtyPixels feeds. The GPU layer creates its texture from this and
// re-uploads the full buffer whenever DirtyPixels reports a change.
func (c *Cache) TextureDescriptor() TextureDescriptor {
	return TextureDescriptor{
		Size: gputypes.Extent3D{
			Width:              uint32(c.config.Width),
			Height:             uint32(c.config.Height),
			DepthOrArrayLayers: 1,
		},
		Dimension: gputypes.TextureDimension2D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
	}
}
