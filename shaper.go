package fontcache

import (
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// hintingPointScale derives the hinting point size from a pixel size:
// 72 points per inch against the 96 dpi pixel grid.
const hintingPointScale = 72.0 / 96.0

// PointSize converts a pixel size (ppem) to the typographic point size
// at the conventional 96 dpi pixel grid.
func PointSize(ppem float64) float64 { return ppem * hintingPointScale }

// Variation is an explicit axis-value selection for a variable font,
// e.g. {"wght", 650}.
type Variation struct {
	Tag   string
	Value float32
}

// ShaperSettings selects the face configuration a FontShaper binds.
// The zero value shapes with the font's default axis values and
// default feature set.
type ShaperSettings struct {
	// Variations sets explicit design-space axis values. Axes not
	// named keep their defaults. Ignored when UseNamedInstance is set.
	Variations []Variation

	// UseNamedInstance selects the named instance at NamedInstance
	// (an index into EntryRef.NamedInstances) instead of explicit
	// variations.
	UseNamedInstance bool
	NamedInstance    int

	// Features lists OpenType feature tags the caller wants applied.
	// Recorded on the shaper for the render layer; the shaping engine
	// applies each script's default features.
	Features []string
}

// ShapedGlyph is one positioned glyph from a Shape call. Offsets and
// advances are in pixels.
type ShapedGlyph struct {
	GID                uint32
	XAdvance, YAdvance float32
	XOffset, YOffset   float32
	// Cluster is the rune index in the source text this glyph maps to.
	Cluster int
}

// ShapeBuffer is reusable scratch storage for Shape calls. A nil
// buffer works; passing the same buffer across calls avoids
// re-allocating the rune and glyph slices each time.
//
// ShapeBuffer is not safe for concurrent use.
type ShapeBuffer struct {
	runes  []rune
	glyphs []ShapedGlyph
}

// shaperPool pools HarfbuzzShaper instances. They carry internal
// scratch buffers and are not safe for concurrent use.
var shaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// FontShaper converts text runs into positioned glyphs against one
// bound face and settings. The shaping policy is fixed: left-to-right,
// Latin script, English language, regardless of input text. Results
// are not cached here; identical requests recompute, and only the
// downstream rasterizations are cached.
//
// FontShaper is safe for concurrent use as long as each goroutine
// passes its own ShapeBuffer.
type FontShaper struct {
	ref      EntryRef
	font     *font.Font
	coords   []float32
	settings []font.Variation
	features []string
}

// NewShaper binds a cached face and settings into a shaping session.
// The face's shaping structures are parsed on first binding and shared
// by all shapers of the same face.
func (c *FontCache) NewShaper(ref EntryRef, settings ShaperSettings) (*FontShaper, error) {
	if ref.cache != c {
		return nil, ErrInvalidEntry
	}
	f, err := ref.ShapingFont()
	if err != nil {
		return nil, err
	}
	coords, err := resolveCoords(ref, settings)
	if err != nil {
		return nil, err
	}
	features := make([]string, len(settings.Features))
	copy(features, settings.Features)
	return &FontShaper{
		ref:      ref,
		font:     f,
		coords:   coords,
		settings: shapingVariations(ref.Axes(), coords),
		features: features,
	}, nil
}

// shapingVariations converts a resolved coordinate vector back into the
// tag/value pairs the shaping face consumes, one per axis.
func shapingVariations(axes []VariationAxis, coords []float32) []font.Variation {
	if len(coords) == 0 {
		return nil
	}
	variations := make([]font.Variation, 0, len(axes))
	for i, a := range axes {
		if len(a.Tag) != 4 {
			continue
		}
		variations = append(variations, font.Variation{
			Tag:   ot.NewTag(a.Tag[0], a.Tag[1], a.Tag[2], a.Tag[3]),
			Value: coords[i],
		})
	}
	return variations
}

// resolveCoords produces one design-space value per axis: the axis
// defaults, overridden by a named instance or explicit variations.
// Explicit values are clamped to the axis range.
func resolveCoords(ref EntryRef, settings ShaperSettings) ([]float32, error) {
	axes := ref.Axes()
	if len(axes) == 0 {
		return nil, nil
	}
	coords := make([]float32, len(axes))
	for i, a := range axes {
		coords[i] = a.Default
	}

	if settings.UseNamedInstance {
		instances := ref.NamedInstances()
		if settings.NamedInstance < 0 || settings.NamedInstance >= len(instances) {
			return nil, fmt.Errorf("fontcache: named instance %d out of range, font has %d: %w",
				settings.NamedInstance, len(instances), ErrInvalidEntry)
		}
		copy(coords, instances[settings.NamedInstance].Coords)
		return coords, nil
	}

	for _, v := range settings.Variations {
		for i, a := range axes {
			if a.Tag != v.Tag {
				continue
			}
			val := v.Value
			if val < a.Min {
				val = a.Min
			}
			if val > a.Max {
				val = a.Max
			}
			coords[i] = val
		}
	}
	return coords, nil
}

// Entry returns the face this shaper is bound to.
func (s *FontShaper) Entry() EntryRef { return s.ref }

// Coords returns the resolved design-space coordinate vector, one
// value per variation axis. Empty for non-variable fonts. The result
// must not be modified; it doubles as the atlas cache key component.
func (s *FontShaper) Coords() []float32 { return s.coords }

// Features returns the feature tags the shaper was bound with.
func (s *FontShaper) Features() []string { return s.features }

// Shape converts text into positioned glyphs at the given pixel size.
// buf may be nil; passing a reused buffer avoids per-call allocation
// of the intermediate slices. The returned slice aliases buf's storage
// when buf is non-nil and is valid until the next Shape call with the
// same buffer.
func (s *FontShaper) Shape(text string, buf *ShapeBuffer, ppem float64) ([]ShapedGlyph, error) {
	if text == "" {
		return nil, nil
	}
	if buf == nil {
		buf = &ShapeBuffer{}
	}

	buf.runes = buf.runes[:0]
	for _, r := range text {
		buf.runes = append(buf.runes, r)
	}

	// font.Face carries per-use glyph caches and is not safe for
	// concurrent use; one per call, wrapping the shared *font.Font.
	// The resolved axis values apply here so glyph selection, advances,
	// and positions all reflect the bound design-space point.
	face := font.NewFace(s.font)
	if len(s.settings) > 0 {
		face.SetVariations(s.settings)
	}

	input := shaping.Input{
		Text:      buf.runes,
		RunStart:  0,
		RunEnd:    len(buf.runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.Int26_6(ppem * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	shaperPool.Put(hb)

	buf.glyphs = buf.glyphs[:0]
	for _, g := range output.Glyphs {
		buf.glyphs = append(buf.glyphs, ShapedGlyph{
			GID:      uint32(g.GlyphID),
			XAdvance: fixedToPixels(g.XAdvance),
			YAdvance: fixedToPixels(g.YAdvance),
			XOffset:  fixedToPixels(g.XOffset),
			YOffset:  fixedToPixels(g.YOffset),
			Cluster:  g.ClusterIndex,
		})
	}
	return buf.glyphs, nil
}

// fixedToPixels converts a 26.6 fixed-point value to float32 pixels.
func fixedToPixels(v fixed.Int26_6) float32 { return float32(v) / 64 }
