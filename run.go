package fontcache

import "github.com/gogpu/fontcache/atlas"

// AppendTextQuads shapes text with shaper at ppem pixels and appends
// one textured quad per visible glyph to vertices and indices,
// advancing a caret from (originX, originY) on the baseline. Glyphs
// are rasterized into cache on first sight and reused afterward.
//
// Returns the extended slices and the caret position after the run,
// ready for a follow-on call. buf may be nil.
func AppendTextQuads(
	cache *atlas.Cache,
	shaper *FontShaper,
	text string,
	ppem float64,
	originX, originY float32,
	vertices []atlas.Vertex,
	indices []uint32,
	buf *ShapeBuffer,
) ([]atlas.Vertex, []uint32, float32, float32, error) {
	glyphs, err := shaper.Shape(text, buf, ppem)
	if err != nil {
		return vertices, indices, originX, originY, err
	}
	ft, err := shaper.Entry().OutlineFont()
	if err != nil {
		return vertices, indices, originX, originY, err
	}

	face := shaper.Entry().Index()
	coords := shaper.Coords()
	caretX, caretY := originX, originY
	for _, g := range glyphs {
		key := atlas.NewKey(face, g.GID, ppem, coords)
		bounds, err := cache.GetGlyphBounds(ft, key)
		if err != nil {
			return vertices, indices, caretX, caretY, err
		}
		// Offsets are y-up; the screen's y axis grows downward.
		vertices, indices = atlas.AppendQuad(vertices, indices, bounds,
			caretX+g.XOffset, caretY-g.YOffset)
		caretX += g.XAdvance
		caretY -= g.YAdvance
	}
	return vertices, indices, caretX, caretY, nil
}
