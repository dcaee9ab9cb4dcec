package fontcache

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/fontcache/atlas"
)

// loadGoRegular caches the Go Regular face shipped with x/image, giving
// the shaping and rasterization tests a real, renderable font without
// fixture files.
func loadGoRegular(t *testing.T) (*FontCache, EntryRef) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write goregular: %v", err)
	}
	c := New(WithInvariantChecks())
	if _, err := c.LoadFontFile(path); err != nil {
		t.Fatalf("LoadFontFile: %v", err)
	}
	ref, err := c.FindFont("Go", "")
	if err != nil {
		t.Fatalf("FindFont: %v", err)
	}
	return c, ref
}

func TestShapeRealFont(t *testing.T) {
	c, ref := loadGoRegular(t)
	shaper, err := c.NewShaper(ref, ShaperSettings{})
	if err != nil {
		t.Fatalf("NewShaper: %v", err)
	}

	buf := &ShapeBuffer{}
	glyphs, err := shaper.Shape("Hello, world", buf, 24)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(glyphs) == 0 {
		t.Fatal("Shape returned no glyphs")
	}

	var advance float32
	prevCluster := -1
	for i, g := range glyphs {
		if g.GID == 0 {
			t.Errorf("glyph %d shaped to .notdef", i)
		}
		if g.Cluster < prevCluster {
			t.Errorf("glyph %d cluster %d goes backward", i, g.Cluster)
		}
		prevCluster = g.Cluster
		advance += g.XAdvance
	}
	if advance <= 0 {
		t.Errorf("total advance = %v, want positive", advance)
	}

	// Reusing the buffer shapes the same run identically.
	again, err := shaper.Shape("Hello, world", buf, 24)
	if err != nil {
		t.Fatalf("second Shape: %v", err)
	}
	if len(again) != len(glyphs) {
		t.Errorf("second Shape returned %d glyphs, want %d", len(again), len(glyphs))
	}
}

func TestTextPipelineRealFont(t *testing.T) {
	c, ref := loadGoRegular(t)
	shaper, err := c.NewShaper(ref, ShaperSettings{})
	if err != nil {
		t.Fatalf("NewShaper: %v", err)
	}
	r := atlas.NewRasterizer()
	cache, err := atlas.NewCache(atlas.DefaultConfig(), atlas.WithRenderer(r))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	vertices, indices, caretX, _, err := AppendTextQuads(
		cache, shaper, "Hello, world", 24, 0, 100, nil, nil, nil)
	if err != nil {
		t.Fatalf("AppendTextQuads: %v", err)
	}
	if len(vertices) == 0 || len(vertices)%4 != 0 {
		t.Fatalf("len(vertices) = %d, want a positive multiple of 4", len(vertices))
	}
	if len(indices) != len(vertices)/4*6 {
		t.Errorf("len(indices) = %d, want %d", len(indices), len(vertices)/4*6)
	}
	if caretX <= 0 {
		t.Errorf("caret after run = %v, want positive", caretX)
	}

	// Quads sit upright: top edge above the bottom edge in screen
	// coordinates, V0 on the top edge.
	for q := 0; q < len(vertices); q += 4 {
		topY, bottomY := vertices[q].Pos[1], vertices[q+3].Pos[1]
		if topY >= bottomY {
			t.Errorf("quad %d top y %v not above bottom y %v", q/4, topY, bottomY)
		}
		if vertices[q].UV[1] >= vertices[q+3].UV[1] {
			t.Errorf("quad %d V0 %v not above V1 %v", q/4, vertices[q].UV[1], vertices[q+3].UV[1])
		}
	}

	rendered := r.Invocations()
	if rendered == 0 {
		t.Fatal("no rasterizer invocations for the first pass")
	}
	pixels, changed := cache.DirtyPixels()
	if !changed {
		t.Error("atlas not dirty after first pass")
	}
	ink := 0
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] != 0 {
			ink++
		}
	}
	if ink == 0 {
		t.Error("atlas holds no ink after rasterizing text")
	}

	// A second pass over the same text is all cache hits.
	vertices2, _, _, _, err := AppendTextQuads(
		cache, shaper, "Hello, world", 24, 0, 200, vertices, indices, nil)
	if err != nil {
		t.Fatalf("second AppendTextQuads: %v", err)
	}
	if len(vertices2) != 2*len(vertices) {
		t.Errorf("second pass appended %d vertices, want %d", len(vertices2)-len(vertices), len(vertices))
	}
	if got := r.Invocations(); got != rendered {
		t.Errorf("second pass rasterized %d more glyphs, want 0", got-rendered)
	}
	if _, changed := cache.DirtyPixels(); changed {
		t.Error("atlas dirty after all-hit pass")
	}
}
