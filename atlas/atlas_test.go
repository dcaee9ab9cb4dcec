package atlas

import (
	"errors"
	"testing"

	"golang.org/x/image/font/sfnt"
)

// fakeRenderer produces a solid mask whose size derives from the glyph
// id, so tests control allocation pressure without real fonts.
type fakeRenderer struct {
	calls int
	size  func(gid uint32) (w, h int)
}

func (f *fakeRenderer) RenderMask(_ *sfnt.Font, gid uint32, _ float64, buf *MaskBuffer) (Placement, error) {
	f.calls++
	w, h := f.size(gid)
	if w == 0 || h == 0 {
		buf.Width, buf.Height = 0, 0
		buf.Pix = buf.Pix[:0]
		return Placement{}, nil
	}
	buf.Width, buf.Height = w, h
	buf.Pix = make([]byte, w*h*subpixelSamples)
	for i := range buf.Pix {
		buf.Pix[i] = 0x40
	}
	return Placement{Width: w, Height: h, Left: 1, Bottom: -h}, nil
}

func fixedSize(w, h int) func(uint32) (int, int) {
	return func(uint32) (int, int) { return w, h }
}

func newTestCache(t *testing.T, cfg Config, r GlyphRenderer) *Cache {
	t.Helper()
	c, err := NewCache(cfg, WithRenderer(r))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func TestGetGlyphBoundsRasterizeOnce(t *testing.T) {
	r := &fakeRenderer{size: fixedSize(8, 10)}
	c := newTestCache(t, DefaultConfig(), r)

	key := NewKey(0, 42, 24, nil)
	first, err := c.GetGlyphBounds(nil, key)
	if err != nil {
		t.Fatalf("first GetGlyphBounds: %v", err)
	}
	second, err := c.GetGlyphBounds(nil, key)
	if err != nil {
		t.Fatalf("second GetGlyphBounds: %v", err)
	}

	if r.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", r.calls)
	}
	if first != second {
		t.Errorf("repeated bounds differ: %+v vs %+v", first, second)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats = %d hits, %d misses, want 1, 1", hits, misses)
	}
	if c.GlyphCount() != 1 {
		t.Errorf("GlyphCount = %d, want 1", c.GlyphCount())
	}
}

func TestRegionsDisjointAndInBounds(t *testing.T) {
	r := &fakeRenderer{size: func(gid uint32) (int, int) {
		return 4 + int(gid%13), 4 + int(gid%7)
	}}
	cfg := Config{Width: 256, Height: 256, Padding: 1}
	c := newTestCache(t, cfg, r)

	var regions []GlyphBounds
	for gid := uint32(1); gid <= 60; gid++ {
		b, err := c.GetGlyphBounds(nil, NewKey(0, gid, 16, nil))
		if err != nil {
			t.Fatalf("GetGlyphBounds(%d): %v", gid, err)
		}
		regions = append(regions, b)
	}

	for i, b := range regions {
		if b.X < 0 || b.Y < 0 || b.X+b.Width > cfg.Width || b.Y+b.Height > cfg.Height {
			t.Errorf("region %d out of bounds: %+v", i, b.Region)
		}
		if b.U0 < 0 || b.V0 < 0 || b.U1 > 1 || b.V1 > 1 || b.U0 >= b.U1 || b.V0 >= b.V1 {
			t.Errorf("region %d has bad UVs: %+v", i, b.Region)
		}
	}
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			a, b := regions[i], regions[j]
			if a.X < b.X+b.Width && b.X < a.X+a.Width &&
				a.Y < b.Y+b.Height && b.Y < a.Y+a.Height {
				t.Errorf("regions %d and %d overlap: %+v vs %+v", i, j, a.Region, b.Region)
			}
		}
	}
}

func TestKeyEquality(t *testing.T) {
	base := NewKey(1, 7, 24, []float32{400, 100})

	if got := NewKey(1, 7, 24.3, []float32{400, 100}); got != base {
		t.Errorf("ppem 24.3 does not round to the same key: %+v vs %+v", got, base)
	}
	if got := NewKey(1, 7, 24, []float32{400.5, 100}); got == base {
		t.Error("distinct coords produced equal keys")
	}
	if got := NewKey(1, 7, 25, []float32{400, 100}); got == base {
		t.Error("distinct ppem produced equal keys")
	}
	if got := NewKey(2, 7, 24, []float32{400, 100}); got == base {
		t.Error("distinct face produced equal keys")
	}
	if got := NewKey(1, 7, 24, nil); got == base {
		t.Error("missing coords produced equal keys")
	}
}

func TestDistinctCoordsGetDistinctRegions(t *testing.T) {
	r := &fakeRenderer{size: fixedSize(6, 6)}
	c := newTestCache(t, DefaultConfig(), r)

	a, err := c.GetGlyphBounds(nil, NewKey(0, 5, 16, []float32{400}))
	if err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	b, err := c.GetGlyphBounds(nil, NewKey(0, 5, 16, []float32{700}))
	if err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	if r.calls != 2 {
		t.Errorf("renderer calls = %d, want 2", r.calls)
	}
	if a.X == b.X && a.Y == b.Y {
		t.Error("different coordinate vectors share an atlas region")
	}
}

func TestDirtyPixels(t *testing.T) {
	r := &fakeRenderer{size: fixedSize(4, 4)}
	c := newTestCache(t, DefaultConfig(), r)

	if _, changed := c.DirtyPixels(); changed {
		t.Error("fresh cache reports dirty")
	}

	key := NewKey(0, 1, 16, nil)
	if _, err := c.GetGlyphBounds(nil, key); err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	pixels, changed := c.DirtyPixels()
	if !changed {
		t.Error("insert did not mark the buffer dirty")
	}
	if want := c.Config().Width * c.Config().Height * bytesPerTexel; len(pixels) != want {
		t.Errorf("len(pixels) = %d, want %d", len(pixels), want)
	}

	// The flag clears on read, and a cache hit does not set it again.
	if _, changed := c.DirtyPixels(); changed {
		t.Error("dirty flag not cleared by read")
	}
	if _, err := c.GetGlyphBounds(nil, key); err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	if _, changed := c.DirtyPixels(); changed {
		t.Error("cache hit marked the buffer dirty")
	}
}

func TestBlankGlyphCached(t *testing.T) {
	r := &fakeRenderer{size: fixedSize(0, 0)}
	c := newTestCache(t, DefaultConfig(), r)

	key := NewKey(0, 3, 16, nil) // e.g. a space
	bounds, err := c.GetGlyphBounds(nil, key)
	if err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	if bounds.Width != 0 || bounds.Height != 0 {
		t.Errorf("blank glyph bounds = %+v, want zero size", bounds)
	}
	if _, changed := c.DirtyPixels(); changed {
		t.Error("blank glyph marked the buffer dirty")
	}

	if _, err := c.GetGlyphBounds(nil, key); err != nil {
		t.Fatalf("second GetGlyphBounds: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", r.calls)
	}
}

func TestAtlasExhausted(t *testing.T) {
	r := &fakeRenderer{size: fixedSize(60, 60)}
	c := newTestCache(t, Config{Width: 64, Height: 64, Padding: 1}, r)

	if _, err := c.GetGlyphBounds(nil, NewKey(0, 1, 16, nil)); err != nil {
		t.Fatalf("first glyph: %v", err)
	}
	_, err := c.GetGlyphBounds(nil, NewKey(0, 2, 16, nil))
	if !errors.Is(err, ErrAtlasExhausted) {
		t.Errorf("second glyph err = %v, want ErrAtlasExhausted", err)
	}
}

func TestBlitOrientationAndAlpha(t *testing.T) {
	// A 1x2 mask: bottom row saturates the alpha sum, top row does not.
	r := &rendererFunc{fn: func(buf *MaskBuffer) Placement {
		buf.Width, buf.Height = 1, 2
		buf.Pix = []byte{
			100, 200, 250, // row 0, bottom
			1, 2, 3, // row 1, top
		}
		return Placement{Width: 1, Height: 2, Left: 0, Bottom: 0}
	}}
	c := newTestCache(t, Config{Width: 64, Height: 64, Padding: 0}, r)

	b, err := c.GetGlyphBounds(nil, NewKey(0, 1, 16, nil))
	if err != nil {
		t.Fatalf("GetGlyphBounds: %v", err)
	}
	if b.X != 0 || b.Y != 0 {
		t.Fatalf("first allocation at (%d, %d), want (0, 0)", b.X, b.Y)
	}

	pixels, _ := c.DirtyPixels()
	stride := 64 * bytesPerTexel

	// Atlas row 0 is the top of the glyph, so the mask's top row (1,2,3)
	// lands there and the bottom row lands on atlas row 1.
	top := pixels[0:4]
	if top[0] != 1 || top[1] != 2 || top[2] != 3 || top[3] != 6 {
		t.Errorf("top texel = %v, want [1 2 3 6]", top)
	}
	bottom := pixels[stride : stride+4]
	if bottom[0] != 100 || bottom[1] != 200 || bottom[2] != 250 || bottom[3] != 255 {
		t.Errorf("bottom texel = %v, want [100 200 250 255]", bottom)
	}
}

// rendererFunc adapts a closure to GlyphRenderer for blit tests.
type rendererFunc struct {
	fn func(buf *MaskBuffer) Placement
}

func (r *rendererFunc) RenderMask(_ *sfnt.Font, _ uint32, _ float64, buf *MaskBuffer) (Placement, error) {
	return r.fn(buf), nil
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"minimum", Config{Width: 64, Height: 64}, false},
		{"too small", Config{Width: 32, Height: 1024, Padding: 1}, true},
		{"too large", Config{Width: 32768, Height: 1024, Padding: 1}, true},
		{"negative padding", Config{Width: 1024, Height: 1024, Padding: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestTextureDescriptor(t *testing.T) {
	c := newTestCache(t, Config{Width: 512, Height: 256, Padding: 1}, &fakeRenderer{size: fixedSize(1, 1)})
	desc := c.TextureDescriptor()
	if desc.Size.Width != 512 || desc.Size.Height != 256 || desc.Size.DepthOrArrayLayers != 1 {
		t.Errorf("Size = %+v, want 512x256x1", desc.Size)
	}
}
