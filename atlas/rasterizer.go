package atlas

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync/atomic"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// subpixelSamples is the number of horizontal coverage samples per
// pixel. The three samples map onto the R, G, and B channels of an
// atlas texel for subpixel antialiasing on horizontal-stripe LCDs.
const subpixelSamples = 3

// Placement describes where a rasterized bitmap sits relative to the
// glyph origin on the baseline. Left and Bottom locate the bitmap's
// bottom-left corner with y growing upward.
type Placement struct {
	Width, Height int
	Left, Bottom  int
}

// MaskBuffer is reusable scratch storage for rasterization output.
// Pix holds Height rows of Width*subpixelSamples coverage bytes with
// row 0 at the bottom of the bitmap.
//
// MaskBuffer is not safe for concurrent use.
type MaskBuffer struct {
	Pix           []byte
	Width, Height int
}

// Sample returns the coverage sample s of pixel (x, y), with y == 0 at
// the bottom row and s in [0, subpixelSamples).
func (m *MaskBuffer) Sample(x, y, s int) byte {
	return m.Pix[(y*m.Width+x)*subpixelSamples+s]
}

// GlyphRenderer renders one glyph into a coverage mask. Implemented by
// Rasterizer; the cache accepts the interface so tests can count and
// stub rasterizations.
type GlyphRenderer interface {
	RenderMask(ft *sfnt.Font, gid uint32, ppem float64, buf *MaskBuffer) (Placement, error)
}

// Rasterizer scan-converts glyph outlines into subpixel coverage
// masks using x/image/vector. It holds reusable sfnt scratch state.
//
// Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	buf         sfnt.Buffer
	invocations atomic.Uint64
}

// NewRasterizer creates a Rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Invocations returns how many masks have been rendered. The cache's
// rasterize-once guarantee is observable here.
func (r *Rasterizer) Invocations() uint64 {
	return r.invocations.Load()
}

// RenderMask renders glyph gid of ft at ppem pixels into buf and
// returns the bitmap placement. Glyphs without an outline (spaces)
// produce a zero-size placement and an empty mask. The mask is
// rasterized at subpixelSamples times the horizontal resolution, one
// byte per sample, rows bottom-up.
func (r *Rasterizer) RenderMask(ft *sfnt.Font, gid uint32, ppem float64, buf *MaskBuffer) (Placement, error) {
	r.invocations.Add(1)

	segments, err := ft.LoadGlyph(&r.buf, sfnt.GlyphIndex(gid), fixed.Int26_6(ppem*64), nil)
	if err != nil {
		return Placement{}, fmt.Errorf("atlas: load glyph %d: %w", gid, err)
	}
	if len(segments) == 0 {
		buf.Width, buf.Height = 0, 0
		buf.Pix = buf.Pix[:0]
		return Placement{}, nil
	}

	minX, minY, maxX, maxY := segmentBounds(segments)
	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		buf.Width, buf.Height = 0, 0
		buf.Pix = buf.Pix[:0]
		return Placement{}, nil
	}

	// Scan-convert at 3x horizontal resolution. Glyph coordinates from
	// sfnt grow downward from the baseline; shift them into the bitmap
	// and stretch x by the sample count.
	vr := vector.NewRasterizer(width*subpixelSamples, height)
	vr.DrawOp = draw.Src
	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				vr.ClosePath()
			}
			open = true
			x, y := transformPoint(seg.Args[0], minX, minY)
			vr.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := transformPoint(seg.Args[0], minX, minY)
			vr.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			bx, by := transformPoint(seg.Args[0], minX, minY)
			cx, cy := transformPoint(seg.Args[1], minX, minY)
			vr.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := transformPoint(seg.Args[0], minX, minY)
			cx, cy := transformPoint(seg.Args[1], minX, minY)
			dx, dy := transformPoint(seg.Args[2], minX, minY)
			vr.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		vr.ClosePath()
	}

	dst := image.NewAlpha(image.Rect(0, 0, width*subpixelSamples, height))
	vr.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	// The rasterized image has row 0 at the top; the mask convention
	// is bottom-up. Flip while copying out.
	rowLen := width * subpixelSamples
	need := rowLen * height
	if cap(buf.Pix) < need {
		buf.Pix = make([]byte, need)
	}
	buf.Pix = buf.Pix[:need]
	buf.Width, buf.Height = width, height
	for row := 0; row < height; row++ {
		src := dst.Pix[(height-1-row)*dst.Stride : (height-1-row)*dst.Stride+rowLen]
		copy(buf.Pix[row*rowLen:(row+1)*rowLen], src)
	}

	return Placement{
		Width:  width,
		Height: height,
		Left:   minX,
		Bottom: -maxY,
	}, nil
}

// transformPoint maps a 26.6 glyph point into bitmap sample space.
func transformPoint(p fixed.Point26_6, minX, minY int) (float32, float32) {
	x := (float32(p.X)/64 - float32(minX)) * subpixelSamples
	y := float32(p.Y)/64 - float32(minY)
	return x, y
}

// segmentBounds returns the integer pixel bounding box of a segment
// list, floor/ceil rounded so every touched pixel is covered.
func segmentBounds(segments sfnt.Segments) (minX, minY, maxX, maxY int) {
	fMinX, fMinY := math.Inf(1), math.Inf(1)
	fMaxX, fMaxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range segments {
		points := 1
		switch seg.Op {
		case sfnt.SegmentOpQuadTo:
			points = 2
		case sfnt.SegmentOpCubeTo:
			points = 3
		}
		for i := 0; i < points; i++ {
			x := float64(seg.Args[i].X) / 64
			y := float64(seg.Args[i].Y) / 64
			fMinX = math.Min(fMinX, x)
			fMinY = math.Min(fMinY, y)
			fMaxX = math.Max(fMaxX, x)
			fMaxY = math.Max(fMaxY, y)
		}
	}
	return int(math.Floor(fMinX)), int(math.Floor(fMinY)),
		int(math.Ceil(fMaxX)), int(math.Ceil(fMaxY))
}
