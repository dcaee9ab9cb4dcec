package atlas

import "github.com/gogpu/gputypes"

// Vertex is one corner of a glyph quad: a screen position in pixels
// and an atlas texture coordinate.
type Vertex struct {
	Pos [2]float32
	UV  [2]float32
}

// vertexStride is the byte stride per vertex: 4 x float32 = 16 bytes.
const vertexStride = 16

// AppendQuad appends the four vertices and six indices of one glyph
// quad and returns the extended slices. caretX, caretY is the glyph
// origin on the baseline in screen pixels with y growing downward.
// Stateless: no cache lookup or rasterization happens here.
//
// The quad's top edge carries V0 and its bottom edge V1, matching the
// blit orientation of the atlas.
func AppendQuad(vertices []Vertex, indices []uint32, b GlyphBounds, caretX, caretY float32) ([]Vertex, []uint32) {
	if b.Width == 0 || b.Height == 0 {
		return vertices, indices
	}

	left := caretX + float32(b.Left)
	right := left + float32(b.Width)
	// Bottom is the bitmap's offset above the baseline (y-up); screen
	// y grows downward.
	bottom := caretY - float32(b.Bottom)
	top := bottom - float32(b.Height)

	base := uint32(len(vertices))
	vertices = append(vertices,
		Vertex{Pos: [2]float32{left, top}, UV: [2]float32{b.U0, b.V0}},
		Vertex{Pos: [2]float32{right, top}, UV: [2]float32{b.U1, b.V0}},
		Vertex{Pos: [2]float32{right, bottom}, UV: [2]float32{b.U1, b.V1}},
		Vertex{Pos: [2]float32{left, bottom}, UV: [2]float32{b.U0, b.V1}},
	)
	indices = append(indices,
		base, base+1, base+2,
		base+2, base+3, base,
	)
	return vertices, indices
}

// VertexLayout returns the vertex buffer layout matching Vertex for
// the GPU pipeline: float32x2 position at location 0, float32x2 UV at
// location 1.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}
