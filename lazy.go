package fontcache

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// lazyFontData holds the derived per-face state that is expensive to
// build and rarely needed: hundreds of faces may be cataloged at
// startup while only a handful are ever shaped or rasterized. Each
// field is computed at most once, on first demand, and retained.
//
// The sync.Once guards make a concurrent first request from several
// goroutines safe; later requests are a pointer load.
type lazyFontData struct {
	shapeOnce sync.Once
	shapeFont *font.Font
	shapeErr  error

	outlineOnce sync.Once
	outlineFont *sfnt.Font
	outlineErr  error
}

// ShapingFont returns the face's parsed shaping handle. The first call
// parses the raw bytes with go-text/typesetting, which precomputes the
// cmap and layout structures HarfBuzz shaping needs; the result is
// shared by every FontShaper bound to this face.
func (r EntryRef) ShapingFont() (*font.Font, error) {
	e := r.entry()
	data := r.cache.arena.Bytes(e.span)
	e.lazy.shapeOnce.Do(func() {
		e.lazy.shapeFont, e.lazy.shapeErr = parseShapingFont(data, e.fileType, e.faceIndex)
	})
	return e.lazy.shapeFont, e.lazy.shapeErr
}

func parseShapingFont(data []byte, fileType FontFileType, faceIndex int) (*font.Font, error) {
	switch fileType {
	case FileTypeCollection:
		faces, err := font.ParseTTC(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("fontcache: parse collection: %w", err)
		}
		if faceIndex >= len(faces) {
			return nil, fmt.Errorf("fontcache: face %d out of range, collection has %d", faceIndex, len(faces))
		}
		return faces[faceIndex].Font, nil
	default:
		face, err := font.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("fontcache: parse font: %w", err)
		}
		return face.Font, nil
	}
}

// OutlineFont returns the face's outline collection, parsed on first
// demand with x/image/font/sfnt. The atlas rasterizer loads glyph
// segments through this handle.
func (r EntryRef) OutlineFont() (*sfnt.Font, error) {
	e := r.entry()
	data := r.cache.arena.Bytes(e.span)
	e.lazy.outlineOnce.Do(func() {
		e.lazy.outlineFont, e.lazy.outlineErr = parseOutlineFont(data, e.fileType, e.faceIndex)
	})
	return e.lazy.outlineFont, e.lazy.outlineErr
}

func parseOutlineFont(data []byte, fileType FontFileType, faceIndex int) (*sfnt.Font, error) {
	switch fileType {
	case FileTypeCollection:
		coll, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("fontcache: parse collection: %w", err)
		}
		f, err := coll.Font(faceIndex)
		if err != nil {
			return nil, fmt.Errorf("fontcache: collection face %d: %w", faceIndex, err)
		}
		return f, nil
	default:
		f, err := sfnt.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("fontcache: parse font: %w", err)
		}
		return f, nil
	}
}
