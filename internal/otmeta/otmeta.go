// Package otmeta reads the handful of OpenType tables the font cache
// needs for cataloging: face directories, head (revision), name, fvar
// (axes and named instances), and the GSUB/GPOS feature lists. It does
// no glyph-level parsing; shaping and rasterization use full parsers.
package otmeta

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel errors for malformed font files.
var (
	// ErrNotSFNT is returned when the data does not start with a known
	// sfnt or collection signature.
	ErrNotSFNT = errors.New("otmeta: not an sfnt font file")

	// ErrTruncated is returned when the data ends before a required
	// structure does.
	ErrTruncated = errors.New("otmeta: truncated font data")
)

// sfnt signatures.
const (
	sigTrueType   = 0x00010000
	sigOpenType   = 0x4F54544F // 'OTTO'
	sigCollection = 0x74746366 // 'ttcf'
	sigAppleTrue  = 0x74727565 // 'true'
)

// Tag is a 4-byte OpenType table or feature tag.
type Tag uint32

// String renders the tag as its 4 ASCII characters.
func (t Tag) String() string {
	return string([]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)})
}

// MakeTag builds a Tag from a 4-character string.
func MakeTag(s string) Tag {
	var b [4]byte
	copy(b[:], s)
	return Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// Well-known table tags.
var (
	tagHead = MakeTag("head")
	tagName = MakeTag("name")
	tagFvar = MakeTag("fvar")
	tagGSUB = MakeTag("GSUB")
	tagGPOS = MakeTag("GPOS")
)

// tableSpan is a table's byte range within the file.
type tableSpan struct {
	offset, length uint32
}

// Face exposes the metadata tables of one face within a font file.
type Face struct {
	data   []byte
	tables map[Tag]tableSpan
}

// Faces parses the top-level structure of a font file and returns a
// reader per contained face. Single-face files yield one reader,
// collections yield one per directory entry.
func Faces(data []byte) ([]*Face, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	switch binary.BigEndian.Uint32(data) {
	case sigTrueType, sigOpenType, sigAppleTrue:
		f, err := faceAt(data, 0)
		if err != nil {
			return nil, err
		}
		return []*Face{f}, nil
	case sigCollection:
		// ttcf header: version(4), numFonts(4), offsets[numFonts].
		if len(data) < 12 {
			return nil, ErrTruncated
		}
		numFonts := binary.BigEndian.Uint32(data[8:])
		if numFonts == 0 || numFonts > 1024 {
			return nil, fmt.Errorf("otmeta: implausible collection face count %d", numFonts)
		}
		if len(data) < 12+int(numFonts)*4 {
			return nil, ErrTruncated
		}
		faces := make([]*Face, 0, numFonts)
		for i := 0; i < int(numFonts); i++ {
			off := binary.BigEndian.Uint32(data[12+i*4:])
			f, err := faceAt(data, off)
			if err != nil {
				return nil, fmt.Errorf("otmeta: collection face %d: %w", i, err)
			}
			faces = append(faces, f)
		}
		return faces, nil
	default:
		return nil, ErrNotSFNT
	}
}

// faceAt reads the table directory starting at off.
func faceAt(data []byte, off uint32) (*Face, error) {
	if int(off)+12 > len(data) {
		return nil, ErrTruncated
	}
	switch binary.BigEndian.Uint32(data[off:]) {
	case sigTrueType, sigOpenType, sigAppleTrue:
	default:
		return nil, ErrNotSFNT
	}
	numTables := int(binary.BigEndian.Uint16(data[off+4:]))
	recs := int(off) + 12
	if recs+numTables*16 > len(data) {
		return nil, ErrTruncated
	}
	tables := make(map[Tag]tableSpan, numTables)
	for i := 0; i < numTables; i++ {
		p := recs + i*16
		tag := Tag(binary.BigEndian.Uint32(data[p:]))
		tOff := binary.BigEndian.Uint32(data[p+8:])
		tLen := binary.BigEndian.Uint32(data[p+12:])
		if uint64(tOff)+uint64(tLen) > uint64(len(data)) {
			return nil, ErrTruncated
		}
		tables[tag] = tableSpan{offset: tOff, length: tLen}
	}
	return &Face{data: data, tables: tables}, nil
}

// table returns a table's bytes, or nil if the face lacks it.
func (f *Face) table(tag Tag) []byte {
	s, ok := f.tables[tag]
	if !ok {
		return nil
	}
	return f.data[s.offset : s.offset+s.length]
}

// Revision returns the head table's fontRevision as 16.16 fixed point.
// The second return is false when the face has no usable head table.
func (f *Face) Revision() (int32, bool) {
	head := f.table(tagHead)
	if len(head) < 8 {
		return 0, false
	}
	return int32(binary.BigEndian.Uint32(head[4:])), true
}
