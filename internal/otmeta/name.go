package otmeta

import (
	"encoding/binary"
	"unicode/utf16"
)

// Name IDs the cache cares about.
const (
	NameIDFamily    = 1
	NameIDSubfamily = 2
)

// nameRecord is one entry of the name table's record array.
type nameRecord struct {
	platformID, encodingID, languageID, nameID uint16
	length, offset                             uint16
}

// Name returns the best string for the given name ID: the Windows or
// Macintosh English record if one exists, otherwise the first record
// carrying that ID. Returns "" and false when no record matches or the
// face has no name table.
func (f *Face) Name(nameID uint16) (string, bool) {
	tbl := f.table(tagName)
	if len(tbl) < 6 {
		return "", false
	}
	count := int(binary.BigEndian.Uint16(tbl[2:]))
	stringOffset := int(binary.BigEndian.Uint16(tbl[4:]))
	if 6+count*12 > len(tbl) {
		return "", false
	}

	var english, first *nameRecord
	for i := 0; i < count; i++ {
		p := 6 + i*12
		rec := nameRecord{
			platformID: binary.BigEndian.Uint16(tbl[p:]),
			encodingID: binary.BigEndian.Uint16(tbl[p+2:]),
			languageID: binary.BigEndian.Uint16(tbl[p+4:]),
			nameID:     binary.BigEndian.Uint16(tbl[p+6:]),
			length:     binary.BigEndian.Uint16(tbl[p+8:]),
			offset:     binary.BigEndian.Uint16(tbl[p+10:]),
		}
		if rec.nameID != nameID {
			continue
		}
		if first == nil {
			r := rec
			first = &r
		}
		if isEnglish(rec) {
			r := rec
			english = &r
			break
		}
	}

	rec := english
	if rec == nil {
		rec = first
	}
	if rec == nil {
		return "", false
	}

	start := stringOffset + int(rec.offset)
	end := start + int(rec.length)
	if start < 0 || end > len(tbl) {
		return "", false
	}
	return decodeNameString(tbl[start:end], rec.platformID), true
}

// isEnglish reports whether a record is in English for the platforms
// where the language ID is well defined.
func isEnglish(rec nameRecord) bool {
	switch rec.platformID {
	case 0: // Unicode, no language semantics
		return true
	case 1: // Macintosh
		return rec.languageID == 0
	case 3: // Windows
		return rec.languageID == 0x0409
	}
	return false
}

// decodeNameString decodes a name table string payload. Unicode and
// Windows platforms store UTF-16BE; Macintosh stores single-byte Mac
// Roman, which we approximate as Latin-1 (identical for ASCII).
func decodeNameString(b []byte, platformID uint16) string {
	switch platformID {
	case 0, 3:
		u := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u = append(u, binary.BigEndian.Uint16(b[i:]))
		}
		return string(utf16.Decode(u))
	default:
		r := make([]rune, len(b))
		for i, c := range b {
			r[i] = rune(c)
		}
		return string(r)
	}
}
