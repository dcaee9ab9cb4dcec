// Package fonttest builds minimal synthetic sfnt binaries for tests.
// The generated files carry real table directories plus the head,
// name, fvar, and GSUB tables the catalog metadata readers consume;
// they contain no glyph data and are not renderable.
package fonttest

import (
	"encoding/binary"
	"math"
	"sort"
	"unicode/utf16"
)

// Axis describes a variation axis of a synthetic font.
type Axis struct {
	Tag               string
	Min, Default, Max float32
}

// Instance describes a named instance. Coords must have one value per
// axis.
type Instance struct {
	Name   string
	Coords []float32
}

// Font describes one synthetic face.
type Font struct {
	Family    string
	Subfamily string
	Revision  float64
	Axes      []Axis
	Instances []Instance
	// Features become the GSUB feature list's tags.
	Features []string

	// OmitFamilyName drops the family name record, producing a face
	// the cache must reject.
	OmitFamilyName bool
	// OmitInstanceNames drops the name records of named instances.
	OmitInstanceNames bool
}

// Build assembles the font as a single-face sfnt binary.
func (f Font) Build() []byte {
	return buildDirectory(f.tables(), 0)
}

// BuildCollection assembles the fonts into a ttcf collection.
func BuildCollection(fonts ...Font) []byte {
	header := make([]byte, 12+4*len(fonts))
	binary.BigEndian.PutUint32(header[0:], 0x74746366) // 'ttcf'
	binary.BigEndian.PutUint32(header[4:], 0x00010000)
	binary.BigEndian.PutUint32(header[8:], uint32(len(fonts)))

	out := header
	for i, f := range fonts {
		binary.BigEndian.PutUint32(out[12+4*i:], uint32(len(out)))
		out = append(out, buildDirectory(f.tables(), len(out))...)
	}
	return out
}

type table struct {
	tag  string
	data []byte
}

// tables produces the face's table set.
func (f Font) tables() []table {
	// Instance subfamily names occupy IDs from 256 up.
	var names []nameEntry
	if !f.OmitFamilyName && f.Family != "" {
		names = append(names, nameEntry{id: 1, value: f.Family})
	}
	if f.Subfamily != "" {
		names = append(names, nameEntry{id: 2, value: f.Subfamily})
	}
	instanceNameIDs := make([]uint16, len(f.Instances))
	for i, inst := range f.Instances {
		id := uint16(256 + i)
		instanceNameIDs[i] = id
		if !f.OmitInstanceNames {
			names = append(names, nameEntry{id: id, value: inst.Name})
		}
	}

	tables := []table{
		{tag: "head", data: buildHead(f.Revision)},
		{tag: "name", data: buildName(names)},
	}
	if len(f.Axes) > 0 {
		tables = append(tables, table{tag: "fvar", data: buildFvar(f.Axes, f.Instances, instanceNameIDs)})
	}
	if len(f.Features) > 0 {
		tables = append(tables, table{tag: "GSUB", data: buildLayout(f.Features)})
	}
	return tables
}

// buildDirectory lays out a table directory whose offsets are absolute
// within the final file; base is the directory's own file offset.
func buildDirectory(tables []table, base int) []byte {
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })

	n := len(tables)
	entrySelector := 0
	for 1<<(entrySelector+1) <= n {
		entrySelector++
	}
	searchRange := 16 << entrySelector

	out := make([]byte, 12+16*n)
	binary.BigEndian.PutUint32(out[0:], 0x00010000)
	binary.BigEndian.PutUint16(out[4:], uint16(n))
	binary.BigEndian.PutUint16(out[6:], uint16(searchRange))
	binary.BigEndian.PutUint16(out[8:], uint16(entrySelector))
	binary.BigEndian.PutUint16(out[10:], uint16(16*n-searchRange))

	for i, t := range tables {
		rec := 12 + 16*i
		copy(out[rec:], t.tag)
		binary.BigEndian.PutUint32(out[rec+8:], uint32(base+len(out)))
		binary.BigEndian.PutUint32(out[rec+12:], uint32(len(t.data)))
		out = append(out, t.data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

// buildHead emits a head table with the given 16.16 revision.
func buildHead(revision float64) []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:], 0x00010000)
	binary.BigEndian.PutUint32(head[4:], uint32(toFixed(revision)))
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5) // magic
	binary.BigEndian.PutUint16(head[18:], 1000)       // unitsPerEm
	return head
}

type nameEntry struct {
	id    uint16
	value string
}

// buildName emits a format 0 name table with Windows English records.
func buildName(entries []nameEntry) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	out := make([]byte, 6+12*len(entries))
	binary.BigEndian.PutUint16(out[2:], uint16(len(entries)))
	binary.BigEndian.PutUint16(out[4:], uint16(len(out)))

	var pool []byte
	for i, e := range entries {
		encoded := encodeUTF16BE(e.value)
		rec := 6 + 12*i
		binary.BigEndian.PutUint16(out[rec:], 3)        // platform: Windows
		binary.BigEndian.PutUint16(out[rec+2:], 1)      // encoding: UCS-2
		binary.BigEndian.PutUint16(out[rec+4:], 0x0409) // language: en-US
		binary.BigEndian.PutUint16(out[rec+6:], e.id)
		binary.BigEndian.PutUint16(out[rec+8:], uint16(len(encoded)))
		binary.BigEndian.PutUint16(out[rec+10:], uint16(len(pool)))
		pool = append(pool, encoded...)
	}
	return append(out, pool...)
}

func encodeUTF16BE(s string) []byte {
	u := utf16.Encode([]rune(s))
	b := make([]byte, 2*len(u))
	for i, v := range u {
		binary.BigEndian.PutUint16(b[2*i:], v)
	}
	return b
}

// buildFvar emits an fvar table without postScriptNameID fields.
func buildFvar(axes []Axis, instances []Instance, instanceNameIDs []uint16) []byte {
	axisCount := len(axes)
	instanceSize := 4 + axisCount*4

	out := make([]byte, 16)
	binary.BigEndian.PutUint32(out[0:], 0x00010000)
	binary.BigEndian.PutUint16(out[4:], 16) // axesArrayOffset
	binary.BigEndian.PutUint16(out[6:], 2)  // countSizePairs
	binary.BigEndian.PutUint16(out[8:], uint16(axisCount))
	binary.BigEndian.PutUint16(out[10:], 20) // axisSize
	binary.BigEndian.PutUint16(out[12:], uint16(len(instances)))
	binary.BigEndian.PutUint16(out[14:], uint16(instanceSize))

	for _, a := range axes {
		rec := make([]byte, 20)
		copy(rec, a.Tag)
		binary.BigEndian.PutUint32(rec[4:], uint32(toFixed(float64(a.Min))))
		binary.BigEndian.PutUint32(rec[8:], uint32(toFixed(float64(a.Default))))
		binary.BigEndian.PutUint32(rec[12:], uint32(toFixed(float64(a.Max))))
		out = append(out, rec...)
	}
	for i, inst := range instances {
		rec := make([]byte, instanceSize)
		binary.BigEndian.PutUint16(rec[0:], instanceNameIDs[i])
		for j := 0; j < axisCount && j < len(inst.Coords); j++ {
			binary.BigEndian.PutUint32(rec[4+4*j:], uint32(toFixed(float64(inst.Coords[j]))))
		}
		out = append(out, rec...)
	}
	return out
}

// buildLayout emits a GSUB/GPOS table whose feature list carries the
// given tags, with empty script and lookup lists.
func buildLayout(features []string) []byte {
	n := len(features)
	featureListLen := 2 + 6*n + 4 // count, records, one shared empty feature table

	out := make([]byte, 10)
	binary.BigEndian.PutUint32(out[0:], 0x00010000)
	binary.BigEndian.PutUint16(out[4:], 10)                        // scriptList
	binary.BigEndian.PutUint16(out[6:], 12)                        // featureList
	binary.BigEndian.PutUint16(out[8:], uint16(12+featureListLen)) // lookupList

	out = append(out, 0, 0) // empty script list

	fl := make([]byte, featureListLen)
	binary.BigEndian.PutUint16(fl[0:], uint16(n))
	sharedFeature := uint16(2 + 6*n)
	for i, tag := range features {
		rec := 2 + 6*i
		copy(fl[rec:], tag)
		binary.BigEndian.PutUint16(fl[rec+4:], sharedFeature)
	}
	out = append(out, fl...)

	out = append(out, 0, 0) // empty lookup list
	return out
}

// toFixed converts a float to 16.16 fixed point.
func toFixed(v float64) int32 {
	return int32(math.Round(v * 65536))
}
