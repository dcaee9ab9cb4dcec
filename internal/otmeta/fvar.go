package otmeta

import "encoding/binary"

// Axis is one variation axis of a variable font.
// Min, Default, and Max are 16.16 fixed-point design-space values.
type Axis struct {
	Tag               Tag
	Min, Default, Max int32
	NameID            uint16
}

// Instance is a named instance of a variable font: a designer-chosen
// point in design space with its own subfamily name.
type Instance struct {
	SubfamilyNameID uint16
	// Coords holds one 16.16 fixed-point value per axis, in axis order.
	Coords []int32
}

// Variations reads the fvar table. Non-variable fonts return empty
// slices and a nil error; a malformed fvar table returns ErrTruncated.
func (f *Face) Variations() ([]Axis, []Instance, error) {
	tbl := f.table(tagFvar)
	if tbl == nil {
		return nil, nil, nil
	}
	// fvar header: version(4), axesArrayOffset(2), reserved(2),
	// axisCount(2), axisSize(2), instanceCount(2), instanceSize(2).
	if len(tbl) < 16 {
		return nil, nil, ErrTruncated
	}
	axesOffset := int(binary.BigEndian.Uint16(tbl[4:]))
	axisCount := int(binary.BigEndian.Uint16(tbl[8:]))
	axisSize := int(binary.BigEndian.Uint16(tbl[10:]))
	instanceCount := int(binary.BigEndian.Uint16(tbl[12:]))
	instanceSize := int(binary.BigEndian.Uint16(tbl[14:]))
	if axisSize < 20 || axesOffset+axisCount*axisSize > len(tbl) {
		return nil, nil, ErrTruncated
	}

	axes := make([]Axis, axisCount)
	for i := range axes {
		p := axesOffset + i*axisSize
		axes[i] = Axis{
			Tag:     Tag(binary.BigEndian.Uint32(tbl[p:])),
			Min:     int32(binary.BigEndian.Uint32(tbl[p+4:])),
			Default: int32(binary.BigEndian.Uint32(tbl[p+8:])),
			Max:     int32(binary.BigEndian.Uint32(tbl[p+12:])),
			NameID:  binary.BigEndian.Uint16(tbl[p+18:]),
		}
	}

	// Instance records follow the axis array. Each holds
	// subfamilyNameID(2), flags(2), coords[axisCount] Fixed, and
	// optionally postScriptNameID(2); instanceSize disambiguates.
	minInstanceSize := 4 + axisCount*4
	instancesOffset := axesOffset + axisCount*axisSize
	if instanceCount > 0 {
		if instanceSize < minInstanceSize ||
			instancesOffset+instanceCount*instanceSize > len(tbl) {
			return nil, nil, ErrTruncated
		}
	}
	instances := make([]Instance, instanceCount)
	for i := range instances {
		p := instancesOffset + i*instanceSize
		coords := make([]int32, axisCount)
		for j := range coords {
			coords[j] = int32(binary.BigEndian.Uint32(tbl[p+4+j*4:]))
		}
		instances[i] = Instance{
			SubfamilyNameID: binary.BigEndian.Uint16(tbl[p:]),
			Coords:          coords,
		}
	}
	return axes, instances, nil
}
