package otmeta

import (
	"encoding/binary"
	"sort"
)

// FeatureTags returns the union of feature tags declared in the GSUB
// and GPOS feature lists, deduplicated and sorted. Faces without
// layout tables return an empty slice.
func (f *Face) FeatureTags() []string {
	seen := make(map[string]struct{})
	collectFeatureTags(f.table(tagGSUB), seen)
	collectFeatureTags(f.table(tagGPOS), seen)

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// collectFeatureTags walks a GSUB/GPOS FeatureList and adds every
// feature record's tag to seen. Malformed tables are skipped silently;
// features are advisory metadata, not load-bearing structure.
func collectFeatureTags(tbl []byte, seen map[string]struct{}) {
	// Layout header: version(4), scriptListOffset(2),
	// featureListOffset(2), lookupListOffset(2).
	if len(tbl) < 8 {
		return
	}
	flOffset := int(binary.BigEndian.Uint16(tbl[6:]))
	if flOffset == 0 || flOffset+2 > len(tbl) {
		return
	}
	count := int(binary.BigEndian.Uint16(tbl[flOffset:]))
	// Feature records: tag(4), offset(2).
	if flOffset+2+count*6 > len(tbl) {
		return
	}
	for i := 0; i < count; i++ {
		p := flOffset + 2 + i*6
		seen[Tag(binary.BigEndian.Uint32(tbl[p:])).String()] = struct{}{}
	}
}
