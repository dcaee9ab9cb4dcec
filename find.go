package fontcache

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

// foldName case-folds a font name for comparison. Unicode folding
// rather than ASCII lowercasing, so names like "İstanbul Sans" compare
// the way users expect.
func foldName(s string) string {
	return cases.Fold().String(s)
}

// FindFont resolves a face by exact family name, case-insensitively.
// A non-empty subfamily must also match exactly; an empty subfamily
// accepts any face of the family and returns the first. A miss or an
// ambiguous match returns a NotCachedError (matching ErrNotCached).
func (c *FontCache) FindFont(family, subfamily string) (EntryRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ff, fs := foldName(family), foldName(subfamily)
	matches := make([]int, 0, 1)
	for i, e := range c.entries {
		if foldName(e.family) != ff {
			continue
		}
		if subfamily != "" && foldName(e.subfamily) != fs {
			continue
		}
		matches = append(matches, i)
	}

	if len(matches) == 1 || (subfamily == "" && len(matches) > 0) {
		return EntryRef{cache: c, index: matches[0]}, nil
	}
	return EntryRef{}, &NotCachedError{Family: family, Subfamily: subfamily}
}

// SearchFonts finds faces matching a free-text term where the boundary
// between family and subfamily words is unknown. The term is split on
// whitespace and every prefix/suffix partition is tried in both
// orders, so "regular arial" and "arial regular" return the same
// result set. Matching is case-insensitive substring containment.
// Results are deduplicated and sorted by index.
func (c *FontCache) SearchFonts(term string) []EntryRef {
	c.mu.RLock()
	defer c.mu.RUnlock()

	words := strings.Fields(foldName(term))
	matched := make(map[int]struct{})
	for i := 0; i <= len(words); i++ {
		one := strings.Join(words[:i], " ")
		two := strings.Join(words[i:], " ")
		for idx, e := range c.entries {
			family, subfamily := foldName(e.family), foldName(e.subfamily)
			if (strings.Contains(family, one) && strings.Contains(subfamily, two)) ||
				(strings.Contains(family, two) && strings.Contains(subfamily, one)) {
				matched[idx] = struct{}{}
			}
		}
	}

	indices := make([]int, 0, len(matched))
	for idx := range matched {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	refs := make([]EntryRef, len(indices))
	for i, idx := range indices {
		refs[i] = EntryRef{cache: c, index: idx}
	}
	return refs
}

// FuzzySearchFonts finds faces whose full name approximately matches
// term, tolerating typos. Results are ordered best match first. Use
// SearchFonts for exact substring semantics.
func (c *FontCache) FuzzySearchFonts(term string) []EntryRef {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		if e.subfamily == "" {
			names[i] = e.family
		} else {
			names[i] = e.family + " " + e.subfamily
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Sort(ranks)

	refs := make([]EntryRef, 0, len(ranks))
	for _, r := range ranks {
		refs = append(refs, EntryRef{cache: c, index: r.OriginalIndex})
	}
	return refs
}
