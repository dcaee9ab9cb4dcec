package fontcache

import "github.com/flopp/go-findfont"

// LoadSystemFonts enumerates the platform's font directories and loads
// every supported file found there. Files with unsupported extensions
// are filtered out before loading; unreadable or malformed files are
// reported in the joined error and do not affect the rest.
//
// Returns the number of distinct indices newly cached or replaced.
func (c *FontCache) LoadSystemFonts() (int, error) {
	candidates := findfont.List()
	paths := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if _, err := classifyPath(p); err == nil {
			paths = append(paths, p)
		}
	}
	Logger().Info("system font scan",
		"candidates", len(candidates),
		"supported", len(paths))
	return c.LoadFontFiles(paths)
}
