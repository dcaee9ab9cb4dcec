package fontcache

import (
	"path/filepath"
	"strings"
)

// FontFileType distinguishes single-face font files from collections.
type FontFileType int

const (
	// FileTypeSingle is a .ttf or .otf file holding exactly one face.
	FileTypeSingle FontFileType = iota
	// FileTypeCollection is a .ttc or .otc file holding one or more faces.
	FileTypeCollection
)

// String returns the string representation of the file type.
func (t FontFileType) String() string {
	switch t {
	case FileTypeSingle:
		return "Single"
	case FileTypeCollection:
		return "Collection"
	default:
		return "Unknown"
	}
}

// classifyPath maps a path's extension to a FontFileType.
// Unsupported or missing extensions yield a FileExtensionError.
func classifyPath(path string) (FontFileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return FileTypeSingle, nil
	case ".ttc", ".otc":
		return FileTypeCollection, nil
	default:
		return 0, &FileExtensionError{Path: path}
	}
}
