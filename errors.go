package fontcache

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fontcache package.
var (
	// ErrNotCached is returned by lookups that match no cached face.
	// Callers typically recover by falling back to a default face.
	ErrNotCached = errors.New("fontcache: font not cached")

	// ErrEmptyFontData is returned when a font file is empty.
	ErrEmptyFontData = errors.New("fontcache: empty font data")

	// ErrInvalidEntry is returned when an EntryRef does not point at a
	// live cache entry.
	ErrInvalidEntry = errors.New("fontcache: invalid entry reference")
)

// FileExtensionError is returned when a path has a missing or
// unsupported file extension. Supported extensions are .ttf, .otf
// (single face) and .ttc, .otc (collection).
type FileExtensionError struct {
	Path string
}

func (e *FileExtensionError) Error() string {
	return fmt.Sprintf("fontcache: unsupported font file extension: %q", e.Path)
}

// MissingDataError is returned when a face lacks metadata the cache
// requires, such as a family name.
type MissingDataError struct {
	Path      string
	FaceIndex int
	What      string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("fontcache: %s face %d: missing %s", e.Path, e.FaceIndex, e.What)
}

// NamedInstanceError is returned when a variable font declares a named
// instance whose subfamily name cannot be resolved to a display string.
type NamedInstanceError struct {
	Path      string
	FaceIndex int
	Instance  int
}

func (e *NamedInstanceError) Error() string {
	return fmt.Sprintf("fontcache: %s face %d: named instance %d has no name", e.Path, e.FaceIndex, e.Instance)
}

// NotCachedError wraps ErrNotCached with the query that missed.
type NotCachedError struct {
	Family    string
	Subfamily string
}

func (e *NotCachedError) Error() string {
	if e.Subfamily == "" {
		return fmt.Sprintf("fontcache: no cached face for family %q", e.Family)
	}
	return fmt.Sprintf("fontcache: no cached face for %q / %q", e.Family, e.Subfamily)
}

// Unwrap lets errors.Is(err, ErrNotCached) match.
func (e *NotCachedError) Unwrap() error { return ErrNotCached }
