package datafile

import (
	"fmt"
	"path"
	"strings"
)

// Kind identifies the type of a BattleScribe file. It is derived from the
// file name alone; content is never inspected.
type Kind int

const (
	KindUnknown Kind = iota
	KindGameSystem
	KindCatalogue
	KindRoster
	KindIndex
)

// Well-known index file names.
const (
	IndexFileName           = "index.xml"
	CompressedIndexFileName = "index.bsi"
)

// suffixSet lists the recognised extensions of one kind. Matching is
// case-insensitive and the legacy ".zip" form is accepted on input only.
type suffixSet struct {
	kind       Kind
	plain      string
	compressed string
	legacy     string
	mimeType   string
}

var suffixSets = []suffixSet{
	{KindGameSystem, ".gst", ".gstz", ".gst.zip", "application/battlescribe.gstz"},
	{KindCatalogue, ".cat", ".catz", ".cat.zip", "application/battlescribe.catz"},
	{KindRoster, ".ros", ".rosz", ".ros.zip", "application/battlescribe.rosz"},
}

const indexMIMEType = "application/battlescribe.bsi"

func (k Kind) String() string {
	switch k {
	case KindGameSystem:
		return "gamesystem"
	case KindCatalogue:
		return "catalogue"
	case KindRoster:
		return "roster"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// IsData reports whether k is one of the three indexable data kinds.
func (k Kind) IsData() bool {
	return k == KindGameSystem || k == KindCatalogue || k == KindRoster
}

// MIMEType returns the content type served for the compressed form of k.
func (k Kind) MIMEType() string {
	if k == KindIndex {
		return indexMIMEType
	}
	for _, s := range suffixSets {
		if s.kind == k {
			return s.mimeType
		}
	}
	return "application/octet-stream"
}

// KindOf classifies a file name or path by its extension.
func KindOf(name string) Kind {
	kind, _ := match(name)
	return kind
}

// IsCompressed reports whether name carries a compressed extension,
// including the legacy ".zip" forms and ".bsi".
func IsCompressed(name string) bool {
	_, suffix := match(name)
	if suffix == "" {
		return false
	}
	lower := strings.ToLower(suffix)
	return lower == ".bsi" || strings.HasSuffix(lower, "z") || strings.HasSuffix(lower, ".zip")
}

// CompressedName returns the base name of name with its extension replaced by
// the canonical compressed extension of its kind.
func CompressedName(name string) (string, error) {
	base := baseName(name)
	kind, suffix := match(base)
	if kind == KindUnknown {
		return "", fmt.Errorf("%w: %q is not a data or index file", ErrInvalidArgument, name)
	}
	if kind == KindIndex {
		return CompressedIndexFileName, nil
	}
	set := suffixSetFor(kind)
	return base[:len(base)-len(suffix)] + set.compressed, nil
}

// UncompressedName returns the base name of name with its extension replaced
// by the canonical uncompressed extension of its kind. Unrecognised names are
// returned unchanged.
func UncompressedName(name string) string {
	base := baseName(name)
	kind, suffix := match(base)
	switch kind {
	case KindUnknown:
		return name
	case KindIndex:
		return IndexFileName
	}
	set := suffixSetFor(kind)
	return base[:len(base)-len(suffix)] + set.plain
}

// match returns the kind of name and the exact suffix (in its original case)
// that identified it.
func match(name string) (Kind, string) {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	for _, s := range suffixSets {
		// legacy first: ".gst.zip" must not be read as an unknown ".zip"
		for _, suffix := range []string{s.legacy, s.compressed, s.plain} {
			if strings.HasSuffix(lower, suffix) {
				return s.kind, trimmed[len(trimmed)-len(suffix):]
			}
		}
	}
	// the index is recognised by its fixed name only
	switch base := baseName(trimmed); {
	case strings.EqualFold(base, CompressedIndexFileName):
		return KindIndex, base[len(base)-len(".bsi"):]
	case strings.EqualFold(base, IndexFileName):
		return KindIndex, base[len(base)-len(".xml"):]
	}
	return KindUnknown, ""
}

func suffixSetFor(kind Kind) suffixSet {
	for _, s := range suffixSets {
		if s.kind == kind {
			return s
		}
	}
	return suffixSet{}
}

// baseName strips any directory component, accepting both separators.
func baseName(name string) string {
	p := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
