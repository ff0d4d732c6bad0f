// Package archive converts between BattleScribe's compressed file forms
// (.gstz, .catz, .rosz, .bsi) and their uncompressed XML content. Each
// compressed file is a zip archive holding exactly one entry.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"bsdata-go/internal/datafile"
)

// FixedModTime is stamped on every entry so identical content always
// compresses to identical bytes (1980-01-01 UTC, the zip epoch).
var FixedModTime = time.Unix(315532800, 0).UTC()

// MaxEntrySize bounds the uncompressed size of a single entry.
const MaxEntrySize = 256 << 20

// ErrArchiveEntryCount is returned when a compressed data file does not hold
// exactly one entry.
var ErrArchiveEntryCount = errors.New("archive must contain exactly one entry")

// Entry is one file read out of an archive.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Compress wraps data in a single-entry zip archive. The entry is named after
// the uncompressed form of entryName; entryName must not itself carry a
// compressed extension.
func Compress(entryName string, data []byte) ([]byte, error) {
	if datafile.IsCompressed(entryName) {
		return nil, fmt.Errorf("%w: entry name %q already has a compressed extension", datafile.ErrInvalidArgument, entryName)
	}
	name := sanitizePath(datafile.UncompressedName(entryName))
	if name == "" {
		return nil, fmt.Errorf("%w: empty entry name", datafile.ErrInvalidArgument)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	h := &zip.FileHeader{Name: path.Base(name), Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = FixedModTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress returns the content of the single entry in a compressed data
// file.
func Decompress(compressed []byte) ([]byte, error) {
	entry, err := DecompressEntry(compressed)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// DecompressEntry is Decompress but also reports the entry's name and
// modification time.
func DecompressEntry(compressed []byte) (*Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(compressed), int64(len(compressed)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrArchiveEntryCount, len(zr.File))
	}
	return readEntry(zr.File[0])
}

// Unpack returns every regular file in an archive, such as a zipped
// repository checkout. Directory entries are skipped and entry paths are
// cleaned so they cannot escape a destination directory.
func Unpack(compressed []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(compressed), int64(len(compressed)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var entries []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entry, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func readEntry(f *zip.File) (*Entry, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("read %s: entry exceeds %d bytes", f.Name, MaxEntrySize)
	}
	return &Entry{Name: sanitizePath(f.Name), Data: data, Modified: f.Modified}, nil
}

// sanitizePath normalizes an entry path to forward slashes with no drive
// letter, no leading '/', and no '.' or '..' segments.
func sanitizePath(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return strings.Join(stack, "/")
}
