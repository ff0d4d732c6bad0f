package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bsdata-go/internal/archive"
	"bsdata-go/internal/datafile"
	"bsdata-go/internal/index"
	"bsdata-go/internal/upgrade"
)

// FileInfo describes a single data or index file on disk.
type FileInfo struct {
	Path       string
	Kind       datafile.Kind
	Compressed bool
	Size       int // uncompressed size

	// Data is set for game systems, catalogues and rosters.
	Data datafile.DataFile
	// Index is set for index files.
	Index *index.DataIndex

	// Version is the declared battleScribeVersion.
	Version string
	// NeedsUpgrade is true when a checkpoint of the kind's chain is newer than Version.
	NeedsUpgrade bool
	// Unsupported is set when Version is too old (or missing) to upgrade.
	Unsupported error
}

// UpgradedFile is a data file together with its upgrade result.
type UpgradedFile struct {
	Path       string
	Kind       datafile.Kind
	Compressed bool
	Before     []byte
	Result     *upgrade.Result
}

// readDataFile reads path and returns its uncompressed content.
func readDataFile(path string) (datafile.Kind, bool, []byte, error) {
	kind := datafile.KindOf(path)
	if kind == datafile.KindUnknown {
		return kind, false, nil, fmt.Errorf("%w: %s is not a data or index file", datafile.ErrInvalidArgument, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return kind, false, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !datafile.IsCompressed(path) {
		return kind, false, raw, nil
	}
	data, err := archive.Decompress(raw)
	if err != nil {
		return kind, true, nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return kind, true, data, nil
}

// InspectFile reads the metadata of a data or index file, compressed or not.
func InspectFile(path string) (*FileInfo, error) {
	kind, compressed, data, err := readDataFile(path)
	if err != nil {
		return nil, err
	}
	info := &FileInfo{Path: path, Kind: kind, Compressed: compressed, Size: len(data)}

	if kind == datafile.KindIndex {
		idx, err := index.ReadIndex(data)
		if err != nil {
			return nil, err
		}
		info.Index = idx
		info.Version = idx.BattleScribeVersion
		return info, nil
	}

	df, err := datafile.Extract(kind, data)
	if err != nil {
		return nil, err
	}
	info.Data = df
	info.Version = df.DataVersion()

	u, err := upgrade.NewDefault()
	if err != nil {
		return nil, err
	}
	needs, _, err := u.RequiresUpgrade(kind, data)
	switch {
	case errors.Is(err, datafile.ErrUnsupportedVersion):
		info.Unsupported = err
	case err != nil:
		return nil, err
	default:
		info.NeedsUpgrade = needs
	}
	return info, nil
}

// UpgradeFile upgrades a data file in memory. Nothing is written.
func UpgradeFile(path string) (*UpgradedFile, error) {
	kind, compressed, data, err := readDataFile(path)
	if err != nil {
		return nil, err
	}
	if !kind.IsData() {
		return nil, fmt.Errorf("%w: %s is not a data file", datafile.ErrInvalidArgument, path)
	}

	u, err := upgrade.NewDefault()
	if err != nil {
		return nil, err
	}
	res, err := u.Upgrade(kind, data)
	if err != nil {
		return nil, err
	}
	return &UpgradedFile{Path: path, Kind: kind, Compressed: compressed, Before: data, Result: res}, nil
}

// Diff returns a unified diff of the upgrade, or "" when nothing changed.
func (f *UpgradedFile) Diff() (string, error) {
	if !f.Result.Changed() {
		return "", nil
	}
	return upgrade.Diff(filepath.Base(f.Path), f.Before, f.Result.Data)
}

// Write stores the upgraded document at out, or over the input when out is
// empty. The output is zipped when its name has a compressed extension.
func (f *UpgradedFile) Write(out string) error {
	if out == "" {
		out = f.Path
	}
	data := f.Result.Data
	if datafile.IsCompressed(out) {
		compressed, err := archive.Compress(datafile.UncompressedName(out), data)
		if err != nil {
			return err
		}
		data = compressed
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

// UnpackFile returns the single entry of a compressed data or index file.
func UnpackFile(path string) (*archive.Entry, error) {
	if !datafile.IsCompressed(path) {
		return nil, fmt.Errorf("%w: %s is not a compressed data file", datafile.ErrInvalidArgument, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	entry, err := archive.DecompressEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return entry, nil
}
