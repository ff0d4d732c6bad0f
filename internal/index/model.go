// Package index builds the repository index: one entry per compressed data
// file plus the index document itself, all compressed and keyed by file name.
package index

import (
	"encoding/xml"
	"fmt"
	"time"

	"bsdata-go/internal/datafile"
)

// Namespace is the XML namespace of index documents.
const Namespace = "http://www.battlescribe.net/schema/dataIndexSchema"

// SchemaVersion is the battleScribeVersion every index declares.
const SchemaVersion = "1.13b"

// DataType is the dataType attribute of an index entry.
type DataType string

const (
	DataTypeGameSystem DataType = "gamesystem"
	DataTypeCatalogue  DataType = "catalogue"
	DataTypeRoster     DataType = "roster"
)

// DataTypeOf maps a data kind to its index data type.
func DataTypeOf(kind datafile.Kind) (DataType, error) {
	switch kind {
	case datafile.KindGameSystem:
		return DataTypeGameSystem, nil
	case datafile.KindCatalogue:
		return DataTypeCatalogue, nil
	case datafile.KindRoster:
		return DataTypeRoster, nil
	default:
		return "", fmt.Errorf("%w: %s files are not indexed", datafile.ErrInvalidArgument, kind)
	}
}

// Entry describes one published data file.
type Entry struct {
	FilePath                string   `xml:"filePath,attr"`
	DataType                DataType `xml:"dataType,attr"`
	DataID                  string   `xml:"dataId,attr"`
	DataName                string   `xml:"dataName,attr"`
	DataBattleScribeVersion string   `xml:"dataBattleScribeVersion,attr"`
	DataRevision            int      `xml:"dataRevision,attr"`
	LastModified            string   `xml:"lastModified,attr,omitempty"`
}

// NewEntry describes the data file df published as filePath, which must
// already be a compressed name. A zero modified time is omitted.
func NewEntry(filePath string, df datafile.DataFile, modified time.Time) (Entry, error) {
	dataType, err := DataTypeOf(df.Kind())
	if err != nil {
		return Entry{}, err
	}
	if !datafile.IsCompressed(filePath) {
		return Entry{}, fmt.Errorf("%w: index entry path %q is not a compressed name", datafile.ErrInvalidArgument, filePath)
	}
	if df.DataRevision() < 0 {
		return Entry{}, fmt.Errorf("%w: negative revision %d", datafile.ErrInvalidArgument, df.DataRevision())
	}

	e := Entry{
		FilePath:                filePath,
		DataType:                dataType,
		DataID:                  df.DataID(),
		DataName:                df.DataName(),
		DataBattleScribeVersion: df.DataVersion(),
		DataRevision:            df.DataRevision(),
	}
	if !modified.IsZero() {
		e.LastModified = modified.UTC().Format(time.RFC3339)
	}
	return e, nil
}

// DataIndex is the index document of a repository.
type DataIndex struct {
	XMLName             xml.Name `xml:"http://www.battlescribe.net/schema/dataIndexSchema dataIndex"`
	BattleScribeVersion string   `xml:"battleScribeVersion,attr"`
	Name                string   `xml:"name,attr"`
	IndexURL            string   `xml:"indexUrl,attr,omitempty"`
	RepositoryURLs      []string `xml:"repositoryUrls>repositoryUrl"`
	Entries             []Entry  `xml:"dataIndexEntries>dataIndexEntry"`

	positions map[string]int
}

// NewDataIndex starts an empty index. indexURL and every repository URL are
// normalized; ones that fail normalization are dropped, as are duplicates.
func NewDataIndex(name, indexURL string, repositoryURLs []string) *DataIndex {
	idx := &DataIndex{
		BattleScribeVersion: SchemaVersion,
		Name:                name,
		positions:           make(map[string]int),
	}
	if u, ok := NormalizeURL(indexURL); ok {
		idx.IndexURL = u
	}

	seen := make(map[string]bool)
	for _, raw := range repositoryURLs {
		u, ok := NormalizeURL(raw)
		if !ok || seen[u] {
			continue
		}
		seen[u] = true
		idx.RepositoryURLs = append(idx.RepositoryURLs, u)
	}
	return idx
}

// Put adds e, replacing any earlier entry with the same file path in place.
func (idx *DataIndex) Put(e Entry) {
	if idx.positions == nil {
		idx.positions = make(map[string]int, len(idx.Entries))
		for i, existing := range idx.Entries {
			idx.positions[existing.FilePath] = i
		}
	}
	if i, ok := idx.positions[e.FilePath]; ok {
		idx.Entries[i] = e
		return
	}
	idx.positions[e.FilePath] = len(idx.Entries)
	idx.Entries = append(idx.Entries, e)
}

// Lookup returns the entry for a compressed file path.
func (idx *DataIndex) Lookup(filePath string) (Entry, bool) {
	for _, e := range idx.Entries {
		if e.FilePath == filePath {
			return e, true
		}
	}
	return Entry{}, false
}
