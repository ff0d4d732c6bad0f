package index

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"bsdata-go/internal/archive"
	"bsdata-go/internal/datafile"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Marshal renders idx as an index document.
func Marshal(idx *DataIndex) ([]byte, error) {
	body, err := xml.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(xmlDeclaration) + len(body) + 1)
	buf.WriteString(xmlDeclaration)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ReadIndex parses an uncompressed index document.
func ReadIndex(data []byte) (*DataIndex, error) {
	var idx DataIndex
	if err := xml.Unmarshal(data, &idx); err != nil {
		return nil, &datafile.MalformedDataError{Kind: datafile.KindIndex, Err: err}
	}
	if idx.Name == "" {
		return nil, &datafile.MalformedDataError{Kind: datafile.KindIndex, Attribute: "name", Err: fmt.Errorf("missing required attribute")}
	}
	idx.positions = nil
	return &idx, nil
}

// ReadCompressedIndex parses an index.bsi archive.
func ReadCompressedIndex(compressed []byte) (*DataIndex, error) {
	data, err := archive.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompressing index: %w", err)
	}
	return ReadIndex(data)
}
