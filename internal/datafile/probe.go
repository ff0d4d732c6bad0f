package datafile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ProbeLimit bounds how much of a stream ProbeVersion reads.
const ProbeLimit = 64 * 1024

// BattleScribeVersionAttribute is the root attribute carrying the schema
// version of a data file.
const BattleScribeVersionAttribute = "battleScribeVersion"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ProbeVersion reads the battleScribeVersion attribute of the first element
// in r without parsing the whole document. found is false when no root
// element appears within ProbeLimit bytes or the root lacks the attribute.
//
// If r is an io.Seeker it is rewound to where it started so the caller can
// read it again. Otherwise, if r is an io.Closer, it is closed.
func ProbeVersion(r io.Reader) (version string, found bool, err error) {
	seeker, canSeek := r.(io.Seeker)
	var start int64
	if canSeek {
		if start, err = seeker.Seek(0, io.SeekCurrent); err != nil {
			canSeek = false
		}
	}

	prefix, readErr := io.ReadAll(io.LimitReader(r, ProbeLimit))

	if canSeek {
		if _, err := seeker.Seek(start, io.SeekStart); err != nil && readErr == nil {
			readErr = fmt.Errorf("rewinding stream: %w", err)
		}
	} else if c, ok := r.(io.Closer); ok {
		c.Close()
	}
	if readErr != nil {
		return "", false, fmt.Errorf("reading stream prefix: %w", readErr)
	}

	return ProbeVersionBytes(prefix)
}

// ProbeVersionBytes is ProbeVersion over an in-memory document. Only the
// first ProbeLimit bytes are examined.
func ProbeVersionBytes(data []byte) (version string, found bool, err error) {
	if len(data) > ProbeLimit {
		data = data[:ProbeLimit]
	}
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if isTruncated(err) {
				return "", false, nil
			}
			return "", false, &MalformedDataError{Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, a := range start.Attr {
			if a.Name.Space == "" && a.Name.Local == BattleScribeVersionAttribute {
				return a.Value, true, nil
			}
		}
		return "", false, nil
	}
}

// isTruncated reports whether err means the input ended early rather than
// being malformed. A probe window may cut a document anywhere.
func isTruncated(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Msg == "unexpected EOF"
}
