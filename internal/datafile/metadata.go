package datafile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Root element names, matched case-insensitively.
const (
	GameSystemTag = "gameSystem"
	CatalogueTag  = "catalogue"
	RosterTag     = "roster"
)

// Extract reads the root metadata of an uncompressed data file of the given
// kind.
func Extract(kind Kind, data []byte) (DataFile, error) {
	switch kind {
	case KindGameSystem:
		return ReadGameSystem(data)
	case KindCatalogue:
		return ReadCatalogue(data)
	case KindRoster:
		return ReadRoster(data)
	default:
		return nil, fmt.Errorf("%w: cannot extract metadata from %s files", ErrInvalidArgument, kind)
	}
}

// ReadGameSystem extracts the root attributes of a game system document.
func ReadGameSystem(data []byte) (*GameSystem, error) {
	attrs, err := findRoot(data, KindGameSystem, GameSystemTag)
	if err != nil {
		return nil, err
	}
	header, err := attrs.header(KindGameSystem)
	if err != nil {
		return nil, err
	}
	return &GameSystem{Header: header}, nil
}

// ReadCatalogue extracts the root attributes of a catalogue document.
func ReadCatalogue(data []byte) (*Catalogue, error) {
	attrs, err := findRoot(data, KindCatalogue, CatalogueTag)
	if err != nil {
		return nil, err
	}
	header, err := attrs.header(KindCatalogue)
	if err != nil {
		return nil, err
	}
	gsRevision, err := attrs.optionalInt(KindCatalogue, "gameSystemRevision")
	if err != nil {
		return nil, err
	}
	return &Catalogue{
		Header:             header,
		GameSystemID:       attrs.get("gameSystemId"),
		GameSystemRevision: gsRevision,
	}, nil
}

// ReadRoster extracts the root attributes of a roster document.
func ReadRoster(data []byte) (*Roster, error) {
	attrs, err := findRoot(data, KindRoster, RosterTag)
	if err != nil {
		return nil, err
	}

	r := &Roster{
		ID:             attrs.get("id"),
		Description:    attrs.get("description"),
		GameSystemName: attrs.get("gameSystemName"),
	}
	if r.BattleScribeVersion, err = attrs.required(KindRoster, BattleScribeVersionAttribute); err != nil {
		return nil, err
	}
	if r.Name, err = attrs.required(KindRoster, "name"); err != nil {
		return nil, err
	}
	if r.GameSystemID, err = attrs.required(KindRoster, "gameSystemId"); err != nil {
		return nil, err
	}
	if r.Points, err = attrs.requiredFloat(KindRoster, "points"); err != nil {
		return nil, err
	}
	if r.PointsLimit, err = attrs.requiredFloat(KindRoster, "pointsLimit"); err != nil {
		return nil, err
	}
	if r.GameSystemRevision, err = attrs.optionalInt(KindRoster, "gameSystemRevision"); err != nil {
		return nil, err
	}
	return r, nil
}

// findRoot scans forward to the first element named tag and returns its
// attributes. The rest of the document is not read.
func findRoot(data []byte, kind Kind, tag string) (attributes, error) {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &MalformedDataError{Kind: kind, Err: fmt.Errorf("root element <%s> not found", tag)}
		}
		if err != nil {
			return nil, &MalformedDataError{Kind: kind, Err: err}
		}
		if start, ok := tok.(xml.StartElement); ok && strings.EqualFold(start.Name.Local, tag) {
			return attributes(start.Attr), nil
		}
	}
}

type attributes []xml.Attr

func (a attributes) lookup(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

func (a attributes) get(name string) string {
	v, _ := a.lookup(name)
	return v
}

func (a attributes) required(kind Kind, name string) (string, error) {
	v, ok := a.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &MalformedDataError{Kind: kind, Attribute: name, Err: errors.New("missing required attribute")}
	}
	return v, nil
}

func (a attributes) requiredFloat(kind Kind, name string) (float64, error) {
	v, err := a.required(kind, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &MalformedDataError{Kind: kind, Attribute: name, Err: err}
	}
	return f, nil
}

func (a attributes) optionalInt(kind Kind, name string) (int, error) {
	v, ok := a.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &MalformedDataError{Kind: kind, Attribute: name, Err: err}
	}
	return n, nil
}

// header reads the attributes every game system and catalogue must carry.
func (a attributes) header(kind Kind) (Header, error) {
	var h Header
	var err error
	if h.ID, err = a.required(kind, "id"); err != nil {
		return h, err
	}
	if h.Name, err = a.required(kind, "name"); err != nil {
		return h, err
	}
	if h.BattleScribeVersion, err = a.required(kind, BattleScribeVersionAttribute); err != nil {
		return h, err
	}
	rev, err := a.required(kind, "revision")
	if err != nil {
		return h, err
	}
	if h.Revision, err = strconv.Atoi(strings.TrimSpace(rev)); err != nil {
		return h, &MalformedDataError{Kind: kind, Attribute: "revision", Err: err}
	}
	if h.Revision < 0 {
		return h, &MalformedDataError{Kind: kind, Attribute: "revision", Err: fmt.Errorf("negative revision %d", h.Revision)}
	}
	h.AuthorName = a.get("authorName")
	h.AuthorContact = a.get("authorContact")
	h.AuthorURL = a.get("authorUrl")
	return h, nil
}
