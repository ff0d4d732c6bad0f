package upgrade

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"bsdata-go/internal/datafile"
)

// AttributeRename renames an attribute. Element is matched against the
// element's name before any element rename; empty matches every element.
type AttributeRename struct {
	Element string `toml:"element"`
	From    string `toml:"from"`
	To      string `toml:"to"`
}

// Transform rewrites a document from the previous checkpoint's schema to
// Version's schema. Element renames map old local names to new ones; the
// namespace prefix is kept. The root element's battleScribeVersion is always
// set to Version.
type Transform struct {
	Kind       datafile.Kind
	Version    string
	Elements   map[string]string
	Attributes []AttributeRename
}

// Apply runs the transform over data. Everything it does not rename
// (comments, processing instructions, whitespace, namespace declarations) is
// written back as read.
func (t *Transform) Apply(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out bytes.Buffer
	out.Grow(len(data) + len(data)/16)
	w := &tokenWriter{buf: &out}

	var open []xml.Name
	rootSeen := false
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &datafile.MalformedDataError{Kind: t.Kind, Err: err}
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			original := tok.Name.Local
			tok.Name = t.renameElement(tok.Name)
			tok.Attr = t.renameAttributes(original, tok.Attr)
			if !rootSeen {
				rootSeen = true
				tok.Attr = setAttr(tok.Attr, datafile.BattleScribeVersionAttribute, t.Version)
			}
			open = append(open, tok.Name)
			w.start(tok)
		case xml.EndElement:
			tok.Name = t.renameElement(tok.Name)
			if n := len(open); n == 0 || open[n-1] != tok.Name {
				return nil, &datafile.MalformedDataError{Kind: t.Kind, Err: fmt.Errorf("unexpected end element </%s>", qualified(tok.Name))}
			}
			open = open[:len(open)-1]
			w.end(tok)
		default:
			w.token(tok)
		}
	}

	if !rootSeen {
		return nil, &datafile.MalformedDataError{Kind: t.Kind, Err: errors.New("no root element")}
	}
	if len(open) > 0 {
		return nil, &datafile.MalformedDataError{Kind: t.Kind, Err: fmt.Errorf("element <%s> not closed", qualified(open[len(open)-1]))}
	}
	return out.Bytes(), nil
}

func (t *Transform) renameElement(name xml.Name) xml.Name {
	if renamed, ok := t.Elements[name.Local]; ok {
		name.Local = renamed
	}
	return name
}

func (t *Transform) renameAttributes(element string, attrs []xml.Attr) []xml.Attr {
	for _, rule := range t.Attributes {
		if rule.Element != "" && rule.Element != element {
			continue
		}
		for i := range attrs {
			if attrs[i].Name.Space == "" && attrs[i].Name.Local == rule.From {
				attrs[i].Name.Local = rule.To
			}
		}
	}
	return attrs
}

func setAttr(attrs []xml.Attr, name, value string) []xml.Attr {
	for i := range attrs {
		if attrs[i].Name.Space == "" && attrs[i].Name.Local == name {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// tokenWriter serializes raw tokens. xml.Encoder is not used because it
// rewrites namespace declarations and prefixes.
type tokenWriter struct {
	buf *bytes.Buffer
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func (w *tokenWriter) start(tok xml.StartElement) {
	w.buf.WriteByte('<')
	w.buf.WriteString(qualified(tok.Name))
	for _, a := range tok.Attr {
		w.buf.WriteByte(' ')
		w.buf.WriteString(qualified(a.Name))
		w.buf.WriteString(`="`)
		attrEscaper.WriteString(w.buf, a.Value)
		w.buf.WriteByte('"')
	}
	w.buf.WriteByte('>')
}

func (w *tokenWriter) end(tok xml.EndElement) {
	w.buf.WriteString("</")
	w.buf.WriteString(qualified(tok.Name))
	w.buf.WriteByte('>')
}

func (w *tokenWriter) token(tok xml.Token) {
	switch tok := tok.(type) {
	case xml.CharData:
		textEscaper.WriteString(w.buf, string(tok))
	case xml.Comment:
		w.buf.WriteString("<!--")
		w.buf.Write(tok)
		w.buf.WriteString("-->")
	case xml.ProcInst:
		w.buf.WriteString("<?")
		w.buf.WriteString(tok.Target)
		if len(tok.Inst) > 0 {
			w.buf.WriteByte(' ')
			w.buf.Write(tok.Inst)
		}
		w.buf.WriteString("?>")
	case xml.Directive:
		w.buf.WriteString("<!")
		w.buf.Write(tok)
		w.buf.WriteByte('>')
	}
}
