package datafile

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestProbeVersionBytes(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		want      string
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "declaration then root",
			doc:       `<?xml version="1.0" encoding="UTF-8"?><catalogue id="c1" battleScribeVersion="2.01"></catalogue>`,
			want:      "2.01",
			wantFound: true,
		},
		{
			name:      "comments before root",
			doc:       "<!-- generated --><?pi x?>\n<gameSystem battleScribeVersion=\"1.15\"/>",
			want:      "1.15",
			wantFound: true,
		},
		{
			name:      "byte order mark",
			doc:       "\ufeff<roster battleScribeVersion=\"2.02\"/>",
			want:      "2.02",
			wantFound: true,
		},
		{
			name:      "root without attribute",
			doc:       `<catalogue id="c1"/>`,
			wantFound: false,
		},
		{
			name:      "attribute on child only",
			doc:       `<catalogue><child battleScribeVersion="2.02"/></catalogue>`,
			wantFound: false,
		},
		{
			name:      "empty input",
			doc:       "",
			wantFound: false,
		},
		{
			name:      "truncated root tag",
			doc:       `<?xml version="1.0"?><catalogue id="c1" battleScr`,
			wantFound: false,
		},
		{
			name:    "not xml",
			doc:     `<catalogue id="c1" battleScribeVersion=2.01>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := ProbeVersionBytes([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ProbeVersionBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedData) {
					t.Errorf("error = %v, want ErrMalformedData", err)
				}
				return
			}
			if found != tt.wantFound {
				t.Errorf("found = %v, want %v", found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("version = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProbeVersionBytes_RootBeyondLimit(t *testing.T) {
	doc := "<!--" + strings.Repeat("x", ProbeLimit) + "-->" + `<catalogue battleScribeVersion="2.02"/>`

	_, found, err := ProbeVersionBytes([]byte(doc))
	if err != nil {
		t.Fatalf("ProbeVersionBytes() error = %v", err)
	}
	if found {
		t.Error("found = true, want false for a root element past the probe limit")
	}
}

func TestProbeVersion_RewindsSeeker(t *testing.T) {
	doc := `<gameSystem id="g" battleScribeVersion="2.00"><more/></gameSystem>`
	r := strings.NewReader(doc)

	version, found, err := ProbeVersion(r)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if !found || version != "2.00" {
		t.Fatalf("ProbeVersion() = %q, %v, want %q, true", version, found, "2.00")
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(rest) != doc {
		t.Errorf("stream after probe = %q, want full document", string(rest))
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestProbeVersion_ClosesNonSeekable(t *testing.T) {
	r := &closeTracker{Reader: bytes.NewBufferString(`<roster battleScribeVersion="2.02"/>`)}

	version, found, err := ProbeVersion(r)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if !found || version != "2.02" {
		t.Errorf("ProbeVersion() = %q, %v, want %q, true", version, found, "2.02")
	}
	if !r.closed {
		t.Error("non-seekable stream was not closed")
	}
}
