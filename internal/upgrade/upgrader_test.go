package upgrade

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"bsdata-go/internal/datafile"
)

const oldCatalogue = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<catalogue id="cat-1" name="Orks" revision="4" battleScribeVersion="1.14" xmlns="http://www.battlescribe.net/schema/catalogueSchema">
  <!-- keep me -->
  <entries>
    <entry id="e1" name="Boyz &amp; Nobz" book="Codex"/>
  </entries>
  <links>
    <link id="l1" linkType="entry" targetId="e1"/>
  </links>
</catalogue>
`

func newTestUpgrader(t *testing.T) *Upgrader {
	t.Helper()
	u, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	return u
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2.02", "2.02", 0},
		{"2.01", "2.02", -1},
		{"1.13b", "1.13", 1},
		{"1.13B", "1.13b", 0},
		{"1.15", "1.13b", 1},
		{"1.9", "1.13b", 1},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUpgrade_Catalogue(t *testing.T) {
	u := newTestUpgrader(t)

	res, err := u.Upgrade(datafile.KindCatalogue, []byte(oldCatalogue))
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	if res.FromVersion != "1.14" {
		t.Errorf("FromVersion = %q, want %q", res.FromVersion, "1.14")
	}
	if res.Version != CurrentVersion {
		t.Errorf("Version = %q, want %q", res.Version, CurrentVersion)
	}
	wantApplied := []string{"1.15", "2.00", "2.01", "2.02"}
	if !slices.Equal(res.Applied, wantApplied) {
		t.Errorf("Applied = %v, want %v", res.Applied, wantApplied)
	}

	out := string(res.Data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`,
		`battleScribeVersion="2.02"`,
		`xmlns="http://www.battlescribe.net/schema/catalogueSchema"`,
		`<!-- keep me -->`,
		`<selectionEntries>`,
		`</selectionEntries>`,
		`name="Boyz &amp; Nobz"`,
		`publication="Codex"`,
		`<entryLink id="l1" type="entry" targetId="e1">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("upgraded document missing %q:\n%s", want, out)
		}
	}
	for _, gone := range []string{"<entries>", "<link ", "linkType=", "book="} {
		if strings.Contains(out, gone) {
			t.Errorf("upgraded document still contains %q", gone)
		}
	}

	md, err := datafile.ReadCatalogue(res.Data)
	if err != nil {
		t.Fatalf("ReadCatalogue() on upgraded document error = %v", err)
	}
	if md.BattleScribeVersion != CurrentVersion || md.Revision != 4 {
		t.Errorf("metadata = %+v", md)
	}
}

func TestUpgrade_Idempotent(t *testing.T) {
	u := newTestUpgrader(t)

	first, err := u.Upgrade(datafile.KindCatalogue, []byte(oldCatalogue))
	if err != nil {
		t.Fatalf("first Upgrade() error = %v", err)
	}
	second, err := u.Upgrade(datafile.KindCatalogue, first.Data)
	if err != nil {
		t.Fatalf("second Upgrade() error = %v", err)
	}
	if second.Changed() {
		t.Errorf("second Upgrade() applied %v", second.Applied)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("second Upgrade() changed the document")
	}
}

func TestUpgrade_PartialChain(t *testing.T) {
	u := newTestUpgrader(t)
	doc := `<gameSystem id="g" name="g" revision="1" battleScribeVersion="2.00"><link linkType="x"/></gameSystem>`

	res, err := u.Upgrade(datafile.KindGameSystem, []byte(doc))
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	if !slices.Equal(res.Applied, []string{"2.01", "2.02"}) {
		t.Errorf("Applied = %v, want [2.01 2.02]", res.Applied)
	}
	// 2.00 already ran, so its renames must not be reapplied.
	if !strings.Contains(string(res.Data), `<link linkType="x">`) {
		t.Errorf("document = %s", res.Data)
	}
}

func TestUpgrade_VersionGate(t *testing.T) {
	u := newTestUpgrader(t)

	tests := []struct {
		name     string
		kind     datafile.Kind
		doc      string
		wantErr  error
		wantSame bool
	}{
		{
			name:    "too old",
			kind:    datafile.KindCatalogue,
			doc:     `<catalogue battleScribeVersion="1.12"/>`,
			wantErr: datafile.ErrUnsupportedVersion,
		},
		{
			name:    "missing version",
			kind:    datafile.KindCatalogue,
			doc:     `<catalogue id="c"/>`,
			wantErr: datafile.ErrUnsupportedVersion,
		},
		{
			name:    "malformed",
			kind:    datafile.KindCatalogue,
			doc:     `<catalogue battleScribeVersion=2.01/>`,
			wantErr: datafile.ErrMalformedData,
		},
		{
			name:     "minimum version is accepted",
			kind:     datafile.KindRoster,
			doc:      `<roster battleScribeVersion="1.13b"/>`,
			wantSame: true,
		},
		{
			name:     "current version untouched",
			kind:     datafile.KindCatalogue,
			doc:      `<catalogue battleScribeVersion="2.02"><entries/></catalogue>`,
			wantSame: true,
		},
		{
			name:     "newer version untouched",
			kind:     datafile.KindGameSystem,
			doc:      `<gameSystem battleScribeVersion="2.03"/>`,
			wantSame: true,
		},
		{
			name:     "roster has no chain",
			kind:     datafile.KindRoster,
			doc:      `<roster battleScribeVersion="1.15"><forces/></roster>`,
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := u.Upgrade(tt.kind, []byte(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Upgrade() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upgrade() error = %v", err)
			}
			if tt.wantSame && string(res.Data) != tt.doc {
				t.Errorf("Data = %s, want unchanged input", res.Data)
			}
		})
	}
}

func TestRequiresUpgrade(t *testing.T) {
	u := newTestUpgrader(t)

	tests := []struct {
		name        string
		kind        datafile.Kind
		doc         string
		want        bool
		wantVersion string
	}{
		{name: "old catalogue", kind: datafile.KindCatalogue, doc: oldCatalogue, want: true, wantVersion: "1.14"},
		{name: "current catalogue", kind: datafile.KindCatalogue, doc: `<catalogue battleScribeVersion="2.02"/>`, wantVersion: "2.02"},
		{name: "old game system", kind: datafile.KindGameSystem, doc: `<gameSystem battleScribeVersion="2.00"/>`, want: true, wantVersion: "2.00"},
		{name: "old roster has no chain", kind: datafile.KindRoster, doc: `<roster battleScribeVersion="1.15"/>`, wantVersion: "1.15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, version, err := u.RequiresUpgrade(tt.kind, []byte(tt.doc))
			if err != nil {
				t.Fatalf("RequiresUpgrade() error = %v", err)
			}
			if needs != tt.want || version != tt.wantVersion {
				t.Errorf("RequiresUpgrade() = %v, %q, want %v, %q", needs, version, tt.want, tt.wantVersion)
			}

			res, err := u.Upgrade(tt.kind, []byte(tt.doc))
			if err != nil {
				t.Fatalf("Upgrade() error = %v", err)
			}
			if res.Changed() != needs {
				t.Errorf("Upgrade().Changed() = %v, RequiresUpgrade() = %v", res.Changed(), needs)
			}
		})
	}

	t.Run("too old", func(t *testing.T) {
		_, _, err := u.RequiresUpgrade(datafile.KindRoster, []byte(`<roster battleScribeVersion="1.10"/>`))
		if !errors.Is(err, datafile.ErrUnsupportedVersion) {
			t.Errorf("RequiresUpgrade() error = %v, want ErrUnsupportedVersion", err)
		}
	})
}

func TestDiff(t *testing.T) {
	before := []byte("<a>\n  <entries/>\n</a>\n")
	after := []byte("<a>\n  <selectionEntries/>\n</a>\n")

	out, err := Diff("x.cat", before, after)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	for _, want := range []string{"--- x.cat", "+++ x.cat (upgraded)", "-  <entries/>", "+  <selectionEntries/>"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	same, err := Diff("x.cat", before, before)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if same != "" {
		t.Errorf("Diff() of identical input = %q, want empty", same)
	}
}
