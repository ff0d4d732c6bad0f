package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bsdata-go/internal/archive"
	"bsdata-go/internal/datafile"
	"bsdata-go/internal/testutil"
	"bsdata-go/internal/upgrade"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return p
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	legacy := testutil.CatalogueXML("cat-1", "Orks", 4, "1.15", "gs-1")
	compressed, err := archive.Compress("Orks.cat", legacy)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	t.Run("plain catalogue", func(t *testing.T) {
		info, err := InspectFile(writeFile(t, dir, "Orks.cat", legacy))
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if info.Kind != datafile.KindCatalogue || info.Compressed {
			t.Errorf("Kind = %v, Compressed = %v", info.Kind, info.Compressed)
		}
		if info.Data.DataID() != "cat-1" || info.Version != "1.15" {
			t.Errorf("Data = %+v, Version = %q", info.Data, info.Version)
		}
		if !info.NeedsUpgrade {
			t.Error("NeedsUpgrade = false for a 1.15 catalogue")
		}
	})

	t.Run("compressed catalogue", func(t *testing.T) {
		info, err := InspectFile(writeFile(t, dir, "Orks.catz", compressed))
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if !info.Compressed || info.Size != len(legacy) {
			t.Errorf("Compressed = %v, Size = %d, want true, %d", info.Compressed, info.Size, len(legacy))
		}
	})

	t.Run("old roster", func(t *testing.T) {
		roster := `<roster name="List" battleScribeVersion="1.15" points="100" pointsLimit="500" gameSystemId="gs-1"/>`
		info, err := InspectFile(writeFile(t, dir, "List.ros", []byte(roster)))
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if info.NeedsUpgrade || info.Unsupported != nil {
			t.Errorf("NeedsUpgrade = %v, Unsupported = %v, want false, nil", info.NeedsUpgrade, info.Unsupported)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		old := testutil.GameSystemXML("gs-1", "Old", 1, "1.01")
		info, err := InspectFile(writeFile(t, dir, "Old.gst", old))
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if !errors.Is(info.Unsupported, datafile.ErrUnsupportedVersion) {
			t.Errorf("Unsupported = %v, want ErrUnsupportedVersion", info.Unsupported)
		}
	})

	t.Run("index", func(t *testing.T) {
		idx := `<dataIndex xmlns="http://www.battlescribe.net/schema/dataIndexSchema" battleScribeVersion="1.13b" name="wh40k">
  <dataIndexEntries>
    <dataIndexEntry filePath="Orks.catz" dataType="catalogue" dataId="cat-1" dataName="Orks" dataBattleScribeVersion="2.02" dataRevision="4"/>
  </dataIndexEntries>
</dataIndex>`
		info, err := InspectFile(writeFile(t, dir, "index.xml", []byte(idx)))
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if info.Index == nil || info.Index.Name != "wh40k" || len(info.Index.Entries) != 1 {
			t.Errorf("Index = %+v", info.Index)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := InspectFile(writeFile(t, dir, "notes.txt", []byte("x")))
		if !errors.Is(err, datafile.ErrInvalidArgument) {
			t.Errorf("InspectFile() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := InspectFile(writeFile(t, dir, "Broken.cat", []byte(`<catalogue name="x" battleScribeVersion="2.02"/>`)))
		if !errors.Is(err, datafile.ErrMalformedData) {
			t.Errorf("InspectFile() error = %v, want ErrMalformedData", err)
		}
	})
}

func TestUpgradeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Orks.cat", testutil.CatalogueXML("cat-1", "Orks", 4, "1.15", "gs-1"))

	f, err := UpgradeFile(path)
	if err != nil {
		t.Fatalf("UpgradeFile() error = %v", err)
	}
	if f.Result.Version != upgrade.CurrentVersion {
		t.Errorf("Version = %q, want %q", f.Result.Version, upgrade.CurrentVersion)
	}

	diff, err := f.Diff()
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !strings.Contains(diff, "+    <selectionEntry") {
		t.Errorf("Diff() missing renamed element:\n%s", diff)
	}

	t.Run("write compressed copy", func(t *testing.T) {
		out := filepath.Join(dir, "Orks.catz")
		if err := f.Write(out); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		info, err := InspectFile(out)
		if err != nil {
			t.Fatalf("InspectFile() error = %v", err)
		}
		if info.Version != upgrade.CurrentVersion || info.NeedsUpgrade {
			t.Errorf("Version = %q, NeedsUpgrade = %v", info.Version, info.NeedsUpgrade)
		}
	})

	t.Run("write in place", func(t *testing.T) {
		if err := f.Write(""); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		again, err := UpgradeFile(path)
		if err != nil {
			t.Fatalf("UpgradeFile() error = %v", err)
		}
		if again.Result.Changed() {
			t.Error("second upgrade changed the file")
		}
		if diff, _ := again.Diff(); diff != "" {
			t.Errorf("Diff() = %q, want empty", diff)
		}
	})

	t.Run("rejects index files", func(t *testing.T) {
		_, err := UpgradeFile(writeFile(t, dir, "index.xml", []byte("<dataIndex/>")))
		if !errors.Is(err, datafile.ErrInvalidArgument) {
			t.Errorf("UpgradeFile() error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestUnpackFile(t *testing.T) {
	dir := t.TempDir()
	data := testutil.RosterXML("My Army", "gs-1")
	compressed, err := archive.Compress("My Army.ros", data)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	entry, err := UnpackFile(writeFile(t, dir, "My Army.rosz", compressed))
	if err != nil {
		t.Fatalf("UnpackFile() error = %v", err)
	}
	if entry.Name != "My Army.ros" {
		t.Errorf("Name = %q, want %q", entry.Name, "My Army.ros")
	}
	if string(entry.Data) != string(data) {
		t.Error("UnpackFile() returned different content")
	}

	if _, err := UnpackFile(writeFile(t, dir, "My Army.ros", data)); !errors.Is(err, datafile.ErrInvalidArgument) {
		t.Errorf("UnpackFile() error = %v, want ErrInvalidArgument", err)
	}
}
