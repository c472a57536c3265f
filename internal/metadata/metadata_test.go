package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleRecord(root string) *Record {
	return &Record{
		Name:              "SampleDevModule",
		Version:           "1.0.0",
		SourceType:        SourceRemote,
		SourcePath:        "kb-labs/sample",
		SourceHost:        "github.com",
		Branch:            "main",
		ModuleSubPath:     "src/SampleDevModule",
		InstallPath:       filepath.Join(root, "SampleDevModule", "1.0.0"),
		LatestVersionPath: filepath.Join(root, "SampleDevModule", "1.0.0"),
		InstallDate:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestWriteThenRead verifies round-trip write → read produces an identical record.
func TestWriteThenRead(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)
	want := sampleRecord(root)

	if err := s.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := s.Read(want.Name)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

// TestWriteOverwrites verifies that a second Write fully replaces the first.
func TestWriteOverwrites(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)

	first := sampleRecord(root)
	if err := s.Write(first); err != nil {
		t.Fatal(err)
	}

	second := &Record{Name: first.Name, Version: "2.0.0", SourceType: SourceLocal, SourcePath: "/src"}
	if err := s.Write(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(first.Name)
	if err != nil {
		t.Fatal(err)
	}
	if got.Branch != "" || got.ModuleSubPath != "" {
		t.Errorf("stale fields survived overwrite: %+v", got)
	}
	if got.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", got.Version)
	}
}

// TestWriteCreatesDirectory verifies that Write creates .metadata/ if missing.
func TestWriteCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not", "yet")
	s := NewStore(root, nil)

	if err := s.Write(sampleRecord(root)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(s.Path("SampleDevModule")); err != nil {
		t.Errorf("metadata file not created: %v", err)
	}
}

// TestReadMissing verifies that a missing record is not an error.
func TestReadMissing(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	got, err := s.Read("nope")
	if err != nil || got != nil {
		t.Errorf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

// TestReadCorrupt verifies that a corrupt record reports ErrCorrupt.
func TestReadCorrupt(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)
	os.MkdirAll(s.Dir(), 0o755)
	os.WriteFile(s.Path("bad"), []byte("{not json"), 0o644)

	_, err := s.Read("bad")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read(corrupt) error = %v, want ErrCorrupt", err)
	}
}

// TestListSkipsCorrupt verifies that one corrupt file does not hide the others.
func TestListSkipsCorrupt(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)

	for _, name := range []string{"Beta", "Alpha"} {
		if err := s.Write(&Record{Name: name, Version: "1.0.0"}); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(s.Path("Broken"), []byte("]["), 0o644)
	os.MkdirAll(filepath.Join(s.Dir(), "logs"), 0o755)
	os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644)

	got, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alpha" || got[1].Name != "Beta" {
		t.Errorf("List() = %+v, want [Alpha Beta]", got)
	}
}

// TestListMissingDir verifies that a missing install root yields an empty list.
func TestListMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent"), nil)
	got, err := s.List()
	if err != nil || len(got) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", got, err)
	}
}

// TestDelete verifies Delete removes the file and tolerates absence.
func TestDelete(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)
	s.Write(sampleRecord(root))

	if err := s.Delete("SampleDevModule"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(s.Path("SampleDevModule")); !os.IsNotExist(err) {
		t.Errorf("metadata file still present: %v", err)
	}
	if err := s.Delete("SampleDevModule"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}
