package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadYAML verifies name and version are read from a YAML descriptor.
func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "SampleDevModule.devpkg.yaml", "version: \"1.0.0\"\ndescription: sample\n")

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Name != "SampleDevModule" {
		t.Errorf("Name = %q, want %q", d.Name, "SampleDevModule")
	}
	if d.Version != "1.0.0" || !d.HasVersion {
		t.Errorf("Version = %q (HasVersion=%v), want 1.0.0", d.Version, d.HasVersion)
	}
	if d.Description != "sample" {
		t.Errorf("Description = %q, want %q", d.Description, "sample")
	}
}

// TestLoadTOML verifies TOML descriptors and the name field override.
func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.devpkg.toml", "name = \"Tools\"\nversion = \"2.3.4\"\n")

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Name != "Tools" {
		t.Errorf("Name = %q, want %q", d.Name, "Tools")
	}
	if d.Version != "2.3.4" {
		t.Errorf("Version = %q, want %q", d.Version, "2.3.4")
	}
}

// TestLoadMissingVersionUsesDefault verifies the default version fallback.
func TestLoadMissingVersionUsesDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "NoVer.devpkg.yml", "description: nothing else\n")

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Version != DefaultVersion || d.HasVersion {
		t.Errorf("Version = %q (HasVersion=%v), want default", d.Version, d.HasVersion)
	}
}

// TestLoadUnparsableUsesDefault verifies a corrupt descriptor is not fatal.
func TestLoadUnparsableUsesDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Broken.devpkg.yaml", "version: [unterminated\n")

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Name != "Broken" || d.Version != DefaultVersion {
		t.Errorf("got %q@%q, want Broken@%s", d.Name, d.Version, DefaultVersion)
	}
}

// TestLoadNoDescriptor verifies ErrNotFound when the root has no descriptor.
func TestLoadNoDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# hi")
	if err := os.Mkdir(filepath.Join(dir, "nested.devpkg.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

// TestFindPicksFirstInDirectoryOrder verifies the deterministic pick among
// several candidates.
func TestFindPicksFirstInDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Beta.devpkg.yaml", "version: \"2.0.0\"\n")
	writeFile(t, dir, "Alpha.devpkg.yaml", "version: \"1.0.0\"\n")

	got, err := Find(dir)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if filepath.Base(got) != "Alpha.devpkg.yaml" {
		t.Errorf("Find() = %q, want Alpha.devpkg.yaml", filepath.Base(got))
	}
}

// TestReadVersion verifies the helper used by version recomputation.
func TestReadVersion(t *testing.T) {
	dir := t.TempDir()
	if v, ok := ReadVersion(dir); ok || v != DefaultVersion {
		t.Errorf("ReadVersion(empty) = %q, %v; want default, false", v, ok)
	}

	writeFile(t, dir, "Pkg.devpkg.yaml", "version: \"3.1.0\"\n")
	if v, ok := ReadVersion(dir); !ok || v != "3.1.0" {
		t.Errorf("ReadVersion() = %q, %v; want 3.1.0, true", v, ok)
	}
}

// TestLoadNumericVersion verifies unquoted numeric versions are kept rather
// than replaced by the default.
func TestLoadNumericVersion(t *testing.T) {
	cases := []struct {
		file, content, want string
	}{
		{"Pkg.devpkg.yaml", "version: 2\n", "2"},
		{"Pkg.devpkg.yaml", "version: 1.0\n", "1.0"},
		{"Pkg.devpkg.yml", "version: 2.10\n", "2.10"},
		{"Pkg.devpkg.toml", "version = 2.1\n", "2.1"},
		{"Pkg.devpkg.toml", "version = 3\n", "3"},
	}
	for _, c := range cases {
		dir := t.TempDir()
		writeFile(t, dir, c.file, c.content)

		d, err := Load(dir)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", c.content, err)
		}
		if d.Version != c.want || !d.HasVersion {
			t.Errorf("%s %q: Version = %q (HasVersion=%v), want %q", c.file, c.content, d.Version, d.HasVersion, c.want)
		}
	}
}
