package installer

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestPlanPath verifies the destination layout and conflict handling.
func TestPlanPath(t *testing.T) {
	root := t.TempDir()

	p, err := PlanPath(root, "Pkg", "1.0.0", false)
	if err != nil {
		t.Fatalf("PlanPath() error = %v", err)
	}
	if want := filepath.Join(root, "Pkg", "1.0.0"); p.Destination != want {
		t.Errorf("Destination = %q, want %q", p.Destination, want)
	}
	if p.Exists {
		t.Error("Exists = true for a fresh root")
	}

	os.MkdirAll(p.Destination, 0o755)
	if _, err := PlanPath(root, "Pkg", "1.0.0", false); !errors.Is(err, ErrVersionAlreadyExists) {
		t.Errorf("PlanPath() error = %v, want ErrVersionAlreadyExists", err)
	}
	p, err = PlanPath(root, "Pkg", "1.0.0", true)
	if err != nil || !p.Exists {
		t.Errorf("PlanPath(force) = %+v, %v", p, err)
	}
}

// TestPlanPathRejectsUnsafeComponents verifies traversal attempts fail.
func TestPlanPathRejectsUnsafeComponents(t *testing.T) {
	cases := []struct{ name, version string }{
		{"..", "1.0.0"},
		{"a/b", "1.0.0"},
		{".hidden", "1.0.0"},
		{"Pkg", "../1"},
		{"Pkg", ""},
		{"", "1.0.0"},
	}
	for _, c := range cases {
		if _, err := PlanPath(t.TempDir(), c.name, c.version, false); !errors.Is(err, ErrInvalidName) {
			t.Errorf("PlanPath(%q, %q) error = %v, want ErrInvalidName", c.name, c.version, err)
		}
	}
}

// TestPrepareClearsExisting verifies a forced plan starts from an empty dir.
func TestPrepareClearsExisting(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "Pkg", "1.0.0")
	os.MkdirAll(dest, 0o755)
	os.WriteFile(filepath.Join(dest, "old.txt"), []byte("x"), 0o644)

	p, err := PlanPath(root, "Pkg", "1.0.0", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	entries, _ := os.ReadDir(dest)
	if len(entries) != 0 {
		t.Errorf("destination not empty: %v", entries)
	}
}

// TestCopyTree verifies nested files and symlinks are reproduced.
func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	os.MkdirAll(filepath.Join(src, "lib", "deep"), 0o755)
	os.WriteFile(filepath.Join(src, "lib", "deep", "a.txt"), []byte("A"), 0o644)
	os.WriteFile(filepath.Join(src, "run.sh"), []byte("#!/bin/sh\n"), 0o755)
	if runtime.GOOS != "windows" {
		os.Symlink("run.sh", filepath.Join(src, "link.sh"))
	}

	dst := filepath.Join(t.TempDir(), "out")
	os.MkdirAll(dst, 0o755)
	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree() error = %v", err)
	}
	if data, err := os.ReadFile(filepath.Join(dst, "lib", "deep", "a.txt")); err != nil || string(data) != "A" {
		t.Errorf("a.txt = %q, %v", data, err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "run.sh"))
		if err != nil || info.Mode().Perm()&0o100 == 0 {
			t.Errorf("run.sh mode not preserved: %v %v", info, err)
		}
		target, err := os.Readlink(filepath.Join(dst, "link.sh"))
		if err != nil || target != "run.sh" {
			t.Errorf("link.sh -> %q, %v", target, err)
		}
	}
}

// TestCopyTreeSkipsNestedDestination verifies copying into a subdirectory of
// the source terminates and does not recurse into itself.
func TestCopyTreeSkipsNestedDestination(t *testing.T) {
	src := t.TempDir()
	os.WriteFile(filepath.Join(src, "a.txt"), []byte("A"), 0o644)
	dst := filepath.Join(src, "nested")
	os.MkdirAll(dst, 0o755)

	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "nested")); !os.IsNotExist(err) {
		t.Error("destination copied into itself")
	}
}
