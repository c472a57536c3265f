// Package manifest locates and parses the package descriptor that sits at
// the root of a source tree (<Name>.devpkg.yaml, .yml or .toml).
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a tree root holds no descriptor file.
var ErrNotFound = errors.New("manifest not found")

// Find returns the path of the descriptor directly inside root.
// When several candidates exist the first one in directory order wins.
func Find(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := trimSuffix(e.Name()); ok {
			return filepath.Join(root, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, root)
}

// Load finds and parses the descriptor in root.
func Load(root string) (*Descriptor, error) {
	path, err := Find(root)
	if err != nil {
		return nil, err
	}
	return Read(path)
}

// Read parses the descriptor at path. A descriptor that cannot be decoded
// still yields its file-derived name and the default version.
func Read(path string) (*Descriptor, error) {
	base, ok := trimSuffix(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("%s is not a descriptor file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	d := &Descriptor{Path: path, Name: base, Version: DefaultVersion}
	fields, err := decode(path, data)
	if err != nil {
		// Unparsable documents fall back to defaults.
		return d, nil
	}
	d.Fields = fields

	if s, ok := stringField(fields, "name"); ok {
		d.Name = s
	}
	if s, ok := versionField(path, data, fields); ok {
		d.Version = s
		d.HasVersion = true
	}
	if s, ok := stringField(fields, "description"); ok {
		d.Description = s
	}
	return d, nil
}

// ReadVersion returns the version declared by the descriptor in root, or
// DefaultVersion when the descriptor is missing or has no version.
func ReadVersion(root string) (string, bool) {
	d, err := Load(root)
	if err != nil || !d.HasVersion {
		return DefaultVersion, false
	}
	return d.Version, true
}

func decode(path string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return out, nil
}

func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// versionField reads version as a string. Unquoted numbers such as
// `version: 2` or `version = 2.1` are accepted too; YAML floats keep their
// literal spelling so 1.0 stays "1.0".
func versionField(path string, data []byte, fields map[string]any) (string, bool) {
	switch v := fields["version"].(type) {
	case string:
		return stringField(fields, "version")
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		if !strings.HasSuffix(path, ".toml") {
			var doc struct {
				Version yaml.Node `yaml:"version"`
			}
			if yaml.Unmarshal(data, &doc) == nil && doc.Version.Kind == yaml.ScalarNode && doc.Version.Value != "" {
				return doc.Version.Value, true
			}
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func trimSuffix(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, suf := range descriptorSuffixes {
		if strings.HasSuffix(lower, suf) && len(name) > len(suf) {
			return name[:len(name)-len(suf)], true
		}
	}
	return "", false
}
