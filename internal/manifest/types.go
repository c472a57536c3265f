package manifest

// DefaultVersion is used when a descriptor carries no usable version field.
const DefaultVersion = "0.0.0"

// Descriptor file suffixes recognised in a package root.
var descriptorSuffixes = []string{".devpkg.yaml", ".devpkg.yml", ".devpkg.toml"}

// Descriptor is the package's own self-describing manifest.
type Descriptor struct {
	// Path is the absolute path of the descriptor file.
	Path string
	// Name comes from the "name" field, else from the file name.
	Name string
	// Version comes from the "version" field, else DefaultVersion.
	Version string
	// Description is optional free text.
	Description string
	// HasVersion reports whether Version was read from the file.
	HasVersion bool
	// Fields holds every top-level key the package declares.
	Fields map[string]any
}
