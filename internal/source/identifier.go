package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Identifier names a hosted repository.
type Identifier struct {
	Host  string // empty for owner/repo shorthand
	Owner string
	Repo  string
}

// String returns the owner/repo form stored in metadata.
func (id Identifier) String() string {
	return id.Owner + "/" + id.Repo
}

var namePart = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseIdentifier accepts owner/repo or https://<host>/<owner>/<repo>[.git].
func ParseIdentifier(s string) (Identifier, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Identifier{}, fmt.Errorf("%w: empty source", ErrInvalidFormat)
	}

	var id Identifier
	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return Identifier{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidFormat, u.Scheme)
		}
		id.Host = u.Host
		path = u.Path
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		return Identifier{}, fmt.Errorf("%w: %q (want owner/repo or https://host/owner/repo)", ErrInvalidFormat, s)
	}
	id.Owner = parts[0]
	id.Repo = strings.TrimSuffix(parts[1], ".git")
	if !namePart.MatchString(id.Owner) || !namePart.MatchString(id.Repo) || id.Repo == "." || id.Repo == ".." {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return id, nil
}
