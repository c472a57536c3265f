package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kb-labs/devpkg/internal/metadata"
)

const (
	defaultHost   = "github.com"
	defaultBranch = "main"

	// maxArchiveBytes bounds the downloaded archive size (1 GiB).
	maxArchiveBytes = 1 << 30
)

type (
	// Remote downloads branch archives from a GitHub-style host:
	// https://<host>/<owner>/<repo>/archive/refs/heads/<branch>.zip
	Remote struct {
		httpClient    *http.Client
		host          string
		baseURL       string // overrides https://<host>, used by tests
		defaultBranch string
		userAgent     string
	}

	// RemoteOption configures a Remote during construction.
	RemoteOption func(*Remote)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		r.httpClient = c
	}
}

// WithHost sets the default host for owner/repo shorthand.
func WithHost(host string) RemoteOption {
	return func(r *Remote) {
		if host != "" {
			r.host = host
		}
	}
}

// WithBaseURL overrides the archive base URL for every request.
func WithBaseURL(base string) RemoteOption {
	return func(r *Remote) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithDefaultBranch sets the branch used when a request names none.
func WithDefaultBranch(branch string) RemoteOption {
	return func(r *Remote) {
		if branch != "" {
			r.defaultBranch = branch
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) RemoteOption {
	return func(r *Remote) {
		r.userAgent = ua
	}
}

// NewRemote creates a Remote with defaults: host github.com, branch main.
func NewRemote(opts ...RemoteOption) *Remote {
	r := &Remote{
		httpClient:    http.DefaultClient,
		host:          defaultHost,
		defaultBranch: defaultBranch,
		userAgent:     "devpkg/dev",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ArchiveURL returns the branch archive URL for id.
func (r *Remote) ArchiveURL(id Identifier, branch string) string {
	base := r.baseURL
	if base == "" {
		host := id.Host
		if host == "" {
			host = r.host
		}
		base = "https://" + host
	}
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", base, id.Owner, id.Repo, branch)
}

// Fetch implements Fetcher. The archive is downloaded and extracted into a
// temporary directory that Tree.Close removes; on failure it is removed
// before Fetch returns.
func (r *Remote) Fetch(ctx context.Context, req Request) (tree *Tree, err error) {
	id, err := ParseIdentifier(req.Path)
	if err != nil {
		return nil, err
	}
	branch := req.Branch
	if branch == "" {
		branch = r.defaultBranch
	}
	subPath, err := cleanSubPath(req.SubPath)
	if err != nil {
		return nil, err
	}

	work, err := os.MkdirTemp("", "devpkg-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %w", ErrFetchFailed, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(work)
		}
	}()

	archiveURL := r.ArchiveURL(id, branch)
	progress(req, "Downloading %s@%s", id, branch)
	archive := filepath.Join(work, "archive.zip")
	if err = r.download(ctx, archiveURL, req.Token, archive); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, archiveURL, err)
	}

	progress(req, "Extracting archive")
	extracted := filepath.Join(work, "src")
	if err = extractZip(archive, extracted); err != nil {
		return nil, fmt.Errorf("%w: extract: %w", ErrFetchFailed, err)
	}

	root, err := packageRoot(extracted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if subPath != "" {
		root = filepath.Join(root, subPath)
		info, statErr := os.Stat(root)
		if statErr != nil || !info.IsDir() {
			err = fmt.Errorf("%w: subpath %q not found in %s", ErrFetchFailed, req.SubPath, id)
			return nil, err
		}
	}

	host := id.Host
	if host == "" {
		host = r.host
	}
	return &Tree{
		Root: root,
		Origin: Origin{
			Type:    metadata.SourceRemote,
			Path:    id.String(),
			Host:    host,
			Branch:  branch,
			SubPath: subPath,
		},
		cleanup: func() error { return os.RemoveAll(work) },
	}, nil
}

func (r *Remote) download(ctx context.Context, url, token, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", r.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("repository or branch not found (status 404)")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("access denied (status %d); check the token", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(f, io.LimitReader(resp.Body, maxArchiveBytes+1))
	if closeErr := f.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return copyErr
	}
	if n > maxArchiveBytes {
		return fmt.Errorf("archive exceeds %d bytes", int64(maxArchiveBytes))
	}
	return nil
}

// packageRoot returns the single top-level directory of an extracted branch
// archive (<repo>-<branch>/), or dir itself when the layout differs.
func packageRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("archive is empty")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

func cleanSubPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	clean := filepath.Clean(filepath.FromSlash(strings.Trim(p, "/\\")))
	if clean == "." {
		return "", nil
	}
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: subpath %q escapes the repository", ErrInvalidFormat, p)
	}
	return clean, nil
}
