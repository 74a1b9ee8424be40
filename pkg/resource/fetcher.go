package resource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	stdnet "domkit/std/net"
)

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches resources over HTTP/HTTPS, resolving relative URIs
// against a base URL.
type DefaultFetcher struct {
	baseURL string
	client  *stdnet.Client
}

// NewFetcher creates a DefaultFetcher with the given base URL.
// Relative URIs passed to Fetch will be resolved against this base.
func NewFetcher(baseURL string, client *stdnet.Client) *DefaultFetcher {
	if client == nil {
		client = &stdnet.Client{}
	}
	return &DefaultFetcher{baseURL: baseURL, client: client}
}

// Fetch retrieves the resource at the given URI.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resolved := uri
	if !stdnet.IsNetworkURL(uri) && f.baseURL != "" {
		resolved = stdnet.ResolveURL(f.baseURL, uri)
	}
	if !stdnet.IsNetworkURL(resolved) {
		return nil, "", errors.Errorf("cannot fetch non-network URI: %s", resolved)
	}
	return f.client.Fetch(ctx, resolved)
}

// FileFetcher reads relative URIs from a directory on disk and hands
// network URLs to a DefaultFetcher.
type FileFetcher struct {
	dir    string
	remote *DefaultFetcher
}

func NewFileFetcher(dir string, client *stdnet.Client) *FileFetcher {
	return &FileFetcher{dir: dir, remote: NewFetcher("", client)}
}

func (f *FileFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	if stdnet.IsNetworkURL(uri) {
		return f.remote.Fetch(ctx, uri)
	}
	path := strings.TrimPrefix(uri, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, filepath.FromSlash(path))
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s", uri)
	}
	return body, contentTypeFor(path), nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return "text/css"
	case ".js":
		return "text/javascript"
	case ".html", ".htm":
		return "text/html"
	}
	return ""
}

// FetchCSS fetches a stylesheet and returns its text. Non-text content
// types are rejected.
func FetchCSS(ctx context.Context, f Fetcher, uri string) (string, error) {
	body, contentType, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") {
		return "", errors.Errorf("unexpected content type for CSS: %s", contentType)
	}
	return string(body), nil
}
