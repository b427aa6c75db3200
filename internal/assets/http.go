package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPSource fetches assets from a static file server.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client // nil uses http.DefaultClient
}

// URL returns the absolute URL for a reference.
func (s HTTPSource) URL(ref Ref) string {
	return strings.TrimRight(s.BaseURL, "/") + string(ref.Clean())
}

// Open implements Source. The response body is returned unread so that
// progress can be measured against Content-Length.
func (s HTTPSource) Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error) {
	url := s.URL(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request for %s: %w", url, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}

// NewSource picks the HTTP source when baseURL is set and the directory source otherwise.
func NewSource(root, baseURL string) Source {
	if baseURL != "" {
		return HTTPSource{BaseURL: baseURL}
	}
	return DirSource{Root: root}
}
