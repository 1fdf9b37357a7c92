// Package catalog - Catalog sources
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"slab-pricing/internal/errors"
	"slab-pricing/internal/logging"
)

// Source loads a slab catalog
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Load fetches and coerces the catalog
	Load(ctx context.Context) (*Catalog, error)
}

// Static serves a fixed catalog
type Static struct {
	catalog *Catalog
}

// NewStatic wraps an already-built catalog
func NewStatic(c *Catalog) *Static {
	return &Static{catalog: c}
}

// Name returns the source name
func (s *Static) Name() string {
	return "static"
}

// Load returns the wrapped catalog
func (s *Static) Load(ctx context.Context) (*Catalog, error) {
	return s.catalog, nil
}

// FileSource reads a catalog file on every load
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// Load reads and decodes the file
func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := LoadFile(s.Path)
	if err != nil {
		return nil, err
	}
	logging.Debug("Loaded slab catalog", zap.String("source", s.Name()), zap.Int("slabs", c.Len()))
	return c, nil
}

// HTTPSource fetches a JSON catalog from a REST endpoint
type HTTPSource struct {
	URL    string
	Token  string
	client *http.Client
}

// NewHTTPSource creates a remote source with the given request timeout
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// WithToken sets a bearer token sent with each request
func (s *HTTPSource) WithToken(token string) *HTTPSource {
	s.Token = token
	return s
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return "http:" + s.URL
}

// Load GETs the endpoint and decodes the response body
func (s *HTTPSource) Load(ctx context.Context) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "fetch catalog", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Catalog(
			fmt.Sprintf("catalog endpoint returned %d", resp.StatusCode),
			fmt.Errorf("%s", body),
		).WithContext("url", s.URL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "read catalog response", err)
	}

	c, err := Decode(data, FormatJSON, s.URL)
	if err != nil {
		return nil, err
	}

	logging.Debug("Fetched slab catalog",
		zap.String("url", s.URL),
		zap.Int("slabs", c.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return c, nil
}
