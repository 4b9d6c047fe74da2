package source

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/osa030/releasebox/internal/domain/release"
)

// maxBodyBytes caps a descriptor document.
const maxBodyBytes = 4 << 20

// HTTPSourceConfig holds http source settings.
type HTTPSourceConfig struct {
	Headers map[string]string `mapstructure:"headers"`
}

// HTTPSource fetches descriptors over HTTP(S).
type HTTPSource struct {
	url        string
	format     Format
	headers    map[string]string
	httpClient *http.Client
}

// NewHTTPSource creates a new HTTPSource. An empty format is detected per
// response from the URL extension and Content-Type.
func NewHTTPSource(url string, format Format, cfg HTTPSourceConfig, httpClient *http.Client) *HTTPSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSource{
		url:        url,
		format:     format,
		headers:    cfg.Headers,
		httpClient: httpClient,
	}
}

// Name returns the source name.
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

// Fetch retrieves and decodes the document, bypassing HTTP caches.
func (s *HTTPSource) Fetch(ctx context.Context) ([]release.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fetchFailure(errors.Wrap(err, "failed to create request"), s.Name())
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json, application/yaml, application/toml;q=0.9, */*;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fetchFailure(errors.Wrap(err, "failed to send request"), s.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fetchFailure(errors.Newf("unexpected status code: %d", resp.StatusCode), s.Name())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fetchFailure(errors.Wrap(err, "failed to read response body"), s.Name())
	}

	format := s.format
	if format == "" {
		format = DetectFormat(s.url, resp.Header.Get("Content-Type"))
	}
	return Decode(body, format, s.url)
}
