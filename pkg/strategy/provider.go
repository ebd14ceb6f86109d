package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermap/pkg/buildinfo"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/observability"
)

// Request is what a provider receives: the two rectangles and a flat summary
// of the source layers.
type Request struct {
	SourceContainer string          `json:"sourceContainer"`
	TargetContainer string          `json:"targetContainer"`
	Source          layer.Rect      `json:"sourceRect"`
	Target          layer.Rect      `json:"targetRect"`
	Layers          []layer.Summary `json:"layers"`
}

// Provider suggests a layout strategy for one remap.
type Provider interface {
	Suggest(ctx context.Context, req Request) (*LayoutStrategy, error)
}

// Fetch asks p for a strategy and treats every failure as "no strategy":
// errors are logged and nil is returned so the remap falls back to base
// geometry. A nil provider yields nil.
func Fetch(ctx context.Context, p Provider, req Request, logger *log.Logger) *LayoutStrategy {
	if p == nil {
		return nil
	}
	s, err := p.Suggest(ctx, req)
	if err != nil {
		if logger != nil {
			logger.Warn("strategy unavailable, using base geometry",
				"source", req.SourceContainer, "target", req.TargetContainer, "error", err)
		}
		return nil
	}
	return s
}

// StaticProvider returns the same strategy for every request.
type StaticProvider struct {
	Strategy *LayoutStrategy
}

// Suggest returns the configured strategy.
func (p StaticProvider) Suggest(context.Context, Request) (*LayoutStrategy, error) {
	return p.Strategy, nil
}

// LoadFile reads and parses a strategy file.
func LoadFile(path string) (*LayoutStrategy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// HTTPProvider POSTs the request as JSON to URL and parses the response body
// as a strategy. 5xx responses and transport errors are retried with
// exponential backoff.
type HTTPProvider struct {
	URL      string
	Client   *http.Client
	Attempts int
	Delay    time.Duration
}

// NewHTTPProvider returns a provider for url with a 30 second client timeout
// and 3 attempts starting at a 1 second delay.
func NewHTTPProvider(url string) (*HTTPProvider, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	return &HTTPProvider{
		URL:      url,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Delay:    time.Second,
	}, nil
}

// Suggest calls the remote service.
func (p *HTTPProvider) Suggest(ctx context.Context, req Request) (*LayoutStrategy, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode strategy request: %w", err)
	}

	var s *LayoutStrategy
	err = retry(ctx, p.Attempts, p.Delay, func() error {
		data, err := p.post(ctx, body)
		if err != nil {
			return err
		}
		s, err = Parse(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *HTTPProvider) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build strategy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "strategy request")
		}
		return nil, &retryableError{errors.Wrap(errors.ErrCodeNetwork, err, "strategy request")}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &retryableError{errors.Wrap(errors.ErrCodeNetwork, err, "read strategy response")}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &retryableError{errors.New(errors.ErrCodeNetwork, "strategy service returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeNetwork, "strategy service returned %d", resp.StatusCode)
	}
	return data, nil
}

var (
	_ Provider = StaticProvider{}
	_ Provider = (*HTTPProvider)(nil)
)

// NewRequest builds a provider request for remapping layers from one
// container to another.
func NewRequest(source, target string, src, dst layer.Rect, layers []layer.Layer) Request {
	return Request{
		SourceContainer: source,
		TargetContainer: target,
		Source:          src,
		Target:          dst,
		Layers:          layer.Flatten(layers),
	}
}
