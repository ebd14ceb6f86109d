package strategy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
)

func testRequest() Request {
	return NewRequest("HEADER", "BANNER",
		layer.Rect{W: 100, H: 200}, layer.Rect{W: 50, H: 50},
		[]layer.Layer{{ID: "layer-1.0", Name: "Logo", Type: layer.TypeLayer}})
}

func TestHTTPProvider(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"suggestedScale": 0.3, "anchor": "BOTTOM"}`)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	s, err := p.Suggest(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if s.SuggestedScale != 0.3 || s.Anchor != AnchorBottom {
		t.Errorf("strategy = %+v", s)
	}
	if got.SourceContainer != "HEADER" || len(got.Layers) != 1 || got.Layers[0].ID != "layer-1.0" {
		t.Errorf("request = %+v", got)
	}
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"suggestedScale": 1, "anchor": "TOP"}`)
	}))
	defer srv.Close()

	p := &HTTPProvider{URL: srv.URL, Client: srv.Client(), Attempts: 3, Delay: time.Millisecond}
	if _, err := p.Suggest(context.Background(), testRequest()); err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := &HTTPProvider{URL: srv.URL, Client: srv.Client(), Attempts: 3, Delay: time.Millisecond}
	_, err := p.Suggest(context.Background(), testRequest())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK_ERROR", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestNewHTTPProviderRejectsBadURL(t *testing.T) {
	if _, err := NewHTTPProvider("ftp://example.com"); err == nil {
		t.Error("NewHTTPProvider(ftp) succeeded")
	}
}

type failingProvider struct{}

func (failingProvider) Suggest(context.Context, Request) (*LayoutStrategy, error) {
	return nil, errors.New(errors.ErrCodeTimeout, "model took too long")
}

func TestFetchFallsBackToNil(t *testing.T) {
	logger := log.New(io.Discard)
	ctx := context.Background()

	if s := Fetch(ctx, failingProvider{}, testRequest(), logger); s != nil {
		t.Errorf("Fetch(failing) = %+v, want nil", s)
	}
	if s := Fetch(ctx, nil, testRequest(), logger); s != nil {
		t.Errorf("Fetch(nil) = %+v, want nil", s)
	}

	want := &LayoutStrategy{SuggestedScale: 2, Anchor: AnchorCenter}
	if s := Fetch(ctx, StaticProvider{Strategy: want}, testRequest(), logger); s != want {
		t.Errorf("Fetch(static) = %+v, want %+v", s, want)
	}
}
