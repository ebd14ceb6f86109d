package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/pipeline"
)

func writeJob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJob(t *testing.T) {
	path := writeJob(t, `
source = "art/design.psd"
target = "/abs/template.json"
concurrency = 2
images = true

[[mapping]]
source = "!!HEADER"
target = "!!BANNER"

[[mapping]]
source = "FOOTER"
target = "BOTTOM"
`)
	dir := filepath.Dir(path)

	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if want := filepath.Join(dir, "art", "design.psd"); job.Source != want {
		t.Errorf("source = %q, want %q", job.Source, want)
	}
	if job.Target != "/abs/template.json" {
		t.Errorf("absolute target rewritten: %q", job.Target)
	}
	if job.Output != "/abs/template.remapped.json" {
		t.Errorf("default output = %q", job.Output)
	}

	want := []pipeline.Mapping{{Source: "!!HEADER", Target: "!!BANNER"}, {Source: "FOOTER", Target: "BOTTOM"}}
	if len(job.Mappings) != len(want) {
		t.Fatalf("got %d mappings, want %d", len(job.Mappings), len(want))
	}
	for i := range want {
		if job.Mappings[i] != want[i] {
			t.Errorf("mapping %d = %v, want %v", i, job.Mappings[i], want[i])
		}
	}

	opts, err := job.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if !opts.LoadImages || opts.Concurrency != 2 || opts.Strategy != nil || opts.Provider != nil {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadJobErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", `source = `, errors.ErrCodeInvalidInput},
		{"unknown key", "source = \"a.json\"\ntarget = \"b.json\"\nmappings = 1\n", errors.ErrCodeInvalidInput},
		{"missing target", "source = \"a.json\"\n[[mapping]]\nsource = \"A\"\ntarget = \"B\"\n", errors.ErrCodeInvalidInput},
		{"no mappings", "source = \"a.json\"\ntarget = \"b.json\"\n", errors.ErrCodeInvalidInput},
		{"empty mapping target", "source = \"a.json\"\ntarget = \"b.json\"\n[[mapping]]\nsource = \"A\"\n", errors.ErrCodeInvalidMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJob(writeJob(t, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := LoadJob(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
