package errors

import (
	"strings"
	"testing"
)

func TestValidateContainerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "HEADER", false},
		{"with markers", "!!HEADER", false},
		{"with spaces", "Hero Image", false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContainerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSrc string
		wantDst string
		wantErr bool
	}{
		{"simple", "HEADER=BANNER", "HEADER", "BANNER", false},
		{"markers and spaces", " !!HEADER = !!BANNER ", "!!HEADER", "!!BANNER", false},
		{"equals in target", "A=B=C", "A", "B=C", false},

		{"missing separator", "HEADER", "", "", true},
		{"empty source", "=BANNER", "", "", true},
		{"empty target", "HEADER=", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst, err := ValidateMapping(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMapping(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !Is(err, ErrCodeInvalidMapping) {
					t.Errorf("ValidateMapping(%q) returned wrong error code: %v", tt.input, err)
				}
				return
			}
			if src != tt.wantSrc || dst != tt.wantDst {
				t.Errorf("ValidateMapping(%q) = (%q, %q), want (%q, %q)", tt.input, src, dst, tt.wantSrc, tt.wantDst)
			}
		})
	}
}

func TestValidateDocumentPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"json", "design.json", false},
		{"psd", "art/Design.PSD", false},
		{"absolute", "/tmp/template.json", false},

		{"empty", "", true},
		{"no extension", "design", true},
		{"png", "design.png", true},
		{"null byte", "foo\x00.json", true},
		{"control char", "foo\x01.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateDocumentPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://strategy.example.com/v1/suggest", false},
		{"http", "http://localhost:8081/suggest", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidDocument,
		ErrCodeInvalidStrategy,
		ErrCodeInvalidPath,
		ErrCodeInvalidMapping,
		ErrCodeDegenerateGeometry,
		ErrCodeNotFound,
		ErrCodeContainerNotFound,
		ErrCodeDocumentNotFound,
		ErrCodeFileNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
