package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameLength bounds container and layer names accepted from callers.
const maxNameLength = 256

// ValidateContainerName validates a container reference supplied by a caller
// (CLI flag, job file or API request).
//
// Only structural problems are rejected here: empty names, control
// characters and excessive length. Whether the name resolves to anything is
// a resolution outcome, not a validation error.
func ValidateContainerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "container name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "container name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "container name contains invalid control characters")
		}
	}

	return nil
}

// ValidateMapping validates a "SOURCE=TARGET" container pair and returns
// both halves trimmed of surrounding whitespace.
func ValidateMapping(spec string) (source, target string, err error) {
	src, dst, ok := strings.Cut(spec, "=")
	if !ok {
		return "", "", New(ErrCodeInvalidMapping, "mapping %q must have the form SOURCE=TARGET", spec)
	}
	src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
	if err := ValidateContainerName(src); err != nil {
		return "", "", Wrap(ErrCodeInvalidMapping, err, "mapping %q: bad source", spec)
	}
	if err := ValidateContainerName(dst); err != nil {
		return "", "", Wrap(ErrCodeInvalidMapping, err, "mapping %q: bad target", spec)
	}
	return src, dst, nil
}

// documentExtensions lists the file extensions accepted as document inputs.
var documentExtensions = map[string]bool{
	".json": true,
	".psd":  true,
}

// ValidateDocumentPath validates a document file path given on the command
// line or in a job file. It checks for null bytes and control characters and
// requires a supported extension.
func ValidateDocumentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "document path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !documentExtensions[ext] {
		return New(ErrCodeInvalidPath, "unsupported document type %q (must be .json or .psd)", ext)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
