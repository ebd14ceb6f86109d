package psd

import (
	"testing"

	"github.com/matzehuels/layermap/pkg/errors"
)

func TestParseRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"Empty", nil},
		{"BadSignature", []byte("not a photoshop file")},
		{"Truncated", []byte("8BPS\x00\x01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Codec{}.Parse(tt.input)
			if !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("Parse() error = %v, want INVALID_DOCUMENT", err)
			}
		})
	}
}

func TestSerializeUnsupported(t *testing.T) {
	_, err := Codec{}.Serialize(nil)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Serialize() error = %v, want UNSUPPORTED", err)
	}
}
