package errors

import (
	"strings"
	"testing"
)

func TestValidateNetworkPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"json", "grid.json", ""},
		{"toml", "cases/grid.toml", ""},
		{"yaml", "/tmp/grid.yaml", ""},
		{"yml upper", "GRID.YML", ""},

		{"empty", "", ErrCodeInvalidPath},
		{"too long", strings.Repeat("a", 600) + ".json", ErrCodeInvalidPath},
		{"null byte", "grid\x00.json", ErrCodeInvalidPath},
		{"newline", "grid\n.json", ErrCodeInvalidPath},
		{"no extension", "grid", ErrCodeUnsupported},
		{"csv", "grid.csv", ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNetworkPath(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateNetworkPath(%q) code = %q, want %q (err = %v)", tt.input, got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"empty", "", true},
		{"not a uuid", "run-1", true},
		{"path traversal", "../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
