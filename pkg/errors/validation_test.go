package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "a", false},
		{"valid with dash", "node-1", false},
		{"valid with spaces", "root node", false},
		{"valid unicode", "knoten-ä", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", MaxIDLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateEntityID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFinite(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"negative", -12.5, false},
		{"large", 1e300, false},
		{"nan", math.NaN(), true},
		{"+inf", math.Inf(1), true},
		{"-inf", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFinite("x", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFinite(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExtent(t *testing.T) {
	tests := []struct {
		name    string
		w, h    float64
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"positive", 100, 50, false},
		{"negative width", -1, 10, true},
		{"negative height", 10, -1, true},
		{"nan height", 10, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtent("size", tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExtent(%v, %v) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "graphs/tree.json", false},
		{"valid absolute", "/tmp/out.yaml", false},
		{"valid dot", "./config.toml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAlgorithmName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "force", false},
		{"dashed", "space-tree", false},
		{"digits", "grid2", false},

		{"empty", "", true},
		{"upper", "Force", true},
		{"leading digit", "2grid", true},
		{"space", "force layout", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlgorithmName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAlgorithmName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}
