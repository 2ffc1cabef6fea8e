package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "xml rejected",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "restricted to json",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
		{name: "no restrictions", format: "xml", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error %q but got none", tt.expectedError)
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestResolveOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	format, err := ResolveOutputFormat("", "text", supported)
	if err != nil || format != "text" {
		t.Errorf("Expected default 'text', got %q (err %v)", format, err)
	}

	format, err = ResolveOutputFormat("markdown", "text", supported)
	if err != nil || format != "markdown" {
		t.Errorf("Expected 'markdown', got %q (err %v)", format, err)
	}

	if _, err := ResolveOutputFormat("yaml", "text", supported); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	for b.Loop() {
		_ = ValidateOutputFormat("xml", supportedFormats)
	}
}
