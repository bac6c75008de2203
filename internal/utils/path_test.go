package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "empty path",
			input:     "",
			wantError: true,
		},
		{
			name:      "relative path",
			input:     "./test",
			wantError: false,
		},
		{
			name:      "absolute path",
			input:     "/tmp/test",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolvePath(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ResolvePath(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && result == "" {
				t.Errorf("ResolvePath(%q) returned empty string", tt.input)
			}
		})
	}
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Fatalf("FileExists(%q) = false, want true", file)
	}
	if FileExists(dir) {
		t.Fatalf("FileExists on a directory should be false")
	}
}
