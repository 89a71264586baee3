package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "clausegate.db")
	audit := filepath.Join(dir, "audit_logs.jsonl")
	bleveDir := filepath.Join(dir, "bleve", "store")
	if err := os.MkdirAll(bleveDir, 0755); err != nil {
		t.Fatal(err)
	}
	for path, content := range map[string]string{
		db:                               "hello",
		audit:                            "{}\n",
		filepath.Join(bleveDir, "seg1"):  "ab",
		filepath.Join(dir, "bleve", "m"): "c",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{db}, 5},
		{"nested directory", []string{filepath.Join(dir, "bleve")}, 3},
		{"all storage paths", []string{db, filepath.Join(dir, "bleve"), audit}, 11},
		{"missing path skipped", []string{db, filepath.Join(dir, "vectors.bin")}, 5},
		{"empty path skipped", []string{"", db}, 5},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
