package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogDir(t *testing.T) {
	tests := []struct {
		name     string
		logs     string
		dataPath string
		exeDir   string
		want     string
	}{
		{"LogsFolder", "/var/log/cgm", "/data", "/opt/bin", "/var/log/cgm"},
		{"DataPath", "", "/data", "/opt/bin", filepath.Join("/data", "logs")},
		{"BinaryDir", "", "", "/opt/bin", filepath.Join("/opt/bin", "logs")},
		{"Fallback", "", "", "", "logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOGS_FOLDER", tt.logs)
			t.Setenv("DATA_PATH", tt.dataPath)
			if got := ResolveLogDir(tt.exeDir); got != tt.want {
				t.Errorf("ResolveLogDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("ensureWritable failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Errorf("expected probe file to be removed")
	}

	w := NewFileWriter(dir)
	if w.Filename != filepath.Join(dir, LogFileName) {
		t.Errorf("unexpected log file %q", w.Filename)
	}
}
