package nimbus

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nimbus.yaml")
	contents := `
dsn: https://pub@ingest.example/1
release: "2.0.0"
environment: production
core_pool_size: 4
max_retries: 5
max_queue_size: 500
max_events_per_second: 50
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	opts, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile returned error: %v", err)
	}

	want := Options{
		DSN:                "https://pub@ingest.example/1",
		Release:            "2.0.0",
		Environment:        "production",
		CorePoolSize:       4,
		MaxRetries:         5,
		MaxQueueSize:       500,
		MaxEventsPerSecond: 50,
	}
	if opts != want {
		t.Errorf("LoadOptionsFile() = %+v, want %+v", opts, want)
	}
}

func TestLoadOptionsFileMissing(t *testing.T) {
	if _, err := LoadOptionsFile("/nonexistent/path/nimbus.yaml"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
