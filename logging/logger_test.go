package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{out: log.New(&buf, "", 0)}

	l.Warn("queue backlog growing", map[string]any{"depth": 42})

	var got entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if got.Level != LevelWarn || got.Message != "queue backlog growing" {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	l.Error("should not panic", nil) // must not panic on a nil receiver
}

func TestDiscardReturnsNil(t *testing.T) {
	if Discard() != nil {
		t.Fatalf("Discard() must return nil")
	}
}

func TestNewTagsComponent(t *testing.T) {
	l := New("transport")
	if !strings.Contains(l.out.Prefix(), "transport") {
		t.Errorf("prefix %q does not tag component", l.out.Prefix())
	}
}
