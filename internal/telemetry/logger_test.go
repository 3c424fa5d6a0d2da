package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONLoggerWritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Info("workspace.generate.start", map[string]any{"seq": 3, "topic": "BFS"})
	l.Error("workspace.operation.failed", map[string]any{"message": "sandbox unavailable"})

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line is not JSON: %q (%v)", sc.Text(), err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["msg"] != "workspace.generate.start" || lines[0]["topic"] != "BFS" {
		t.Fatalf("unexpected first entry %+v", lines[0])
	}
	if lines[1]["level"] != "error" || lines[1]["message"] != "sandbox unavailable" {
		t.Fatalf("unexpected second entry %+v", lines[1])
	}
	if _, ok := lines[0]["time"]; !ok {
		t.Fatalf("expected a timestamp, got %+v", lines[0])
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	for i := 0; i < 2; i++ {
		l, err := NewJSONLogger(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		l.Info("app.start", nil)
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 2 {
		t.Fatalf("expected 2 appended lines, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *JSONLogger
	l.Info("noop", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	discard, err := NewJSONLogger("")
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	discard.Info("noop", map[string]any{"k": 1})
}
