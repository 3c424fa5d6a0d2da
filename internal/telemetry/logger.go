package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// JSONLogger writes one JSON object per event. Event names are dotted
// (workspace.generate.start) and fields are flattened into the object.
type JSONLogger struct {
	mu     sync.Mutex
	logger *clog.Logger
	closer io.Closer
}

func NewJSONLogger(path string) (*JSONLogger, error) {
	if path == "" {
		return NewWriterLogger(io.Discard), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewWriterLogger(f)
	l.closer = f
	return l, nil
}

func NewWriterLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		logger: clog.NewWithOptions(w, clog.Options{
			Formatter:       clog.JSONFormatter,
			Level:           clog.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339Nano,
		}),
	}
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	l.log(clog.DebugLevel, msg, fields)
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.log(clog.InfoLevel, msg, fields)
}

func (l *JSONLogger) Warn(msg string, fields map[string]any) {
	l.log(clog.WarnLevel, msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.log(clog.ErrorLevel, msg, fields)
}

func (l *JSONLogger) log(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Log(level, msg, kv...)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
