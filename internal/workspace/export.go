package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"codequest/internal/practice"
)

type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes through the platform clipboard utilities.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("system clipboard unavailable")
	}
	return clipboard.WriteAll(text)
}

// DownloadCode writes the buffer to dir/solution.<ext> and returns the path.
func (o *Orchestrator) DownloadCode(dir string) (string, error) {
	return WriteSolution(dir, o.Snapshot().Buffer)
}

func (o *Orchestrator) CopyCode(cb Clipboard) error {
	if cb == nil {
		cb = SystemClipboard{}
	}
	buf := o.Snapshot().Buffer
	if err := cb.WriteAll(buf.Text); err != nil {
		return fmt.Errorf("copy code: %w", err)
	}
	return nil
}

func WriteSolution(dir string, buf Buffer) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, practice.SolutionFileName(buf.Language))
	if err := os.WriteFile(path, []byte(buf.Text), 0o644); err != nil {
		return "", fmt.Errorf("write solution: %w", err)
	}
	return path, nil
}
