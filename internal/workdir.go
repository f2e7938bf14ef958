package internal

import (
	"log/slog"
	"os"
	"path/filepath"
)

// WorkDir is an isolated, uniquely-named ephemeral directory scoped to one
// pipeline or probe run. Concurrent runs never collide because each gets its
// own directory from os.MkdirTemp.
type WorkDir struct {
	path string
}

// NewWorkDir creates a fresh work directory. Callers must arrange Close via
// defer so the directory is removed on every exit path.
func NewWorkDir() (*WorkDir, error) {
	path, err := os.MkdirTemp("", "kafstore-*")
	if err != nil {
		return nil, err
	}
	return &WorkDir{path: path}, nil
}

// Path returns the absolute path of the named file inside the work directory.
func (w *WorkDir) Path(name string) string {
	return filepath.Join(w.path, name)
}

// WriteFile writes a file into the work directory. Key material gets 0600.
func (w *WorkDir) WriteFile(name string, data []byte, sensitive bool) (string, error) {
	mode := os.FileMode(0644)
	if sensitive {
		mode = 0600
	}
	path := w.Path(name)
	if err := os.WriteFile(path, data, mode); err != nil {
		return "", err
	}
	return path, nil
}

// Close removes the work directory and everything in it. Removal is
// best-effort: a failure is logged and otherwise ignored, matching the
// cleanup contract that no error path may be masked by cleanup trouble.
func (w *WorkDir) Close() {
	if err := os.RemoveAll(w.path); err != nil {
		slog.Warn("removing work directory", "path", w.path, "error", err)
	}
}
