// Package history persists REPL input lines to a flat append-only file.
package history

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// File is a line-history store. The zero path disables persistence; Append
// and Load become no-ops.
type File struct {
	path  string
	limit int
	last  string
}

// Open prepares a history store at path keeping at most limit entries in
// memory on load.
func Open(path string, limit int) *File {
	if limit <= 0 {
		limit = 1000
	}
	return &File{path: path, limit: limit}
}

// Load returns up to the last limit entries, oldest first. A missing file is
// an empty history, not an error.
func (f *File) Load() ([]string, error) {
	if f.path == "" {
		return nil, nil
	}
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) > f.limit {
		lines = lines[len(lines)-f.limit:]
	}
	if len(lines) > 0 {
		f.last = lines[len(lines)-1]
	}
	return lines, nil
}

// Append records one input line. Blank lines and immediate duplicates are
// suppressed.
func (f *File) Append(line string) error {
	if f.path == "" || strings.TrimSpace(line) == "" || line == f.last {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(line + "\n"); err != nil {
		return err
	}
	f.last = line
	return nil
}
