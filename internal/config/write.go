package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SetKeyInFile sets a global option in the file at path, creating it if needed.
// Other lines, comments included, are kept. An existing global key is rewritten
// in place; a new one goes at the end of the global section, ahead of the first
// [section] header. Options inside sections are never touched.
func SetKeyInFile(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}
	entry := strings.TrimSpace(key + " " + value)

	end := slices.IndexFunc(lines, isSectionHeader)
	if end < 0 {
		end = len(lines)
	}
	if i := slices.IndexFunc(lines[:end], func(line string) bool { return optionName(line) == key }); i >= 0 {
		lines[i] = entry
	} else {
		if end == len(lines) && end > 0 && lines[end-1] == "" {
			end-- // stay ahead of the final newline
		}
		lines = slices.Insert(lines, end, entry)
	}

	return WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}

func isSectionHeader(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}

// optionName returns the option set by line, or "" for blanks and comments.
func optionName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return ""
	}
	name, _ := splitOption(line)
	return name
}

// WriteFile replaces filename with data, creating parent directories. Readers
// see either the old contents or the new: data is synced to a temporary file in
// the same directory, which is then renamed over filename.
func WriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-config-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			slog.Warn("failed to remove temporary file", "path", tmp.Name(), "error", rmErr)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("replacing %s: %w", filename, err)
	}
	return nil
}
