package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRotatingFileWriter_BasicWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sfrag.log")

	w, err := NewRotatingFileWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte("hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "hello world\n", readFile(t, path))
}

func TestRotatingFileWriter_Rotates(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sfrag.log")

	w, err := newRotatingFileWriter(path, 50, 2)
	require.NoError(t, err)
	defer w.Close()

	line := strings.Repeat("a", 29) + "\n" // 30 bytes
	for _, c := range "abcd" {
		_, err := w.Write([]byte(strings.ReplaceAll(line, "a", string(c))))
		require.NoError(t, err)
	}

	// each write overflows the previous one: four files worth, two backups kept
	assert.Equal(t, strings.Repeat("d", 29)+"\n", readFile(t, path))
	assert.Equal(t, strings.Repeat("c", 29)+"\n", readFile(t, path+".1"))
	assert.Equal(t, strings.Repeat("b", 29)+"\n", readFile(t, path+".2"))
	assert.NoFileExists(t, path+".3")
}

func TestRotatingFileWriter_ZeroMaxFiles(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sfrag.log")

	w, err := newRotatingFileWriter(path, 10, -1)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first-line\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	assert.Equal(t, "second\n", readFile(t, path))
	assert.NoFileExists(t, path+".1")
}

func TestRotatingFileWriter_OversizedWriteIsNotSplit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sfrag.log")

	w, err := newRotatingFileWriter(path, 8, 1)
	require.NoError(t, err)
	defer w.Close()

	big := strings.Repeat("x", 20)
	_, err = w.Write([]byte(big))
	require.NoError(t, err)
	assert.Equal(t, big, readFile(t, path))
	assert.NoFileExists(t, path+".1")
}

func TestRotatingFileWriter_RecoversFromFailedRotation(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sfrag.log")

	w, err := newRotatingFileWriter(path, 10, 1)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	// a non-empty directory where the backup goes cannot be removed
	require.NoError(t, os.MkdirAll(filepath.Join(path+".1", "blocker"), 0755))

	n, err := w.Write([]byte("next\n"))
	require.ErrorContains(t, err, "logging: rotate")
	assert.Equal(t, 5, n)
	assert.Equal(t, "0123456789next\n", readFile(t, path), "still appending after the failure")

	require.NoError(t, os.RemoveAll(path+".1"))
	_, err = w.Write([]byte("after\n"))
	require.NoError(t, err)
	assert.Equal(t, "after\n", readFile(t, path))
	assert.Equal(t, "0123456789next\n", readFile(t, path+".1"))
}

func TestRotatingFileWriter_AppendsToExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "sfrag.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	w, err := newRotatingFileWriter(path, 12, 1)
	require.NoError(t, err)
	defer w.Close()
	assert.EqualValues(t, 9, w.size)

	_, err = w.Write([]byte("next\n"))
	require.NoError(t, err)
	assert.Equal(t, "next\n", readFile(t, path))
	assert.Equal(t, "existing\n", readFile(t, path+".1"))
}

func TestRotatingFileWriter_CreatesParentDirs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a", "b", "sfrag.log")

	w, err := NewRotatingFileWriter(path, 0, 0)
	require.NoError(t, err)
	defer w.Close()
	assert.EqualValues(t, 1024*1024, w.limit)
	assert.FileExists(t, path)
}

func TestRotatingFileWriter_Close(t *testing.T) {
	t.Parallel()
	w, err := NewRotatingFileWriter(filepath.Join(t.TempDir(), "sfrag.log"), 1, 1)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingFileWriter_ConcurrentWrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "sfrag.log")

	w, err := newRotatingFileWriter(path, 256, 100)
	require.NoError(t, err)

	const (
		writers = 8
		lines   = 50
	)
	line := strings.Repeat("z", 15) + "\n"
	var wg sync.WaitGroup
	for range writers {
		wg.Go(func() {
			for range lines {
				_, err := w.Write([]byte(line))
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var total int
	for _, e := range entries {
		content := readFile(t, filepath.Join(dir, e.Name()))
		assert.Zero(t, len(content)%len(line), "lines are never split")
		total += strings.Count(content, line)
	}
	assert.Equal(t, writers*lines, total)
}
