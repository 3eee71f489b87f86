// Package testutil provides shared fixtures for tests: grid worlds, tracer
// providers, scratch files and unique keys.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var keyCounter int64

// UniqueKey generates a deterministic, process-local unique key for tests, such
// as a Redis list name. Pass in t.Name() from the caller to make keys traceable
// per-test.
func UniqueKey(prefix, tname string) string {
	id := atomic.AddInt64(&keyCounter, 1)
	return fmt.Sprintf("%s:%s:%d", prefix, strings.ReplaceAll(tname, `/`, `-_-`), id)
}

// WriteFile writes content to name under a fresh temporary directory and returns
// the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
