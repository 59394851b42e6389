package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestCopyDirectoryRecursively(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")
	write(t, filepath.Join(src, "a.txt"), "a\r\n")
	write(t, filepath.Join(src, "nested", "deep", "b.txt"), "b")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	require.NoError(t, Copy(src, dst))
	assert.Equal(t, "a\r\n", read(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, "b", read(t, filepath.Join(dst, "nested", "deep", "b.txt")))
	assert.True(t, IsDir(filepath.Join(dst, "empty")))
	assert.Equal(t, 2, CountFiles(dst))
}

func TestCopySingleFileCreatesParents(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plugin.yml")
	write(t, src, "name: x\n")
	dst := filepath.Join(t.TempDir(), "res", "deeper", "plugin.yml")

	require.NoError(t, Copy(src, dst))
	assert.Equal(t, "name: x\n", read(t, dst))
	assert.Equal(t, 1, CountFiles(dst))
}

func TestCopyMissingSource(t *testing.T) {
	err := Copy(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCopyReplacesShapeMismatch(t *testing.T) {
	root := t.TempDir()
	srcFile := filepath.Join(root, "file")
	write(t, srcFile, "now a file")
	dst := filepath.Join(root, "dst")
	write(t, filepath.Join(dst, "inner.txt"), "was a dir")

	require.NoError(t, Copy(srcFile, dst))
	assert.Equal(t, "now a file", read(t, dst))
}

func TestReplaceDeletesWhenSourceMissing(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst")
	write(t, filepath.Join(dst, "stale.txt"), "stale")

	copied, err := Replace(filepath.Join(root, "missing"), dst)
	require.NoError(t, err)
	assert.False(t, copied)
	assert.False(t, Exists(dst))
}

func TestReplaceDropsStaleEntries(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	write(t, filepath.Join(src, "keep.txt"), "new")
	write(t, filepath.Join(dst, "keep.txt"), "old")
	write(t, filepath.Join(dst, "stale.txt"), "stale")

	copied, err := Replace(src, dst)
	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, "new", read(t, filepath.Join(dst, "keep.txt")))
	assert.False(t, Exists(filepath.Join(dst, "stale.txt")))
}

func TestHasRegularFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	assert.False(t, HasRegularFiles(root))
	assert.False(t, HasRegularFiles(filepath.Join(root, "missing")))

	write(t, filepath.Join(root, "a", "b", "c.java"), "class C {}")
	assert.True(t, HasRegularFiles(root))
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patches", "x.patch")
	require.NoError(t, WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "diff --git a/x b/x\n")
		return err
	}))
	assert.Equal(t, "diff --git a/x b/x\n", read(t, path))

	err := WriteAtomic(path, func(w io.Writer) error { return errors.New("boom") })
	require.EqualError(t, err, "boom")
	assert.Equal(t, "diff --git a/x b/x\n", read(t, path), "failed write must keep the previous file")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}
