package fsutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(target, []byte("first"), 0o600))
	require.NoError(t, WriteFileAtomic(target, []byte("second"), 0o600))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "missing", "out.json")
	require.Error(t, WriteFileAtomic(target, []byte("x"), 0o600))
}

func TestStreamFileAtomic(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "stream.bin")
	data := bytes.Repeat([]byte{0xAB}, 100_000)

	require.NoError(t, StreamFileAtomic(target, bytes.NewReader(data), 0o644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "archive.encjs")
	dst := filepath.Join(dir, "archive-backup.encjs")
	require.NoError(t, os.WriteFile(src, []byte("sealed bytes"), 0o600))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed bytes"), got)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCopyFileMissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenFileNoFollow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("data"), 0o644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(dir, "link.txt")))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	f, err := OpenFileNoFollow(root, "real.txt")
	require.NoError(t, err)
	f.Close()

	_, err = OpenFileNoFollow(root, "link.txt")
	assert.ErrorIs(t, err, ErrSymlink)
}

func TestOpenFileNoFollowDirectoryLink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Symlink("sub", filepath.Join(dir, "alias")))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	_, err = OpenFileNoFollow(root, "alias")
	assert.ErrorIs(t, err, ErrSymlink)

	f, err := OpenFileNoFollow(root, filepath.Join("sub", "a.txt"))
	require.NoError(t, err)
	data := make([]byte, 1)
	_, err = f.Read(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
	require.NoError(t, f.Close())
}
