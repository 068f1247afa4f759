package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func names(entries []*Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestScanMissing(t *testing.T) {
	t.Parallel()

	e, err := Scan(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestScanTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{
		"b.txt":         "b",
		"a.txt":         "a",
		"sub/c.txt":     "c",
		"sub/deep/d.md": "d",
	})

	root, err := Scan(dir)
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.True(t, root.IsDir)
	assert.Equal(t, ".", root.RelativePath)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub"}, names(root.Children))

	sub := root.Children[2]
	assert.True(t, sub.IsDir)
	assert.Equal(t, "sub", sub.RelativePath)
	assert.Equal(t, []string{"c.txt", "deep"}, names(sub.Children))

	deep := sub.Children[1]
	require.Len(t, deep.Children, 1)
	d := deep.Children[0]
	assert.Equal(t, filepath.Join("sub", "deep", "d.md"), d.RelativePath)
	assert.Equal(t, filepath.Join(dir, "sub", "deep", "d.md"), d.AbsolutePath)
	assert.Equal(t, int64(1), d.Size)
	assert.Nil(t, d.Children)
}

func TestScanDepth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{
		"top.txt":       "top",
		"sub/inner.txt": "inner",
	})

	root, err := Scan(dir, WithDepth(1))
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	sub := root.Children[0]
	require.Equal(t, "sub", sub.Name)
	assert.True(t, sub.IsDir)
	assert.Nil(t, sub.Children, "depth 1 must not list grandchildren")

	assert.Equal(t, []string{"top.txt"}, names(root.Files()))
}

func TestScanFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{"only.json": "{}"})

	e, err := Scan(filepath.Join(dir, "only.json"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.False(t, e.IsDir)
	assert.Equal(t, "only.json", e.Name)
	assert.Equal(t, ".", e.RelativePath)
}

func TestScanSymlinkNotFollowed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{"sub/file.txt": "x"})
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "sub", "loop")))

	root, err := Scan(dir)
	require.NoError(t, err)

	sub := root.Children[0]
	require.Len(t, sub.Children, 2)
	loop := sub.Children[1]
	assert.Equal(t, "loop", loop.Name)
	assert.True(t, loop.IsSymlink)
	assert.False(t, loop.IsDir)
	assert.Nil(t, loop.Children)
}

func TestScanSymlinkCycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string]string{"sub/file.txt": "x"})
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "sub", "loop")))

	root, err := Scan(dir, WithFollowSymlinks(true))
	require.NoError(t, err)

	loop := root.Children[0].Children[1]
	assert.True(t, loop.IsSymlink)
	assert.True(t, loop.IsDir)
	assert.Nil(t, loop.Children, "a link back to an ancestor must not be descended")
}

func TestScanDanglingSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling")))

	root, err := Scan(dir, WithFollowSymlinks(true))
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.True(t, root.Children[0].IsSymlink)
	assert.False(t, root.Children[0].IsDir)
}

func TestScanUnreadable(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := Scan(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}
