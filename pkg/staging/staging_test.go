package staging

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

func TestEnsureFolderIn_Idempotent(t *testing.T) {
	root := t.TempDir()

	first, err := EnsureFolderIn(root, "new_single")
	require.NoError(t, err)

	second, err := EnsureFolderIn(root, "new_single")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, filepath.IsAbs(first))

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureFolderIn_CreatesParents(t *testing.T) {
	root := t.TempDir()

	path, err := EnsureFolderIn(root, filepath.Join("a", "b", "c"))
	require.NoError(t, err)
	assert.DirExists(t, path)
}

func TestEnsureFolderIn_EmptyName(t *testing.T) {
	_, err := EnsureFolderIn(t.TempDir(), "")
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindPrecondition))
}

func TestEnsureFolderIn_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "new"), []byte("x"), 0o644))

	_, err := EnsureFolderIn(root, "new")
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindIO))
}

func TestEnsureFolder_UsesWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	path, err := EnsureFolder("new")
	require.NoError(t, err)

	again, err := EnsureFolder("new")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	resolvedPath, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedRoot, "new"), resolvedPath)
}

func TestWriteFileAtomic_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0x01, 0xfe, 0xff}

	path, err := WriteFileAtomic(dir, "all_new_labels.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "all_new_labels.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteFileAtomic(dir, "labels.pdf", []byte("old old old"))
	require.NoError(t, err)
	path, err := WriteFileAtomic(dir, "labels.pdf", []byte("new"))
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := WriteFileAtomic(dir, "labels.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindIO))
}

func TestWriteFileAtomic_TargetIsDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename semantics differ on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "labels.pdf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.pdf", "keep"), []byte("x"), 0o644))

	_, err := WriteFileAtomic(dir, "labels.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, parcel.IsKind(err, parcel.KindIO))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed after failed rename")
}
