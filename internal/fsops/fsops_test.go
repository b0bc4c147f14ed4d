package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

func TestList_DirectoriesFirst(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "C.md"), []byte("cc"), 0o600))

	listing, err := New(root).List(".")
	require.NoError(t, err)
	require.Len(t, listing.Items, 3)

	assert.Equal(t, root, listing.Directory)
	assert.Equal(t, "b", listing.Items[0].Name)
	assert.Equal(t, v1alpha1.EntryDirectory, listing.Items[0].Type)
	assert.Nil(t, listing.Items[0].Size)

	assert.Equal(t, "a.txt", listing.Items[1].Name)
	assert.Equal(t, v1alpha1.EntryFile, listing.Items[1].Type)
	require.NotNil(t, listing.Items[1].Size)
	assert.Equal(t, int64(1), *listing.Items[1].Size)

	assert.Equal(t, "C.md", listing.Items[2].Name)
	assert.Equal(t, "600", listing.Items[2].Permissions)
}

func TestList_BrokenEntryIsReported(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	listing, err := New(root).List(root)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, v1alpha1.EntryUnknown, listing.Items[0].Type)
	assert.NotEmpty(t, listing.Items[0].Error)
}

func TestList_Errors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), nil, 0o644))
	f := New(root)

	_, err := f.List("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.List("file")
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestCreateThenRead(t *testing.T) {
	f := New(t.TempDir())

	w, err := f.Create("nested/dir/notes.txt", "hello world")
	require.NoError(t, err)
	assert.Equal(t, 11, w.BytesWritten)
	assert.Equal(t, v1alpha1.WriteCreated, w.Status)

	got, err := f.Read("nested/dir/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)
	assert.False(t, got.Binary)
	assert.Equal(t, int64(11), got.Size)
}

func TestCreate_AlreadyExists(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.txt"), []byte("keep"), 0o644))

	_, err := New(root).Create("x.txt", "overwrite")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	data, err := os.ReadFile(filepath.Join(root, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestRead_TooLarge(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o644))

	_, err := New(root).WithMaxRead(32).Read("big.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)

	var tl *TooLargeError
	require.True(t, errors.As(err, &tl))
	assert.Equal(t, int64(64), tl.Size)
}

func TestRead_DefaultLimit(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "big.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, os.Truncate(path, DefaultMaxReadBytes+1))

	_, err := New(root).Read("big.bin")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRead_Binary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))

	got, err := New(root).Read("blob")
	require.NoError(t, err)
	assert.True(t, got.Binary)
	assert.Equal(t, "<Binary file: 4 bytes>", got.Content)
}

func TestRead_Errors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "d"), 0o755))
	f := New(root)

	_, err := f.Read("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Read("d")
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestWrite(t *testing.T) {
	f := New(t.TempDir())

	w, err := f.Write("a/b.txt", "one", true)
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.WriteCreated, w.Status)

	w, err = f.Write("a/b.txt", "two", true)
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.WriteOverwritten, w.Status)

	got, err := f.Read("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Content)

	_, err = f.Write("missing/c.txt", "x", false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Write("a", "x", true)
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	f := New(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	d, err := f.Delete("gone.txt")
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.EntryFile, d.Type)

	d, err = f.Delete("empty")
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.EntryDirectory, d.Type)

	_, err = os.Stat(filepath.Join(root, "empty"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = f.Delete("gone.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NonEmptyDirectoryIsKept(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "full"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "full", "child"), []byte("x"), 0o644))

	_, err := New(root).Delete("full")
	assert.ErrorIs(t, err, ErrNotEmpty)

	_, err = os.Stat(filepath.Join(root, "full", "child"))
	assert.NoError(t, err)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "sub", "x.go"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "notes.md"), nil, 0o644))

	got, err := New(root).Find(".", "**/*.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", filepath.Join("pkg", "sub", "x.go")}, got)

	_, err = New(root).Find(".", "[")
	assert.ErrorIs(t, err, ErrInvalidGlob)
}

func TestAbs(t *testing.T) {
	root := t.TempDir()
	f := New(root)
	assert.Equal(t, filepath.Join(root, "a", "b"), f.Abs("a/./b"))
	assert.Equal(t, "/etc", f.Abs("/etc"))
	assert.Equal(t, root, f.Root())
}

func TestAbs_PathsOutsideRootAreNotConfined(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	home := t.TempDir()
	t.Setenv("HOME", home)
	f := New(root)

	assert.Equal(t, filepath.Dir(root), f.Abs(".."))
	assert.Equal(t, filepath.Join(filepath.Dir(root), "other"), f.Abs("../other"))
	assert.Equal(t, home, f.Abs("~"))
	assert.Equal(t, filepath.Join(home, "notes.md"), f.Abs("~/notes.md"))
}
