// Package fsops implements the local filesystem primitives behind the file
// intents: list, read, create, write, delete and find.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// DefaultMaxReadBytes is the largest file Read will load.
const DefaultMaxReadBytes int64 = 1 << 20

// FS runs filesystem operations relative to a root directory. Create, Write
// and Delete hold a per-path lock, so at most one mutation runs on a given
// path at a time across goroutines sharing the FS.
type FS struct {
	root    string
	maxRead int64
	locks   *pathLocks
}

// New returns an FS rooted at root. An empty root means the process working
// directory.
func New(root string) *FS {
	return &FS{root: root, maxRead: DefaultMaxReadBytes, locks: newPathLocks()}
}

// WithMaxRead returns a copy of f that refuses to read files over n bytes.
func (f *FS) WithMaxRead(n int64) *FS {
	c := *f
	c.maxRead = n
	return &c
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.Abs(".")
}

// Abs resolves path against the root. A leading ~ expands to the home
// directory.
func (f *FS) Abs(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		root := f.root
		if root == "" {
			if wd, err := os.Getwd(); err == nil {
				root = wd
			}
		}
		path = filepath.Join(root, path)
	}
	return filepath.Clean(path)
}

// List returns the entries of dir, directories first, then by
// case-insensitive name.
func (f *FS) List(dir string) (*v1alpha1.DirectoryListing, error) {
	abs := f.Abs(dir)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classify("list", abs, err)
	}
	if !info.IsDir() {
		return nil, pathErr("list", abs, ErrNotADirectory, nil)
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, classify("list", abs, err)
	}

	items := make([]v1alpha1.ListEntry, 0, len(dirents))
	for _, d := range dirents {
		items = append(items, describe(filepath.Join(abs, d.Name()), d.Name()))
	}
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].Type == v1alpha1.EntryDirectory, items[j].Type == v1alpha1.EntryDirectory
		if di != dj {
			return di
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	return &v1alpha1.DirectoryListing{Directory: abs, Items: items}, nil
}

// describe stats one entry, following symlinks. Failures are reported on the
// entry instead of failing the listing.
func describe(path, name string) v1alpha1.ListEntry {
	info, err := os.Stat(path)
	if err != nil {
		return v1alpha1.ListEntry{Name: name, Type: v1alpha1.EntryUnknown, Error: err.Error()}
	}
	entry := v1alpha1.ListEntry{
		Name:        name,
		Type:        v1alpha1.EntryFile,
		Modified:    info.ModTime(),
		Permissions: fmt.Sprintf("%03o", info.Mode().Perm()),
	}
	if info.IsDir() {
		entry.Type = v1alpha1.EntryDirectory
	} else {
		size := info.Size()
		entry.Size = &size
	}
	return entry
}

// Read returns the text of a file. Files over the read limit are rejected
// from their size alone. Content that is not valid UTF-8 is replaced by a
// binary marker.
func (f *FS) Read(path string) (*v1alpha1.FileContent, error) {
	abs := f.Abs(path)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classify("read", abs, err)
	}
	if info.IsDir() {
		return nil, pathErr("read", abs, ErrNotAFile, nil)
	}
	if info.Size() > f.maxRead {
		return nil, &TooLargeError{Path: abs, Size: info.Size(), Limit: f.maxRead}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, classify("read", abs, err)
	}
	if !utf8.Valid(data) {
		return &v1alpha1.FileContent{
			Path:    abs,
			Content: fmt.Sprintf("<Binary file: %d bytes>", len(data)),
			Size:    int64(len(data)),
			Binary:  true,
		}, nil
	}
	return &v1alpha1.FileContent{Path: abs, Content: string(data), Size: int64(len(data))}, nil
}

// Create writes a new file, creating missing parent directories. It fails if
// anything already exists at path.
func (f *FS) Create(path, content string) (*v1alpha1.FileWritten, error) {
	abs := f.Abs(path)
	defer f.locks.lock(abs)()

	if _, err := os.Lstat(abs); err == nil {
		return nil, pathErr("create", abs, ErrAlreadyExists, nil)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, classify("create", abs, err)
	}

	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, classify("create", abs, err)
	}
	n, err := io.WriteString(file, content)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, classify("create", abs, err)
	}
	return &v1alpha1.FileWritten{Path: abs, BytesWritten: n, Status: v1alpha1.WriteCreated}, nil
}

// Mkdir creates a directory and any missing parents. It fails if anything
// already exists at path.
func (f *FS) Mkdir(path string) (string, error) {
	abs := f.Abs(path)
	defer f.locks.lock(abs)()

	if _, err := os.Lstat(abs); err == nil {
		return "", pathErr("mkdir", abs, ErrAlreadyExists, nil)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", classify("mkdir", abs, err)
	}
	return abs, nil
}

// Write replaces the content of a file, creating it when absent.
func (f *FS) Write(path, content string, createDirs bool) (*v1alpha1.FileWritten, error) {
	abs := f.Abs(path)
	defer f.locks.lock(abs)()

	status := v1alpha1.WriteCreated
	if info, err := os.Stat(abs); err == nil {
		if info.IsDir() {
			return nil, pathErr("write", abs, ErrNotAFile, nil)
		}
		status = v1alpha1.WriteOverwritten
	}
	if createDirs {
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, classify("write", abs, err)
		}
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return nil, classify("write", abs, err)
	}
	return &v1alpha1.FileWritten{Path: abs, BytesWritten: len(content), Status: status}, nil
}

// Delete removes a file or an empty directory. A non-empty directory is left
// untouched.
func (f *FS) Delete(path string) (*v1alpha1.PathDeleted, error) {
	abs := f.Abs(path)
	defer f.locks.lock(abs)()

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, classify("delete", abs, err)
	}

	kind := v1alpha1.EntryFile
	if info.IsDir() {
		kind = v1alpha1.EntryDirectory
		empty, err := isEmptyDir(abs)
		if err != nil {
			return nil, classify("delete", abs, err)
		}
		if !empty {
			return nil, pathErr("delete", abs, ErrNotEmpty, nil)
		}
	}

	if err := os.Remove(abs); err != nil {
		return nil, classify("delete", abs, err)
	}
	return &v1alpha1.PathDeleted{Path: abs, Type: kind}, nil
}

func isEmptyDir(path string) (bool, error) {
	d, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer d.Close()
	_, err = d.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// Find returns files under dir matching a doublestar pattern such as
// "**/*.go". Paths are relative to dir.
func (f *FS) Find(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, pathErr("find", pattern, ErrInvalidGlob, nil)
	}
	abs := f.Abs(dir)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classify("find", abs, err)
	}
	if !info.IsDir() {
		return nil, pathErr("find", abs, ErrNotADirectory, nil)
	}

	var matches []string
	err = doublestar.GlobWalk(os.DirFS(abs), pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		matches = append(matches, filepath.FromSlash(p))
		return nil
	})
	if err != nil {
		return nil, classify("find", abs, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// classify maps an OS error onto a PathError with a sentinel kind.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return pathErr(op, path, ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return pathErr(op, path, ErrAlreadyExists, err)
	case errors.Is(err, fs.ErrPermission):
		return pathErr(op, path, ErrPermission, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
