package fsops

import (
	"errors"
	"fmt"
)

// Sentinel kinds carried by PathError.
var (
	ErrNotFound      = errors.New("path not found")
	ErrNotADirectory = errors.New("not a directory")
	ErrNotAFile      = errors.New("not a file")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrTooLarge      = errors.New("file too large")
	ErrPermission    = errors.New("permission denied")
	ErrInvalidGlob   = errors.New("invalid glob pattern")
)

// PathError reports a failed operation on a path. Kind is one of the sentinel
// errors above; Err is the underlying OS error when there is one. Both are
// reachable through errors.Is.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func pathErr(op, path string, kind, err error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}

// TooLargeError is returned by Read when the file exceeds the read limit.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file %s is too large: %d bytes (limit %d)", e.Path, e.Size, e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }
