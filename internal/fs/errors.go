package fs

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// classifies filesystem failures so callers can report them uniformly.
// Nothing here retries: a failed operation is reported once and left alone.

// Kind groups the failures an executor can run into.
type Kind string

const (
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not-found"
	KindNotEmpty   Kind = "not-empty"
	KindIsDir      Kind = "is-dir"
	KindNotDir     Kind = "not-dir"
	KindOther      Kind = "other"
)

var (
	errIsDir  = errors.New("is a directory")
	errNotDir = errors.New("not a directory")
)

// OpError is a single failed filesystem operation.
type OpError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with its classification.
func NewOpError(op, path string, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: Classify(err), Err: err}
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, os.ErrPermission):
		return KindPermission
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, syscall.ENOTEMPTY), errors.Is(err, syscall.EEXIST) && isDirError(err):
		return KindNotEmpty
	case errors.Is(err, errIsDir), errors.Is(err, syscall.EISDIR):
		return KindIsDir
	case errors.Is(err, errNotDir), errors.Is(err, syscall.ENOTDIR):
		return KindNotDir
	default:
		return KindOther
	}
}

func isDirError(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe) && pe.Op == "remove"
}

// IsNotExist reports whether err means the path is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// ErrIsDir and ErrNotDir let callers build errors the classifier understands.
func ErrIsDir(op, path string) error {
	return &os.PathError{Op: op, Path: path, Err: errIsDir}
}

func ErrNotDir(op, path string) error {
	return &os.PathError{Op: op, Path: path, Err: errNotDir}
}
