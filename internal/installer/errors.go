package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionAlreadyExists is returned when the destination version
	// directory exists and force was not requested.
	ErrVersionAlreadyExists = errors.New("version already exists")
	// ErrNotInstalled is returned when no metadata record exists for a name.
	ErrNotInstalled = errors.New("module not installed")
	// ErrCopyFailed wraps I/O errors while populating a version directory.
	ErrCopyFailed = errors.New("copy failed")
	// ErrInvalidName is returned for package names or versions that are not
	// safe single path components.
	ErrInvalidName = errors.New("invalid name")
)

// OpError is a terminal failure of one operation on one package.
type OpError struct {
	Op   string
	Name string
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, name string, err error) error {
	return &OpError{Op: op, Name: name, Err: err}
}
