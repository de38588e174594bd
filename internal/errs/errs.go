// Package errs defines the error kinds shared by the splitter, the dataset
// adapter and the configuration profiles.
//
// Kinds are sentinel values meant for errors.Is. Errors tied to a file are
// reported as *PathError, which unwraps to both its kind and its cause:
//
//	if errors.Is(err, errs.ErrMaskLoad) { ... }
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration marks caller contract violations such as a
	// split ratio outside [0,1] or a profile whose batch size is zero.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrImageLoad marks a source image that is missing or undecodable.
	ErrImageLoad = errors.New("image load error")

	// ErrMaskLoad marks a ground-truth mask that is missing, undecodable or
	// whose resized dimensions disagree with its image.
	ErrMaskLoad = errors.New("mask load error")

	// ErrUnexpectedLabelSet marks a mask whose foreground label set is not
	// exactly one class. It is a warning-level signal.
	ErrUnexpectedLabelSet = errors.New("unexpected label set")
)

// PathError records a failure of a given kind for a specific file.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Invalid returns an ErrInvalidConfiguration error with a formatted message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// ImageLoad wraps err as an ErrImageLoad for path.
func ImageLoad(path string, err error) error {
	return &PathError{Kind: ErrImageLoad, Path: path, Err: err}
}

// MaskLoad wraps err as an ErrMaskLoad for path.
func MaskLoad(path string, err error) error {
	return &PathError{Kind: ErrMaskLoad, Path: path, Err: err}
}
