package journal

import (
	"errors"
	"fmt"
)

var (
	ErrScanIO      = errors.New("I/O error scanning input file")
	ErrStatIO      = errors.New("I/O error walking directories")
	ErrInvalidFile = errors.New("invalid input file name")
	ErrMarkdown    = errors.New("error parsing markdown")
	ErrMissingLink = errors.New("no valid link found in body")
)

// Reasons attached to ErrInvalidFile.
const (
	ReasonStemNotDecodable = "stem not decodable"
	ReasonStemNotDate      = "stem is not YYYY-MM-DD"
)

// FileError locates a scan failure at a file or directory. Err wraps one of
// the package's sentinel errors.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("error in getting links from %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func scanIOError(cause error) error {
	return fmt.Errorf("%w: %w", ErrScanIO, cause)
}

func statIOError(cause error) error {
	return fmt.Errorf("%w: %w", ErrStatIO, cause)
}

func invalidFile(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFile, reason)
}

func markdownError(body string) error {
	return fmt.Errorf("%w: %q", ErrMarkdown, body)
}

func missingLink(body string) error {
	return fmt.Errorf("%w: %s", ErrMissingLink, body)
}
