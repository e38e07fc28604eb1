package export

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned when there is nothing to export.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrRenderFailed is returned when the PDF renderer reports an error.
	ErrRenderFailed = errors.New("PDF rendering failed")
)

// ExportError wraps export failures with the operation that failed.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export: %s failed: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
