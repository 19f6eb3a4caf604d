package importer

import (
	"fmt"
)

// FormatError is fatal: the input is not an asset we can parse at all
// (bad magic, unsupported version). Nothing is recoverable from it.
type FormatError struct {
	Format string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s format error: %s", e.Format, e.Reason)
}

func Formatf(format, reason string, a ...interface{}) *FormatError {
	return &FormatError{Format: format, Reason: fmt.Sprintf(reason, a...)}
}

// StructuralError is fatal for the subtree that referenced the broken
// resource. Sibling subtrees may still assemble.
type StructuralError struct {
	Resource string
	Err      error
}

func (e *StructuralError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("structural error in %s", e.Resource)
	}
	return fmt.Sprintf("structural error in %s: %v", e.Resource, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

func Structuralf(resource string, reason string, a ...interface{}) *StructuralError {
	return &StructuralError{Resource: resource, Err: fmt.Errorf(reason, a...)}
}

// TruncatedBufferError means a typed read ran past the end of the input
// buffer.
type TruncatedBufferError struct {
	Offset int
	Want   int
	Have   int
}

func (e *TruncatedBufferError) Error() string {
	return fmt.Sprintf("truncated buffer: need %d bytes at offset 0x%x, %d left", e.Want, e.Offset, e.Have)
}
