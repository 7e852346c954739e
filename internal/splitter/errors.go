package splitter

import "fmt"

// IndexError reports a requested split-point index outside the valid range.
// The message carries the range so the caller can retry with corrected input.
type IndexError struct {
	Index int
	Max   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("split point %d out of range (valid: 0-%d)", e.Index, e.Max)
}
