package anno

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when removing or looking up a span id that
// is not in the model.
var ErrNotFound = errors.New("span not found")

// InvalidSpanError indicates malformed offsets or a text mismatch.
type InvalidSpanError struct {
	Start  int
	End    int
	Reason string
}

func (e *InvalidSpanError) Error() string {
	return fmt.Sprintf("invalid span [%d,%d): %s", e.Start, e.End, e.Reason)
}

// StaleDocumentError indicates the document text changed since the
// spans were computed. The span set must be discarded wholesale,
// never re-mapped.
type StaleDocumentError struct {
	DocID string
}

func (e *StaleDocumentError) Error() string {
	return fmt.Sprintf("document %s text changed; all annotations dropped", e.DocID)
}
