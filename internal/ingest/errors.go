package ingest

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a parse attempt is handed raw input
// with no content at all. It aborts only the current parse attempt;
// prior review state is left untouched.
var ErrEmptyInput = errors.New("input is empty")

// errNoModel is wrapped in a ModelError when an AI parse is requested
// on a pipeline that was built without a generative model.
var errNoModel = errors.New("no generative model configured")

// ModelError wraps a failed external model call: transport failure,
// timeout, or a response that could not be decoded at all. It is
// pipeline-scoped and shown verbatim to the user. An empty-but-valid
// model result is NOT a ModelError; it surfaces as a summary message.
type ModelError struct {
	Op  string // the model operation, e.g. "parse text"
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (%s): %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
