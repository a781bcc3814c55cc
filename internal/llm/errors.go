package llm

import "fmt"

// UnparseableError reports model output that could not be parsed into the
// expected structure. Callers may substitute a conservative default instead
// of failing the stage.
type UnparseableError struct {
	Raw string
	Err error
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("unparseable model output: %v (raw: %s)", e.Err, e.Raw)
}

func (e *UnparseableError) Unwrap() error {
	return e.Err
}
