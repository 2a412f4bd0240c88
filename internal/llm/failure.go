package llm

import "fmt"

// FailureKind classifies why a prompt round trip produced no usable result.
type FailureKind string

const (
	KindTransport     FailureKind = "transport"
	KindEmptyResponse FailureKind = "empty_response"
	KindInvalidJSON   FailureKind = "invalid_json"
	KindStorage       FailureKind = "storage"
)

// Failure is returned by engines that turn model output into a stored
// document. Raw holds the model text when there was any, so callers can show
// what the model actually said.
type Failure struct {
	Kind FailureKind
	Raw  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
