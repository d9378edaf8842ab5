package anthropic

import "fmt"

// Failure codes carried by Error.Code. A provider-side error also carries the
// provider's own error type (e.g. "overloaded_error") instead of CodeHTTPStatus.
const (
	CodeNetwork         = "network"
	CodeTimeout         = "timeout"
	CodeHTTPStatus      = "http_status"
	CodeDecode          = "decode"
	CodeMalformedOutput = "malformed_output"
)

// Error is returned for every failed Generate call.
type Error struct {
	Message string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("anthropic: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("anthropic: %s (code %s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}
