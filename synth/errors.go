package synth

import (
	"errors"
	"fmt"
)

// ErrMalformedQuery is wrapped by a RequestError when the query endpoint
// answers with something other than a JSON object.
var ErrMalformedQuery = errors.New("malformed utterance query")

// RequestError reports a failed call to the synthesis service.
type RequestError struct {
	// Op is "audio_query" or "synthesis".
	Op string

	// StatusCode is the HTTP status code, or zero if no response arrived.
	StatusCode int

	// Message is the start of the response body for non-2xx responses.
	Message string

	Err error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
