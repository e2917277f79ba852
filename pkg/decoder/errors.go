package decoder

import "fmt"

// StreamError is returned when the chunk source fails, either on the network
// or while decoding bytes to text.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return "reading stream: " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// UpstreamError is returned when the stream carries an error event in place
// of an answer.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream error (status %d, %s): %s", e.Status, e.Code, e.Message)
}
