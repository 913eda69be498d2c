package httpclient

import "fmt"

// TransportError is a connection, DNS or TLS failure; no response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a response outside the 2xx range.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: not a 2xx code: %d\n\n%s", e.Method, e.URL, e.StatusCode, e.Body)
}

// DecodeError is a response body that does not match the expected schema.
type DecodeError struct {
	URL  string
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v: %s", e.URL, e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
