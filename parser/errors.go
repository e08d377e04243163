package parser

import (
	"errors"
	"fmt"
)

// Every parse error aborts the whole file; no partial result is returned.
var (
	ErrEmptyRequest  = errors.New("empty request file")
	ErrNoRequestLine = errors.New("no request line found")
)

// NotEnoughPartsError reports a request line with fewer than two
// whitespace-separated tokens.
type NotEnoughPartsError struct {
	Line int
	Text string
}

func (e *NotEnoughPartsError) Error() string {
	return fmt.Sprintf("line %d: not enough parts in request line: %s", e.Line, e.Text)
}

// InvalidMethodError reports an unrecognized method token.
type InvalidMethodError struct {
	Line   int
	Method string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("line %d: invalid method: %s", e.Line, e.Method)
}

// InvalidURLError reports a request target that is not an absolute URL.
// Err carries the underlying parse diagnostic, if any.
type InvalidURLError struct {
	Line   int
	RawURL string
	Err    error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("line %d: invalid url %q: %v", e.Line, e.RawURL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// InvalidHeaderError reports a header line lacking a colon or violating
// token/value syntax.
type InvalidHeaderError struct {
	Line int
	Text string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("line %d: invalid header: %s", e.Line, e.Text)
}

// InvalidPartError reports a malformed entry in a multipart body region.
type InvalidPartError struct {
	Line int
	Text string
}

func (e *InvalidPartError) Error() string {
	return fmt.Sprintf("line %d: invalid multipart entry: %s", e.Line, e.Text)
}
