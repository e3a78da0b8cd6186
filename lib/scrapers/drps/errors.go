package drps

import "fmt"

// FetchError reports a failed page retrieval, either a transport error or a
// non-success HTTP status.
type FetchError struct {
	Url    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Url, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Url, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a document that could not be turned into a structure at
// all. Finding no matches in a well-formed document is not a ParseError.
type ParseError struct {
	Url string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Url, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
