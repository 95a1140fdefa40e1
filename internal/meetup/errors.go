package meetup

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrGroupNotFound is returned when a chapter query matched no group.
	ErrGroupNotFound = errors.New("no matching group")

	// ErrAmbiguousGroup is returned when a chapter query matched more than one group.
	ErrAmbiguousGroup = errors.New("more than one matching group")
)

// FetchError reports a request that could not be completed or decoded.
// Non-success HTTP statuses are not FetchErrors; they end pagination quietly.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// redactURL drops the API key from a URL before it is logged or reported.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("key") {
		return raw
	}
	q.Del("key")
	u.RawQuery = q.Encode()
	return u.String()
}
