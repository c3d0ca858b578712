package mediawiki

import "fmt"

// APIError reports a fatal problem with the revisions API: a missing article
// or an error object in the response. No partial data accompanies it.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	if e.Info != "" {
		return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
	}
	return fmt.Sprintf("mediawiki api error %s", e.Code)
}

// FetchError reports that content for a single revision could not be
// retrieved after all retry attempts. It affects that revision only.
type FetchError struct {
	RevisionID int64
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching revision %d failed after %d attempt(s): %v", e.RevisionID, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
