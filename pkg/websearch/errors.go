package websearch

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindRateLimited   ErrorKind = "rate_limited"
	KindInvalidAPIKey ErrorKind = "invalid_api_key"
	KindForbidden     ErrorKind = "forbidden"
	KindNoResults     ErrorKind = "no_results"
	KindGeneric       ErrorKind = "generic"
)

// SearchError is the typed failure of a web search.
type SearchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("web search %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("web search %s: %s", e.Kind, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// ExhaustsQuota reports whether the provider refused us for the rest of the
// day. These errors are never retried.
func (e *SearchError) ExhaustsQuota() bool {
	switch e.Kind {
	case KindQuotaExceeded, KindInvalidAPIKey, KindForbidden:
		return true
	}
	return false
}

// KindOf returns the kind of err, or KindGeneric when err is not a SearchError.
func KindOf(err error) ErrorKind {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindGeneric
}
