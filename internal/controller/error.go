package controller

import (
	"fmt"
)

// ErrorKind is the kind of a query error.
type ErrorKind string

// Query error kinds.
const (
	// KindInvalidArgument is an unknown target or provider, nothing is queried.
	KindInvalidArgument ErrorKind = "invalid-argument"
	// KindSchemaFetchFailed is a failure of the source fetching the schemas.
	KindSchemaFetchFailed ErrorKind = "schema-fetch-failed"
	// KindStatsFetchFailed is a failure of the source fetching the stats.
	KindStatsFetchFailed ErrorKind = "stats-fetch-failed"
)

// QueryError is the error of a stats query that produced no report. Its
// message is the single line shown to the operator.
type QueryError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the source error.
func (e *QueryError) Unwrap() error { return e.Err }

func invalidTarget(target string) *QueryError {
	return &QueryError{Kind: KindInvalidArgument, Msg: fmt.Sprintf("invalid stats target %s", target)}
}

func invalidProvider(provider string) *QueryError {
	return &QueryError{Kind: KindInvalidArgument, Msg: fmt.Sprintf("invalid stats provider %s", provider)}
}

func fetchFailed(kind ErrorKind, err error) *QueryError {
	return &QueryError{Kind: kind, Err: err}
}
