package internal

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks an upstream fetch that failed for good. An
// ingestion run that sees it writes nothing.
var ErrSourceUnavailable = errors.New("source unavailable")

type FetchError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrSourceUnavailable }
