package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoValidData is returned when no competitor yields telemetry.
// There is no timeline to build in this case.
var ErrNoValidData = errors.New("no valid telemetry data found for any competitor")

// PerCompetitorDataError wraps a failure of a single competitor task.
// These errors never abort the other tasks.
type PerCompetitorDataError struct {
	Competitor string
	Err        error
}

func (e *PerCompetitorDataError) Error() string {
	return fmt.Sprintf("competitor %s: %v", e.Competitor, e.Err)
}

func (e *PerCompetitorDataError) Unwrap() error {
	return e.Err
}

// DispatchError signals a failure of the dispatch mechanism itself.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
