package weather

import (
	"errors"
	"fmt"
)

// FetchError reports a failed or unusable upstream call.
// Status is zero when no HTTP response was received.
type FetchError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	msg := e.Op + ": " + e.Reason
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError wraps err into a *FetchError for op unless it already is one.
func AsFetchError(op string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Op: op, Reason: "request failed", Err: err}
}
