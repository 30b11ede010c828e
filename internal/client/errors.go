package client

import (
	"fmt"
	"time"
)

// TimeoutError indicates the CLI run exceeded its configured timeout and
// was killed.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: process timed out after %s", e.Provider, e.Timeout)
	}
	return fmt.Sprintf("%s: process timed out", e.Provider)
}

// ExitError indicates the CLI exited non-zero. It carries the captured
// output tails so callers can surface the CLI's own diagnostics.
type ExitError struct {
	Provider string
	Code     int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: process exited with status %d", e.Provider, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
