package config

import "fmt"

// Error is a configuration problem. Job is the index of the offending job,
// or -1 for top-level settings.
type Error struct {
	Job   int
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Job >= 0 && e.Field != "":
		return fmt.Sprintf("config: jobs[%d].%s: %v", e.Job, e.Field, e.Err)
	case e.Job >= 0:
		return fmt.Sprintf("config: jobs[%d]: %v", e.Job, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func topLevel(field string, err error) *Error {
	return &Error{Job: -1, Field: field, Err: err}
}

func jobError(i int, field string, err error) *Error {
	return &Error{Job: i, Field: field, Err: err}
}
