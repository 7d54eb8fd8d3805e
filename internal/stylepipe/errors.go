package isp

import (
	"errors"
	"fmt"
)

var (
	ErrStageOrder      = errors.New("stage order must be import, future-syntax, minify")
	ErrUnknownStage    = errors.New("unknown stage")
	ErrEmptyDescriptor = errors.New("descriptor has no stages")

	// ErrPrefixIntroduced is returned by the minify stage when, with
	// autoprefixer disabled, its output carries more vendor-prefixed
	// tokens than its input.
	ErrPrefixIntroduced = errors.New("minifier introduced vendor prefixes")
)

// StageError wraps a failure from a single stage. The original error is
// reachable through errors.Is / errors.As.
type StageError struct {
	Index int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// OptionError reports a stage option with an unusable value.
type OptionError struct {
	Stage  string
	Option string
	Err    error
}

func (e *OptionError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("option %q: %v", e.Option, e.Err)
	}
	return fmt.Sprintf("stage %s: option %q: %v", e.Stage, e.Option, e.Err)
}

func (e *OptionError) Unwrap() error { return e.Err }
