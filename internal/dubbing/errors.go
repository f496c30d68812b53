package dubbing

import (
	"fmt"
	"sort"
	"strings"
)

// SegmentFailure records why one segment could not be produced.
type SegmentFailure struct {
	Index int
	Err   error
}

// SegmentError aggregates every failed segment of a scheduling run.
// Skipped counts segments never started because the run was aborted.
type SegmentError struct {
	Failures []SegmentFailure
	Skipped  int
}

func (e *SegmentError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("segment %d: %v", f.Index, f.Err))
	}
	msg := fmt.Sprintf("%d segment(s) failed [%s]", len(e.Failures), strings.Join(parts, "; "))
	if e.Skipped > 0 {
		msg += fmt.Sprintf(" (%d not attempted)", e.Skipped)
	}
	return msg
}

// Unwrap exposes each cause to errors.Is and errors.As.
func (e *SegmentError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Indices returns the failed segment indices in ascending order.
func (e *SegmentError) Indices() []int {
	out := make([]int, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Index)
	}
	sort.Ints(out)
	return out
}

// StageError tags a pipeline failure with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
