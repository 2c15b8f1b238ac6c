package services

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrDecode         = errors.New("decode error")
	ErrInference      = errors.New("inference error")
	ErrFormat         = errors.New("format error")
	ErrMergeInvariant = errors.New("merge invariant violation")
	ErrExternalTool   = errors.New("external tool error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
	ErrTimeout        = errors.New("timeout")
	ErrCanceled       = errors.New("canceled")
)

// Pipeline stage names used in errors, logs and run reports.
const (
	StageDecode    = "decode"
	StageSegment   = "segment"
	StageInference = "inference"
	StageMerge     = "merge"
	StageFormat    = "format"
)

// StageError tags a failure with the pipeline stage that produced it. It
// matches both its marker and its cause under errors.Is.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	marker := "service failure"
	if e.Marker != nil {
		marker = e.Marker.Error()
	}
	if e.Err != nil {
		return marker + ": " + detail + ": " + e.Err.Error()
	}
	return marker + ": " + detail
}

func (e *StageError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds a StageError carrying stage context and tagged with the provided
// marker for later classification. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// FailedStage reports the stage recorded on the outermost StageError in err.
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// ExitCode maps a run failure to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrFormat), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrDecode), errors.Is(err, ErrNotFound):
		return 3
	case errors.Is(err, ErrInference), errors.Is(err, ErrTimeout):
		return 4
	case errors.Is(err, ErrMergeInvariant):
		return 70
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
