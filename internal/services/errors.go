package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport     = errors.New("transport error")
	ErrDecode        = errors.New("decode error")
	ErrFilesystem    = errors.New("filesystem error")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Marker returns the sentinel a wrapped error carries, or nil when err was not
// produced by Wrap.
func Marker(err error) error {
	for _, marker := range []error{
		ErrTimeout,
		ErrTransport,
		ErrDecode,
		ErrFilesystem,
		ErrExternalTool,
		ErrValidation,
		ErrConfiguration,
		ErrTransient,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// Hint returns a short operator-facing suggestion for the error class.
func Hint(err error) string {
	switch Marker(err) {
	case ErrTransport:
		return "check network connectivity and API credentials"
	case ErrTimeout:
		return "raise the relevant timeout or retry later"
	case ErrDecode:
		return "check the synthesis output_format setting"
	case ErrFilesystem:
		return "check paths and permissions"
	case ErrExternalTool:
		return "run dubber status to verify ffmpeg, ffprobe and uvx"
	case ErrValidation:
		return "check the input arguments"
	case ErrConfiguration:
		return "run dubber config show to inspect the effective configuration"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
