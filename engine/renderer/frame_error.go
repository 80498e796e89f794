package renderer

import (
	"fmt"
	"strings"
)

// FrameErrorKind classifies surface acquisition failures so callers can choose the
// correct recovery path without string matching at the call site.
type FrameErrorKind int

const (
	// FrameErrorUnknown is any acquisition failure that does not match a known class.
	// Callers should treat it like a timeout and skip the frame.
	FrameErrorUnknown FrameErrorKind = iota

	// FrameErrorTimeout means the surface texture was not available in time.
	// The frame should be skipped; no reconfiguration is needed.
	FrameErrorTimeout

	// FrameErrorOutdated means the surface no longer matches the window, typically
	// after a resize. The surface must be reconfigured before the next frame.
	FrameErrorOutdated

	// FrameErrorLost means the surface was lost and must be reconfigured before the
	// next frame.
	FrameErrorLost

	// FrameErrorOutOfMemory means the GPU could not allocate the surface texture.
	// This is not recoverable.
	FrameErrorOutOfMemory
)

// String returns a human-readable name for the error kind.
func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorTimeout:
		return "timeout"
	case FrameErrorOutdated:
		return "outdated"
	case FrameErrorLost:
		return "lost"
	case FrameErrorOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// FrameError wraps a surface acquisition failure from BeginFrame with its classification.
type FrameError struct {
	Kind FrameErrorKind
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame acquisition failed (%s): %v", e.Kind, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// classifyFrameError maps a raw surface acquisition error onto a FrameError.
// The underlying bindings surface wgpu-native status codes as plain error strings,
// so classification matches on the status substrings.
func classifyFrameError(err error) *FrameError {
	msg := strings.ToLower(err.Error())
	kind := FrameErrorUnknown
	switch {
	case strings.Contains(msg, "timeout"):
		kind = FrameErrorTimeout
	case strings.Contains(msg, "outdated"):
		kind = FrameErrorOutdated
	case strings.Contains(msg, "lost"):
		kind = FrameErrorLost
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "outofmemory"):
		kind = FrameErrorOutOfMemory
	}
	return &FrameError{Kind: kind, Err: err}
}
