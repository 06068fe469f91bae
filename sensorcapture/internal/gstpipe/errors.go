package gstpipe

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies GStreamer errors for telemetry.
type ErrorCategory int

const (
	// ErrCategorySource indicates the capture file is missing or unreadable.
	ErrCategorySource ErrorCategory = iota
	// ErrCategoryCodec indicates decode/format failures.
	ErrCategoryCodec
	// ErrCategoryUnknown indicates unclassified errors.
	ErrCategoryUnknown
)

// String returns a human-readable name for the category.
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategorySource:
		return "source"
	case ErrCategoryCodec:
		return "codec"
	default:
		return "unknown"
	}
}

// ClassifyError categorizes a GStreamer error for telemetry.
//
// go-gst's GError does not expose the error domain, so classification is
// based on message keywords: a broken capture file (source) is actionable
// for the operator, a codec failure usually means the recording format is
// unsupported by the installed plugins.
func ClassifyError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}

	combined := strings.ToLower(gerr.Error() + " " + gerr.DebugString())

	for _, kw := range []string{"no such file", "not found", "could not open", "resource", "permission"} {
		if strings.Contains(combined, kw) {
			return ErrCategorySource
		}
	}
	for _, kw := range []string{"codec", "decode", "format", "negotiation", "caps", "missing plugin", "not negotiated", "type"} {
		if strings.Contains(combined, kw) {
			return ErrCategoryCodec
		}
	}
	return ErrCategoryUnknown
}
