package log

import (
	"errors"
	"runtime"
)

type tracePoint struct {
	file     string
	line     int
	function string
}

// tracer is implemented by errors that carry the frames where they were created.
type tracer interface {
	StackFrames() []uintptr
}

// stackTrace walks the error chain and returns the frames of the first error
// that recorded them.
func stackTrace(err error) []tracePoint {
	var t tracer
	if !errors.As(err, &t) {
		return nil
	}
	pcs := t.StackFrames()
	points := make([]tracePoint, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		points = append(points, tracePoint{file: frame.File, line: frame.Line, function: frame.Function})
		if !more {
			break
		}
	}
	return points
}
