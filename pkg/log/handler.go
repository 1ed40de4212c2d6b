package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// StacktraceAttrKey is the field under which error stack traces are written.
const StacktraceAttrKey = "stacktrace"

func init() {
	zerolog.ErrorStackFieldName = StacktraceAttrKey
	zerolog.ErrorStackMarshaler = marshalStack
}

// marshalStack extracts the stack recorded by cockroachdb/errors.
// Returning nil tells zerolog to omit the field.
func marshalStack(err error) interface{} {
	if st := extractStacktrace(err); st != "" {
		return st
	}
	return nil
}

// extractStacktrace walks the cause chain and returns the first safe detail
// payload, which for withstack layers is the formatted stack.
func extractStacktrace(err error) string {
	for c := err; c != nil; c = errors.UnwrapOnce(c) {
		if safeDetails := errors.GetSafeDetails(c).SafeDetails; len(safeDetails) > 0 {
			return safeDetails[0]
		}
	}
	return ""
}
