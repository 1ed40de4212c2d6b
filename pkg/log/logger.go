package log

import (
	"io"
	"os"
	"time"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/rs/zerolog"
)

// SetupLogger configures the process-wide logger: human readable console
// output on stderr at the given level, with warnings raised through
// errors.Warn routed into it.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(toZerologLevel(level))

	logger := NewZerologLoggerFrom(zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger())
	SetLogger(logger)
	errors.SetZerologWarnFunc(logger.warn)
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch level {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log-level", "must be one of debug, info, warn, error", level)
	}
}
