package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	apperrors "github.com/sqllens/sqllens/internal/errors"
)

// Semantic exit codes for CLI failures.
const (
	ExitFailure       = 1
	ExitFileNotFound  = 66
	ExitConfigInvalid = 78
)

// ExitWithCode logs the error with exit code metadata and exits.
// The logger can be nil for failures before logger initialization.
func ExitWithCode(logger *zap.Logger, exitCode int, msg string, err error) {
	if logger != nil {
		fields := []zap.Field{
			zap.Int("exit_code", exitCode),
		}

		// Add structured error fields if it's an envelope
		if envelope, ok := err.(*apperrors.Envelope); ok {
			fields = append(fields,
				zap.String("error_code", envelope.Code),
				zap.String("correlation_id", envelope.CorrelationID),
			)
			if envelope.Details != nil {
				fields = append(fields, zap.Any("error_details", envelope.Details))
			}
		}

		fields = append(fields, zap.Error(err))
		logger.Error(msg, fields...)
		os.Exit(exitCode)
	}

	ExitWithCodeStderr(exitCode, msg, err)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode int, msg string, err error) {
	if err != nil {
		if envelope, ok := err.(*apperrors.Envelope); ok {
			fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s (correlation: %s)\n",
				msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d\n", exitCode)

	os.Exit(exitCode)
}
