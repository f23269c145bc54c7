package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used for CLI commands (console encoding)
	CLILogger *zap.Logger

	// ServerLogger is used for the HTTP server (JSON encoding)
	ServerLogger *zap.Logger
)

// InitCLILogger initializes the CLI logger with human-readable console output.
func InitCLILogger(serviceName string, verbose bool) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize CLI logger: %v\n", err)
		os.Exit(1)
	}

	CLILogger = logger.Named(serviceName)
}

// InitServerLogger initializes the server logger with structured JSON output
// on stderr. Optional namespace is attached as a static field.
func InitServerLogger(serviceName string, logLevel string, namespace ...string) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLogLevel(logLevel))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]any{
		"service": serviceName,
	}
	if len(namespace) > 0 && namespace[0] != "" {
		cfg.InitialFields["namespace"] = namespace[0]
	}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize server logger: %v\n", err)
		os.Exit(1)
	}

	ServerLogger = logger
}

// parseLogLevel converts a string log level to a zap level.
func parseLogLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug", "trace":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
