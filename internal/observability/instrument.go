package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"golang.org/x/term"
)

// Log formats accepted by Instrument.
const (
	FormatAuto       = "auto"
	FormatText       = "text"
	FormatJSON       = "json"
	FormatOTLPHTTP   = "otlp-http"
	FormatOTLPGRPC   = "otlp-grpc"
	FormatOTelStdout = "otel-stdout"
)

const instrumentationName = "github.com/okhsunrog/llm-relay"

// ShutdownFunc flushes and stops the logging pipeline.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Instrument installs the default logger for the given level and format, writing local
// formats to w. OTLP exporters are configured through the standard
// OTEL_EXPORTER_OTLP_* environment variables. The returned function must be called
// before exit to flush buffered records.
func Instrument(ctx context.Context, w io.Writer, level slog.Level, logFormat string) (ShutdownFunc, error) {
	handler, shutdown, err := newHandler(ctx, level, logFormat, w)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(handler))

	return shutdown, nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newHandler(ctx context.Context, level slog.Level, logFormat string, w io.Writer) (slog.Handler, ShutdownFunc, error) {
	format := strings.ToLower(logFormat)
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	switch format {
	case FormatText, FormatJSON:
		handler, err := newLocalHandler(level, format, w)
		if err != nil {
			return nil, nil, err
		}
		return newTraceContextHandler(handler), noopShutdown, nil

	case FormatOTLPHTTP:
		exporter, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP HTTP log exporter: %w", err)
		}
		handler, shutdown := newOTelHandler(sdklog.NewBatchProcessor(exporter), level)
		return handler, shutdown, nil

	case FormatOTLPGRPC:
		exporter, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP gRPC log exporter: %w", err)
		}
		handler, shutdown := newOTelHandler(sdklog.NewBatchProcessor(exporter), level)
		return handler, shutdown, nil

	case FormatOTelStdout:
		exporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout log exporter: %w", err)
		}
		handler, shutdown := newOTelHandler(sdklog.NewSimpleProcessor(exporter), level)
		return handler, shutdown, nil

	default:
		return nil, nil, fmt.Errorf("unsupported log format %q (expected: auto, text, json, otlp-http, otlp-grpc, otel-stdout)", logFormat)
	}
}

// newLocalHandler creates a text or JSON handler writing to w.
func newLocalHandler(level slog.Level, logFormat string, w io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch logFormat {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatText:
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}
}

// newOTelHandler routes slog records through an OpenTelemetry logger provider, dropping
// records below level. The provider is registered globally.
func newOTelHandler(processor sdklog.Processor, level slog.Level) (slog.Handler, ShutdownFunc) {
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(processor, severityFor(level))),
	)
	global.SetLoggerProvider(provider)

	return otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)), provider.Shutdown
}

func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
