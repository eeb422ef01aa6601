package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogStageStart logs the beginning of a pipeline stage.
func (l *Logger) LogStageStart(ctx context.Context, stage string, inputs int) {
	l.WithContext(ctx).Info().
		Str("stage", stage).
		Int("inputs", inputs).
		Msg("stage started")
}

// LogStageEnd logs the outcome of a pipeline stage.
func (l *Logger) LogStageEnd(ctx context.Context, stage string, outputs, errs int) {
	event := l.WithContext(ctx).Info()
	if errs > 0 {
		event = l.WithContext(ctx).Warn()
	}
	event.
		Str("stage", stage).
		Int("outputs", outputs).
		Int("errors", errs).
		Msg("stage completed")
}
