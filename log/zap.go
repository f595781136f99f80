package log

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// convenience aliases so callers only need this package
type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = option
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

var (
	String     = zap.String
	Int        = zap.Int
	Float      = zap.Float64
	Bool       = zap.Bool
	Time       = zap.Time
	Duration   = zap.Duration
	ErrorField = zap.Error
)

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

type Logger struct {
	l     *zap.Logger
	level Level
}

type loggerConfig struct {
	zapOpts []zap.Option
	filters string
}

type option func(cfg *loggerConfig)

func WithCaller(enabled bool) Option {
	return func(cfg *loggerConfig) {
		cfg.zapOpts = append(cfg.zapOpts, zap.WithCaller(enabled))
	}
}

// WithFilters attaches zapfilter rules (for example "debug:track* info:*")
// to suppress or enable namespaces independent of the global level.
func WithFilters(rules string) Option {
	return func(cfg *loggerConfig) {
		cfg.filters = rules
	}
}

// New creates a logger with JSON output, used for production style logs.
func New(writer io.Writer, level Level, opts ...Option) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return newLogger(zapcore.NewJSONEncoder(cfg), writer, level, opts...)
}

// DevLogger creates a logger with a human friendly console output.
func DevLogger(writer io.Writer, level Level, opts ...Option) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	return newLogger(zapcore.NewConsoleEncoder(cfg), writer, level, opts...)
}

func newLogger(
	enc zapcore.Encoder,
	writer io.Writer,
	level Level,
	opts ...Option,
) *Logger {
	if writer == nil {
		writer = os.Stderr
	}
	cfg := &loggerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(writer), level)
	if cfg.filters != "" {
		filterFunc, err := zapfilter.ParseRules(cfg.filters)
		if err == nil {
			core = zapfilter.NewFilteringCore(core, filterFunc)
		} else {
			fmt.Fprintf(os.Stderr, "invalid log filter rules %q: %v\n", cfg.filters, err)
		}
	}
	return &Logger{l: zap.New(core, cfg.zapOpts...), level: level}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{l: l.l.With(fields...), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Sync() error { return l.l.Sync() }

var defaultLogger = DevLogger(os.Stderr, InfoLevel)

func Default() *Logger { return defaultLogger }

// ResetDefault replaces the default logger used by the package level helpers.
func ResetDefault(l *Logger) {
	defaultLogger = l
}

func Debug(msg string, fields ...Field) { defaultLogger.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { defaultLogger.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { defaultLogger.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { defaultLogger.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { defaultLogger.Fatal(msg, fields...) }

type ctxKey struct{}

// AddToContext stores the logger in the context.
func AddToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// GetFromContext returns the logger stored in the context or the default one.
func GetFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return defaultLogger
}
