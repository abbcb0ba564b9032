package logx

import (
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a map of structured data
type Fields map[string]any

// Logger is the application logger, backed by zap.
type Logger struct {
	mu       sync.RWMutex
	zl       *zap.Logger
	level    zap.AtomicLevel
	exitFunc func(int)
}

// NewLogger builds a zap logger from config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		level:    zap.NewAtomicLevelAt(config.Level.zapLevel()),
		exitFunc: os.Exit,
	}

	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	core := zapcore.NewCore(newEncoder(config), zapcore.AddSync(out), l.level)
	l.zl = l.build(core, config)
	return l
}

// NewWithCore wraps an existing zap core. Used by tests with zaptest/observer.
func NewWithCore(core zapcore.Core) *Logger {
	l := &Logger{
		level:    zap.NewAtomicLevelAt(zapcore.DebugLevel),
		exitFunc: os.Exit,
	}
	l.zl = l.build(core, &Config{})
	return l
}

func (l *Logger) build(core zapcore.Core, config *Config) *zap.Logger {
	opts := []zap.Option{zap.WithFatalHook(exitHook{l})}
	if config.EnableCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	zl := zap.New(core, opts...)
	if config.Service != "" {
		zl = zl.With(zap.String("service", config.Service))
	}
	return zl
}

func newEncoder(config *Config) zapcore.Encoder {
	if config.Format == FormatJSON {
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "timestamp"
		enc.MessageKey = "message"
		enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return zapcore.NewJSONEncoder(enc)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	if config.EnableColors {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(enc)
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current minimum level.
func (l *Logger) GetLevel() zapcore.Level {
	return l.level.Level()
}

// SetOutput redirects output, keeping level and a console encoder.
func (l *Logger) SetOutput(w io.Writer) {
	cfg := DefaultConfig()
	cfg.EnableColors = false
	core := zapcore.NewCore(newEncoder(cfg), zapcore.AddSync(w), l.level)

	l.mu.Lock()
	l.zl = l.build(core, &Config{})
	l.mu.Unlock()
}

// Zap exposes the underlying zap logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.Zap().Sync()
}

func (l *Logger) log(level Level, msg string, fields Fields, data any, err error) {
	if level == LevelOff {
		return
	}
	zl := l.Zap()
	ce := zl.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields, data, err)...)
}

func toZapFields(fields Fields, data any, err error) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}

	if data != nil {
		out = append(out, zap.Any("data", data))
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}

// WithField creates a new entry with a field
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates a new entry with fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates a new entry with an error
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// WithStruct creates a new entry with structured data
func (l *Logger) WithStruct(data any) *Entry {
	return newEntry(l).WithStruct(data)
}

// SetExitFunc replaces os.Exit for fatal entries.
func (l *Logger) SetExitFunc(fn func(int)) {
	l.exitFunc = fn
}

type exitHook struct {
	l *Logger
}

func (h exitHook) OnWrite(_ *zapcore.CheckedEntry, _ []zapcore.Field) {
	h.l.exitFunc(1)
}
