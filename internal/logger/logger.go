package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a service-scoped structured logger.
type Logger struct {
	*zap.SugaredLogger
	serviceName string
}

var (
	baseOnce sync.Once
	base     *zap.Logger
)

func root() *zap.Logger {
	baseOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}

		encoderConfig := zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}

		var encoder zapcore.Encoder
		if env == "production" {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		}

		level := zap.InfoLevel
		if env == "development" {
			level = zap.DebugLevel
		}

		core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level))
		base = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return base
}

// New returns a logger tagged with the given service name.
func New(serviceName string) *Logger {
	return &Logger{
		SugaredLogger: root().Sugar().With("service", serviceName),
		serviceName:   serviceName,
	}
}

// Nop discards everything. Used by tests and tools that want silence.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), serviceName: "nop"}
}

func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{
		SugaredLogger: l.With("user_id", userID),
		serviceName:   l.serviceName,
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		SugaredLogger: l.With(args...),
		serviceName:   l.serviceName,
	}
}

// Audit records a team event (member or invitation change).
func (l *Logger) Audit(event string, keysAndValues ...interface{}) {
	l.With("audit", true, "event", event, "at", time.Now().UTC()).Infow(event, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Warnw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Infow(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.Fatalw(msg, keysAndValues...)
}

func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
