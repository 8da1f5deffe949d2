package ros

import (
	"io"
	"os"
	"sync"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/sirupsen/logrus"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

var logrusLevels = map[LogLevel]logrus.Level{
	LogLevelDebug: logrus.DebugLevel,
	LogLevelInfo:  logrus.InfoLevel,
	LogLevelWarn:  logrus.WarnLevel,
	LogLevelError: logrus.ErrorLevel,
	LogLevelFatal: logrus.FatalLevel,
}

// ParseLogLevel accepts the level names understood by logrus.
func ParseLogLevel(name string) (LogLevel, error) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return LogLevelInfo, err
	}
	switch {
	case lvl >= logrus.DebugLevel:
		return LogLevelDebug, nil
	case lvl == logrus.InfoLevel:
		return LogLevelInfo, nil
	case lvl == logrus.WarnLevel:
		return LogLevelWarn, nil
	case lvl == logrus.ErrorLevel:
		return LogLevelError, nil
	}
	return LogLevelFatal, nil
}

type Logger interface {
	// Severity and SetSeverity act on the logger's module, or on the
	// default shared by all modules without a level of their own.
	Severity() LogLevel
	SetSeverity(severity LogLevel)
	// WithModule returns a logger for the named module, which can be given
	// its own severity.
	WithModule(module string) Logger
	WithField(key string, value interface{}) Logger
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// moduleLevels is shared by every logger derived from one root.
type moduleLevels struct {
	mu       sync.RWMutex
	fallback LogLevel
	modules  map[string]LogLevel
}

func (m *moduleLevels) get(module string) LogLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if lvl, ok := m.modules[module]; ok && module != "" {
		return lvl
	}
	return m.fallback
}

func (m *moduleLevels) set(module string, severity LogLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if module == "" {
		m.fallback = severity
		return
	}
	m.modules[module] = severity
}

// defaultLogger writes through a modular root logger. The root itself logs
// everything; filtering happens here against the module's severity.
type defaultLogger struct {
	root   modular.ModuleLogger
	fields logrus.Fields
	module string
	levels *moduleLevels
}

// NewDefaultLogger returns an info level logger writing text to stderr.
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr)
}

// NewLogger returns an info level logger writing text to w.
func NewLogger(w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return FromLogrus(l)
}

// FromLogrus wraps an existing logrus logger. Its level is lowered to debug
// and the current level becomes the default module severity.
func FromLogrus(l *logrus.Logger) Logger {
	fallback := severityOf(l.GetLevel())
	l.SetLevel(logrus.DebugLevel)
	return &defaultLogger{
		root:   modular.NewRootLogger(l),
		fields: logrus.Fields{},
		levels: &moduleLevels{fallback: fallback, modules: make(map[string]LogLevel)},
	}
}

func severityOf(lvl logrus.Level) LogLevel {
	for severity, l := range logrusLevels {
		if l == lvl {
			return severity
		}
	}
	if lvl > logrus.DebugLevel {
		return LogLevelDebug
	}
	return LogLevelFatal
}

func (logger *defaultLogger) Severity() LogLevel {
	return logger.levels.get(logger.module)
}

func (logger *defaultLogger) SetSeverity(severity LogLevel) {
	if _, ok := logrusLevels[severity]; ok {
		logger.levels.set(logger.module, severity)
	}
}

func (logger *defaultLogger) derive(key string, value interface{}) *defaultLogger {
	fields := make(logrus.Fields, len(logger.fields)+1)
	for k, v := range logger.fields {
		fields[k] = v
	}
	fields[key] = value
	return &defaultLogger{root: logger.root, fields: fields, module: logger.module, levels: logger.levels}
}

func (logger *defaultLogger) WithModule(module string) Logger {
	derived := logger.derive("module", module)
	derived.module = module
	return derived
}

func (logger *defaultLogger) WithField(key string, value interface{}) Logger {
	return logger.derive(key, value)
}

func (logger *defaultLogger) enabled(severity LogLevel) bool {
	return severity >= logger.levels.get(logger.module)
}

func (logger *defaultLogger) entry() modular.Logger {
	return logger.root.WithFields(logger.fields)
}

func (logger *defaultLogger) Debug(v ...interface{}) {
	if logger.enabled(LogLevelDebug) {
		logger.entry().Debug(v...)
	}
}

func (logger *defaultLogger) Debugf(format string, v ...interface{}) {
	if logger.enabled(LogLevelDebug) {
		logger.entry().Debugf(format, v...)
	}
}

func (logger *defaultLogger) Info(v ...interface{}) {
	if logger.enabled(LogLevelInfo) {
		logger.entry().Info(v...)
	}
}

func (logger *defaultLogger) Infof(format string, v ...interface{}) {
	if logger.enabled(LogLevelInfo) {
		logger.entry().Infof(format, v...)
	}
}

func (logger *defaultLogger) Warn(v ...interface{}) {
	if logger.enabled(LogLevelWarn) {
		logger.entry().Warn(v...)
	}
}

func (logger *defaultLogger) Warnf(format string, v ...interface{}) {
	if logger.enabled(LogLevelWarn) {
		logger.entry().Warnf(format, v...)
	}
}

func (logger *defaultLogger) Error(v ...interface{}) {
	if logger.enabled(LogLevelError) {
		logger.entry().Error(v...)
	}
}

func (logger *defaultLogger) Errorf(format string, v ...interface{}) {
	if logger.enabled(LogLevelError) {
		logger.entry().Errorf(format, v...)
	}
}

// Fatal logs regardless of severity and exits.
func (logger *defaultLogger) Fatal(v ...interface{}) {
	logger.entry().Fatal(v...)
}

func (logger *defaultLogger) Fatalf(format string, v ...interface{}) {
	logger.entry().Fatalf(format, v...)
}
