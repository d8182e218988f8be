package fbclient

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// LogLevel is the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a string to a LogLevel, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field is one structured log field.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field { return Field{Key: key, Value: val} }
func Int(key string, val int) Field { return Field{Key: key, Value: val} }
func Uint32(key string, val uint32) Field { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Value: val.String()}
}
func Error(key string, err error) Field {
	if err == nil {
		return Field{Key: key, Value: nil}
	}
	return Field{Key: key, Value: err.Error()}
}

// Logger is the structured logging interface used throughout fbclient.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
}

type defaultLogger struct {
	logger     *log.Logger
	minLevel   LogLevel
	baseFields []Field
}

// NewLogger creates a JSON-line logger at the given level, writing to
// output (stdout if nil).
func NewLogger(level string, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}
	return &defaultLogger{
		logger:     log.New(output, "", 0),
		minLevel:   ParseLogLevel(level),
		baseFields: []Field{},
	}
}

// NewDefaultLogger creates an INFO-level logger writing to stdout.
func NewDefaultLogger() Logger { return NewLogger("INFO", os.Stdout) }

func (l *defaultLogger) Debug(msg string, fields ...Field) {
	if l.minLevel <= DEBUG {
		l.log(DEBUG, msg, fields...)
	}
}

func (l *defaultLogger) Info(msg string, fields ...Field) {
	if l.minLevel <= INFO {
		l.log(INFO, msg, fields...)
	}
}

func (l *defaultLogger) Warn(msg string, fields ...Field) {
	if l.minLevel <= WARN {
		l.log(WARN, msg, fields...)
	}
}

func (l *defaultLogger) Error(msg string, fields ...Field) {
	if l.minLevel <= ERROR {
		l.log(ERROR, msg, fields...)
	}
}

func (l *defaultLogger) WithFields(fields ...Field) Logger {
	newFields := make([]Field, len(l.baseFields)+len(fields))
	copy(newFields, l.baseFields)
	copy(newFields[len(l.baseFields):], fields)
	return &defaultLogger{logger: l.logger, minLevel: l.minLevel, baseFields: newFields}
}

func (l *defaultLogger) log(level LogLevel, msg string, fields ...Field) {
	all := make([]Field, 0, len(l.baseFields)+len(fields)+3)
	all = append(all, Field{Key: "timestamp", Value: time.Now().Format(time.RFC3339Nano)})
	all = append(all, Field{Key: "level", Value: level.String()})
	all = append(all, Field{Key: "message", Value: msg})
	all = append(all, l.baseFields...)
	all = append(all, fields...)

	all = redactSensitiveFields(all)

	logMap := make(map[string]interface{}, len(all))
	for _, f := range all {
		logMap[f.Key] = f.Value
	}

	b, err := json.Marshal(logMap)
	if err != nil {
		l.logger.Printf(`{"level":"ERROR","message":"failed to marshal log","error":"%s"}`, err.Error())
		return
	}
	l.logger.Println(string(b))
}

// redactSensitiveFields masks values for keys carrying credentials, so a
// SRP/password exchange never lands plaintext in a log line.
func redactSensitiveFields(fields []Field) []Field {
	sensitive := map[string]bool{
		"password": true, "token": true, "secret": true, "authorization": true,
		"api_key": true, "apikey": true, "auth": true, "srp_proof": true, "session_key": true,
	}
	result := make([]Field, len(fields))
	for i, f := range fields {
		if sensitive[strings.ToLower(f.Key)] {
			result[i] = Field{Key: f.Key, Value: "[REDACTED]"}
		} else {
			result[i] = f
		}
	}
	return result
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...Field) {}
func (n *noopLogger) Info(msg string, fields ...Field)  {}
func (n *noopLogger) Warn(msg string, fields ...Field)  {}
func (n *noopLogger) Error(msg string, fields ...Field) {}
func (n *noopLogger) WithFields(fields ...Field) Logger { return n }

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return &noopLogger{} }
