package fbclient

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// SqlError wraps a server-reported error: a SQL error code plus the
// decoded status-vector message.
type SqlError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	SQLCode    int32                  `json:"sql_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

func (e *SqlError) Error() string { return e.FormatError(false) }

func (e *SqlError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: %s (sqlcode %d)", e.Code, e.Message, e.SQLCode)
	}
	data := map[string]interface{}{
		"code": e.Code, "type": e.Type, "message": e.Message, "sql_code": e.SQLCode,
	}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}
	if e.Cause != nil {
		data["cause"] = map[string]interface{}{"message": e.Cause.Error()}
	}
	if len(e.StackTrace) > 0 {
		data["stack_trace"] = e.StackTrace
	}
	if !e.Timestamp.IsZero() {
		data["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

func (e *SqlError) Unwrap() error { return e.Cause }

// NewSqlError builds a SqlError from a decoded status-vector entry.
func NewSqlError(op string, sqlCode int32, message string) *SqlError {
	return &SqlError{
		Code:       "E_SQL",
		Type:       "SqlError",
		Message:    message,
		SQLCode:    sqlCode,
		Details:    map[string]interface{}{"operation": op},
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// IoError wraps a transport-level failure: dial, read, write, or
// unexpected peer close.
type IoError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

func (e *IoError) Error() string { return e.FormatError(false) }

func (e *IoError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	data := map[string]interface{}{"code": e.Code, "type": e.Type, "message": e.Message}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}
	if e.Cause != nil {
		data["cause"] = map[string]interface{}{"message": e.Cause.Error()}
	}
	if len(e.StackTrace) > 0 {
		data["stack_trace"] = e.StackTrace
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

func (e *IoError) Unwrap() error { return e.Cause }

func NewIoError(op string, cause error) *IoError {
	return &IoError{
		Code:       "E_IO",
		Type:       "IoError",
		Message:    fmt.Sprintf("i/o failure during %s", op),
		Details:    map[string]interface{}{"operation": op},
		Cause:      cause,
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// ProtocolError wraps a malformed or unexpected response: wrong opcode,
// truncated packet, unsupported protocol version.
type ProtocolError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

func (e *ProtocolError) Error() string { return e.FormatError(false) }

func (e *ProtocolError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	data := map[string]interface{}{"code": e.Code, "type": e.Type, "message": e.Message}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}
	if e.Cause != nil {
		data["cause"] = map[string]interface{}{"message": e.Cause.Error()}
	}
	if len(e.StackTrace) > 0 {
		data["stack_trace"] = e.StackTrace
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

func NewProtocolError(message string, cause error) *ProtocolError {
	return &ProtocolError{
		Code:       "E_PROTOCOL",
		Type:       "ProtocolError",
		Message:    message,
		Cause:      cause,
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// LogicError wraps a caller misuse: wrong state, bad parameter count,
// double-close, operating on a dropped statement.
type LogicError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

func (e *LogicError) Error() string { return e.FormatError(false) }

func (e *LogicError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	data := map[string]interface{}{"code": e.Code, "type": e.Type, "message": e.Message, "details": e.Details}
	if len(e.StackTrace) > 0 {
		data["stack_trace"] = e.StackTrace
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

func NewLogicError(message string, details map[string]interface{}) *LogicError {
	return &LogicError{
		Code:       "E_LOGIC",
		Type:       "LogicError",
		Message:    message,
		Details:    details,
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

func captureStackTrace() []string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(3, pcs)

	frames := make([]string, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return frames
}

// FormatError formats any of this package's error kinds according to
// debugMode, falling back to err.Error() for anything else.
func FormatError(err error, debugMode bool) string {
	if err == nil {
		return ""
	}
	type debugFormatter interface {
		FormatError(bool) string
	}
	if formatter, ok := err.(debugFormatter); ok {
		return formatter.FormatError(debugMode)
	}
	return err.Error()
}
