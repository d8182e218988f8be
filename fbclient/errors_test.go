package fbclient

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSqlErrorFormatError(t *testing.T) {
	err := NewSqlError("fetch", -803, "violation of PRIMARY or UNIQUE KEY constraint")

	plain := err.Error()
	if !strings.Contains(plain, "sqlcode -803") {
		t.Errorf("Error() = %q, want it to mention sqlcode -803", plain)
	}

	debug := err.FormatError(true)
	var parsed map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(debug), &parsed); jsonErr != nil {
		t.Fatalf("debug FormatError() should be valid JSON: %v", jsonErr)
	}
	if parsed["code"] != "E_SQL" {
		t.Errorf("code = %v, want E_SQL", parsed["code"])
	}
	if parsed["sql_code"].(float64) != -803 {
		t.Errorf("sql_code = %v, want -803", parsed["sql_code"])
	}
}

func TestIoErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := NewIoError("read", cause)

	if !errors.Is(err, cause) {
		t.Error("IoError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "connection reset by peer") {
		t.Errorf("Error() = %q, want it to mention the cause", err.Error())
	}
}

func TestProtocolErrorFormatting(t *testing.T) {
	err := NewProtocolError("unexpected opcode 99, want OpResponse", nil)
	if err.Code != "E_PROTOCOL" {
		t.Errorf("Code = %q, want E_PROTOCOL", err.Code)
	}
	if err.Cause != nil {
		t.Error("Cause should be nil when none was given")
	}
}

func TestLogicErrorDetails(t *testing.T) {
	err := NewLogicError("statement already closed", map[string]interface{}{"handle": 42})
	if err.Details["handle"] != 42 {
		t.Errorf("Details[handle] = %v, want 42", err.Details["handle"])
	}
	if !strings.Contains(err.Error(), "statement already closed") {
		t.Errorf("Error() = %q, want it to contain the message", err.Error())
	}
}

func TestFormatErrorFallsBackForPlainErrors(t *testing.T) {
	plain := errors.New("plain failure")
	if got := FormatError(plain, true); got != "plain failure" {
		t.Errorf("FormatError(plain) = %q, want %q", got, "plain failure")
	}
	if got := FormatError(nil, true); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty string", got)
	}
}
