package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrUnexpectedOp reports that a response opcode did not match what the
// caller expected at this point in the protocol.
type ErrUnexpectedOp struct {
	Want Op
	Got  Op
}

func (e *ErrUnexpectedOp) Error() string {
	return fmt.Sprintf("protocol: expected %s, got %s", e.Want, e.Got)
}

// StatusEntry mirrors one record of the server's tagged status vector.
type StatusEntry struct {
	SQLCode int32
	Message string
}

func (e *StatusEntry) Error() string { return e.Message }

// gdsMessages holds a handful of message templates for the gds codes this
// engine recognises directly; codes it doesn't recognise still surface
// (with their numeric value) rather than panicking, since the status
// vector must always be decodable even against a server version whose
// full message catalog is unknown to the client.
var gdsMessages = map[uint32]string{
	335544321: "invalid database handle (no active connection)",
	335544332: "unsuccessful metadata update",
	335544347: "violation of PRIMARY or UNIQUE KEY constraint \"@1\" on table \"@2\"",
	335544352: "too many concurrent executions of the same request",
	335544569: "Dynamic SQL Error",
	335544634: "arithmetic exception, numeric overflow, or string truncation",
	335544436: "SQL error code = @1",
}

// ParseStatusVector decodes the tagged error sequence the server appends to
// every Response and Fetch reply: a run of {isc_arg_gds, isc_arg_number,
// isc_arg_string, isc_arg_interpreted, isc_arg_sql_state} records terminated
// by isc_arg_end. It returns nil if the vector carries no error (the
// common, successful case).
func ParseStatusVector(r *Reader) (*StatusEntry, error) {
	var (
		sqlCode int32
		gdsCode uint32
		numArg  int
		message strings.Builder
	)

	tag, err := r.Uint32()
	if err != nil {
		return nil, err
	}

	for tag != IscArgEnd {
		switch tag {
		case IscArgGds:
			gdsCode, err = r.Uint32()
			if err != nil {
				return nil, err
			}
			if gdsCode != 0 {
				message.WriteString(gdsToMsg(gdsCode))
				numArg = 0
			}
		case IscArgNumber:
			n, err := r.Int32()
			if err != nil {
				return nil, err
			}
			if gdsCode == 335544436 {
				sqlCode = n
			}
			numArg++
			replacePlaceholder(&message, numArg, strconv.FormatInt(int64(n), 10))
		case IscArgString, IscArgCstring:
			b, err := r.WireBytes()
			if err != nil {
				return nil, err
			}
			numArg++
			replacePlaceholder(&message, numArg, string(b))
		case IscArgInterpreted:
			b, err := r.WireBytes()
			if err != nil {
				return nil, err
			}
			message.WriteString(string(b))
		case IscArgSQLState:
			if _, err := r.WireBytes(); err != nil {
				return nil, err
			}
		default:
			// Unknown tag shape: nothing further to decode safely, stop.
			tag = IscArgEnd
			continue
		}

		tag, err = r.Uint32()
		if err != nil {
			return nil, err
		}
	}

	msg := strings.TrimSuffix(message.String(), "\n")
	if msg == "" {
		return nil, nil
	}
	return &StatusEntry{SQLCode: sqlCode, Message: msg}, nil
}

func gdsToMsg(code uint32) string {
	if m, ok := gdsMessages[code]; ok {
		return m
	}
	return fmt.Sprintf("unformatted message, gds code %d", code)
}

// replacePlaceholder substitutes the nth "@N" placeholder (1-indexed) in
// the message built so far with val, matching the server's own
// placeholder numbering.
func replacePlaceholder(b *strings.Builder, n int, val string) {
	placeholder := "@" + strconv.Itoa(n)
	s := strings.Replace(b.String(), placeholder, val, 1)
	b.Reset()
	b.WriteString(s)
}
