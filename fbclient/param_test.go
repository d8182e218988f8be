package fbclient

import (
	"testing"
	"time"

	"github.com/fbwire/fbclient/protocol/blr"
)

func testConnection(t *testing.T) *Connection {
	t.Helper()
	cs, err := ParseCharset("utf8")
	if err != nil {
		t.Fatalf("ParseCharset() error = %v", err)
	}
	return &Connection{charset: cs}
}

func TestBuildParamsBasicTypes(t *testing.T) {
	c := testConnection(t)

	params, err := c.BuildParams(nil, "hi", int64(5), 2.5, true, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}
	if params[0].Kind != blr.KindNull {
		t.Errorf("params[0].Kind = %v, want KindNull", params[0].Kind)
	}
	if params[1].Kind != blr.KindText || string(params[1].Text) != "hi" {
		t.Errorf("params[1] = %+v, want text \"hi\"", params[1])
	}
	if params[2].Kind != blr.KindInt64 || params[2].Int64 != 5 {
		t.Errorf("params[2] = %+v, want int64 5", params[2])
	}
	if params[3].Kind != blr.KindDouble || params[3].Double != 2.5 {
		t.Errorf("params[3] = %+v, want double 2.5", params[3])
	}
	if params[4].Kind != blr.KindBool || !params[4].Bool {
		t.Errorf("params[4] = %+v, want bool true", params[4])
	}
	if params[5].Kind != blr.KindBinary || len(params[5].Binary) != 3 {
		t.Errorf("params[5] = %+v, want 3-byte binary", params[5])
	}
}

func TestBuildParamsNilPointersAreNull(t *testing.T) {
	c := testConnection(t)
	var s *string
	var n *int64
	var ts *time.Time

	params, err := c.BuildParams(s, n, ts)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}
	for i, p := range params {
		if p.Kind != blr.KindNull {
			t.Errorf("params[%d].Kind = %v, want KindNull for nil pointer", i, p.Kind)
		}
	}
}

func TestBuildParamsTimestamp(t *testing.T) {
	c := testConnection(t)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	params, err := c.BuildParams(ts)
	if err != nil {
		t.Fatalf("BuildParams() error = %v", err)
	}
	wantDate, wantTime := EncodeTimestamp(ts)
	if params[0].Kind != blr.KindTimestampDate {
		t.Fatalf("Kind = %v, want KindTimestampDate", params[0].Kind)
	}
	if params[0].TimestampDate != wantDate || params[0].TimestampTime != wantTime {
		t.Fatalf("timestamp = (%d, %d), want (%d, %d)",
			params[0].TimestampDate, params[0].TimestampTime, wantDate, wantTime)
	}
}

func TestBuildParamsUnsupportedType(t *testing.T) {
	c := testConnection(t)
	if _, err := c.BuildParams(struct{}{}); err == nil {
		t.Fatal("BuildParams() with an unsupported type: want error, got nil")
	}
}
