package fbclient

import (
	"testing"
	"time"

	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/blr"
	"github.com/fbwire/fbclient/protocol/xsqlda"
)

func testColumns() []xsqlda.Descriptor {
	return []xsqlda.Descriptor{
		{SQLType: blr.SQLVarying + 1, AliasName: "NAME"},
		{SQLType: blr.SQLInt64 + 1, AliasName: "ID"},
	}
}

func TestDecodeRowPreV13TrailingIndicator(t *testing.T) {
	cs, _ := ParseCharset("utf8")
	w := protocol.NewWriter(64)
	w.WireBytes([]byte("bob"))
	w.Uint32(0) // not null
	w.Int64(42)
	w.Uint32(0xFFFFFFFF) // null

	r := protocol.NewReader(w.Bytes())
	values, err := decodeRow(r, testColumns(), protocol.ProtocolV10, cs)
	if err != nil {
		t.Fatalf("decodeRow() error = %v", err)
	}
	if values[0] != "bob" {
		t.Fatalf("values[0] = %v, want \"bob\"", values[0])
	}
	if values[1] != nil {
		t.Fatalf("values[1] = %v, want nil (null indicator set)", values[1])
	}
}

func TestDecodeRowV13Bitmap(t *testing.T) {
	cs, _ := ParseCharset("utf8")
	cols := testColumns()

	// bit 0 = NAME (not null), bit 1 = ID (null) -> bitmap byte 0b00000010
	w := protocol.NewWriter(64)
	w.Raw([]byte{0b00000010, 0, 0, 0})
	w.WireBytes([]byte("carol"))
	// ID is null per the bitmap: no value bytes follow at all.

	r := protocol.NewReader(w.Bytes())
	values, err := decodeRow(r, cols, protocol.ProtocolV13, cs)
	if err != nil {
		t.Fatalf("decodeRow() error = %v", err)
	}
	if values[0] != "carol" {
		t.Fatalf("values[0] = %v, want \"carol\"", values[0])
	}
	if values[1] != nil {
		t.Fatalf("values[1] = %v, want nil", values[1])
	}
}

func TestRowScanTypes(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	row := &Row{
		columns: []xsqlda.Descriptor{{}, {}, {}, {}},
		values:  []interface{}{"hello", int64(7), 3.5, ts},
	}

	var s string
	var n int64
	var f float64
	var tm time.Time
	if err := row.Scan(&s, &n, &f, &tm); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if s != "hello" || n != 7 || f != 3.5 || !tm.Equal(ts) {
		t.Fatalf("Scan() = (%q, %d, %v, %v)", s, n, f, tm)
	}
}

func TestRowScanNullIntoPointer(t *testing.T) {
	row := &Row{columns: []xsqlda.Descriptor{{}}, values: []interface{}{nil}}

	var n *int64
	if err := row.Scan(&n); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if n != nil {
		t.Fatalf("Scan() into *int64 for NULL = %v, want nil", n)
	}
}

func TestRowScanNullIntoNonPointerIsError(t *testing.T) {
	row := &Row{columns: []xsqlda.Descriptor{{}}, values: []interface{}{nil}}

	var n int64
	if err := row.Scan(&n); err == nil {
		t.Fatal("Scan() of NULL into *int64: want error, got nil")
	}
}

func TestRowScanWrongCount(t *testing.T) {
	row := &Row{columns: []xsqlda.Descriptor{{}}, values: []interface{}{"x"}}
	var a, b string
	if err := row.Scan(&a, &b); err == nil {
		t.Fatal("Scan() with mismatched destination count: want error, got nil")
	}
}
