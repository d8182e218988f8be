package protocol

import (
	"bytes"
	"testing"
)

func TestWriterReaderWireBytesRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("abcd"),
		bytes.Repeat([]byte{0x42}, 257),
	}

	for _, payload := range cases {
		w := NewWriter(16)
		w.WireBytes(payload)
		buf := w.Bytes()

		wantPad := padLen(len(payload))
		if got := len(buf); got != 4+len(payload)+wantPad {
			t.Fatalf("encoded length = %d, want %d", got, 4+len(payload)+wantPad)
		}

		r := NewReader(buf)
		got, err := r.WireBytes()
		if err != nil {
			t.Fatalf("WireBytes() error = %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("WireBytes() = %q, want %q", got, payload)
		}
		if r.Remaining() != 0 {
			t.Fatalf("Remaining() = %d, want 0", r.Remaining())
		}
		if r.Pos()%4 != 0 {
			t.Fatalf("cursor not 4-aligned after decode: pos=%d", r.Pos())
		}
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0, 0, 0})
	if _, err := r.Uint32(); err != ErrTruncated {
		t.Fatalf("Uint32() error = %v, want ErrTruncated", err)
	}
}

func TestReaderOpSkipsDummy(t *testing.T) {
	w := NewWriter(16)
	w.Op(OpDummy).Op(OpDummy).Op(OpResponse)

	r := NewReader(w.Bytes())
	op, err := r.Op()
	if err != nil {
		t.Fatalf("Op() error = %v", err)
	}
	if op != OpResponse {
		t.Fatalf("Op() = %v, want OpResponse", op)
	}
}

func TestWriterUint64RoundTrip(t *testing.T) {
	w := NewWriter(8)
	w.Uint64(0x0102030405060708)
	r := NewReader(w.Bytes())
	got, err := r.Uint64()
	if err != nil {
		t.Fatalf("Uint64() error = %v", err)
	}
	if got != 0x0102030405060708 {
		t.Fatalf("Uint64() = %x, want %x", got, 0x0102030405060708)
	}
}

func TestWriterFloat64RoundTrip(t *testing.T) {
	w := NewWriter(8)
	w.Float64(3.14159)
	r := NewReader(w.Bytes())
	got, err := r.Float64()
	if err != nil {
		t.Fatalf("Float64() error = %v", err)
	}
	if got != 3.14159 {
		t.Fatalf("Float64() = %v, want 3.14159", got)
	}
}
