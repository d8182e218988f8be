package rc4

import "bytes"

import "testing"

func TestKnownAnswer(t *testing.T) {
	c, err := New([]byte("a key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []byte{0x4b, 0x4b, 0xdc, 0x65, 0x02, 0xb3, 0x08, 0x17, 0x48, 0x82}
	got := make([]byte, len(want))
	c.XORKeyStream(got, []byte("plain text"))

	if !bytes.Equal(got, want) {
		t.Fatalf("XORKeyStream() = %x, want %x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	enc, err := New([]byte("another key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dec, err := New([]byte("another key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plain := []byte("round trip through independent read/write schedules")
	cipher := make([]byte, len(plain))
	enc.XORKeyStream(cipher, plain)

	back := make([]byte, len(plain))
	dec.XORKeyStream(back, cipher)

	if !bytes.Equal(back, plain) {
		t.Fatalf("round trip = %q, want %q", back, plain)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}
