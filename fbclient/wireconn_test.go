package fbclient

import (
	"net"
	"testing"

	"github.com/fbwire/fbclient/protocol"
)

func pipeConns(t *testing.T) (*wireConn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	return &wireConn{conn: client, readBuf: make([]byte, wireBufferLength*2)}, server
}

func TestWireConnWriteRead(t *testing.T) {
	wc, server := pipeConns(t)
	defer wc.close()
	defer server.Close()

	w := protocol.NewWriter(16)
	w.Op(protocol.OpResponse)
	w.Uint32(123)
	frame := w.Bytes()

	go func() {
		server.Write(frame)
	}()

	op, r, err := wc.readPacket()
	if err != nil {
		t.Fatalf("readPacket() error = %v", err)
	}
	if op != protocol.OpResponse {
		t.Fatalf("op = %v, want OpResponse", op)
	}
	v, err := r.Uint32()
	if err != nil || v != 123 {
		t.Fatalf("payload = %d, err = %v, want 123", v, err)
	}
}

func TestWireConnSkipsDummyOpcodes(t *testing.T) {
	wc, server := pipeConns(t)
	defer wc.close()
	defer server.Close()

	w := protocol.NewWriter(16)
	w.Op(protocol.OpDummy)
	w.Op(protocol.OpDummy)
	w.Op(protocol.OpResponse)
	w.Uint32(7)

	go func() {
		server.Write(w.Bytes())
	}()

	op, _, err := wc.readPacket()
	if err != nil {
		t.Fatalf("readPacket() error = %v", err)
	}
	if op != protocol.OpResponse {
		t.Fatalf("op = %v, want OpResponse (dummy opcodes should be skipped)", op)
	}
}

func TestWireConnRC4RoundTrip(t *testing.T) {
	wc, server := pipeConns(t)
	defer wc.close()
	defer server.Close()

	key := []byte("a 32 byte shared srp session key")
	if err := wc.upgradeToRC4(key); err != nil {
		t.Fatalf("upgradeToRC4() error = %v", err)
	}

	serverSide := &wireConn{conn: server, readBuf: make([]byte, wireBufferLength*2)}
	if err := serverSide.upgradeToRC4(key); err != nil {
		t.Fatalf("upgradeToRC4() error = %v", err)
	}

	w := protocol.NewWriter(16)
	w.Op(protocol.OpAttach)
	w.Uint32(42)

	errCh := make(chan error, 1)
	go func() { errCh <- wc.write(w.Bytes()) }()

	op, r, err := serverSide.readPacket()
	if err != nil {
		t.Fatalf("readPacket() error = %v", err)
	}
	if writeErr := <-errCh; writeErr != nil {
		t.Fatalf("write() error = %v", writeErr)
	}
	if op != protocol.OpAttach {
		t.Fatalf("op = %v, want OpAttach (RC4 must decrypt back to plaintext)", op)
	}
	v, err := r.Uint32()
	if err != nil || v != 42 {
		t.Fatalf("payload = %d, err = %v, want 42", v, err)
	}
}
