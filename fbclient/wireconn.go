package fbclient

import (
	"net"
	"time"

	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/rc4"
)

// wireBufferLength is the reply buffer size requested from the server on
// ExecImmediate, and the basis of the read buffer this connection allocates
// per packet. The reference client reads "a bit too much" (twice the
// requested buffer length) to comfortably hold a reply.
const wireBufferLength = 1024

// wireConn is a single blocking connection to a Firebird server: one
// request is written, one response is read, in strict alternation. There is
// no pooling and no concurrent use of a wireConn from multiple goroutines —
// that matches the protocol itself, which multiplexes nothing onto a single
// TCP stream.
type wireConn struct {
	conn    net.Conn
	timeout time.Duration
	readBuf []byte

	// rc4Read/rc4Write are nil until the post-authentication wire-crypt
	// upgrade completes, after which every byte crossing the wire in that
	// direction is XORed through its own key schedule.
	rc4Read  *rc4.Cipher
	rc4Write *rc4.Cipher
}

// dialWireConn opens a TCP connection to addr (host:port). No protocol
// bytes are exchanged yet; the caller drives the connect/authenticate
// handshake with write/readPacket.
func dialWireConn(addr string, timeout time.Duration) (*wireConn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, NewIoError("dial", err)
	}
	return &wireConn{
		conn:    conn,
		timeout: timeout,
		readBuf: make([]byte, wireBufferLength*2),
	}, nil
}

// localHostname reports the local half of the TCP connection, sent to the
// server as the Cnct::Host identification field.
func (c *wireConn) localHostname() string {
	if addr := c.conn.LocalAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// write sends one fully-built request frame, encrypting it in place if wire
// encryption has been negotiated.
func (c *wireConn) write(frame []byte) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return NewIoError("set write deadline", err)
		}
	}
	if c.rc4Write != nil {
		c.rc4Write.XORKeyStream(frame, frame)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return NewIoError("write", err)
	}
	return nil
}

// readPacket reads one response packet and returns its opcode (with any
// leading run of OpDummy filler already skipped) plus a Reader positioned
// just past that opcode. The server is trusted to deliver a full response
// in a single TCP read, matching the reference client's framing.
func (c *wireConn) readPacket() (protocol.Op, *protocol.Reader, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, nil, NewIoError("set read deadline", err)
		}
	}
	n, err := c.conn.Read(c.readBuf)
	if err != nil {
		return 0, nil, NewIoError("read", err)
	}
	buf := make([]byte, n)
	copy(buf, c.readBuf[:n])
	if c.rc4Read != nil {
		c.rc4Read.XORKeyStream(buf, buf)
	}

	r := protocol.NewReader(buf)
	op, err := r.Op()
	if err != nil {
		return 0, nil, NewProtocolError("reading response opcode", err)
	}
	return op, r, nil
}

// upgradeToRC4 switches both directions of this connection to RC4 wire
// encryption, each with its own key schedule seeded from the SRP session
// key. Called once, immediately after the crypt("Arc4","Symmetric") request
// has been sent and before its confirming response is read.
func (c *wireConn) upgradeToRC4(sessionKey []byte) error {
	rd, err := rc4.New(sessionKey)
	if err != nil {
		return NewProtocolError("starting read cipher", err)
	}
	wr, err := rc4.New(sessionKey)
	if err != nil {
		return NewProtocolError("starting write cipher", err)
	}
	c.rc4Read = rd
	c.rc4Write = wr
	return nil
}

func (c *wireConn) close() error {
	return c.conn.Close()
}
