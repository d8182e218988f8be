// Package rc4 implements the 256-byte-state stream cipher used to encrypt
// the wire once a connection upgrades to protocol 13 wire encryption. It is
// deliberately independent from crypto/rc4 in the standard library so the
// two read/write key schedules can be driven explicitly by the caller
// rather than through a single io.ReadWriter wrapper.
package rc4

import "fmt"

// Cipher holds one RC4 key schedule (KSA output) plus the running i/j
// indices of the PRGA.
type Cipher struct {
	i, j  byte
	state [256]byte
}

// New runs the key-scheduling algorithm over key and returns a ready
// keystream generator. key must be non-empty.
func New(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("rc4: empty key")
	}
	c := &Cipher{}
	for i := 0; i < 256; i++ {
		c.state[i] = byte(i)
	}
	var j byte
	for i := 0; i < 256; i++ {
		j += c.state[i] + key[i%len(key)]
		c.state[i], c.state[j] = c.state[j], c.state[i]
	}
	return c, nil
}

func (c *Cipher) next() byte {
	c.i++
	c.j += c.state[c.i]
	c.state[c.i], c.state[c.j] = c.state[c.j], c.state[c.i]
	return c.state[byte(c.state[c.i]+c.state[c.j])]
}

// XORKeyStream XORs each byte of src with the next keystream byte, writing
// the result into dst. dst and src must be the same length; dst and src may
// overlap exactly (in-place use).
func (c *Cipher) XORKeyStream(dst, src []byte) {
	for k := range src {
		dst[k] = src[k] ^ c.next()
	}
}
