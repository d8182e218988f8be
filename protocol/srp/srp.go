// Package srp implements the SRP-6a variant authentication the server
// requires before a plaintext password is ever allowed onto the wire: the
// client proves knowledge of the password without sending it, using a
// fixed 1024-bit safe prime group and either the "Srp" (SHA-1) or "Srp256"
// (SHA-256) plugin variant.
package srp

import (
	"crypto/rand"
	"errors"
	"hash"
	"math/big"
)

// ErrMaliciousServer is returned by ComputeProof when the server's public
// ephemeral value B is congruent to 0 mod N, which would let an attacker
// force a predictable session key.
var ErrMaliciousServer = errors.New("srp: malicious B (B mod N == 0)")

var (
	n = new(big.Int).SetBytes([]byte{
		230, 125, 46, 153, 75, 47, 144, 12, 63, 65, 240, 143, 91, 178, 98, 126, 208, 212, 158,
		225, 254, 118, 122, 82, 239, 205, 86, 92, 214, 231, 104, 129, 44, 62, 30, 156, 232,
		240, 168, 190, 166, 203, 19, 205, 41, 221, 235, 247, 169, 109, 74, 147, 181, 93, 72,
		141, 240, 153, 161, 92, 137, 220, 176, 100, 7, 56, 235, 44, 189, 217, 168, 247, 186,
		181, 97, 171, 27, 13, 193, 198, 205, 171, 243, 3, 38, 74, 8, 209, 188, 169, 50, 209,
		241, 238, 66, 139, 97, 157, 151, 15, 52, 42, 186, 154, 101, 121, 59, 139, 47, 4, 26,
		229, 54, 67, 80, 193, 111, 115, 95, 86, 236, 188, 168, 123, 213, 123, 41, 231,
	})
	g = big.NewInt(2)
)

// Client holds SRP state between generating the client ephemeral and
// processing the server's handshake reply. newHash selects the plugin
// variant: sha1.New for "Srp", sha256.New for "Srp256".
type Client struct {
	newHash func() hash.Hash
	a       *big.Int
	aPub    *big.Int
}

// New allocates a client with a fresh random 32-byte private ephemeral a and
// computes its public counterpart A = g^a mod N.
func New(newHash func() hash.Hash) (*Client, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return NewWithSeed(newHash, seed), nil
}

// NewWithSeed is New with an explicit seed for a, used by tests to
// reproduce known-answer vectors deterministically.
func NewWithSeed(newHash func() hash.Hash, seed []byte) *Client {
	a := new(big.Int).SetBytes(seed)
	aPub := new(big.Int).Exp(g, a, n)
	return &Client{newHash: newHash, a: a, aPub: aPub}
}

// APub returns the client's public ephemeral value A, sent to the server in
// the Connect/ContAuth handshake.
func (c *Client) APub() []byte { return c.aPub.Bytes() }

// PrivateKey derives the SRP private key x = H(salt || H(user || ":" || password)),
// matching the RFC 5054 derivation the server expects.
func PrivateKey(newHash func() hash.Hash, user, password, salt []byte) []byte {
	h := newHash()
	h.Write(user)
	h.Write([]byte(":"))
	h.Write(password)
	p := h.Sum(nil)

	h2 := newHash()
	h2.Write(salt)
	h2.Write(p)
	return h2.Sum(nil)
}

// Proof is the result of processing the server's handshake reply: the
// client-side evidence message M to send back, and the shared session key K
// derived from the private exponent.
type Proof struct {
	M []byte
	K []byte
}

func computeK(newHash func() hash.Hash) *big.Int {
	nBytes := n.Bytes()
	gBytes := g.Bytes()
	buf := make([]byte, len(nBytes))
	copy(buf[len(buf)-len(gBytes):], gBytes)

	h := newHash()
	h.Write(nBytes)
	h.Write(buf)
	return new(big.Int).SetBytes(h.Sum(nil))
}

// ComputeProof processes the server's handshake reply (salt, B) together
// with the derived private key and returns the evidence message to send
// back plus the shared session key.
func (c *Client) ComputeProof(user, salt, privateKey, bPub []byte) (*Proof, error) {
	b := new(big.Int).SetBytes(bPub)

	if new(big.Int).Mod(b, n).Sign() == 0 {
		return nil, ErrMaliciousServer
	}

	h := c.newHash()
	h.Write(c.aPub.Bytes())
	h.Write(bPub)
	u := new(big.Int).SetBytes(h.Sum(nil))

	x := new(big.Int).SetBytes(privateKey)

	k := computeK(c.newHash)
	gx := new(big.Int).Exp(g, x, n)
	interm := new(big.Int).Mod(new(big.Int).Mul(k, gx), n)

	v := new(big.Int).Sub(b, interm)
	v.Mod(v, n)
	if v.Sign() < 0 {
		v.Add(v, n)
	}

	ux := new(big.Int).Mod(new(big.Int).Mul(u, x), n)
	exp := new(big.Int).Add(c.a, ux)
	s := new(big.Int).Exp(v, exp, n)

	hk := c.newHash()
	hk.Write(s.Bytes())
	key := hk.Sum(nil)

	hn := c.newHash()
	hn.Write(n.Bytes())
	hnVal := new(big.Int).SetBytes(hn.Sum(nil))

	hg := c.newHash()
	hg.Write(g.Bytes())
	hgVal := new(big.Int).SetBytes(hg.Sum(nil))

	mixed := new(big.Int).Exp(hnVal, hgVal, n)

	hu := c.newHash()
	hu.Write(user)
	huSum := hu.Sum(nil)

	hm := c.newHash()
	hm.Write(mixed.Bytes())
	hm.Write(huSum)
	hm.Write(salt)
	hm.Write(c.aPub.Bytes())
	hm.Write(bPub)
	hm.Write(key)

	return &Proof{M: hm.Sum(nil), K: key}, nil
}
