package fbclient

import (
	"encoding/hex"
	"testing"

	"github.com/fbwire/fbclient/protocol"
)

func TestBuildDPBPlaintextOnlyOnV10(t *testing.T) {
	cs, err := ParseCharset("utf8")
	if err != nil {
		t.Fatalf("ParseCharset() error = %v", err)
	}

	dpb10 := buildDPB("alice", "s3cret", protocol.ProtocolV10, cs, 0)
	if !containsByteRun(dpb10, protocol.IscDpbPassword) {
		t.Fatal("buildDPB(V10) must carry isc_dpb_password")
	}

	dpb13 := buildDPB("alice", "s3cret", protocol.ProtocolV13, cs, 0)
	if containsByteRun(dpb13, protocol.IscDpbPassword) {
		t.Fatal("buildDPB(V13) must not carry a plaintext password; SRP already proved it")
	}
}

func TestBuildDPBPageSize(t *testing.T) {
	cs, _ := ParseCharset("utf8")
	dpb := buildDPB("alice", "x", protocol.ProtocolV13, cs, 8192)
	if !containsByteRun(dpb, protocol.IscDpbPageSize) {
		t.Fatal("buildDPB() with nonzero pageSize must carry isc_dpb_page_size")
	}
}

func containsByteRun(buf []byte, b byte) bool {
	for _, v := range buf {
		if v == b {
			return true
		}
	}
	return false
}

func TestDetachAndDropRequests(t *testing.T) {
	detach := detachRequest(DbHandle(42))
	r := protocol.NewReader(detach)
	op, _ := r.Op()
	if op != protocol.OpDetach {
		t.Fatalf("detachRequest op = %v, want OpDetach", op)
	}
	h, _ := r.Uint32()
	if h != 42 {
		t.Fatalf("detachRequest handle = %d, want 42", h)
	}

	drop := dropDatabaseRequest(DbHandle(7))
	r2 := protocol.NewReader(drop)
	op2, _ := r2.Op()
	if op2 != protocol.OpDropDatabase {
		t.Fatalf("dropDatabaseRequest op = %v, want OpDropDatabase", op2)
	}
}

func TestParseResponseStatusError(t *testing.T) {
	w := protocol.NewWriter(64)
	w.Uint32(99)      // handle
	w.Uint64(0)        // object id
	w.WireBytes(nil)   // data
	w.Uint32(protocol.IscArgGds)
	w.Uint32(335544436) // gds code carrying the SQL code
	w.Uint32(protocol.IscArgNumber)
	w.Int32(-204)
	w.Uint32(protocol.IscArgEnd)

	r := protocol.NewReader(w.Bytes())
	resp, err := parseResponse(r)
	if err == nil {
		t.Fatal("parseResponse() with a non-empty status vector: want error, got nil")
	}
	if resp != nil {
		t.Fatal("parseResponse() on error path must return a nil response")
	}
	sqlErr, ok := err.(*SqlError)
	if !ok {
		t.Fatalf("error type = %T, want *SqlError", err)
	}
	if sqlErr.SQLCode != -204 {
		t.Fatalf("SQLCode = %d, want -204", sqlErr.SQLCode)
	}
}

func TestParseSrpAuthDataOddHexPad(t *testing.T) {
	salt := []byte{1, 2, 3, 4}
	pubHex := "abc" // odd length, must be zero-padded to "0abc"

	w := protocol.NewWriter(32)
	w.Raw([]byte{byte(len(salt)), 0})
	w.Raw(salt)
	w.Raw([]byte{byte(len(pubHex)), 0})
	w.Raw([]byte(pubHex))

	data, err := parseSrpAuthData(w.Bytes())
	if err != nil {
		t.Fatalf("parseSrpAuthData() error = %v", err)
	}
	want, _ := hex.DecodeString("0abc")
	if string(data.pubKey) != string(want) {
		t.Fatalf("pubKey = %x, want %x", data.pubKey, want)
	}
}

func TestParseSrpAuthDataEmpty(t *testing.T) {
	data, err := parseSrpAuthData(nil)
	if err != nil || data != nil {
		t.Fatalf("parseSrpAuthData(nil) = (%v, %v), want (nil, nil)", data, err)
	}
}
