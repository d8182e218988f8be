package fbclient

import (
	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/blr"
)

// blobPromoter returns a blr.BlobPromoter bound to tr, for passing straight
// into Statement.Execute.
func (c *Connection) blobPromoter(tr TrHandle) blr.BlobPromoter {
	return func(data []byte) (uint64, error) {
		return c.createBlob(tr, data)
	}
}

// blobSegmentLength is the largest chunk of a BLOB PutSegment carries in one
// request, and the buffer size requested from GetSegment; it must fit in
// the 16-bit segment-length field the wire format uses.
const blobSegmentLength = 32000

// blobGetEOF is the GenericResponse status Firebird reports in place of a
// handle once a blob's last segment has been delivered (isc_segstr_eof).
const blobGetEOF = 2

func createBlobRequest(tr TrHandle) []byte {
	w := protocol.NewWriter(16)
	w.Op(protocol.OpCreateBlob)
	w.Uint32(uint32(tr))
	w.Uint64(0)
	return w.Bytes()
}

func openBlobRequest(tr TrHandle, id BlobID) []byte {
	w := protocol.NewWriter(16)
	w.Op(protocol.OpOpenBlob)
	w.Uint32(uint32(tr))
	w.Uint64(uint64(id))
	return w.Bytes()
}

func putSegmentRequest(blobHandle uint32, segment []byte) []byte {
	w := protocol.NewWriter(16 + len(segment))
	w.Op(protocol.OpPutSegment)
	w.Uint32(blobHandle)
	w.Uint32(uint32(len(segment)))
	w.WireBytes(segment)
	return w.Bytes()
}

func getSegmentRequest(blobHandle uint32) []byte {
	w := protocol.NewWriter(16)
	w.Op(protocol.OpGetSegment)
	w.Uint32(blobHandle)
	w.Uint32(blobSegmentLength)
	w.Uint32(0) // data segment, unused
	return w.Bytes()
}

func closeBlobRequest(blobHandle uint32) []byte {
	w := protocol.NewWriter(8)
	w.Op(protocol.OpCloseBlob)
	w.Uint32(blobHandle)
	return w.Bytes()
}

// createBlob allocates a new BLOB on the server under tr, uploads data as
// one or more segments, and closes it, returning the finished BLOB's id.
// This is the BlobPromoter the statement layer hands to blr.EncodeParams
// for any parameter too large to inline, or any binary parameter at all.
func (c *Connection) createBlob(tr TrHandle, data []byte) (uint64, error) {
	if err := c.wc.write(createBlobRequest(tr)); err != nil {
		return 0, err
	}
	resp, err := c.readResponse()
	if err != nil {
		return 0, err
	}
	blobHandle := resp.handle
	id := resp.objectID

	for off := 0; off < len(data); off += blobSegmentLength {
		end := off + blobSegmentLength
		if end > len(data) {
			end = len(data)
		}
		if err := c.wc.write(putSegmentRequest(blobHandle, data[off:end])); err != nil {
			return 0, err
		}
		if _, err := c.readResponse(); err != nil {
			return 0, err
		}
	}
	// An empty BLOB still needs at least the create/close round trip; no
	// segment is sent for zero-length data.

	if err := c.wc.write(closeBlobRequest(blobHandle)); err != nil {
		return 0, err
	}
	if _, err := c.readResponse(); err != nil {
		return 0, err
	}

	return id, nil
}

// fetchBlob reads out a whole BLOB's contents by id: open, GetSegment in a
// loop until the server reports end-of-stream, close.
func (c *Connection) fetchBlob(tr TrHandle, id BlobID) ([]byte, error) {
	if err := c.wc.write(openBlobRequest(tr, id)); err != nil {
		return nil, err
	}
	resp, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	blobHandle := resp.handle

	var out []byte
	for {
		if err := c.wc.write(getSegmentRequest(blobHandle)); err != nil {
			return nil, err
		}
		op, r, err := c.wc.readPacket()
		if err != nil {
			return nil, err
		}
		if op != protocol.OpResponse {
			return nil, &protocol.ErrUnexpectedOp{Want: protocol.OpResponse, Got: op}
		}
		handle, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		objectID, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		data, err := r.WireBytes()
		if err != nil {
			return nil, err
		}
		status, err := protocol.ParseStatusVector(r)
		if err != nil {
			return nil, err
		}
		if status != nil {
			return nil, NewSqlError("get segment", status.SQLCode, status.Message)
		}

		out = append(out, decodeSegments(data)...)

		if handle == blobGetEOF {
			break
		}
		_ = objectID
	}

	if err := c.wc.write(closeBlobRequest(blobHandle)); err != nil {
		return nil, err
	}
	if _, err := c.readResponse(); err != nil {
		return nil, err
	}

	return out, nil
}

// decodeSegments unpacks the 16-bit-length-prefixed run of segments a
// single GetSegment response can carry.
func decodeSegments(buf []byte) []byte {
	r := protocol.NewReader(buf)
	var out []byte
	for r.Remaining() >= 2 {
		n, err := r.Uint16LE()
		if err != nil {
			break
		}
		b, err := r.Bytes(int(n))
		if err != nil {
			break
		}
		out = append(out, b...)
	}
	return out
}
