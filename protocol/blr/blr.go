// Package blr builds and reads BLR (Binary Language Representation)
// descriptors: the bytecode that tells the server (for parameters) or the
// client (for result columns) the shape of one message — a flat list of
// typed slots, each followed by a two-byte null-indicator descriptor.
package blr

import "github.com/fbwire/fbclient/protocol"

// Opcode values for the handful of BLR verbs this engine emits or parses.
// As with the wire opcodes in package protocol, the literal numbering
// wasn't present in this project's reference material; these follow this
// module's own consistent assignment.
const (
	Version5 = 5
	Begin    = 2
	Message  = 4
	End      = 255
	EOC      = 76

	Short     = 7
	Long      = 8
	Quad      = 9
	Int64     = 16
	Text      = 14
	Varying   = 37
	Double    = 27
	Timestamp = 35
	Bool      = 23
)

// MaxDataLength is the largest parameter or column value sent inline;
// anything larger is promoted to a BLOB.
const MaxDataLength = 32767

// Kind selects which of Param's typed fields carries the value to encode.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindBinary
	KindInt64
	KindDouble
	KindTimestampDate
	KindBool
)

// Param is one outgoing parameter value, already shaped for BLR encoding.
// TimestampDate/TimestampTime hold the Firebird-epoch day number and
// ten-thousandths-of-a-second-of-day pair produced by fbclient's
// EncodeTimestamp.
type Param struct {
	Kind          Kind
	Text          []byte
	Binary        []byte
	Int64         int64
	Double        float64
	TimestampDate int32
	TimestampTime uint32
	Bool          bool
}

func (p Param) isNull() bool { return p.Kind == KindNull }

// BlobPromoter uploads data as a BLOB (CreateBlob/PutSegment/CloseBlob) and
// returns its 64-bit id, for parameters too large to inline or explicitly
// binary.
type BlobPromoter func(data []byte) (uint64, error)

// Encoded holds the two halves of an encoded parameter message: the BLR
// descriptor bytecode and the packed value buffer.
type Encoded struct {
	BLR    []byte
	Values []byte
}

// EncodeParams builds the BLR descriptor and packed value buffer for one
// set of statement parameters. v13NullBitmap selects the null-indicator
// encoding: true packs a leading bitmap (protocol 13+), false trails every
// value with a 32-bit indicator (protocol 10-12).
func EncodeParams(params []Param, v13NullBitmap bool, promote BlobPromoter) (*Encoded, error) {
	bw := protocol.NewWriter(64)
	bw.Byte(Version5).Byte(Begin).Byte(Message).Byte(0)
	bw.Raw(le16(uint16(len(params)) * 2))

	vw := protocol.NewWriter(256)

	if v13NullBitmap {
		vw.Raw(nullBitmap(params))
	}

	for _, p := range params {
		switch p.Kind {
		case KindText:
			if len(p.Text) > MaxDataLength {
				id, err := promote(p.Text)
				if err != nil {
					return nil, err
				}
				bw.Byte(Quad).Byte(0)
				vw.Uint64(id)
			} else {
				bw.Byte(Text)
				bw.Raw(le16(uint16(len(p.Text))))
				vw.Raw(p.Text)
				vw.Raw(make([]byte, padTo4(len(p.Text))))
			}

		case KindBinary:
			id, err := promote(p.Binary)
			if err != nil {
				return nil, err
			}
			bw.Byte(Quad).Byte(0)
			vw.Uint64(id)

		case KindInt64:
			bw.Byte(Int64).Byte(0)
			vw.Int64(p.Int64)

		case KindDouble:
			bw.Byte(Double)
			vw.Float64(p.Double)

		case KindTimestampDate:
			bw.Byte(Timestamp)
			vw.Int32(p.TimestampDate)
			vw.Uint32(p.TimestampTime)

		case KindBool:
			bw.Byte(Bool)
			if p.Bool {
				vw.Byte(1).Raw([]byte{0, 0, 0})
			} else {
				vw.Raw([]byte{0, 0, 0, 0})
			}

		case KindNull:
			bw.Byte(Text)
			bw.Raw(le16(0))
		}

		if !v13NullBitmap {
			if p.isNull() {
				vw.Raw(le32signed(-1))
			} else {
				vw.Raw(le32signed(0))
			}
		}

		bw.Byte(Short).Byte(0)
	}

	bw.Byte(End).Byte(EOC)

	return &Encoded{BLR: bw.Bytes(), Values: vw.Bytes()}, nil
}

// nullBitmap packs one bit per parameter, LSB-first within each 32-bit
// little-endian word, 32 parameters per word.
func nullBitmap(params []Param) []byte {
	out := make([]byte, 0, ((len(params)+31)/32)*4)
	for i := 0; i < len(params); i += 32 {
		end := i + 32
		if end > len(params) {
			end = len(params)
		}
		var word uint32
		for k, p := range params[i:end] {
			if p.isNull() {
				word |= 1 << uint(k)
			}
		}
		out = append(out, le32(word)...)
	}
	return out
}

// padTo4 returns how many zero bytes pad n up to a multiple of 4.
func padTo4(n int) int {
	if rem := n % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le32signed(v int32) []byte { return le32(uint32(v)) }

// ColumnBLR builds the output-message BLR descriptor the client sends back
// to the server (xsqlda_to_blr) describing how it wants result columns
// delivered, from a coerced descriptor vector's SQL types.
func ColumnBLR(types []int16, dataLengths []int16) []byte {
	w := protocol.NewWriter(64)
	w.Byte(Version5).Byte(Begin).Byte(Message).Byte(0)
	w.Raw(le16(uint16(len(types)) * 2))

	for i, t := range types {
		switch t &^ 1 {
		case SQLVarying:
			w.Byte(Varying)
			w.Raw(le16(uint16(dataLengths[i])))
		case SQLInt64:
			w.Byte(Int64).Byte(0)
		case SQLDouble:
			w.Byte(Double)
		case SQLTimestamp:
			w.Byte(Timestamp)
		case SQLBlob:
			w.Byte(Quad).Byte(0)
		}
		w.Byte(Short).Byte(0)
	}

	w.Byte(End).Byte(EOC)
	return w.Bytes()
}

// SQL type codes referenced by ColumnBLR and package xsqlda, matching the
// ones described in the server's column-describe reply.
const (
	SQLText      = 452
	SQLVarying   = 448
	SQLShort     = 500
	SQLLong      = 496
	SQLInt64     = 580
	SQLFloat     = 482
	SQLDouble    = 480
	SQLDFloat    = 530
	SQLTimestamp = 510
	SQLBlob      = 520
	SQLArray     = 540
	SQLQuad      = 550
	SQLTime      = 560
	SQLDate      = 570
	SQLBool      = 32764
)
