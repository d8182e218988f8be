// Package xsqlda parses the column/parameter descriptor info the server
// returns from PrepareStatement and InfoSql, and coerces each descriptor to
// the concrete wire type this engine actually sends and receives.
package xsqlda

import (
	"fmt"

	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/blr"
)

// Descriptor describes one parameter or result column.
type Descriptor struct {
	SQLType     int16
	Scale       int16
	SQLSubtype  int16
	DataLength  int16
	NullInd     bool
	FieldName   string
	RelName     string
	OwnerName   string
	AliasName   string
}

// Coerce normalises the descriptor's reported SQL type into the concrete
// wire representation this engine sends/receives, matching the server's own
// internal coercion rules:
//
//   - TEXT/VARYING always round-trip as VARYING
//   - fixed-point integer types with scale 0 stay INT64; any nonzero scale
//     (NUMERIC/DECIMAL) is coerced to DOUBLE
//   - FLOAT/DOUBLE both become DOUBLE
//   - DATE/TIME/TIMESTAMP all become TIMESTAMP
//   - BLOB subtype 0 (binary) and subtype 1 (text) are both accepted and
//     stay BLOB: rows carry the 64-bit BLOB id, and the payload is read out
//     of band; any other subtype is an error
func (d *Descriptor) Coerce() error {
	sqltype := d.SQLType &^ 1

	switch int(sqltype) {
	case blr.SQLText, blr.SQLVarying:
		d.SQLType = blr.SQLVarying + 1

	case blr.SQLShort, blr.SQLLong, blr.SQLInt64:
		d.DataLength = 8
		if d.Scale == 0 {
			d.SQLType = blr.SQLInt64 + 1
		} else {
			d.Scale = 0
			d.SQLType = blr.SQLDouble + 1
		}

	case blr.SQLFloat, blr.SQLDouble:
		d.DataLength = 8
		d.SQLType = blr.SQLDouble + 1

	case blr.SQLTimestamp, blr.SQLDate, blr.SQLTime:
		d.DataLength = 8
		d.SQLType = blr.SQLTimestamp + 1

	case blr.SQLBlob:
		if d.SQLSubtype != 0 && d.SQLSubtype != 1 {
			return fmt.Errorf("xsqlda: unsupported blob subtype %d", d.SQLSubtype)
		}
		d.SQLType = blr.SQLBlob + 1

	default:
		return fmt.Errorf("xsqlda: unsupported column type (%d)", sqltype)
	}

	return nil
}

// IsBlob reports whether this descriptor's wire type is a BLOB reference
// (Coerce leaves BLOB columns as BLOB, so this holds before and after it).
func (d *Descriptor) IsBlob() bool { return int(d.SQLType&^1) == blr.SQLBlob }

// PrepareInfo is the parsed summary of a PrepareStatement/InfoSql describe
// reply.
type PrepareInfo struct {
	StmtType   uint32
	ParamCount int
	Truncated  bool
}

// ParseXSQLDA parses a full PrepareStatement describe reply: statement
// type, parameter count, then the column descriptors (appended to cols,
// which the caller should pass empty on the first call and unchanged
// across truncated continuations).
func ParseXSQLDA(r *protocol.Reader, cols *[]Descriptor) (*PrepareInfo, error) {
	tag, err := r.Byte()
	if err != nil {
		return nil, err
	}
	if tag != protocol.IscInfoSQLStmtType {
		return nil, errInvalid()
	}
	if err := r.Skip(2); err != nil { // length prefix, assumed 4,0
		return nil, err
	}
	stmtType, err := r.Uint32LE()
	if err != nil {
		return nil, err
	}

	tag, err = r.Byte()
	if err != nil {
		return nil, err
	}
	if tag != protocol.IscInfoSQLBind {
		return nil, errInvalid()
	}
	tag, err = r.Byte()
	if err != nil {
		return nil, err
	}
	if tag != protocol.IscInfoSQLDescribeVars {
		return nil, errInvalid()
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	paramCount, err := r.Uint32LE()
	if err != nil {
		return nil, err
	}

	for r.Remaining() > 0 {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		if b != protocol.IscInfoSQLDescribeEnd {
			r.Unread(1)
			break
		}
	}

	tag, err = r.Byte()
	if err != nil {
		return nil, err
	}
	if tag != protocol.IscInfoSQLSelect {
		return nil, errInvalid()
	}
	tag, err = r.Byte()
	if err != nil {
		return nil, err
	}
	if tag != protocol.IscInfoSQLDescribeVars {
		return nil, errInvalid()
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	if _, err := r.Uint32LE(); err != nil { // column count, reconstructed from cols on return
		return nil, err
	}

	truncated, err := ParseSelectItems(r, cols)
	if err != nil {
		return nil, err
	}

	return &PrepareInfo{StmtType: stmtType, ParamCount: int(paramCount), Truncated: truncated}, nil
}

// ParseSelectItems fills cols with column descriptor fields from the
// describe-item stream, growing cols as new column indices appear. Returns
// true if the server truncated the reply (the caller must re-issue InfoSql
// and continue parsing into the same cols slice).
func ParseSelectItems(r *protocol.Reader, cols *[]Descriptor) (bool, error) {
	if r.Remaining() == 0 {
		return false, nil
	}

	colIndex := 0

	for {
		if r.Remaining() == 0 {
			return false, errInvalid()
		}
		item, err := r.Byte()
		if err != nil {
			return false, err
		}

		switch int(item) {
		case protocol.IscInfoSQLSQLDASeq:
			if err := r.Skip(2); err != nil {
				return false, err
			}
			n, err := r.Uint32LE()
			if err != nil {
				return false, err
			}
			colIndex = int(n) - 1
			for colIndex >= len(*cols) {
				*cols = append(*cols, Descriptor{})
			}

		case protocol.IscInfoSQLType:
			v, err := readInt32LEField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.SQLType = int16(v) }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLSubType:
			v, err := readInt32LEField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.SQLSubtype = int16(v) }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLScale:
			v, err := readInt32LEField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.Scale = int16(v) }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLLength:
			v, err := readInt32LEField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.DataLength = int16(v) }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLNullInd:
			v, err := readInt32LEField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.NullInd = v != 0 }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLField:
			s, err := readPStringField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.FieldName = s }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLRelation:
			s, err := readPStringField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.RelName = s }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLOwner:
			s, err := readPStringField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.OwnerName = s }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLAlias:
			s, err := readPStringField(r)
			if err != nil {
				return false, err
			}
			if err := setField(cols, colIndex, func(d *Descriptor) { d.AliasName = s }); err != nil {
				return false, err
			}

		case protocol.IscInfoSQLDescribeEnd:
			// one per column, ignore

		case protocol.IscInfoTruncated:
			return true, nil

		case protocol.IscInfoEnd:
			return false, nil

		default:
			return false, fmt.Errorf("xsqlda: invalid item in describe reply: %d", item)
		}
	}
}

func readInt32LEField(r *protocol.Reader) (int32, error) {
	if err := r.Skip(2); err != nil { // length prefix, assumed 4,0
		return 0, err
	}
	v, err := r.Uint32LE()
	return int32(v), err
}

func readPStringField(r *protocol.Reader) (string, error) {
	n, err := r.Uint16LE()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func setField(cols *[]Descriptor, idx int, fn func(*Descriptor)) error {
	if idx < 0 || idx >= len(*cols) {
		return errInvalid()
	}
	fn(&(*cols)[idx])
	return nil
}

func errInvalid() error {
	return fmt.Errorf("xsqlda: invalid describe reply received from server")
}
