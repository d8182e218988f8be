package fbclient

import (
	"fmt"
	"time"

	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/blr"
	"github.com/fbwire/fbclient/protocol/xsqlda"
)

// Row holds one fetched row's already-decoded column values, in column
// order. A nil entry in values means SQL NULL.
type Row struct {
	columns []xsqlda.Descriptor
	values  []interface{}
}

// Value returns the i-th column's decoded value: nil, string, int64,
// float64, time.Time, or BlobID.
func (r *Row) Value(i int) interface{} { return r.values[i] }

// Scan copies this row's columns into dest, in order. Supported dest types
// are *interface{}, *string, *int64, *int (converted from int64), *float64,
// *time.Time, *bool and *BlobID, plus **string, **int64, **float64 and
// **time.Time. A NULL column sets a **T or *interface{} dest to nil; NULL
// into any other dest is an error.
func (r *Row) Scan(dest ...interface{}) error {
	if len(dest) != len(r.values) {
		return NewLogicError("wrong scan destination count", map[string]interface{}{
			"want": len(r.values), "got": len(dest),
		})
	}
	for i, v := range r.values {
		if err := scanInto(dest[i], v); err != nil {
			return fmt.Errorf("column %d (%s): %w", i, r.columns[i].AliasName, err)
		}
	}
	return nil
}

func scanInto(dest interface{}, v interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = v
		return nil
	case **string:
		if v == nil {
			*d = nil
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		*d = &s
		return nil
	case *string:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *string")
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		*d = s
		return nil
	case *int64:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *int64")
		}
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", v)
		}
		*d = n
		return nil
	case **int64:
		if v == nil {
			*d = nil
			return nil
		}
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", v)
		}
		*d = &n
		return nil
	case *int:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *int")
		}
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int", v)
		}
		*d = int(n)
		return nil
	case *float64:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *float64")
		}
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *float64", v)
		}
		*d = f
		return nil
	case **float64:
		if v == nil {
			*d = nil
			return nil
		}
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *float64", v)
		}
		*d = &f
		return nil
	case *time.Time:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *time.Time")
		}
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", v)
		}
		*d = t
		return nil
	case **time.Time:
		if v == nil {
			*d = nil
			return nil
		}
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", v)
		}
		*d = &t
		return nil
	case *bool:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *bool")
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot scan %T into *bool", v)
		}
		*d = b
		return nil
	case *BlobID:
		if v == nil {
			return fmt.Errorf("cannot scan NULL into *BlobID")
		}
		b, ok := v.(BlobID)
		if !ok {
			return fmt.Errorf("cannot scan %T into *BlobID", v)
		}
		*d = b
		return nil
	default:
		return fmt.Errorf("unsupported scan destination type %T", dest)
	}
}

// nullBitmapLen returns the byte length of the leading null bitmap for n
// columns, 8 columns per byte and padded to a 4-byte boundary.
func nullBitmapLen(n int) int {
	l := n / 8
	if n%8 != 0 {
		l++
	}
	if rem := l % 4; rem != 0 {
		l += 4 - rem
	}
	return l
}

// decodeRow reads one row's worth of column values off r, following the
// coerced descriptors in cols. Prior to protocol 13 every value trails with
// its own 32-bit null indicator; from 13 on, a single leading bitmap marks
// every NULL column and null columns contribute no value bytes at all.
func decodeRow(r *protocol.Reader, cols []xsqlda.Descriptor, version protocol.ProtocolVersion, cs Charset) ([]interface{}, error) {
	v13 := version.HasNullBitmap()

	var nullMap []byte
	if v13 {
		nullMap = make([]byte, nullBitmapLen(len(cols)))
		b, err := r.Bytes(len(nullMap))
		if err != nil {
			return nil, err
		}
		copy(nullMap, b)
	}

	readNull := func(i int) (bool, error) {
		if v13 {
			return (nullMap[i/8]>>(uint(i)%8))&1 != 0, nil
		}
		v, err := r.Uint32()
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}

	values := make([]interface{}, len(cols))

	for i, col := range cols {
		if v13 {
			null, err := readNull(i)
			if err != nil {
				return nil, err
			}
			if null {
				values[i] = nil
				continue
			}
		}

		sqltype := int(col.SQLType &^ 1)
		switch sqltype {
		case blr.SQLVarying:
			raw, err := r.WireBytes()
			if err != nil {
				return nil, err
			}
			if !v13 {
				null, err := readNull(i)
				if err != nil {
					return nil, err
				}
				if null {
					values[i] = nil
					continue
				}
			}
			decoded, err := cs.Decode(raw)
			if err != nil {
				return nil, err
			}
			values[i] = decoded

		case blr.SQLInt64:
			n, err := r.Int64()
			if err != nil {
				return nil, err
			}
			if !v13 {
				null, err := readNull(i)
				if err != nil {
					return nil, err
				}
				if null {
					values[i] = nil
					continue
				}
			}
			values[i] = n

		case blr.SQLDouble:
			f, err := r.Float64()
			if err != nil {
				return nil, err
			}
			if !v13 {
				null, err := readNull(i)
				if err != nil {
					return nil, err
				}
				if null {
					values[i] = nil
					continue
				}
			}
			values[i] = f

		case blr.SQLTimestamp:
			date, err := r.Int32()
			if err != nil {
				return nil, err
			}
			timeOfDay, err := r.Uint32()
			if err != nil {
				return nil, err
			}
			if !v13 {
				null, err := readNull(i)
				if err != nil {
					return nil, err
				}
				if null {
					values[i] = nil
					continue
				}
			}
			values[i] = DecodeTimestamp(date, timeOfDay)

		case blr.SQLBlob:
			id, err := r.Uint64()
			if err != nil {
				return nil, err
			}
			if !v13 {
				null, err := readNull(i)
				if err != nil {
					return nil, err
				}
				if null {
					values[i] = nil
					continue
				}
			}
			values[i] = BlobID(id)

		default:
			return nil, fmt.Errorf("fbclient: unsupported coerced column type %d", sqltype)
		}
	}

	return values, nil
}
