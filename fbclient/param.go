package fbclient

import (
	"fmt"
	"time"

	"github.com/fbwire/fbclient/protocol/blr"
)

// BuildParams converts Go values into the BLR parameter shape Execute
// expects. Supported types: nil (SQL NULL), string, []byte (always
// promoted to a binary BLOB, per the reference client's handling),
// int/int32/int64, float32/float64, bool, time.Time. The pointer types
// *string, *int64, *float64 and *time.Time are also accepted, with a nil
// pointer encoding as NULL; other pointer types are rejected as unsupported.
func (c *Connection) BuildParams(args ...interface{}) ([]blr.Param, error) {
	params := make([]blr.Param, len(args))
	for i, a := range args {
		p, err := c.buildParam(a)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params[i] = p
	}
	return params, nil
}

func (c *Connection) buildParam(a interface{}) (blr.Param, error) {
	switch v := a.(type) {
	case nil:
		return blr.Param{Kind: blr.KindNull}, nil

	case string:
		encoded, err := c.charset.Encode(v)
		if err != nil {
			return blr.Param{}, err
		}
		return blr.Param{Kind: blr.KindText, Text: encoded}, nil
	case *string:
		if v == nil {
			return blr.Param{Kind: blr.KindNull}, nil
		}
		return c.buildParam(*v)

	case []byte:
		if v == nil {
			return blr.Param{Kind: blr.KindNull}, nil
		}
		return blr.Param{Kind: blr.KindBinary, Binary: v}, nil

	case int:
		return blr.Param{Kind: blr.KindInt64, Int64: int64(v)}, nil
	case int32:
		return blr.Param{Kind: blr.KindInt64, Int64: int64(v)}, nil
	case int64:
		return blr.Param{Kind: blr.KindInt64, Int64: v}, nil
	case *int64:
		if v == nil {
			return blr.Param{Kind: blr.KindNull}, nil
		}
		return blr.Param{Kind: blr.KindInt64, Int64: *v}, nil

	case float32:
		return blr.Param{Kind: blr.KindDouble, Double: float64(v)}, nil
	case float64:
		return blr.Param{Kind: blr.KindDouble, Double: v}, nil
	case *float64:
		if v == nil {
			return blr.Param{Kind: blr.KindNull}, nil
		}
		return blr.Param{Kind: blr.KindDouble, Double: *v}, nil

	case bool:
		return blr.Param{Kind: blr.KindBool, Bool: v}, nil

	case time.Time:
		date, timeOfDay := EncodeTimestamp(v)
		return blr.Param{Kind: blr.KindTimestampDate, TimestampDate: date, TimestampTime: timeOfDay}, nil
	case *time.Time:
		if v == nil {
			return blr.Param{Kind: blr.KindNull}, nil
		}
		return c.buildParam(*v)

	default:
		return blr.Param{}, fmt.Errorf("fbclient: unsupported parameter type %T", a)
	}
}
