package fbclient

import (
	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/blr"
	"github.com/fbwire/fbclient/protocol/xsqlda"
)

// StmtType is the statement kind the server reports back from Prepare,
// matching the isc_info_sql_stmt_* family of constants.
type StmtType uint32

const (
	StmtSelect          StmtType = 1
	StmtInsert          StmtType = 2
	StmtUpdate          StmtType = 3
	StmtDelete          StmtType = 4
	StmtDDL             StmtType = 5
	StmtGetSegment      StmtType = 6
	StmtPutSegment      StmtType = 7
	StmtExecProcedure   StmtType = 8
	StmtStartTrans      StmtType = 9
	StmtCommit          StmtType = 10
	StmtRollback        StmtType = 11
	StmtSelectForUpdate StmtType = 12
	StmtSetGenerator    StmtType = 13
	StmtSavepoint       StmtType = 14
)

// Statement is a prepared statement allocated on a Connection. It carries
// the output column descriptors and the output-message BLR the server
// agreed to deliver rows in.
type Statement struct {
	conn       *Connection
	handle     StmtHandle
	stmtType   StmtType
	paramCount int
	columns    []xsqlda.Descriptor
	outputBLR  []byte
	closed     bool
}

// StmtType returns the statement's kind (SELECT, INSERT, ...).
func (s *Statement) StmtType() StmtType { return s.stmtType }

// ParamCount returns how many input parameters Execute expects.
func (s *Statement) ParamCount() int { return s.paramCount }

// Columns returns the coerced output column descriptors, in order.
func (s *Statement) Columns() []xsqlda.Descriptor { return s.columns }

func allocateStatementRequest(db DbHandle) []byte {
	w := protocol.NewWriter(8)
	w.Op(protocol.OpAllocateStatement)
	w.Uint32(uint32(db))
	return w.Bytes()
}

func prepareStatementRequest(tr TrHandle, stmt StmtHandle, dialect uint32, sql []byte) []byte {
	w := protocol.NewWriter(32 + len(sql) + len(protocol.DescribeItems))
	w.Op(protocol.OpPrepareStatement)
	w.Uint32(uint32(tr))
	w.Uint32(uint32(stmt))
	w.Uint32(dialect)
	w.WireBytes(sql)
	w.WireBytes(protocol.DescribeItems)
	w.Uint32(protocol.PrepareBufferLength)
	return w.Bytes()
}

func infoSQLRequest(stmt StmtHandle, items []byte) []byte {
	w := protocol.NewWriter(24 + len(items))
	w.Op(protocol.OpInfoSql)
	w.Uint32(uint32(stmt))
	w.Uint32(0) // incarnation
	w.WireBytes(items)
	w.Uint32(protocol.PrepareBufferLength)
	return w.Bytes()
}

func freeStatementRequest(stmt StmtHandle, op uint32) []byte {
	w := protocol.NewWriter(12)
	w.Op(protocol.OpFreeStatement)
	w.Uint32(uint32(stmt))
	w.Uint32(op)
	return w.Bytes()
}

func executeRequest(tr TrHandle, stmt StmtHandle, inputBLR, inputData []byte) []byte {
	w := protocol.NewWriter(36 + len(inputBLR) + len(inputData))
	w.Op(protocol.OpExecute)
	w.Uint32(uint32(stmt))
	w.Uint32(uint32(tr))
	w.WireBytes(inputBLR)
	w.Uint32(0)
	if len(inputBLR) == 0 {
		w.Uint32(0)
	} else {
		w.Uint32(1)
	}
	w.Raw(inputData)
	return w.Bytes()
}

func fetchRequest(stmt StmtHandle, outputBLR []byte) []byte {
	w := protocol.NewWriter(20 + len(outputBLR))
	w.Op(protocol.OpFetch)
	w.Uint32(uint32(stmt))
	w.WireBytes(outputBLR)
	w.Uint32(0) // message number
	w.Uint32(1) // message count
	return w.Bytes()
}

// Prepare allocates and prepares a statement. Both requests are written
// back-to-back before either response is read (the server answers each
// independently, sometimes coalesced into a single TCP segment), then the
// describe-truncation loop re-issues InfoSql until the full output column
// list is in, and each column is coerced to its wire representation.
func (c *Connection) Prepare(tr TrHandle, db DbHandle, dialect uint32, sql string) (*Statement, error) {
	encoded, err := c.charset.Encode(sql)
	if err != nil {
		return nil, err
	}

	if err := c.wc.write(allocateStatementRequest(db)); err != nil {
		return nil, err
	}
	if err := c.wc.write(prepareStatementRequest(tr, InvalidStmtHandle, dialect, encoded)); err != nil {
		return nil, err
	}

	op, r, err := c.wc.readPacket()
	if err != nil {
		return nil, err
	}
	if op != protocol.OpResponse {
		return nil, &protocol.ErrUnexpectedOp{Want: protocol.OpResponse, Got: op}
	}
	allocResp, err := parseResponse(r)
	if err != nil {
		return nil, err
	}
	handle := StmtHandle(allocResp.handle)

	var prepData []byte
	if r.Remaining() > 0 {
		op2, err := r.Op()
		if err != nil {
			return nil, err
		}
		if op2 != protocol.OpResponse {
			return nil, &protocol.ErrUnexpectedOp{Want: protocol.OpResponse, Got: op2}
		}
		prepResp, err := parseResponse(r)
		if err != nil {
			return nil, err
		}
		prepData = prepResp.data
	} else {
		prepResp, err := c.readResponse()
		if err != nil {
			return nil, err
		}
		prepData = prepResp.data
	}

	var cols []xsqlda.Descriptor
	info, err := xsqlda.ParseXSQLDA(protocol.NewReader(prepData), &cols)
	if err != nil {
		return nil, err
	}

	for info.Truncated {
		if err := c.wc.write(infoSQLRequest(handle, protocol.DescribeItems)); err != nil {
			return nil, err
		}
		resp, err := c.readResponse()
		if err != nil {
			return nil, err
		}
		truncated, err := xsqlda.ParseSelectItems(protocol.NewReader(resp.data), &cols)
		if err != nil {
			return nil, err
		}
		info.Truncated = truncated
	}

	for i := range cols {
		if err := cols[i].Coerce(); err != nil {
			return nil, err
		}
	}

	types := make([]int16, len(cols))
	lengths := make([]int16, len(cols))
	for i, col := range cols {
		types[i] = col.SQLType
		lengths[i] = col.DataLength
	}

	return &Statement{
		conn:       c,
		handle:     handle,
		stmtType:   StmtType(info.StmtType),
		paramCount: info.ParamCount,
		columns:    cols,
		outputBLR:  blr.ColumnBLR(types, lengths),
	}, nil
}

// Execute binds params and runs this prepared statement. For SELECT
// statements, follow with Fetch to pull rows.
func (s *Statement) Execute(tr TrHandle, params []blr.Param, promote blr.BlobPromoter) error {
	if s.closed {
		return NewLogicError("statement is closed", nil)
	}
	if len(params) != s.paramCount {
		return NewLogicError("wrong parameter count", map[string]interface{}{
			"want": s.paramCount, "got": len(params),
		})
	}

	var inputBLR, inputData []byte
	if len(params) > 0 {
		enc, err := blr.EncodeParams(params, s.conn.version.HasNullBitmap(), promote)
		if err != nil {
			return err
		}
		inputBLR, inputData = enc.BLR, enc.Values
	}

	if err := s.conn.wc.write(executeRequest(tr, s.handle, inputBLR, inputData)); err != nil {
		return err
	}
	_, err := s.conn.readResponse()
	return err
}

// endOfStream is the FetchResponse status value signaling no more rows.
const endOfStream = 100

// Fetch pulls the next row, decoding it against this statement's coerced
// column descriptors. It returns a nil Row with no error at end of stream.
func (s *Statement) Fetch() (*Row, error) {
	if s.closed {
		return nil, NewLogicError("statement is closed", nil)
	}
	if err := s.conn.wc.write(fetchRequest(s.handle, s.outputBLR)); err != nil {
		return nil, err
	}

	op, r, err := s.conn.wc.readPacket()
	if err != nil {
		return nil, err
	}
	if op == protocol.OpResponse {
		if _, err := parseResponse(r); err != nil {
			return nil, err
		}
		return nil, NewProtocolError("server returned Response instead of FetchResponse", nil)
	}
	if op != protocol.OpFetchResponse {
		return nil, &protocol.ErrUnexpectedOp{Want: protocol.OpFetchResponse, Got: op}
	}

	status, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if status == endOfStream {
		return nil, nil
	}

	values, err := decodeRow(r, s.columns, s.conn.version, s.conn.charset)
	if err != nil {
		return nil, err
	}
	return &Row{columns: s.columns, values: values}, nil
}

// Close releases this statement. drop discards the server-side handle
// entirely (DSQL_drop); otherwise the handle is retained for re-execution
// (DSQL_close) and the statement cache may keep reusing it.
func (s *Statement) Close(drop bool) error {
	if s.closed {
		return nil
	}
	op := protocol.DsqlClose
	if drop {
		op = protocol.DsqlDrop
	}
	if err := s.conn.wc.write(freeStatementRequest(s.handle, op)); err != nil {
		return err
	}
	if _, err := s.conn.readResponse(); err != nil {
		return err
	}
	if drop {
		s.closed = true
	}
	return nil
}
