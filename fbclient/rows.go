package fbclient

import "github.com/fbwire/fbclient/protocol/xsqlda"

// Rows iterates a SELECT statement's result set. Call Next until it
// returns false, then check Err; always call Close (idempotent) when done,
// even after Next returns false, to release the statement's cursor.
type Rows struct {
	stmt *Statement
	tr   TrHandle
	drop bool

	cur    *Row
	err    error
	done   bool
	closed bool
}

// Query executes stmt under tr and returns a row iterator. params must
// already match stmt.ParamCount(); use Connection.BuildParams to build them
// from Go values. drop controls whether Close drops the statement handle
// entirely or just closes its cursor, leaving it preparable for re-Execute
// (a cached statement should pass false).
func (c *Connection) Query(tr TrHandle, stmt *Statement, drop bool, args ...interface{}) (*Rows, error) {
	params, err := c.BuildParams(args...)
	if err != nil {
		return nil, err
	}
	if err := stmt.Execute(tr, params, c.blobPromoter(tr)); err != nil {
		return nil, err
	}
	return &Rows{stmt: stmt, tr: tr, drop: drop}, nil
}

// Next advances to the next row, returning false at end of stream or on
// error (check Err to distinguish the two).
func (r *Rows) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	row, err := r.stmt.Fetch()
	if err != nil {
		r.err = err
		return false
	}
	if row == nil {
		r.done = true
		return false
	}
	r.cur = row
	return true
}

// Err returns the first error Next encountered, if any.
func (r *Rows) Err() error { return r.err }

// Columns returns the result set's column descriptors.
func (r *Rows) Columns() []xsqlda.Descriptor { return r.stmt.columns }

// Value returns the current row's i-th column value: nil, string, int64,
// float64, time.Time, or BlobID.
func (r *Rows) Value(i int) interface{} {
	if r.cur == nil {
		return nil
	}
	return r.cur.Value(i)
}

// Scan copies the current row's columns into dest. BLOB columns land as a
// BlobID unless materialized first with Blob.
func (r *Rows) Scan(dest ...interface{}) error {
	if r.cur == nil {
		return NewLogicError("Scan called with no current row", nil)
	}
	return r.cur.Scan(dest...)
}

// Blob fetches a BLOB column's full contents by its BlobID, decoding
// subtype 1 (text) columns through the connection's charset and leaving
// subtype 0 (binary) columns as raw bytes.
func (r *Rows) Blob(col int) (interface{}, error) {
	if r.cur == nil {
		return nil, NewLogicError("Blob called with no current row", nil)
	}
	v := r.cur.Value(col)
	if v == nil {
		return nil, nil
	}
	id, ok := v.(BlobID)
	if !ok {
		return nil, NewLogicError("column is not a BLOB", map[string]interface{}{"column": col})
	}

	raw, err := r.stmt.conn.fetchBlob(r.tr, id)
	if err != nil {
		return nil, err
	}
	if r.stmt.columns[col].SQLSubtype == 1 {
		return r.stmt.conn.charset.Decode(raw)
	}
	return raw, nil
}

// Close releases the statement's cursor (and, if drop was requested at
// Query time, the statement handle itself). Safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.stmt.Close(r.drop)
}
