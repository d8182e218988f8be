package fbclient

import (
	"sync"
	"time"

	"github.com/fbwire/fbclient/protocol"
)

// IsolationLevel selects the transaction parameter buffer's isolation byte.
type IsolationLevel int

const (
	// Concurrency: the transaction sees a consistent snapshot as of its
	// start, unaffected by concurrent commits (isc_tpb_concurrency).
	Concurrency IsolationLevel = iota
	// Consistency: table-level locking (isc_tpb_consistency).
	Consistency
	// ReadCommitted: the transaction sees rows committed after it started
	// (isc_tpb_read_committed). The default, matching the reference
	// client's default isolation.
	ReadCommitted
)

func (l IsolationLevel) tpbByte() byte {
	switch l {
	case Concurrency:
		return protocol.IscTpbConcurrency
	case Consistency:
		return protocol.IscTpbConsistency
	default:
		return protocol.IscTpbReadCommitted
	}
}

// RecordVersion selects how a read-committed transaction treats rows with a
// pending update from another transaction. Only meaningful under
// ReadCommitted; ignored for Concurrency and Consistency.
type RecordVersion int

const (
	// NoRecordVersion reads the latest committed version of a row,
	// regardless of any other pending version (isc_tpb_no_rec_version).
	// The default, matching the reference client.
	NoRecordVersion RecordVersion = iota
	// RecordVersionLock blocks writes to a row with a pending update from
	// another transaction (isc_tpb_rec_version).
	RecordVersionLock
)

func (v RecordVersion) tpbByte() byte {
	if v == RecordVersionLock {
		return protocol.IscTpbRecVersion
	}
	return protocol.IscTpbNoRecVersion
}

// DataAccessMode restricts a transaction to SELECT-only, or allows both
// reads and writes.
type DataAccessMode int

const (
	// ReadWrite allows both read and write operations (isc_tpb_write).
	// The default.
	ReadWrite DataAccessMode = iota
	// ReadOnly permits only SELECT (isc_tpb_read).
	ReadOnly
)

func (m DataAccessMode) tpbByte() byte {
	if m == ReadOnly {
		return protocol.IscTpbReadOnly
	}
	return protocol.IscTpbReadWrite
}

// LockResolution selects how a transaction reacts to a write conflict with
// another transaction.
type LockResolution int

const (
	// Wait blocks until the conflicting transaction finishes, optionally
	// bounded by WaitSeconds (isc_tpb_wait). The default.
	Wait LockResolution = iota
	// NoWait fails immediately on a conflict (isc_tpb_nowait).
	NoWait
)

func (r LockResolution) tpbByte() byte {
	if r == NoWait {
		return protocol.IscTpbNoWait
	}
	return protocol.IscTpbWait
}

// TransactionConfig is the full transaction parameter buffer configuration:
// the product of isolation, data-access mode and lock-resolution mode, plus
// the record-version policy for ReadCommitted and an optional wait timeout
// for Wait. Mirrors rsfbclient-core's TransactionConfiguration.
type TransactionConfig struct {
	Isolation      IsolationLevel
	DataAccess     DataAccessMode
	LockResolution LockResolution
	RecordVersion  RecordVersion
	// WaitSeconds bounds a Wait lock resolution; zero means wait
	// indefinitely. Ignored under NoWait.
	WaitSeconds uint32
}

// DefaultTransactionConfig matches the reference client's defaults:
// read-committed, read-write, wait indefinitely, no record-version lock.
func DefaultTransactionConfig() TransactionConfig {
	return TransactionConfig{
		Isolation:      ReadCommitted,
		DataAccess:     ReadWrite,
		LockResolution: Wait,
		RecordVersion:  NoRecordVersion,
	}
}

// Config returns the default transaction configuration at this isolation
// level, for callers that only care about isolation and want the reference
// client's defaults for everything else.
func (l IsolationLevel) Config() TransactionConfig {
	cfg := DefaultTransactionConfig()
	cfg.Isolation = l
	return cfg
}

// buildTPB assembles the transaction parameter buffer sent with a
// Transaction (begin) request: version byte, isolation byte (plus a
// record-version byte under ReadCommitted), access byte, lock-resolution
// byte (plus a 32-bit wait-seconds item under Wait with a nonzero timeout).
func buildTPB(cfg TransactionConfig) []byte {
	w := protocol.NewWriter(16)
	w.Byte(protocol.IscTpbVersion3).Byte(cfg.Isolation.tpbByte())
	if cfg.Isolation == ReadCommitted {
		w.Byte(cfg.RecordVersion.tpbByte())
	}
	w.Byte(cfg.DataAccess.tpbByte())
	w.Byte(cfg.LockResolution.tpbByte())
	if cfg.LockResolution == Wait && cfg.WaitSeconds > 0 {
		s := cfg.WaitSeconds
		w.Byte(protocol.IscTpbLockTimeout).Byte(4).Raw([]byte{byte(s), byte(s >> 8), byte(s >> 16), byte(s >> 24)})
	}
	return w.Bytes()
}

func transactionRequest(db DbHandle, tpb []byte) []byte {
	w := protocol.NewWriter(12 + len(tpb))
	w.Op(protocol.OpTransaction)
	w.Uint32(uint32(db))
	w.WireBytes(tpb)
	return w.Bytes()
}

// trOp is one of the four commit/rollback wire operations.
type trOp int

const (
	trCommit trOp = iota
	trCommitRetaining
	trRollback
	trRollbackRetaining
)

func (op trOp) wireOp() protocol.Op {
	switch op {
	case trCommitRetaining:
		return protocol.OpCommitRetaining
	case trRollback:
		return protocol.OpRollback
	case trRollbackRetaining:
		return protocol.OpRollbackRetaining
	default:
		return protocol.OpCommit
	}
}

func transactionOperationRequest(tr TrHandle, op trOp) []byte {
	w := protocol.NewWriter(8)
	w.Op(op.wireOp())
	w.Uint32(uint32(tr))
	return w.Bytes()
}

// Begin starts a new transaction on db under the given configuration.
func (c *Connection) Begin(db DbHandle, cfg TransactionConfig) (TrHandle, error) {
	if err := c.wc.write(transactionRequest(db, buildTPB(cfg))); err != nil {
		return 0, err
	}
	resp, err := c.readResponse()
	if err != nil {
		return 0, err
	}
	return TrHandle(resp.handle), nil
}

func (c *Connection) transactionOperation(tr TrHandle, op trOp) error {
	if err := c.wc.write(transactionOperationRequest(tr, op)); err != nil {
		return err
	}
	_, err := c.readResponse()
	return err
}

// Transaction tracks one server-side transaction's lifecycle on top of a
// Connection. It is not safe for concurrent use by multiple goroutines.
type Transaction struct {
	conn       *Connection
	handle     TrHandle
	committed  bool
	rolledBack bool
	startedAt  time.Time
	mu         sync.Mutex
}

// BeginTransaction starts and wraps a new transaction.
func (c *Connection) BeginTransaction(db DbHandle, cfg TransactionConfig) (*Transaction, error) {
	h, err := c.Begin(db, cfg)
	if err != nil {
		return nil, err
	}
	return &Transaction{conn: c, handle: h, startedAt: time.Now()}, nil
}

// Handle returns the wire transaction handle, for statement execution.
func (tx *Transaction) Handle() TrHandle { return tx.handle }

// Commit commits the transaction.
func (tx *Transaction) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return NewLogicError("transaction already committed", nil)
	}
	if tx.rolledBack {
		return NewLogicError("transaction already rolled back", nil)
	}

	if err := tx.conn.transactionOperation(tx.handle, trCommit); err != nil {
		return err
	}
	tx.committed = true
	return nil
}

// CommitRetaining commits the transaction's work but keeps the handle
// usable for further statements, avoiding the cost of starting a new one.
func (tx *Transaction) CommitRetaining() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return NewLogicError("transaction is no longer active", nil)
	}
	return tx.conn.transactionOperation(tx.handle, trCommitRetaining)
}

// Rollback rolls back the transaction.
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return NewLogicError("transaction already committed", nil)
	}
	if tx.rolledBack {
		return nil
	}

	if err := tx.conn.transactionOperation(tx.handle, trRollback); err != nil {
		return err
	}
	tx.rolledBack = true
	return nil
}

// RollbackRetaining rolls back the transaction's work but keeps the handle
// usable for further statements.
func (tx *Transaction) RollbackRetaining() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return NewLogicError("transaction is no longer active", nil)
	}
	return tx.conn.transactionOperation(tx.handle, trRollbackRetaining)
}

// ExecImmediate runs sql directly, with no prepared-statement lifecycle and
// no result set. dialect is the SQL dialect (1 or 3) the server should parse
// the statement under.
func (c *Connection) ExecImmediate(tr TrHandle, dialect uint32, sql string) error {
	encoded, err := c.charset.Encode(sql)
	if err != nil {
		return err
	}
	w := protocol.NewWriter(32 + len(encoded))
	w.Op(protocol.OpExecImmediate)
	w.Uint32(uint32(tr))
	w.Uint32(0) // statement handle, unused for exec immediate
	w.Uint32(dialect)
	w.WireBytes(encoded)
	w.Uint32(0) // parameters: not supported for exec immediate
	w.Uint32(wireBufferLength)

	if err := c.wc.write(w.Bytes()); err != nil {
		return err
	}
	_, err = c.readResponse()
	return err
}
