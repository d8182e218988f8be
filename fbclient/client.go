package fbclient

import (
	"fmt"
	"runtime/debug"
)

// DefaultDialect is the SQL dialect this engine prepares statements under
// when the caller doesn't care (dialect 3, the modern default; dialect 1
// keeps pre-Firebird-2 NUMERIC/DECIMAL and date-arithmetic semantics).
const DefaultDialect = 3

// DefaultStatementCacheSize bounds how many prepared statements Client
// keeps warm per connection.
const DefaultStatementCacheSize = 64

// Client wraps an attached Connection with a statement cache and a
// convenience transaction helper. It is the entry point most callers
// should use instead of driving Connection directly.
type Client struct {
	conn    *Connection
	db      DbHandle
	dialect uint32
	cache   *StatementCache
	logger  Logger
}

// Open connects, authenticates, and attaches to dbName in one call.
func Open(dbName, dbUser, pass string, opts ConnectOptions) (*Client, error) {
	opts.fillDefaults()

	conn, err := Connect(dbName, dbUser, pass, opts)
	if err != nil {
		return nil, err
	}
	db, err := conn.Attach(dbName, dbUser, pass)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{
		conn:    conn,
		db:      db,
		dialect: DefaultDialect,
		cache:   NewStatementCache(DefaultStatementCacheSize),
		logger:  opts.Logger,
	}, nil
}

// Close drops the statement cache and detaches/closes the connection.
func (c *Client) Close() error {
	cacheErr := c.cache.Clear()
	if err := c.conn.Detach(c.db); err != nil {
		c.conn.Close()
		return err
	}
	if err := c.conn.Close(); err != nil {
		return err
	}
	return cacheErr
}

// Begin starts a new transaction at the client's connection under cfg.
func (c *Client) Begin(cfg TransactionConfig) (*Transaction, error) {
	return c.conn.BeginTransaction(c.db, cfg)
}

// Prepare returns a cached statement for sql, preparing it on a cache miss.
func (c *Client) Prepare(tr *Transaction, sql string) (*Statement, error) {
	return c.cache.Get(c.conn, tr.Handle(), c.db, c.dialect, sql)
}

// Query prepares (or reuses) sql and executes it with args, returning a row
// iterator. The statement is never dropped on Rows.Close — it stays in the
// cache for reuse.
func (c *Client) Query(tr *Transaction, sql string, args ...interface{}) (*Rows, error) {
	stmt, err := c.Prepare(tr, sql)
	if err != nil {
		return nil, err
	}
	return c.conn.Query(tr.Handle(), stmt, false, args...)
}

// Exec prepares (or reuses) sql, executes it with args, and discards any
// result set — for INSERT/UPDATE/DELETE/DDL.
func (c *Client) Exec(tr *Transaction, sql string, args ...interface{}) error {
	stmt, err := c.Prepare(tr, sql)
	if err != nil {
		return err
	}
	params, err := c.conn.BuildParams(args...)
	if err != nil {
		return err
	}
	return stmt.Execute(tr.Handle(), params, c.conn.blobPromoter(tr.Handle()))
}

// InTransaction runs fn inside a new transaction under the given
// configuration, committing on success and rolling back on error or panic
// (the panic is re-thrown after rollback so the caller's stack trace
// survives).
func (c *Client) InTransaction(cfg TransactionConfig, fn func(*Transaction) error) (err error) {
	tx, err := c.Begin(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			rollbackErr := tx.Rollback()
			c.logger.Warn("transaction rolled back due to panic",
				Error("panic", fmt.Errorf("%v", r)),
				Error("rollback_error", rollbackErr),
				String("stack", string(debug.Stack())))
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			c.logger.Error("failed to rollback transaction after error",
				Error("original_error", err),
				Error("rollback_error", rollbackErr))
		}
		return err
	}

	return tx.Commit()
}
