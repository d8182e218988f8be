package fbclient

// DbHandle identifies an attached database on the server. The zero value
// is never valid; it is assigned by the Attach/Create response.
type DbHandle uint32

// TrHandle identifies an active transaction.
type TrHandle uint32

// StmtHandle identifies an allocated statement.
type StmtHandle uint32

// BlobID is the 64-bit BLOB identifier (a QUAD on the wire: two uint32
// halves) returned by CreateBlob and embedded as a parameter value.
type BlobID uint64

// InvalidStmtHandle is the wire convention for "no statement" (-1 as
// uint32). Prepare sends it as the statement handle of the PrepareStatement
// request it pipelines behind AllocateStatement, before the real handle is
// known.
const InvalidStmtHandle StmtHandle = 0xFFFFFFFF
