// Package protocol implements the framed binary codec shared by every
// higher-level operation: request/response opcodes, big-endian primitive
// reads and writes, wire-bytes alignment, and status-vector decoding.
package protocol

// Op identifies a request or response opcode on the wire. Every request and
// response begins with one of these, encoded as a big-endian uint32.
//
// The numeric values below follow the stable numbering used across the
// open-source Firebird/InterBase driver family; the literal constants file
// was not present in this project's reference material, so these are this
// module's own consistent assignment rather than a byte-for-byte citation.
type Op uint32

const (
	OpConnect      Op = 1
	OpExit         Op = 2
	OpAccept       Op = 3
	OpReject       Op = 4
	OpProtocol     Op = 5
	OpDisconnect   Op = 6
	OpCredit       Op = 7
	OpContinuation Op = 8
	OpResponse     Op = 9

	OpAttach Op = 17
	OpCreate Op = 18
	OpDetach Op = 19

	OpTransaction   Op = 29
	OpCommit        Op = 30
	OpRollback      Op = 31
	OpDropDatabase  Op = 32
	OpExecImmediate Op = 33
	OpFetch         Op = 34
	OpFetchResponse Op = 35
	OpReleaseObject Op = 36

	OpOpenBlob   Op = 40
	OpGetSegment Op = 41
	OpPutSegment Op = 42
	OpCreateBlob Op = 43
	OpCloseBlob  Op = 44

	OpCommitRetaining Op = 50

	OpAllocateStatement Op = 62
	OpExecute           Op = 63
	OpExecute2          Op = 64
	OpFreeStatement     Op = 65
	OpPrepareStatement  Op = 66
	OpInfoSql           Op = 67

	OpRollbackRetaining Op = 86
	OpContAuth          Op = 87
	OpCrypt             Op = 88
	OpAcceptData        Op = 91
	OpCondAccept        Op = 92

	// OpDummy is interleaved by the server as a keepalive filler; readers
	// must skip any run of it before the real opcode.
	OpDummy Op = 99
)

func (o Op) String() string {
	switch o {
	case OpConnect:
		return "Connect"
	case OpExit:
		return "Exit"
	case OpAccept:
		return "Accept"
	case OpReject:
		return "Reject"
	case OpProtocol:
		return "Protocol"
	case OpDisconnect:
		return "Disconnect"
	case OpCredit:
		return "Credit"
	case OpContinuation:
		return "Continuation"
	case OpResponse:
		return "Response"
	case OpAttach:
		return "Attach"
	case OpCreate:
		return "Create"
	case OpDetach:
		return "Detach"
	case OpTransaction:
		return "Transaction"
	case OpCommit:
		return "Commit"
	case OpRollback:
		return "Rollback"
	case OpDropDatabase:
		return "DropDatabase"
	case OpExecImmediate:
		return "ExecImmediate"
	case OpFetch:
		return "Fetch"
	case OpFetchResponse:
		return "FetchResponse"
	case OpReleaseObject:
		return "ReleaseObject"
	case OpOpenBlob:
		return "OpenBlob"
	case OpGetSegment:
		return "GetSegment"
	case OpPutSegment:
		return "PutSegment"
	case OpCreateBlob:
		return "CreateBlob"
	case OpCloseBlob:
		return "CloseBlob"
	case OpCommitRetaining:
		return "CommitRetaining"
	case OpAllocateStatement:
		return "AllocateStatement"
	case OpExecute:
		return "Execute"
	case OpExecute2:
		return "Execute2"
	case OpFreeStatement:
		return "FreeStatement"
	case OpPrepareStatement:
		return "PrepareStatement"
	case OpInfoSql:
		return "InfoSql"
	case OpRollbackRetaining:
		return "RollbackRetaining"
	case OpContAuth:
		return "ContAuth"
	case OpCrypt:
		return "Crypt"
	case OpAcceptData:
		return "AcceptData"
	case OpCondAccept:
		return "CondAccept"
	case OpDummy:
		return "Dummy"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is the negotiated wire protocol version. It gates password
// encoding, wire-encryption availability, and the null-indicator encoding.
type ProtocolVersion uint32

const (
	ProtocolV10 ProtocolVersion = 10
	ProtocolV11 ProtocolVersion = 11
	ProtocolV12 ProtocolVersion = 12
	ProtocolV13 ProtocolVersion = 13
)

// SupportsWireCrypt reports whether this protocol version can negotiate the
// post-authentication stream-cipher upgrade.
func (v ProtocolVersion) SupportsWireCrypt() bool { return v >= ProtocolV13 }

// HasNullBitmap reports whether rows of this protocol version are preceded
// by a compact null bitmap (true) or trailed by a per-value 32-bit
// indicator (false).
func (v ProtocolVersion) HasNullBitmap() bool { return v >= ProtocolV13 }

// ArchGeneric is the architecture tag sent in the protocol negotiation
// table; this engine only ever advertises the generic architecture.
const ArchGeneric = 1

// ProtocolEntry is one row of the protocol-version negotiation table sent
// in the Connect request.
type ProtocolEntry struct {
	Version ProtocolVersion
	Arch    uint32
	MinType uint32
	MaxType uint32
	Weight  uint32
}

// SupportedProtocols is the table this engine advertises on every connect,
// highest-weighted (most preferred) last per the wire convention observed
// in the reference implementation.
var SupportedProtocols = []ProtocolEntry{
	{ProtocolV10, ArchGeneric, 0, 5, 2},
	{ProtocolV11, ArchGeneric, 0, 5, 4},
	{ProtocolV12, ArchGeneric, 0, 5, 6},
	{ProtocolV13, ArchGeneric, 0, 5, 8},
}

// Cnct tags the user-identification block (uid) records inside a Connect
// request.
type Cnct uint8

const (
	CnctLogin            Cnct = 1
	CnctPluginName       Cnct = 2
	CnctPluginList       Cnct = 3
	CnctSpecificData     Cnct = 4
	CnctPluginAuth       Cnct = 5
	CnctClientCrypt      Cnct = 6
	CnctUser             Cnct = 7
	CnctHost             Cnct = 8
	CnctUserVerification Cnct = 9
)

// DPB item tags for the database parameter buffer sent with Attach/Create.
const (
	IscDpbVersion1    = 1
	IscDpbPageSize    = 4
	IscDpbUserName    = 28
	IscDpbPassword    = 29
	IscDpbPasswordEnc = 30
	IscDpbLcCtype     = 48
)

// TPB item tags for the transaction parameter buffer sent with Transaction.
const (
	IscTpbVersion3        = 3
	IscTpbConsistency     = 1
	IscTpbConcurrency     = 2
	IscTpbWait            = 6
	IscTpbNoWait          = 7
	IscTpbReadCommitted   = 15
	IscTpbAutocommit      = 16
	IscTpbRecVersion      = 17
	IscTpbNoRecVersion    = 18
	IscTpbReadWrite       = 9
	IscTpbReadOnly        = 8
	IscTpbLockTimeout     = 21
)

// FreeStatement op sub-codes distinguish between retaining the prepared
// handle (close) and discarding it (drop).
const (
	DsqlClose uint32 = 1
	DsqlDrop  uint32 = 2
)

// isc_info_* / isc_arg_* tags used in status-vector and describe parsing.
const (
	IscArgEnd         = 0
	IscArgGds         = 1
	IscArgString      = 2
	IscArgCstring     = 3
	IscArgNumber      = 4
	IscArgInterpreted = 5
	IscArgSQLState    = 8

	IscInfoEnd       = 1
	IscInfoTruncated = 2

	IscInfoSQLStmtType      = 4
	IscInfoSQLSelect        = 4
	IscInfoSQLBind          = 5
	IscInfoSQLDescribeVars  = 6
	IscInfoSQLDescribeEnd   = 7
	IscInfoSQLSQLDASeq      = 8
	IscInfoSQLType          = 9
	IscInfoSQLSubType       = 10
	IscInfoSQLScale         = 11
	IscInfoSQLLength        = 12
	IscInfoSQLNullInd       = 13
	IscInfoSQLField         = 14
	IscInfoSQLRelation      = 15
	IscInfoSQLOwner         = 17
	IscInfoSQLAlias         = 18
	IscInfoSQLRecordsAffect = 23

	IscInfoReqSelectCount = 13
	IscInfoReqInsertCount = 14
	IscInfoReqUpdateCount = 15
	IscInfoReqDeleteCount = 16
)

// DescribeItems is the fixed sequence of info items requested from the
// server on PrepareStatement and on every InfoSql follow-up continuation.
var DescribeItems = []byte{
	IscInfoSQLStmtType,
	IscInfoSQLBind,
	IscInfoSQLDescribeVars,
	IscInfoSQLDescribeEnd,
	IscInfoSQLSelect,
	IscInfoSQLDescribeVars,
	IscInfoSQLSQLDASeq,
	IscInfoSQLType,
	IscInfoSQLSubType,
	IscInfoSQLScale,
	IscInfoSQLLength,
	IscInfoSQLNullInd,
	IscInfoSQLField,
	IscInfoSQLRelation,
	IscInfoSQLOwner,
	IscInfoSQLAlias,
	IscInfoSQLDescribeEnd,
}

// PrepareBufferLength is the size of the reply buffer requested for
// PrepareStatement/InfoSql describe replies.
const PrepareBufferLength = 1024
