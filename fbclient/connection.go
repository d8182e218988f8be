package fbclient

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/fbwire/fbclient/protocol"
	"github.com/fbwire/fbclient/protocol/srp"
)

// AuthPlugin names the SRP variant negotiated with the server. The only two
// plugins this engine speaks are "Srp" (SHA-1) and "Srp256" (SHA-256); the
// server is always offered Srp256 first.
type AuthPlugin string

const (
	AuthPluginSrp    AuthPlugin = "Srp"
	AuthPluginSrp256 AuthPlugin = "Srp256"
)

// pluginList is this engine's advertised authentication capability, sent in
// every Connect and ContAuth request. The Firebird server also recognises
// Legacy_Auth and Win_Sspi, neither of which this client implements.
const pluginList = "Srp256,Srp"

// Connection is one authenticated, attached connection to a Firebird
// server. Every wire operation on it blocks until the matching response
// arrives; concurrent use from multiple goroutines is the caller's
// responsibility to serialize. Client does not serialize it, and the
// statement cache's lock guards only the cache itself (it is released
// around Prepare's round trip).
type Connection struct {
	wc      *wireConn
	version protocol.ProtocolVersion
	charset Charset
	logger  Logger
	state   *StateManager
}

// ConnectOptions configures a new Connection.
type ConnectOptions struct {
	Host    string
	Port    int
	Timeout time.Duration
	Charset string
	Logger  Logger
}

func (o *ConnectOptions) fillDefaults() {
	if o.Port == 0 {
		o.Port = 3050
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Charset == "" {
		o.Charset = "utf8"
	}
	if o.Logger == nil {
		o.Logger = NewNoopLogger()
	}
}

// srpKeySize is the size of the random seed used for the client's SRP
// ephemeral private key, matching the reference client's
// `rand::random::<[u8;32]>()`.
const srpKeySize = 32

// Connect opens a TCP connection, negotiates the wire protocol version, and
// authenticates user/pass with SRP, upgrading to RC4 wire encryption once
// the proof exchange completes. dbName is sent with the initial handshake
// (the server uses it to route the negotiation) and again with Attach/
// Create; Connect itself does not attach.
func Connect(dbName, dbUser, pass string, opts ConnectOptions) (*Connection, error) {
	opts.fillDefaults()

	cs, err := ParseCharset(opts.Charset)
	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	wc, err := dialWireConn(addr, opts.Timeout)
	if err != nil {
		return nil, err
	}

	sm := NewStateManager()
	_ = sm.TransitionTo(TcpConnected, nil, nil)

	c := &Connection{wc: wc, charset: cs, logger: opts.Logger, state: sm}

	if err := c.negotiateAndAuthenticate(dbName, dbUser, pass); err != nil {
		wc.close()
		return nil, err
	}

	return c, nil
}

func (c *Connection) negotiateAndAuthenticate(dbName, dbUser, pass string) error {
	srpKey := make([]byte, srpKeySize)
	if _, err := rand.Read(srpKey); err != nil {
		return NewProtocolError("generating srp key", err)
	}

	client := srp.NewWithSeed(sha1.New, srpKey)

	sysUser := systemUsername()
	hostname := c.wc.localHostname()

	if err := c.wc.write(connectRequest(client, dbName, dbUser, sysUser, hostname)); err != nil {
		return err
	}

	op, r, err := c.wc.readPacket()
	if err != nil {
		return err
	}

	version, plugin, authData, err := parseAccept(op, r)
	if err != nil {
		return err
	}
	c.version = version
	c.logger.Debug("negotiated protocol version", Uint32("version", uint32(version)))

	if err := c.state.TransitionTo(Negotiated, nil, nil); err != nil {
		return NewLogicError(err.Error(), nil)
	}

	if plugin != "" {
		if err := c.srpAuthLoop(client, srpKey, plugin, authData, dbUser, pass); err != nil {
			return err
		}
	}

	return c.state.TransitionTo(Authenticated, nil, nil)
}

// srpAuthLoop drives the plugin-negotiation retry: if the server didn't
// hand us SRP auth data inline with Accept (it wants a different plugin
// than the one we guessed at Connect time), we re-request with ContAuth
// until it does, then compute and send the proof, then negotiate the RC4
// wire-crypt upgrade.
func (c *Connection) srpAuthLoop(client *srp.Client, srpKey []byte, plugin AuthPlugin, data *srpAuthData, dbUser, pass string) error {
	for data == nil {
		if err := c.wc.write(contAuthRequest(hex.EncodeToString(client.APub()), plugin, nil)); err != nil {
			return err
		}
		op, r, err := c.wc.readPacket()
		if err != nil {
			return err
		}
		plugin, data, err = parseContAuth(op, r)
		if err != nil {
			return err
		}
		if plugin == AuthPluginSrp256 {
			client = srp.NewWithSeed(sha256.New, srpKey)
		} else {
			client = srp.NewWithSeed(sha1.New, srpKey)
		}
	}

	newHash := sha1.New
	if plugin == AuthPluginSrp256 {
		newHash = sha256.New
	}
	client = srp.NewWithSeed(newHash, srpKey)

	privateKey := srp.PrivateKey(newHash, []byte(dbUser), []byte(pass), data.salt)
	proof, err := client.ComputeProof([]byte(dbUser), data.salt, privateKey, data.pubKey)
	if err != nil {
		return NewSqlError("srp authentication", 0, err.Error())
	}

	if err := c.wc.write(contAuthRequest(hex.EncodeToString(proof.M), plugin, nil)); err != nil {
		return err
	}
	if err := c.readAuthResponse(); err != nil {
		return err
	}

	if err := c.wc.write(cryptRequest("Arc4", "Symmetric")); err != nil {
		return err
	}
	if err := c.wc.upgradeToRC4(proof.K); err != nil {
		return err
	}
	return c.readAuthResponse()
}

func (c *Connection) readAuthResponse() error {
	op, r, err := c.wc.readPacket()
	if err != nil {
		return err
	}
	if op != protocol.OpResponse {
		return &protocol.ErrUnexpectedOp{Want: protocol.OpResponse, Got: op}
	}
	_, err = parseResponse(r)
	return err
}

// Attach attaches to an existing database, returning its handle.
func (c *Connection) Attach(dbName, dbUser, pass string) (DbHandle, error) {
	if err := c.wc.write(attachRequest(dbName, dbUser, pass, c.version, c.charset)); err != nil {
		return 0, err
	}
	resp, err := c.readResponse()
	if err != nil {
		return 0, err
	}
	_ = c.state.TransitionTo(Attached, nil, nil)
	return DbHandle(resp.handle), nil
}

// Create creates a new database and attaches to it. pageSize of 0 leaves the
// server default.
func (c *Connection) Create(dbName, dbUser, pass string, pageSize uint32) (DbHandle, error) {
	if err := c.wc.write(createRequest(dbName, dbUser, pass, c.version, c.charset, pageSize)); err != nil {
		return 0, err
	}
	resp, err := c.readResponse()
	if err != nil {
		return 0, err
	}
	_ = c.state.TransitionTo(Attached, nil, nil)
	return DbHandle(resp.handle), nil
}

// Detach releases the database handle without destroying the database.
func (c *Connection) Detach(db DbHandle) error {
	if err := c.wc.write(detachRequest(db)); err != nil {
		return err
	}
	if _, err := c.readResponse(); err != nil {
		return err
	}
	return c.state.TransitionTo(Detached, nil, nil)
}

// DropDatabase detaches and permanently destroys the database.
func (c *Connection) DropDatabase(db DbHandle) error {
	if err := c.wc.write(dropDatabaseRequest(db)); err != nil {
		return err
	}
	if _, err := c.readResponse(); err != nil {
		return err
	}
	return c.state.TransitionTo(Dropped, nil, nil)
}

// Close tears down the TCP connection without notifying the server.
func (c *Connection) Close() error {
	return c.wc.close()
}

func (c *Connection) readResponse() (*wireResponse, error) {
	op, r, err := c.wc.readPacket()
	if err != nil {
		return nil, err
	}
	if op != protocol.OpResponse {
		return nil, &protocol.ErrUnexpectedOp{Want: protocol.OpResponse, Got: op}
	}
	return parseResponse(r)
}

func systemUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return os.Getenv("USERNAME")
}
