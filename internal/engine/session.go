package engine

import (
	"sync"

	"github.com/yndnr/keymesh-go/internal/acl"
	"github.com/yndnr/keymesh-go/internal/blocking"
	"github.com/yndnr/keymesh-go/internal/resp"
)

// ReplyMode controls whether command replies reach the client.
type ReplyMode int

const (
	// ReplyOn delivers every reply.
	ReplyOn ReplyMode = iota
	// ReplyOff silences all replies.
	ReplyOff
	// ReplySkip silences exactly the next reply, then reverts to on.
	ReplySkip
)

// TxState is the transaction phase of a session.
type TxState int

const (
	// TxNone means no transaction is open.
	TxNone TxState = iota
	// TxQueueing means MULTI is open and commands queue.
	TxQueueing
	// TxDirty means a queueing error poisoned the transaction; EXEC
	// will abort.
	TxDirty
)

// Conn is the transport half of a session: a serialized writer plus a
// close handle. Implementations must allow DeliverPush and command
// replies to interleave safely (a single writer mutex).
type Conn interface {
	// WriteReply encodes a reply frame and flushes it.
	WriteReply(v resp.Value) error
	// SetProtocol switches the wire encoding after HELLO.
	SetProtocol(proto int)
	// CloseConn tears the transport down; the session's read loop
	// terminates as a result.
	CloseConn()
	// Done is closed when the transport goes away, waking any parked
	// blocking command so its waiter is removed promptly.
	Done() <-chan struct{}
	// RemoteAddr describes the peer for CLIENT LIST.
	RemoteAddr() string
}

type queuedCommand struct {
	args [][]byte
}

type watchKey struct {
	db  int
	key string
}

// Session is the per-connection state machine.
type Session struct {
	id   int64
	conn Conn

	// Fields below are guarded by the engine lock.
	name      string
	user      *acl.User
	authed    bool
	db        int
	proto     int
	replyMode ReplyMode

	tx      TxState
	queue   []queuedCommand
	watched map[watchKey]uint64

	waiter *blocking.Waiter

	libName    string
	libVersion string
	noEvict    bool
	noTouch    bool

	createdAt int64
	lastCmd   string

	closing bool
	quit    bool

	// pushMu serializes DeliverPush against nothing else; the conn
	// itself serializes writes internally.
	pushMu sync.Mutex
}

// NewSession wraps a transport connection. The session starts
// unauthenticated on database 0 speaking RESP2.
func NewSession(id int64, conn Conn, nowMs int64) *Session {
	return &Session{
		id:        id,
		conn:      conn,
		proto:     2,
		watched:   make(map[watchKey]uint64),
		createdAt: nowMs,
	}
}

// ID implements pubsub.Subscriber.
func (s *Session) ID() int64 { return s.id }

// DeliverPush implements pubsub.Subscriber: pub/sub frames go straight
// to the connection, interleaving with replies via the conn's writer
// serialization.
func (s *Session) DeliverPush(v resp.Value) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	_ = s.conn.WriteReply(v)
}

// sendReply writes a command reply honoring the reply mode. Suppressed
// replies (subscribe-family acks, CLIENT REPLY SKIP's own ack) write
// nothing and leave a pending SKIP armed for the next real reply.
func (s *Session) sendReply(v resp.Value) {
	if isSuppressed(v) {
		return
	}
	switch s.replyMode {
	case ReplyOff:
		return
	case ReplySkip:
		s.replyMode = ReplyOn
		return
	}
	_ = s.conn.WriteReply(v)
}

// Name returns the CLIENT SETNAME value.
func (s *Session) Name() string { return s.name }

// DB returns the selected database index.
func (s *Session) DB() int { return s.db }

// Protocol returns the negotiated RESP version.
func (s *Session) Protocol() int { return s.proto }

// UserName returns the authenticated user, defaulting before AUTH.
func (s *Session) UserName() string {
	if s.user == nil {
		return acl.DefaultUserName
	}
	return s.user.Name
}

// InTx reports whether a MULTI block is open.
func (s *Session) InTx() bool { return s.tx != TxNone }

// Quitting reports whether QUIT was acknowledged; the transport closes
// the connection after flushing the reply.
func (s *Session) Quitting() bool { return s.quit }

// resetTx clears the transaction state and watches.
func (s *Session) resetTx() {
	s.tx = TxNone
	s.queue = nil
	s.watched = make(map[watchKey]uint64)
}
