package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/keymesh-go/internal/acl"
	"github.com/yndnr/keymesh-go/internal/blocking"
	"github.com/yndnr/keymesh-go/internal/command"
	"github.com/yndnr/keymesh-go/internal/keyspace"
	"github.com/yndnr/keymesh-go/internal/pubsub"
	"github.com/yndnr/keymesh-go/internal/telemetry/metric"
	"github.com/yndnr/keymesh-go/pkg/cmap"
)

// Options configures a Server.
type Options struct {
	// Databases is the logical database count (default 16).
	Databases int
	// RequirePass, when non-empty, locks the default user behind AUTH.
	RequirePass string
	// Logger receives engine logs; nil means slog.Default().
	Logger *slog.Logger
	// Metrics receives engine instruments; nil disables them.
	Metrics *metric.Metrics
	// Clock overrides wall time, for tests.
	Clock func() time.Time
}

// stats are the INFO counters.
type stats struct {
	totalConnections int64
	totalCommands    int64
	expiredKeys      int64
	keyspaceHits     int64
	keyspaceMisses   int64
	pubsubMessages   int64
}

// Server is the shared command-execution state.
type Server struct {
	// mu is the command lock: every command runs to completion under
	// it, and all engine structures below are guarded by it.
	mu sync.Mutex

	dbs      []*keyspace.Database
	acl      *acl.ACL
	registry *command.Registry
	config   *runtimeConfig
	hub      *pubsub.Hub
	coord    *blocking.Coordinator

	clients      *cmap.Map[int64, *Session]
	nextClientID int64

	handlers map[string]handlerFunc

	notifyFlags notifyFlags
	stats       stats

	logger  *slog.Logger
	metrics *metric.Metrics
	clock   func() time.Time
	rnd     *rand.Rand

	runID     string
	startTime time.Time

	shutdownFn func()
}

// NewServer builds a server with the default command table.
func NewServer(opts Options) *Server {
	if opts.Databases <= 0 {
		opts.Databases = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		acl:       acl.New(),
		registry:  command.Default,
		config:    newRuntimeConfig(),
		hub:       pubsub.NewHub(),
		coord:     blocking.NewCoordinator(),
		clients:   cmap.New[int64, *Session](),
		handlers:  make(map[string]handlerFunc),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		clock:     clock,
		startTime: clock(),
	}
	s.rnd = rand.New(rand.NewSource(clock().UnixNano()))
	s.runID = strings.ToLower(ulid.MustNew(ulid.Timestamp(clock()), ulid.DefaultEntropy()).String())

	s.dbs = make([]*keyspace.Database, opts.Databases)
	for i := range s.dbs {
		s.dbs[i] = keyspace.New(i)
		s.dbs[i].SetMutationHook(s.onMutation)
	}
	_ = s.config.set(s, "databases", intToString(int64(opts.Databases)))
	if opts.RequirePass != "" {
		_ = s.config.set(s, "requirepass", opts.RequirePass)
	}

	s.installHandlers()
	return s
}

// RunID returns the instance's run identifier.
func (s *Server) RunID() string { return s.runID }

// Logger returns the engine logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// SetShutdownFunc wires the SHUTDOWN command to the process lifecycle.
func (s *Server) SetShutdownFunc(fn func()) { s.shutdownFn = fn }

// nowMs returns wall time in epoch milliseconds.
func (s *Server) nowMs() int64 { return s.clock().UnixMilli() }

// db returns the database at index; the caller validated the range.
func (s *Server) db(i int) *keyspace.Database { return s.dbs[i] }

// onMutation is the keyspace hook: wake blocked waiters for the key.
// WATCH versioning already happened inside the database.
func (s *Server) onMutation(db *keyspace.Database, key string) {
	s.coord.Notify(db.Index, key)
}

// NewSession registers a fresh connection and returns its session.
func (s *Server) NewSession(conn Conn) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextClientID++
	sess := NewSession(s.nextClientID, conn, s.nowMs())
	if !s.acl.RequiresAuth() {
		sess.user = s.acl.Default()
		sess.authed = true
	}
	s.clients.Set(sess.id, sess)
	s.stats.totalConnections++
	if s.metrics != nil {
		s.metrics.ConnectedClients.Inc()
	}
	return sess
}

// CloseSession tears down a disconnecting session: subscriptions go,
// waiters go, the client table entry goes.
func (s *Server) CloseSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.closing = true
	s.hub.UnsubscribeAll(sess.id)
	s.coord.DropSession(sess.id)
	s.clients.Delete(sess.id)
	if s.metrics != nil {
		s.metrics.ConnectedClients.Dec()
	}
}

// ClientCount returns the connected-session count.
func (s *Server) ClientCount() int { return s.clients.Count() }

// Shutdown force-unblocks every parked session and closes all
// connections; transports drain afterwards.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.coord.UnblockAll()
	sessions := s.clients.Values()
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.conn.CloseConn()
	}
}

// StartActiveExpiry runs the sampling expiry sweep until ctx ends. The
// cycle repeats immediately while more than a quarter of each sample is
// stale, the upstream heuristic.
func (s *Server) StartActiveExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runExpiryCycle()
			}
		}
	}()
}

func (s *Server) runExpiryCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.getBool("active-expire") {
		return
	}
	now := s.nowMs()
	for _, db := range s.dbs {
		for {
			expired, again := db.ExpireCycle(now, keyspace.DefaultExpirySampleSize)
			if expired > 0 {
				s.stats.expiredKeys += int64(expired)
				if s.metrics != nil {
					s.metrics.ExpiredKeys.Add(float64(expired))
				}
			}
			if !again {
				break
			}
		}
	}
}

// swapDatabases exchanges two database slots, SWAPDB semantics: the
// contents swap, the indexes stay.
func swapDatabases(s *Server, a, b int) {
	keyspace.Swap(s.dbs[a], s.dbs[b])
}

// publish routes a message and records the fan-out.
func (s *Server) publish(channel string, payload []byte) int {
	n := s.hub.Publish(channel, payload)
	s.stats.pubsubMessages += int64(n)
	if s.metrics != nil && n > 0 {
		s.metrics.PubSubMessages.Add(float64(n))
	}
	return n
}

// notifyKeyspaceEvent publishes __keyspace@db__/__keyevent@db__ frames
// when the notification class is enabled.
func (s *Server) notifyKeyspaceEvent(dbIndex int, class byte, event, key string) {
	if !s.notifyFlags.enabled(class) {
		return
	}
	dbSuffix := intToString(int64(dbIndex)) + "__"
	if s.notifyFlags.keyspace {
		s.publish("__keyspace@"+dbSuffix+":"+key, []byte(event))
	}
	if s.notifyFlags.keyevent {
		s.publish("__keyevent@"+dbSuffix+":"+event, []byte(key))
	}
}

func intToString(n int64) string {
	return strconv.FormatInt(n, 10)
}
