package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/keymesh-go/internal/resp"
)

// fakeConn records every frame a session writes.
type fakeConn struct {
	mu     sync.Mutex
	frames []resp.Value
	proto  int
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{proto: 2, done: make(chan struct{})}
}

func (f *fakeConn) WriteReply(v resp.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeConn) SetProtocol(proto int)  { f.proto = proto }
func (f *fakeConn) CloseConn()             { f.once.Do(func() { close(f.done) }) }
func (f *fakeConn) Done() <-chan struct{}  { return f.done }
func (f *fakeConn) RemoteAddr() string     { return "127.0.0.1:54321" }

func (f *fakeConn) lastFrame() resp.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return resp.Value{}
	}
	return f.frames[len(f.frames)-1]
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) frameAt(i int) resp.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[i]
}

// fakeClock is an adjustable wall clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testRig struct {
	srv   *Server
	clock *fakeClock
}

func newRig(t *testing.T, opts Options) *testRig {
	t.Helper()
	clock := newFakeClock()
	opts.Clock = clock.Now
	return &testRig{srv: NewServer(opts), clock: clock}
}

func (r *testRig) session() (*Session, *fakeConn) {
	fc := newFakeConn()
	return r.srv.NewSession(fc), fc
}

// do executes one command and returns its reply frame.
func (r *testRig) do(sess *Session, fc *fakeConn, args ...string) resp.Value {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	before := fc.frameCount()
	r.srv.Execute(sess, raw)
	if fc.frameCount() == before {
		return resp.Value{}
	}
	return fc.lastFrame()
}

func TestPingEcho(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	reply := r.do(sess, fc, "PING")
	assert.Equal(t, resp.SimpleString("PONG"), reply)

	reply = r.do(sess, fc, "ECHO", "hello")
	assert.Equal(t, "hello", string(reply.Bulk))
}

func TestUnknownCommandAndArity(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	reply := r.do(sess, fc, "NOSUCH")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "unknown command")

	reply = r.do(sess, fc, "GET")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "wrong number of arguments")
}

func TestSetGetIncr(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	assert.Equal(t, resp.OK, r.do(sess, fc, "SET", "x", "10"))

	reply := r.do(sess, fc, "INCRBY", "x", "5")
	assert.Equal(t, resp.Integer(15), reply)

	reply = r.do(sess, fc, "GET", "x")
	assert.Equal(t, "15", string(reply.Bulk))

	reply = r.do(sess, fc, "INCR", "x")
	assert.Equal(t, resp.Integer(16), reply)

	r.do(sess, fc, "SET", "s", "abc")
	reply = r.do(sess, fc, "INCR", "s")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "not an integer")
}

func TestWrongType(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "k", "v")
	reply := r.do(sess, fc, "LPUSH", "k", "x")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "WRONGTYPE")
}

func TestListOrdering(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "LPUSH", "l", "a", "b", "c")
	reply := r.do(sess, fc, "LRANGE", "l", "0", "-1")
	require.Len(t, reply.Elems, 3)
	assert.Equal(t, "c", string(reply.Elems[0].Bulk))
	assert.Equal(t, "b", string(reply.Elems[1].Bulk))
	assert.Equal(t, "a", string(reply.Elems[2].Bulk))
}

func TestEmptyContainerDeleted(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "RPUSH", "l", "only")
	r.do(sess, fc, "LPOP", "l")
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "l"))

	r.do(sess, fc, "HSET", "h", "f", "v")
	r.do(sess, fc, "HDEL", "h", "f")
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "h"))

	r.do(sess, fc, "SADD", "s", "m")
	r.do(sess, fc, "SREM", "s", "m")
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "s"))

	r.do(sess, fc, "ZADD", "z", "1", "m")
	r.do(sess, fc, "ZREM", "z", "m")
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "z"))
}

func TestZAddRangeByScore(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	assert.Equal(t, resp.Integer(3), r.do(sess, fc, "ZADD", "z", "1", "a", "2", "b", "3", "c"))

	reply := r.do(sess, fc, "ZRANGEBYSCORE", "z", "2", "+inf")
	require.Len(t, reply.Elems, 2)
	assert.Equal(t, "b", string(reply.Elems[0].Bulk))
	assert.Equal(t, "c", string(reply.Elems[1].Bulk))
}

func TestExpiry(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	sizeBefore := r.do(sess, fc, "DBSIZE")
	r.do(sess, fc, "SET", "k", "v", "PX", "50")
	assert.Equal(t, resp.Integer(sizeBefore.Int+1), r.do(sess, fc, "DBSIZE"))

	r.clock.Advance(100 * time.Millisecond)

	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "k"))
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "k"))
	assert.Equal(t, resp.Integer(sizeBefore.Int), r.do(sess, fc, "DBSIZE"))
}

func TestTTLReporting(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "k", "v", "EX", "10")
	ttl := r.do(sess, fc, "TTL", "k")
	assert.Equal(t, resp.Integer(10), ttl)

	pttl := r.do(sess, fc, "PTTL", "k")
	assert.Equal(t, resp.Integer(10000), pttl)

	r.do(sess, fc, "PERSIST", "k")
	assert.Equal(t, resp.Integer(-1), r.do(sess, fc, "TTL", "k"))
	assert.Equal(t, resp.Integer(-2), r.do(sess, fc, "TTL", "missing"))
}

func TestSelectIsolatesDatabases(t *testing.T) {
	r := newRig(t, Options{Databases: 4})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "k", "db0")
	assert.Equal(t, resp.OK, r.do(sess, fc, "SELECT", "1"))
	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "k"))

	r.do(sess, fc, "SELECT", "0")
	assert.Equal(t, "db0", string(r.do(sess, fc, "GET", "k").Bulk))

	reply := r.do(sess, fc, "SELECT", "99")
	assert.True(t, reply.IsError())
}

func TestMultiExec(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	assert.Equal(t, resp.OK, r.do(sess, fc, "MULTI"))
	assert.Equal(t, resp.SimpleString("QUEUED"), r.do(sess, fc, "SET", "a", "1"))
	assert.Equal(t, resp.SimpleString("QUEUED"), r.do(sess, fc, "INCR", "a"))

	reply := r.do(sess, fc, "EXEC")
	require.Equal(t, resp.KindArray, reply.Kind)
	require.Len(t, reply.Elems, 2)
	assert.Equal(t, resp.OK, reply.Elems[0])
	assert.Equal(t, resp.Integer(2), reply.Elems[1])

	assert.Equal(t, "2", string(r.do(sess, fc, "GET", "a").Bulk))
}

func TestExecAbortAfterQueueError(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "MULTI")
	reply := r.do(sess, fc, "NOSUCHCMD")
	assert.True(t, reply.IsError())

	reply = r.do(sess, fc, "EXEC")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "EXECABORT")
}

func TestErrorsInsideExecDoNotAbort(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "str", "v")
	r.do(sess, fc, "MULTI")
	r.do(sess, fc, "LPUSH", "str", "x") // wrong type, fails at exec time
	r.do(sess, fc, "SET", "after", "ok")

	reply := r.do(sess, fc, "EXEC")
	require.Equal(t, resp.KindArray, reply.Kind)
	require.Len(t, reply.Elems, 2)
	assert.True(t, reply.Elems[0].IsError())
	assert.Equal(t, resp.OK, reply.Elems[1])
	assert.Equal(t, "ok", string(r.do(sess, fc, "GET", "after").Bulk))
}

func TestDiscard(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "MULTI")
	r.do(sess, fc, "SET", "a", "1")
	assert.Equal(t, resp.OK, r.do(sess, fc, "DISCARD"))
	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "a"))

	assert.True(t, r.do(sess, fc, "DISCARD").IsError())
	assert.True(t, r.do(sess, fc, "EXEC").IsError())
}

func TestWatchAbortsExec(t *testing.T) {
	r := newRig(t, Options{})
	w, wfc := r.session()
	o, ofc := r.session()

	r.do(w, wfc, "SET", "k", "0")
	assert.Equal(t, resp.OK, r.do(w, wfc, "WATCH", "k"))
	r.do(w, wfc, "MULTI")
	r.do(w, wfc, "SET", "k", "1")

	// The other client writes the watched key.
	r.do(o, ofc, "SET", "k", "2")

	reply := r.do(w, wfc, "EXEC")
	assert.Equal(t, resp.NullArray(), reply)
	assert.Equal(t, "2", string(r.do(w, wfc, "GET", "k").Bulk))
}

func TestWatchUnmodifiedPasses(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "k", "0")
	r.do(sess, fc, "WATCH", "k")
	r.do(sess, fc, "MULTI")
	r.do(sess, fc, "SET", "k", "1")

	reply := r.do(sess, fc, "EXEC")
	require.Equal(t, resp.KindArray, reply.Kind)
	assert.Equal(t, "1", string(r.do(sess, fc, "GET", "k").Bulk))
}

func TestAuthRequired(t *testing.T) {
	r := newRig(t, Options{RequirePass: "hunter2"})
	sess, fc := r.session()

	reply := r.do(sess, fc, "GET", "k")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "NOAUTH")

	// PING is allowed pre-auth.
	assert.Equal(t, resp.SimpleString("PONG"), r.do(sess, fc, "PING"))

	assert.True(t, r.do(sess, fc, "AUTH", "wrong").IsError())
	assert.Equal(t, resp.OK, r.do(sess, fc, "AUTH", "hunter2"))
	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "k"))
}

func TestACLDeny(t *testing.T) {
	r := newRig(t, Options{})
	admin, afc := r.session()

	assert.Equal(t, resp.OK, r.do(admin, afc, "ACL", "SETUSER", "limited",
		"on", ">pw", "+@read", "~foo:*"))

	sess, fc := r.session()
	assert.Equal(t, resp.OK, r.do(sess, fc, "AUTH", "limited", "pw"))

	// Write command denied.
	reply := r.do(sess, fc, "SET", "foo:x", "v")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "NOPERM")

	// Allowed command on an allowed key.
	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "foo:bar"))

	// Allowed command on a denied key.
	reply = r.do(sess, fc, "GET", "bar:baz")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "NOPERM")
}

func TestACLMinusCommand(t *testing.T) {
	r := newRig(t, Options{})
	admin, afc := r.session()
	r.do(admin, afc, "ACL", "SETUSER", "nogetter", "on", ">pw", "+@all", "~*", "&*", "-get")

	sess, fc := r.session()
	r.do(sess, fc, "AUTH", "nogetter", "pw")

	reply := r.do(sess, fc, "GET", "k")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "NOPERM")

	assert.Equal(t, resp.OK, r.do(sess, fc, "SET", "k", "v"))
}

func TestHello(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	reply := r.do(sess, fc, "HELLO", "3")
	require.Equal(t, resp.KindMap, reply.Kind)

	fields := make(map[string]resp.Value)
	for i := 0; i+1 < len(reply.Elems); i += 2 {
		fields[string(reply.Elems[i].Bulk)] = reply.Elems[i+1]
	}
	assert.Equal(t, "keymesh", string(fields["server"].Bulk))
	assert.Equal(t, resp.Integer(3), fields["proto"])
	assert.Equal(t, "standalone", string(fields["mode"].Bulk))
	assert.Equal(t, "master", string(fields["role"].Bulk))
	assert.Contains(t, fields, "version")
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "modules")
	assert.Equal(t, 3, sess.Protocol())

	assert.True(t, r.do(sess, fc, "HELLO", "9").IsError())
}

func TestConfigGetSet(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	reply := r.do(sess, fc, "CONFIG", "GET", "maxmemory")
	require.Equal(t, resp.KindMap, reply.Kind)
	require.Len(t, reply.Elems, 2)
	assert.Equal(t, "maxmemory", string(reply.Elems[0].Bulk))

	assert.Equal(t, resp.OK, r.do(sess, fc, "CONFIG", "SET", "maxmemory", "1048576"))
	reply = r.do(sess, fc, "CONFIG", "GET", "maxmemory")
	assert.Equal(t, "1048576", string(reply.Elems[1].Bulk))

	assert.True(t, r.do(sess, fc, "CONFIG", "SET", "nosuchopt", "1").IsError())
	assert.True(t, r.do(sess, fc, "CONFIG", "SET", "maxmemory", "notanumber").IsError())

	// Glob patterns.
	reply = r.do(sess, fc, "CONFIG", "GET", "max*")
	assert.GreaterOrEqual(t, len(reply.Elems), 4)
}

func TestRequirePassViaConfig(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()
	assert.Equal(t, resp.OK, r.do(sess, fc, "CONFIG", "SET", "requirepass", "pw"))

	fresh, ffc := r.session()
	reply := r.do(fresh, ffc, "GET", "k")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "NOAUTH")
	assert.Equal(t, resp.OK, r.do(fresh, ffc, "AUTH", "pw"))
}

func TestPubSubDeliveryOrder(t *testing.T) {
	r := newRig(t, Options{})
	sub, sfc := r.session()
	pub, pfc := r.session()

	r.do(sub, sfc, "SUBSCRIBE", "c")
	require.Equal(t, 1, sfc.frameCount()) // the subscribe ack

	for _, msg := range []string{"one", "two", "three"} {
		reply := r.do(pub, pfc, "PUBLISH", "c", msg)
		assert.Equal(t, resp.Integer(1), reply)
	}

	require.Equal(t, 4, sfc.frameCount())
	for i, want := range []string{"one", "two", "three"} {
		frame := sfc.frameAt(i + 1)
		require.Len(t, frame.Elems, 3)
		assert.Equal(t, "message", string(frame.Elems[0].Bulk))
		assert.Equal(t, "c", string(frame.Elems[1].Bulk))
		assert.Equal(t, want, string(frame.Elems[2].Bulk))
	}
}

func TestPatternSubscription(t *testing.T) {
	r := newRig(t, Options{})
	sub, sfc := r.session()
	pub, pfc := r.session()

	r.do(sub, sfc, "PSUBSCRIBE", "news.*")
	reply := r.do(pub, pfc, "PUBLISH", "news.tech", "m")
	assert.Equal(t, resp.Integer(1), reply)

	frame := sfc.frameAt(1)
	require.Len(t, frame.Elems, 4)
	assert.Equal(t, "pmessage", string(frame.Elems[0].Bulk))
	assert.Equal(t, "news.*", string(frame.Elems[1].Bulk))
	assert.Equal(t, "news.tech", string(frame.Elems[2].Bulk))

	assert.Equal(t, resp.Integer(0), r.do(pub, pfc, "PUBLISH", "sports", "m"))
}

func TestSubscriberModeRestriction(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SUBSCRIBE", "c")
	reply := r.do(sess, fc, "GET", "k")
	require.True(t, reply.IsError())
	assert.Contains(t, reply.Str, "only (P|S)SUBSCRIBE")

	// UNSUBSCRIBE restores normal mode.
	r.do(sess, fc, "UNSUBSCRIBE", "c")
	assert.Equal(t, resp.Null(), r.do(sess, fc, "GET", "k"))
}

func TestClientReplyModes(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "CLIENT", "REPLY", "OFF")
	before := fc.frameCount()
	r.do(sess, fc, "SET", "a", "1")
	r.do(sess, fc, "GET", "a")
	assert.Equal(t, before, fc.frameCount())

	r.do(sess, fc, "CLIENT", "REPLY", "ON") // the ON ack itself is sent
	require.Greater(t, fc.frameCount(), before)

	// SKIP silences exactly the next reply.
	r.do(sess, fc, "CLIENT", "REPLY", "SKIP")
	mid := fc.frameCount()
	r.do(sess, fc, "SET", "b", "1")
	assert.Equal(t, mid, fc.frameCount())
	r.do(sess, fc, "GET", "b")
	assert.Equal(t, mid+1, fc.frameCount())
}

func TestBLPOPImmediate(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "RPUSH", "q", "job")
	reply := r.do(sess, fc, "BLPOP", "q", "0")
	require.Len(t, reply.Elems, 2)
	assert.Equal(t, "q", string(reply.Elems[0].Bulk))
	assert.Equal(t, "job", string(reply.Elems[1].Bulk))
}

func TestBLPOPTimeout(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	start := time.Now()
	reply := r.do(sess, fc, "BLPOP", "missing", "0.05")
	assert.Equal(t, resp.NullArray(), reply)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func waitForBlocked(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		srv.mu.Lock()
		blocked := srv.coord.BlockedCount()
		srv.mu.Unlock()
		if blocked >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("sessions never blocked")
}

func TestBLPOPFanIn(t *testing.T) {
	r := newRig(t, Options{})

	const waiters = 3
	type result struct {
		idx   int
		reply resp.Value
	}
	results := make(chan result, waiters)

	var sessions []*Session
	var conns []*fakeConn
	for i := 0; i < waiters; i++ {
		sess, fc := r.session()
		sessions = append(sessions, sess)
		conns = append(conns, fc)
	}

	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			// Stagger parking so registration order is deterministic.
			time.Sleep(time.Duration(i*20) * time.Millisecond)
			reply := r.do(sessions[i], conns[i], "BLPOP", "q", "0.5")
			results <- result{i, reply}
		}()
	}
	waitForBlocked(t, r.srv, waiters)

	pusher, pfc := r.session()
	r.do(pusher, pfc, "RPUSH", "q", "only")

	// Exactly one waiter gets the element: the earliest.
	var got []result
	for i := 0; i < waiters; i++ {
		got = append(got, <-results)
	}
	winners := 0
	for _, res := range got {
		if res.reply.Kind == resp.KindArray && len(res.reply.Elems) == 2 {
			winners++
			assert.Equal(t, 0, res.idx, "earliest waiter should win")
			assert.Equal(t, "only", string(res.reply.Elems[1].Bulk))
		} else {
			assert.Equal(t, resp.NullArray(), res.reply)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestBLPOPWokenByPush(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	done := make(chan resp.Value, 1)
	go func() {
		done <- r.do(sess, fc, "BLPOP", "q", "2")
	}()
	waitForBlocked(t, r.srv, 1)

	pusher, pfc := r.session()
	r.do(pusher, pfc, "RPUSH", "q", "v")

	select {
	case reply := <-done:
		require.Len(t, reply.Elems, 2)
		assert.Equal(t, "v", string(reply.Elems[1].Bulk))
	case <-time.After(time.Second):
		t.Fatal("BLPOP never woke")
	}

	// The element is consumed.
	assert.Equal(t, resp.Integer(0), r.do(pusher, pfc, "EXISTS", "q"))
}

func TestClientUnblock(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	done := make(chan resp.Value, 1)
	go func() {
		done <- r.do(sess, fc, "BLPOP", "q", "0")
	}()
	waitForBlocked(t, r.srv, 1)

	other, ofc := r.session()
	reply := r.do(other, ofc, "CLIENT", "UNBLOCK", intToString(sess.id), "ERROR")
	assert.Equal(t, resp.Integer(1), reply)

	select {
	case got := <-done:
		require.True(t, got.IsError())
		assert.Contains(t, got.Str, "UNBLOCKED")
	case <-time.After(time.Second):
		t.Fatal("session never unblocked")
	}
}

func TestBLPOPInsideMultiDoesNotBlock(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "MULTI")
	r.do(sess, fc, "BLPOP", "missing", "0")
	reply := r.do(sess, fc, "EXEC")
	require.Equal(t, resp.KindArray, reply.Kind)
	require.Len(t, reply.Elems, 1)
	assert.Equal(t, resp.NullArray(), reply.Elems[0])
}

func TestXAddXRangeXRead(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	id1 := r.do(sess, fc, "XADD", "st", "*", "k", "v1")
	require.Equal(t, resp.KindBulkString, id1.Kind)
	id2 := r.do(sess, fc, "XADD", "st", "*", "k", "v2")
	require.Equal(t, resp.KindBulkString, id2.Kind)

	assert.Equal(t, resp.Integer(2), r.do(sess, fc, "XLEN", "st"))

	reply := r.do(sess, fc, "XRANGE", "st", "-", "+")
	require.Len(t, reply.Elems, 2)
	assert.Equal(t, string(id1.Bulk), string(reply.Elems[0].Elems[0].Bulk))

	reply = r.do(sess, fc, "XREAD", "STREAMS", "st", "0-0")
	require.Len(t, reply.Elems, 1)
	stream := reply.Elems[0]
	assert.Equal(t, "st", string(stream.Elems[0].Bulk))
	assert.Len(t, stream.Elems[1].Elems, 2)
}

func TestConsumerGroupFlow(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "XADD", "st", "1-1", "k", "a")
	r.do(sess, fc, "XADD", "st", "2-1", "k", "b")
	assert.Equal(t, resp.OK, r.do(sess, fc, "XGROUP", "CREATE", "st", "g", "0"))

	reply := r.do(sess, fc, "XREADGROUP", "GROUP", "g", "c1", "COUNT", "10", "STREAMS", "st", ">")
	require.Len(t, reply.Elems, 1)
	entries := reply.Elems[0].Elems[1].Elems
	require.Len(t, entries, 2)

	// Both entries are now pending.
	pending := r.do(sess, fc, "XPENDING", "st", "g")
	assert.Equal(t, resp.Integer(2), pending.Elems[0])

	assert.Equal(t, resp.Integer(1), r.do(sess, fc, "XACK", "st", "g", "1-1"))

	pending = r.do(sess, fc, "XPENDING", "st", "g")
	assert.Equal(t, resp.Integer(1), pending.Elems[0])

	// Claim the remaining entry for another consumer.
	r.clock.Advance(time.Second)
	claim := r.do(sess, fc, "XCLAIM", "st", "g", "c2", "0", "2-1")
	require.Len(t, claim.Elems, 1)
	assert.Equal(t, "2-1", string(claim.Elems[0].Elems[0].Bulk))
}

func TestFlushDBBreaksWatch(t *testing.T) {
	r := newRig(t, Options{})
	w, wfc := r.session()
	o, ofc := r.session()

	r.do(w, wfc, "SET", "k", "1")
	r.do(w, wfc, "WATCH", "k")
	r.do(w, wfc, "MULTI")
	r.do(w, wfc, "SET", "k", "2")

	r.do(o, ofc, "FLUSHDB")

	assert.Equal(t, resp.NullArray(), r.do(w, wfc, "EXEC"))
}

func TestKeyspaceNotifications(t *testing.T) {
	r := newRig(t, Options{})
	admin, afc := r.session()
	r.do(admin, afc, "CONFIG", "SET", "notify-keyspace-events", "KEA")

	sub, sfc := r.session()
	r.do(sub, sfc, "PSUBSCRIBE", "__key*@0__:*")

	writer, wfc := r.session()
	r.do(writer, wfc, "SET", "k", "v")

	// psubscribe ack + keyspace + keyevent frames.
	require.GreaterOrEqual(t, sfc.frameCount(), 3)
	var events []string
	for i := 1; i < sfc.frameCount(); i++ {
		frame := sfc.frameAt(i)
		events = append(events, string(frame.Elems[2].Bulk))
	}
	assert.Contains(t, events, "__keyspace@0__:k")
	assert.Contains(t, events, "__keyevent@0__:set")
}

func TestTypeCommand(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "s", "v")
	r.do(sess, fc, "RPUSH", "l", "v")
	r.do(sess, fc, "HSET", "h", "f", "v")
	r.do(sess, fc, "SADD", "set", "v")
	r.do(sess, fc, "ZADD", "z", "1", "v")
	r.do(sess, fc, "XADD", "x", "*", "f", "v")

	for key, want := range map[string]string{
		"s": "string", "l": "list", "h": "hash",
		"set": "set", "z": "zset", "x": "stream",
		"missing": "none",
	} {
		assert.Equal(t, resp.SimpleString(want), r.do(sess, fc, "TYPE", key), "key %s", key)
	}
}

func TestResetCommand(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SELECT", "2")
	r.do(sess, fc, "MULTI")
	reply := r.do(sess, fc, "RESET")
	assert.Equal(t, resp.SimpleString("RESET"), reply)
	assert.Equal(t, 0, sess.DB())
	assert.False(t, sess.InTx())
}

func TestGetDelGetEx(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	r.do(sess, fc, "SET", "k", "v")
	assert.Equal(t, "v", string(r.do(sess, fc, "GETDEL", "k").Bulk))
	assert.Equal(t, resp.Integer(0), r.do(sess, fc, "EXISTS", "k"))

	r.do(sess, fc, "SET", "k", "v")
	r.do(sess, fc, "GETEX", "k", "EX", "100")
	assert.Equal(t, resp.Integer(100), r.do(sess, fc, "TTL", "k"))
	r.do(sess, fc, "GETEX", "k", "PERSIST")
	assert.Equal(t, resp.Integer(-1), r.do(sess, fc, "TTL", "k"))
}

func TestScanWalksEverything(t *testing.T) {
	r := newRig(t, Options{})
	sess, fc := r.session()

	for i := 0; i < 25; i++ {
		r.do(sess, fc, "SET", "key:"+intToString(int64(i)), "v")
	}

	seen := make(map[string]bool)
	cursor := "0"
	for {
		reply := r.do(sess, fc, "SCAN", cursor, "COUNT", "7")
		require.Equal(t, resp.KindArray, reply.Kind)
		cursor = string(reply.Elems[0].Bulk)
		for _, k := range reply.Elems[1].Elems {
			seen[string(k.Bulk)] = true
		}
		if cursor == "0" {
			break
		}
	}
	assert.Len(t, seen, 25)
}
