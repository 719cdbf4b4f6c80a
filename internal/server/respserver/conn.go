package respserver

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/keymesh-go/internal/resp"
)

// conn adapts one TCP connection to the engine.Conn interface. The
// write mutex is what lets pub/sub pushes interleave safely with
// command replies: every frame goes out whole.
type conn struct {
	netConn      net.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	bw      *bufio.Writer
	writer  *resp.Writer

	closed atomic.Bool
	done   chan struct{}
}

func newConn(c net.Conn) *conn {
	return newConnTimeout(c, 0)
}

func newConnTimeout(c net.Conn, writeTimeout time.Duration) *conn {
	bw := bufio.NewWriter(c)
	return &conn{
		netConn:      c,
		writeTimeout: writeTimeout,
		bw:           bw,
		writer:       resp.NewWriter(bw, 2),
		done:         make(chan struct{}),
	}
}

// Done implements engine.Conn.
func (c *conn) Done() <-chan struct{} { return c.done }

// WriteReply implements engine.Conn.
func (c *conn) WriteReply(v resp.Value) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return net.ErrClosed
	}
	if c.writeTimeout > 0 {
		_ = c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.writer.WriteValue(v); err != nil {
		return err
	}
	return c.bw.Flush()
}

// SetProtocol implements engine.Conn.
func (c *conn) SetProtocol(proto int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.writer.SetProtocol(proto)
}

// CloseConn implements engine.Conn.
func (c *conn) CloseConn() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
		_ = c.netConn.Close()
	}
}

// RemoteAddr implements engine.Conn.
func (c *conn) RemoteAddr() string {
	return c.netConn.RemoteAddr().String()
}
