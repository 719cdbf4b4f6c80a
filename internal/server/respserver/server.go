package respserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/keymesh-go/internal/engine"
	"github.com/yndnr/keymesh-go/internal/resp"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout is the timeout for reading a command once its first
	// byte arrived (default: 30s). Guards against slowloris clients.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout disconnects clients idle between commands; zero
	// keeps them forever.
	IdleTimeout time.Duration
	// MaxClients caps concurrent connections; zero means no cap.
	MaxClients int
	// ConnRatePerSec caps new connections per client IP per second;
	// zero disables the limiter.
	ConnRatePerSec int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// ipLimiter is a per-IP token bucket for connection admission.
type ipLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

func newIPLimiter(perSec int) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(perSec),
		burst:   perSec,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.buckets[ip]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.buckets[ip] = lim
	}
	return lim.Allow()
}

// Server accepts RESP connections and drives them against the engine.
type Server struct {
	cfg     *Config
	eng     *engine.Server
	logger  *slog.Logger
	ln      net.Listener
	limiter *ipLimiter
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a RESP server over an engine.
func New(cfg *Config, eng *engine.Server, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, eng: eng, logger: logger}
	if cfg.ConnRatePerSec > 0 {
		s.limiter = newIPLimiter(cfg.ConnRatePerSec)
	}
	return s
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Start binds the listener and begins accepting in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("resp server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting, force-unblocks parked clients and waits for
// connection goroutines to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.eng.Shutdown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if s.limiter != nil && !s.limiter.allow(peerIP(nc)) {
			s.logger.Warn("connection rate limit exceeded", "remote", nc.RemoteAddr())
			_ = nc.Close()
			continue
		}
		if s.cfg.MaxClients > 0 && s.eng.ClientCount() >= s.cfg.MaxClients {
			c := newConn(nc)
			_ = c.WriteReply(resp.ErrString("ERR max number of clients reached"))
			_ = nc.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(nc)
		}()
	}
}

func peerIP(nc net.Conn) string {
	addr := nc.RemoteAddr().String()
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func (s *Server) serveConn(nc net.Conn) {
	c := newConnTimeout(nc, s.cfg.WriteTimeout)
	defer c.CloseConn()

	sess := s.eng.NewSession(c)
	defer s.eng.CloseSession(sess)

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	reader := resp.NewCommandReader()
	buf := make([]byte, 16*1024)

	for {
		// Idle deadline between commands; per-command deadline once
		// bytes start flowing would require peeking, so the idle
		// deadline also bounds a stalled frame.
		if s.cfg.IdleTimeout > 0 {
			_ = nc.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		} else {
			_ = nc.SetReadDeadline(time.Time{})
		}

		n, err := nc.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Debug("connection idle timeout", "remote", c.RemoteAddr())
				return
			}
			return
		}
		reader.Feed(buf[:n])

		// A frame is in flight: tighten the deadline until it parses.
		_ = nc.SetReadDeadline(time.Now().Add(readTimeout))

		for {
			args, err := reader.Next()
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			if err != nil {
				// Framing errors are fatal for the connection.
				s.logger.Debug("protocol error", "remote", c.RemoteAddr(), "error", err)
				_ = c.WriteReply(resp.Err("ERR", "Protocol error: "+err.Error()))
				return
			}
			s.eng.Execute(sess, args)
			if sess.Quitting() {
				return
			}
		}
	}
}
