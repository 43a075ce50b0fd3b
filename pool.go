package ldapx

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pool owns the physical connections behind a Conn. It is shared and
// thread-safe: any number of goroutines may check connections out
// concurrently. Idle connections wait in a buffered channel sized to
// NumConnections; checkout beyond the idle set dials on demand.
type pool struct {
	opts      *Options
	endpoints []*endpoint
	log       *zap.Logger

	mu     sync.RWMutex
	closed bool
	idle   chan *PooledConn

	// next is the round-robin cursor over endpoints (multi-host mode).
	next uint32

	active  int64
	created int64
	errors  int64
	start   time.Time
}

// PooledConn is one checked-out physical connection. Exactly one of
// Release or ReleaseDefunct must be called when the operation using it
// finishes.
type PooledConn struct {
	id       string
	conn     *ldap.Conn
	endpoint *endpoint
	lastUsed time.Time
	defunct  bool
	pool     *pool
}

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Idle    int
	Active  int64
	Created int64
	Errors  int64
	Uptime  time.Duration
}

// newPool builds the connection strategy for the resolved endpoints.
//
// With a single endpoint, one connection is dialed and bound eagerly so
// a bad credential or unreachable server fails Connect with *BindError.
// With several endpoints, construction performs no network I/O at all:
// connections bind lazily as they are checked out, round-robin with
// failover across the set. The asymmetry is part of the contract.
func newPool(opts *Options, endpoints []*endpoint, log *zap.Logger) (*pool, error) {
	p := &pool{
		opts:      opts,
		endpoints: endpoints,
		log:       log,
		idle:      make(chan *PooledConn, opts.NumConnections),
		start:     time.Now(),
	}

	if len(endpoints) == 1 {
		pc, err := p.dial(endpoints[0])
		if err != nil {
			return nil, err
		}
		p.idle <- pc
	}

	log.Debug("connection pool created",
		zap.Int("endpoints", len(endpoints)),
		zap.Int("size", opts.NumConnections),
		zap.Bool("eager_bind", len(endpoints) == 1),
	)
	return p, nil
}

// get checks a connection out, reusing an idle one when available and
// dialing otherwise.
func (p *pool) get(ctx context.Context) (*PooledConn, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case pc, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		pc.lastUsed = time.Now()
		atomic.AddInt64(&p.active, 1)
		return pc, nil
	default:
	}

	pc, err := p.dialNext()
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&p.active, 1)
	return pc, nil
}

// dialNext walks the server set round-robin, failing over to the next
// endpoint until one accepts the connection and bind.
func (p *pool) dialNext() (*PooledConn, error) {
	if len(p.endpoints) == 0 {
		return nil, newConfigError("no endpoints to dial")
	}

	start := int(atomic.AddUint32(&p.next, 1) - 1)
	var lastErr error
	for i := range p.endpoints {
		ep := p.endpoints[(start+i)%len(p.endpoints)]
		pc, err := p.dial(ep)
		if err == nil {
			return pc, nil
		}
		lastErr = err
		atomic.AddInt64(&p.errors, 1)
		p.log.Debug("endpoint failed, trying next",
			zap.String("endpoint", ep.addr(p.opts.SSL)),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// dial opens one transport connection to the endpoint and binds it to
// the pool identity. Every failure on this path is a *BindError
// carrying the protocol result where the server produced one.
func (p *pool) dial(ep *endpoint) (*PooledConn, error) {
	addr := ep.addr(p.opts.SSL)
	url := ep.url(p.opts.SSL)
	dialer := &net.Dialer{Timeout: p.opts.ConnectTimeout}

	var conn *ldap.Conn
	var err error
	if ep.useTLS(p.opts.SSL) {
		var tlsCfg *tls.Config
		tlsCfg, err = p.opts.tlsConfig()
		if err != nil {
			return nil, err
		}
		conn, err = ldap.DialURL(url, ldap.DialWithDialer(dialer), ldap.DialWithTLSConfig(tlsCfg))
	} else {
		conn, err = ldap.DialURL(url, ldap.DialWithDialer(dialer))
		if err == nil && p.opts.StartTLS {
			var tlsCfg *tls.Config
			tlsCfg, err = p.opts.tlsConfig()
			if err == nil {
				err = conn.StartTLS(tlsCfg)
			}
			if err != nil {
				conn.Close()
				conn = nil
			}
		}
	}
	if err != nil {
		return nil, newBindError(addr, err)
	}

	conn.SetTimeout(p.opts.Timeout)

	if err := p.bind(conn, ep); err != nil {
		conn.Close()
		return nil, newBindError(addr, err)
	}

	atomic.AddInt64(&p.created, 1)
	pc := &PooledConn{
		id:       uuid.NewString(),
		conn:     conn,
		endpoint: ep,
		lastUsed: time.Now(),
		pool:     p,
	}
	p.log.Debug("connection established",
		zap.String("conn_id", pc.id),
		zap.String("endpoint", addr),
	)
	return pc, nil
}

// bind establishes the shared pool identity on a fresh connection:
// GSSAPI when Kerberos is configured, simple bind for a credential
// pair, anonymous otherwise.
func (p *pool) bind(conn *ldap.Conn, ep *endpoint) error {
	switch {
	case p.opts.kerberos():
		return gssapiBind(conn, p.opts, ep.host)
	case p.opts.BindDN != "" && p.opts.Password != "":
		return conn.Bind(p.opts.BindDN, p.opts.Password)
	default:
		return conn.UnauthenticatedBind(p.opts.BindDN)
	}
}

// close shuts the pool down and closes every idle connection.
// Connections still checked out are closed when released.
func (p *pool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.idle)
	for pc := range p.idle {
		pc.conn.Close()
	}
	p.log.Debug("connection pool closed")
	return nil
}

func (p *pool) stats() PoolStats {
	return PoolStats{
		Idle:    len(p.idle),
		Active:  atomic.LoadInt64(&p.active),
		Created: atomic.LoadInt64(&p.created),
		Errors:  atomic.LoadInt64(&p.errors),
		Uptime:  time.Since(p.start),
	}
}

// Release returns the connection to the pool as healthy.
func (pc *PooledConn) Release() {
	p := pc.pool
	atomic.AddInt64(&p.active, -1)

	// The read lock excludes close(), which owns the channel shutdown.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || pc.defunct {
		pc.conn.Close()
		return
	}

	pc.lastUsed = time.Now()
	select {
	case p.idle <- pc:
	default:
		// Pool is already at capacity.
		pc.conn.Close()
	}
}

// ReleaseDefunct returns the connection marked defunct: it is closed
// and never reused, and the pool will dial a replacement on demand.
func (pc *PooledConn) ReleaseDefunct() {
	pc.defunct = true
	pc.pool.log.Debug("connection released defunct", zap.String("conn_id", pc.id))
	pc.Release()
}

// Conn exposes the underlying protocol connection.
func (pc *PooledConn) Conn() *ldap.Conn { return pc.conn }
