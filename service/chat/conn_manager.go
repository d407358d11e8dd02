package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"LinkIM/logger"
)

// ===== config =====

type ManagerConf struct {
	SweepEvery time.Duration    // stale-connection sweep interval (default 30s)
	UnauthTTL  time.Duration    // max lifetime of an unauthenticated connection; <=0 keeps them forever
	Clock      func() time.Time // injectable clock for tests; nil => time.Now
}

func (c *ManagerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 30 * time.Second
	}
}

// ===== manager =====

// ConnManager is the authoritative presence registry: user id -> the one
// live connection bound for that user. Binding is last-wins; unbinding
// only removes the entry when it still points at the same connection, so
// a stale connection's late disconnect can never evict a newer session.
type ConnManager struct {
	mu     sync.RWMutex
	byUser map[string]*WsConn // user id -> bound connection (at most one)
	bySnow map[string]*WsConn // conn id -> connection (bound or not)

	conf     ManagerConf
	gwID     string
	stopCh   chan struct{}
	stopOnce sync.Once

	onSweep    func(userID string, c *WsConn) // runs outside the lock, after a sweep eviction
	sweptTotal atomic.Int64
}

func NewConnManager(gwID string) *ConnManager {
	return NewConnManagerWithConf(ManagerConf{}, gwID)
}

func NewConnManagerWithConf(conf ManagerConf, gwID string) *ConnManager {
	conf.norm()
	m := &ConnManager{
		byUser: make(map[string]*WsConn),
		bySnow: make(map[string]*WsConn),
		conf:   conf,
		gwID:   gwID,
		stopCh: make(chan struct{}),
	}
	go m.sweeper()
	return m
}

func (m *ConnManager) GwID() string { return m.gwID }

// SetOnSweep installs the eviction hook the sweeper fires for each entry
// it removes. Must be set before connections start arriving.
func (m *ConnManager) SetOnSweep(fn func(userID string, c *WsConn)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSweep = fn
}

func (m *ConnManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.bySnow {
		w.CloseQuiet()
	}
	m.byUser = map[string]*WsConn{}
	m.bySnow = map[string]*WsConn{}
}

// ===== registration / binding =====

// Track registers a freshly accepted (still unauthenticated) connection.
func (m *ConnManager) Track(c *WsConn) {
	if c == nil || c.SnowID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySnow[c.SnowID] = c
}

// Bind points the user's registry slot at c, replacing any previous
// connection. Returns the replaced connection (nil if none, or if c was
// already the bound one). The replaced connection is NOT closed here;
// that is the caller's call.
func (m *ConnManager) Bind(userID string, c *WsConn) *WsConn {
	if userID == "" || c == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.byUser[userID]
	m.byUser[userID] = c
	m.bySnow[c.SnowID] = c
	c.UserID = userID
	c.Authorized = true

	if prev == c {
		return nil
	}
	return prev
}

// Lookup returns the connection currently bound for the user.
func (m *ConnManager) Lookup(userID string) (*WsConn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byUser[userID]
	return c, ok
}

func (m *ConnManager) IsPresent(userID string) bool {
	_, ok := m.Lookup(userID)
	return ok
}

// UnbindIfCurrent removes the user's entry only if it still points at c
// (pointer identity). Reports whether the entry was removed.
func (m *ConnManager) UnbindIfCurrent(userID string, c *WsConn) bool {
	if userID == "" || c == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byUser[userID]; ok && cur == c {
		delete(m.byUser, userID)
		return true
	}
	return false
}

// Drop removes a connection from the tracking index on transport
// disconnect. The user slot is left to UnbindIfCurrent.
func (m *ConnManager) Drop(c *WsConn) {
	if c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bySnow, c.SnowID)
}

// SnapshotIDs returns a point-in-time copy of the bound user ids.
func (m *ConnManager) SnapshotIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byUser))
	for id := range m.byUser {
		out = append(out, id)
	}
	return out
}

func (m *ConnManager) OnlineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser)
}

func (m *ConnManager) SweptTotal() int64 { return m.sweptTotal.Load() }

// ===== sweeper =====

func (m *ConnManager) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.SweepOnce(m.conf.Clock())
		}
	}
}

// SweepOnce removes bound entries whose connection is no longer live and,
// when UnauthTTL is set, unauthenticated connections past their deadline.
// Returns the number of evicted user entries.
func (m *ConnManager) SweepOnce(now time.Time) int {
	type evicted struct {
		userID string
		conn   *WsConn
	}
	var dead []evicted

	m.mu.Lock()
	for id, w := range m.byUser {
		if !w.Live() {
			delete(m.byUser, id)
			delete(m.bySnow, w.SnowID)
			dead = append(dead, evicted{userID: id, conn: w})
		}
	}
	if m.conf.UnauthTTL > 0 {
		for sid, w := range m.bySnow {
			if !w.Authorized && now.Sub(w.CreatedAt) > m.conf.UnauthTTL {
				delete(m.bySnow, sid)
				dead = append(dead, evicted{conn: w})
			}
		}
	}
	hook := m.onSweep
	m.mu.Unlock()

	n := 0
	for _, e := range dead {
		e.conn.CloseQuiet()
		if e.userID != "" {
			n++
			m.sweptTotal.Add(1)
			if hook != nil {
				hook(e.userID, e.conn)
			}
		}
	}
	if len(dead) > 0 {
		logger.Infof("[sweep] gw=%s cleaned %d stale connections (%d bound)", m.gwID, len(dead), n)
	}
	return n
}
