package chat

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *ConnManager {
	t.Helper()
	// Long interval keeps the background sweeper out of the way; tests
	// drive SweepOnce by hand.
	m := NewConnManagerWithConf(ManagerConf{SweepEvery: time.Hour}, "gw-test")
	t.Cleanup(m.Close)
	return m
}

func TestBindLastWins(t *testing.T) {
	m := newTestManager(t)
	c1 := NewWsConn("s1", nil)
	c2 := NewWsConn("s2", nil)
	m.Track(c1)
	m.Track(c2)

	if prev := m.Bind("alice", c1); prev != nil {
		t.Fatalf("first bind returned prev=%v, want nil", prev.SnowID)
	}
	prev := m.Bind("alice", c2)
	if prev != c1 {
		t.Fatalf("second bind returned prev=%v, want c1", prev)
	}
	got, ok := m.Lookup("alice")
	if !ok || got != c2 {
		t.Fatalf("Lookup after rebind = %v, want c2", got)
	}
	if m.OnlineCount() != 1 {
		t.Fatalf("OnlineCount = %d, want 1", m.OnlineCount())
	}
}

func TestRebindSameConnectionReturnsNil(t *testing.T) {
	m := newTestManager(t)
	c := NewWsConn("s1", nil)
	m.Track(c)
	m.Bind("alice", c)
	if prev := m.Bind("alice", c); prev != nil {
		t.Fatalf("rebinding same conn returned prev=%v, want nil", prev.SnowID)
	}
}

// A stale connection's late disconnect must never evict the session that
// replaced it.
func TestUnbindIgnoresStaleConnection(t *testing.T) {
	m := newTestManager(t)
	old := NewWsConn("s-old", nil)
	neu := NewWsConn("s-new", nil)
	m.Track(old)
	m.Bind("alice", old)
	m.Track(neu)
	m.Bind("alice", neu)

	if m.UnbindIfCurrent("alice", old) {
		t.Fatal("UnbindIfCurrent removed the entry for a stale connection")
	}
	got, ok := m.Lookup("alice")
	if !ok || got != neu {
		t.Fatalf("alice's slot = %v, want the newer connection", got)
	}

	if !m.UnbindIfCurrent("alice", neu) {
		t.Fatal("UnbindIfCurrent refused the current connection")
	}
	if m.IsPresent("alice") {
		t.Fatal("alice still present after unbinding the current connection")
	}
}

func TestDropLeavesUserSlot(t *testing.T) {
	m := newTestManager(t)
	c := NewWsConn("s1", nil)
	m.Track(c)
	m.Bind("alice", c)
	m.Drop(c)
	if !m.IsPresent("alice") {
		t.Fatal("Drop removed the user slot; that is UnbindIfCurrent's job")
	}
}

func TestSweepEvictsDeadBoundConnection(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	var swept []string
	m.SetOnSweep(func(userID string, _ *WsConn) {
		mu.Lock()
		swept = append(swept, userID)
		mu.Unlock()
	})

	live := NewWsConn("s-live", nil)
	dead := NewWsConn("s-dead", nil)
	m.Track(live)
	m.Track(dead)
	m.Bind("alice", live)
	m.Bind("carol", dead)
	dead.MarkClosed()

	if n := m.SweepOnce(time.Now()); n != 1 {
		t.Fatalf("SweepOnce evicted %d entries, want 1", n)
	}
	if m.IsPresent("carol") {
		t.Fatal("carol still present after sweep")
	}
	if !m.IsPresent("alice") {
		t.Fatal("sweep evicted a live connection")
	}
	if m.SweptTotal() != 1 {
		t.Fatalf("SweptTotal = %d, want 1", m.SweptTotal())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(swept) != 1 || swept[0] != "carol" {
		t.Fatalf("sweep hook fired for %v, want [carol]", swept)
	}
}

func TestSweepUnauthenticatedTTL(t *testing.T) {
	m := NewConnManagerWithConf(ManagerConf{
		SweepEvery: time.Hour,
		UnauthTTL:  time.Minute,
	}, "gw-test")
	t.Cleanup(m.Close)

	stale := NewWsConn("s-stale", nil)
	stale.CreatedAt = time.Now().Add(-2 * time.Minute)
	fresh := NewWsConn("s-fresh", nil)
	m.Track(stale)
	m.Track(fresh)

	if n := m.SweepOnce(time.Now()); n != 0 {
		t.Fatalf("SweepOnce reported %d bound evictions, want 0", n)
	}
	if stale.Live() {
		t.Fatal("expired unauthenticated connection not closed")
	}
	if !fresh.Live() {
		t.Fatal("fresh unauthenticated connection was closed")
	}
}

// Churn test: whatever interleaving of binds and unbinds happens, each
// user ends up with at most one entry, and it is one of that user's own
// connections.
func TestOneConnectionPerUserUnderChurn(t *testing.T) {
	m := newTestManager(t)
	users := []string{"u1", "u2", "u3", "u4"}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				u := users[r.Intn(len(users))]
				c := NewWsConn(fmt.Sprintf("%s-g%d-i%d", u, seed, i), nil)
				m.Track(c)
				if prev := m.Bind(u, c); prev != nil {
					prev.CloseQuiet()
				}
				if r.Intn(3) == 0 {
					m.UnbindIfCurrent(u, c)
					m.Drop(c)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	if got := m.OnlineCount(); got > len(users) {
		t.Fatalf("OnlineCount = %d, want <= %d", got, len(users))
	}
	for _, u := range users {
		c, ok := m.Lookup(u)
		if !ok {
			continue
		}
		if got := c.SnowID[:2]; got != u {
			t.Fatalf("user %s bound to connection %s", u, c.SnowID)
		}
	}
}

func TestSnapshotIDs(t *testing.T) {
	m := newTestManager(t)
	for _, u := range []string{"alice", "bob"} {
		c := NewWsConn("s-"+u, nil)
		m.Track(c)
		m.Bind(u, c)
	}
	ids := m.SnapshotIDs()
	if len(ids) != 2 {
		t.Fatalf("SnapshotIDs = %v, want 2 entries", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Fatalf("SnapshotIDs = %v, missing a bound user", ids)
	}
}
