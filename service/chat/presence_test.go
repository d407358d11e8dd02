package chat

import (
	"context"
	"testing"
	"time"
)

func TestAuthenticateEmptyToken(t *testing.T) {
	h := newHarness(t)
	conn := NewWsConn("s1", nil)
	h.conns.Track(conn)

	h.srv.Authenticate(context.Background(), conn, "")

	frames := drain(conn)
	errs := eventsOf(frames, EvAuthError)
	if len(errs) != 1 {
		t.Fatalf("got %d auth-error frames, want 1", len(errs))
	}
	if msg := dataMap(t, errs[0])["message"]; msg != "No token provided" {
		t.Fatalf("auth-error message = %v", msg)
	}
	if conn.Authorized || h.conns.OnlineCount() != 0 {
		t.Fatal("connection bound despite missing token")
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	h := newHarness(t)
	conn := NewWsConn("s1", nil)
	h.conns.Track(conn)

	h.srv.Authenticate(context.Background(), conn, "garbage")

	errs := eventsOf(drain(conn), EvAuthError)
	if len(errs) != 1 {
		t.Fatalf("got %d auth-error frames, want 1", len(errs))
	}
	if msg := dataMap(t, errs[0])["message"]; msg != "Authentication failed" {
		t.Fatalf("auth-error message = %v", msg)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	h := newHarness(t)
	// Token verifies but no account behind it.
	h.verifier.tokens["tok-ghost"] = "ghost"
	conn := NewWsConn("s1", nil)
	h.conns.Track(conn)

	h.srv.Authenticate(context.Background(), conn, "tok-ghost")

	errs := eventsOf(drain(conn), EvAuthError)
	if len(errs) != 1 {
		t.Fatalf("got %d auth-error frames, want 1", len(errs))
	}
	if msg := dataMap(t, errs[0])["message"]; msg != "User not found" {
		t.Fatalf("auth-error message = %v", msg)
	}
	if h.conns.IsPresent("ghost") {
		t.Fatal("unknown user ended up bound")
	}
}

func TestAuthenticateAnnouncesToFriends(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.friends.befriend("alice", "bob")

	bobConn := h.connect(t, "bob")

	aliceConn := NewWsConn("s-alice", nil)
	h.conns.Track(aliceConn)
	h.srv.Authenticate(context.Background(), aliceConn, "tok-alice")

	// Bob hears exactly once that alice came online.
	bobStatus := eventsOf(drain(bobConn), EvUserStatus)
	if len(bobStatus) != 1 {
		t.Fatalf("bob got %d user-status frames, want 1", len(bobStatus))
	}
	d := dataMap(t, bobStatus[0])
	if d["userId"] != "alice" || d["isOnline"] != true {
		t.Fatalf("bob's user-status = %v", d)
	}

	// Alice gets her snapshot, then the authenticated ack.
	aliceFrames := drain(aliceConn)
	snap := eventsOf(aliceFrames, EvUserStatus)
	if len(snap) != 1 {
		t.Fatalf("alice got %d snapshot frames, want 1", len(snap))
	}
	d = dataMap(t, snap[0])
	if d["userId"] != "bob" || d["isOnline"] != true {
		t.Fatalf("alice's snapshot = %v", d)
	}
	acks := eventsOf(aliceFrames, EvAuthenticated)
	if len(acks) != 1 {
		t.Fatalf("alice got %d authenticated frames, want 1", len(acks))
	}
	if dataMap(t, acks[0])["userId"] != "alice" {
		t.Fatalf("authenticated payload = %v", acks[0].Data)
	}

	h.users.mu.Lock()
	online := h.users.presence["alice"]
	h.users.mu.Unlock()
	if !online {
		t.Fatal("alice's presence not persisted as online")
	}
}

func TestSnapshotIncludesOfflineFriends(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.addUser("carol", "carol")
	h.friends.befriend("alice", "bob")
	h.friends.befriend("alice", "carol")

	h.connect(t, "carol")

	aliceConn := NewWsConn("s-alice", nil)
	h.conns.Track(aliceConn)
	h.srv.Authenticate(context.Background(), aliceConn, "tok-alice")

	snap := eventsOf(drain(aliceConn), EvUserStatus)
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d frames, want one per friend (2)", len(snap))
	}
	got := map[string]bool{}
	for _, f := range snap {
		d := dataMap(t, f)
		got[d["userId"].(string)] = d["isOnline"] == true
	}
	if got["bob"] || !got["carol"] {
		t.Fatalf("snapshot flags = %v, want bob offline, carol online", got)
	}
}

func TestReplaceClosesOldConnection(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")

	c1 := h.connect(t, "alice")
	c2 := NewWsConn("s-alice-2", nil)
	h.conns.Track(c2)
	h.srv.Authenticate(context.Background(), c2, "tok-alice")

	if got, _ := h.conns.Lookup("alice"); got != c2 {
		t.Fatal("newest connection did not win the bind")
	}
	if c1.Live() {
		t.Fatal("replaced connection left open")
	}
}

func TestDisconnectAnnouncesOffline(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.friends.befriend("alice", "bob")

	aliceConn := h.connect(t, "alice")
	bobConn := h.connect(t, "bob")
	drain(aliceConn)

	h.srv.Disconnected(aliceConn)

	if h.conns.IsPresent("alice") {
		t.Fatal("alice still present after disconnect")
	}
	status := eventsOf(drain(bobConn), EvUserStatus)
	if len(status) != 1 {
		t.Fatalf("bob got %d user-status frames, want 1", len(status))
	}
	d := dataMap(t, status[0])
	if d["userId"] != "alice" || d["isOnline"] != false {
		t.Fatalf("bob's user-status = %v", d)
	}

	h.users.mu.Lock()
	online := h.users.presence["alice"]
	h.users.mu.Unlock()
	if online {
		t.Fatal("alice's presence not persisted as offline")
	}
}

// Late disconnect of a replaced connection: the newer session stays
// bound and friends hear nothing.
func TestStaleDisconnectKeepsNewerSession(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.friends.befriend("alice", "bob")

	bobConn := h.connect(t, "bob")
	c1 := h.connect(t, "alice")
	c2 := NewWsConn("s-alice-2", nil)
	h.conns.Track(c2)
	h.srv.Authenticate(context.Background(), c2, "tok-alice")
	drain(bobConn)

	h.srv.Disconnected(c1)

	if got, ok := h.conns.Lookup("alice"); !ok || got != c2 {
		t.Fatal("stale disconnect evicted the newer session")
	}
	if n := len(eventsOf(drain(bobConn), EvUserStatus)); n != 0 {
		t.Fatalf("bob got %d user-status frames for a stale disconnect, want 0", n)
	}
}

// A connection that dies without a close frame is evicted by the sweeper
// through the same offline path as a clean disconnect.
func TestSweeperAnnouncesOffline(t *testing.T) {
	h := newHarness(t)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.friends.befriend("alice", "bob")

	aliceConn := h.connect(t, "alice")
	bobConn := h.connect(t, "bob")
	drain(aliceConn)

	aliceConn.MarkClosed()
	if n := h.conns.SweepOnce(time.Now()); n != 1 {
		t.Fatalf("SweepOnce evicted %d, want 1", n)
	}

	if h.conns.IsPresent("alice") {
		t.Fatal("alice still present after sweep")
	}
	status := eventsOf(drain(bobConn), EvUserStatus)
	if len(status) != 1 {
		t.Fatalf("bob got %d user-status frames, want 1", len(status))
	}
	d := dataMap(t, status[0])
	if d["userId"] != "alice" || d["isOnline"] != false {
		t.Fatalf("bob's user-status = %v", d)
	}
}
