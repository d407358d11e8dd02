package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// In-memory collaborators. Connections built with NewWsConn(id, nil)
// never touch the network; emitted frames pile up in SendChan.

type fakeVerifier struct {
	tokens map[string]string // token -> user id
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return "", fmt.Errorf("bad token %q", token)
}

type fakeUsers struct {
	mu       sync.Mutex
	records  map[string]*UserRecord
	presence map[string]bool
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeUsers) SetPresence(_ context.Context, id string, online bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence[id] = online
	return nil
}

type fakeFriends struct {
	mu    sync.Mutex
	pairs map[string]bool // "a|b" with a<b
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (f *fakeFriends) befriend(a, b string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs[pairKey(a, b)] = true
}

func (f *fakeFriends) AcceptedFriendIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k, ok := range f.pairs {
		if !ok {
			continue
		}
		out = append(out, friendOf(k, userID)...)
	}
	return out, nil
}

func friendOf(key, userID string) []string {
	var a, b string
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			a, b = key[:i], key[i+1:]
			break
		}
	}
	switch userID {
	case a:
		return []string{b}
	case b:
		return []string{a}
	}
	return nil
}

func (f *fakeFriends) AreFriends(_ context.Context, a, b string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[pairKey(a, b)], nil
}

type fakeMsg struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

func (m *fakeMsg) SenderID() string   { return m.Sender }
func (m *fakeMsg) ReceiverID() string { return m.Receiver }

type fakeMessages struct {
	mu         sync.Mutex
	created    []*fakeMsg
	readCalls  [][2]string // friendID, selfID
	failCreate bool
}

func (f *fakeMessages) Create(_ context.Context, senderID, receiverID, content string) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, fmt.Errorf("store down")
	}
	m := &fakeMsg{Sender: senderID, Receiver: receiverID, Content: content}
	f.created = append(f.created, m)
	return m, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, friendID, selfID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, [2]string{friendID, selfID})
	return nil
}

func (f *fakeMessages) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// ===== harness =====

type harness struct {
	srv      *Server
	conns    *ConnManager
	verifier *fakeVerifier
	users    *fakeUsers
	friends  *fakeFriends
	messages *fakeMessages
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		verifier: &fakeVerifier{tokens: map[string]string{}},
		users:    &fakeUsers{records: map[string]*UserRecord{}, presence: map[string]bool{}},
		friends:  &fakeFriends{pairs: map[string]bool{}},
		messages: &fakeMessages{},
	}
	h.conns = NewConnManagerWithConf(ManagerConf{SweepEvery: time.Hour}, "gw-test")
	t.Cleanup(h.conns.Close)
	h.srv = NewServer("gw-test", h.conns, Deps{
		Verifier: h.verifier,
		Users:    h.users,
		Friends:  h.friends,
		Messages: h.messages,
	})
	return h
}

// addUser registers an account and a matching token ("tok-<id>").
func (h *harness) addUser(id, codeName string) string {
	h.users.mu.Lock()
	h.users.records[id] = &UserRecord{ID: id, CodeName: codeName}
	h.users.mu.Unlock()
	token := "tok-" + id
	h.verifier.tokens[token] = id
	return token
}

// connect authenticates a fresh in-memory connection for the user and
// drains its handshake traffic.
func (h *harness) connect(t *testing.T, id string) *WsConn {
	t.Helper()
	conn := NewWsConn("snow-"+id+"-"+fmt.Sprint(time.Now().UnixNano()), nil)
	h.conns.Track(conn)
	h.srv.Authenticate(context.Background(), conn, "tok-"+id)
	if !conn.Authorized {
		t.Fatalf("connect: %s did not authenticate", id)
	}
	drain(conn)
	return conn
}

// drain empties a connection's send queue, returning the decoded frames.
func drain(c *WsConn) []Frame {
	var out []Frame
	for {
		select {
		case raw := <-c.SendChan:
			var f Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

func eventsOf(frames []Frame, event string) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func dataMap(t *testing.T, f Frame) map[string]any {
	t.Helper()
	m, ok := f.Data.(map[string]any)
	if !ok {
		t.Fatalf("frame data is %T, want object", f.Data)
	}
	return m
}
