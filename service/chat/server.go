package chat

import (
	"context"
	"time"

	"LinkIM/logger"
)

// ===== collaborator contracts =====
// The gateway core routes; it never owns credentials, relationships or
// message durability. Those live behind the interfaces below.

type UserRecord struct {
	ID       string
	CodeName string
	IsAdmin  bool
}

type TokenVerifier interface {
	// Verify validates a bearer token and returns the subject user id.
	Verify(token string) (string, error)
}

type UserStore interface {
	// FindByID returns (nil, nil) when the user does not exist.
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	// SetPresence persists the online flag and last-seen stamp; best-effort.
	SetPresence(ctx context.Context, id string, online bool, lastSeen time.Time) error
}

type FriendStore interface {
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// Message is the routed payload. The core only reads the two endpoints;
// the rest of the document is opaque and forwarded as-is.
type Message interface {
	SenderID() string
	ReceiverID() string
}

type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID, content string) (Message, error)
	MarkRead(ctx context.Context, friendID, selfID string) error
}

// PresenceMirror is an optional best-effort replica of presence state
// (redis). Never authoritative.
type PresenceMirror interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

// EventSink is an optional firehose for downstream consumers (NATS).
type EventSink interface {
	PresenceChanged(userID string, online bool, at time.Time)
	MessageDelivered(msg Message)
}

// ===== server =====

type Deps struct {
	Verifier TokenVerifier
	Users    UserStore
	Friends  FriendStore
	Messages MessageStore
	Mirror   PresenceMirror // optional
	Sink     EventSink      // optional
}

// Server ties the registry to the collaborators and carries the fan-out,
// presence and signaling routines. REST handlers and socket handlers both
// go through the same Server methods so the two paths cannot diverge.
type Server struct {
	gwID  string
	conns *ConnManager
	disp  *Dispatcher

	verifier TokenVerifier
	users    UserStore
	friends  FriendStore
	messages MessageStore
	mirror   PresenceMirror
	sink     EventSink
}

func NewServer(gwID string, conns *ConnManager, deps Deps) *Server {
	s := &Server{
		gwID:     gwID,
		conns:    conns,
		disp:     NewDispatcher(),
		verifier: deps.Verifier,
		users:    deps.Users,
		friends:  deps.Friends,
		messages: deps.Messages,
		mirror:   deps.Mirror,
		sink:     deps.Sink,
	}
	// Sweeper-evicted entries go through the same offline path as a clean
	// disconnect, so both produce identical notifications.
	conns.SetOnSweep(func(userID string, _ *WsConn) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.AnnounceOffline(ctx, userID)
	})
	return s
}

func (s *Server) ConnMgr() *ConnManager { return s.conns }
func (s *Server) Disp() *Dispatcher     { return s.disp }

// Authenticate runs the handshake for a credential received over conn:
// verify the token, resolve the user, bind the connection, then announce.
// Safe to call again on an already-authenticated connection (re-bind of
// the same connection, last call wins).
func (s *Server) Authenticate(ctx context.Context, conn *WsConn, token string) {
	if token == "" {
		_ = conn.Emit(EvAuthError, AuthErrorOut{Message: "No token provided"})
		return
	}

	userID, err := s.verifier.Verify(token)
	if err != nil {
		logger.Infof("[auth] verify failed snowID=%s: %v", conn.SnowID, err)
		_ = conn.Emit(EvAuthError, AuthErrorOut{Message: "Authentication failed"})
		return
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("[auth] user lookup err user=%s: %v", userID, err)
		_ = conn.Emit(EvAuthError, AuthErrorOut{Message: "Authentication failed"})
		return
	}
	if u == nil {
		_ = conn.Emit(EvAuthError, AuthErrorOut{Message: "User not found"})
		return
	}

	prev := s.conns.Bind(u.ID, conn)
	if prev != nil {
		// Replaced session from another tab/device: close it so it does
		// not linger as an orphan.
		logger.Infof("[auth] replacing old connection for user=%s old=%s new=%s", u.ID, prev.SnowID, conn.SnowID)
		prev.CloseQuiet()
	}

	logger.Infof("[auth] %s authenticated snowID=%s online=%d", u.CodeName, conn.SnowID, s.conns.OnlineCount())

	s.AnnounceOnline(ctx, u.ID, conn)
	_ = conn.Emit(EvAuthenticated, AuthenticatedOut{UserID: u.ID})
}

// Disconnected is the single transport-level disconnect path: drop the
// tracking entry, unbind if this connection still owns the user slot, and
// announce offline only in that case.
func (s *Server) Disconnected(conn *WsConn) {
	conn.MarkClosed()
	s.conns.Drop(conn)
	if conn.UserID == "" {
		return
	}
	if s.conns.UnbindIfCurrent(conn.UserID, conn) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		logger.Infof("[ws] %s offline online=%d", conn.UserID, s.conns.OnlineCount())
		s.AnnounceOffline(ctx, conn.UserID)
	}
}
