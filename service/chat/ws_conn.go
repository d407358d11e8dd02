package chat

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"LinkIM/logger"

	"github.com/gorilla/websocket"
)

const sendQueueSize = 256

// WsConn is one live client connection. Writes go through SendChan and a
// single writer goroutine (gorilla conns must not be written concurrently);
// everything else only enqueues.
type WsConn struct {
	SnowID     string
	UserID     string // set by ConnManager.Bind, empty until authenticated
	Authorized bool

	Conn   *websocket.Conn // nil for in-process connections (tests)
	Remote net.Addr

	CreatedAt time.Time
	SendChan  chan []byte

	closed atomic.Bool
}

func NewWsConn(snowID string, conn *websocket.Conn) *WsConn {
	w := &WsConn{
		SnowID:    snowID,
		Conn:      conn,
		CreatedAt: time.Now(),
		SendChan:  make(chan []byte, sendQueueSize),
	}
	if conn != nil {
		w.Remote = conn.RemoteAddr()
	}
	return w
}

// Live reports whether the transport is still considered up.
func (c *WsConn) Live() bool { return !c.closed.Load() }

// MarkClosed flips the liveness flag; idempotent.
func (c *WsConn) MarkClosed() { c.closed.Store(true) }

// CloseQuiet marks the connection dead and closes the transport if any.
func (c *WsConn) CloseQuiet() {
	c.MarkClosed()
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

var errConnClosed = errors.New("connection closed")

// Emit serializes one event frame and enqueues it for the writer. A full
// queue drops the frame: every emit in this gateway is fire-and-forget.
func (c *WsConn) Emit(event string, data any) error {
	if !c.Live() {
		return errConnClosed
	}
	raw, err := MarshalFrame(event, data)
	if err != nil {
		return err
	}
	select {
	case c.SendChan <- raw:
		return nil
	default:
		logger.Warnf("[ws] send queue full, drop event=%s snowID=%s user=%s", event, c.SnowID, c.UserID)
		return nil
	}
}
