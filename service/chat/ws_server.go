package chat

import (
	"net"
	"net/http"
	"time"

	"LinkIM/logger"
	"LinkIM/tools/ids"
	"LinkIM/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	readLimit     = 1 << 20 // 1MB
	readDeadline  = 60 * time.Second
	writeDeadline = 5 * time.Second
	pingEvery     = 30 * time.Second
)

// HandleWS upgrades the request and runs the connection to completion:
// one read loop (this goroutine) and one writer goroutine draining the
// send queue. Events are handled inline on the read loop, which preserves
// per-connection ordering.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	conn := NewWsConn(ids.GenerateString(), ws)
	s.conns.Track(conn)
	logger.Infof("[ws] new connection snowID=%s remote=%v", conn.SnowID, conn.Remote)

	safe.Go(func() { s.writePump(conn) })

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(readDeadline))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed snowID=%s", conn.SnowID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout snowID=%s", conn.SnowID)
			} else {
				logger.Infof("[ws] read err snowID=%s err=%v", conn.SnowID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame snowID=%s err=%v sample=%q", conn.SnowID, perr, sample)
			continue
		}

		if h := s.disp.GetHandler(frame.Event); h != nil {
			if herr := h.Handle(&Context{S: s}, frame, conn); herr != nil {
				logger.Infof("[ws] handler err event=%s snowID=%s err=%v", frame.Event, conn.SnowID, herr)
			}
		} else {
			logger.Infof("[ws] no handler for event=%q snowID=%s", frame.Event, conn.SnowID)
		}
	}

	s.Disconnected(conn)
	_ = ws.Close()
}

// writePump is the single writer for one connection: drains the send
// queue with a write deadline and keeps the transport alive with pings.
func (s *Server) writePump(conn *WsConn) {
	t := time.NewTicker(pingEvery)
	defer t.Stop()

	for {
		select {
		case raw := <-conn.SendChan:
			if !conn.Live() {
				return
			}
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				logger.Infof("[ws] write err snowID=%s err=%v", conn.SnowID, err)
				// Closing the transport unblocks the read loop, which runs
				// the disconnect path.
				conn.CloseQuiet()
				return
			}
		case <-t.C:
			if !conn.Live() {
				return
			}
			if err := conn.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeDeadline)); err != nil {
				conn.CloseQuiet()
				return
			}
		}
	}
}
