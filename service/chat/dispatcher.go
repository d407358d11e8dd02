package chat

// Handler processes one inbound event kind. Handlers run on the owning
// connection's read goroutine, so per-connection ordering is free.
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, conn *WsConn) error
}

type Context struct {
	S *Server
}

// Dispatcher maps inbound event names to handlers. Registration happens
// once at startup; Dispatch is read-only after that.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) GetHandler(event string) Handler {
	return d.handlers[event]
}

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, conn *WsConn) error {
	h := d.handlers[f.Event]
	if h == nil {
		return nil
	}
	return h.Handle(ctx, f, conn)
}
