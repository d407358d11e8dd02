package chat

import (
	"context"
	"strings"

	"LinkIM/logger"
)

// Broadcast delivers a persisted message to both endpoints' live
// connections. Best-effort: an absent party is a no-op, they will pick
// the message up from history. Used by the socket send path and the REST
// send route alike.
func (s *Server) Broadcast(msg Message) {
	if rc, ok := s.conns.Lookup(msg.ReceiverID()); ok {
		_ = rc.Emit(EvNewMessage, NewMessageOut{Message: msg})
	}
	if sc, ok := s.conns.Lookup(msg.SenderID()); ok {
		_ = sc.Emit(EvNewMessage, NewMessageOut{Message: msg})
	}
	if s.sink != nil {
		s.sink.MessageDelivered(msg)
	}
}

// SendLive is the socket-origin send path: validate, persist, deliver to
// the receiver, then ack the sender (unicast) with the persisted message
// and the client's tempId so it can reconcile its optimistic placeholder.
func (s *Server) SendLive(ctx context.Context, from *WsConn, in *SendMessageIn) {
	if !from.Authorized {
		_ = from.Emit(EvMessageError, MessageErrorOut{Message: "Not authenticated", TempID: in.TempID})
		return
	}
	content := strings.TrimSpace(in.Content)
	if content == "" || in.ReceiverID == "" {
		_ = from.Emit(EvMessageError, MessageErrorOut{Message: "Message content is required", TempID: in.TempID})
		return
	}

	ok, err := s.friends.AreFriends(ctx, from.UserID, in.ReceiverID)
	if err != nil {
		logger.Errorf("[send] friendship check err %s->%s: %v", from.UserID, in.ReceiverID, err)
		_ = from.Emit(EvMessageError, MessageErrorOut{Message: "Failed to send", TempID: in.TempID})
		return
	}
	if !ok {
		_ = from.Emit(EvMessageError, MessageErrorOut{Message: "Not friends", TempID: in.TempID})
		return
	}

	msg, err := s.messages.Create(ctx, from.UserID, in.ReceiverID, content)
	if err != nil {
		logger.Errorf("[send] persist err %s->%s: %v", from.UserID, in.ReceiverID, err)
		_ = from.Emit(EvMessageError, MessageErrorOut{Message: "Failed to send", TempID: in.TempID})
		return
	}

	if rc, ok := s.conns.Lookup(in.ReceiverID); ok {
		_ = rc.Emit(EvNewMessage, NewMessageOut{Message: msg})
	}
	_ = from.Emit(EvMessageSent, MessageSentOut{Message: msg, TempID: in.TempID})

	if s.sink != nil {
		s.sink.MessageDelivered(msg)
	}
}
