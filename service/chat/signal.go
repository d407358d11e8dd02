package chat

import (
	"context"

	"LinkIM/logger"
)

// Ephemeral signaling: nothing here is stored, everything routes straight
// through the registry.

// Typing forwards a typing indicator to the receiver if present. Silently
// dropped otherwise; an unauthenticated sender is ignored entirely.
func (s *Server) Typing(from *WsConn, in *TypingIn) {
	if !from.Authorized || in.ReceiverID == "" {
		return
	}
	if rc, ok := s.conns.Lookup(in.ReceiverID); ok {
		_ = rc.Emit(EvUserTyping, UserTypingOut{UserID: from.UserID, IsTyping: in.IsTyping})
	}
}

// NotifyRead marks friendID's messages to selfID as read in the store and
// tells friendID's connection, if present, who read them. Both the socket
// mark-read handler and the REST history route call this, so the two
// paths produce identical notifications.
func (s *Server) NotifyRead(ctx context.Context, selfID, friendID string) error {
	if err := s.messages.MarkRead(ctx, friendID, selfID); err != nil {
		logger.Errorf("[read] mark read err self=%s friend=%s: %v", selfID, friendID, err)
		return err
	}
	if fc, ok := s.conns.Lookup(friendID); ok {
		_ = fc.Emit(EvMessagesRead, MessagesReadOut{ReadBy: selfID})
	}
	return nil
}
