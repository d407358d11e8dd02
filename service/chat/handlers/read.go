package handlers

import (
	"context"
	"time"

	"LinkIM/service/chat"
	"LinkIM/tools/decode"
)

type MarkReadHandler struct{}

func NewMarkReadHandler() chat.Handler { return &MarkReadHandler{} }

func (h *MarkReadHandler) Event() string { return chat.EvMarkRead }

func (h *MarkReadHandler) Handle(ctx *chat.Context, f *chat.Frame, conn *chat.WsConn) error {
	if !conn.Authorized {
		return nil
	}
	in, err := decode.Struct[chat.MarkReadIn](f.Data)
	if err != nil {
		return err
	}
	if in.FriendID == "" {
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Store failure is logged inside; mark-read has no client error event.
	_ = ctx.S.NotifyRead(c, conn.UserID, in.FriendID)
	return nil
}
