package handlers

import (
	"context"
	"time"

	"LinkIM/service/chat"
	"LinkIM/tools/decode"
)

type SendMessageHandler struct{}

func NewSendMessageHandler() chat.Handler { return &SendMessageHandler{} }

func (h *SendMessageHandler) Event() string { return chat.EvSendMessage }

func (h *SendMessageHandler) Handle(ctx *chat.Context, f *chat.Frame, conn *chat.WsConn) error {
	in, err := decode.Struct[chat.SendMessageIn](f.Data)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx.S.SendLive(c, conn, in)
	return nil
}
