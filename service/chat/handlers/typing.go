package handlers

import (
	"LinkIM/service/chat"
	"LinkIM/tools/decode"
)

type TypingHandler struct{}

func NewTypingHandler() chat.Handler { return &TypingHandler{} }

func (h *TypingHandler) Event() string { return chat.EvTyping }

func (h *TypingHandler) Handle(ctx *chat.Context, f *chat.Frame, conn *chat.WsConn) error {
	in, err := decode.Struct[chat.TypingIn](f.Data)
	if err != nil {
		return err
	}
	ctx.S.Typing(conn, in)
	return nil
}
