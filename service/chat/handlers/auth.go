package handlers

import (
	"context"
	"time"

	"LinkIM/service/chat"
)

type AuthHandler struct{}

func NewAuthHandler() chat.Handler { return &AuthHandler{} }

func (h *AuthHandler) Event() string { return chat.EvAuthenticate }

func (h *AuthHandler) Handle(ctx *chat.Context, f *chat.Frame, conn *chat.WsConn) error {
	token := chat.TokenFromAuthData(f.Data)
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ctx.S.Authenticate(c, conn, token)
	return nil
}
