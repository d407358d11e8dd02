package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire protocol: one JSON object per websocket text message,
// {"event": <name>, "data": <payload>}. Event names below are the
// compatibility contract with the web client and must not change.

const (
	// inbound
	EvAuthenticate = "authenticate"
	EvSendMessage  = "send-message"
	EvTyping       = "typing"
	EvMarkRead     = "mark-read"

	// outbound
	EvAuthenticated = "authenticated"
	EvAuthError     = "auth-error"
	EvNewMessage    = "new-message"
	EvMessageSent   = "message-sent"
	EvMessageError  = "message-error"
	EvUserTyping    = "user-typing"
	EvMessagesRead  = "messages-read"
	EvUserStatus    = "user-status"
)

type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame has no event")
	}
	return f, nil
}

func MarshalFrame(event string, data any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

// ===== inbound payloads =====

type SendMessageIn struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	TempID     string `json:"tempId"`
}

type TypingIn struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type MarkReadIn struct {
	FriendID string `json:"friendId"`
}

// ===== outbound payloads =====

type AuthenticatedOut struct {
	UserID string `json:"userId"`
}

type AuthErrorOut struct {
	Message string `json:"message"`
}

type UserStatusOut struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

type NewMessageOut struct {
	Message any `json:"message"`
}

type MessageSentOut struct {
	Message any    `json:"message"`
	TempID  string `json:"tempId"`
}

type MessageErrorOut struct {
	Message string `json:"message"`
	TempID  string `json:"tempId"`
}

type UserTypingOut struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type MessagesReadOut struct {
	ReadBy string `json:"readBy"`
}

// TokenFromAuthData accepts both shapes the client may send for
// `authenticate`: a bare token string, or {"token": "..."}.
func TokenFromAuthData(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]any:
		if t, ok := v["token"].(string); ok {
			return t
		}
	}
	return ""
}
