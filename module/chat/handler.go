package chat

import (
	"net/http"

	midsec "LinkIM/middleware/security"
	chatmodel "LinkIM/module/chat/model"
	chatsvc "LinkIM/module/chat/service"
	usersvc "LinkIM/module/user/service"
	gw "LinkIM/service/chat"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Handler is the REST chat surface. Every notification it produces goes
// through the gateway Server's routines, so REST-origin and socket-origin
// operations are indistinguishable to connected clients.
type Handler struct {
	srv      *gw.Server
	friends  *chatsvc.FriendService
	messages *chatsvc.MessageService
	users    *usersvc.UserService
}

func NewHandler(srv *gw.Server, friends *chatsvc.FriendService, messages *chatsvc.MessageService, users *usersvc.UserService) *Handler {
	return &Handler{srv: srv, friends: friends, messages: messages, users: users}
}

// ===== friends =====

type friendRequestReq struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

func (h *Handler) RequestFriend(c *gin.Context) {
	var req friendRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	selfID := midsec.UserID(c)
	if req.ReceiverID == selfID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot friend yourself"})
		return
	}
	if u, err := h.users.Get(c.Request.Context(), req.ReceiverID); err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	fr, err := h.friends.Request(c.Request.Context(), selfID, req.ReceiverID)
	if errors.Is(err, chatsvc.ErrRequestExists) {
		c.JSON(http.StatusConflict, gin.H{"message": "Request already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": fr})
}

type friendRespondReq struct {
	RequestID string `json:"requestId" binding:"required"`
	Accept    bool   `json:"accept"`
}

func (h *Handler) RespondFriend(c *gin.Context) {
	var req friendRespondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	fr, err := h.friends.Respond(c.Request.Context(), req.RequestID, midsec.UserID(c), req.Accept)
	if errors.Is(err, chatsvc.ErrRequestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Request not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": fr})
}

func (h *Handler) PendingRequests(c *gin.Context) {
	out, err := h.friends.Pending(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if out == nil {
		out = []chatmodel.FriendRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

type friendView struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	CodeName string `json:"codeName"`
	IsOnline bool   `json:"isOnline"`
}

// ListFriends returns accepted friends with a live online flag taken from
// the registry, not from the persisted is_online column.
func (h *Handler) ListFriends(c *gin.Context) {
	selfID := midsec.UserID(c)
	ids, err := h.friends.AcceptedFriendIDs(c.Request.Context(), selfID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	out := make([]friendView, 0, len(ids))
	for _, id := range ids {
		u, err := h.users.Get(c.Request.Context(), id)
		if err != nil || u == nil {
			continue
		}
		out = append(out, friendView{
			ID:       u.ID.Hex(),
			FullName: u.FullName,
			CodeName: u.CodeName,
			IsOnline: h.srv.ConnMgr().IsPresent(id),
		})
	}
	c.JSON(http.StatusOK, gin.H{"friends": out})
}

// ===== chats =====

// History returns the conversation with a friend, marks their messages
// read, and fires the same messages-read notification the socket path
// uses.
func (h *Handler) History(c *gin.Context) {
	selfID := midsec.UserID(c)
	friendID := c.Param("friendId")

	ok, err := h.friends.AreFriends(c.Request.Context(), selfID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only chat with friends"})
		return
	}

	msgs, err := h.messages.History(c.Request.Context(), selfID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	_ = h.srv.NotifyRead(c.Request.Context(), selfID, friendID)
	if msgs == nil {
		msgs = []chatmodel.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendReq struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Send persists a message from the REST path, then routes it through the
// exact broadcast routine the socket path uses.
func (h *Handler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message content is required"})
		return
	}
	selfID := midsec.UserID(c)

	ok, err := h.friends.AreFriends(c.Request.Context(), selfID, req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only chat with friends"})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), selfID, req.ReceiverID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	h.srv.Broadcast(msg)
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ===== admin =====

func (h *Handler) AdminStats(c *gin.Context) {
	userCount, err := h.users.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	msgCount, err := h.messages.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":    userCount,
		"messages": msgCount,
		"online":   h.srv.ConnMgr().OnlineCount(),
		"swept":    h.srv.ConnMgr().SweptTotal(),
	})
}
