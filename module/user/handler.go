package user

import (
	"net/http"
	"strings"

	midsec "LinkIM/middleware/security"
	"LinkIM/module/user/service"
	"LinkIM/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Handler carries the REST account surface: register, login, search, me.
type Handler struct {
	users *service.UserService
	jwt   security.Options
}

func NewHandler(users *service.UserService, jwt security.Options) *Handler {
	return &Handler{users: users, jwt: jwt}
}

type registerReq struct {
	FullName string `json:"fullName" binding:"required"`
	CodeName string `json:"codeName" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.FullName, req.CodeName, req.Mobile, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	token, exp, err := security.Issue(h.jwt, u.ID.Hex(), u.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "expiresAt": exp, "user": u})
}

type loginReq struct {
	CodeName string `json:"codeName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := h.users.Login(c.Request.Context(), req.CodeName, req.Password)
	if errors.Is(err, service.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	token, exp, err := security.Issue(h.jwt, u.ID.Hex(), u.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": exp, "user": u})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), midsec.UserID(c))
	if err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"users": []any{}})
		return
	}
	out, err := h.users.Search(c.Request.Context(), midsec.UserID(c), q, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
