package auth

import (
	"time"

	"github.com/gin-gonic/gin"

	"go_subdns/api/v1/middleware"
	"go_subdns/internal/auth"
	"go_subdns/internal/config"
	"go_subdns/internal/httpx"
	"go_subdns/internal/model"
	"go_subdns/internal/users"
)

// RegisterRequest represents register request body
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAdminRequest represents the initial admin request body
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Quota    int    `json:"quota"`
	IsActive bool   `json:"isActive"`
}

func toUserInfo(u *model.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Quota: u.Quota, IsActive: u.IsActive}
}

// Handler handles auth API
type Handler struct {
	users *users.Service
	jwt   config.JWTConfig
}

// NewHandler creates a new auth handler
func NewHandler(svc *users.Service, jwt config.JWTConfig) *Handler {
	return &Handler{users: svc, jwt: jwt}
}

func (h *Handler) issue(c *gin.Context, user *model.User) {
	expireAt := time.Now().Add(time.Duration(h.jwt.ExpireMinutes) * time.Minute)
	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, expireAt, h.jwt.Issuer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
		return
	}

	httpx.OK(c, LoginResponse{
		Token:    token,
		ExpireAt: expireAt.Format(time.RFC3339),
		User:     toUserInfo(user),
	})
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), users.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.issue(c, user)
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.issue(c, user)
}

// CreateAdmin handles POST /api/v1/auth/create-admin
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	user, err := h.users.CreateInitialAdmin(c.Request.Context(), users.AdminParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.issue(c, user)
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, toUserInfo(user))
}
