package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/config"
	"github.com/EllieChoi1998/poc-backend/middleware"
	"github.com/EllieChoi1998/poc-backend/service"
)

type AuthHandler struct {
	users *service.UserService
	auth  *config.AuthConfig
}

func NewAuthHandler(users *service.UserService, auth *config.AuthConfig) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

type LoginRequest struct {
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    int64  `json:"user_id"`
	LoginID   string `json:"login_id"`
	Name      string `json:"name"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.LoginID, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login id or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user.ID, user.LoginID, h.auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	if err := h.users.StoreRefreshToken(c.Request.Context(), user.ID, token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		UserID:    user.ID,
		LoginID:   user.LoginID,
		Name:      user.Name,
	})
}

type RegisterRequest struct {
	LoginID   string `json:"login_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Hierarchy string `json:"hierarchy"`
	TeamID    *int64 `json:"team_id"`
}

// Register creates a new staff account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.LoginID, req.Name, req.Password, req.Hierarchy, req.TeamID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetCurrentUser returns the current user info
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
