package handlers

import (
	"context"
	"errors"
	"net/http"

	"route-optimization-api/middleware"
	"route-optimization-api/models"
	"route-optimization-api/services"
	"route-optimization-api/store"

	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthHandler struct {
	users       UserStore
	authService *services.AuthService
}

func NewAuthHandler(users UserStore, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=5"`
	FullName string `json:"full_name"`
}

type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      uint   `json:"user_id"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		translateError(c, err)
		return
	}

	user := models.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: hash,
		FullName:       req.FullName,
		Role:           models.RoleUser,
		IsActive:       true,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"detail": "email or username already registered"})
			return
		}
		translateError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{AccessToken: token, TokenType: "bearer", UserID: user.ID})
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.ByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// same response for unknown user and bad password
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
		return
	}

	if !user.IsActive || !h.authService.CheckPassword(user.HashedPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer", UserID: user.ID})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)
	user, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		translateError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
