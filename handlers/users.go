package handlers

import (
	"context"
	"net/http"

	"route-optimization-api/models"

	"github.com/gin-gonic/gin"
)

type UserAdminStore interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
	Deactivate(ctx context.Context, id uint) error
}

// UsersHandler covers the admin-side user management surface.
type UsersHandler struct {
	users UserAdminStore
}

func NewUsersHandler(users UserAdminStore) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		translateError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Deactivate soft-disables the account; the user's rows are kept.
func (h *UsersHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
		translateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
