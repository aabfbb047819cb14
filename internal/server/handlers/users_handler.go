package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/server/middleware"
)

// UserService reads and edits the caller's own account.
type UserService interface {
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateMe(ctx context.Context, userID string, in models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

// UsersHandler serves the /users/me profile endpoints.
type UsersHandler struct {
	svc    UserService
	logger *zap.Logger
}

// NewUsersHandler constructs the HTTP handler adapter.
func NewUsersHandler(svc UserService, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{svc: svc, logger: logger}
}

// GetMe handles GET /users/me.
func (h *UsersHandler) GetMe(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.ViewerFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe handles PUT /users/me.
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	var in models.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	user, err := h.svc.UpdateMe(c.Request.Context(), middleware.ViewerFrom(c).UserID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ChangePassword handles PUT /users/me/password.
func (h *UsersHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), middleware.ViewerFrom(c).UserID, req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}
