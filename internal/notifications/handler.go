package notifications

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/auth"
	"github.com/confera/backend/internal/middleware"
	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/response"
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo   *Repository
	users  *auth.Repository
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository, users *auth.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, users: users, logger: logger}
}

// List handles GET /me/notifications.
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}

// MarkRead handles POST /me/notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	updated, err := h.repo.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		h.logger.Error("failed to mark notification read", zap.Error(err))
		response.Internal(c, "failed to mark notification read")
		return
	}
	response.OK(c, gin.H{"updated": updated})
}

// MarkAllRead handles POST /me/notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	n, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to mark notifications read", zap.Error(err))
		response.Internal(c, "failed to mark notifications read")
		return
	}
	response.OK(c, gin.H{"updated": n})
}

// BroadcastRequest is the body for POST /notifications/broadcast.
type BroadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Link    string `json:"link"`
}

// Broadcast handles POST /notifications/broadcast (admin). Every author
// account gets one feed entry.
func (h *Handler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ids, err := h.users.ListUserIDs(c.Request.Context(), models.RoleAuthor)
	if err != nil {
		h.logger.Error("failed to list recipients", zap.Error(err))
		response.Internal(c, "failed to list recipients")
		return
	}
	n, err := h.repo.CreateForAll(c.Request.Context(), ids, req.Title, req.Message, req.Link)
	if err != nil {
		h.logger.Error("failed to broadcast", zap.Error(err))
		response.Internal(c, "failed to broadcast")
		return
	}
	response.OK(c, gin.H{"recipients": n})
}
