package settings

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/confera/backend/pkg/response"
)

// Handler handles settings HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a settings handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// GetPublic handles GET /settings/public. Unauthenticated clients only
// see what the registration form needs.
func (h *Handler) GetPublic(c *gin.Context) {
	s, err := h.repo.Current(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, gin.H{
		"conference_name":     s.ConferenceName,
		"registration_open":   s.RegistrationOpen,
		"submission_deadline": s.SubmissionDeadline,
	})
}

// Get handles GET /settings (admin).
func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Current(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, s)
}

// UpdateRequest is the body for PUT /settings. Nil fields keep their
// current value.
type UpdateRequest struct {
	ConferenceName     *string        `json:"conference_name"`
	AuthorIDPrefix     *string        `json:"author_id_prefix"`
	RegistrationOpen   *bool          `json:"registration_open"`
	SubmissionDeadline *time.Time     `json:"submission_deadline"`
	FeeOverrides       map[string]int `json:"fee_overrides"`
}

// Update handles PUT /settings (admin).
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s, err := h.repo.Current(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	if req.ConferenceName != nil {
		s.ConferenceName = *req.ConferenceName
	}
	if req.AuthorIDPrefix != nil {
		s.AuthorIDPrefix = *req.AuthorIDPrefix
	}
	if req.RegistrationOpen != nil {
		s.RegistrationOpen = *req.RegistrationOpen
	}
	if req.SubmissionDeadline != nil {
		s.SubmissionDeadline = req.SubmissionDeadline
	}
	if req.FeeOverrides != nil {
		s.FeeOverrides = req.FeeOverrides
	}

	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		h.logger.Error("failed to update settings", zap.Error(err))
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, s)
}
