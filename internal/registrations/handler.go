package registrations

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/middleware"
	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// GetMine handles GET /me/registration.
func (h *Handler) GetMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	reg, err := h.svc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to load registration")
		return
	}
	response.OK(c, reg)
}

// SaveDraft handles PUT /me/registration/draft. Any subset of the three
// wizard sections may be present; absent sections are left untouched.
func (h *Handler) SaveDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var patch DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.SaveDraft(c.Request.Context(), userID, patch)
	if err != nil {
		response.Error(c, err, "failed to save draft")
		return
	}
	response.OK(c, reg)
}

// Submit handles POST /me/registration/submit.
func (h *Handler) Submit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	reg, err := h.svc.Submit(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to submit registration")
		return
	}
	response.OK(c, reg)
}

// FilterFromQuery parses the status, payment_status, track and
// attended query parameters shared by the admin listing and export
// endpoints.
func FilterFromQuery(c *gin.Context) (Filter, error) {
	f := Filter{
		Status:        models.Status(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Track:         c.Query("track"),
	}
	if v := c.Query("attended"); v != "" {
		attended, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid attended filter")
		}
		f.Attended = &attended
	}
	if f.Status != "" && !f.Status.Valid() {
		return Filter{}, fmt.Errorf("invalid status filter")
	}
	return f, nil
}

// List handles GET /registrations (admin). Supports status, payment,
// track and attended query filters.
func (h *Handler) List(c *gin.Context) {
	f, err := FilterFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /registrations/:id (admin).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err, "failed to load registration")
		return
	}
	response.OK(c, reg)
}

// ReviewRequest is the body for PATCH /registrations/:id/review.
type ReviewRequest struct {
	Status  models.Status `json:"status" binding:"required"`
	Remarks string        `json:"remarks"`
}

// Review handles PATCH /registrations/:id/review (admin).
func (h *Handler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.Review(c.Request.Context(), id, req.Status, req.Remarks)
	if err != nil {
		response.Error(c, err, "failed to review registration")
		return
	}
	response.OK(c, reg)
}

// AttendanceRequest is the body for POST /registrations/:id/attendance.
type AttendanceRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

// SetAttendance handles POST /registrations/:id/attendance (admin).
func (h *Handler) SetAttendance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "attended required")
		return
	}
	reg, err := h.svc.SetAttendance(c.Request.Context(), id, *req.Attended)
	if err != nil {
		response.Error(c, err, "failed to update attendance")
		return
	}
	response.OK(c, reg)
}

// VerifyAttendance handles GET /attendance/verify/:authorID (admin).
// The venue QR scanner resolves the badge's author ID and marks the
// registration attended in one call.
func (h *Handler) VerifyAttendance(c *gin.Context) {
	authorID := strings.TrimSpace(c.Param("authorID"))
	if authorID == "" {
		response.BadRequest(c, "author id required")
		return
	}
	reg, err := h.svc.VerifyAttendance(c.Request.Context(), authorID)
	if err != nil {
		response.Error(c, err, "failed to verify attendance")
		return
	}
	response.OK(c, gin.H{
		"registration": reg,
		"attended_at":  reg.AttendedAt,
	})
}

// ExportCSV handles GET /registrations/export/csv (admin): the full
// roster as a CSV download.
func (h *Handler) ExportCSV(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), Filter{})
	if err != nil {
		h.logger.Error("export registrations failed", zap.Error(err))
		response.Internal(c, "failed to export registrations")
		return
	}

	filename := fmt.Sprintf("registrations_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"author_id", "name", "email", "institution", "category",
		"paper_title", "track", "status", "payment_status", "amount_paid", "attended",
	})
	for i := range list {
		reg := &list[i]
		_ = w.Write([]string{
			reg.AuthorID,
			reg.PersonalDetails.FullName,
			reg.PersonalDetails.Email,
			reg.PersonalDetails.Institution,
			string(reg.PersonalDetails.Category),
			reg.PaperDetails.Title,
			reg.PaperDetails.Track,
			string(reg.Status),
			string(reg.PaymentStatus),
			strconv.Itoa(reg.AmountPaid),
			strconv.FormatBool(reg.Attended),
		})
	}
	w.Flush()
}
