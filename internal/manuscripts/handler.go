package manuscripts

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/middleware"
	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/internal/registrations"
	"github.com/confera/backend/pkg/response"
	"github.com/confera/backend/pkg/storage"
	"github.com/confera/backend/pkg/utils"
)

// Handler handles manuscript upload and download endpoints.
type Handler struct {
	regs   *registrations.Service
	store  *storage.S3
	logger *zap.Logger
}

// NewHandler creates a manuscripts handler.
func NewHandler(regs *registrations.Service, store *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{regs: regs, store: store, logger: logger}
}

// Upload handles POST /me/registration/manuscript. The file replaces
// any previously attached manuscript on the caller's draft.
func (h *Handler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}

	reg, err := h.regs.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to load registration")
		return
	}
	if !reg.Editable() {
		response.Forbidden(c, fmt.Sprintf("registration is %s and can no longer be edited", reg.Status))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxManuscriptSize+1024)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "manuscript file missing or too large")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxManuscriptSize {
		response.BadRequest(c, "manuscript exceeds the 20MB limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateManuscriptType(contentType, header.Filename) {
		response.BadRequest(c, "only PDF and Word manuscripts are accepted")
		return
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}

	key := storage.ManuscriptKey(reg.AuthorID, uuid.NewString(), header.Filename)
	url, err := h.store.Upload(c.Request.Context(), key, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("manuscript upload failed",
			zap.String("author_id", reg.AuthorID), zap.Error(err))
		response.Internal(c, "failed to store manuscript")
		return
	}

	old := ""
	if reg.PaperDetails.File != nil {
		old = reg.PaperDetails.File.PublicID
	}
	updated, err := h.regs.AttachManuscript(c.Request.Context(), userID, models.FileRef{
		FileURL:      url,
		PublicID:     key,
		ResourceType: contentType,
		OriginalName: header.Filename,
	})
	if err != nil {
		response.Error(c, err, "failed to attach manuscript")
		return
	}
	if old != "" && old != key {
		if err := h.store.DeleteObject(c.Request.Context(), old); err != nil {
			h.logger.Warn("failed to delete replaced manuscript",
				zap.String("key", old), zap.Error(err))
		}
	}
	response.OK(c, updated)
}

// Download handles GET /me/registration/manuscript: redirects the
// author to a pre-signed URL for their own file.
func (h *Handler) Download(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	reg, err := h.regs.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err, "failed to load registration")
		return
	}
	h.redirectToManuscript(c, reg)
}

// DownloadByID handles GET /registrations/:id/manuscript (admin). The
// served filename is derived from the author name and paper title.
func (h *Handler) DownloadByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.regs.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err, "failed to load registration")
		return
	}
	h.redirectToManuscript(c, reg)
}

func (h *Handler) redirectToManuscript(c *gin.Context, reg *models.Registration) {
	ref := reg.PaperDetails.File
	if ref == nil || ref.PublicID == "" {
		response.NotFound(c, "no manuscript uploaded")
		return
	}
	filename := downloadFilename(reg)
	url, err := h.store.PresignDownloadURL(c.Request.Context(), ref.PublicID, filename)
	if err != nil {
		h.logger.Error("presign failed", zap.String("key", ref.PublicID), zap.Error(err))
		response.Internal(c, "failed to generate download link")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// ExportZIP handles GET /registrations/manuscripts/export (admin): a
// ZIP of every uploaded manuscript, streamed as it is built. Objects
// that fail to fetch are skipped and logged so one bad file does not
// abort the archive.
func (h *Handler) ExportZIP(c *gin.Context) {
	filter, err := registrations.FilterFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	regs, err := h.regs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err, "failed to list registrations")
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="manuscripts.zip"`)
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	for i := range regs {
		reg := &regs[i]
		ref := reg.PaperDetails.File
		if ref == nil || ref.PublicID == "" {
			continue
		}
		body, err := h.store.GetObjectStream(c.Request.Context(), ref.PublicID)
		if err != nil {
			h.logger.Warn("skipping manuscript in export",
				zap.String("author_id", reg.AuthorID), zap.Error(err))
			continue
		}
		entry, err := zw.Create(zipEntryName(reg))
		if err != nil {
			body.Close()
			h.logger.Error("zip entry failed", zap.Error(err))
			return
		}
		if _, err := io.Copy(entry, body); err != nil {
			body.Close()
			h.logger.Error("zip copy failed",
				zap.String("author_id", reg.AuthorID), zap.Error(err))
			return
		}
		body.Close()
	}
}

// downloadFilename builds the served name from the author and title,
// keeping the stored object's extension.
func downloadFilename(reg *models.Registration) string {
	base := utils.DownloadBasename(reg.PersonalDetails.FullName, reg.PaperDetails.Title)
	if base == "" {
		base = reg.AuthorID
	}
	return base + manuscriptExt(reg)
}

// zipEntryName is downloadFilename suffixed with the author ID. Two
// authors can share a sanitized name and title; entries in the bulk
// archive must never collide.
func zipEntryName(reg *models.Registration) string {
	base := utils.DownloadBasename(reg.PersonalDetails.FullName, reg.PaperDetails.Title)
	if base == "" {
		return reg.AuthorID + manuscriptExt(reg)
	}
	return base + "_" + reg.AuthorID + manuscriptExt(reg)
}

func manuscriptExt(reg *models.Registration) string {
	if ref := reg.PaperDetails.File; ref != nil && ref.OriginalName != "" {
		if e := strings.ToLower(path.Ext(ref.OriginalName)); e != "" {
			return e
		}
	}
	return ".pdf"
}
