package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/participium/participium-api/internal/service"
	appErrors "github.com/participium/participium-api/pkg/errors"
	"github.com/participium/participium-api/pkg/response"
	"github.com/participium/participium-api/pkg/storage"
)

const maxPhotoBytes = 5 << 20

// PhotoHandler stores report photos and serves them back through signed links.
type PhotoHandler struct {
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	reports *service.ReportService
}

// NewPhotoHandler creates a new handler.
func NewPhotoHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, reports *service.ReportService) *PhotoHandler {
	return &PhotoHandler{storage: store, signer: signer, reports: reports}
}

// Upload godoc
// @Summary Upload photo
// @Description Store a photo and return its path for use in a report submission
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Photo file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /uploads/photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file is required"))
		return
	}
	if header.Size > maxPhotoBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo exceeds the 5MB limit"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	relPath := filepath.Join("photos", time.Now().UTC().Format("2006/01"), fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(header.Filename)))
	if _, err := h.storage.SaveStream(relPath, io.LimitReader(file, maxPhotoBytes)); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo"))
		return
	}

	response.Created(c, gin.H{"path": relPath})
}

// Links godoc
// @Summary List photo links
// @Description Return signed download links for a report's photos
// @Tags Photos
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/photos [get]
func (h *PhotoHandler) Links(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	links := make([]gin.H, 0, len(report.Photos))
	for _, photo := range report.Photos {
		token, expiresAt, err := h.signer.Generate(report.ID, photo)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign photo link"))
			return
		}
		links = append(links, gin.H{
			"path":       photo,
			"url":        fmt.Sprintf("/api/v1/uploads/photos/%s", token),
			"expires_at": expiresAt,
		})
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Download godoc
// @Summary Download photo
// @Description Stream a photo referenced by a signed token
// @Tags Photos
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /uploads/photos/{token} [get]
func (h *PhotoHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired photo link"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(relPath)))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
