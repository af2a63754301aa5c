package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"viswords-api/internal/middleware"
	"viswords-api/internal/models"
	"viswords-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadHandler serves the session-scoped upload endpoints
type UploadHandler struct {
	uploads services.UploadService
	logger  *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads services.UploadService, logger *logrus.Logger) *UploadHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UploadHandler{uploads: uploads, logger: logger}
}

// @Summary Upload an image
// @Description Accepts a multipart "file" field with an allowed image extension
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} models.UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /uploads [post]
func (h *UploadHandler) Create(c *gin.Context) {
	sessionID, ok := h.session(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.fail(c, ErrNoFilePart)
			return
		}
		// Oversized bodies surface here through http.MaxBytesReader
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.Error(err)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid upload", Message: err.Error()})
		return
	}

	data, err := readFormFile(header)
	if err != nil {
		c.Error(err)
		return
	}

	upload, err := h.uploads.Save(c.Request.Context(), &services.SaveUploadRequest{
		SessionID:   sessionID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"upload_id":  upload.ID,
	}).Debug("Upload accepted")

	c.JSON(http.StatusCreated, models.UploadResponse{Upload: upload, URL: uploadURL(upload)})
}

// @Summary List uploads
// @Description Lists the uploads of the caller's session, newest first
// @Tags uploads
// @Produce json
// @Param limit query int false "Maximum number of uploads" default(50)
// @Success 200 {array} models.UploadResponse
// @Router /uploads [get]
func (h *UploadHandler) List(c *gin.Context) {
	sessionID, ok := h.session(c)
	if !ok {
		return
	}

	var limit int
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	uploads, err := h.uploads.List(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]models.UploadResponse, 0, len(uploads))
	for _, u := range uploads {
		resp = append(resp, models.UploadResponse{Upload: u, URL: uploadURL(u)})
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Download an upload
// @Tags uploads
// @Produce octet-stream
// @Param name path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /uploads/{name} [get]
func (h *UploadHandler) Get(c *gin.Context) {
	sessionID, ok := h.session(c)
	if !ok {
		return
	}

	upload, data, err := h.uploads.Open(c.Request.Context(), sessionID, c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, upload.ContentType, data)
}

// @Summary Delete an upload
// @Tags uploads
// @Param name path string true "Stored file name"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /uploads/{name} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	sessionID, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.uploads.Remove(c.Request.Context(), sessionID, c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UploadHandler) session(c *gin.Context) (string, bool) {
	sessionID := c.GetString(middleware.SessionIDKey)
	if sessionID == "" {
		h.fail(c, ErrMissingSession)
		return "", false
	}
	return sessionID, true
}

func (h *UploadHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		return
	}
	c.JSON(status, ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func uploadURL(u *models.Upload) string {
	return "/api/uploads/" + path.Base(u.StorageKey)
}
