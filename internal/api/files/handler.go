package files

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/app/http/middleware"
	domain "nitpickr-api/internal/domain/files"
	"nitpickr-api/internal/domain/tiers"
	usagedomain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/logger"
	"nitpickr-api/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var log = logger.New("files")

const maxUploadMemory = 32 << 20

// Tracker records bytes stored per user.
type Tracker interface {
	TrackUsage(ctx context.Context, entityID, entityType, resourceType string, incrementBy int64) (int64, error)
}

type Handler struct {
	Storage *storage.Service
	Usage   Tracker
}

func NewHandler(s *storage.Service, u Tracker) *Handler {
	return &Handler{Storage: s, Usage: u}
}

// UploadedFile is the stored row plus its public URL.
type UploadedFile struct {
	domain.File
	URL string `json:"url"`
}

// Upload POST /files/upload, multipart field "files" (or "files[]").
func (h *Handler) Upload(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected a multipart form"})
		return
	}
	var headers []*multipart.FileHeader
	headers = append(headers, form.File["files"]...)
	headers = append(headers, form.File["files[]"]...)
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	out := make([]UploadedFile, 0, len(headers))
	for _, fh := range headers {
		uploaded, err := h.store(ctx, userID, fh)
		if err != nil {
			log.Error("Upload failed", "user_id", userID, "name", fh.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload " + fh.Filename})
			return
		}
		out = append(out, uploaded)
	}

	c.JSON(http.StatusCreated, out)
}

func (h *Handler) store(ctx context.Context, userID string, fh *multipart.FileHeader) (UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return UploadedFile{}, err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stored, err := h.Storage.Upload(ctx, fh.Filename, contentType, fh.Size, f)
	if err != nil {
		return UploadedFile{}, err
	}

	row := domain.File{
		Name:        fh.Filename,
		Key:         stored.Key,
		Size:        stored.Size,
		ContentType: stored.ContentType,
		UserID:      userID,
	}
	if err := database.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if delErr := h.Storage.Delete(ctx, stored.Key); delErr != nil {
			log.Warn("Orphaned upload", "key", stored.Key, "error", delErr)
		}
		return UploadedFile{}, err
	}

	h.track(ctx, userID, stored.Size)
	return UploadedFile{File: row, URL: stored.URL}, nil
}

func (h *Handler) track(ctx context.Context, userID string, bytes int64) {
	if h.Usage == nil {
		return
	}
	if _, err := h.Usage.TrackUsage(ctx, userID, usagedomain.EntityUser, tiers.ResourceStorage, bytes); err != nil {
		log.Warn("Failed to track storage usage", "user_id", userID, "error", err)
	}
}

// List GET /files
func (h *Handler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var list []domain.File
	if err := database.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load files"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete DELETE /files/:id removes the object and gives the bytes back.
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var f domain.File
	err := database.DB.WithContext(ctx).First(&f, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load file"})
		return
	}
	if f.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.Storage.Delete(ctx, f.Key); err != nil {
		log.Error("Failed to delete object", "key", f.Key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}
	if err := database.DB.WithContext(ctx).Delete(&f).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}
	h.track(ctx, userID, -f.Size)
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}
