package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
	"github.com/locallens/locallens-backend/internal/storage"
)

// Presigner issues direct-to-bucket upload URLs
type Presigner interface {
	GeneratePresignedURL(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
}

var uploadFolders = map[string]bool{
	"products":  true,
	"shops":     true,
	"banners":   true,
	"documents": true,
	"avatars":   true,
}

type UploadController struct {
	media     storage.MediaStorage
	presigner Presigner
}

// NewUploadController creates the controller. presigner may be nil, which disables presigned uploads.
func NewUploadController(media storage.MediaStorage, presigner Presigner) *UploadController {
	return &UploadController{
		media:     media,
		presigner: presigner,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"`
}

func resolveFolder(folder string) (string, bool) {
	if folder == "" {
		return "uploads", true
	}
	return folder, uploadFolders[folder]
}

// Upload stores one multipart image and returns its URL and storage id
// POST /api/v1/uploads (multipart field "file", optional form field "folder")
func (ctrl *UploadController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, _ := middleware.GetUserID(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errors.BadRequest(c, errors.ValidationRequired, "A file is required in the \"file\" field")
		return
	}

	if err := storage.ValidateFileSize(fileHeader.Size, storage.MaxUploadSize); err != nil {
		errors.BadRequest(c, errors.UploadFileTooLarge, "File exceeds the 10MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType, storage.AllowedImageTypes); err != nil {
		log.Warn("Rejected upload content type", map[string]interface{}{
			"content_type": contentType,
		})
		errors.BadRequest(c, errors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}
	folder, ok := resolveFolder(c.PostForm("folder"))
	if !ok {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Unknown upload folder")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		errors.BadRequest(c, errors.UploadFailed, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	media, err := ctrl.media.Upload(c.Request.Context(), file, folder, fileHeader.Filename, contentType)
	if err != nil {
		log.Error("Failed to upload media", err, map[string]interface{}{
			"user_id": userID,
			"folder":  folder,
		})
		errors.RespondWithError(c, http.StatusServiceUnavailable, errors.UploadFailed, "Media storage is unavailable. Please try again later")
		return
	}

	log.Info("Media uploaded", map[string]interface{}{
		"user_id":    userID,
		"storage_id": media.StorageID,
	})
	c.JSON(http.StatusCreated, media)
}

// GeneratePresignedURL returns a presigned PUT URL for direct uploads
// POST /api/v1/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		errors.RespondWithError(c, http.StatusServiceUnavailable, errors.InternalConfigError, "Presigned uploads are not configured")
		return
	}

	var req GeneratePresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := storage.ValidateContentType(req.ContentType, storage.AllowedImageTypes); err != nil {
		errors.BadRequest(c, errors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}
	folder, ok := resolveFolder(req.Folder)
	if !ok {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Unknown upload folder")
		return
	}

	response, err := ctrl.presigner.GeneratePresignedURL(c.Request.Context(), req.Filename, req.ContentType, folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename": req.Filename,
			"folder":   folder,
		})
		errors.RespondWithError(c, http.StatusServiceUnavailable, errors.UploadFailed, "Failed to generate presigned URL")
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"folder": folder,
		"key":    response.Key,
	})
	c.JSON(http.StatusOK, response)
}
