package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/service"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/response"
)

type jakeService interface {
	Random(ctx context.Context) (*dto.JakeImage, error)
	Upload(ctx context.Context, upload service.ImageUpload) (*dto.JakeImage, error)
	UploadMany(ctx context.Context, uploads []service.ImageUpload) dto.BatchUploadResult
	Delete(ctx context.Context, number int) error
	Stats(ctx context.Context) (*dto.JakeStats, error)
	OpenImage(ctx context.Context, name string) (*service.ImageFile, error)
}

// JakeHandler serves the numbered Jake image endpoints.
type JakeHandler struct {
	service jakeService
}

// NewJakeHandler constructs the handler.
func NewJakeHandler(service jakeService) *JakeHandler {
	return &JakeHandler{service: service}
}

// Random godoc
// @Summary Random Jake image
// @Tags Jake
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.Envelope
// @Router /random-jake [get]
func (h *JakeHandler) Random(c *gin.Context) {
	image, err := h.service.Random(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, fmt.Sprintf("Random Jake image #%d", image.ImageNumber), gin.H{
		"image_url":    image.ImageURL,
		"image_number": image.ImageNumber,
	})
}

// Upload godoc
// @Summary Upload a Jake image
// @Tags Jake
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param number formData int false "Slot number"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} response.Envelope
// @Router /upload-jake [post]
func (h *JakeHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file part in the request"))
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		if _, named := form.Value["file"]; named {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file selected"))
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file part in the request"))
		return
	}
	header := headers[0]
	if header.Filename == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file selected"))
		return
	}

	var number *int
	if raw := strings.TrimSpace(c.PostForm("number")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid number format"))
			return
		}
		number = &n
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open file"))
		return
	}
	defer src.Close()

	image, err := h.service.Upload(c.Request.Context(), service.ImageUpload{
		Filename: header.Filename,
		Content:  src,
		Size:     header.Size,
		Number:   number,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusCreated, fmt.Sprintf("Jake image uploaded successfully as #%d", image.ImageNumber), gin.H{
		"image_number": image.ImageNumber,
		"filename":     image.Filename,
		"image_url":    image.ImageURL,
	})
}

// UploadMultiple godoc
// @Summary Upload several Jake images
// @Tags Jake
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Images"
// @Success 201 {object} dto.BatchUploadResult
// @Failure 400 {object} response.Envelope
// @Router /upload-multiple [post]
func (h *JakeHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No files found in request"))
		return
	}
	headers := append(append([]*multipart.FileHeader{}, form.File["files"]...), form.File["files[]"]...)
	if len(headers) == 0 {
		_, named := form.Value["files"]
		_, bracketed := form.Value["files[]"]
		if named || bracketed {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No files selected"))
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No files found in request"))
		return
	}

	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, header := range headers {
		src, openErr := header.Open()
		if openErr != nil {
			uploads = append(uploads, service.ImageUpload{Filename: header.Filename, Err: openErr})
			continue
		}
		defer src.Close()
		uploads = append(uploads, service.ImageUpload{Filename: header.Filename, Content: src, Size: header.Size})
	}

	result := h.service.UploadMany(c.Request.Context(), uploads)
	response.Fields(c, http.StatusCreated, fmt.Sprintf("Upload completed. %d successful, %d failed", result.TotalUploaded, result.TotalFailed), gin.H{
		"uploaded_files": result.Uploaded,
		"failed_files":   result.Failed,
		"total_uploaded": result.TotalUploaded,
		"total_failed":   result.TotalFailed,
	})
}

// Delete godoc
// @Summary Delete a Jake image
// @Tags Jake
// @Produce json
// @Param number path int true "Slot number"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.Envelope
// @Router /delete-jake/{number} [delete]
func (h *JakeHandler) Delete(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid image number"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), number); err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, fmt.Sprintf("Jake image #%d deleted successfully", number), gin.H{
		"deleted_number": number,
	})
}

// Stats godoc
// @Summary Jake image statistics
// @Tags Jake
// @Produce json
// @Success 200 {object} dto.JakeStats
// @Router /jake-stats [get]
func (h *JakeHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	fields := gin.H{
		"total_images":      stats.TotalImages,
		"available_numbers": stats.AvailableNumbers,
	}
	if stats.MaxPossible != nil {
		fields["max_possible"] = *stats.MaxPossible
	}
	response.Fields(c, http.StatusOK, fmt.Sprintf("Found %d Jake images", stats.TotalImages), fields)
}

// Image godoc
// @Summary Serve a stored image
// @Tags Jake
// @Produce image/png,image/jpeg,image/gif
// @Param filename path string true "File name"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /images/{filename} [get]
func (h *JakeHandler) Image(c *gin.Context) {
	image, err := h.service.OpenImage(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer image.File.Close()

	c.Header("Content-Type", image.ContentType)
	c.Header("Cache-Control", "public, max-age=3600")
	http.ServeContent(c.Writer, c.Request, image.Name, image.ModTime, image.File)
}
