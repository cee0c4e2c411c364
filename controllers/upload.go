package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const maxBatchFiles = 10

type BatchUploadOut struct {
	Success   bool                        `json:"success"`
	Data      []models.BatchUploadItemOut `json:"data"`
	Summary   models.BatchUploadSummary   `json:"summary"`
	Timestamp string                      `json:"timestamp"`
}

type UploadStatsOut struct {
	MaxFileSize  int64    `json:"maxFileSize"`
	MaxFiles     int      `json:"maxFiles"`
	AllowedTypes []string `json:"allowedTypes"`
	Qualities    []string `json:"qualities"`
	Bucket       string   `json:"bucket"`
	Storage      string   `json:"storage"`
}

type UploadController struct {
	Blob     services.BlobProvider
	Bucket   string
	MaxBytes int64
	Now      func() time.Time
}

func (controller *UploadController) UploadRoutes(g *echo.Group, guard echo.MiddlewareFunc) {
	g.POST("", controller.Upload, guard)
	g.POST("/batch", controller.BatchUpload, guard)
	g.POST("/remove-background", controller.RemoveBackground, guard)
	g.POST("/presign", controller.Presign, guard)
	g.GET("/stats", controller.Stats)
}

func (controller *UploadController) now() time.Time {
	if controller.Now == nil {
		return time.Now()
	}
	return controller.Now()
}

func (controller *UploadController) maxBytes() int64 {
	if controller.MaxBytes <= 0 {
		return 10 << 20
	}
	return controller.MaxBytes
}

func (controller *UploadController) requireStorage() error {
	if controller.Blob == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Image storage is not configured")
	}
	return nil
}

// readImage loads an uploaded file and checks its size and content type.
func (controller *UploadController) readImage(header *multipart.FileHeader) ([]byte, string, error) {
	if header.Size > controller.maxBytes() {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file must not exceed %d bytes", controller.maxBytes()))
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, controller.maxBytes()+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	if int64(len(data)) > controller.maxBytes() {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file must not exceed %d bytes", controller.maxBytes()))
	}
	contentType, ok := services.DetectImageType(data, header.Filename)
	if !ok {
		return nil, "", models.NewValidationError("file", "unsupported file type %s, supported types: JPEG, PNG, WebP", contentType)
	}
	return data, contentType, nil
}

// optimize re-encodes an image for the quality, keeping the original
// bytes when it cannot be decoded.
func optimize(data []byte, contentType string, quality services.Quality) ([]byte, string, string) {
	processed, err := services.OptimizeImage(data, quality)
	if err != nil {
		log.Warn().Err(err).Msg("Image optimization failed, storing original")
		return data, contentType, services.ExtensionFor(contentType)
	}
	return processed.Bytes, processed.ContentType, processed.Extension
}

func (controller *UploadController) store(c echo.Context, key string, body []byte, contentType string) (models.UploadedFile, error) {
	path, err := controller.Blob.Upload(c.Request().Context(), controller.Bucket, key, body, contentType)
	if err != nil {
		return models.UploadedFile{}, err
	}
	return models.UploadedFile{
		URL:      controller.Blob.PublicURL(controller.Bucket, path),
		Path:     path,
		Size:     len(body),
		MimeType: contentType,
	}, nil
}

func (controller *UploadController) Upload(c echo.Context) error {
	if err := controller.requireStorage(); err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return models.NewValidationError("file", "please upload a file")
	}
	data, contentType, err := controller.readImage(header)
	if err != nil {
		return err
	}
	quality := services.ParseQuality(c.FormValue("quality"))

	body, storedType, ext := optimize(data, contentType, quality)
	key := services.ObjectKey("upload", controller.now(), ext)
	stored, err := controller.store(c, key, body, storedType)
	if err != nil {
		return err
	}
	log.Info().Str("key", key).Int("original_bytes", len(data)).Int("stored_bytes", len(body)).Msg("Image uploaded")
	return respond(c, http.StatusOK, models.UploadOut{
		UploadedFile: stored,
		OriginalName: services.SafeFileName(header.Filename),
		Quality:      string(quality),
	}, "File uploaded")
}

func (controller *UploadController) BatchUpload(c echo.Context) error {
	if err := controller.requireStorage(); err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return models.NewValidationError("files", "please upload at least one file")
	}
	files := form.File["files"]
	switch {
	case len(files) == 0:
		return models.NewValidationError("files", "please upload at least one file")
	case len(files) > maxBatchFiles:
		return models.NewValidationError("files", "at most %d files per batch", maxBatchFiles)
	}
	quality := services.ParseQuality(c.FormValue("quality"))
	now := controller.now()

	out := BatchUploadOut{Data: make([]models.BatchUploadItemOut, 0, len(files))}
	for i, header := range files {
		result := models.BatchUploadItemOut{OriginalName: services.SafeFileName(header.Filename)}
		stored, err := controller.batchItem(c, header, quality, fmt.Sprintf("upload_%d", i), now)
		if err != nil {
			log.Warn().Err(err).Str("file", result.OriginalName).Msg("Batch upload item failed")
			result.Error = err.Error()
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				result.Error = fmt.Sprint(httpErr.Message)
			}
		} else {
			result.Success = true
			result.URL = stored.URL
			result.Path = stored.Path
			result.Size = stored.Size
			result.MimeType = stored.MimeType
			out.Summary.Success++
		}
		out.Data = append(out.Data, result)
	}
	out.Summary.Total = len(files)
	out.Summary.Failed = out.Summary.Total - out.Summary.Success
	out.Success = out.Summary.Success > 0
	out.Timestamp = timestamp()
	return c.JSON(http.StatusOK, out)
}

func (controller *UploadController) batchItem(c echo.Context, header *multipart.FileHeader, quality services.Quality, prefix string, now time.Time) (models.UploadedFile, error) {
	data, contentType, err := controller.readImage(header)
	if err != nil {
		return models.UploadedFile{}, err
	}
	body, storedType, ext := optimize(data, contentType, quality)
	return controller.store(c, services.ObjectKey(prefix, now, ext), body, storedType)
}

// RemoveBackground stores both the cutout and the untouched original. When
// the image cannot be processed the original is stored twice and
// Processed is false.
func (controller *UploadController) RemoveBackground(c echo.Context) error {
	if err := controller.requireStorage(); err != nil {
		return err
	}
	header, err := c.FormFile("image")
	if err != nil {
		return models.NewValidationError("image", "please upload an image")
	}
	data, contentType, err := controller.readImage(header)
	if err != nil {
		return err
	}
	quality := services.ParseQuality(c.FormValue("quality"))

	processedBytes, processedType, processedExt := data, contentType, services.ExtensionFor(contentType)
	processed := true
	if cutout, err := services.RemoveBackground(data, quality); err != nil {
		log.Warn().Err(err).Str("file", header.Filename).Msg("Background removal failed, storing original")
		processed = false
	} else {
		processedBytes, processedType, processedExt = cutout.Bytes, cutout.ContentType, cutout.Extension
	}

	now := controller.now()
	originalExt := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if originalExt == "" {
		originalExt = services.ExtensionFor(contentType)
	}
	processedFile, err := controller.store(c, services.ObjectKey("processed", now, processedExt), processedBytes, processedType)
	if err != nil {
		return err
	}
	originalFile, err := controller.store(c, services.ObjectKey("original", now, originalExt), data, contentType)
	if err != nil {
		return err
	}

	ratio := float64(len(data)-len(processedBytes)) / float64(len(data)) * 100
	return respond(c, http.StatusOK, models.RemoveBackgroundOut{
		OriginalSize:     len(data),
		ProcessedSize:    len(processedBytes),
		CompressionRatio: fmt.Sprintf("%.2f", ratio),
		Quality:          string(quality),
		Processed:        processed,
		Images: models.UploadImages{
			Processed: processedFile,
			Original:  originalFile,
		},
	}, "Background removed")
}

// Presign returns a direct upload URL so clients can skip the API for
// large files.
func (controller *UploadController) Presign(c echo.Context) error {
	if err := controller.requireStorage(); err != nil {
		return err
	}
	var req models.PresignUploadIn
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	key := fmt.Sprintf("clothes/%d_%s", controller.now().UnixMilli(), services.SafeFileName(req.FileName))
	uploadURL, err := controller.Blob.PresignUpload(c.Request().Context(), controller.Bucket, key)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, models.PresignUploadOut{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: controller.Blob.PublicURL(controller.Bucket, key),
	}, "")
}

func (controller *UploadController) Stats(c echo.Context) error {
	storage := "configured"
	if controller.Blob == nil {
		storage = dependencyDisabled
	}
	return respond(c, http.StatusOK, UploadStatsOut{
		MaxFileSize:  controller.maxBytes(),
		MaxFiles:     maxBatchFiles,
		AllowedTypes: services.AllowedImageTypes(),
		Qualities:    []string{string(services.QualityHigh), string(services.QualityMedium), string(services.QualityLow)},
		Bucket:       controller.Bucket,
		Storage:      storage,
	}, "")
}
