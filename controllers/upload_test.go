package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"wardrobeapi/models"
	"wardrobeapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authorized(req *http.Request) *http.Request {
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+test.GenerateUserToken("user-1"))
	return req
}

func uploadRequest(target string, files []test.MultipartFile, fields map[string]string) *http.Request {
	return authorized(test.NewMultipartRequest(http.MethodPost, target, files, fields))
}

func TestUploadStoresOptimizedImage(t *testing.T) {
	s := setupTestServer(t)
	png := test.GarmentPNG(64, 64)

	rec := s.serve(uploadRequest("/api/upload", []test.MultipartFile{{Field: "file", FileName: "my shirt.png", Content: png}}, map[string]string{"quality": "low"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.UploadOut
	decodeEnvelope(t, rec, &out)
	assert.Equal(t, "my_shirt.png", out.OriginalName)
	assert.Equal(t, "low", out.Quality)
	assert.True(t, strings.HasPrefix(out.Path, "upload_"), out.Path)
	assert.Equal(t, "https://blob.test/clothing-images/"+out.Path, out.URL)
	require.Equal(t, 1, s.blob.Count())
	assert.Equal(t, out.Size, len(s.blob.Objects["clothing-images/"+out.Path]))
}

func TestUploadRequiresToken(t *testing.T) {
	s := setupTestServer(t)
	req := test.NewMultipartRequest(http.MethodPost, "/api/upload", []test.MultipartFile{{Field: "file", FileName: "a.png", Content: test.GarmentPNG(8, 8)}}, nil)

	assert.Equal(t, http.StatusUnauthorized, s.serve(req).Code)
	assert.Zero(t, s.blob.Count())
}

func TestUploadRejectsBadFiles(t *testing.T) {
	s := setupTestServer(t)

	rec := s.serve(uploadRequest("/api/upload", []test.MultipartFile{{Field: "file", FileName: "notes.txt", Content: []byte("plain text, not an image")}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = s.serve(uploadRequest("/api/upload", []test.MultipartFile{{Field: "image", FileName: "a.png", Content: test.GarmentPNG(8, 8)}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, s.blob.Count())
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 1024
	blob := test.NewBlobMock()
	e := SetupServer(Dependencies{Config: cfg, Catalog: test.NewCatalogMock(), Blob: blob})

	rec := newRecorder(e, uploadRequest("/api/upload", []test.MultipartFile{{Field: "file", FileName: "big.png", Content: bytes.Repeat([]byte("a"), 2048)}}, nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, rec).Code)
	assert.Zero(t, blob.Count())
}

func TestUploadBlobFailure(t *testing.T) {
	s := setupTestServer(t)
	s.blob.Err = errors.New("bucket unreachable")

	rec := s.serve(uploadRequest("/api/upload", []test.MultipartFile{{Field: "file", FileName: "a.png", Content: test.GarmentPNG(8, 8)}}, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUploadWithoutStorage(t *testing.T) {
	e := SetupServer(Dependencies{Config: testConfig(), Catalog: test.NewCatalogMock()})

	rec := newRecorder(e, uploadRequest("/api/upload", []test.MultipartFile{{Field: "file", FileName: "a.png", Content: test.GarmentPNG(8, 8)}}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = newRecorder(e, authorized(test.NewJSONRequest(http.MethodPost, "/api/upload/presign", models.PresignUploadIn{FileName: "a.png"})))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func decodeBatch(t *testing.T, body []byte) BatchUploadOut {
	t.Helper()
	var out BatchUploadOut
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestBatchUploadReportsEachFile(t *testing.T) {
	s := setupTestServer(t)
	files := []test.MultipartFile{
		{Field: "files", FileName: "one.png", Content: test.GarmentPNG(16, 16)},
		{Field: "files", FileName: "notes.txt", Content: []byte("not an image")},
		{Field: "files", FileName: "two.png", Content: test.GarmentPNG(24, 24)},
	}

	rec := s.serve(uploadRequest("/api/upload/batch", files, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBatch(t, rec.Body.Bytes())
	assert.True(t, out.Success)
	assert.Equal(t, models.BatchUploadSummary{Total: 3, Success: 2, Failed: 1}, out.Summary)
	require.Len(t, out.Data, 3)
	assert.True(t, strings.HasPrefix(out.Data[0].Path, "upload_0_"), out.Data[0].Path)
	assert.False(t, out.Data[1].Success)
	assert.Equal(t, "notes.txt", out.Data[1].OriginalName)
	assert.NotEmpty(t, out.Data[1].Error)
	assert.True(t, strings.HasPrefix(out.Data[2].Path, "upload_2_"), out.Data[2].Path)
	assert.Equal(t, 2, s.blob.Count())
}

func TestBatchUploadAllFailed(t *testing.T) {
	s := setupTestServer(t)
	files := []test.MultipartFile{{Field: "files", FileName: "notes.txt", Content: []byte("not an image")}}

	rec := s.serve(uploadRequest("/api/upload/batch", files, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBatch(t, rec.Body.Bytes())
	assert.False(t, out.Success)
	assert.Equal(t, models.BatchUploadSummary{Total: 1, Failed: 1}, out.Summary)
}

func TestBatchUploadFileCount(t *testing.T) {
	s := setupTestServer(t)
	png := test.GarmentPNG(4, 4)
	files := make([]test.MultipartFile, maxBatchFiles+1)
	for i := range files {
		files[i] = test.MultipartFile{Field: "files", FileName: fmt.Sprintf("%d.png", i), Content: png}
	}

	assert.Equal(t, http.StatusBadRequest, s.serve(uploadRequest("/api/upload/batch", files, nil)).Code)
	assert.Equal(t, http.StatusBadRequest, s.serve(uploadRequest("/api/upload/batch", nil, map[string]string{"quality": "high"})).Code)
	assert.Zero(t, s.blob.Count())
}

func TestRemoveBackgroundStoresBothImages(t *testing.T) {
	s := setupTestServer(t)
	png := test.GarmentPNG(64, 64)

	rec := s.serve(uploadRequest("/api/upload/remove-background", []test.MultipartFile{{Field: "image", FileName: "shirt.png", Content: png}}, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.RemoveBackgroundOut
	decodeEnvelope(t, rec, &out)
	assert.Equal(t, len(png), out.OriginalSize)
	assert.Equal(t, "medium", out.Quality)
	assert.NotEmpty(t, out.CompressionRatio)
	assert.True(t, strings.HasPrefix(out.Images.Processed.Path, "processed_"), out.Images.Processed.Path)
	assert.True(t, strings.HasPrefix(out.Images.Original.Path, "original_"), out.Images.Original.Path)
	assert.True(t, strings.HasSuffix(out.Images.Original.Path, ".png"), out.Images.Original.Path)
	assert.Equal(t, png, s.blob.Objects["clothing-images/"+out.Images.Original.Path])
	assert.Equal(t, 2, s.blob.Count())
}

func TestPresignUpload(t *testing.T) {
	s := setupTestServer(t)

	rec := s.serve(test.NewJSONAuthRequest(http.MethodPost, "/api/upload/presign", "user-1", models.PresignUploadIn{FileName: "my shirt.png"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.PresignUploadOut
	decodeEnvelope(t, rec, &out)
	assert.True(t, strings.HasPrefix(out.Key, "clothes/"), out.Key)
	assert.True(t, strings.HasSuffix(out.Key, "_my_shirt.png"), out.Key)
	assert.Equal(t, "https://blob.test/clothing-images/"+out.Key, out.PublicURL)
	assert.Contains(t, out.UploadURL, "signature=")

	rec = s.serve(test.NewJSONAuthRequest(http.MethodPost, "/api/upload/presign", "user-1", models.PresignUploadIn{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStats(t *testing.T) {
	s := setupTestServer(t)

	rec := s.serve(test.NewJSONRequest(http.MethodGet, "/api/upload/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats UploadStatsOut
	decodeEnvelope(t, rec, &stats)
	assert.Equal(t, int64(10<<20), stats.MaxFileSize)
	assert.Equal(t, maxBatchFiles, stats.MaxFiles)
	assert.Equal(t, "clothing-images", stats.Bucket)
	assert.Equal(t, "configured", stats.Storage)
	assert.Contains(t, stats.AllowedTypes, "image/png")
}
