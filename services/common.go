package services

import (
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AllowedImageTypes lists the accepted upload content types.
func AllowedImageTypes() []string {
	types := make([]string, 0, len(allowedImageTypes))
	for contentType := range allowedImageTypes {
		types = append(types, contentType)
	}
	slices.Sort(types)
	return types
}

// DetectImageType sniffs the payload and falls back to the file extension
// for formats the sniffer does not know. It reports the content type and
// whether it is accepted.
func DetectImageType(data []byte, fileName string) (string, bool) {
	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; ok {
		return contentType, true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if contentType == "application/octet-stream" && slices.Contains(allowedImageExtensions, ext) {
		if ext == ".jpg" {
			ext = ".jpeg"
		}
		return "image/" + strings.TrimPrefix(ext, "."), true
	}
	return contentType, false
}

func ExtensionFor(contentType string) string {
	if ext, ok := allowedImageTypes[contentType]; ok {
		return ext
	}
	return "bin"
}

// ObjectKey names an uploaded object, e.g. processed_1700000000000.png.
func ObjectKey(prefix string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%d.%s", prefix, at.UnixMilli(), ext)
}

// SafeFileName keeps the base name of a client supplied file name.
func SafeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		return "file"
	}
	return name
}
