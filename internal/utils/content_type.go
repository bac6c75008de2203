package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// image extensions accepted for upload, all lowercase
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := imageExtensions[ext]; ok {
		return ct
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

// IsImageFilename reports whether name carries a supported image extension.
func IsImageFilename(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := imageExtensions[ext]
	return ok
}
