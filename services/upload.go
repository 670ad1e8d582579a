package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest accepted upload (10MB)
const MaxUploadSize = 10 * 1024 * 1024

var allowedDocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"image/jpeg",
	"image/png",
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DetectUpload sniffs the real content type of an uploaded file and checks
// it against the allowed list. The declared Content-Type header is ignored.
func DetectUpload(fileHeader *multipart.FileHeader, allowed []string) (string, error) {
	if fileHeader.Size > MaxUploadSize {
		return "", NewValidationError("file size exceeds maximum allowed size of 10MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}

	for _, a := range allowed {
		if mtype.Is(a) {
			return a, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("file type %s is not allowed. Accepted formats: PDF, DOC, DOCX, XLSX, TXT, JPG, PNG", mtype.String()))
}

// StoreUpload validates the file and writes it to the configured storage under key
func StoreUpload(ctx context.Context, fileHeader *multipart.FileHeader, key string, allowed []string) (*StorageResult, error) {
	if Storage == nil {
		return nil, fmt.Errorf("storage is not initialized")
	}

	contentType, err := DetectUpload(fileHeader, allowed)
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return Storage.UploadReader(ctx, io.LimitReader(src, MaxUploadSize), key, contentType, fileHeader.Size)
}

// SafeFileName keeps the base name of an uploaded file for display
func SafeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = SanitizeText(name)
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}
