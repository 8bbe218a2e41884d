package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// AvatarConstraints accepts JPEG, PNG and WebP images up to maxSize bytes.
func AvatarConstraints(maxSize int64) FileConstraints {
	return FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
		MaxSize: maxSize,
	}
}

// UploadError is a rejected upload. Its message is safe to show the client.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return e.Reason
}

// ValidateFile checks size, extension and sniffed content type of an upload.
// The file is rewound so the caller can read it from the start.
func ValidateFile(header *multipart.FileHeader, file multipart.File, constraints FileConstraints) error {
	if header.Size > constraints.MaxSize {
		return &UploadError{Reason: fmt.Sprintf("file too large: maximum size is %d bytes", constraints.MaxSize)}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return &UploadError{Reason: "please upload a jpg, jpeg, png or webp image"}
	}

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to reset file pointer: %w", err)
	}

	// Magic numbers cannot be faked by renaming the file or setting Content-Type.
	detectedType := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return &UploadError{Reason: fmt.Sprintf("invalid file type (detected: %s)", detectedType)}
	}

	return nil
}
