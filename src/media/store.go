package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smc-analysis/src/helpers"
	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Store saves uploaded chart images into the media root and hands back the
// public /media/... URL for the stored file.
// -----------------------------------------------------------------------------

type Store struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewStore(cfg *models.MConfig, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Media.Root, 0755); err != nil {
		return nil, &helpers.MediaError{ServiceError: helpers.ServiceError{
			Message: fmt.Sprintf("failed to create media root '%s'", cfg.Media.Root),
			Cause:   err,
		}}
	}

	return &Store{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

// allowedExtension checks the file extension against the configured whitelist.
func (s *Store) allowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.Config.Media.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// Save validates and stores an uploaded file under a collision-free name.
func (s *Store) Save(header *multipart.FileHeader) (*models.MUpload, error) {
	if header.Filename == "" {
		return nil, &helpers.ValidationError{ServiceError: helpers.ServiceError{Message: "missing file name"}}
	}

	if !s.allowedExtension(header.Filename) {
		return nil, &helpers.ValidationError{ServiceError: helpers.ServiceError{
			Message: fmt.Sprintf("file type not allowed: %s", filepath.Ext(header.Filename)),
		}}
	}

	maxBytes := int64(s.Config.Media.MaxUploadMB) * 1024 * 1024
	if header.Size > maxBytes {
		return nil, &helpers.ValidationError{ServiceError: helpers.ServiceError{
			Message: fmt.Sprintf("file too large: %d bytes (max %d MB)", header.Size, s.Config.Media.MaxUploadMB),
		}}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storedName := uuid.NewString() + ext
	dst := filepath.Join(s.Config.Media.Root, storedName)

	src, err := header.Open()
	if err != nil {
		return nil, &helpers.MediaError{ServiceError: helpers.ServiceError{Message: "failed to open upload", Cause: err}}
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, &helpers.MediaError{ServiceError: helpers.ServiceError{Message: "failed to create media file", Cause: err}}
	}
	defer out.Close()

	written, err := io.Copy(out, src)
	if err != nil {
		os.Remove(dst)
		return nil, &helpers.MediaError{ServiceError: helpers.ServiceError{Message: "failed to write media file", Cause: err}}
	}

	upload := &models.MUpload{
		ID:           storedName,
		OriginalName: filepath.Base(header.Filename),
		Size:         written,
		ContentType:  header.Header.Get("Content-Type"),
		URL:          strings.TrimSuffix(s.Config.Media.URLPrefix, "/") + "/" + storedName,
		UploadedAt:   time.Now().UTC(),
	}

	s.Logger.Info("Stored upload %s (%d bytes) as %s", upload.OriginalName, written, storedName)
	return upload, nil
}

// -----------------------------------------------------------------------------

// Remove deletes a stored media file by its generated name.
func (s *Store) Remove(storedName string) error {
	// Reject anything that could escape the media root
	if storedName != filepath.Base(storedName) || storedName == "." || storedName == "" {
		return &helpers.ValidationError{ServiceError: helpers.ServiceError{
			Message: fmt.Sprintf("invalid media name: %s", storedName),
		}}
	}
	return os.Remove(filepath.Join(s.Config.Media.Root, storedName))
}
