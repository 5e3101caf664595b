package models

import "time"

// MUpload represents metadata about an uploaded chart image.
type MUpload struct {
	ID           string    `json:"id"` // generated storage name
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	URL          string    `json:"url"` // public /media/... URL
	UploadedAt   time.Time `json:"uploaded_at"`
}
