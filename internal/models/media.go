package models

import "strings"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaTypeFromMIME maps a MIME type to the media kind, false if unsupported.
func MediaTypeFromMIME(mime string) (MediaType, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(mime, "video/"):
		return MediaTypeVideo, true
	}
	return "", false
}

// Media is an image or video attached to a job. Exactly one of Data,
// StorageKey or URL describes where the content lives.
type Media struct {
	ID         int64     `db:"id" json:"id"`
	JobID      int64     `db:"job_id" json:"job_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileType   MediaType `db:"file_type" json:"file_type"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	StorageKey *string   `db:"storage_key" json:"storage_key,omitempty"`
	URL        *string   `db:"url" json:"url,omitempty"`
	Data       []byte    `db:"file_data" json:"-"`
}

type MediaInput struct {
	FileName   string
	FileType   MediaType
	MimeType   string
	StorageKey *string
	URL        *string
	Data       []byte
}
