package entity

import "strings"

// Image is the file picked by the user for captioning.
type Image struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// Format returns the media subtype, e.g. "png" for "image/png".
func (i Image) Format() string {
	mediaType := strings.ToLower(strings.TrimSpace(i.MediaType))
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok {
		return sub
	}
	return mediaType
}

// IsImageMediaType reports whether the declared media type names an image.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
