package transport

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errNoFile = errors.New("no image file provided")

// multipart headers and boundaries on top of the file itself
const multipartOverhead = 1 << 20

// readUpload pulls the "image" form file into memory. The declared media type
// wins; content sniffing only fills in when the client sent none.
func (h *CaptionHandler) readUpload(c *gin.Context) (entity.Image, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return entity.Image{}, entity.ErrImageTooLarge
		}
		return entity.Image{}, fmt.Errorf("%w: %w", errNoFile, err)
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return entity.Image{}, entity.ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return entity.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entity.Image{}, err
	}

	return entity.Image{
		ID:        uuid.NewString(),
		Name:      filepath.Base(fh.Filename),
		MediaType: declaredMediaType(fh.Header.Get("Content-Type"), data),
		Data:      data,
	}, nil
}

func declaredMediaType(header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	detected, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return detected
}
