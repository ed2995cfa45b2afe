package processor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/entity"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyImage    = errors.New("image has no data")
	ErrTooManyPixels = errors.New("image dimensions exceed the preview limit")
)

// PreviewReader turns the selected image into something a page can render.
type PreviewReader interface {
	ToPreview(ctx context.Context, img entity.Image) (string, error)
}

type imageProcessor struct {
	maxWidth  int
	maxHeight int
	maxPixels int
	quality   int
}

func NewImageProcessor(cfg config.PreviewConfig) PreviewReader {
	p := &imageProcessor{
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		maxPixels: cfg.MaxPixels,
		quality:   cfg.JPEGQuality,
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = 85
	}
	return p
}

// ToPreview returns a data URI. Raster formats are decoded, oriented and
// scaled down to the configured box. Formats we cannot decode, and GIFs that
// already fit the box, are passed through untouched so animation survives.
func (p *imageProcessor) ToPreview(ctx context.Context, img entity.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := img.Format()
	if !decodable(format) {
		return dataURI(img.MediaType, img.Data), nil
	}

	// Размеры читаем из заголовка до полного декодирования
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return "", fmt.Errorf("failed to read %s header: %w", format, err)
	}
	if p.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return "", fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	if format == "gif" && p.fits(cfg.Width, cfg.Height) {
		return dataURI(img.MediaType, img.Data), nil
	}

	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	scaled := p.fit(decoded)

	// Прозрачность сохраняем только для png и gif
	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		err = png.Encode(&buf, scaled)
		format = "image/png"
	default:
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: p.quality})
		format = "image/jpeg"
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}

	return dataURI(format, buf.Bytes()), nil
}

func (p *imageProcessor) fit(img image.Image) image.Image {
	b := img.Bounds()
	if p.fits(b.Dx(), b.Dy()) {
		return img
	}
	return imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
}

func (p *imageProcessor) fits(width, height int) bool {
	if p.maxWidth <= 0 || p.maxHeight <= 0 {
		return true
	}
	return width <= p.maxWidth && height <= p.maxHeight
}

func decodable(format string) bool {
	switch format {
	case "jpeg", "jpg", "pjpeg", "png", "gif", "webp", "bmp", "tiff":
		return true
	}
	return false
}

func dataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
