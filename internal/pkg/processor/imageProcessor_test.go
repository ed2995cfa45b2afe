package processor

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.PreviewConfig {
	return config.PreviewConfig{MaxWidth: 200, MaxHeight: 100, JPEGQuality: 80, MaxPixels: 1_000_000}
}

// TestToPreviewScaling проверяет, что превью вписывается в заданные размеры
func TestToPreviewScaling(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		encode     func(*bytes.Buffer, image.Image) error
		mediaType  string
		wantPrefix string
		maxW, maxH int
	}{
		{
			name:       "large png is scaled down",
			width:      800,
			height:     600,
			encode:     func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) },
			mediaType:  "image/png",
			wantPrefix: "data:image/png;base64,",
			maxW:       200,
			maxH:       100,
		},
		{
			name:       "small jpeg is kept",
			width:      50,
			height:     40,
			encode:     func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) },
			mediaType:  "image/jpeg",
			wantPrefix: "data:image/jpeg;base64,",
			maxW:       50,
			maxH:       40,
		},
		{
			name:       "portrait gif becomes png",
			width:      300,
			height:     900,
			encode:     func(b *bytes.Buffer, img image.Image) error { return gif.Encode(b, img, nil) },
			mediaType:  "image/gif",
			wantPrefix: "data:image/png;base64,",
			maxW:       200,
			maxH:       100,
		},
	}

	p := NewImageProcessor(testConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			fillImageWithColor(original, color.RGBA{R: 100, G: 150, B: 200, A: 255})

			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf, original))

			uri, err := p.ToPreview(context.Background(), entity.Image{
				Name:      "test",
				MediaType: tt.mediaType,
				Data:      buf.Bytes(),
			})
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(uri, tt.wantPrefix))

			decoded := decodeDataURI(t, uri)
			assert.LessOrEqual(t, decoded.Bounds().Dx(), tt.maxW)
			assert.LessOrEqual(t, decoded.Bounds().Dy(), tt.maxH)
		})
	}
}

// TestToPreviewErrors проверяет граничные случаи
func TestToPreviewErrors(t *testing.T) {
	p := NewImageProcessor(testConfig())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		img     entity.Image
		wantErr error
	}{
		{
			name:    "empty data",
			ctx:     context.Background(),
			img:     entity.Image{MediaType: "image/png"},
			wantErr: ErrEmptyImage,
		},
		{
			name: "corrupt png",
			ctx:  context.Background(),
			img:  entity.Image{MediaType: "image/png", Data: []byte("not a png")},
		},
		{
			name:    "cancelled context",
			ctx:     cancelled,
			img:     entity.Image{MediaType: "image/png", Data: []byte{1}},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := p.ToPreview(tt.ctx, tt.img)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, uri)
		})
	}
}

func TestToPreviewPassthrough(t *testing.T) {
	p := NewImageProcessor(testConfig())
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"/>`)

	uri, err := p.ToPreview(context.Background(), entity.Image{MediaType: "image/svg+xml", Data: svg})
	require.NoError(t, err)
	assert.Equal(t, "data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString(svg), uri)
}

// TestToPreviewPixelLimit проверяет, что огромное изображение отклоняется до декодирования
func TestToPreviewPixelLimit(t *testing.T) {
	// Однотонный png сжимается до нескольких килобайт, но в памяти занимает мегабайты
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4000, 4000))))
	require.Less(t, buf.Len(), 100_000)

	tests := []struct {
		name    string
		cfg     config.PreviewConfig
		wantErr error
	}{
		{
			name:    "over the pixel limit",
			cfg:     testConfig(),
			wantErr: ErrTooManyPixels,
		},
		{
			name: "limit disabled",
			cfg:  config.PreviewConfig{MaxWidth: 200, MaxHeight: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := NewImageProcessor(tt.cfg).ToPreview(context.Background(), entity.Image{
				MediaType: "image/png",
				Data:      buf.Bytes(),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, uri)
				return
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, decodeDataURI(t, uri).Bounds().Dx(), 200)
		})
	}
}

// TestToPreviewAnimatedGIF проверяет, что небольшая анимация не теряет кадры
func TestToPreviewAnimatedGIF(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	anim := &gif.GIF{
		Image: []*image.Paletted{
			image.NewPaletted(image.Rect(0, 0, 40, 30), palette),
			image.NewPaletted(image.Rect(0, 0, 40, 30), palette),
		},
		Delay: []int{10, 10},
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))

	uri, err := NewImageProcessor(testConfig()).ToPreview(context.Background(), entity.Image{
		MediaType: "image/gif",
		Data:      buf.Bytes(),
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/gif;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()), uri)

	_, payload, _ := strings.Cut(uri, ";base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	decoded, err := gif.DecodeAll(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 2)
}

func TestNewImageProcessorQuality(t *testing.T) {
	p := NewImageProcessor(config.PreviewConfig{JPEGQuality: 0}).(*imageProcessor)
	assert.Equal(t, 85, p.quality)

	// Нулевые размеры отключают масштабирование
	img := image.NewRGBA(image.Rect(0, 0, 3000, 3000))
	assert.Equal(t, 3000, p.fit(img).Bounds().Dx())
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	_, payload, ok := strings.Cut(uri, ";base64,")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

// fillImageWithColor заполняет изображение одним цветом
func fillImageWithColor(img *image.RGBA, c color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}
