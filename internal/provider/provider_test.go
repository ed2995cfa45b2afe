package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = entity.Image{
	ID:        "img-1",
	Name:      "cat.png",
	MediaType: "image/png",
	Data:      []byte{0x89, 'P', 'N', 'G'},
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider(0)

	for i := 0; i < 20; i++ {
		text, err := p.Describe(context.Background(), testImage)
		require.NoError(t, err)
		assert.Contains(t, cannedDescriptions, text)
	}
	assert.Equal(t, "mock", NameOf(p))
}

func TestMockProviderCancelled(t *testing.T) {
	p := NewMockProvider(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	text, err := p.Describe(ctx, testImage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, text)
}

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		delay   time.Duration
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "finishes before deadline",
			delay:   0,
			timeout: time.Second,
		},
		{
			name:    "deadline exceeded",
			delay:   time.Hour,
			timeout: 20 * time.Millisecond,
			wantErr: context.DeadlineExceeded,
		},
		{
			name:  "zero timeout leaves provider unbounded",
			delay: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := WithTimeout(NewMockProvider(tt.delay), tt.timeout)

			_, err := p.Describe(context.Background(), testImage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "mock", NameOf(p))
		})
	}
}

func TestNameOf(t *testing.T) {
	f := Func(func(context.Context, entity.Image) (string, error) { return "x", nil })
	assert.Equal(t, "custom", NameOf(f))
	assert.NoError(t, Close(f))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ProviderConfig
		wantName string
		wantErr  error
	}{
		{
			name:     "empty name selects mock",
			cfg:      config.ProviderConfig{},
			wantName: "mock",
		},
		{
			name:     "mock with timeout",
			cfg:      config.ProviderConfig{Name: "Mock", Timeout: time.Second},
			wantName: "mock",
		},
		{
			name:     "ollama",
			cfg:      config.ProviderConfig{Name: "ollama", OllamaHost: "http://localhost:11434"},
			wantName: "ollama",
		},
		{
			name:    "unknown provider",
			cfg:     config.ProviderConfig{Name: "dalle"},
			wantErr: ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, NameOf(p))
			assert.NoError(t, Close(p))
		})
	}
}

func TestNewGeminiWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New(context.Background(), config.ProviderConfig{Name: "gemini"})
	assert.Error(t, err)
}

func TestNewOllamaInvalidHost(t *testing.T) {
	_, err := NewOllamaProvider("localhost", "", "")
	assert.Error(t, err)
}

func TestOllamaProvider(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantErr  bool
		emptyErr bool
	}{
		{
			name:   "returns trimmed response",
			status: http.StatusOK,
			body:   `{"model":"llava","response":"  A cat on a sofa. ","done":true}`,
			want:   "A cat on a sofa.",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"model not loaded"}`,
			wantErr: true,
		},
		{
			name:     "empty response",
			status:   http.StatusOK,
			body:     `{"model":"llava","response":"","done":true}`,
			wantErr:  true,
			emptyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/generate", r.URL.Path)
				_ = json.NewDecoder(r.Body).Decode(&got)

				w.Header().Set("Content-Type", "application/x-ndjson")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body + "\n"))
			}))
			defer srv.Close()

			p, err := NewOllamaProvider(srv.URL, "llava", "")
			require.NoError(t, err)

			text, err := p.Describe(context.Background(), testImage)
			if tt.wantErr {
				require.Error(t, err)
				if tt.emptyErr {
					assert.True(t, errors.Is(err, ErrEmptyDescription))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, "llava", got["model"])
			assert.Equal(t, defaultPrompt, got["prompt"])
			assert.Equal(t, false, got["stream"])
			assert.Len(t, got["images"], 1)
		})
	}
}

func TestGeminiFormat(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"image/jpeg", "jpeg"},
		{"image/jpg", "jpeg"},
		{"image/png", "png"},
		{"image/webp; charset=binary", "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, geminiFormat(entity.Image{MediaType: tt.mediaType}))
		})
	}
}
