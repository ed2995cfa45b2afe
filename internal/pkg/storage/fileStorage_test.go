package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	require.NoError(t, s.Save("sessions/a.json", strings.NewReader(`{"id":"a"}`)))
	assert.True(t, s.Exists("sessions/a.json"))

	r, err := s.Get("sessions/a.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, `{"id":"a"}`, string(data))

	// Перезапись
	require.NoError(t, s.Save("sessions/a.json", strings.NewReader(`{"id":"b"}`)))
	r, err = s.Get("sessions/a.json")
	require.NoError(t, err)
	data, _ = io.ReadAll(r)
	r.Close()
	assert.Equal(t, `{"id":"b"}`, string(data))

	require.NoError(t, s.Delete("sessions/a.json"))
	assert.False(t, s.Exists("sessions/a.json"))
	assert.NoError(t, s.Delete("sessions/a.json"))
}

func TestFileStorageInvalidPath(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	tests := []string{"../escape.json", "/etc/passwd", "", "a/../../b"}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			assert.ErrorIs(t, s.Save(path, strings.NewReader("x")), ErrInvalidPath)
			_, err := s.Get(path)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.False(t, s.Exists(path))
		})
	}
}
