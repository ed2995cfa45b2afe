package appServer

import (
	"context"
	"testing"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config, dir string)
		wantErr error
	}{
		{
			name:   "memory backend",
			mutate: func(*config.Config, string) {},
		},
		{
			name: "file backend",
			mutate: func(cfg *config.Config, dir string) {
				cfg.Session.Backend = "file"
				cfg.Session.StoragePath = dir
			},
		},
		{
			name:    "unknown backend",
			mutate:  func(cfg *config.Config, _ string) { cfg.Session.Backend = "postgres" },
			wantErr: ErrUnknownBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider.MockDelay = 0
			tt.mutate(cfg, t.TempDir())

			app, err := NewApp(context.Background(), cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ctx := context.Background()
			state, err := app.Service.State(ctx, "00000000-0000-0000-0000-000000000001")
			require.NoError(t, err)
			assert.False(t, state.HasImage())

			assert.NoError(t, app.Close())
		})
	}
}

func TestNewAppUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Name = "dalle"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	SetupLogging("debug")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	SetupLogging("nonsense")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
