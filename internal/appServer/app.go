package appServer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/database"
	"github.com/ds124wfegd/imagecaption/internal/pkg/clipboard"
	"github.com/ds124wfegd/imagecaption/internal/pkg/kafka"
	"github.com/ds124wfegd/imagecaption/internal/pkg/processor"
	redispkg "github.com/ds124wfegd/imagecaption/internal/pkg/redis"
	"github.com/ds124wfegd/imagecaption/internal/pkg/storage"
	"github.com/ds124wfegd/imagecaption/internal/provider"
	"github.com/ds124wfegd/imagecaption/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrUnknownBackend = errors.New("unknown session backend")

// App holds everything the front-ends share. Close releases it in reverse
// order of construction.
type App struct {
	Service  service.CaptionService
	Provider provider.DescriptionProvider
	Producer kafka.Producer
	redis    *redis.Client
}

// NewApp builds the provider, session storage, clipboard and event producer
// selected by cfg and wires them into the caption service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	SetupLogging(cfg.App.LogLevel)

	p, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	app := &App{Provider: p}

	var (
		repo  database.SessionRepository
		store clipboard.Store
	)

	switch strings.ToLower(cfg.Session.Backend) {
	case "", "memory":
		repo = database.NewMemorySessionRepository()
		store = clipboard.NewMemoryStore()
	case "file":
		repo = database.NewFileSessionRepository(storage.NewFileStorage(cfg.Session.StoragePath))
		store = clipboard.NewMemoryStore()
	case "redis":
		client, err := redispkg.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			provider.Close(p)
			return nil, err
		}
		app.redis = client
		repo = database.NewRedisSessionRepository(client, cfg.Session.TTL)
		store = clipboard.NewRedisStore(client, cfg.Session.TTL)
	default:
		provider.Close(p)
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Session.Backend)
	}

	app.Producer = kafka.NewProducer(cfg.Kafka)
	app.Service = service.NewCaptionService(repo, p, processor.NewImageProcessor(cfg.Preview), store, app.Producer)

	logrus.WithFields(logrus.Fields{
		"provider": provider.NameOf(p),
		"sessions": cfg.Session.Backend,
		"kafka":    cfg.Kafka.Enabled,
	}).Info("Application assembled")

	return app, nil
}

func (a *App) Close() error {
	var errs []error

	if a.Service != nil {
		errs = append(errs, a.Service.Close())
	}
	if a.Producer != nil {
		errs = append(errs, a.Producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, provider.Close(a.Provider))

	return errors.Join(errs...)
}

// SetupLogging switches logrus to JSON and applies level. Unknown levels
// fall back to info.
func SetupLogging(level string) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
