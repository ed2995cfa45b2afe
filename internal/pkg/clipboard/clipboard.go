package clipboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrEmpty = errors.New("clipboard is empty")

// Store keeps the last copied text per session.
type Store interface {
	Write(ctx context.Context, session, text string) error
	Read(ctx context.Context, session string) (string, error)
	Delete(ctx context.Context, session string) error
}

// Clipboard is a Store bound to one session.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

type boundClipboard struct {
	store   Store
	session string
}

func Bind(store Store, session string) Clipboard {
	return &boundClipboard{store: store, session: session}
}

func (c *boundClipboard) WriteText(ctx context.Context, text string) error {
	return c.store.Write(ctx, c.session, text)
}

type memoryStore struct {
	mu    sync.RWMutex
	texts map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{texts: make(map[string]string)}
}

func (s *memoryStore) Write(_ context.Context, session, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.texts[session] = text
	return nil
}

func (s *memoryStore) Read(_ context.Context, session string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.texts[session]
	if !ok {
		return "", ErrEmpty
	}
	return text, nil
}

func (s *memoryStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.texts, session)
	return nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Write(ctx context.Context, session, text string) error {
	return s.client.Set(ctx, clipboardKey(session), text, s.ttl).Err()
}

func (s *redisStore) Read(ctx context.Context, session string) (string, error) {
	text, err := s.client.Get(ctx, clipboardKey(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	return text, err
}

func (s *redisStore) Delete(ctx context.Context, session string) error {
	return s.client.Del(ctx, clipboardKey(session)).Err()
}

func clipboardKey(session string) string {
	return "clipboard:" + session
}
