package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/entity"
)

// CaptionService runs one controller per session.
type CaptionService interface {
	State(ctx context.Context, sessionID string) (entity.State, error)
	SelectImage(ctx context.Context, sessionID string, img entity.Image) (entity.State, error)
	// GenerateDescription blocks until the generation settles when wait is
	// true. Otherwise it returns the busy state and settles in the background.
	GenerateDescription(ctx context.Context, sessionID string, wait bool) (entity.State, error)
	CopyDescription(ctx context.Context, sessionID string) (string, error)
	Clipboard(ctx context.Context, sessionID string) (string, error)
	Reset(ctx context.Context, sessionID string) (entity.State, error)
	// ExpireIdle forgets sessions untouched for longer than ttl. Busy
	// sessions are kept.
	ExpireIdle(ctx context.Context, ttl time.Duration) (int, error)
	Close() error
}
