package database

import (
	"context"

	"github.com/ds124wfegd/imagecaption/internal/entity"
)

// SessionRepository persists controller state between requests and restarts.
// FindByID returns nil, nil when the session is unknown.
type SessionRepository interface {
	Save(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
}
