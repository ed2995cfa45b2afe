package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/service"
	"github.com/sirupsen/logrus"
)

// SessionCleanupWorker periodically expires idle sessions.
type SessionCleanupWorker struct {
	captionService service.CaptionService
	interval       time.Duration
	ttl            time.Duration
}

func NewSessionCleanupWorker(captionService service.CaptionService, interval, ttl time.Duration) *SessionCleanupWorker {
	return &SessionCleanupWorker{
		captionService: captionService,
		interval:       interval,
		ttl:            ttl,
	}
}

// Start blocks until ctx is cancelled. A non-positive interval or ttl
// disables the worker.
func (w *SessionCleanupWorker) Start(ctx context.Context) {
	if w.interval <= 0 || w.ttl <= 0 {
		logrus.Info("Session cleanup worker disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"interval": w.interval.String(),
		"ttl":      w.ttl.String(),
	}).Info("Session cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Session cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanupExpiredSessions(ctx)
		}
	}
}

// cleanupExpiredSessions выполняет очистку неактивных сессий
func (w *SessionCleanupWorker) cleanupExpiredSessions(ctx context.Context) {
	expired, err := w.captionService.ExpireIdle(ctx, w.ttl)
	if err != nil {
		logrus.WithError(err).Errorf("Session cleanup finished with errors, %d sessions expired", expired)
		return
	}
	if expired > 0 {
		logrus.Infof("Expired %d idle sessions", expired)
	}
}
