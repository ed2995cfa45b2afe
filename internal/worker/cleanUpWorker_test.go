package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/service"
	"github.com/stretchr/testify/assert"
)

type countingService struct {
	service.CaptionService
	calls atomic.Int32
	ttl   atomic.Int64
}

func (s *countingService) ExpireIdle(_ context.Context, ttl time.Duration) (int, error) {
	s.calls.Add(1)
	s.ttl.Store(int64(ttl))
	return 1, nil
}

func TestSessionCleanupWorker(t *testing.T) {
	svc := &countingService{}
	w := NewSessionCleanupWorker(svc, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), svc.ttl.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSessionCleanupWorkerDisabled(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		ttl      time.Duration
	}{
		{name: "zero interval", ttl: time.Hour},
		{name: "zero ttl", interval: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &countingService{}
			done := make(chan struct{})
			go func() {
				NewSessionCleanupWorker(svc, tt.interval, tt.ttl).Start(context.Background())
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("disabled worker should return immediately")
			}
			assert.Zero(t, svc.calls.Load())
		})
	}
}
