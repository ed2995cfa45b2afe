package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/controller"
	"github.com/ds124wfegd/imagecaption/internal/database"
	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/pkg/clipboard"
	"github.com/ds124wfegd/imagecaption/internal/pkg/kafka"
	"github.com/ds124wfegd/imagecaption/internal/pkg/processor"
	"github.com/ds124wfegd/imagecaption/internal/provider"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("caption service is closed")

type session struct {
	ctrl     *controller.Controller
	lastUsed time.Time

	// saveMu orders snapshot+Save, so an older snapshot never lands after a
	// newer one.
	saveMu       sync.Mutex
	saved        bool
	savedVersion uint64
	expired      bool
}

type captionService struct {
	repo      database.SessionRepository
	provider  provider.DescriptionProvider
	reader    processor.PreviewReader
	clipboard clipboard.Store
	producer  kafka.Producer

	mu          sync.Mutex
	controllers map[string]*session
	closed      bool
	now         func() time.Time

	// Фоновые генерации живут дольше запроса
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCaptionService(
	repo database.SessionRepository,
	p provider.DescriptionProvider,
	reader processor.PreviewReader,
	store clipboard.Store,
	producer kafka.Producer,
) CaptionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &captionService{
		repo:        repo,
		provider:    p,
		reader:      reader,
		clipboard:   store,
		producer:    producer,
		controllers: make(map[string]*session),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *captionService) State(ctx context.Context, sessionID string) (entity.State, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.State{}, err
	}
	return sess.ctrl.State(), nil
}

func (s *captionService) SelectImage(ctx context.Context, sessionID string, img entity.Image) (entity.State, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.State{}, err
	}

	err = sess.ctrl.SelectImage(ctx, img)
	state := s.persist(ctx, sessionID, sess)

	log := logrus.WithFields(logrus.Fields{
		"session":    sessionID,
		"image":      img.Name,
		"media_type": img.MediaType,
		"size":       len(img.Data),
	})
	if err != nil {
		log.WithError(err).Info("Image rejected")
	} else {
		log.Info("Image selected")
	}
	return state, err
}

func (s *captionService) GenerateDescription(ctx context.Context, sessionID string, wait bool) (entity.State, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.State{}, err
	}
	c := sess.ctrl

	runCtx := ctx
	if !wait {
		runCtx = s.ctx
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return c.State(), ErrClosed
	}
	run, err := c.StartGeneration(runCtx)
	if err == nil && !wait {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	state := s.persist(ctx, sessionID, sess)
	if err != nil {
		return state, err
	}

	var img entity.Image
	if state.SelectedImage != nil {
		img = *state.SelectedImage
	}
	started := time.Now()

	if wait {
		err = run()
		s.settled(ctx, sessionID, sess, img, started, err)
		return c.State(), err
	}

	go func() {
		defer s.wg.Done()
		err := run()
		s.settled(s.ctx, sessionID, sess, img, started, err)
	}()
	return state, nil
}

// settled persists the outcome and publishes a generation event.
func (s *captionService) settled(ctx context.Context, sessionID string, sess *session, img entity.Image, started time.Time, runErr error) {
	// Контекст мог уже завершиться, сохраняем состояние в любом случае
	ctx = context.WithoutCancel(ctx)

	event := entity.GenerationEvent{
		SessionID: sessionID,
		ImageID:   img.ID,
		ImageName: img.Name,
		MediaType: img.MediaType,
		Provider:  provider.NameOf(s.provider),
		Duration:  time.Since(started),
		SettledAt: time.Now().UTC(),
	}

	switch {
	case runErr == nil:
		event.Outcome = entity.OutcomeSucceeded
		event.Description = sess.ctrl.State().Description
	case errors.Is(runErr, entity.ErrStaleGeneration):
		event.Outcome = entity.OutcomeDiscarded
	default:
		event.Outcome = entity.OutcomeFailed
		event.Error = runErr.Error()
	}

	if event.Outcome != entity.OutcomeDiscarded {
		s.persist(ctx, sessionID, sess)
	}

	log := logrus.WithFields(logrus.Fields{
		"session":  sessionID,
		"image":    img.Name,
		"provider": event.Provider,
		"outcome":  event.Outcome,
		"duration": event.Duration.String(),
	})
	if runErr != nil && event.Outcome == entity.OutcomeFailed {
		log.WithError(runErr).Warn("Description generation failed")
	} else {
		log.Info("Description generation settled")
	}

	if s.producer == nil {
		return
	}
	if err := s.producer.SendMessage(ctx, sessionID, event); err != nil {
		logrus.WithError(err).WithField("session", sessionID).Warn("Failed to publish generation event")
	}
}

func (s *captionService) CopyDescription(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return sess.ctrl.CopyDescription(ctx), nil
}

func (s *captionService) Clipboard(ctx context.Context, sessionID string) (string, error) {
	if s.clipboard == nil {
		return "", clipboard.ErrEmpty
	}
	return s.clipboard.Read(ctx, sessionID)
}

func (s *captionService) Reset(ctx context.Context, sessionID string) (entity.State, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return entity.State{}, err
	}

	sess.ctrl.Reset()
	logrus.WithField("session", sessionID).Info("Session reset")
	return s.persist(ctx, sessionID, sess), nil
}

func (s *captionService) ExpireIdle(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	expired := make(map[string]*session)
	for id, sess := range s.controllers {
		if s.now().Sub(sess.lastUsed) > ttl && !sess.ctrl.State().Busy {
			expired[id] = sess
			delete(s.controllers, id)
		}
	}
	s.mu.Unlock()

	var errs []error
	for id, sess := range expired {
		// Запросы, ещё держащие контроллер, не должны вернуть сессию в хранилище
		sess.saveMu.Lock()
		sess.expired = true
		err := s.repo.Delete(ctx, id)
		sess.saveMu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
		if s.clipboard != nil {
			if err := s.clipboard.Delete(ctx, id); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return len(expired), errors.Join(errs...)
}

// Close cancels background generations and waits for them to settle.
func (s *captionService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

// session returns the cached session for sessionID, restoring it from the
// repository on first use.
func (s *captionService) session(ctx context.Context, sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, entity.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.controllers[sessionID]; ok {
		sess.lastUsed = s.now()
		return sess, nil
	}

	opts := []controller.Option{
		controller.WithLogger(logrus.WithField("session", sessionID)),
	}
	if s.clipboard != nil {
		opts = append(opts, controller.WithClipboard(clipboard.Bind(s.clipboard, sessionID)))
	}

	stored, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess := &session{lastUsed: s.now()}
	if stored != nil {
		opts = append(opts, controller.WithState(stored.State()), controller.WithVersion(stored.Version))
		sess.saved = true
		sess.savedVersion = stored.Version
		logrus.WithField("session", sessionID).Debug("Session restored")
	}

	sess.ctrl = controller.New(s.provider, s.reader, opts...)
	s.controllers[sessionID] = sess
	return sess, nil
}

// persist writes the controller state through to the repository. Storage
// failures are logged; the in-memory controller stays authoritative. A
// snapshot no newer than the stored one is not written again.
func (s *captionService) persist(ctx context.Context, sessionID string, sess *session) entity.State {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	state, version := sess.ctrl.Snapshot()
	if sess.expired || (sess.saved && version <= sess.savedVersion) {
		return state
	}

	err := s.repo.Save(ctx, entity.NewSession(sessionID, state, version, time.Now().UTC()))
	if err != nil {
		logrus.WithError(err).WithField("session", sessionID).Error("Failed to save session")
		return state
	}
	sess.saved = true
	sess.savedVersion = version
	return state
}
