// Package controller owns the state of one captioning session and the four
// operations that change it.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/pkg/clipboard"
	"github.com/ds124wfegd/imagecaption/internal/pkg/processor"
	"github.com/ds124wfegd/imagecaption/internal/provider"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Controller is safe for concurrent use. Every generation is tagged with an
// epoch; Reset and a successful SelectImage advance the epoch, so a result
// that settles afterwards is dropped without touching state. Version grows
// on every state change and orders snapshots written to storage.
type Controller struct {
	mu      sync.Mutex
	state   entity.State
	epoch   uint64
	version uint64
	cancel  context.CancelFunc

	provider  provider.DescriptionProvider
	reader    processor.PreviewReader
	clipboard clipboard.Clipboard
	log       *logrus.Entry
}

type Option func(*Controller)

func WithClipboard(cb clipboard.Clipboard) Option {
	return func(c *Controller) { c.clipboard = cb }
}

// WithState restores a persisted state. A restored controller is never busy:
// the generation that set the flag did not survive.
func WithState(s entity.State) Option {
	return func(c *Controller) {
		s.Busy = false
		c.state = s
	}
}

// WithVersion continues the version sequence of a persisted session.
func WithVersion(v uint64) Option {
	return func(c *Controller) { c.version = v }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Controller) { c.log = log }
}

func New(p provider.DescriptionProvider, r processor.PreviewReader, opts ...Option) *Controller {
	c := &Controller{
		provider: p,
		reader:   r,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() entity.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Snapshot returns a copy of the current state and its version.
func (c *Controller) Snapshot() (entity.State, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(), c.version
}

func (c *Controller) snapshot() entity.State {
	s := c.state
	if s.SelectedImage != nil {
		img := *s.SelectedImage
		s.SelectedImage = &img
	}
	return s
}

// SelectImage validates the declared media type and waits for the preview.
// Neither failure touches the current selection, preview or description.
func (c *Controller) SelectImage(ctx context.Context, img entity.Image) error {
	if !entity.IsImageMediaType(img.MediaType) {
		c.setError(entity.MsgInvalidImage)
		return fmt.Errorf("%w: %q", entity.ErrInvalidImage, img.MediaType)
	}

	preview, err := c.reader.ToPreview(ctx, img)
	if err != nil {
		c.setError(entity.MsgPreviewFailed)
		return fmt.Errorf("%w: %w", entity.ErrPreviewFailed, err)
	}

	if img.ID == "" {
		img.ID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandonLocked()
	c.state.SelectedImage = &img
	c.state.Preview = preview
	c.state.Error = ""
	c.version++
	return nil
}

// StartGeneration performs the synchronous half of a generation: the
// precondition check, clearing the error and raising Busy. The returned run
// calls the provider and settles the state. Callers may invoke run on another
// goroutine.
func (c *Controller) StartGeneration(ctx context.Context) (run func() error, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.HasImage() {
		c.state.Error = entity.MsgNoImage
		c.version++
		return nil, entity.ErrNoImage
	}
	if c.state.Busy {
		return nil, entity.ErrBusy
	}

	c.state.Error = ""
	c.state.Busy = true
	c.version++
	c.epoch++
	token := c.epoch
	img := *c.state.SelectedImage

	genCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	var once sync.Once
	run = func() error {
		err := entity.ErrStaleGeneration
		once.Do(func() {
			text, describeErr := c.describe(genCtx, img)
			cancel()
			err = c.settle(token, text, describeErr)
		})
		return err
	}
	return run, nil
}

// GenerateDescription runs one full generation and returns once it settles.
func (c *Controller) GenerateDescription(ctx context.Context) error {
	run, err := c.StartGeneration(ctx)
	if err != nil {
		return err
	}
	return run()
}

func (c *Controller) describe(ctx context.Context, img entity.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("Description provider panicked")
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return c.provider.Describe(ctx, img)
}

func (c *Controller) settle(token uint64, text string, describeErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.epoch {
		return entity.ErrStaleGeneration
	}

	c.cancel = nil
	c.state.Busy = false
	c.version++

	if describeErr != nil {
		c.state.Error = entity.MsgGenerationFailed
		return fmt.Errorf("%w: %w", entity.ErrGenerationFailed, describeErr)
	}

	c.state.Description = text
	return nil
}

// CopyDescription hands the current description to the clipboard and returns
// it. Clipboard failures are logged only.
func (c *Controller) CopyDescription(ctx context.Context) string {
	c.mu.Lock()
	text := c.state.Description
	cb := c.clipboard
	c.mu.Unlock()

	if cb != nil {
		if err := cb.WriteText(ctx, text); err != nil {
			c.log.WithError(err).Warn("Failed to copy description")
		}
	}
	return text
}

// Reset returns to the initial state and abandons any in-flight generation.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandonLocked()
	c.state = entity.State{}
	c.version++
}

func (c *Controller) abandonLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.state.Busy = false
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = msg
	c.version++
}
