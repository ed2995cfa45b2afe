package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// EventHandler receives every decoded generation event.
type EventHandler func(ctx context.Context, event entity.GenerationEvent) error

// readBackoff is the pause after a failed read, so a broker outage does not
// spin the loop.
const readBackoff = 2 * time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ConsumeEvents reads generation events until ctx is cancelled. Malformed
// messages and handler errors are logged and skipped.
func ConsumeEvents(ctx context.Context, brokers []string, topic, groupID string, handle EventHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.WithFields(logrus.Fields{
		"brokers": brokers,
		"topic":   topic,
		"group":   groupID,
	}).Info("Generation event consumer started")

	return consume(ctx, reader, handle, readBackoff)
}

func consume(ctx context.Context, reader messageReader, handle EventHandler, backoff time.Duration) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			logrus.WithError(err).Error("Error reading message from Kafka")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}

		if err := HandleMessage(ctx, msg.Value, handle); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Warn("Skipping generation event")
		}
	}
}

// HandleMessage decodes one payload and passes it to handle.
func HandleMessage(ctx context.Context, payload []byte, handle EventHandler) error {
	var event entity.GenerationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	return handle(ctx, event)
}

// LogEvent is an EventHandler that writes the event to the log.
func LogEvent(_ context.Context, event entity.GenerationEvent) error {
	logrus.WithFields(logrus.Fields{
		"session":    event.SessionID,
		"image":      event.ImageName,
		"media_type": event.MediaType,
		"provider":   event.Provider,
		"outcome":    event.Outcome,
		"duration":   event.Duration.String(),
		"settled_at": event.SettledAt,
	}).Info("Generation event")
	return nil
}
