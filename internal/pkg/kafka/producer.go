package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	SendMessage(ctx context.Context, key string, message any) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer falls back to a logging mock when kafka is disabled or the
// first broker cannot be reached.
func NewProducer(cfg config.KafkaConfig) Producer {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logrus.Info("Kafka disabled, using mock producer")
		return NewMockProducer(cfg.Topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		logrus.WithError(err).Warn("Kafka connection failed, using mock producer instead")
		return NewMockProducer(cfg.Topic)
	}
	defer conn.Close()

	// Создаем топик если не существует
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Debug("Could not create topic (might already exist)")
	}

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Connected to Kafka")

	return &kafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic: cfg.Topic,
	}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message any) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "key": key}).Debug("Message sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// MockProducer logs messages and keeps the encoded payloads.
type MockProducer struct {
	topic    string
	messages chan []byte
}

func NewMockProducer(topic string) *MockProducer {
	return &MockProducer{topic: topic, messages: make(chan []byte, 64)}
}

func (m *MockProducer) SendMessage(_ context.Context, key string, message any) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"topic": m.topic,
		"key":   key,
	}).Debugf("MOCK: %s", messageBytes)

	// Старые сообщения вытесняются, если никто не читает
	select {
	case m.messages <- messageBytes:
	default:
		select {
		case <-m.messages:
		default:
		}
		select {
		case m.messages <- messageBytes:
		default:
		}
	}
	return nil
}

// Messages exposes payloads sent through the mock.
func (m *MockProducer) Messages() <-chan []byte {
	return m.messages
}

func (m *MockProducer) Close() error {
	return nil
}
