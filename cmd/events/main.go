// reads generation events published by the caption service
package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := kafka.ConsumeEvents(ctx,
		strings.Split(config.GetEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		config.GetEnv("KAFKA_TOPIC", "caption-events"),
		config.GetEnv("KAFKA_GROUP_ID", "caption-events-log"),
		kafka.LogEvent,
	)
	if err != nil {
		logrus.Fatal(err)
	}
}
