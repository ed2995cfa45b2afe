package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/appServer"
	"github.com/ds124wfegd/imagecaption/internal/console"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := mainImpl(); err != nil {
		logrus.Fatal(err)
	}
}

func mainImpl() error {
	viperInstance, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		return err
	}

	// В консоли логи мешают вводу
	if cfg.App.LogLevel == "info" {
		cfg.App.LogLevel = "warn"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app, err := appServer.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logrus.WithError(err).Error("error occured on closing application")
		}
	}()

	return console.NewShell(app.Service, os.Stdout, cfg.App.MaxUploadBytes).Run(ctx)
}
