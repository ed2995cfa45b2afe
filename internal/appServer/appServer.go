// launching the server, session storage, kafka, description provider
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/transport"
	"github.com/ds124wfegd/imagecaption/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	writeTimeout := cfg.Server.Timeout
	if writeTimeout > 0 {
		// ответ после генерации с ?wait=true должен успеть уйти
		writeTimeout += 5 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {
	ctx := context.Background()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("error occured while building application: %s", err.Error())
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go worker.NewSessionCleanupWorker(app.Service, cfg.Session.CleanupInterval, cfg.Session.TTL).Start(workerCtx)

	handler := transport.NewCaptionHandler(app.Service, cfg.App.MaxUploadBytes, cfg.App.RefreshSeconds)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handler, cfg)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":     cfg.Server.Host + ":" + cfg.Server.Port,
		"provider": cfg.Provider.Name,
		"sessions": cfg.Session.Backend,
	}).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopWorker()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	if err := app.Close(); err != nil {
		logrus.Errorf("error occured on closing application: %s", err.Error())
	}
}
