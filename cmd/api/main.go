package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/db"
	httpx "github.com/geocoder89/contacthub/internal/http"
	"github.com/geocoder89/contacthub/internal/notifications"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/geocoder89/contacthub/internal/redisclient"
	"github.com/geocoder89/contacthub/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in: no collector endpoint, no tracer.
	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, "contacthub", cfg.OTLPEndpoint)
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	// database pool + schema migrations
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	migrateCtx, cancelMigrate := config.WithTimeout(30 * time.Second)
	err = db.Migrate(migrateCtx, cfg.DBURL)
	cancelMigrate()

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// redis backs the rate limiter
	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
	err = rdb.Ping(pingCtx)
	cancelPing()

	if err != nil {
		// the limiter fails open, so a missing redis is a warning, not fatal
		log.Warn("redis unreachable at startup", "err", err)
	}

	// metrics
	promReg := prometheus.NewRegistry()
	prom := observability.NewProm(promReg)

	// email notifier: log-only when SMTP is not configured (dev),
	// circuit-broken SMTP otherwise.
	var notifier notifications.Notifier

	if cfg.SMTPHost == "" {
		log.Warn("SMTP not configured, confirmation emails will only be logged")
		notifier = notifications.NewLogNotifier()
	} else {
		notifier = notifications.NewProtectedNotifier(
			notifications.NewSMTPNotifier(notifications.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.MailFrom,
			}),
			notifications.ProtectedNotifierConfig{},
		)
	}

	notifier = notifications.Instrumented(notifier, prom.ObserveMail)

	// avatar object storage
	var avatars *storage.AvatarStore

	if cfg.S3Bucket != "" {
		storeCtx, cancelStore := config.WithTimeout(5 * time.Second)
		avatars, err = storage.NewAvatarStore(storeCtx, storage.AvatarConfig{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		cancelStore()

		if err != nil {
			log.Error("avatar store init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("S3 not configured, avatar uploads are disabled")
	}

	// set up routers with the log
	deps := httpx.Deps{
		Pool:     pool,
		Redis:    rdb,
		Notifier: notifier,
		Prom:     prom,
		PromReg:  promReg,
	}

	if avatars != nil {
		deps.Avatars = avatars
	}

	router := httpx.NewRouter(cfg, log, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
