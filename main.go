package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tow-dispatch-api/config"
	"tow-dispatch-api/geo"
	"tow-dispatch-api/logging"
	"tow-dispatch-api/metrics"
	"tow-dispatch-api/middleware"
	"tow-dispatch-api/notify"
	"tow-dispatch-api/routes"
	"tow-dispatch-api/services"
	"tow-dispatch-api/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "tow-dispatch-api"})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	st := store.New(db)
	m := metrics.New("tow_dispatch")

	auth := services.NewAuthService(st, cfg.JWTSecret, cfg.TokenTTL)
	if created, err := auth.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	} else if created {
		log.Info("seeded admin account", "email", cfg.AdminEmail)
	}

	notifier, closeNotifier := buildNotifier(cfg, log)
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyTimeout, log.With("component", "notify"), m)

	estimator, closeCache := buildEstimator(ctx, cfg, log)
	defer closeCache()

	orders := services.NewOrderService(st, estimator, dispatcher, m, log.With("component", "orders"))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog(log.With("component", "http")), middleware.Metrics(m), middleware.CORS())
	routes.SetupRoutes(r, routes.Deps{Auth: auth, Orders: orders, Metrics: m})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	dispatcher.Wait()
	return nil
}

// buildNotifier picks SMTP when a relay is configured, otherwise logs the
// message, and adds RabbitMQ events when RABBIT_URL is set.
func buildNotifier(cfg config.Config, log *slog.Logger) (notify.Notifier, func()) {
	var ns notify.Multi
	if cfg.SMTPEnabled() {
		from := cfg.SMTPFrom
		if from == "" {
			from = cfg.SMTPUser
		}
		ns = append(ns, &notify.SMTPNotifier{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     from,
			To:       cfg.ManagerEmail,
		})
	} else {
		log.Warn("SMTP not configured, new orders will only be logged")
		ns = append(ns, &notify.LogNotifier{To: cfg.ManagerEmail, Log: log.With("component", "notify")})
	}

	closer := func() {}
	if cfg.RabbitURL != "" {
		pub, err := notify.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, order events disabled", "error", err)
		} else {
			ns = append(ns, &notify.AMQPNotifier{Pub: pub})
			closer = func() { _ = pub.Close() }
		}
	}
	return ns, closer
}

func buildEstimator(ctx context.Context, cfg config.Config, log *slog.Logger) (*geo.Estimator, func()) {
	nominatim := geo.NewNominatim(cfg.GeocoderURL, cfg.GeocoderSuffix, cfg.GeoTimeout)
	nominatim.CacheTTL = cfg.GeoCacheTTL

	closer := func() {}
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		cache, err := geo.NewRedisCacheFromURL(pingCtx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, geocoding uncached", "error", err)
		} else {
			nominatim.Cache = cache
			closer = func() { _ = cache.Close() }
		}
	}

	var router geo.Router
	if cfg.RouterURL != "" {
		router = geo.NewOSRM(cfg.RouterURL, cfg.GeoTimeout)
	}
	return geo.NewEstimator(nominatim, router), closer
}
