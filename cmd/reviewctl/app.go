package main

import (
	"bufio"
	"fmt"
	"io"

	"code-review-client/config"
	"code-review-client/gateway"
	"code-review-client/services"
	"code-review-client/session"
	"code-review-client/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// app wires one client device: state store, session, gateway and services.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	out      io.Writer
	in       *bufio.Reader
	registry *prometheus.Registry

	sessions      *session.Store
	auth          *services.AuthService
	submissions   *services.SubmissionService
	reviews       *services.ReviewService
	notifications *services.NotificationService
	analytics     *services.AnalyticsService
	tags          *services.TagService

	closers []func()
}

func newApp(cfg *config.Config, logger *logrus.Logger, out io.Writer, in io.Reader) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logger,
		out:      out,
		in:       bufio.NewReader(in),
		registry: prometheus.NewRegistry(),
	}

	kv, err := a.openStateStore()
	if err != nil {
		return nil, err
	}

	a.sessions = session.New(kv, session.WithLogger(logger))
	api, err := gateway.New(gateway.Config{
		BaseURL:  cfg.APIBaseURL,
		Sessions: a.sessions,
		Logger:   logger,
		Metrics:  gateway.NewMetrics(a.registry),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.auth = services.NewAuthService(api, a.sessions, logger)
	a.submissions = services.NewSubmissionService(api, a.sessions, logger)
	a.reviews = services.NewReviewService(api, logger)
	a.notifications = services.NewNotificationService(api, services.NewAckStore(kv, logger), logger,
		services.WithServerSync(cfg.NotificationSync))
	a.analytics = services.NewAnalyticsService(api)
	a.tags = services.NewTagService(api)
	return a, nil
}

func (a *app) openStateStore() (storage.Store, error) {
	switch a.cfg.StateDriver {
	case config.StateDriverMySQL:
		db, err := config.OpenStateDB(a.cfg)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, func() { sqlDB.Close() })
		}
		store := storage.NewGormStore(db)
		if err := store.Migrate(); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate state table: %w", err)
		}
		return store, nil
	default:
		return storage.NewFileStore(a.cfg.StateDir)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
