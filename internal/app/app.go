// Package app wires every component together: configuration, the
// router and its controllers, the token issuer, and the listener that
// runs until signalled to stop.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dispatchengine/engine/internal/authdb"
	"github.com/dispatchengine/engine/internal/controller"
	"github.com/dispatchengine/engine/internal/crypto"
	"github.com/dispatchengine/engine/internal/listener"
	"github.com/dispatchengine/engine/internal/observability"
	"github.com/dispatchengine/engine/internal/pkg/logger"
	"github.com/dispatchengine/engine/internal/revocation"
	"github.com/dispatchengine/engine/internal/router"
	"github.com/dispatchengine/engine/internal/shutdown"
	"github.com/dispatchengine/engine/internal/state"
	"github.com/dispatchengine/engine/internal/token"
)

// App owns every long-lived object the process needs and is
// responsible for bringing them up and tearing them down in order.
type App struct {
	cfg Config
	log *logger.Logger

	st     *state.State
	issuer *token.Issuer
	group  *shutdown.Group

	otelShutdown func(context.Context) error
}

func New(cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	var db *gorm.DB
	if cfg.DatabaseDSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
	}

	var revoker token.RevocationChecker
	if cfg.RedisAddr != "" {
		revoker = revocation.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, 0, cfg.TokenTTL)
	} else {
		revoker = revocation.NewMemoryStore()
	}

	key, err := crypto.DecodeBase64URL(cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("decoding APP_KEY: %w", err)
	}

	issuer := token.New(key, revoker)

	rt, registry := buildRouter(db, issuer, cfg.TokenTTL)
	if cfg.RouteManifestPath != "" {
		data, err := os.ReadFile(cfg.RouteManifestPath)
		if err != nil {
			return nil, fmt.Errorf("reading route manifest: %w", err)
		}
		if err := router.LoadManifest(rt, data, registry); err != nil {
			return nil, fmt.Errorf("loading route manifest: %w", err)
		}
	}
	st := state.New(rt, cfg.AppKey, db)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.Config{
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.OtelEnvironment,
	})

	return &App{
		cfg:          cfg,
		log:          log,
		st:           st,
		issuer:       issuer,
		otelShutdown: otelShutdown,
	}, nil
}

// buildRouter registers every built-in route programmatically and
// returns a Registry naming each controller, so App.New can optionally
// layer a YAML route manifest (additional aliases, mount points) on
// top via router.LoadManifest without redeclaring any controller.
func buildRouter(db *gorm.DB, issuer *token.Issuer, ttl time.Duration) (*router.Router, router.Registry) {
	rt := router.New()

	users := authdb.New(db)

	statusCtrl := controller.NewStatusController()
	attemptCtrl := controller.NewAttemptController(issuer, users, ttl)
	userCtrl := controller.NewUserController()
	queuesIndexCtrl := controller.NewQueuesIndexController()
	tasksCtrl := controller.NewTasksController()
	jobsCtrl := controller.NewJobsController()
	workersCtrl := controller.NewWorkersController()
	dispatchCtrl := controller.NewDispatchController()

	rt.Add(mustRoute([]string{"GET"}, "/api/status", statusCtrl))
	rt.Add(mustRoute([]string{"POST"}, "/api/auth/attempt", attemptCtrl))
	rt.Add(mustRoute([]string{"GET"}, "/api/user", userCtrl))
	rt.Add(mustRoute([]string{"GET"}, "/api/queues", queuesIndexCtrl))
	rt.Add(mustRoute([]string{"GET"}, "/api/queues/{queue_name}/tasks", tasksCtrl))
	rt.Add(mustRoute([]string{"GET"}, "/api/queues/{queue_name}/jobs", jobsCtrl))
	rt.Add(mustRoute([]string{"GET"}, "/api/queues/{queue_name}/workers", workersCtrl))
	rt.Add(mustRoute([]string{"POST"}, "/api/queues/{queue_name}/dispatch", dispatchCtrl))

	registry := router.Registry{
		"status":          statusCtrl,
		"auth.attempt":    attemptCtrl,
		"user":            userCtrl,
		"queues.index":    queuesIndexCtrl,
		"queues.tasks":    tasksCtrl,
		"queues.jobs":     jobsCtrl,
		"queues.workers":  workersCtrl,
		"queues.dispatch": dispatchCtrl,
	}

	return rt, registry
}

// mustRoute compiles a literal, hand-written path template. Any
// *domain.ParseError here is a programming error in this file, not a
// runtime condition; it panics at startup rather than returning an
// error every caller would have to check.
func mustRoute(verbs []string, signature string, ctrl *controller.Controller) *router.Route {
	route, err := router.New(verbs, signature, ctrl)
	if err != nil {
		panic(fmt.Sprintf("app: invalid built-in route %q: %v", signature, err))
	}
	return route
}

// Run starts the accept loop and blocks until ctx is cancelled, then
// runs a cooperative-then-forced shutdown (the SIGINT policy). Callers
// wanting the SIGTERM policy (stop immediately) should call StopNow
// instead of letting ctx cancellation drive Close.
func (a *App) Run(ctx context.Context) error {
	a.group = shutdown.New(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listener.Run(ctx, a.cfg.Addr, a.st, a.issuer, a.group, a.log)
	}()

	select {
	case <-ctx.Done():
		return a.Close(context.Background(), true)
	case err := <-errCh:
		return err
	}
}

// StopNow tears down the app immediately: every session is cancelled
// and force-closed with no grace period.
func (a *App) StopNow(ctx context.Context) error {
	return a.Close(ctx, false)
}

func (a *App) Close(ctx context.Context, graceful bool) error {
	a.st.SetRunning(false)
	if a.group != nil {
		if graceful {
			if err := a.group.Shutdown(); err != nil {
				a.log.Warn("app: shutdown group reported an error", "error", err)
			}
		} else {
			a.group.StopNow()
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.log.Sync()
	return nil
}

func (a *App) State() *state.State { return a.st }
