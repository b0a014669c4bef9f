// Package cli wires configuration into a running rollcall engine and implements
// the logic behind the rollcall commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/internal/adapters/file"
	"github.com/podyouths/rollcall/internal/config"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	redisadapter "github.com/podyouths/rollcall/pkg/adapters/redis"
	"github.com/podyouths/rollcall/pkg/adapters/sqlite"
	"github.com/podyouths/rollcall/pkg/observability"
	"github.com/podyouths/rollcall/pkg/persistence/middleware"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

// App is a configured engine together with the resources it owns.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *rollcall.Engine
	Gateway  ports.Gateway
	Sessions ports.SessionStore
	Registry *prometheus.Registry

	redis   *goredis.Client
	closers []func() error
}

// NewApp opens the configured stores and builds the engine.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	if cfg.Store.Backend == config.BackendRedis || cfg.Session.Backend == config.BackendRedis {
		if err := a.connectRedis(ctx); err != nil {
			return err
		}
	}

	gw, err := a.openGateway()
	if err != nil {
		return err
	}
	a.Gateway = gw

	store, err := a.openSessionStore()
	if err != nil {
		return err
	}
	a.Sessions = store

	if err := a.Registry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("failed to register go collector: %w", err)
	}
	metrics, err := observability.NewMetrics(a.Registry)
	if err != nil {
		return err
	}

	opts := []rollcall.Option{
		rollcall.WithLogger(a.Logger),
		rollcall.WithSessionStore(store),
		rollcall.WithLifecycleHooks(observability.Hooks(a.Logger, metrics)),
		rollcall.WithEnrollmentDefaults(cfg.Enrollment.Role, cfg.EnrollmentBirthDate()),
	}
	if cfg.Session.Backend == config.BackendRedis {
		opts = append(opts, rollcall.WithLocker(redisadapter.NewLocker(a.redis, cfg.Redis.Prefix), cfg.Session.LockTTL))
	}

	engine, err := rollcall.New(gw, cfg.VerificationCode, opts...)
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	a.Engine = engine
	return nil
}

func (a *App) connectRedis(ctx context.Context) error {
	cfg := a.Config.Redis
	client := redisadapter.NewClient(cfg.Addr, cfg.Password, cfg.DB)
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	a.redis = client
	return nil
}

func (a *App) openGateway() (ports.Gateway, error) {
	switch backend := a.Config.Store.Backend; backend {
	case config.BackendMemory:
		a.Logger.Warn("using in-memory roster, attendance is lost on exit")
		return memory.NewGateway(), nil
	case config.BackendSQLite:
		gw, err := sqlite.Open(a.Config.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.closers = append(a.closers, gw.Close)
		return gw, nil
	case config.BackendRedis:
		return redisadapter.NewGateway(a.redis, a.Config.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func (a *App) openSessionStore() (ports.SessionStore, error) {
	cfg := a.Config.Session

	var store ports.SessionStore
	switch cfg.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Dir)
	case config.BackendRedis:
		opts := []redisadapter.Option{redisadapter.WithPrefix(a.Config.Redis.Prefix + "session:")}
		if cfg.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.TTL))
		}
		store = redisadapter.NewStore(a.redis, opts...)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	if cfg.SealingIdentity == "" {
		return store, nil
	}
	identity, err := middleware.ParseIdentity(cfg.SealingIdentity)
	if err != nil {
		return nil, fmt.Errorf("session.sealing_identity: %w", err)
	}
	sealing, err := middleware.NewSealingMiddleware(middleware.SealingConfig{Identity: identity})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, sealing), nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
