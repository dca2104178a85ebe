package daemon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/rmarinn/slacksync/internal/bus"
	"github.com/rmarinn/slacksync/internal/config"
	"github.com/rmarinn/slacksync/internal/events"
	"github.com/rmarinn/slacksync/internal/lock"
	"github.com/rmarinn/slacksync/internal/logging"
	"github.com/rmarinn/slacksync/internal/rtm"
	"github.com/rmarinn/slacksync/internal/session"
	"github.com/rmarinn/slacksync/internal/status"
	"github.com/rmarinn/slacksync/internal/store"
	"github.com/rmarinn/slacksync/internal/webapi"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRouter,
			provideWebAPI,
			provideSupervisor,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(p Params) (*config.SessionConfig, error) {
	cfg, err := config.LoadSession(session.SessionConfigPath(p.SessionName))
	if err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("session %q has no token configured", p.SessionName)
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore() *store.Store {
	return store.New()
}

func provideRouter(st *store.Store, b *bus.Bus, logger *zap.Logger) *events.Router {
	return events.NewRouter(st, b, logger)
}

func provideWebAPI(cfg *config.SessionConfig, logger *zap.Logger) *webapi.Client {
	return webapi.NewClient(cfg.Token, cfg.APIBaseURL, logger)
}

func provideSupervisor(api *webapi.Client, st *store.Store, router *events.Router, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *rtm.Supervisor {
	return rtm.NewSupervisor(api, st, router, machine, b, logger)
}

func optionsFromConfig(cfg *config.SessionConfig) rtm.Options {
	return rtm.Options{
		Start: webapi.StartOptions{
			SimpleLatest: cfg.SimpleLatest,
			NoUnreads:    cfg.NoUnreads,
			MPIMAware:    cfg.MPIMAware,
		},
		PingInterval:     time.Duration(cfg.PingIntervalSec) * time.Second,
		PingTimeout:      time.Duration(cfg.PingTimeoutSec) * time.Second,
		Reconnect:        cfg.Reconnect,
		MaxReconnectWait: time.Duration(cfg.MaxReconnectWaitSec) * time.Second,
	}
}

func registerLifecycle(lc fx.Lifecycle, sup *rtm.Supervisor, cfg *config.SessionConfig, lk *lock.Lock, b *bus.Bus, logger *zap.Logger) {
	monitorCtx, stopMonitor := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go monitor(monitorCtx, b, logger)

			go func() {
				if err := sup.Connect(context.Background(), optionsFromConfig(cfg)); err != nil {
					logger.Error("connect failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			sup.Disconnect()
			stopMonitor()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// monitor logs every bus event; the daemon's observable output is the
// stream of mirror mutations.
func monitor(ctx context.Context, b *bus.Bus, logger *zap.Logger) {
	ch, unsub := b.Subscribe("", 512)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			logger.Info("event", zap.String("kind", evt.Kind), zap.Any("payload", evt.Payload))
		case <-ctx.Done():
			return
		}
	}
}
