package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/pkg/adapters/file"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/adapters/redis"
	"github.com/aretw0/onboard/pkg/gateway"
	"github.com/aretw0/onboard/pkg/observability"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Stack is an engine wired from configuration together with the pieces the
// commands need direct access to.
type Stack struct {
	Engine   *onboard.Engine
	Store    ports.StateStore
	Registry *prometheus.Registry

	closers []io.Closer
}

// Close stops the engine, settling in-flight effects, and releases the store.
func (s *Stack) Close() error {
	var errs []error
	if s.Engine != nil {
		errs = append(errs, s.Engine.Close())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewStack builds the engine described by cfg.
func NewStack(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	stack := &Stack{}

	store, locker, err := openStore(cfg.Store, stack)
	if err != nil {
		stack.Close()
		return nil, err
	}
	stack.Store = store

	engineOpts := []onboard.Option{
		onboard.WithLogger(logger),
		onboard.WithStore(store),
		onboard.WithUpdateMode(cfg.UpdateMode),
		onboard.WithLockTTL(cfg.LockTTL),
		onboard.WithLifecycleHooks(observability.LogHooks(logger)),
	}
	if locker != nil {
		engineOpts = append(engineOpts, onboard.WithLocker(locker))
	}

	if cfg.HTTP.Metrics {
		stack.Registry = prometheus.NewRegistry()
		stack.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(stack.Registry)
		engineOpts = append(engineOpts, onboard.WithLifecycleHooks(metrics.Hooks()))
	}

	if cfg.Gateway.URL != "" {
		gw := gateway.New(cfg.Gateway.URL,
			gateway.WithTimeout(cfg.Gateway.Timeout),
			gateway.WithConcurrency(cfg.Gateway.Concurrency),
			gateway.WithLogger(logger),
		)
		engineOpts = append(engineOpts, onboard.WithGateway(gw))
	} else {
		logger.Warn("no gateway configured, changes will only be saved locally")
	}

	stack.Engine = onboard.New(engineOpts...)
	return stack, nil
}

func openStore(cfg config.Store, stack *Stack) (ports.StateStore, ports.DistributedLocker, error) {
	var (
		store  ports.StateStore
		locker ports.DistributedLocker
	)
	switch cfg.Kind {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Dir)
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.RedisTTL),
		)
		stack.closers = append(stack.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.RedisPrefix)
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return store, locker, nil
}
