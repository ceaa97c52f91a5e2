package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/propman-cli/internal/adapters/auth"
	"github.com/bnema/propman-cli/internal/adapters/httpapi"
	"github.com/bnema/propman-cli/internal/adapters/netprobe"
	"github.com/bnema/propman-cli/internal/adapters/render/notify"
	statusadapter "github.com/bnema/propman-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/propman-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/propman-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/propman-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/propman-cli/internal/adapters/secrets/pass"
	"github.com/bnema/propman-cli/internal/application"
	"github.com/bnema/propman-cli/internal/config"
	"github.com/bnema/propman-cli/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	cfg            config.Config
	logger         zerolog.Logger
	session        *application.Session
	queue          *application.ActionQueue
	monitor        *application.ConnectivityMonitor
	client         *application.Client
	service        *application.Service
	reconciler     *application.SyncReconciler
	probe          ports.ConnectivityProbe
	notifier       *notify.Notifier
	stderr         io.Writer
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

type wireOptions struct {
	configPath string
	offline    bool
	stderr     io.Writer
}

func wireApp(ctx context.Context, opts wireOptions) (*app, error) {
	v := viper.New()
	if opts.configPath != "" {
		v.SetConfigFile(opts.configPath)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	// Log lines and toasts share stderr, possibly from several goroutines.
	stderr := zerolog.SyncWriter(opts.stderr)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()
	clock := ports.SystemClock{}

	secretStore, err := newSecretStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}
	session := application.NewSession(secretStore, clock)
	if err := session.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	repo, err := tomlrepo.NewActionRepository(cfg.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("wire pending action repository: %w", err)
	}
	queue := application.NewActionQueue(repo, clock, logger)
	if err := queue.Load(ctx); err != nil {
		return nil, fmt.Errorf("load pending actions: %w", err)
	}

	transport, err := httpapi.NewClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}
	refresher := auth.RefreshAdapter{
		API:            auth.API{BaseURL: cfg.BaseURL},
		HTTPClient:     httpapi.NewHTTPClient(cfg.Timeout),
		RequestTimeout: cfg.Timeout,
	}

	notifier := notify.New(stderr)
	gateway := application.NewGateway(transport, refresher, session, application.GatewayOptions{
		Timeout:  cfg.Timeout,
		Notifier: notifier,
		Clock:    clock,
		Logger:   logger,
	})

	probe, err := netprobe.NewDialer(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("wire connectivity probe: %w", err)
	}
	online := !opts.offline && probe.Probe(ctx)
	monitor := application.NewConnectivityMonitor(online, logger)

	cacheRepo, err := tomlrepo.NewCacheRepository(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("wire query cache repository: %w", err)
	}
	cache := application.NewQueryCache(clock)
	if err := cache.Load(ctx, cacheRepo); err != nil {
		// A cache that no longer decodes is rebuilt from the server.
		logger.Warn().Err(err).Str("path", cacheRepo.Path()).Msg("ignoring saved query cache")
	}
	mutator := application.NewMutator(cache, gateway, queue, monitor, logger)
	reconciler := application.NewSyncReconciler(queue, gateway, monitor, application.ReconcilerOptions{
		SettleDelay:  cfg.SettleDelay,
		MaxRetries:   cfg.MaxRetries,
		PollInterval: cfg.ProbeInterval,
		Notifier:     notifier,
		Invalidator:  cache,
		Logger:       logger,
	})

	return &app{
		cfg:            cfg,
		logger:         logger,
		session:        session,
		queue:          queue,
		monitor:        monitor,
		client:         application.NewClient(gateway, queue, monitor, cache, mutator),
		service:        application.NewService(gateway, session, queue, monitor, clock, cfg.MaxRetries),
		reconciler:     reconciler,
		probe:          probe,
		notifier:       notifier,
		stderr:         stderr,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

func newSecretStore(cfg config.Config) (ports.SecretStore, error) {
	switch cfg.SecretsStore {
	case config.SecretsFile:
		return filestore.NewStore(cfg.SecretsDir), nil
	case config.SecretsPass:
		return passstore.NewStore(), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir)
	}
}
