package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/adapters/loam"
	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/adapters/openai"
	"github.com/aretw0/genui/pkg/adapters/process"
	"github.com/aretw0/genui/pkg/adapters/redis"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/observability"
	"github.com/aretw0/genui/pkg/ports"
	"github.com/aretw0/genui/pkg/registry"
	"github.com/aretw0/genui/pkg/tools"
)

// App is a fully wired client with the pieces the commands expose.
type App struct {
	Client   *genui.Client
	Metrics  *observability.Metrics
	Gallery  *loam.Gallery
	Examples []domain.Example
	Config   config.Config
	// Tools is the executor handed to the client: firewall and cache over
	// the builtin and process tools.
	Tools *tools.Cache

	closers []func() error
}

type appOptions struct {
	model   ports.Model
	offline bool
	sink    ports.EffectSink
	logger  *slog.Logger
	builtin []tools.ServiceOption
	extra   []genui.Option
}

// AppOption configures NewApp.
type AppOption func(*appOptions)

// WithModel replaces the OpenAI-compatible client, for tests and offline
// runs.
func WithModel(m ports.Model) AppOption {
	return func(o *appOptions) { o.model = m }
}

// WithOffline answers from the gallery examples instead of calling a model.
func WithOffline() AppOption {
	return func(o *appOptions) { o.offline = true }
}

// WithEffectSink sets where TRIGGER_EFFECT actions go.
func WithEffectSink(s ports.EffectSink) AppOption {
	return func(o *appOptions) { o.sink = s }
}

func WithLogger(l *slog.Logger) AppOption {
	return func(o *appOptions) { o.logger = l }
}

// WithToolOptions configures the builtin tool service.
func WithToolOptions(opts ...tools.ServiceOption) AppOption {
	return func(o *appOptions) { o.builtin = append(o.builtin, opts...) }
}

// WithClientOptions appends raw client options.
func WithClientOptions(opts ...genui.Option) AppOption {
	return func(o *appOptions) { o.extra = append(o.extra, opts...) }
}

// NewApp wires the client from cfg: builtin and process tools behind the
// argument firewall and the result cache, Redis for shared state when
// configured, gallery examples in the prompt, and metrics plus log hooks.
func NewApp(ctx context.Context, cfg config.Config, opts ...AppOption) (_ *App, err error) {
	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Config: cfg, Metrics: observability.NewMetrics()}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	reg := registry.NewRegistry()
	tools.NewService(append([]tools.ServiceOption{tools.WithServiceLogger(logger)}, o.builtin...)...).Register(reg)

	procTools, err := process.LoadTools(cfg.ToolsFile)
	if err != nil {
		return nil, err
	}
	if len(procTools) > 0 {
		process.NewRunner(process.WithBaseDir(filepath.Dir(cfg.ToolsFile))).Register(reg, procTools)
		logger.Info("process tools loaded", "path", cfg.ToolsFile, "count", len(procTools))
	}

	firewall, err := tools.NewFirewall(reg, reg.Tools())
	if err != nil {
		return nil, err
	}

	var (
		cache  ports.ToolCache = memory.NewCache()
		store  ports.ConversationStore
		locker ports.DistributedLocker
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		app.closers = append(app.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
		}
		cache = redis.NewCache(client, cfg.Redis.Prefix)
		locker = redis.NewLocker(client, cfg.Redis.Prefix)
		store = redis.NewStore(client, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
		logger.Info("redis enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Store.Enabled() {
		if store == nil {
			store = memory.NewStore()
		}
		if store, err = protectStore(store, cfg.Store); err != nil {
			return nil, err
		}
	}

	cacheOpts := []tools.CacheOption{tools.WithTTL(cfg.Runtime.ToolCacheTTL), tools.WithCacheLogger(logger)}
	if locker != nil {
		cacheOpts = append(cacheOpts, tools.WithLocker(locker))
	}
	app.Tools = tools.NewCache(firewall, cache, cacheOpts...)

	if cfg.GalleryDir != "" {
		g, gerr := loam.Open(cfg.GalleryDir)
		if gerr != nil {
			return nil, gerr
		}
		examples, gerr := g.Examples(ctx)
		if gerr != nil {
			return nil, fmt.Errorf("gallery: %w", gerr)
		}
		app.Gallery, app.Examples = g, examples
	}

	model := o.model
	switch {
	case model != nil:
	case o.offline:
		model = NewOfflineModel(app.Examples)
	default:
		model = openai.New(openai.Config{
			BaseURL:     cfg.Model.BaseURL,
			APIKey:      cfg.Model.APIKey,
			Model:       cfg.Model.Model,
			Temperature: cfg.Model.Temperature,
		},
			openai.WithPromptBuilder(openai.NewPromptBuilder(reg.Tools(), app.Examples)),
			openai.WithLogger(logger),
		)
	}

	clientOpts := []genui.Option{
		genui.WithModel(model),
		genui.WithTools(app.Tools),
		genui.WithLogger(logger),
		genui.WithLifecycleHooks(app.Metrics.Hooks()),
		genui.WithLifecycleHooks(observability.LogHooks(logger)),
		genui.WithMaxToolDepth(cfg.Runtime.MaxToolDepth),
		genui.WithDebounceDelay(cfg.Runtime.DebounceDelay),
	}
	if store != nil {
		clientOpts = append(clientOpts, genui.WithStore(store))
	}
	if locker != nil {
		clientOpts = append(clientOpts, genui.WithLocker(locker))
	}
	if o.sink != nil {
		clientOpts = append(clientOpts, genui.WithEffectSink(o.sink))
	}
	app.Client, err = genui.New(append(clientOpts, o.extra...)...)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Open resumes id, or creates a conversation carrying the configured user
// context when id is empty.
func (a *App) Open(ctx context.Context, id string) (string, error) {
	if id != "" {
		if _, err := a.Client.Snapshot(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}
	snap, err := a.Client.Create(ctx)
	if err != nil {
		return "", err
	}
	if err := a.Client.SetContext(ctx, snap.ConversationID, a.Config.User); err != nil {
		return "", err
	}
	return snap.ConversationID, nil
}

// Close stops the client and releases connections.
func (a *App) Close() error {
	var errs []error
	if a.Client != nil {
		errs = append(errs, a.Client.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
