package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyang/construction-hub/internal/adapter/memory"
	pgdb "github.com/alanyang/construction-hub/internal/adapter/postgres"
	pgeventbus "github.com/alanyang/construction-hub/internal/adapter/postgres/eventbus"
	pgproject "github.com/alanyang/construction-hub/internal/adapter/postgres/project"
	rediscache "github.com/alanyang/construction-hub/internal/adapter/redis"
	"github.com/alanyang/construction-hub/internal/adapter/sqlite"
	"github.com/alanyang/construction-hub/internal/config"
	portcache "github.com/alanyang/construction-hub/internal/port/cache"
	porteventbus "github.com/alanyang/construction-hub/internal/port/eventbus"
	portproject "github.com/alanyang/construction-hub/internal/port/project"
	"github.com/alanyang/construction-hub/internal/seed"
	projectsvc "github.com/alanyang/construction-hub/internal/service/project"

	"github.com/alanyang/construction-hub/internal/transport"
	mcptransport "github.com/alanyang/construction-hub/internal/transport/mcp"
	projecthandler "github.com/alanyang/construction-hub/internal/transport/project"
	wshandler "github.com/alanyang/construction-hub/internal/transport/ws"
)

const serviceName = "construction-hub"

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Server     *http.Server
	ProjectSvc *projectsvc.Service
	MCPServer  *mcptransport.Server

	closers []func()
}

// Close releases pools and clients in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Backends are the driver-selected adapters behind the service.
type Backends struct {
	Store portproject.Store
	Cache portcache.Cache
	Bus   porteventbus.EventBus
}

// OpenBackends picks store, cache and event bus from cfg. The returned
// closers must be run on shutdown even when err is non-nil.
func OpenBackends(ctx context.Context, cfg *config.Config) (Backends, []func(), error) {
	var (
		b       Backends
		closers []func()
	)

	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := pgdb.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return b, closers, fmt.Errorf("connecting to database: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := pgdb.Migrate(ctx, pool); err != nil {
			return b, closers, fmt.Errorf("migrating database: %w", err)
		}
		b.Store = pgproject.New(pool)
		// LISTEN/NOTIFY fans events out across every instance on the database.
		b.Bus = pgeventbus.New(pool)
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return b, closers, fmt.Errorf("opening sqlite: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		b.Store = sqlite.New(db)
	default:
		b.Store = memory.NewStore()
	}
	if b.Bus == nil {
		b.Bus = memory.NewEventBus()
	}

	switch cfg.Cache.Driver {
	case config.CacheRedis:
		client, err := rediscache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return b, closers, fmt.Errorf("connecting to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		b.Cache = rediscache.New(client, serviceName+":")
	case config.CacheMemory:
		b.Cache = memory.NewCache()
	}

	return b, closers, nil
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	// ── Adapters ─────────────────────────────────────────────────────────────
	backends, closers, err := OpenBackends(ctx, cfg)
	app.closers = closers
	if err != nil {
		app.Close()
		return nil, err
	}

	// ── Services ─────────────────────────────────────────────────────────────
	opts := []projectsvc.Option{projectsvc.WithEventBus(backends.Bus)}
	if backends.Cache != nil {
		opts = append(opts, projectsvc.WithCache(backends.Cache, cfg.Cache.TTL))
	}
	app.ProjectSvc = projectsvc.NewService(backends.Store, opts...)

	if cfg.App.SeedFile != "" {
		if _, err := seed.LoadFile(ctx, cfg.App.SeedFile, app.ProjectSvc); err != nil {
			app.Close()
			return nil, fmt.Errorf("seeding from %s: %w", cfg.App.SeedFile, err)
		}
	}

	// ── Transport ─────────────────────────────────────────────────────────────
	ep := projecthandler.NewEndpoint(app.ProjectSvc, transport.ProjectsPath)
	app.MCPServer = mcptransport.New(ep, cfg.App.Version)

	router := transport.NewRouter(ctx, transport.RouterDeps{
		Endpoint: ep,
		Store:    app.ProjectSvc,
		EventBus: backends.Bus,
		Cache:    backends.Cache,
		Hub:      wshandler.NewHub(),
		MCP:      app.MCPServer,
	}, transport.RouterConfig{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	app.Server = &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	slog.Info("application wired",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
	)
	return app, nil
}
