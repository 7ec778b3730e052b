package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/construction-hub/internal/domain/event"
	portcache "github.com/alanyang/construction-hub/internal/port/cache"
	porteventbus "github.com/alanyang/construction-hub/internal/port/eventbus"

	mcptransport "github.com/alanyang/construction-hub/internal/transport/mcp"
	projecthandler "github.com/alanyang/construction-hub/internal/transport/project"
	wshandler "github.com/alanyang/construction-hub/internal/transport/ws"
)

const ProjectsPath = "/api/projects"

type RouterConfig struct {
	ServiceName    string
	Version        string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type RouterDeps struct {
	Endpoint *projecthandler.Endpoint
	// Store is pinged by the health check when it implements Ping.
	Store    any
	EventBus porteventbus.EventBus
	// Cache backs Idempotency-Key replay. Nil disables replay.
	Cache portcache.Cache
	Hub   *wshandler.Hub
	MCP   *mcptransport.Server
}

func NewRouter(ctx context.Context, deps RouterDeps, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger())
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(IdempotencyMiddleware(deps.Cache))

	NewHealthHandler(cfg.ServiceName, cfg.Version, deps.Store).RegisterRoutes(r)

	api := r.Group("/api")
	projecthandler.Register(api.Group("/projects"), deps.Endpoint)

	if deps.Hub != nil {
		deps.Hub.Register(api.Group("/ws"))
	}
	if deps.MCP != nil {
		h := gin.WrapH(deps.MCP.Handler())
		r.GET("/mcp", h)
		r.POST("/mcp", h)
		r.DELETE("/mcp", h)
	}

	// Bridge: every project event goes to browsers and MCP sessions. Events
	// carry ids only; clients refetch state.
	if deps.EventBus != nil {
		if _, err := deps.EventBus.Subscribe(ctx, event.ChannelProject, func(ctx context.Context, e event.Event) {
			if deps.Hub != nil {
				deps.Hub.Broadcast(e)
			}
			if deps.MCP != nil {
				if err := deps.MCP.Registry().NotifyAll(ctx, e); err != nil {
					slog.WarnContext(ctx, "mcp notification failed", "type", e.Type, "error", err)
				}
			}
		}); err != nil {
			slog.Error("failed to subscribe project channel", "channel", event.ChannelProject, "error", err)
		}
	}

	return r
}
