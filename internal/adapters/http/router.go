package http

import (
	"context"
	"net/http"

	"github.com/dkeye/LiveTalk/internal/adapters/signal"
	"github.com/dkeye/LiveTalk/internal/app/orch"
	"github.com/dkeye/LiveTalk/internal/auth"
	"github.com/dkeye/LiveTalk/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Orch     *orch.Orchestrator
	Auth     *auth.Bootstrap
	Tokens   *auth.Tokens
	Accounts auth.AccountStore
	Health   Pinger
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: int(cfg.Auth.TokenTTL.Seconds()), HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("LiveTalkSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health.Ping(c.Request.Context()); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("health check")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ah := &authHandler{bootstrap: deps.Auth, tokens: deps.Tokens}
	rh := &roomHandler{orch: deps.Orch, defaultCapacity: cfg.Rooms.DefaultCapacity}
	ctrl := signal.NewSignalWSController(deps.Orch, signal.Options{
		ReadLimit:     cfg.ReadLimit,
		PingPeriod:    cfg.PingPeriod,
		OverlayTTL:    cfg.Rooms.OverlayTTL,
		MaxOverlayTTL: cfg.Rooms.MaxOverlayTTL,
		OverlayRate:   cfg.Rooms.OverlayRate,
		OverlayWindow: cfg.Rooms.OverlayWindow,
	})
	requireAccount := RequireAccount(deps.Tokens, deps.Accounts)

	api := r.Group("/api")
	api.POST("/auth/login", ah.login)
	api.POST("/auth/register", ah.register)
	api.POST("/auth/logout", ah.logout)
	api.GET("/me", requireAccount, ah.me)

	api.GET("/rooms", rh.list)
	api.GET("/rooms/:id/seats", rh.seats)
	api.POST("/rooms", requireAccount, rh.create)
	api.DELETE("/rooms/:id", requireAccount, rh.evict)

	api.GET("/ws/signal", requireAccount, func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, currentAccount(c))
	})

	return r
}
