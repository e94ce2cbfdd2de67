package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/adapters/signal"
	"github.com/scrumdeck/scrumdeck/internal/auth"
	"github.com/scrumdeck/scrumdeck/internal/config"
	"github.com/scrumdeck/scrumdeck/internal/core"
	"github.com/scrumdeck/scrumdeck/internal/store"
)

// Deps is everything the router wires together. Store and Auth are nil
// when no database is configured; the realtime endpoints work without
// them.
type Deps struct {
	Rooms  *core.Registry
	Signal *signal.Controller
	Store  *store.Store
	Auth   *auth.Service
}

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with an opaque token cookie;
// the websocket layer uses it as the session id.
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

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ScrumdeckSessions", sessionStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/meetings", func(c *gin.Context) {
		c.JSON(200, gin.H{"meetings": deps.Rooms.List()})
	})

	if deps.Store != nil {
		registerStoreRoutes(api, deps.Store, deps.Auth)
	} else {
		log.Warn().Str("module", "adapters.http").Msg("no database configured, store routes disabled")
	}

	api.GET("/ws/meeting", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws meeting endpoint hit")
		deps.Signal.HandleMeeting(ctx, c)
	})

	return r
}
