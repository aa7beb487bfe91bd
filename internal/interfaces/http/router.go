// Package http wires the gin engine: middleware, the room API, the task board
// read side, health and the websocket upgrade endpoint.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"huddle/internal/infrastructure/config"
	"huddle/internal/interfaces/http/handlers"
	"huddle/internal/interfaces/http/middleware"
	"huddle/internal/interfaces/ws"
	"huddle/internal/shared/logger"
)

type Router struct {
	engine      *gin.Engine
	cfg         *config.Config
	roomHandler *handlers.RoomHandler
	wsHandler   *ws.Handler
	logger      logger.Interface
}

func NewRouter(cfg *config.Config, roomHandler *handlers.RoomHandler, wsHandler *ws.Handler, log logger.Interface) *Router {
	return &Router{
		engine:      gin.New(),
		cfg:         cfg,
		roomHandler: roomHandler,
		wsHandler:   wsHandler,
		logger:      log,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.Use(
		middleware.Recovery(),
		middleware.Logger(r.logger),
		middleware.CORS(r.cfg.Server.AllowedOrigins),
	)

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.engine.GET("/ws", r.wsHandler.Serve)

	api := r.engine.Group("/api/v1")
	rooms := api.Group("/rooms")
	{
		rooms.POST("/create", r.roomHandler.Create)
		rooms.POST("/join", r.roomHandler.Join)
		rooms.POST("/abolish", r.roomHandler.Abolish)
		rooms.GET("/:code/tasks", r.roomHandler.Tasks)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
