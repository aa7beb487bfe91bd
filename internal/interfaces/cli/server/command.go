package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	appchat "huddle/internal/application/chat"
	appresence "huddle/internal/application/presence"
	approom "huddle/internal/application/room"
	appsignal "huddle/internal/application/signal"
	apptask "huddle/internal/application/task"
	domain "huddle/internal/domain/presence"
	"huddle/internal/infrastructure/auth"
	"huddle/internal/infrastructure/cache"
	"huddle/internal/infrastructure/config"
	"huddle/internal/infrastructure/database"
	"huddle/internal/infrastructure/migration"
	"huddle/internal/infrastructure/repository"
	"huddle/internal/infrastructure/services"
	"huddle/internal/infrastructure/world"
	httpRouter "huddle/internal/interfaces/http"
	"huddle/internal/interfaces/http/handlers"
	"huddle/internal/interfaces/ws"
	sharedConfig "huddle/internal/shared/config"
	"huddle/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the presence server",
		Long:  `Start the Huddle presence server: websocket transport, room API and task board.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server",
		"environment", env,
		"auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		manager := migration.NewManager(env)
		if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	store := buildSessionStore(&cfg.Redis, log)

	zoneIndex := domain.NewZoneIndex()
	zones, err := world.LoadZones(cfg.World.MapPath, cfg.World.ZoneLayer)
	if err != nil {
		// a missing map means no zone transitions, not a dead server
		log.Warnw("failed to load zone map, zone transitions disabled",
			"map_path", cfg.World.MapPath,
			"error", err)
	} else {
		zoneIndex.Load(zones)
		log.Infow("zone map loaded",
			"map_path", cfg.World.MapPath,
			"zones", len(zones))
	}

	roomRepo := repository.NewRoomRepository(database.Get())
	userRepo := repository.NewUserRepository(database.Get())
	workSessionRepo := repository.NewWorkSessionRepository(database.Get())
	taskRepo := repository.NewTaskRepository(database.Get())

	tokens := &tokenServiceAdapter{svc: auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.ExpHours)}

	hub := services.NewHub(log.With("component", "hub"))
	gateway := appresence.NewGateway(roomRepo, userRepo, workSessionRepo, tokens, log.With("component", "gateway"))
	engine := appresence.NewEngine(store, zoneIndex, hub, gateway, gateway, log.With("component", "presence"))

	chatSvc := appchat.NewService(store, hub, log.With("component", "chat"))
	signalRelay := appsignal.NewRelay(store, hub, log.With("component", "signal"))
	taskSvc := apptask.NewService(taskRepo, roomRepo, store, hub, log.With("component", "task"))
	roomSvc := approom.NewService(roomRepo, userRepo, workSessionRepo, tokens, hub, cfg.Room.ExpiryHours, log.With("component", "room"))

	wsHandler := ws.NewHandler(hub, engine, store, chatSvc, taskSvc, signalRelay, roomSvc, gateway, log.With("component", "ws"))
	roomHandler := handlers.NewRoomHandler(roomSvc, taskSvc, gateway, log.With("component", "http"))

	router := httpRouter.NewRouter(cfg, roomHandler, wsHandler, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

// buildSessionStore wires the two-tier session store: Redis primary with an
// in-process memory fallback. A dead Redis at startup is logged but not
// fatal; the fallback degrades on the first failing operation.
func buildSessionStore(cfg *sharedConfig.RedisConfig, log logger.Interface) domain.Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unreachable, session store will degrade to memory",
			"addr", cfg.GetAddr(),
			"error", err)
	}

	return cache.NewFallbackSessionStore(
		cache.NewRedisSessionStore(client),
		cache.NewMemorySessionStore(),
	)
}

// tokenServiceAdapter narrows the JWT service to the application-layer token
// contract.
type tokenServiceAdapter struct {
	svc *auth.JWTService
}

func (a *tokenServiceAdapter) Generate(userSID, roomSID, roomCode, displayName string) (string, error) {
	return a.svc.Generate(userSID, roomSID, roomCode, displayName)
}

func (a *tokenServiceAdapter) Verify(token string) (*appresence.TokenClaims, error) {
	claims, err := a.svc.Verify(token)
	if err != nil {
		return nil, err
	}
	return &appresence.TokenClaims{
		UserSID:     claims.UserSID,
		RoomSID:     claims.RoomSID,
		RoomCode:    claims.RoomCode,
		DisplayName: claims.DisplayName,
	}, nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
