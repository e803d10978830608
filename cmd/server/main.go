// Command server is the composition root, grounded on
// rakaoran-GuessTheObject's backend/main.go: env-driven dependency
// construction, route groups, a room-actor hub, and a
// signal.Notify + sync.WaitGroup graceful shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"triviaarena/internal/appconfig"
	"triviaarena/internal/applog"
	"triviaarena/internal/httpapi"
	"triviaarena/internal/identity"
	"triviaarena/internal/questions"
	"triviaarena/internal/registry"
	"triviaarena/internal/roomactor"
	"triviaarena/internal/store"
	"triviaarena/internal/store/migrations"
)

func main() {
	cfg := appconfig.Load()
	applog.Configure(cfg.IsRelease())

	ctx := context.Background()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		applog.Fatal("invalid REDIS_URL", err)
	}
	roomStore := store.NewRedisStore(redis.NewClient(redisOpts))

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		applog.Fatal("postgres migration failed", err)
	}

	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		applog.Fatal("postgres connect failed", err)
	}
	defer pgPool.Close()
	userStore := store.NewPostgresUserStore(pgPool)

	verifier := identity.NewJWTVerifier(cfg.JWTKey)
	provider := questions.NewHTTPProvider("https://opentdb.com/api.php")
	reg := registry.New(roomStore)
	hub := roomactor.NewHub(roomStore, provider)
	gameHandler := httpapi.NewGameHandler(reg, hub, userStore)

	router := httpapi.NewRouter(cfg.ClientOrigins)
	{
		rooms := router.Group("/api/rooms")
		rooms.Use(httpapi.RequireAuth(verifier))
		rooms.POST("", gameHandler.CreateRoomHandler)
		rooms.GET("/connect", gameHandler.ConnectHandler)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	srv := &gracefulServer{router: router, addr: ":" + cfg.Port}
	go func() {
		defer wg.Done()
		srv.run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	applog.Info("server started", map[string]any{"port": cfg.Port})
	<-sigCh
	applog.Info("shutdown signal received, draining connections", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.shutdown(shutdownCtx)

	wg.Wait()
	applog.Info("shutting down now", nil)
}
