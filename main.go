// Package main is the entry point of the platform messaging backend.
//
// Dependency injection wire-up, top to bottom:
//  1. Load config
//  2. Open the database, run migrations
//  3. Build repositories
//  4. Start the WebSocket hub (and the Redis bridge when configured)
//  5. Build services, handlers, routes
//  6. Serve, then shut down gracefully
//
// No globals — everything is constructed here and passed down.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/sandwichproject/platform/config"
	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] sandwich platform server starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}
	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	repos := initRepositories(db.Conn)

	hub := ws.NewHub()
	go hub.Run()

	// Single-instance deployments push through the hub directly. With
	// Redis configured, the bridge re-publishes every event so peer
	// instances behind the load balancer deliver it too.
	var pub ws.Publisher = hub
	bridgeCtx, stopBridge := context.WithCancel(context.Background())
	defer stopBridge()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		bridge := ws.NewBridge(hub, rdb, cfg.Redis.Channel)
		go bridge.Run(bridgeCtx)
		pub = bridge
		log.Printf("[main] redis fan-out bridge enabled (addr=%s)", cfg.Redis.Addr)
	}

	svcs, limiter := initServices(repos, pub, cfg)
	defer limiter.Stop()

	initHubCallbacks(hub, svcs, repos)

	h := initHandlers(svcs, repos, hub, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Sockets first so clients see the close frame, then the HTTP server
	// drains in-flight requests.
	hub.Shutdown()
	stopBridge()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
