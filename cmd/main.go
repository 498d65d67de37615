package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"promptvault/broker"
	"promptvault/config"
	"promptvault/middleware"
	"promptvault/routes"
	"promptvault/services"
	"promptvault/storage"
)

func main() {
	cfg := config.Load()

	fs := afero.NewOsFs()
	repo := storage.NewVaultRepository(fs, cfg.VaultDir)
	repo.EnsureVault()
	registryStore := storage.NewRegistryStore(fs, cfg.DataDir)

	bus := broker.NewBus()

	index := services.NewPromptIndex(repo, bus)
	if err := index.Refresh(); err != nil {
		log.Printf("Warning: initial vault load failed: %v", err)
	}

	tagService := services.NewTagService(registryStore, index, bus)
	if err := tagService.Load(); err != nil {
		log.Printf("Warning: could not load tag registry: %v", err)
	}
	groupService := services.NewGroupService(registryStore, index, bus)
	if err := groupService.Load(); err != nil {
		log.Printf("Warning: could not load group registry: %v", err)
	}

	versionService := services.NewVersionService(index, bus)
	noteService := services.NewNoteService(index, bus)
	compareService := services.NewCompareService(index)
	flushService := services.NewFlushService(versionService, time.Duration(cfg.FlushDelayMs)*time.Millisecond)
	authService := services.NewAuthService(cfg.AppKey, cfg.SessionTTLHours)

	webSocketService := services.NewWebSocketService(bus)
	webSocketService.Start()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	public := router.Group("/api/v1")
	routes.RegisterAuthRoutes(public, authService)

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(authService))
	routes.RegisterPromptRoutes(protected, index, tagService, groupService)
	routes.RegisterVersionRoutes(protected, versionService, flushService)
	routes.RegisterNoteRoutes(protected, noteService)
	routes.RegisterTagRoutes(protected, tagService)
	routes.RegisterGroupRoutes(protected, groupService)
	routes.RegisterCompareRoutes(protected, compareService)
	routes.RegisterWebSocketRoutes(router, authService, webSocketService)

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Warning: server shutdown: %v", err)
		}
	}()

	log.Printf("Prompt vault backend listening on port %s (vault: %s)", cfg.AppPort, cfg.VaultDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}

	// in-flight handlers have finished; drain buffered edits last
	flushService.Stop()
	webSocketService.Stop()
	bus.Close()
}
