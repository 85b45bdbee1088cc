// Package main provides the entry point for the audio grab service.
// @title Audio Grab API
// @version 1.0
// @description Extracts audio tracks from online videos and streams them back as tagged files.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/denisAlshanov/audiograb/internal/api/handlers"
	"github.com/denisAlshanov/audiograb/internal/api/router"
	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/services/admission"
	"github.com/denisAlshanov/audiograb/internal/services/downloader"
	"github.com/denisAlshanov/audiograb/internal/services/janitor"
	"github.com/denisAlshanov/audiograb/internal/services/metacache"
	"github.com/denisAlshanov/audiograb/internal/services/resolver"
	"github.com/denisAlshanov/audiograb/internal/services/storage"
	"github.com/denisAlshanov/audiograb/internal/services/tagger"
	"github.com/denisAlshanov/audiograb/internal/services/youtube"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.WithFields(utils.Fields{
		"mode":     cfg.Runtime.Mode,
		"platform": cfg.Runtime.Platform,
		"temp_dir": cfg.Download.TempDir,
	}).Info("Starting audio grab service")

	if err := os.MkdirAll(cfg.Download.TempDir, 0o755); err != nil {
		logger.Fatalf("Failed to create download directory: %v", err)
	}

	backends := make(map[string]handlers.Pinger)

	// Metadata cache: shared Redis when configured, in-process otherwise
	var cache metacache.Cache
	var redisCache *metacache.RedisCache
	if cfg.Cache.RedisAddr != "" {
		redisCache, err = metacache.NewRedisCache(&cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		cache = redisCache
		backends["redis"] = redisCache
	} else {
		cache = metacache.NewMemoryCache(cfg.Cache.TTL)
	}

	// Optional S3 archive
	archive, err := storage.NewArchive(&cfg.S3)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	if archive != nil {
		backends["s3"] = archive
	}

	extractor := youtube.NewClient(&cfg.Extractor)
	policy := resolver.DurationPolicy{
		Enforce:    cfg.Download.EnforceMaxDuration,
		MaxSeconds: int(cfg.Download.MaxDuration.Seconds()),
	}
	metadataResolver := resolver.NewMetadataResolver(extractor, cache, policy)
	playlistResolver := resolver.NewPlaylistResolver(extractor)
	gate := admission.NewGate(cfg.Admission.Threshold)

	downloaderService := downloader.NewDownloader(gate, metadataResolver, extractor, tagger.NewWriter(), archive, &cfg.Download)

	scheduler := janitor.NewScheduler(&cfg.Janitor, cfg.Download.TempDir, gate)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start janitor: %v", err)
	}

	// Initialize handlers
	youtubeHandler := handlers.NewYouTubeHandler(metadataResolver, playlistResolver, downloaderService)
	adsHandler := handlers.NewAdsHandler(gate)
	healthHandler := handlers.NewHealthHandler(cfg.Runtime, cfg.Download.TempDir, backends)

	// Initialize router
	r := router.NewRouter(cfg, youtubeHandler, adsHandler, healthHandler)
	srv := r.Server()

	// Start server
	go func() {
		logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	r.Close()
	scheduler.Stop()

	// Delete artifacts still in their grace period and wait for archive uploads
	downloaderService.Close()

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Errorf("Failed to close Redis connection: %v", err)
		}
	}

	logger.Info("Server shutdown complete")
}
